// Package service aggregates research posts across curated identities
package service

import (
	"context"
	"sort"

	"plaza/internal/platform/logger"
	"plaza/internal/platform/pds"
	curationdomain "plaza/internal/services/curation/domain"
	"plaza/internal/services/feed/domain"
	identdomain "plaza/internal/services/ident/domain"
	postsdomain "plaza/internal/services/posts/domain"

	"github.com/bluesky-social/indigo/xrpc"
	"golang.org/x/sync/errgroup"
)

// Service defines the feed service contract
type Service interface {
	domain.ServicePort
}

// listLimit caps how many records one identity contributes
const listLimit = 100

// defaultFanout bounds concurrent per-identity fetches
const defaultFanout = 8

// Svc implements the feed service
type Svc struct {
	ident   identdomain.ServicePort
	curated curationdomain.ReaderPort
	pdsf    *pds.Factory
	admin   string
	fanout  int

	// listFn seams ListPosts for aggregation
	listFn func(ctx context.Context, did string) []domain.PostEntry
}

// New constructs a feed service
// adminDID is always aggregated even when the curated list omits it
func New(ident identdomain.ServicePort, curated curationdomain.ReaderPort, pdsf *pds.Factory, adminDID string) *Svc {
	if ident == nil || curated == nil {
		panic("feed.Service requires ident and curation ports")
	}
	s := &Svc{
		ident:   ident,
		curated: curated,
		pdsf:    pdsf,
		admin:   adminDID,
		fanout:  defaultFanout,
	}
	s.listFn = s.ListPosts
	return s
}

// ListPosts returns one identity's research posts, newest first
// Every failure path degrades to an empty slice so one broken PDS
// cannot take the whole feed down
func (s *Svc) ListPosts(ctx context.Context, did string) []domain.PostEntry {
	host, err := s.ident.PDSFor(ctx, did)
	if err != nil {
		logger.C(ctx).Warn().Err(err).Str("did", did).Msg("feed: pds lookup failed")
		return []domain.PostEntry{}
	}
	author, err := s.ident.Profile(ctx, did)
	if err != nil {
		logger.C(ctx).Warn().Err(err).Str("did", did).Msg("feed: profile fetch failed")
		return []domain.PostEntry{}
	}

	var out struct {
		Records []struct {
			URI   string                 `json:"uri"`
			CID   string                 `json:"cid"`
			Value postsdomain.PostRecord `json:"value"`
		} `json:"records"`
	}
	// listRecords orders by rkey descending by default, and TID rkeys are
	// time-ordered, so the first page is already the newest posts
	params := map[string]any{
		"repo":       did,
		"collection": postsdomain.PostNSID,
		"limit":      listLimit,
	}
	client := s.pdsf.Public(host)
	if err := client.Do(ctx, xrpc.Query, "", "com.atproto.repo.listRecords", params, nil, &out); err != nil {
		logger.C(ctx).Warn().Err(pds.MapError(err, "com.atproto.repo.listRecords")).
			Str("did", did).Msg("feed: listRecords failed")
		return []domain.PostEntry{}
	}

	posts := make([]domain.PostEntry, 0, len(out.Records))
	for _, r := range out.Records {
		posts = append(posts, domain.PostEntry{
			URI:    r.URI,
			CID:    r.CID,
			Author: author,
			Record: r.Value,
		})
	}
	return posts
}

// Aggregate merges the feeds of every curated identity plus the administrator
// It never returns an error; identities that fail contribute nothing
func (s *Svc) Aggregate(ctx context.Context) []domain.PostEntry {
	entries, _ := s.curated.Read(ctx)

	// admin first so dedup keeps the admin's copy of a shared URI
	dids := make([]string, 0, len(entries)+1)
	seen := map[string]bool{}
	if s.admin != "" {
		dids = append(dids, s.admin)
		seen[s.admin] = true
	}
	for _, e := range entries {
		if !seen[e.DID] {
			dids = append(dids, e.DID)
			seen[e.DID] = true
		}
	}

	results := make([][]domain.PostEntry, len(dids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.fanout)
	for i, did := range dids {
		i, did := i, did
		g.Go(func() error {
			results[i] = s.listFn(gctx, did)
			return nil
		})
	}
	_ = g.Wait()

	byURI := map[string]bool{}
	all := []domain.PostEntry{}
	for _, posts := range results {
		for _, p := range posts {
			if p.URI == "" || byURI[p.URI] {
				continue
			}
			byURI[p.URI] = true
			all = append(all, p)
		}
	}

	sort.Slice(all, func(i, j int) bool {
		ci, cj := all[i].Record.CreatedAt, all[j].Record.CreatedAt
		if !ci.Equal(cj) {
			return ci.After(cj)
		}
		return all[i].URI < all[j].URI
	})
	return all
}

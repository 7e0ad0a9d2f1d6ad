// Package service contains identity resolution workflows
package service

import (
	"context"
	"strings"
	"time"

	"plaza/internal/platform/cache"
	perr "plaza/internal/platform/errors"
	"plaza/internal/services/ident/domain"

	"github.com/bluesky-social/indigo/atproto/identity"
	"github.com/bluesky-social/indigo/atproto/syntax"
	"github.com/bluesky-social/indigo/xrpc"
)

// Service defines the ident service contract
type Service interface {
	domain.ServicePort
}

// Config tunes resolution behavior
type Config struct {
	// DefaultDomain completes bare handles, e.g. "alice" -> "alice.bsky.social"
	DefaultDomain string

	// PDSTTL bounds how long resolved PDS endpoints stay cached
	PDSTTL time.Duration
}

// Svc implements the ident service
type Svc struct {
	dir     identity.Directory
	cache   cache.Cache
	appview *xrpc.Client
	cfg     Config
}

// New constructs an ident service
func New(dir identity.Directory, c cache.Cache, appview *xrpc.Client, cfg Config) *Svc {
	if dir == nil {
		panic("ident.Service requires a non nil identity directory")
	}
	if cfg.DefaultDomain == "" {
		cfg.DefaultDomain = "bsky.social"
	}
	if cfg.PDSTTL <= 0 {
		cfg.PDSTTL = 24 * time.Hour
	}
	return &Svc{dir: dir, cache: c, appview: appview, cfg: cfg}
}

// NormalizeHandle lowercases, strips a leading @, and completes bare handles
func (s *Svc) NormalizeHandle(raw string) string {
	h := strings.ToLower(strings.TrimSpace(raw))
	h = strings.TrimPrefix(h, "@")
	if h != "" && !strings.Contains(h, ".") {
		h = h + "." + s.cfg.DefaultDomain
	}
	return h
}

// ResolveHandle turns a handle into a DID and warms the PDS cache as a side effect
func (s *Svc) ResolveHandle(ctx context.Context, raw string) (string, error) {
	h, err := syntax.ParseHandle(s.NormalizeHandle(raw))
	if err != nil {
		return "", perr.InvalidArgf("invalid handle %q", raw)
	}

	ident, err := s.dir.LookupHandle(ctx, h)
	if err != nil {
		return "", mapDirErr(err, raw)
	}

	did := ident.DID.String()
	if ep := ident.PDSEndpoint(); ep != "" && s.cache != nil {
		_ = s.cache.Set(ctx, pdsKey(did), []byte(ep), s.cfg.PDSTTL)
	}
	return did, nil
}

// PDSFor returns the PDS endpoint hosting the DID's repo, consulting the cache first
func (s *Svc) PDSFor(ctx context.Context, did string) (string, error) {
	if s.cache != nil {
		if v, ok, _ := s.cache.Get(ctx, pdsKey(did)); ok {
			return string(v), nil
		}
	}

	d, err := syntax.ParseDID(did)
	if err != nil {
		return "", perr.InvalidArgf("invalid did %q", did)
	}
	ident, err := s.dir.LookupDID(ctx, d)
	if err != nil {
		return "", mapDirErr(err, did)
	}

	ep := ident.PDSEndpoint()
	if ep == "" {
		return "", perr.NotFoundf("no pds endpoint declared for %s", did)
	}
	if s.cache != nil {
		_ = s.cache.Set(ctx, pdsKey(did), []byte(ep), s.cfg.PDSTTL)
	}
	return ep, nil
}

// profileView matches app.bsky.actor.getProfile output, trimmed to what we serve
type profileView struct {
	DID         string `json:"did"`
	Handle      string `json:"handle"`
	DisplayName string `json:"displayName"`
	Avatar      string `json:"avatar"`
	Description string `json:"description"`
}

// Profile fetches the public profile for a handle or DID from the appview
func (s *Svc) Profile(ctx context.Context, actor string) (domain.Profile, error) {
	if s.appview == nil {
		return domain.Profile{}, perr.Unavailablef("appview not configured")
	}
	if strings.HasPrefix(actor, "did:") {
		if _, err := syntax.ParseDID(actor); err != nil {
			return domain.Profile{}, perr.InvalidArgf("invalid did %q", actor)
		}
	} else {
		actor = s.NormalizeHandle(actor)
		if _, err := syntax.ParseHandle(actor); err != nil {
			return domain.Profile{}, perr.InvalidArgf("invalid handle %q", actor)
		}
	}

	var out profileView
	err := s.appview.Do(ctx, xrpc.Query, "", "app.bsky.actor.getProfile",
		map[string]any{"actor": actor}, nil, &out)
	if err != nil {
		// an unreachable appview and an unknown actor look the same to callers
		return domain.Profile{}, perr.Wrapf(err, perr.ErrorCodeNotFound, "profile for %s", actor)
	}
	return domain.Profile{
		DID:         out.DID,
		Handle:      out.Handle,
		DisplayName: out.DisplayName,
		Avatar:      out.Avatar,
		Description: out.Description,
	}, nil
}

func pdsKey(did string) string { return "pds:" + did }

// mapDirErr collapses directory lookup failures to not-found
// callers treat an unresolvable identity and an unreachable directory the same way
func mapDirErr(err error, who string) error {
	return perr.Wrapf(err, perr.ErrorCodeNotFound, "identity %s not found", who)
}

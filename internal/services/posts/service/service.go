// Package service publishes research posts to the author's own repo
package service

import (
	"context"
	"strings"
	"time"

	perr "plaza/internal/platform/errors"
	"plaza/internal/platform/pds"
	authdomain "plaza/internal/services/auth/domain"
	"plaza/internal/services/posts/domain"

	"github.com/bluesky-social/indigo/atproto/syntax"
	"github.com/bluesky-social/indigo/xrpc"
)

// Service defines the posts service contract
type Service interface {
	domain.ServicePort
}

// recordCreator writes a single new record
type recordCreator interface {
	Create(ctx context.Context, sess pds.UserSession, rkey string, rec domain.PostRecord) (uri, cid string, err error)
}

// Svc implements the posts service
type Svc struct {
	creator recordCreator
	now     func() time.Time
}

// New constructs a posts service writing through the given client factory
func New(pdsf *pds.Factory) *Svc {
	if pdsf == nil {
		panic("posts.Service requires a non nil pds factory")
	}
	return &Svc{
		creator: &repoCreator{pdsf: pdsf},
		now:     time.Now,
	}
}

// Publish validates the input and creates the record under a fresh TID rkey
// Validation happens before any network traffic
func (s *Svc) Publish(ctx context.Context, sess authdomain.Session, in domain.PublishInput) (domain.PublishOutput, error) {
	if sess.DID == "" {
		return domain.PublishOutput{}, perr.Unauthorizedf("login required")
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		return domain.PublishOutput{}, perr.WithField(perr.Validationf("title must not be empty"), "title")
	}
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return domain.PublishOutput{}, perr.WithField(perr.Validationf("content must not be empty"), "content")
	}
	if !validPostType(in.PostType) {
		return domain.PublishOutput{}, perr.WithField(
			perr.Validationf("postType must be one of %s", strings.Join(domain.PostTypes, ", ")), "postType")
	}

	rec := domain.PostRecord{
		Type:      domain.PostNSID,
		Title:     title,
		Content:   content,
		Summary:   strings.TrimSpace(in.Summary),
		PostType:  in.PostType,
		Venue:     strings.TrimSpace(in.Venue),
		Authors:   in.Authors,
		DOI:       strings.TrimSpace(in.DOI),
		CreatedAt: s.now().UTC(),
	}

	us, err := sess.UserSession()
	if err != nil {
		return domain.PublishOutput{}, err
	}

	rkey := syntax.NewTIDNow(0).String()
	uri, cid, err := s.creator.Create(ctx, us, rkey, rec)
	if err != nil {
		return domain.PublishOutput{}, err
	}
	return domain.PublishOutput{URI: uri, CID: cid}, nil
}

func validPostType(pt string) bool {
	for _, t := range domain.PostTypes {
		if pt == t {
			return true
		}
	}
	return false
}

// repoCreator talks to the caller's PDS over XRPC
type repoCreator struct {
	pdsf *pds.Factory
}

func (c *repoCreator) Create(ctx context.Context, sess pds.UserSession, rkey string, rec domain.PostRecord) (string, string, error) {
	body := map[string]any{
		"repo":       sess.DID,
		"collection": domain.PostNSID,
		"rkey":       rkey,
		"record":     rec,
	}
	var out struct {
		URI string `json:"uri"`
		CID string `json:"cid"`
	}
	client := c.pdsf.Authed(sess)
	if err := client.Do(ctx, xrpc.Procedure, "application/json", "com.atproto.repo.createRecord", nil, body, &out); err != nil {
		return "", "", pds.MapError(err, "com.atproto.repo.createRecord")
	}
	return out.URI, out.CID, nil
}

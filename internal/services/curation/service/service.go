// Package service maintains the community curated list record
package service

import (
	"context"
	"strings"
	"time"

	perr "plaza/internal/platform/errors"
	"plaza/internal/platform/logger"
	"plaza/internal/platform/pds"
	authdomain "plaza/internal/services/auth/domain"
	"plaza/internal/services/curation/domain"
	identdomain "plaza/internal/services/ident/domain"
)

// Service defines the curation service contract
type Service interface {
	domain.ServicePort
}

// Svc implements the curation service
// The list is one record in the administrator's repo; every write goes
// through a compare-and-swap on the record CID
type Svc struct {
	store recordStore
	ident identdomain.ServicePort
	admin string
	now   func() time.Time
}

// New constructs a curation service writing to adminDID's repo
func New(ident identdomain.ServicePort, pdsf *pds.Factory, adminDID string) *Svc {
	if ident == nil {
		panic("curation.Service requires a non nil ident port")
	}
	if adminDID == "" {
		panic("curation.Service requires the administrator DID")
	}
	return &Svc{
		store: &repoStore{ident: ident, pdsf: pdsf, admin: adminDID},
		ident: ident,
		admin: adminDID,
		now:   time.Now,
	}
}

// Read returns the curated entries
// Any failure degrades to an empty list so the public site keeps rendering
func (s *Svc) Read(ctx context.Context) ([]domain.Entry, error) {
	rec, _, err := s.load(ctx)
	if err != nil {
		logger.C(ctx).Warn().Err(err).Msg("curated list read degraded to empty")
		return []domain.Entry{}, nil
	}
	if rec.Users == nil {
		return []domain.Entry{}, nil
	}
	return rec.Users, nil
}

// Add resolves the handle and appends a new entry
func (s *Svc) Add(ctx context.Context, sess authdomain.Session, rawHandle string) ([]domain.Entry, error) {
	if err := s.requireAdmin(sess); err != nil {
		return nil, err
	}

	handle := normalizeHandle(rawHandle)
	did, err := s.ident.ResolveHandle(ctx, handle)
	if err != nil {
		return nil, err
	}

	rec, cid, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	for _, e := range rec.Users {
		if e.DID == did {
			return nil, perr.Conflictf("%s is already on the list", handle)
		}
	}

	now := s.now().UTC()
	next := rec
	next.Type = domain.ListNSID
	if next.CreatedAt.IsZero() {
		next.CreatedAt = now
	}
	next.UpdatedAt = now
	next.Users = append(append([]domain.Entry{}, rec.Users...), domain.Entry{
		DID:     did,
		Handle:  handle,
		AddedAt: now,
	})

	if err := s.write(ctx, sess, next, cid); err != nil {
		return nil, err
	}
	return next.Users, nil
}

// Remove drops the DID from the list
func (s *Svc) Remove(ctx context.Context, sess authdomain.Session, did string) ([]domain.Entry, error) {
	if err := s.requireAdmin(sess); err != nil {
		return nil, err
	}
	if did == "" {
		return nil, perr.WithField(perr.Validationf("did is required"), "did")
	}

	rec, cid, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	if cid == "" {
		return nil, perr.Internalf("curated list record does not exist")
	}

	kept := make([]domain.Entry, 0, len(rec.Users))
	found := false
	for _, e := range rec.Users {
		if e.DID == did {
			found = true
			continue
		}
		kept = append(kept, e)
	}
	if !found {
		return nil, perr.NotFoundf("%s is not on the list", did)
	}

	next := rec
	next.Type = domain.ListNSID
	next.UpdatedAt = s.now().UTC()
	next.Users = kept

	if err := s.write(ctx, sess, next, cid); err != nil {
		return nil, err
	}
	return next.Users, nil
}

// load fetches the record; a missing record comes back as a zero record
// with an empty CID, anything else surfaces the error
func (s *Svc) load(ctx context.Context) (domain.ListRecord, string, error) {
	rec, cid, err := s.store.Get(ctx)
	if perr.IsCode(err, perr.ErrorCodeNotFound) {
		return domain.ListRecord{}, "", nil
	}
	if err != nil {
		return domain.ListRecord{}, "", err
	}
	return rec, cid, nil
}

func (s *Svc) write(ctx context.Context, sess authdomain.Session, rec domain.ListRecord, swapCID string) error {
	us, err := sess.UserSession()
	if err != nil {
		return err
	}
	return s.store.Put(ctx, us, rec, swapCID)
}

func (s *Svc) requireAdmin(sess authdomain.Session) error {
	if sess.DID == "" {
		return perr.Unauthorizedf("login required")
	}
	if sess.DID != s.admin {
		return perr.Forbiddenf("the curated list is managed by the administrator")
	}
	return nil
}

func normalizeHandle(h string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(h), "@"))
}

package service

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/json"
	"testing"
	"time"

	perr "plaza/internal/platform/errors"
	"plaza/internal/platform/pds"
	authdomain "plaza/internal/services/auth/domain"
	"plaza/internal/services/curation/domain"
	identdomain "plaza/internal/services/ident/domain"

	"github.com/lestrrat-go/jwx/v2/jwk"
)

const adminDID = "did:plc:admin1"

// fakeStore records puts and serves a canned record
type fakeStore struct {
	rec domain.ListRecord
	cid string

	getErr error
	putErr error

	puts     int
	lastRec  domain.ListRecord
	lastSwap string
}

func (f *fakeStore) Get(context.Context) (domain.ListRecord, string, error) {
	if f.getErr != nil {
		return domain.ListRecord{}, "", f.getErr
	}
	return f.rec, f.cid, nil
}

func (f *fakeStore) Put(_ context.Context, _ pds.UserSession, rec domain.ListRecord, swap string) error {
	if f.putErr != nil {
		return f.putErr
	}
	f.puts++
	f.lastRec = rec
	f.lastSwap = swap
	return nil
}

// fakeResolver maps handles to DIDs
type fakeResolver struct {
	dids map[string]string
}

func (f fakeResolver) ResolveHandle(_ context.Context, handle string) (string, error) {
	if did, ok := f.dids[handle]; ok {
		return did, nil
	}
	return "", perr.NotFoundf("unknown handle %q", handle)
}

func (f fakeResolver) PDSFor(context.Context, string) (string, error) {
	return "https://pds.example", nil
}

func (f fakeResolver) Profile(context.Context, string) (identdomain.Profile, error) {
	return identdomain.Profile{}, perr.NotFoundf("no profile")
}

func newSvc(store *fakeStore, ident identdomain.ServicePort) *Svc {
	return &Svc{store: store, ident: ident, admin: adminDID, now: time.Now}
}

func sessionFor(t *testing.T, did string) authdomain.Session {
	t.Helper()
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	key, err := jwk.FromRaw(priv)
	if err != nil {
		t.Fatalf("wrap key: %v", err)
	}
	raw, err := json.Marshal(key)
	if err != nil {
		t.Fatalf("serialize key: %v", err)
	}
	return authdomain.Session{
		DID:       did,
		Handle:    "admin.plaza.example",
		PDS:       "https://pds.example",
		AccessJWT: "at-admin",
		DPoPKey:   raw,
	}
}

func seededStore() *fakeStore {
	return &fakeStore{
		rec: domain.ListRecord{
			Type: domain.ListNSID,
			Users: []domain.Entry{
				{DID: "did:plc:alice1", Handle: "alice.bsky.social", AddedAt: time.Now().Add(-time.Hour)},
			},
			CreatedAt: time.Now().Add(-24 * time.Hour),
			UpdatedAt: time.Now().Add(-time.Hour),
		},
		cid: "bafyold",
	}
}

func TestReadDegradesToEmpty(t *testing.T) {
	s := newSvc(&fakeStore{getErr: perr.Unavailablef("pds down")}, fakeResolver{})
	users, err := s.Read(context.Background())
	if err != nil {
		t.Fatalf("read must never error: %v", err)
	}
	if len(users) != 0 {
		t.Fatalf("want empty list, got %v", users)
	}
}

func TestReadMissingRecordIsEmpty(t *testing.T) {
	s := newSvc(&fakeStore{getErr: perr.NotFoundf("no record")}, fakeResolver{})
	users, err := s.Read(context.Background())
	if err != nil || len(users) != 0 {
		t.Fatalf("missing record should read as empty, got %v / %v", users, err)
	}
}

func TestReadReturnsUsers(t *testing.T) {
	s := newSvc(seededStore(), fakeResolver{})
	users, err := s.Read(context.Background())
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(users) != 1 || users[0].DID != "did:plc:alice1" {
		t.Fatalf("users = %v", users)
	}
}

func TestAddRequiresSession(t *testing.T) {
	s := newSvc(seededStore(), fakeResolver{})
	_, err := s.Add(context.Background(), authdomain.Session{}, "bob.bsky.social")
	if !perr.IsCode(err, perr.ErrorCodeUnauthorized) {
		t.Fatalf("anonymous add should be unauthorized, got %v", err)
	}
}

func TestAddRequiresAdmin(t *testing.T) {
	s := newSvc(seededStore(), fakeResolver{})
	_, err := s.Add(context.Background(), sessionFor(t, "did:plc:alice1"), "bob.bsky.social")
	if !perr.IsCode(err, perr.ErrorCodeForbidden) {
		t.Fatalf("non admin add should be forbidden, got %v", err)
	}
}

func TestAddUnknownHandle(t *testing.T) {
	st := seededStore()
	s := newSvc(st, fakeResolver{})
	_, err := s.Add(context.Background(), sessionFor(t, adminDID), "ghost.bsky.social")
	if !perr.IsCode(err, perr.ErrorCodeNotFound) {
		t.Fatalf("unknown handle should be not found, got %v", err)
	}
	if st.puts != 0 {
		t.Fatalf("failed add must not write")
	}
}

func TestAddDuplicate(t *testing.T) {
	st := seededStore()
	s := newSvc(st, fakeResolver{dids: map[string]string{"alice.bsky.social": "did:plc:alice1"}})
	_, err := s.Add(context.Background(), sessionFor(t, adminDID), "@Alice.bsky.social")
	if !perr.IsCode(err, perr.ErrorCodeConflict) {
		t.Fatalf("duplicate add should conflict, got %v", err)
	}
	if st.puts != 0 {
		t.Fatalf("duplicate add must not write")
	}
}

func TestAddAppendsWithSwap(t *testing.T) {
	st := seededStore()
	created := st.rec.CreatedAt
	s := newSvc(st, fakeResolver{dids: map[string]string{"bob.bsky.social": "did:plc:bob1"}})

	users, err := s.Add(context.Background(), sessionFor(t, adminDID), "bob.bsky.social")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if len(users) != 2 || users[1].DID != "did:plc:bob1" {
		t.Fatalf("users = %v", users)
	}
	if st.lastSwap != "bafyold" {
		t.Fatalf("put must swap on the fetched cid, got %q", st.lastSwap)
	}
	if !st.lastRec.CreatedAt.Equal(created) {
		t.Fatalf("createdAt must be preserved")
	}
	if !st.lastRec.UpdatedAt.After(st.rec.UpdatedAt) {
		t.Fatalf("updatedAt must advance")
	}
	if st.lastRec.Type != domain.ListNSID {
		t.Fatalf("record type = %q", st.lastRec.Type)
	}
}

func TestAddFirstWriteCreates(t *testing.T) {
	st := &fakeStore{getErr: perr.NotFoundf("no record")}
	s := newSvc(st, fakeResolver{dids: map[string]string{"bob.bsky.social": "did:plc:bob1"}})

	users, err := s.Add(context.Background(), sessionFor(t, adminDID), "bob.bsky.social")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if len(users) != 1 {
		t.Fatalf("users = %v", users)
	}
	if st.lastSwap != "" {
		t.Fatalf("first write must not carry a swap cid, got %q", st.lastSwap)
	}
	if st.lastRec.CreatedAt.IsZero() {
		t.Fatalf("first write must stamp createdAt")
	}
}

func TestAddStaleSwapSurfacesConflict(t *testing.T) {
	st := seededStore()
	st.putErr = perr.Conflictf("stale swap")
	s := newSvc(st, fakeResolver{dids: map[string]string{"bob.bsky.social": "did:plc:bob1"}})

	_, err := s.Add(context.Background(), sessionFor(t, adminDID), "bob.bsky.social")
	if !perr.IsCode(err, perr.ErrorCodeConflict) {
		t.Fatalf("lost cas should conflict, got %v", err)
	}
}

func TestAddReadFailureAborts(t *testing.T) {
	st := &fakeStore{getErr: perr.Unavailablef("pds down")}
	s := newSvc(st, fakeResolver{dids: map[string]string{"bob.bsky.social": "did:plc:bob1"}})

	_, err := s.Add(context.Background(), sessionFor(t, adminDID), "bob.bsky.social")
	if !perr.IsCode(err, perr.ErrorCodeUnavailable) {
		t.Fatalf("unreadable record must abort the write, got %v", err)
	}
	if st.puts != 0 {
		t.Fatalf("must not write over a record it could not read")
	}
}

func TestRemoveMissingDid(t *testing.T) {
	st := seededStore()
	s := newSvc(st, fakeResolver{})
	_, err := s.Remove(context.Background(), sessionFor(t, adminDID), "did:plc:ghost")
	if !perr.IsCode(err, perr.ErrorCodeNotFound) {
		t.Fatalf("absent did should be not found, got %v", err)
	}
	if st.puts != 0 {
		t.Fatalf("failed remove must not write")
	}
}

func TestRemoveWithoutRecord(t *testing.T) {
	st := &fakeStore{getErr: perr.NotFoundf("no record")}
	s := newSvc(st, fakeResolver{})
	_, err := s.Remove(context.Background(), sessionFor(t, adminDID), "did:plc:alice1")
	if err == nil || perr.HTTPStatus(err) < 500 {
		t.Fatalf("removing from a missing record should be 500-class, got %v", err)
	}
}

func TestRemoveDropsEntry(t *testing.T) {
	st := seededStore()
	s := newSvc(st, fakeResolver{})

	users, err := s.Remove(context.Background(), sessionFor(t, adminDID), "did:plc:alice1")
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if len(users) != 0 {
		t.Fatalf("users = %v", users)
	}
	if st.lastSwap != "bafyold" {
		t.Fatalf("remove must swap on the fetched cid, got %q", st.lastSwap)
	}
}

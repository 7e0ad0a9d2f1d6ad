package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"plaza/internal/platform/cache"
	perr "plaza/internal/platform/errors"
	identdomain "plaza/internal/services/ident/domain"

	"plaza/internal/services/auth/domain"
)

// fakeIdent satisfies the ident service port
type fakeIdent struct {
	did, pds string
	profile  identdomain.Profile
	profErr  error
}

func (f fakeIdent) ResolveHandle(context.Context, string) (string, error) {
	if f.did == "" {
		return "", perr.NotFoundf("unknown handle")
	}
	return f.did, nil
}

func (f fakeIdent) PDSFor(context.Context, string) (string, error) { return f.pds, nil }

func (f fakeIdent) Profile(context.Context, string) (identdomain.Profile, error) {
	return f.profile, f.profErr
}

// authServer fakes the PDS discovery documents, PAR, and token endpoints
type authServer struct {
	srv *httptest.Server

	parCalls   int
	tokenCalls int

	// tokenFlaky fails the first n token calls with a 502
	tokenFlaky int

	lastPAR   url.Values
	lastToken url.Values

	sub string
}

func newAuthServer(t *testing.T) *authServer {
	t.Helper()
	a := &authServer{sub: "did:plc:alice1"}
	mux := http.NewServeMux()

	mux.HandleFunc("/.well-known/oauth-protected-resource", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"authorization_servers": []string{a.srv.URL},
		})
	})
	mux.HandleFunc("/.well-known/oauth-authorization-server", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"issuer":                                a.srv.URL,
			"authorization_endpoint":                a.srv.URL + "/authorize",
			"token_endpoint":                        a.srv.URL + "/token",
			"pushed_authorization_request_endpoint": a.srv.URL + "/par",
		})
	})
	mux.HandleFunc("/par", func(w http.ResponseWriter, r *http.Request) {
		a.parCalls++
		_ = r.ParseForm()
		a.lastPAR = r.PostForm
		if r.Header.Get("DPoP") == "" {
			t.Errorf("par call missing DPoP proof")
		}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{"request_uri": "urn:ietf:params:oauth:request_uri:req-123"})
	})
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		a.tokenCalls++
		if a.tokenFlaky > 0 {
			a.tokenFlaky--
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_ = r.ParseForm()
		a.lastToken = r.PostForm
		if r.Header.Get("DPoP") == "" {
			t.Errorf("token call missing DPoP proof")
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "at-abc",
			"refresh_token": "rt-def",
			"token_type":    "DPoP",
			"expires_in":    3600,
			"sub":           a.sub,
		})
	})

	a.srv = httptest.NewServer(mux)
	t.Cleanup(a.srv.Close)
	return a
}

func newAuthSvc(t *testing.T, as *authServer, ident identdomain.ServicePort) (*Svc, *cache.Memory) {
	t.Helper()
	mem := cache.NewMemory(32)
	codec := NewCookieCodec("test-secret-0123456789abcdefghijkl", false)
	s := New(ident, mem, codec, Config{
		PublicURL:  "https://plaza.example",
		ClientName: "Plaza",
	})
	return s, mem
}

func loginState(t *testing.T, out domain.LoginOutput) string {
	t.Helper()
	u, err := url.Parse(out.RedirectURL)
	if err != nil {
		t.Fatalf("parse authorize url: %v", err)
	}
	if u.Query().Get("request_uri") == "" {
		t.Fatalf("authorize url missing request_uri: %s", out.RedirectURL)
	}
	return u.Query().Get("client_id")
}

func beginFor(t *testing.T, s *Svc, as *authServer) (domain.LoginOutput, string) {
	t.Helper()
	out, err := s.BeginLogin(context.Background(), "alice.bsky.social")
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	state := as.lastPAR.Get("state")
	if state == "" {
		t.Fatalf("par form carried no state: %v", as.lastPAR)
	}
	return out, state
}

func TestBeginLoginPushesAuthRequest(t *testing.T) {
	as := newAuthServer(t)
	s, _ := newAuthSvc(t, as, fakeIdent{did: "did:plc:alice1", pds: as.srv.URL})

	out, _ := beginFor(t, s, as)

	if as.parCalls != 1 {
		t.Fatalf("want 1 par call, got %d", as.parCalls)
	}
	if got := as.lastPAR.Get("code_challenge_method"); got != "S256" {
		t.Fatalf("challenge method = %q", got)
	}
	if got := as.lastPAR.Get("scope"); got != "atproto transition:generic" {
		t.Fatalf("scope = %q", got)
	}
	if cid := loginState(t, out); cid != s.ClientID() {
		t.Fatalf("authorize client_id = %q", cid)
	}
	if !strings.HasPrefix(out.RedirectURL, as.srv.URL+"/authorize") {
		t.Fatalf("authorize url = %q", out.RedirectURL)
	}
}

func TestBeginLoginUnknownHandle(t *testing.T) {
	as := newAuthServer(t)
	s, _ := newAuthSvc(t, as, fakeIdent{})
	_, err := s.BeginLogin(context.Background(), "ghost.bsky.social")
	if !perr.IsCode(err, perr.ErrorCodeNotFound) {
		t.Fatalf("want not found, got %v", err)
	}
}

func TestCompleteLoginHappyPath(t *testing.T) {
	as := newAuthServer(t)
	ident := fakeIdent{
		did: "did:plc:alice1",
		pds: as.srv.URL,
		profile: identdomain.Profile{
			DID: "did:plc:alice1", Handle: "alice.bsky.social", DisplayName: "Alice",
		},
	}
	s, _ := newAuthSvc(t, as, ident)
	_, state := beginFor(t, s, as)

	sess, err := s.CompleteLogin(context.Background(), domain.CallbackInput{
		State: state, Code: "code-1", Iss: as.srv.URL,
	})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if sess.DID != "did:plc:alice1" || sess.AccessJWT != "at-abc" || sess.RefreshJWT != "rt-def" {
		t.Fatalf("session = %+v", sess)
	}
	if sess.DisplayName != "Alice" {
		t.Fatalf("profile not merged: %+v", sess)
	}
	if len(sess.DPoPKey) == 0 {
		t.Fatalf("session must carry the dpop key")
	}
	if got := as.lastToken.Get("grant_type"); got != "authorization_code" {
		t.Fatalf("grant_type = %q", got)
	}
	if got := as.lastToken.Get("code_verifier"); got == "" {
		t.Fatalf("token call missing pkce verifier")
	}
}

func TestCompleteLoginRetriesTransient(t *testing.T) {
	as := newAuthServer(t)
	as.tokenFlaky = 2
	s, _ := newAuthSvc(t, as, fakeIdent{did: "did:plc:alice1", pds: as.srv.URL})
	_, state := beginFor(t, s, as)

	sess, err := s.CompleteLogin(context.Background(), domain.CallbackInput{
		State: state, Code: "code-1", Iss: as.srv.URL,
	})
	if err != nil {
		t.Fatalf("complete should recover after transient failures: %v", err)
	}
	if as.tokenCalls != 3 {
		t.Fatalf("want 3 token calls (2 failures + success), got %d", as.tokenCalls)
	}
	if sess.AccessJWT != "at-abc" {
		t.Fatalf("session = %+v", sess)
	}
}

func TestCompleteLoginStateIsSingleUse(t *testing.T) {
	as := newAuthServer(t)
	s, _ := newAuthSvc(t, as, fakeIdent{did: "did:plc:alice1", pds: as.srv.URL})
	_, state := beginFor(t, s, as)

	in := domain.CallbackInput{State: state, Code: "code-1", Iss: as.srv.URL}
	if _, err := s.CompleteLogin(context.Background(), in); err != nil {
		t.Fatalf("first complete: %v", err)
	}
	if _, err := s.CompleteLogin(context.Background(), in); !perr.IsCode(err, perr.ErrorCodeUnauthorized) {
		t.Fatalf("replayed state should be rejected, got %v", err)
	}
}

func TestCompleteLoginIssuerMismatch(t *testing.T) {
	as := newAuthServer(t)
	s, _ := newAuthSvc(t, as, fakeIdent{did: "did:plc:alice1", pds: as.srv.URL})
	_, state := beginFor(t, s, as)

	_, err := s.CompleteLogin(context.Background(), domain.CallbackInput{
		State: state, Code: "code-1", Iss: "https://evil.example",
	})
	if !perr.IsCode(err, perr.ErrorCodeUnauthorized) {
		t.Fatalf("issuer mismatch should be unauthorized, got %v", err)
	}
}

func TestCompleteLoginSubjectMismatch(t *testing.T) {
	as := newAuthServer(t)
	as.sub = "did:plc:mallory"
	s, _ := newAuthSvc(t, as, fakeIdent{did: "did:plc:alice1", pds: as.srv.URL})
	_, state := beginFor(t, s, as)

	_, err := s.CompleteLogin(context.Background(), domain.CallbackInput{
		State: state, Code: "code-1", Iss: as.srv.URL,
	})
	if !perr.IsCode(err, perr.ErrorCodeUnauthorized) {
		t.Fatalf("subject mismatch should be unauthorized, got %v", err)
	}
}

func TestCompleteLoginUserDenied(t *testing.T) {
	as := newAuthServer(t)
	s, _ := newAuthSvc(t, as, fakeIdent{did: "did:plc:alice1", pds: as.srv.URL})

	_, err := s.CompleteLogin(context.Background(), domain.CallbackInput{Error: "access_denied"})
	if !perr.IsCode(err, perr.ErrorCodeForbidden) {
		t.Fatalf("denied consent should be forbidden, got %v", err)
	}
}

func TestCompleteLoginProfileFailureDegrades(t *testing.T) {
	as := newAuthServer(t)
	s, _ := newAuthSvc(t, as, fakeIdent{
		did: "did:plc:alice1", pds: as.srv.URL,
		profErr: perr.Unavailablef("appview down"),
	})
	_, state := beginFor(t, s, as)

	sess, err := s.CompleteLogin(context.Background(), domain.CallbackInput{
		State: state, Code: "code-1", Iss: as.srv.URL,
	})
	if err != nil {
		t.Fatalf("login must survive a dead appview: %v", err)
	}
	if sess.Handle != "alice.bsky.social" {
		t.Fatalf("handle from pending state should remain: %+v", sess)
	}
	if sess.DisplayName != "" {
		t.Fatalf("display name should be empty when profile fetch fails")
	}
}

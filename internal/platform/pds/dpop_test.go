package pds

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

func testKey(t *testing.T) jwk.Key {
	t.Helper()
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	key, err := jwk.FromRaw(priv)
	if err != nil {
		t.Fatalf("wrap key: %v", err)
	}
	return key
}

func TestProofClaims(t *testing.T) {
	key := testKey(t)

	raw, err := Proof(key, "POST", "https://pds.example/xrpc/com.atproto.repo.createRecord", "n0nce", "tok123")
	if err != nil {
		t.Fatalf("proof: %v", err)
	}

	pub, _ := key.PublicKey()
	payload, err := jws.Verify([]byte(raw), jws.WithKey(jwa.ES256, pub))
	if err != nil {
		t.Fatalf("verify signature: %v", err)
	}

	tok, err := jwt.Parse(payload, jwt.WithVerify(false), jwt.WithValidate(false))
	if err != nil {
		t.Fatalf("parse claims: %v", err)
	}

	if v, _ := tok.Get("htm"); v != "POST" {
		t.Fatalf("htm = %v", v)
	}
	if v, _ := tok.Get("htu"); v != "https://pds.example/xrpc/com.atproto.repo.createRecord" {
		t.Fatalf("htu = %v", v)
	}
	if v, _ := tok.Get("nonce"); v != "n0nce" {
		t.Fatalf("nonce = %v", v)
	}
	h := sha256.Sum256([]byte("tok123"))
	want := base64.RawURLEncoding.EncodeToString(h[:])
	if v, _ := tok.Get("ath"); v != want {
		t.Fatalf("ath = %v, want %v", v, want)
	}
	if _, ok := tok.Get("jti"); !ok {
		t.Fatalf("jti missing")
	}

	msg, err := jws.Parse([]byte(raw))
	if err != nil {
		t.Fatalf("parse jws: %v", err)
	}
	hdr := msg.Signatures()[0].ProtectedHeaders()
	if hdr.Type() != "dpop+jwt" {
		t.Fatalf("typ = %q", hdr.Type())
	}
	if hdr.JWK() == nil {
		t.Fatalf("jwk header missing")
	}
}

func TestProofOmitsEmptyClaims(t *testing.T) {
	key := testKey(t)

	raw, err := Proof(key, "POST", "https://auth.example/token", "", "")
	if err != nil {
		t.Fatalf("proof: %v", err)
	}
	tok, err := jwt.Parse([]byte(raw), jwt.WithVerify(false), jwt.WithValidate(false))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, ok := tok.Get("nonce"); ok {
		t.Fatalf("nonce should be absent")
	}
	if _, ok := tok.Get("ath"); ok {
		t.Fatalf("ath should be absent")
	}
}

func TestDPoPTransportRewritesAuthScheme(t *testing.T) {
	var gotAuth, gotDPoP string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotDPoP = r.Header.Get("DPoP")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	tr := &dpopTransport{base: http.DefaultTransport, key: testKey(t), accessToken: "tok123"}
	client := &http.Client{Transport: tr}

	req, _ := http.NewRequest("GET", srv.URL+"/xrpc/test?q=1", nil)
	req.Header.Set("Authorization", "Bearer tok123")
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	_ = resp.Body.Close()

	if !strings.HasPrefix(gotAuth, "DPoP ") {
		t.Fatalf("authorization scheme not rewritten: %q", gotAuth)
	}
	if gotDPoP == "" {
		t.Fatalf("DPoP proof header missing")
	}

	// htu must drop the query string
	tok, err := jwt.Parse([]byte(gotDPoP), jwt.WithVerify(false), jwt.WithValidate(false))
	if err != nil {
		t.Fatalf("parse proof: %v", err)
	}
	if v, _ := tok.Get("htu"); v != srv.URL+"/xrpc/test" {
		t.Fatalf("htu = %v", v)
	}
}

func TestDPoPTransportNonceRetry(t *testing.T) {
	var calls int
	var nonces []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		proof := r.Header.Get("DPoP")
		tok, _ := jwt.Parse([]byte(proof), jwt.WithVerify(false), jwt.WithValidate(false))
		var nonce string
		if v, ok := tok.Get("nonce"); ok {
			nonce, _ = v.(string)
		}
		nonces = append(nonces, nonce)

		if calls == 1 {
			w.Header().Set("DPoP-Nonce", "fresh-nonce")
			w.Header().Set("WWW-Authenticate", `DPoP error="use_dpop_nonce"`)
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		body, _ := io.ReadAll(r.Body)
		if string(body) != `{"x":1}` {
			t.Errorf("retry lost request body: %q", body)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	tr := &dpopTransport{base: http.DefaultTransport, key: testKey(t), accessToken: "tok123"}
	client := &http.Client{Transport: tr}

	resp, err := client.Post(srv.URL+"/xrpc/test", "application/json", strings.NewReader(`{"x":1}`))
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	_ = resp.Body.Close()

	if calls != 2 {
		t.Fatalf("want 2 calls (original + nonce retry), got %d", calls)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("retry should succeed, got %d", resp.StatusCode)
	}
	if nonces[0] != "" || nonces[1] != "fresh-nonce" {
		t.Fatalf("nonce progression wrong: %v", nonces)
	}
}

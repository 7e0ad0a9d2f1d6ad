package pds

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// dpopTransport signs each outgoing request with a DPoP proof and
// rewrites the Authorization scheme from Bearer to DPoP
//
// Servers rotate nonces; we remember the last one per transport and
// retry once when told use_dpop_nonce
type dpopTransport struct {
	base        http.RoundTripper
	key         jwk.Key
	accessToken string

	mu    sync.Mutex
	nonce string
}

func (t *dpopTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// buffer the body so the nonce retry can resend it
	var body []byte
	if req.Body != nil {
		var err error
		body, err = io.ReadAll(req.Body)
		_ = req.Body.Close()
		if err != nil {
			return nil, err
		}
	}

	resp, err := t.send(req, body)
	if err != nil {
		return nil, err
	}

	if !needsNonceRetry(resp) {
		return resp, nil
	}
	t.setNonce(resp.Header.Get("DPoP-Nonce"))
	_ = resp.Body.Close()

	return t.send(req, body)
}

func (t *dpopTransport) send(req *http.Request, body []byte) (*http.Response, error) {
	r := req.Clone(req.Context())
	if body != nil {
		r.Body = io.NopCloser(bytes.NewReader(body))
		r.ContentLength = int64(len(body))
	}

	proof, err := Proof(t.key, r.Method, proofURL(r), t.getNonce(), t.accessToken)
	if err != nil {
		return nil, err
	}
	r.Header.Set("DPoP", proof)

	// xrpc sets Bearer; DPoP-bound tokens use the DPoP scheme
	if ah := r.Header.Get("Authorization"); strings.HasPrefix(ah, "Bearer ") {
		r.Header.Set("Authorization", "DPoP "+strings.TrimPrefix(ah, "Bearer "))
	}

	resp, err := t.base.RoundTrip(r)
	if err != nil {
		return nil, err
	}
	if n := resp.Header.Get("DPoP-Nonce"); n != "" {
		t.setNonce(n)
	}
	return resp, nil
}

func (t *dpopTransport) getNonce() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.nonce
}

func (t *dpopTransport) setNonce(n string) {
	if n == "" {
		return
	}
	t.mu.Lock()
	t.nonce = n
	t.mu.Unlock()
}

// needsNonceRetry reports whether the server rejected the proof for a
// missing or stale nonce and supplied a fresh one
func needsNonceRetry(resp *http.Response) bool {
	if resp.StatusCode != http.StatusUnauthorized && resp.StatusCode != http.StatusBadRequest {
		return false
	}
	if resp.Header.Get("DPoP-Nonce") == "" {
		return false
	}
	return strings.Contains(resp.Header.Get("WWW-Authenticate"), "use_dpop_nonce") ||
		resp.StatusCode == http.StatusBadRequest
}

// proofURL is the htu claim: scheme, host, and path without query
func proofURL(r *http.Request) string {
	u := *r.URL
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}

// Proof builds a signed DPoP proof JWT for one request
// nonce and accessToken may be empty (token endpoint calls carry no ath)
func Proof(key jwk.Key, method, url, nonce, accessToken string) (string, error) {
	pub, err := key.PublicKey()
	if err != nil {
		return "", err
	}

	b := jwt.NewBuilder().
		Claim("jti", uuid.NewString()).
		Claim("htm", method).
		Claim("htu", url).
		Claim("iat", time.Now().Unix())
	if nonce != "" {
		b = b.Claim("nonce", nonce)
	}
	if accessToken != "" {
		h := sha256.Sum256([]byte(accessToken))
		b = b.Claim("ath", base64.RawURLEncoding.EncodeToString(h[:]))
	}
	tok, err := b.Build()
	if err != nil {
		return "", err
	}

	hdrs := jws.NewHeaders()
	if err := hdrs.Set(jws.TypeKey, "dpop+jwt"); err != nil {
		return "", err
	}
	if err := hdrs.Set(jws.JWKKey, pub); err != nil {
		return "", err
	}

	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.ES256, key, jws.WithProtectedHeaders(hdrs)))
	if err != nil {
		return "", err
	}
	return string(signed), nil
}

// Package pds builds XRPC clients for talking to personal data servers
// and the public appview
package pds

import (
	"net/http"
	"time"

	"plaza/internal/platform/config"

	"github.com/bluesky-social/indigo/xrpc"
	"github.com/lestrrat-go/jwx/v2/jwk"
)

const userAgent = "plaza/0.1"

// Factory hands out xrpc clients sharing one pooled http client
type Factory struct {
	base    *http.Client
	timeout time.Duration
}

// New builds a Factory from config
//
//	ATPROTO_HTTP_TIMEOUT  per-request deadline (default 15s)
func New(cfg config.Conf) *Factory {
	timeout := cfg.Prefix("ATPROTO_").MayDuration("HTTP_TIMEOUT", 15*time.Second)
	return &Factory{
		base:    &http.Client{Timeout: timeout},
		timeout: timeout,
	}
}

// Public returns an unauthenticated client for host
func (f *Factory) Public(host string) *xrpc.Client {
	ua := userAgent
	return &xrpc.Client{
		Client:    f.base,
		Host:      host,
		UserAgent: &ua,
	}
}

// NewDPoPClient returns a plain http client that signs every request with
// a DPoP proof; used for OAuth PAR and token endpoint calls
// accessToken may be empty for calls made before a token exists
func NewDPoPClient(key jwk.Key, accessToken string, timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &dpopTransport{
			base:        http.DefaultTransport,
			key:         key,
			accessToken: accessToken,
		},
	}
}

// DPoPClient is the factory-scoped variant of NewDPoPClient
func (f *Factory) DPoPClient(key jwk.Key, accessToken string) *http.Client {
	return NewDPoPClient(key, accessToken, f.timeout)
}

// UserSession carries what an authenticated xrpc client needs
// The access token is bound to the DPoP key per RFC 9449
type UserSession struct {
	DID         string
	Handle      string
	PDS         string
	AccessToken string
	DPoPKey     jwk.Key
}

// Authed returns a client for the session's own PDS that signs every
// request with a fresh DPoP proof
func (f *Factory) Authed(sess UserSession) *xrpc.Client {
	ua := userAgent
	return &xrpc.Client{
		Client: &http.Client{
			Timeout: f.timeout,
			Transport: &dpopTransport{
				base:        http.DefaultTransport,
				key:         sess.DPoPKey,
				accessToken: sess.AccessToken,
			},
		},
		Host:      sess.PDS,
		UserAgent: &ua,
		Auth: &xrpc.AuthInfo{
			AccessJwt: sess.AccessToken,
			Did:       sess.DID,
			Handle:    sess.Handle,
		},
	}
}

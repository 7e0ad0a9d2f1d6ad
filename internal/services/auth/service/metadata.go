package service

import (
	"encoding/json"

	perr "plaza/internal/platform/errors"

	"github.com/lestrrat-go/jwx/v2/jwk"
)

// OAuth client descriptors served at well-known paths
// These are wire-exact documents, bypassing the response envelope

// ClientID is the canonical client identifier: the URL of the metadata document
func (s *Svc) ClientID() string {
	return s.cfg.PublicURL + "/api/oauth/client-metadata.json"
}

// RedirectURI is where the authorization server sends the browser back
func (s *Svc) RedirectURI() string {
	return s.cfg.PublicURL + "/api/oauth/callback"
}

// ClientMetadata builds the client-metadata.json document
// With a signing key configured we act as a confidential client
func (s *Svc) ClientMetadata() map[string]any {
	md := map[string]any{
		"client_id":                  s.ClientID(),
		"client_name":                s.cfg.ClientName,
		"client_uri":                 s.cfg.PublicURL,
		"redirect_uris":              []string{s.RedirectURI()},
		"grant_types":                []string{"authorization_code", "refresh_token"},
		"response_types":             []string{"code"},
		"scope":                      "atproto transition:generic",
		"application_type":           "web",
		"dpop_bound_access_tokens":   true,
		"token_endpoint_auth_method": "none",
	}
	if s.cfg.ClientKey != nil {
		md["token_endpoint_auth_method"] = "private_key_jwt"
		md["token_endpoint_auth_signing_alg"] = "ES256"
		md["jwks_uri"] = s.cfg.PublicURL + "/api/oauth/jwks.json"
	}
	return md
}

// JWKS builds the public key set document for confidential client auth
func (s *Svc) JWKS() (json.RawMessage, error) {
	set := jwk.NewSet()
	if s.cfg.ClientKey != nil {
		pub, err := s.cfg.ClientKey.PublicKey()
		if err != nil {
			return nil, perr.Wrap(err, perr.ErrorCodeUnknown, "derive public jwk")
		}
		if err := set.AddKey(pub); err != nil {
			return nil, perr.Wrap(err, perr.ErrorCodeUnknown, "assemble jwks")
		}
	}
	b, err := json.Marshal(set)
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeUnknown, "marshal jwks")
	}
	return b, nil
}

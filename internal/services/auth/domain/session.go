// Package domain holds session and login DTOs for the auth service
package domain

import (
	"encoding/json"
	"time"

	perr "plaza/internal/platform/errors"
	"plaza/internal/platform/pds"

	"github.com/lestrrat-go/jwx/v2/jwk"
)

// Session is everything the backend needs to act on the user's behalf
// It lives encrypted inside the cookie; there is no server-side session store
type Session struct {
	DID         string `json:"did"`
	Handle      string `json:"handle"`
	DisplayName string `json:"displayName,omitempty"`
	Avatar      string `json:"avatar,omitempty"`

	// PDS and token material for writes to the user's own repo
	PDS        string `json:"pds"`
	Issuer     string `json:"iss"`
	AccessJWT  string `json:"accessJwt"`
	RefreshJWT string `json:"refreshJwt,omitempty"`

	// DPoPKey is the private JWK the access token is bound to
	DPoPKey json.RawMessage `json:"dpopKey"`

	ExpiresAt time.Time `json:"exp"`
}

// Expired reports whether the session has passed its expiry
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}

// UserSession restores the PDS client credentials carried by the session
func (s Session) UserSession() (pds.UserSession, error) {
	key, err := jwk.ParseKey(s.DPoPKey)
	if err != nil {
		return pds.UserSession{}, perr.Wrap(err, perr.ErrorCodeUnauthorized, "restore dpop key")
	}
	return pds.UserSession{
		DID:         s.DID,
		Handle:      s.Handle,
		PDS:         s.PDS,
		AccessToken: s.AccessJWT,
		DPoPKey:     key,
	}, nil
}

package service

import (
	"crypto/sha256"
	"encoding/json"
	"net/http"
	"time"

	perr "plaza/internal/platform/errors"
	"plaza/internal/services/auth/domain"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwe"
)

// CookieName is the session cookie served to the frontend
const CookieName = "plaza_session"

// SessionTTL bounds how long a login survives without re-authenticating
const SessionTTL = 30 * 24 * time.Hour

// CookieCodec seals sessions into an encrypted cookie and opens them again
// Direct A256GCM encryption with a key derived from the configured secret
type CookieCodec struct {
	key    []byte
	secure bool

	// now is a seam for expiry tests
	now func() time.Time
}

// MinSecretLen is the shortest COOKIE_SECRET accepted at startup
// Hashing stretches the secret to the AES key size but cannot add entropy
const MinSecretLen = 32

// NewCookieCodec derives the encryption key from secret
// secure should be true when the public URL is https
func NewCookieCodec(secret string, secure bool) *CookieCodec {
	if len(secret) < MinSecretLen {
		panic("auth.CookieCodec requires a secret of at least 32 bytes")
	}
	k := sha256.Sum256([]byte(secret))
	return &CookieCodec{key: k[:], secure: secure, now: time.Now}
}

// Encode seals the session into a Set-Cookie value
func (c *CookieCodec) Encode(s domain.Session) (*http.Cookie, error) {
	if s.ExpiresAt.IsZero() {
		s.ExpiresAt = c.now().Add(SessionTTL)
	}
	payload, err := json.Marshal(s)
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeUnknown, "marshal session")
	}
	sealed, err := jwe.Encrypt(payload,
		jwe.WithKey(jwa.DIRECT, c.key),
		jwe.WithContentEncryption(jwa.A256GCM),
	)
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeUnknown, "seal session")
	}
	return &http.Cookie{
		Name:     CookieName,
		Value:    string(sealed),
		Path:     "/",
		Expires:  s.ExpiresAt,
		MaxAge:   int(time.Until(s.ExpiresAt).Seconds()),
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	}, nil
}

// Decode opens the session cookie on a request
// Missing, tampered, or expired cookies all come back Unauthorized
func (c *CookieCodec) Decode(r *http.Request) (domain.Session, error) {
	ck, err := r.Cookie(CookieName)
	if err != nil || ck.Value == "" {
		return domain.Session{}, perr.Unauthorizedf("no session")
	}
	return c.DecodeValue(ck.Value)
}

// DecodeValue opens a raw sealed cookie value
func (c *CookieCodec) DecodeValue(v string) (domain.Session, error) {
	payload, err := jwe.Decrypt([]byte(v), jwe.WithKey(jwa.DIRECT, c.key))
	if err != nil {
		return domain.Session{}, perr.Unauthorizedf("invalid session")
	}
	var s domain.Session
	if err := json.Unmarshal(payload, &s); err != nil {
		return domain.Session{}, perr.Unauthorizedf("invalid session")
	}
	if s.Expired(c.now()) {
		return domain.Session{}, perr.Unauthorizedf("session expired")
	}
	return s, nil
}

// Clear returns an expired cookie that removes the session
func (c *CookieCodec) Clear() *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

package module

import (
	"net/http"

	authdomain "plaza/internal/services/auth/domain"
	authsvc "plaza/internal/services/auth/service"
)

// Ports bundles what other modules and the middleware pull from auth
type Ports struct {
	// Service is the OAuth workflow surface
	Service authsvc.Service

	// Sessions satisfies the platform session middleware seam
	Sessions sessionParser

	// Loader hands the full session (tokens included) to write-path modules
	Loader sessionLoader
}

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }

// sessionParser adapts the cookie codec to middleware.SessionPort
type sessionParser struct{ codec *authsvc.CookieCodec }

// Parse returns the authenticated DID from the request cookie
func (p sessionParser) Parse(r *http.Request) (string, error) {
	s, err := p.codec.Decode(r)
	if err != nil {
		return "", err
	}
	return s.DID, nil
}

// sessionLoader exposes the full decoded session for PDS writes
type sessionLoader struct{ codec *authsvc.CookieCodec }

// Load returns the session carried by the request cookie
func (l sessionLoader) Load(r *http.Request) (authdomain.Session, error) {
	return l.codec.Decode(r)
}

package middleware

import (
	"net/http"

	perr "plaza/internal/platform/errors"
	"plaza/internal/platform/logger"
	pnet "plaza/internal/platform/net"
)

// SessionPort is the seam the auth service implements
// Parse returns the authenticated DID from the request cookie or an error
type SessionPort interface {
	Parse(r *http.Request) (did string, err error)
}

// Session resolves the cookie session and stores the DID on context
// Missing or invalid cookies pass through anonymously; handlers that
// need auth enforce it via RequireSession
func Session(p SessionPort) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if p == nil {
				next.ServeHTTP(w, r)
				return
			}
			did, err := p.Parse(r)
			if err != nil || did == "" {
				next.ServeHTTP(w, r)
				return
			}
			ctx := pnet.WithDID(r.Context(), did)
			ctx = logger.WithRequest(ctx, pnet.RequestID(ctx), did)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireSession rejects requests with no authenticated DID on context
// Mount below Session on protected route groups
func RequireSession(write func(w http.ResponseWriter, status int, body any)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if pnet.DID(r.Context()) == "" {
				status, body := pnet.Error(
					perr.Unauthorizedf("authentication required"),
					pnet.RequestID(r.Context()),
				)
				write(w, status, body)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

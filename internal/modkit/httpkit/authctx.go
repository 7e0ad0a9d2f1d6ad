package httpkit

import (
	"net/http"

	perrs "plaza/internal/platform/errors"
	pnet "plaza/internal/platform/net"
)

// DID returns the authenticated identity from the request context
func DID(r *http.Request) (string, error) {
	did := pnet.DID(r.Context())
	if did == "" {
		return "", perrs.Unauthorizedf("authentication required")
	}
	return did, nil
}

// MustDID returns the authenticated identity or panics
// only use on routes protected by RequireSession
func MustDID(r *http.Request) string {
	did, err := DID(r)
	if err != nil {
		panic(err)
	}
	return did
}

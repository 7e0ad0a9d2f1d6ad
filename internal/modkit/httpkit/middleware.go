package httpkit

import (
	"compress/flate"
	"net/http"
	"time"

	phttp "plaza/internal/platform/net/http"
	"plaza/internal/platform/net/middleware"
)

// CommonStack returns a baseline per module middleware slice
// compose with the session middleware as needed in main
func CommonStack() []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		// tracing / correlation
		middleware.RequestID(),
		middleware.RealIP(),

		// safety
		middleware.RecoverJSON,

		// cache / freshness
		middleware.NoCache(),

		// observability
		middleware.AccessLogZerolog(middleware.AccessLogOptions{Slow: 500 * time.Millisecond}),

		middleware.Compress(flate.BestSpeed),
		middleware.StripSlashes(),
		middleware.Timeout(30 * time.Second),
	}
}

// Session wires the session middleware; did lands on context when the cookie is valid
func Session(p middleware.SessionPort) func(http.Handler) http.Handler {
	return middleware.Session(p)
}

// RequireSession rejects anonymous requests with the platform JSON writer
func RequireSession() func(http.Handler) http.Handler {
	// middleware expects write func(w http.ResponseWriter, status int, body any)
	// use phttp.JSON which matches that signature
	return middleware.RequireSession(phttp.JSON)
}

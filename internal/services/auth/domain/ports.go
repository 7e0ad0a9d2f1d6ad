package domain

import (
	"context"
	"net/http"
)

// SessionLoader hands the decoded cookie session to write-path modules
type SessionLoader interface {
	Load(r *http.Request) (Session, error)
}

// ServicePort is consumed by handlers and the session middleware
type ServicePort interface {
	// BeginLogin resolves the handle and pushes an authorization request,
	// returning the URL the browser should be redirected to
	BeginLogin(ctx context.Context, handle string) (LoginOutput, error)

	// CompleteLogin validates the callback and exchanges the code for tokens
	CompleteLogin(ctx context.Context, in CallbackInput) (Session, error)
}

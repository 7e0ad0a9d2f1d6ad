// Package net provides utilities for working with request contexts
package net

import (
	"context"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// ctxKey is an unexported key type for context values
type ctxKey string

const keyDID ctxKey = "did"

// WithRequest annotates context with common request scoped ids
func WithRequest(ctx context.Context, reqID string) context.Context {
	if reqID != "" {
		// set chi RequestID so chimw.GetReqID can retrieve it
		ctx = context.WithValue(ctx, chimw.RequestIDKey, reqID)
	}
	return ctx
}

// WithDID annotates context with the authenticated identity
func WithDID(ctx context.Context, did string) context.Context {
	if did != "" {
		ctx = context.WithValue(ctx, keyDID, did)
	}
	return ctx
}

// RequestID returns the request id on the context if present
func RequestID(ctx context.Context) string {
	if v := chimw.GetReqID(ctx); v != "" {
		return v
	}
	return ""
}

// DID returns the authenticated identity on the context if present
func DID(ctx context.Context) string {
	if v, ok := ctx.Value(keyDID).(string); ok {
		return v
	}
	return ""
}

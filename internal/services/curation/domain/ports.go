package domain

import (
	"context"

	authdomain "plaza/internal/services/auth/domain"
)

// ReaderPort is the slice of the service the feed aggregator consumes
type ReaderPort interface {
	// Read returns the curated entries; failures degrade to an empty list
	Read(ctx context.Context) ([]Entry, error)
}

// ServicePort is consumed by handlers
type ServicePort interface {
	ReaderPort

	// Add resolves the handle and appends it to the list
	// Only the administrator's session may call it
	Add(ctx context.Context, sess authdomain.Session, handle string) ([]Entry, error)

	// Remove drops the DID from the list under the same authorization
	Remove(ctx context.Context, sess authdomain.Session, did string) ([]Entry, error)
}

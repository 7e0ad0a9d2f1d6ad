package domain

import "context"

// ServicePort is consumed by handlers
type ServicePort interface {
	// ListPosts returns one identity's research posts, newest first
	// Failures degrade to an empty slice
	ListPosts(ctx context.Context, did string) []PostEntry

	// Aggregate fans out over the curated list plus the administrator
	// and returns the merged, deduplicated, sorted feed; it never fails
	Aggregate(ctx context.Context) []PostEntry
}

package domain

import "context"

// ServicePort is consumed by handlers and other modules
type ServicePort interface {
	// ResolveHandle turns a handle (bare or fully qualified) into a DID
	ResolveHandle(ctx context.Context, handle string) (string, error)

	// PDSFor returns the PDS endpoint hosting the given DID's repo
	PDSFor(ctx context.Context, did string) (string, error)

	// Profile fetches the public profile for a handle or DID
	Profile(ctx context.Context, actor string) (Profile, error)
}

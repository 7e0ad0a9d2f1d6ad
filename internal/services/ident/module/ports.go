package module

import (
	"context"

	"plaza/internal/services/ident/domain"
	identsvc "plaza/internal/services/ident/service"
)

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }

type adaptIdentPort struct{ svc identsvc.Service }

// ResolveHandle turns a handle into a DID
func (a adaptIdentPort) ResolveHandle(ctx context.Context, handle string) (string, error) {
	return a.svc.ResolveHandle(ctx, handle)
}

// PDSFor returns the PDS endpoint hosting the DID's repo
func (a adaptIdentPort) PDSFor(ctx context.Context, did string) (string, error) {
	return a.svc.PDSFor(ctx, did)
}

// Profile fetches the public profile for a handle or DID
func (a adaptIdentPort) Profile(ctx context.Context, actor string) (domain.Profile, error) {
	return a.svc.Profile(ctx, actor)
}

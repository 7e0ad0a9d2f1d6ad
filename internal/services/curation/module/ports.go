package module

import (
	"context"

	"plaza/internal/services/curation/domain"
	cursvc "plaza/internal/services/curation/service"
)

// Ports returns the module ports
// The feed aggregator only needs the read side
func (m *Module) Ports() any { return m.ports }

// adaptReaderPort narrows the service to domain.ReaderPort
type adaptReaderPort struct{ svc cursvc.Service }

func (a adaptReaderPort) Read(ctx context.Context) ([]domain.Entry, error) {
	return a.svc.Read(ctx)
}

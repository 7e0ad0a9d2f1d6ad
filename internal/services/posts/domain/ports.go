package domain

import (
	"context"

	authdomain "plaza/internal/services/auth/domain"
)

// ServicePort is consumed by handlers
type ServicePort interface {
	// Publish validates the input and writes a research post to the
	// session owner's own repo
	Publish(ctx context.Context, sess authdomain.Session, in PublishInput) (PublishOutput, error)
}

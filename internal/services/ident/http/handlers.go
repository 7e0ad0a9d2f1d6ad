// Package http provides http transport for identity lookups
package http

import (
	stdhttp "net/http"

	"plaza/internal/modkit/httpkit"
	perr "plaza/internal/platform/errors"
	"plaza/internal/services/ident/domain"
	svc "plaza/internal/services/ident/service"

	"github.com/go-chi/chi/v5"
)

// Register mounts ident endpoints on the given router
func Register(r httpkit.Router, s svc.Service) {
	h := &handlers{svc: s}

	// public profile by handle or DID
	httpkit.Get(r, "/{handle}", h.profile)
}

type handlers struct{ svc svc.Service }

// @Summary Public profile for a handle or DID
// @Tags Users
// @Produce json
// @Param handle path string true "Handle or DID"
// @Success 200 {object} domain.ProfileOutput "ok"
// @Router /users/{handle} [get]
func (h *handlers) profile(r *stdhttp.Request) (any, error) {
	actor := chi.URLParam(r, "handle")
	if actor == "" {
		return nil, perr.InvalidArgf("handle is required")
	}
	p, err := h.svc.Profile(r.Context(), actor)
	if err != nil {
		return nil, err
	}
	return domain.ProfileOutput{Profile: p}, nil
}

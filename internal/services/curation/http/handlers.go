// Package http provides http transport for the curated list
package http

import (
	stdhttp "net/http"

	"plaza/internal/modkit/httpkit"
	perr "plaza/internal/platform/errors"
	authdomain "plaza/internal/services/auth/domain"
	"plaza/internal/services/curation/domain"
	svc "plaza/internal/services/curation/service"
)

// Register mounts curated list endpoints on the given router
func Register(r httpkit.Router, s svc.Service, sessions authdomain.SessionLoader) {
	h := &handlers{svc: s, sessions: sessions}

	httpkit.Get(r, "/", h.list)
	httpkit.PostJSON(r, "/", h.add)
	httpkit.Delete(r, "/", h.remove)
}

type handlers struct {
	svc      svc.Service
	sessions authdomain.SessionLoader
}

// @Summary Curated researcher list
// @Tags Curation
// @Produce json
// @Success 200 {object} domain.ListOutput "ok"
// @Router /curated-list [get]
func (h *handlers) list(r *stdhttp.Request) (any, error) {
	users, err := h.svc.Read(r.Context())
	if err != nil {
		return nil, err
	}
	return domain.ListOutput{Users: users}, nil
}

// @Summary Add a researcher to the curated list
// @Tags Curation
// @Accept json
// @Produce json
// @Param payload body domain.AddInput true "Handle to add"
// @Success 200 {object} domain.MutationOutput "ok"
// @Failure 401 {object} httpkit.Envelope "not logged in"
// @Failure 403 {object} httpkit.Envelope "not the administrator"
// @Failure 404 {object} httpkit.Envelope "handle does not resolve"
// @Failure 409 {object} httpkit.Envelope "already on the list or write conflict"
// @Router /curated-list [post]
func (h *handlers) add(r *stdhttp.Request, in domain.AddInput) (any, error) {
	sess, _ := h.sessions.Load(r)
	users, err := h.svc.Add(r.Context(), sess, in.Handle)
	if err != nil {
		return nil, err
	}
	return domain.MutationOutput{Success: true, Users: users}, nil
}

// @Summary Remove a researcher from the curated list
// @Tags Curation
// @Produce json
// @Param did query string true "DID to remove"
// @Success 200 {object} domain.MutationOutput "ok"
// @Failure 401 {object} httpkit.Envelope "not logged in"
// @Failure 403 {object} httpkit.Envelope "not the administrator"
// @Failure 404 {object} httpkit.Envelope "did not on the list"
// @Router /curated-list [delete]
func (h *handlers) remove(r *stdhttp.Request) (any, error) {
	did := r.URL.Query().Get("did")
	if did == "" {
		return nil, perr.WithField(perr.Validationf("did query parameter is required"), "did")
	}
	sess, _ := h.sessions.Load(r)
	users, err := h.svc.Remove(r.Context(), sess, did)
	if err != nil {
		return nil, err
	}
	return domain.MutationOutput{Success: true, Users: users}, nil
}

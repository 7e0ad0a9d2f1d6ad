// Package http provides http transport for publishing posts
package http

import (
	stdhttp "net/http"

	"plaza/internal/modkit/httpkit"
	authdomain "plaza/internal/services/auth/domain"
	"plaza/internal/services/posts/domain"
	svc "plaza/internal/services/posts/service"
)

// Register mounts post endpoints on the given router
func Register(r httpkit.Router, s svc.Service, sessions authdomain.SessionLoader) {
	h := &handlers{svc: s, sessions: sessions}

	httpkit.PostJSON(r, "/", h.publish)
}

type handlers struct {
	svc      svc.Service
	sessions authdomain.SessionLoader
}

// @Summary Publish a research post to the caller's own repo
// @Tags Posts
// @Accept json
// @Produce json
// @Param payload body domain.PublishInput true "Post payload"
// @Success 200 {object} domain.PublishOutput "ok"
// @Failure 400 {object} httpkit.Envelope "validation failure"
// @Failure 401 {object} httpkit.Envelope "not logged in"
// @Router /posts [post]
func (h *handlers) publish(r *stdhttp.Request, in domain.PublishInput) (any, error) {
	sess, _ := h.sessions.Load(r)
	return h.svc.Publish(r.Context(), sess, in)
}

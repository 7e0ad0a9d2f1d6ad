// Package http provides http transport for the aggregated feed
package http

import (
	stdhttp "net/http"

	"plaza/internal/modkit/httpkit"
	"plaza/internal/services/feed/domain"
	svc "plaza/internal/services/feed/service"
)

// Register mounts feed endpoints on the given router
func Register(r httpkit.Router, s svc.Service) {
	h := &handlers{svc: s}

	httpkit.Get(r, "/", h.feed)
}

type handlers struct{ svc svc.Service }

// @Summary Aggregated research feed across curated identities
// @Tags Feed
// @Produce json
// @Success 200 {object} domain.FeedOutput "ok"
// @Router /feed [get]
func (h *handlers) feed(r *stdhttp.Request) (any, error) {
	return domain.FeedOutput{Posts: h.svc.Aggregate(r.Context())}, nil
}

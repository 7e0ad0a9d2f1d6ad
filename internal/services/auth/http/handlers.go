// Package http provides http transport for login and session endpoints
package http

import (
	stdhttp "net/http"

	"plaza/internal/modkit/httpkit"
	"plaza/internal/platform/logger"
	"plaza/internal/services/auth/domain"
	svc "plaza/internal/services/auth/service"
)

// Register mounts auth endpoints on the given router
func Register(r httpkit.Router, s svc.Service, frontendURL string) {
	h := &handlers{svc: s, frontend: frontendURL}

	httpkit.PostJSON[domain.LoginInput](r, "/login", h.login)
	r.Get("/oauth/callback", httpkit.Handle(h.callback))
	httpkit.Post(r, "/logout", h.logout)
	httpkit.Get(r, "/status", h.status)

	// wire-exact client descriptors, no envelope
	httpkit.Get(r, "/oauth/client-metadata.json", h.clientMetadata)
	httpkit.Get(r, "/oauth/jwks.json", h.jwks)
}

type handlers struct {
	svc      svc.Service
	frontend string
}

// @Summary Start an OAuth login for a handle
// @Tags Auth
// @Accept json
// @Produce json
// @Param payload body domain.LoginInput true "Handle"
// @Success 200 {object} domain.LoginOutput "ok"
// @Router /login [post]
func (h *handlers) login(r *stdhttp.Request, in domain.LoginInput) (any, error) {
	return h.svc.BeginLogin(r.Context(), in.Handle)
}

// @Summary OAuth callback; sets the session cookie and redirects to the app
// @Tags Auth
// @Param state query string true "State"
// @Param code query string false "Authorization code"
// @Param iss query string false "Issuer"
// @Success 303
// @Router /oauth/callback [get]
func (h *handlers) callback(r *stdhttp.Request) httpkit.Response {
	q := r.URL.Query()
	sess, err := h.svc.CompleteLogin(r.Context(), domain.CallbackInput{
		State: q.Get("state"),
		Code:  q.Get("code"),
		Iss:   q.Get("iss"),
		Error: q.Get("error"),
	})
	if err != nil {
		logger.C(r.Context()).Warn().Err(err).Msg("login callback failed")
		return httpkit.Redirect(h.frontend + "/?error=login_failed")
	}

	ck, err := h.svc.Cookies().Encode(sess)
	if err != nil {
		return httpkit.Error(err)
	}
	return httpkit.Redirect(h.frontend + "/").WithCookie(ck)
}

// @Summary Log out and clear the session cookie
// @Tags Auth
// @Success 204
// @Router /logout [post]
func (h *handlers) logout(r *stdhttp.Request) (any, error) {
	return httpkit.NoContent().WithCookie(h.svc.Cookies().Clear()), nil
}

// @Summary Current session status
// @Tags Auth
// @Produce json
// @Success 200 {object} domain.StatusOutput "ok"
// @Router /status [get]
func (h *handlers) status(r *stdhttp.Request) (any, error) {
	sess, err := h.svc.Cookies().Decode(r)
	if err != nil {
		// anonymous is a normal answer, not an error
		return domain.StatusOutput{LoggedIn: false}, nil
	}
	return domain.StatusOutput{
		LoggedIn:    true,
		DID:         sess.DID,
		Handle:      sess.Handle,
		DisplayName: sess.DisplayName,
		Avatar:      sess.Avatar,
	}, nil
}

// @Summary OAuth client metadata document
// @Tags Auth
// @Produce json
// @Success 200
// @Router /oauth/client-metadata.json [get]
func (h *handlers) clientMetadata(r *stdhttp.Request) (any, error) {
	return httpkit.RawJSON(h.svc.ClientMetadata()), nil
}

// @Summary OAuth client public key set
// @Tags Auth
// @Produce json
// @Success 200
// @Router /oauth/jwks.json [get]
func (h *handlers) jwks(r *stdhttp.Request) (any, error) {
	b, err := h.svc.JWKS()
	if err != nil {
		return nil, err
	}
	return httpkit.RawJSON(b), nil
}

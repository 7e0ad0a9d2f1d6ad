// Package module wires auth into the API using modkit
package module

import (
	"net/http"
	"strings"

	modkit "plaza/internal/modkit"
	"plaza/internal/modkit/httpkit"
	"plaza/internal/platform/logger"
	str "plaza/internal/platform/strings"
	authhttp "plaza/internal/services/auth/http"
	authsvc "plaza/internal/services/auth/service"
	identdomain "plaza/internal/services/ident/domain"

	"github.com/lestrrat-go/jwx/v2/jwk"
)

// Module implements the auth module
// It mounts at the api root: /login, /logout, /status, /oauth/*
type Module struct {
	deps modkit.Deps
	name string

	mws       []func(http.Handler) http.Handler
	ports     any
	swaggerOn bool

	subrouter func(httpkit.Router) httpkit.Router
	register  func(httpkit.Router)

	svc authsvc.Service
}

// New constructs the auth module
// The ident port must be injected via modkit.WithPorts
func New(deps modkit.Deps, opts ...modkit.Option) modkit.Module {
	b := modkit.Build(append([]modkit.Option{modkit.WithName("auth"), modkit.WithPrefix("")}, opts...)...)

	ident, ok := b.Ports.(identdomain.ServicePort)
	if !ok || ident == nil {
		panic("auth module requires the ident service port")
	}

	publicURL := deps.Cfg.MustString("PUBLIC_URL")
	secure := strings.HasPrefix(publicURL, "https://")

	codec := authsvc.NewCookieCodec(deps.Cfg.MustString("COOKIE_SECRET"), secure)

	var clientKey jwk.Key
	if raw := deps.Cfg.Prefix("ATPROTO_").MayString("JWK_PRIVATE", ""); raw != "" {
		k, err := jwk.ParseKey([]byte(raw))
		if err != nil {
			logger.Get().Panic().Err(err).Msg("ATPROTO_JWK_PRIVATE is not a valid JWK")
		}
		clientKey = k
	}

	svc := authsvc.New(ident, deps.Cache, codec, authsvc.Config{
		PublicURL:  publicURL,
		ClientName: deps.Cfg.MayString("CLIENT_NAME", "Plaza"),
		ClientKey:  clientKey,
	})

	m := &Module{
		deps:      deps,
		name:      b.Name,
		mws:       b.Mw,
		swaggerOn: b.SwaggerOn,
		subrouter: b.Subrouter,
		svc:       svc,
	}
	m.ports = Ports{
		Service:  svc,
		Sessions: sessionParser{codec: codec},
		Loader:   sessionLoader{codec: codec},
	}

	external := b.Register
	m.register = func(r httpkit.Router) {
		authhttp.Register(r, m.svc, publicURL)
		if external != nil {
			external(r)
		}
	}
	return m
}

// MountRoutes mounts the module routes at the api root
func (m *Module) MountRoutes(r httpkit.Router) {
	httpkit.MountUnder(r, "", m.mws, func(rr httpkit.Router) {
		if m.subrouter != nil {
			rr = m.subrouter(rr)
		}
		if m.register != nil {
			m.register(rr)
		}
	})
}

// Name returns the module name
func (m *Module) Name() string { return str.MustString(m.name, "module name") }

// Middlewares returns the module middlewares
func (m *Module) Middlewares() []func(http.Handler) http.Handler { return m.mws }

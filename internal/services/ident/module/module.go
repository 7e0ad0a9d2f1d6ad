// Package module wires ident into the API using modkit
package module

import (
	"net/http"

	modkit "plaza/internal/modkit"
	"plaza/internal/modkit/httpkit"
	str "plaza/internal/platform/strings"
	identhttp "plaza/internal/services/ident/http"
	identsvc "plaza/internal/services/ident/service"
)

// Module implements the ident module
type Module struct {
	deps   modkit.Deps
	name   string
	prefix string

	mws       []func(http.Handler) http.Handler
	ports     any
	swaggerOn bool

	subrouter func(httpkit.Router) httpkit.Router
	register  func(httpkit.Router)

	svc identsvc.Service
}

// New constructs the ident module
func New(deps modkit.Deps, opts ...modkit.Option) modkit.Module {
	b := modkit.Build(append([]modkit.Option{modkit.WithName("ident"), modkit.WithPrefix("/users")}, opts...)...)

	atp := deps.Cfg.Prefix("ATPROTO_")
	var appview = deps.PDS.Public(atp.MayString("APPVIEW_URL", "https://public.api.bsky.app"))

	svc := identsvc.New(deps.Dir, deps.Cache, appview, identsvc.Config{
		DefaultDomain: atp.MayString("DEFAULT_DOMAIN", "bsky.social"),
		PDSTTL:        atp.MayDuration("PDS_CACHE_TTL", 0),
	})

	m := &Module{
		deps:      deps,
		name:      b.Name,
		prefix:    b.Prefix,
		mws:       b.Mw,
		swaggerOn: b.SwaggerOn,
		subrouter: b.Subrouter,
		svc:       svc,
	}
	m.ports = adaptIdentPort{svc: svc}

	external := b.Register
	m.register = func(r httpkit.Router) {
		identhttp.Register(r, m.svc)
		if external != nil {
			external(r)
		}
	}
	return m
}

// MountRoutes mounts the module routes on the given router
func (m *Module) MountRoutes(r httpkit.Router) {
	httpkit.MountUnder(r, m.prefix, m.mws, func(rr httpkit.Router) {
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

// Prefix returns the module route prefix
func (m *Module) Prefix() string { return str.NormPrefix(m.prefix) }

// Middlewares returns the module middlewares
func (m *Module) Middlewares() []func(http.Handler) http.Handler { return m.mws }

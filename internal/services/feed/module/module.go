// Package module wires feed into the API using modkit
package module

import (
	"net/http"

	modkit "plaza/internal/modkit"
	"plaza/internal/modkit/httpkit"
	str "plaza/internal/platform/strings"
	curationdomain "plaza/internal/services/curation/domain"
	feedhttp "plaza/internal/services/feed/http"
	feedsvc "plaza/internal/services/feed/service"
	identdomain "plaza/internal/services/ident/domain"
)

// Needs bundles the ports feed pulls from other modules
type Needs struct {
	Ident   identdomain.ServicePort
	Curated curationdomain.ReaderPort
}

// Module implements the feed module
type Module struct {
	deps   modkit.Deps
	name   string
	prefix string

	mws       []func(http.Handler) http.Handler
	ports     any
	swaggerOn bool

	subrouter func(httpkit.Router) httpkit.Router
	register  func(httpkit.Router)

	svc feedsvc.Service
}

// New constructs the feed module
func New(deps modkit.Deps, opts ...modkit.Option) modkit.Module {
	b := modkit.Build(append([]modkit.Option{modkit.WithName("feed"), modkit.WithPrefix("/feed")}, opts...)...)

	needs, ok := b.Ports.(Needs)
	if !ok || needs.Ident == nil || needs.Curated == nil {
		panic("feed module requires ident and curation ports")
	}

	svc := feedsvc.New(needs.Ident, needs.Curated, deps.PDS, deps.Cfg.MustString("ADMIN_DID"))

	m := &Module{
		deps:      deps,
		name:      b.Name,
		prefix:    b.Prefix,
		mws:       b.Mw,
		swaggerOn: b.SwaggerOn,
		subrouter: b.Subrouter,
		svc:       svc,
	}

	external := b.Register
	m.register = func(r httpkit.Router) {
		feedhttp.Register(r, m.svc)
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

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }

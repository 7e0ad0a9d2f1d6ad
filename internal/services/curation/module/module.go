// Package module wires curation into the API using modkit
package module

import (
	"net/http"

	modkit "plaza/internal/modkit"
	"plaza/internal/modkit/httpkit"
	str "plaza/internal/platform/strings"
	authdomain "plaza/internal/services/auth/domain"
	curhttp "plaza/internal/services/curation/http"
	cursvc "plaza/internal/services/curation/service"
	identdomain "plaza/internal/services/ident/domain"
)

// Needs bundles the ports curation pulls from other modules
// Injected via modkit.WithPorts by the api composition
type Needs struct {
	Ident    identdomain.ServicePort
	Sessions authdomain.SessionLoader
}

// Module implements the curation module
type Module struct {
	deps   modkit.Deps
	name   string
	prefix string

	mws       []func(http.Handler) http.Handler
	ports     any
	swaggerOn bool

	subrouter func(httpkit.Router) httpkit.Router
	register  func(httpkit.Router)

	svc cursvc.Service
}

// New constructs the curation module
func New(deps modkit.Deps, opts ...modkit.Option) modkit.Module {
	b := modkit.Build(append([]modkit.Option{modkit.WithName("curation"), modkit.WithPrefix("/curated-list")}, opts...)...)

	needs, ok := b.Ports.(Needs)
	if !ok || needs.Ident == nil || needs.Sessions == nil {
		panic("curation module requires ident and session ports")
	}

	svc := cursvc.New(needs.Ident, deps.PDS, deps.Cfg.MustString("ADMIN_DID"))

	m := &Module{
		deps:      deps,
		name:      b.Name,
		prefix:    b.Prefix,
		mws:       b.Mw,
		swaggerOn: b.SwaggerOn,
		subrouter: b.Subrouter,
		svc:       svc,
	}
	m.ports = adaptReaderPort{svc: svc}

	external := b.Register
	m.register = func(r httpkit.Router) {
		curhttp.Register(r, m.svc, needs.Sessions)
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

// Package module wires posts into the API using modkit
package module

import (
	"net/http"

	modkit "plaza/internal/modkit"
	"plaza/internal/modkit/httpkit"
	str "plaza/internal/platform/strings"
	authdomain "plaza/internal/services/auth/domain"
	postshttp "plaza/internal/services/posts/http"
	postssvc "plaza/internal/services/posts/service"
)

// Needs bundles the ports posts pulls from other modules
type Needs struct {
	Sessions authdomain.SessionLoader
}

// Module implements the posts module
type Module struct {
	deps   modkit.Deps
	name   string
	prefix string

	mws       []func(http.Handler) http.Handler
	ports     any
	swaggerOn bool

	subrouter func(httpkit.Router) httpkit.Router
	register  func(httpkit.Router)

	svc postssvc.Service
}

// New constructs the posts module
func New(deps modkit.Deps, opts ...modkit.Option) modkit.Module {
	b := modkit.Build(append([]modkit.Option{modkit.WithName("posts"), modkit.WithPrefix("/posts")}, opts...)...)

	needs, ok := b.Ports.(Needs)
	if !ok || needs.Sessions == nil {
		panic("posts module requires the session loader port")
	}

	svc := postssvc.New(deps.PDS)

	m := &Module{
		deps:      deps,
		name:      b.Name,
		prefix:    b.Prefix,
		mws:       append(b.Mw, httpkit.RequireSession()),
		swaggerOn: b.SwaggerOn,
		subrouter: b.Subrouter,
		svc:       svc,
	}

	external := b.Register
	m.register = func(r httpkit.Router) {
		postshttp.Register(r, m.svc, needs.Sessions)
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

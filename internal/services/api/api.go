// Package api composes the service modules into one HTTP surface
package api

import (
	"plaza/internal/platform/cache"
	"plaza/internal/platform/config"
	"plaza/internal/platform/logger"
	phttp "plaza/internal/platform/net/http"
	"plaza/internal/platform/net/middleware"
	"plaza/internal/platform/pds"

	"plaza/internal/modkit"
	"plaza/internal/modkit/httpkit"
	"plaza/internal/modkit/module"
	"plaza/internal/modkit/swaggerkit"

	authmod "plaza/internal/services/auth/module"
	curationdomain "plaza/internal/services/curation/domain"
	curationmod "plaza/internal/services/curation/module"
	feedmod "plaza/internal/services/feed/module"
	identdomain "plaza/internal/services/ident/domain"
	identmod "plaza/internal/services/ident/module"
	postsmod "plaza/internal/services/posts/module"

	"github.com/bluesky-social/indigo/atproto/identity"
)

// Options are the API options
type Options struct {
	Config        config.Conf
	Cache         cache.Cache
	PDS           *pds.Factory
	Directory     identity.Directory
	Logger        *logger.Logger
	EnableSwagger bool
}

// Mount mounts the API service onto the given router
func Mount(r phttp.Router, opt Options) {
	// shared deps for modules
	deps := modkit.Deps{
		Cfg:   opt.Config,
		Cache: opt.Cache,
		PDS:   opt.PDS,
		Dir:   opt.Directory,
	}

	// ident first: every other module resolves identities through it
	identM := identmod.New(deps)
	identPort := module.MustPortsOf[identdomain.ServicePort](identM)

	// auth owns the cookie codec; its ports feed the session middleware
	// and the write-path modules
	authM := authmod.New(deps, modkit.WithPorts(identPort))
	authPorts := module.MustPortsOf[authmod.Ports](authM)

	curationM := curationmod.New(deps, modkit.WithPorts(curationmod.Needs{
		Ident:    identPort,
		Sessions: authPorts.Loader,
	}))
	curatedPort := module.MustPortsOf[curationdomain.ReaderPort](curationM)

	feedM := feedmod.New(deps, modkit.WithPorts(feedmod.Needs{
		Ident:   identPort,
		Curated: curatedPort,
	}))

	postsM := postsmod.New(deps, modkit.WithPorts(postsmod.Needs{
		Sessions: authPorts.Loader,
	}))

	mods := []module.Module{identM, authM, curationM, feedM, postsM}

	// browser clients send the session cookie cross-origin, so the
	// frontend origin must be listed explicitly
	if origins := opt.Config.Prefix("API_").MayCSV("CORS_ORIGINS", nil); len(origins) > 0 {
		r.Use(middleware.CORS(middleware.CORSOptions{
			AllowedOrigins:   origins,
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	// liveness probe lives outside the /api tree
	r.Use(middleware.Heartbeat("/health"))

	// common middleware plus cookie-session hydration on every api route
	stack := append(httpkit.CommonStack(), httpkit.Session(authPorts.Sessions))

	httpkit.MountAPI(r, stack, func(api httpkit.Router) {
		swaggerkit.Mount(r, opt.EnableSwagger)

		for _, m := range mods {
			// register each module's ports under its own name (for cross-module lookups)
			module.Register(m.Name(), m.Ports())

			// mount module routes under its Prefix()
			m.MountRoutes(api)
		}
	})
}

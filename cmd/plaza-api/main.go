// @title         Plaza API
// @version       0.1.0
// @description   ATProto-backed backend for the research community site

package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"plaza/internal/platform/cache"
	"plaza/internal/platform/config"
	"plaza/internal/platform/logger"
	phttp "plaza/internal/platform/net/http"
	"plaza/internal/platform/pds"

	"plaza/internal/services/api"

	"github.com/bluesky-social/indigo/atproto/identity"
	"github.com/joho/godotenv"
)

func main() {
	// .env is optional; real deployments use the environment
	_ = godotenv.Load()

	logger.Init(logger.FromEnv())
	l := logger.Get()

	root := config.New()
	root.Require("COOKIE_SECRET", "PUBLIC_URL", "ADMIN_DID")
	apiCfg := root.Prefix("API_")

	c, err := cache.Open(root)
	if err != nil {
		l.Panic().Err(err).Msg("cache.Open failed")
	}
	defer c.Close()

	// http server (reads API_PORT)
	srv := phttp.NewServer(apiCfg)

	api.Mount(
		srv.Router(),
		api.Options{
			Config:        root,
			Cache:         c,
			PDS:           pds.New(root),
			Directory:     newDirectory(root),
			Logger:        l,
			EnableSwagger: apiCfg.MayBool("SWAGGER", true),
		},
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(sctx)
	}()

	if err := srv.Run(ctx); err != nil {
		l.Panic().Err(err).Msg("http server stopped")
	}
}

// newDirectory builds the identity directory, honoring ATPROTO_PLC_URL
func newDirectory(root config.Conf) identity.Directory {
	plc := root.Prefix("ATPROTO_").MayString("PLC_URL", "")
	if plc == "" {
		return identity.DefaultDirectory()
	}
	base := identity.BaseDirectory{PLCURL: plc}
	cached := identity.NewCacheDirectory(&base, 250_000, 24*time.Hour, 2*time.Minute, 5*time.Minute)
	return cached
}

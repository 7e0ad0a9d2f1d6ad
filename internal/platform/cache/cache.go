// Package cache provides a small keyed byte cache with pluggable backends
//
// The memory backend serves a single process; the redis backend lets
// several instances share resolved PDS endpoints and pending OAuth state
package cache

import (
	"context"
	"time"

	"plaza/internal/platform/config"
	perr "plaza/internal/platform/errors"
	"plaza/internal/platform/logger"
)

// Cache is the seam services depend on
// Get returns (value, found, error); a miss is not an error
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Open builds a Cache from config under the given prefix
//
//	CACHE_BACKEND   memory | redis (default memory)
//	CACHE_REDIS_ADDR, CACHE_REDIS_PASSWORD, CACHE_REDIS_DB
//	CACHE_MAX_ENTRIES  memory backend bound (default 4096)
func Open(cfg config.Conf) (Cache, error) {
	c := cfg.Prefix("CACHE_")
	backend := c.MayEnum("BACKEND", "memory", "memory", "redis")
	switch backend {
	case "redis":
		addr := c.MustString("REDIS_ADDR")
		return OpenRedis(RedisOptions{
			Addr:     addr,
			Password: c.MayString("REDIS_PASSWORD", ""),
			DB:       c.MayInt("REDIS_DB", 0),
		})
	case "memory":
		logger.Named("cache").Debug().Msg("using in-process memory cache")
		return NewMemory(c.MayInt("MAX_ENTRIES", 4096)), nil
	default:
		return nil, perr.InvalidArgf("unknown cache backend %q", backend)
	}
}

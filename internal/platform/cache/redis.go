package cache

import (
	"context"
	"time"

	perr "plaza/internal/platform/errors"
	"plaza/internal/platform/logger"

	"github.com/redis/go-redis/v9"
)

// RedisOptions configures the redis backend
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// Redis is a Cache backed by a redis server
type Redis struct {
	rdb *redis.Client
}

// OpenRedis connects and pings the server before returning
func OpenRedis(opt RedisOptions) (*Redis, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     opt.Addr,
		Password: opt.Password,
		DB:       opt.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeUnavailable, "redis ping %s", opt.Addr)
	}

	logger.Named("cache").Info().Str("addr", opt.Addr).Msg("redis cache connected")
	return &Redis{rdb: rdb}, nil
}

// Get returns the cached value if present
func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := r.rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, perr.Wrap(err, perr.ErrorCodeUnavailable, "redis get")
	}
	return b, true, nil
}

// Set stores val under key for ttl; ttl <= 0 means no expiry
func (r *Redis) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	if err := r.rdb.Set(ctx, key, val, ttl).Err(); err != nil {
		return perr.Wrap(err, perr.ErrorCodeUnavailable, "redis set")
	}
	return nil
}

// Delete removes key if present
func (r *Redis) Delete(ctx context.Context, key string) error {
	if err := r.rdb.Del(ctx, key).Err(); err != nil {
		return perr.Wrap(err, perr.ErrorCodeUnavailable, "redis del")
	}
	return nil
}

// Close releases the underlying connection pool
func (r *Redis) Close() error { return r.rdb.Close() }

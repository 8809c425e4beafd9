package bootstrap

import (
	"context"
	"crypto/tls"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	appconfig "github.com/wolfman30/appointment-scheduler/internal/config"
	"github.com/wolfman30/appointment-scheduler/pkg/logging"
)

// catalogCacheTimeout bounds dialing and every cache command. A cache that
// cannot answer within it is treated as a miss.
const catalogCacheTimeout = 500 * time.Millisecond

// BuildCatalogCacheClient returns the Redis client behind the appointment type
// cache, or nil when the cache is off. The cache is off without REDIS_ADDR,
// with a non-positive CATALOG_CACHE_TTL, or when Redis does not answer a ping
// at startup.
func BuildCatalogCacheClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.CatalogCacheTTL <= 0 {
		logger.Info("catalog cache disabled", "reason", "non-positive ttl", "ttl", cfg.CatalogCacheTTL)
		return nil
	}

	opts := &redis.Options{
		Addr:         strings.TrimSpace(cfg.RedisAddr),
		Password:     cfg.RedisPassword,
		DialTimeout:  catalogCacheTimeout,
		ReadTimeout:  catalogCacheTimeout,
		WriteTimeout: catalogCacheTimeout,
		MaxRetries:   -1,
	}
	if cfg.RedisTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, catalogCacheTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("catalog cache disabled", "reason", "redis unreachable", "addr", opts.Addr, "error", err)
		_ = client.Close()
		return nil
	}
	return client
}

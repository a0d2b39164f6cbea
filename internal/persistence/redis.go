package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/library-gateway/internal/config"
)

const cacheDialCheck = 2 * time.Second

// ErrIdentityCacheDisabled is reported when REDIS_ADDR is empty.
var ErrIdentityCacheDisabled = errors.New("identity cache disabled: REDIS_ADDR is empty")

// Redis is the short-lived identity cache in front of the user store. An
// unreachable cache is tolerated; lookups fall through to Postgres.
type Redis struct {
	Client *redis.Client
}

func NewRedis(cfg config.RedisConfig, logger *zap.Logger) *Redis {
	if cfg.Addr == "" {
		logger.Warn("identity cache disabled, every lookup hits the user store")
		return &Redis{}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), cacheDialCheck)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("identity cache unreachable, serving lookups uncached",
			zap.String("addr", cfg.Addr), zap.Error(err))
	} else {
		logger.Info("identity cache ready", zap.String("addr", cfg.Addr), zap.Int("db", cfg.DB))
	}
	return &Redis{Client: client}
}

// ClientHandle returns nil when the cache is disabled, which turns caching
// off in the identity service.
func (r *Redis) ClientHandle() *redis.Client {
	if r == nil {
		return nil
	}
	return r.Client
}

func (r *Redis) Close() {
	if r != nil && r.Client != nil {
		_ = r.Client.Close()
	}
}

// Ping backs the "redis" readiness check.
func (r *Redis) Ping(ctx context.Context) error {
	if r == nil || r.Client == nil {
		return ErrIdentityCacheDisabled
	}
	return r.Client.Ping(ctx).Err()
}

package cache

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"plume/internal/domain"
	"plume/internal/domain/repositories"
)

// releaseScript deletes the key only if the caller still owns it.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// NewRedisClient creates a client and verifies the connection.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		PoolSize:     10,
		MinIdleConns: 2,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

// RedisGuard holds in-flight markers in Redis so duplicate submissions are
// rejected across server instances.
type RedisGuard struct {
	client *redis.Client
	prefix string
	logger *slog.Logger
}

// NewRedisGuard creates a guard whose keys are namespaced by prefix.
func NewRedisGuard(client *redis.Client, prefix string, logger *slog.Logger) repositories.InFlightGuard {
	return &RedisGuard{client: client, prefix: prefix, logger: logger}
}

func (g *RedisGuard) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	fullKey := g.prefix + "inflight:" + key
	token := uuid.NewString()

	ok, err := g.client.SetNX(ctx, fullKey, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: acquire in-flight marker: %v", domain.ErrTransient, err)
	}
	if !ok {
		return nil, fmt.Errorf("%s: %w", key, domain.ErrInProgress)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// The request context may already be gone
			releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := releaseScript.Run(releaseCtx, g.client, []string{fullKey}, token).Err(); err != nil {
				g.logger.Warn("release in-flight marker failed", "key", key, "error", err)
			}
		})
	}, nil
}

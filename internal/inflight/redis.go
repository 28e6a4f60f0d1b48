package inflight

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// keyPrefix namespaces in-flight holds in a shared Redis.
	keyPrefix = "carevia:inflight:"

	// DefaultTTL bounds how long a hold survives a crashed holder.
	DefaultTTL = 30 * time.Second
)

// releaseScript deletes the key only if this holder still owns it.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Redis is a Guard shared by every instance pointed at the same Redis.
// Holds are SET NX with an expiry, so a crashed holder frees the key after ttl.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedis creates a Redis-backed guard. A non-positive ttl uses DefaultTTL.
func NewRedis(client *redis.Client, ttl time.Duration, logger *slog.Logger) *Redis {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Redis{client: client, ttl: ttl, logger: logger}
}

// NewRedisClient parses url, connects, and pings the server.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

// Acquire takes key or returns ErrInFlight.
func (g *Redis) Acquire(ctx context.Context, key string) (func(), error) {
	redisKey := keyPrefix + key
	token := uuid.NewString()

	ok, err := g.client.SetNX(ctx, redisKey, token, g.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("inflight acquire: %w", err)
	}
	if !ok {
		return nil, ErrInFlight
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// The request context may already be canceled; the hold must still go.
			releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
			defer cancel()
			if err := releaseScript.Run(releaseCtx, g.client, []string{redisKey}, token).Err(); err != nil {
				g.logger.Warn("failed to release in-flight key", "error", err)
			}
		})
	}, nil
}

// Compile-time check
var _ Guard = (*Redis)(nil)

package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"roomdrop/internal/config"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// Registry counts live room connections in redis. The realtime layer increments
// on join and decrements on leave, the lifecycle engine only reads.
type Registry struct {
	client *redis.Client
	prefix string
	logger *slog.Logger
}

// NewRegistry connects to redis and returns Registry
func NewRegistry(ctx context.Context, cfg config.RedisConfig, logger *slog.Logger) (*Registry, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Registry{client: client, prefix: cfg.KeyPrefix, logger: logger}, nil
}

func (r *Registry) key(roomSlug string) string {
	return fmt.Sprintf("%s:room:connections:%s", r.prefix, roomSlug)
}

// CountLiveConnections returns the number of viewers of a room
func (r *Registry) CountLiveConnections(ctx context.Context, roomSlug string) (int, error) {
	value, err := r.client.Get(ctx, r.key(roomSlug)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read connection count: %w", err)
	}

	count, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid connection count %q: %w", value, err)
	}
	if count < 0 {
		return 0, nil
	}
	return count, nil
}

// Register records a new viewer and returns the new count
func (r *Registry) Register(ctx context.Context, roomSlug string) (int64, error) {
	count, err := r.client.Incr(ctx, r.key(roomSlug)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to register connection: %w", err)
	}
	return count, nil
}

// Unregister removes a viewer. The counter key is dropped once it reaches zero.
func (r *Registry) Unregister(ctx context.Context, roomSlug string) (int64, error) {
	key := r.key(roomSlug)
	count, err := r.client.Decr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to unregister connection: %w", err)
	}
	if count <= 0 {
		if err := r.client.Del(ctx, key).Err(); err != nil {
			r.logger.Warn("failed to drop empty connection counter", "slug", roomSlug, "error", err)
		}
		return 0, nil
	}
	return count, nil
}

// Close closes the redis client
func (r *Registry) Close() error {
	return r.client.Close()
}

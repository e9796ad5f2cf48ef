package redis_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"roomdrop/internal/adapters/registry/redis"
	"roomdrop/internal/config"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupRedis(t *testing.T) (string, func()) {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	cleanup := func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	}
	return fmt.Sprintf("%s:%s", host, port.Port()), cleanup
}

func TestRegistry(t *testing.T) {
	addr, cleanup := setupRedis(t)
	defer cleanup()
	ctx := context.Background()

	registry, err := redis.NewRegistry(ctx, config.RedisConfig{Addr: addr, KeyPrefix: "test"}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	defer registry.Close()

	t.Run("Unknown room has no connections", func(t *testing.T) {
		// Act
		count, err := registry.CountLiveConnections(ctx, "nobody")

		// Assert
		require.NoError(t, err)
		assert.Equal(t, 0, count)
	})

	t.Run("Register and unregister", func(t *testing.T) {
		// Arrange
		_, err := registry.Register(ctx, "hol-1")
		require.NoError(t, err)
		_, err = registry.Register(ctx, "hol-1")
		require.NoError(t, err)

		// Act
		count, err := registry.CountLiveConnections(ctx, "hol-1")

		// Assert
		require.NoError(t, err)
		assert.Equal(t, 2, count)

		_, err = registry.Unregister(ctx, "hol-1")
		require.NoError(t, err)
		remaining, err := registry.Unregister(ctx, "hol-1")
		require.NoError(t, err)
		assert.Equal(t, int64(0), remaining)

		count, err = registry.CountLiveConnections(ctx, "hol-1")
		require.NoError(t, err)
		assert.Equal(t, 0, count)
	})

	t.Run("Unregister never goes negative", func(t *testing.T) {
		// Act
		remaining, err := registry.Unregister(ctx, "ghost")

		// Assert
		require.NoError(t, err)
		assert.Equal(t, int64(0), remaining)
		count, err := registry.CountLiveConnections(ctx, "ghost")
		require.NoError(t, err)
		assert.Equal(t, 0, count)
	})
}

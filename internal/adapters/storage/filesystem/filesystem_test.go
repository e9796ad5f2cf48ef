package filesystem_test

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"roomdrop/internal/adapters/storage/filesystem"
	"roomdrop/internal/core/domain"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAdapter(t *testing.T) (*filesystem.Adapter, string) {
	t.Helper()
	root := t.TempDir()
	adapter, err := filesystem.NewAdapter(root, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return adapter, root
}

func TestAdapter_PutGet(t *testing.T) {
	ctx := context.Background()

	t.Run("Round trip", func(t *testing.T) {
		// Arrange
		adapter, root := newAdapter(t)

		// Act
		err := adapter.Put(ctx, "rooms/r1/a.txt", strings.NewReader("hello"), 5)

		// Assert
		require.NoError(t, err)
		reader, err := adapter.Get(ctx, "rooms/r1/a.txt")
		require.NoError(t, err)
		defer reader.Close()
		got, err := io.ReadAll(reader)
		require.NoError(t, err)
		assert.Equal(t, "hello", string(got))

		entries, err := os.ReadDir(filepath.Join(root, "rooms", "r1"))
		require.NoError(t, err)
		assert.Len(t, entries, 1, "no temp file left behind")
	})

	t.Run("Size mismatch leaves nothing", func(t *testing.T) {
		// Arrange
		adapter, _ := newAdapter(t)

		// Act
		err := adapter.Put(ctx, "tmp/r/0", strings.NewReader("abc"), 10)

		// Assert
		require.Error(t, err)
		exists, err := adapter.Exists(ctx, "tmp/r/0")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("Unknown size is accepted", func(t *testing.T) {
		// Arrange
		adapter, _ := newAdapter(t)

		// Act
		err := adapter.Put(ctx, "rooms/r/x", strings.NewReader("abc"), -1)

		// Assert
		require.NoError(t, err)
	})

	t.Run("Canceled context aborts the write", func(t *testing.T) {
		// Arrange
		adapter, _ := newAdapter(t)
		canceled, cancel := context.WithCancel(ctx)
		cancel()

		// Act
		err := adapter.Put(canceled, "rooms/r/x", strings.NewReader("abc"), 3)

		// Assert
		require.ErrorIs(t, err, context.Canceled)
	})

	t.Run("Get missing is not found", func(t *testing.T) {
		// Arrange
		adapter, _ := newAdapter(t)

		// Act
		_, err := adapter.Get(ctx, "rooms/missing")

		// Assert
		require.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("Keys cannot escape root", func(t *testing.T) {
		// Arrange
		adapter, _ := newAdapter(t)

		// Act
		err := adapter.Put(ctx, "../../etc/passwd", strings.NewReader("x"), 1)

		// Assert
		require.ErrorIs(t, err, domain.ErrValidation)
	})
}

func TestAdapter_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("Delete is idempotent", func(t *testing.T) {
		// Arrange
		adapter, _ := newAdapter(t)
		require.NoError(t, adapter.Put(ctx, "rooms/r/a", strings.NewReader("a"), 1))

		// Act
		first := adapter.Delete(ctx, "rooms/r/a")
		second := adapter.Delete(ctx, "rooms/r/a")

		// Assert
		require.NoError(t, first)
		require.NoError(t, second)
	})

	t.Run("DeletePrefix removes the chunk directory only", func(t *testing.T) {
		// Arrange
		adapter, _ := newAdapter(t)
		require.NoError(t, adapter.Put(ctx, "tmp/r1/0", strings.NewReader("a"), 1))
		require.NoError(t, adapter.Put(ctx, "tmp/r1/1", strings.NewReader("b"), 1))
		require.NoError(t, adapter.Put(ctx, "tmp/r2/0", strings.NewReader("c"), 1))

		// Act
		err := adapter.DeletePrefix(ctx, "tmp/r1/")

		// Assert
		require.NoError(t, err)
		gone, _ := adapter.Exists(ctx, "tmp/r1/0")
		kept, _ := adapter.Exists(ctx, "tmp/r2/0")
		assert.False(t, gone)
		assert.True(t, kept)
	})

	t.Run("DeletePrefix refuses the root", func(t *testing.T) {
		// Arrange
		adapter, _ := newAdapter(t)

		// Act
		err := adapter.DeletePrefix(ctx, "")

		// Assert
		require.ErrorIs(t, err, domain.ErrValidation)
	})
}

// Package filesystem stores blobs as plain files under a root directory.
// Writes go through a temp file, fsync and an atomic rename so a reader never
// observes a partially written blob.
package filesystem

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"roomdrop/internal/core/domain"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Adapter is a filesystem blob store
type Adapter struct {
	root   string
	logger *slog.Logger
}

// NewAdapter creates the root directory when missing and returns Adapter
func NewAdapter(root string, logger *slog.Logger) (*Adapter, error) {
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create storage root %s: %w", root, err)
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve storage root %s: %w", root, err)
	}
	return &Adapter{root: abs, logger: logger}, nil
}

// path maps a key to a file under root and refuses keys escaping it
func (a *Adapter) path(key string) (string, error) {
	full := filepath.Join(a.root, filepath.FromSlash(key))
	if full != a.root && !strings.HasPrefix(full, a.root+string(os.PathSeparator)) {
		return "", fmt.Errorf("key %q: %w", key, domain.ErrValidation)
	}
	return full, nil
}

// Put writes body to key. When size is not negative the written length must match it.
func (a *Adapter) Put(ctx context.Context, key string, body io.Reader, size int64) error {
	fullPath, err := a.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o750); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", key, err)
	}

	tmpPath := fmt.Sprintf("%s.%s.tmp", fullPath, uuid.NewString()[:8])
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	written, err := io.Copy(f, &contextReader{ctx: ctx, r: body})
	if err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	if size >= 0 && written != size {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("short write on %s: got %d bytes, want %d", key, written, size)
	}

	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to fsync %s: %w", key, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close %s: %w", key, err)
	}

	if err := os.Rename(tmpPath, fullPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename %s: %w", key, err)
	}
	return nil
}

// Get opens the file stored at key
func (a *Adapter) Get(_ context.Context, key string) (io.ReadCloser, error) {
	fullPath, err := a.path(key)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("object %s: %w", key, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to open %s: %w", key, err)
	}
	return f, nil
}

// Exists reports whether key is present
func (a *Adapter) Exists(_ context.Context, key string) (bool, error) {
	fullPath, err := a.path(key)
	if err != nil {
		return false, err
	}

	_, err = os.Stat(fullPath)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("failed to stat %s: %w", key, err)
}

// Delete removes key. A missing key is not an error.
func (a *Adapter) Delete(_ context.Context, key string) error {
	fullPath, err := a.path(key)
	if err != nil {
		return err
	}

	if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// DeletePrefix removes the directory a prefix designates
func (a *Adapter) DeletePrefix(_ context.Context, prefix string) error {
	fullPath, err := a.path(strings.TrimSuffix(prefix, "/"))
	if err != nil {
		return err
	}
	if fullPath == a.root {
		return fmt.Errorf("refusing to delete storage root: %w", domain.ErrValidation)
	}

	if err := os.RemoveAll(fullPath); err != nil {
		return fmt.Errorf("failed to delete %s: %w", prefix, err)
	}
	a.logger.Debug("prefix deleted", slog.String("prefix", prefix))
	return nil
}

// DownloadURL returns a file URL. The filesystem backend has no signing so links do not expire.
func (a *Adapter) DownloadURL(_ context.Context, key string, _ string) (string, *time.Time, error) {
	fullPath, err := a.path(key)
	if err != nil {
		return "", nil, err
	}
	return "file://" + filepath.ToSlash(fullPath), nil, nil
}

type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

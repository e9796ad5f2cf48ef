package port

import (
	"context"
	"io"
	"time"
)

// Storage is an interface to define blob storage interactions
type Storage interface {
	Put(ctx context.Context, key string, body io.Reader, size int64) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	// DeletePrefix removes every blob whose key starts with prefix
	DeletePrefix(ctx context.Context, prefix string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// LinkGenerator hands out time-limited download locations for stored blobs
type LinkGenerator interface {
	DownloadURL(ctx context.Context, key string, fileName string) (string, *time.Time, error)
}

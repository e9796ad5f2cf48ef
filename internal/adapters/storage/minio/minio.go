package minio

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"roomdrop/internal/config"
	"roomdrop/internal/core/domain"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const noSuchKey = "NoSuchKey"

// Adapter is an adapter for minio
type Adapter struct {
	client *minio.Client
	config config.MinioConfig
	logger *slog.Logger
}

// NewAdapter returns Adapter
func NewAdapter(ctx context.Context, cfg config.MinioConfig, logger *slog.Logger) (*Adapter, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.BucketName)
	if err != nil {
		return nil, fmt.Errorf("failed to check if bucket exists: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.BucketName, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return &Adapter{client: client, config: cfg, logger: logger}, nil
}

// Put streams body to key. size may be -1 when unknown.
func (a *Adapter) Put(ctx context.Context, key string, body io.Reader, size int64) error {
	_, err := a.client.PutObject(ctx, a.config.BucketName, key, body, size, minio.PutObjectOptions{
		ContentType: "application/octet-stream",
	})
	if err != nil {
		return fmt.Errorf("failed to put object: %w", err)
	}
	return nil
}

// Get opens the object stored at key
func (a *Adapter) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	object, err := a.client.GetObject(ctx, a.config.BucketName, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object: %w", err)
	}

	// GetObject is lazy, Stat surfaces a missing key before the first read
	if _, err := object.Stat(); err != nil {
		object.Close()
		if minio.ToErrorResponse(err).Code == noSuchKey {
			return nil, fmt.Errorf("object %s: %w", key, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to stat object: %w", err)
	}
	return object, nil
}

// Exists reports whether key is present
func (a *Adapter) Exists(ctx context.Context, key string) (bool, error) {
	_, err := a.client.StatObject(ctx, a.config.BucketName, key, minio.StatObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == noSuchKey {
			return false, nil
		}
		return false, fmt.Errorf("failed to get object info: %w", err)
	}
	return true, nil
}

// Delete deletes an object from storage
func (a *Adapter) Delete(ctx context.Context, key string) error {
	err := a.client.RemoveObject(ctx, a.config.BucketName, key, minio.RemoveObjectOptions{})
	if err != nil {
		return fmt.Errorf("failed to delete object: %w", err)
	}

	a.logger.Debug("object deleted",
		slog.String("key", key),
		slog.String("bucket", a.config.BucketName))

	return nil
}

// DeletePrefix removes every object under prefix
func (a *Adapter) DeletePrefix(ctx context.Context, prefix string) error {
	objects := a.client.ListObjects(ctx, a.config.BucketName, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	})

	toRemove := make(chan minio.ObjectInfo)
	listErr := make(chan error, 1)
	go func() {
		defer close(toRemove)
		for object := range objects {
			if object.Err != nil {
				listErr <- object.Err
				return
			}
			toRemove <- object
		}
	}()

	var firstErr error
	for removeErr := range a.client.RemoveObjects(ctx, a.config.BucketName, toRemove, minio.RemoveObjectsOptions{}) {
		if firstErr == nil {
			firstErr = fmt.Errorf("failed to delete %s: %w", removeErr.ObjectName, removeErr.Err)
		}
	}

	select {
	case err := <-listErr:
		return fmt.Errorf("failed to list objects: %w", err)
	default:
	}
	return firstErr
}

// DownloadURL generates a presigned URL for downloading a file under its display name
func (a *Adapter) DownloadURL(ctx context.Context, key string, fileName string) (string, *time.Time, error) {
	reqParams := make(url.Values)
	reqParams.Set("response-content-disposition", fmt.Sprintf("attachment; filename=%q", fileName))

	presignedURL, err := a.client.PresignedGetObject(ctx, a.config.BucketName, key, a.config.DownloadSignedURLDuration, reqParams)
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate presigned download URL: %w", err)
	}

	expiresAt := time.Now().Add(a.config.DownloadSignedURLDuration)
	return presignedURL.String(), &expiresAt, nil
}

// HealthCheck reports whether the bucket is reachable
func (a *Adapter) HealthCheck(ctx context.Context) error {
	if _, err := a.client.BucketExists(ctx, a.config.BucketName); err != nil {
		return fmt.Errorf("minio unreachable: %w", err)
	}
	return nil
}

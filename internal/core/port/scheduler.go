package port

import (
	"context"
	"time"
)

// DeferredScheduler runs best-effort callbacks after a delay
type DeferredScheduler interface {
	Schedule(key string, delay time.Duration, fn func(ctx context.Context))
	Cancel(key string) bool
}

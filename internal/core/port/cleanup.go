package port

import (
	"context"
	"time"
)

// CleanupService is service that sweeps abandoned reservations
type CleanupService interface {
	CleanupExpiredReservations(ctx context.Context, now time.Time) (int, error)
}

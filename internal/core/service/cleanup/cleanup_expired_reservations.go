package cleanup

import (
	"context"
	"time"
)

// CleanupExpiredReservations releases a batch of reservations whose TTL passed.
// It backs up the deferred releases, which do not survive a restart.
func (c *cleanupService) CleanupExpiredReservations(ctx context.Context, now time.Time) (int, error) {
	expired, err := c.uow.ReservationRepo().FindExpired(ctx, now, c.batchSize)
	if err != nil {
		return 0, err
	}

	released := 0
	for _, reservation := range expired {
		ok, releaseErr := c.reservations.ReleaseIfPending(ctx, reservation.ID)
		if releaseErr != nil {
			c.logger.Error("Failed to release expired reservation",
				"reservation_id", reservation.ID,
				"err", releaseErr)
			continue
		}
		if ok {
			released++
		}
	}

	c.logger.Info("expired reservations sweep completed", "found", len(expired), "released", released)
	return released, nil
}

package lifecycle

import (
	"context"
	"roomdrop/internal/core/port"
	"time"

	"github.com/google/uuid"
)

// OnRoomBecameEmpty stamps the cleanup markers of a full, unbounded room.
// cleanup_after is the latest outstanding credential expiry plus the grace period,
// or now plus the grace period when no credential is outstanding.
func (l *lifecycleService) OnRoomBecameEmpty(ctx context.Context, roomID uuid.UUID) error {
	return l.uow.Execute(ctx, func(uow port.UnitOfWork) error {
		room, err := uow.RoomRepo().FindByIDForUpdate(ctx, roomID)
		if err != nil {
			return err
		}

		if !room.IsFullUnbounded() {
			if room.EmptySince == nil && room.CleanupAfter == nil {
				return nil
			}
			return uow.RoomRepo().ClearCleanupMarkers(ctx, roomID)
		}

		now := time.Now()
		base := now
		maxExpiry, err := uow.CredentialRepo().MaxActiveExpiry(ctx, roomID)
		if err != nil {
			return err
		}
		if maxExpiry != nil {
			base = *maxExpiry
		}
		cleanupAfter := base.Add(l.cfg.GracePeriod)

		if err := uow.RoomRepo().SetCleanupMarkers(ctx, roomID, now, cleanupAfter); err != nil {
			return err
		}

		l.logger.Info("room scheduled for cleanup",
			"room_id", roomID,
			"cleanup_after", cleanupAfter)
		return nil
	})
}

// OnRoomBecameActive clears the cleanup markers
func (l *lifecycleService) OnRoomBecameActive(ctx context.Context, roomID uuid.UUID) error {
	return l.uow.RoomRepo().ClearCleanupMarkers(ctx, roomID)
}

package reservation

import (
	"context"
	"fmt"
	"roomdrop/internal/core/domain"
	"roomdrop/internal/core/port"
	"time"

	"github.com/google/uuid"
)

// ReleaseIfPending refunds and deletes a reservation when it expired unconsumed.
// It is a no-op for consumed, live or unknown reservations.
func (r *reservationService) ReleaseIfPending(ctx context.Context, reservationID uuid.UUID) (bool, error) {
	var released *domain.UploadReservation

	txErr := r.uow.Execute(ctx, func(uow port.UnitOfWork) error {
		var err error
		released, err = releaseExpired(ctx, uow, reservationID, time.Now())
		return err
	})
	if txErr != nil {
		return false, fmt.Errorf("could not release reservation %s: %w", reservationID, txErr)
	}
	if released == nil {
		return false, nil
	}

	r.logger.Info("reservation released",
		"reservation_id", reservationID,
		"room_id", released.RoomID,
		"reserved_size", released.ReservedSize)
	r.afterRelease(ctx, releaseReasonDeferred, *released)
	return true, nil
}

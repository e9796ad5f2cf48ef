package reservation

import (
	"context"
	"fmt"
	"roomdrop/internal/core/domain"
	"roomdrop/internal/core/port"
	"time"

	"github.com/google/uuid"
)

// Reserve debits the manifest size from the room quota and persists the reservation.
// Expired reservations of the same room are refunded first, in the same transaction.
func (r *reservationService) Reserve(ctx context.Context, roomID uuid.UUID, credentialID string, manifest domain.Manifest, ttl time.Duration) (*domain.UploadReservation, *domain.Room, error) {
	if err := manifest.Validate(); err != nil {
		return nil, nil, err
	}
	if ttl <= 0 {
		return nil, nil, fmt.Errorf("%w: reservation ttl must be positive", domain.ErrValidation)
	}
	if credentialID == "" {
		return nil, nil, fmt.Errorf("%w: missing credential", domain.ErrPermissionDenied)
	}

	now := time.Now()
	reservation := domain.UploadReservation{
		ID:           uuid.New(),
		RoomID:       roomID,
		CredentialID: credentialID,
		Manifest:     manifest,
		ReservedSize: manifest.TotalSize(),
		ReservedAt:   now,
		ExpiresAt:    now.Add(ttl),
		MergeState:   domain.MergeStateIdle,
	}
	if manifest.IsChunked() {
		reservation.IsChunked = true
		reservation.ChunkSize = manifest[0].ChunkSize
		reservation.TotalChunks = domain.TotalChunks(manifest[0].Size, manifest[0].ChunkSize)
	}

	var room *domain.Room
	var expired []domain.UploadReservation

	txErr := r.uow.Execute(ctx, func(uow port.UnitOfWork) error {
		locked, err := uow.RoomRepo().FindByIDForUpdate(ctx, roomID)
		if err != nil {
			return err
		}
		if locked.Status == domain.RoomStatusClosed {
			return domain.ErrRoomClosed
		}

		expired, err = uow.ReservationRepo().DeleteExpiredByRoom(ctx, roomID, now)
		if err != nil {
			return err
		}

		var refund int64
		for _, e := range expired {
			refund += e.ReservedSize
		}
		if refund > 0 {
			if _, err := uow.RoomRepo().ReleaseQuota(ctx, roomID, refund); err != nil {
				return err
			}
		}

		if _, err := uow.RoomRepo().ReserveQuota(ctx, roomID, reservation.ReservedSize); err != nil {
			return err
		}

		if err := uow.ReservationRepo().Create(ctx, reservation); err != nil {
			return err
		}

		room, err = uow.RoomRepo().FindByID(ctx, roomID)
		return err
	})
	if txErr != nil {
		return nil, nil, fmt.Errorf("could not reserve quota: %w", txErr)
	}

	if len(expired) > 0 {
		r.logger.Info("refunded expired reservations",
			"room_id", roomID,
			"count", len(expired))
		r.afterRelease(ctx, releaseReasonSelfHeal, expired...)
	}

	id := reservation.ID
	r.scheduler.Schedule(id.String(), ttl, func(ctx context.Context) {
		if _, err := r.ReleaseIfPending(ctx, id); err != nil {
			r.logger.Warn("deferred reservation release failed", "reservation_id", id, "error", err)
		}
	})

	return &reservation, room, nil
}

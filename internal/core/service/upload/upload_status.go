package upload

import (
	"context"
	"roomdrop/internal/core/domain"
	"time"

	"github.com/google/uuid"
)

// GetUploadStatus reports the progress of a reservation
func (u *uploadService) GetUploadStatus(ctx context.Context, roomID uuid.UUID, reservationID uuid.UUID) (*domain.UploadStatus, error) {
	reservation, err := u.uow.ReservationRepo().FindByID(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if reservation.RoomID != roomID {
		return nil, domain.ErrReservationNotFound
	}
	return u.buildStatus(ctx, reservation)
}

// GetUploadStatusByCredential reports the progress of the caller's latest reservation
func (u *uploadService) GetUploadStatusByCredential(ctx context.Context, roomID uuid.UUID, credentialID string) (*domain.UploadStatus, error) {
	reservation, err := u.uow.ReservationRepo().FindLatestByCredential(ctx, roomID, credentialID)
	if err != nil {
		return nil, err
	}
	return u.buildStatus(ctx, reservation)
}

func (u *uploadService) buildStatus(ctx context.Context, reservation *domain.UploadReservation) (*domain.UploadStatus, error) {
	now := time.Now()
	status := &domain.UploadStatus{
		ReservationID:   reservation.ID,
		Status:          reservation.Status(now),
		TotalChunks:     reservation.TotalChunks,
		UploadedChunks:  reservation.UploadedChunks,
		ProgressPercent: reservation.ProgressPercent(),
		ReservedSize:    reservation.ReservedSize,
		IsExpired:       reservation.IsExpired(now),
		ChunkDetails:    []domain.ChunkRecord{},
	}

	if remaining := reservation.ExpiresAt.Sub(now); remaining > 0 && !reservation.IsConsumed() {
		status.RemainingSeconds = int64(remaining.Seconds())
	}

	if reservation.IsConsumed() {
		status.UploadedSize = reservation.Manifest.TotalSize()
		if !reservation.IsChunked {
			status.ProgressPercent = 100
		}
	}

	if reservation.IsChunked {
		chunks, err := u.uow.ChunkRepo().ListByReservation(ctx, reservation.ID)
		if err != nil {
			return nil, err
		}
		if !reservation.IsConsumed() {
			for _, chunk := range chunks {
				if chunk.Status.IsMergeable() {
					status.UploadedSize += chunk.ChunkSize
				}
			}
		}
		status.ChunkDetails = chunks
	}

	return status, nil
}

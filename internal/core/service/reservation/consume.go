package reservation

import (
	"context"
	"fmt"
	"roomdrop/internal/core/domain"
	"roomdrop/internal/core/port"
	"time"
)

// Consume finalizes a reservation against the bytes actually stored.
// An expired reservation is refunded and deleted, and ErrExpired is returned.
func (r *reservationService) Consume(ctx context.Context, req domain.ConsumeRequest) (*domain.Room, error) {
	var room *domain.Room
	var expired *domain.UploadReservation

	txErr := r.uow.Execute(ctx, func(uow port.UnitOfWork) error {
		var err error
		room, expired, err = r.consume(ctx, uow, req, true)
		return err
	})
	if txErr != nil {
		return nil, fmt.Errorf("could not consume reservation: %w", txErr)
	}

	if expired != nil {
		r.afterRelease(ctx, releaseReasonLazy, *expired)
		return nil, fmt.Errorf("reservation %s: %w", req.ReservationID, domain.ErrExpired)
	}

	r.scheduler.Cancel(req.ReservationID.String())
	return room, nil
}

// ConsumeIn runs the consume sequence inside the caller's transaction.
// An expired reservation is only reported as ErrExpired; the caller rolls back and releases it afterwards.
func (r *reservationService) ConsumeIn(ctx context.Context, uow port.UnitOfWork, req domain.ConsumeRequest) (*domain.Room, error) {
	room, _, err := r.consume(ctx, uow, req, false)
	return room, err
}

func (r *reservationService) consume(ctx context.Context, uow port.UnitOfWork, req domain.ConsumeRequest, releaseOnExpiry bool) (*domain.Room, *domain.UploadReservation, error) {
	reservation, err := uow.ReservationRepo().FindByIDForUpdate(ctx, req.ReservationID)
	if err != nil {
		return nil, nil, err
	}
	if reservation.RoomID != req.RoomID {
		return nil, nil, domain.ErrReservationNotFound
	}
	if reservation.CredentialID != req.CredentialID {
		return nil, nil, domain.ErrTokenMismatch
	}
	if reservation.IsConsumed() {
		return nil, nil, domain.ErrAlreadyConsumed
	}

	now := time.Now()
	if reservation.IsExpired(now) {
		if !releaseOnExpiry {
			return nil, nil, fmt.Errorf("reservation %s: %w", req.ReservationID, domain.ErrExpired)
		}
		released, err := releaseExpired(ctx, uow, reservation.ID, now)
		if err != nil {
			return nil, nil, err
		}
		if released == nil {
			// another path refunded it between the read and the delete
			return nil, nil, domain.ErrReservationNotFound
		}
		return nil, released, nil
	}

	if req.ActualSize < 0 {
		return nil, nil, fmt.Errorf("%w: negative actual size", domain.ErrValidation)
	}
	if req.ActualSize > reservation.ReservedSize {
		return nil, nil, domain.ErrOverReservation
	}

	if _, err := uow.RoomRepo().ConsumeQuota(ctx, reservation.RoomID, req.ActualSize, reservation.ReservedSize); err != nil {
		return nil, nil, err
	}

	if err := uow.ReservationRepo().MarkConsumed(ctx, reservation.ID, now, req.ActualManifest); err != nil {
		return nil, nil, err
	}

	room, err := uow.RoomRepo().FindByID(ctx, reservation.RoomID)
	if err != nil {
		return nil, nil, err
	}
	return room, nil, nil
}

package port

import (
	"context"
	"roomdrop/internal/core/domain"
	"time"

	"github.com/google/uuid"
)

// ReservationRepository is an interface to interact with upload reservations
type ReservationRepository interface {
	Create(ctx context.Context, reservation domain.UploadReservation) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.UploadReservation, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.UploadReservation, error)
	FindLatestByCredential(ctx context.Context, roomID uuid.UUID, credentialID string) (*domain.UploadReservation, error)
	FindExpired(ctx context.Context, now time.Time, limit int) ([]domain.UploadReservation, error)
	ListByRoom(ctx context.Context, roomID uuid.UUID) ([]domain.UploadReservation, error)
	// DeleteExpiredByRoom removes every expired, unconsumed reservation of a room and returns them
	DeleteExpiredByRoom(ctx context.Context, roomID uuid.UUID, now time.Time) ([]domain.UploadReservation, error)
	// DeleteIfExpired removes the reservation when it is expired and unconsumed.
	// It returns nil when there was nothing to remove.
	DeleteIfExpired(ctx context.Context, id uuid.UUID, now time.Time) (*domain.UploadReservation, error)
	MarkConsumed(ctx context.Context, id uuid.UUID, consumedAt time.Time, manifest domain.Manifest) error
	IncrementUploadedChunks(ctx context.Context, id uuid.UUID) (int, error)
	TryBeginMerge(ctx context.Context, id uuid.UUID) error
	SetMergeState(ctx context.Context, id uuid.UUID, state domain.MergeState) error
}

// ReservationService is the reservation store driving the quota ledger
type ReservationService interface {
	Reserve(ctx context.Context, roomID uuid.UUID, credentialID string, manifest domain.Manifest, ttl time.Duration) (*domain.UploadReservation, *domain.Room, error)
	Consume(ctx context.Context, req domain.ConsumeRequest) (*domain.Room, error)
	// ConsumeIn runs Consume inside the caller's transaction
	ConsumeIn(ctx context.Context, uow UnitOfWork, req domain.ConsumeRequest) (*domain.Room, error)
	ReleaseIfPending(ctx context.Context, reservationID uuid.UUID) (bool, error)
}

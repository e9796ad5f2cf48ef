package port

import (
	"context"
	"roomdrop/internal/core/domain"
	"time"

	"github.com/google/uuid"
)

// RoomRepository is an interface to interact with rooms and their quota ledger
type RoomRepository interface {
	Create(ctx context.Context, room domain.Room) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Room, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Room, error)
	// ReserveQuota debits amount if it fits under max_size and returns the new current size
	ReserveQuota(ctx context.Context, id uuid.UUID, amount int64) (int64, error)
	// ReleaseQuota refunds amount, clamped at zero
	ReleaseQuota(ctx context.Context, id uuid.UUID, amount int64) (int64, error)
	// ConsumeQuota applies debit-credit, clamped at zero
	ConsumeQuota(ctx context.Context, id uuid.UUID, debit, credit int64) (int64, error)
	IncrementEntries(ctx context.Context, id uuid.UUID) (*domain.Room, error)
	SetCleanupMarkers(ctx context.Context, id uuid.UUID, emptySince, cleanupAfter time.Time) error
	ClearCleanupMarkers(ctx context.Context, id uuid.UUID) error
	FindCleanupCandidates(ctx context.Context, now time.Time, limit int) ([]domain.Room, error)
	FindFullUnbounded(ctx context.Context, limit int) ([]domain.Room, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// LifecycleService handles room state transitions and garbage collection
type LifecycleService interface {
	CreateRoom(ctx context.Context, room domain.NewRoom) (*domain.Room, error)
	RecordEntry(ctx context.Context, roomID uuid.UUID) (*domain.Room, error)
	RegisterCredential(ctx context.Context, credential domain.CredentialRecord) error
	RevokeCredential(ctx context.Context, jti string) error
	OnRoomBecameEmpty(ctx context.Context, roomID uuid.UUID) error
	OnRoomBecameActive(ctx context.Context, roomID uuid.UUID) error
	RunScheduledGc(ctx context.Context, limit int) (int, error)
	ListFullUnboundedRooms(ctx context.Context, limit int) ([]domain.FullRoomInfo, error)
}

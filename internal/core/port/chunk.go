package port

import (
	"context"
	"roomdrop/internal/core/domain"

	"github.com/google/uuid"
)

// ChunkRepository is an interface to interact with chunk records
type ChunkRepository interface {
	Create(ctx context.Context, chunk domain.ChunkRecord) error
	ListByReservation(ctx context.Context, reservationID uuid.UUID) ([]domain.ChunkRecord, error)
	DeleteByReservation(ctx context.Context, reservationID uuid.UUID) error
}

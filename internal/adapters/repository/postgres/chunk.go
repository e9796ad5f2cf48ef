package postgres

import (
	"context"
	"fmt"
	"roomdrop/internal/core/domain"
	"roomdrop/internal/core/port"
	"time"

	"github.com/google/uuid"
)

type sqlChunkRepository struct {
	db SQLQuerier
}

// NewSQLChunkRepository Creates a new sqlChunkRepository
func NewSQLChunkRepository(db SQLQuerier) port.ChunkRepository {
	return &sqlChunkRepository{db: db}
}

// Create inserts a chunk record. The (reservation_id, chunk_index) key rejects duplicates.
func (s *sqlChunkRepository) Create(ctx context.Context, chunk domain.ChunkRecord) error {
	query := `
		INSERT INTO upload_chunk (reservation_id, chunk_index, chunk_size, chunk_hash, status)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := s.db.ExecContext(ctx, query,
		chunk.ReservationID,
		chunk.ChunkIndex,
		chunk.ChunkSize,
		chunk.ChunkHash,
		chunk.Status.String(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateChunk
		}
		return err
	}
	return nil
}

// ListByReservation lists chunks ordered by index
func (s *sqlChunkRepository) ListByReservation(ctx context.Context, reservationID uuid.UUID) ([]domain.ChunkRecord, error) {
	query := `
		SELECT reservation_id, chunk_index, chunk_size, chunk_hash, status, created_at, updated_at
		FROM upload_chunk
		WHERE reservation_id = $1
		ORDER BY chunk_index ASC`

	rows, err := s.db.QueryContext(ctx, query, reservationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chunks []domain.ChunkRecord
	for rows.Next() {
		var row dbChunk
		if err := rows.Scan(
			&row.ReservationID,
			&row.ChunkIndex,
			&row.ChunkSize,
			&row.ChunkHash,
			&row.Status,
			&row.CreatedAt,
			&row.UpdatedAt,
		); err != nil {
			return nil, err
		}
		chunk, err := row.ToDomain()
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, *chunk)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return chunks, nil
}

// DeleteByReservation deletes every chunk record of a reservation
func (s *sqlChunkRepository) DeleteByReservation(ctx context.Context, reservationID uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM upload_chunk WHERE reservation_id = $1`, reservationID)
	return err
}

type dbChunk struct {
	ReservationID uuid.UUID `db:"reservation_id"`
	ChunkIndex    int       `db:"chunk_index"`
	ChunkSize     int64     `db:"chunk_size"`
	ChunkHash     string    `db:"chunk_hash"`
	Status        string    `db:"status"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

// ToDomain converts db obj to domain
func (c *dbChunk) ToDomain() (*domain.ChunkRecord, error) {
	status, err := domain.ParseChunkStatus(c.Status)
	if err != nil {
		return nil, fmt.Errorf("chunk %d of %s: %w", c.ChunkIndex, c.ReservationID, err)
	}

	return &domain.ChunkRecord{
		ReservationID: c.ReservationID,
		ChunkIndex:    c.ChunkIndex,
		ChunkSize:     c.ChunkSize,
		ChunkHash:     c.ChunkHash,
		Status:        status,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}, nil
}

package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"roomdrop/internal/core/domain"
	"roomdrop/internal/core/port"
	"time"

	"github.com/google/uuid"
)

type sqlReservationRepository struct {
	db SQLQuerier
}

// NewSQLReservationRepository Creates a new sqlReservationRepository
func NewSQLReservationRepository(db SQLQuerier) port.ReservationRepository {
	return &sqlReservationRepository{db: db}
}

const reservationColumns = `id, room_id, credential_id, manifest, reserved_size, reserved_at, expires_at, consumed_at,
		is_chunked, total_chunks, uploaded_chunks, chunk_size, merge_state, updated_at`

// Create creates an upload reservation
func (s *sqlReservationRepository) Create(ctx context.Context, reservation domain.UploadReservation) error {
	manifest, err := json.Marshal(reservation.Manifest)
	if err != nil {
		return fmt.Errorf("error encoding manifest: %w", err)
	}

	mergeState := reservation.MergeState
	if mergeState == "" {
		mergeState = domain.MergeStateIdle
	}

	query := `
		INSERT INTO upload_reservation (
			id, room_id, credential_id, manifest, reserved_size, reserved_at, expires_at,
			is_chunked, total_chunks, uploaded_chunks, chunk_size, merge_state
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err = s.db.ExecContext(
		ctx,
		query,
		reservation.ID,
		reservation.RoomID,
		reservation.CredentialID,
		manifest,
		reservation.ReservedSize,
		reservation.ReservedAt,
		reservation.ExpiresAt,
		reservation.IsChunked,
		reservation.TotalChunks,
		reservation.UploadedChunks,
		reservation.ChunkSize,
		mergeState,
	)
	if err != nil {
		return fmt.Errorf("error inserting reservation: %w", err)
	}
	return nil
}

// FindByID finds a reservation by id
func (s *sqlReservationRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.UploadReservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM upload_reservation WHERE id = $1`
	return s.findOne(ctx, query, id)
}

// FindByIDForUpdate finds a reservation and locks it until the transaction ends
func (s *sqlReservationRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.UploadReservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM upload_reservation WHERE id = $1 FOR UPDATE`
	return s.findOne(ctx, query, id)
}

// FindLatestByCredential finds the most recent reservation a credential made in a room
func (s *sqlReservationRepository) FindLatestByCredential(ctx context.Context, roomID uuid.UUID, credentialID string) (*domain.UploadReservation, error) {
	query := `
		SELECT ` + reservationColumns + `
		FROM upload_reservation
		WHERE room_id = $1 AND credential_id = $2
		ORDER BY reserved_at DESC
		LIMIT 1`
	return s.findOne(ctx, query, roomID, credentialID)
}

// FindExpired lists expired, unconsumed reservations across rooms
func (s *sqlReservationRepository) FindExpired(ctx context.Context, now time.Time, limit int) ([]domain.UploadReservation, error) {
	query := `
		SELECT ` + reservationColumns + `
		FROM upload_reservation
		WHERE consumed_at IS NULL AND expires_at <= $1
		ORDER BY expires_at ASC
		LIMIT $2`
	return s.findMany(ctx, query, now, limit)
}

// ListByRoom lists every reservation of a room
func (s *sqlReservationRepository) ListByRoom(ctx context.Context, roomID uuid.UUID) ([]domain.UploadReservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM upload_reservation WHERE room_id = $1 ORDER BY reserved_at ASC`
	return s.findMany(ctx, query, roomID)
}

// DeleteExpiredByRoom removes the expired, unconsumed reservations of a room
func (s *sqlReservationRepository) DeleteExpiredByRoom(ctx context.Context, roomID uuid.UUID, now time.Time) ([]domain.UploadReservation, error) {
	query := `
		DELETE FROM upload_reservation
		WHERE room_id = $1 AND consumed_at IS NULL AND expires_at <= $2
		RETURNING ` + reservationColumns
	return s.findMany(ctx, query, roomID, now)
}

// DeleteIfExpired removes one reservation when it is expired and unconsumed.
// Concurrent callers race on the row, only one of them gets it back.
func (s *sqlReservationRepository) DeleteIfExpired(ctx context.Context, id uuid.UUID, now time.Time) (*domain.UploadReservation, error) {
	query := `
		DELETE FROM upload_reservation
		WHERE id = $1 AND consumed_at IS NULL AND expires_at <= $2
		RETURNING ` + reservationColumns

	reservation, err := s.findOne(ctx, query, id, now)
	if err != nil {
		if errors.Is(err, domain.ErrReservationNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return reservation, nil
}

// MarkConsumed finalizes a reservation and records the manifest actually stored
func (s *sqlReservationRepository) MarkConsumed(ctx context.Context, id uuid.UUID, consumedAt time.Time, manifest domain.Manifest) error {
	encoded, err := json.Marshal(manifest)
	if err != nil {
		return fmt.Errorf("error encoding manifest: %w", err)
	}

	query := `
		UPDATE upload_reservation
		SET consumed_at = $2, manifest = $3, merge_state = 'idle', updated_at = now()
		WHERE id = $1 AND consumed_at IS NULL`

	result, err := s.db.ExecContext(ctx, query, id, consumedAt, encoded)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrAlreadyConsumed
	}
	return nil
}

// IncrementUploadedChunks bumps the progress counter and returns its new value
func (s *sqlReservationRepository) IncrementUploadedChunks(ctx context.Context, id uuid.UUID) (int, error) {
	query := `
		UPDATE upload_reservation
		SET uploaded_chunks = uploaded_chunks + 1, updated_at = now()
		WHERE id = $1
		RETURNING uploaded_chunks`

	var uploaded int
	if err := s.db.QueryRowContext(ctx, query, id).Scan(&uploaded); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, domain.ErrReservationNotFound
		}
		return 0, err
	}
	return uploaded, nil
}

// TryBeginMerge moves an idle reservation to merging. Only one caller wins.
func (s *sqlReservationRepository) TryBeginMerge(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE upload_reservation
		SET merge_state = 'merging', updated_at = now()
		WHERE id = $1 AND merge_state = 'idle' AND consumed_at IS NULL`

	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrMergeInProgress
	}
	return nil
}

// SetMergeState updates the merge guard
func (s *sqlReservationRepository) SetMergeState(ctx context.Context, id uuid.UUID, state domain.MergeState) error {
	query := `UPDATE upload_reservation SET merge_state = $2, updated_at = now() WHERE id = $1`

	result, err := s.db.ExecContext(ctx, query, id, state)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrReservationNotFound
	}
	return nil
}

func (s *sqlReservationRepository) findOne(ctx context.Context, query string, args ...any) (*domain.UploadReservation, error) {
	var row dbReservation
	if err := row.scan(s.db.QueryRowContext(ctx, query, args...)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrReservationNotFound
		}
		return nil, err
	}
	return row.ToDomain()
}

func (s *sqlReservationRepository) findMany(ctx context.Context, query string, args ...any) ([]domain.UploadReservation, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reservations []domain.UploadReservation
	for rows.Next() {
		var row dbReservation
		if err := row.scan(rows); err != nil {
			return nil, err
		}
		reservation, err := row.ToDomain()
		if err != nil {
			return nil, err
		}
		reservations = append(reservations, *reservation)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return reservations, nil
}

type dbReservation struct {
	ID             uuid.UUID  `db:"id"`
	RoomID         uuid.UUID  `db:"room_id"`
	CredentialID   string     `db:"credential_id"`
	Manifest       []byte     `db:"manifest"`
	ReservedSize   int64      `db:"reserved_size"`
	ReservedAt     time.Time  `db:"reserved_at"`
	ExpiresAt      time.Time  `db:"expires_at"`
	ConsumedAt     *time.Time `db:"consumed_at"`
	IsChunked      bool       `db:"is_chunked"`
	TotalChunks    int        `db:"total_chunks"`
	UploadedChunks int        `db:"uploaded_chunks"`
	ChunkSize      int64      `db:"chunk_size"`
	MergeState     string     `db:"merge_state"`
	UpdatedAt      time.Time  `db:"updated_at"`
}

func (r *dbReservation) scan(row rowScanner) error {
	return row.Scan(
		&r.ID,
		&r.RoomID,
		&r.CredentialID,
		&r.Manifest,
		&r.ReservedSize,
		&r.ReservedAt,
		&r.ExpiresAt,
		&r.ConsumedAt,
		&r.IsChunked,
		&r.TotalChunks,
		&r.UploadedChunks,
		&r.ChunkSize,
		&r.MergeState,
		&r.UpdatedAt,
	)
}

// ToDomain converts db obj to domain
func (r *dbReservation) ToDomain() (*domain.UploadReservation, error) {
	var manifest domain.Manifest
	if len(r.Manifest) > 0 {
		if err := json.Unmarshal(r.Manifest, &manifest); err != nil {
			return nil, fmt.Errorf("error decoding manifest of reservation %s: %w", r.ID, err)
		}
	}

	return &domain.UploadReservation{
		ID:             r.ID,
		RoomID:         r.RoomID,
		CredentialID:   r.CredentialID,
		Manifest:       manifest,
		ReservedSize:   r.ReservedSize,
		ReservedAt:     r.ReservedAt,
		ExpiresAt:      r.ExpiresAt,
		ConsumedAt:     r.ConsumedAt,
		IsChunked:      r.IsChunked,
		TotalChunks:    r.TotalChunks,
		UploadedChunks: r.UploadedChunks,
		ChunkSize:      r.ChunkSize,
		MergeState:     domain.MergeState(r.MergeState),
		UpdatedAt:      r.UpdatedAt,
	}, nil
}

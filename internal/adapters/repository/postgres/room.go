package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"roomdrop/internal/core/domain"
	"roomdrop/internal/core/port"
	"time"

	"github.com/google/uuid"
)

type sqlRoomRepository struct {
	db SQLQuerier
}

// NewSQLRoomRepository creates sqlRoomRepository that implements port.RoomRepository
func NewSQLRoomRepository(db SQLQuerier) port.RoomRepository {
	return &sqlRoomRepository{db: db}
}

const roomColumns = `id, name, slug, status, max_size, current_size, max_times_entered, current_times_entered,
		expire_at, permission, empty_since, cleanup_after, created_at, updated_at`

// Create creates a room
func (s *sqlRoomRepository) Create(ctx context.Context, room domain.Room) error {
	query := `
		INSERT INTO room (id, name, slug, status, max_size, current_size, max_times_entered, current_times_entered, expire_at, permission)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := s.db.ExecContext(ctx, query,
		room.ID,
		room.Name,
		room.Slug,
		room.Status,
		room.MaxSize,
		room.CurrentSize,
		room.MaxTimesEntered,
		room.CurrentTimesEntered,
		room.ExpireAt,
		int16(room.Permission),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("room %s: %w", room.Name, domain.ErrConflict)
		}
		return fmt.Errorf("error inserting room: %w", err)
	}
	return nil
}

// FindByID finds a room by id
func (s *sqlRoomRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Room, error) {
	query := `SELECT ` + roomColumns + ` FROM room WHERE id = $1`
	return s.findOne(ctx, query, id)
}

// FindByIDForUpdate finds a room and locks its row until the transaction ends
func (s *sqlRoomRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Room, error) {
	query := `SELECT ` + roomColumns + ` FROM room WHERE id = $1 FOR UPDATE`
	return s.findOne(ctx, query, id)
}

// ReserveQuota debits amount when it fits. The check and the write are one statement on the room row.
func (s *sqlRoomRepository) ReserveQuota(ctx context.Context, id uuid.UUID, amount int64) (int64, error) {
	query := `
		UPDATE room
		SET current_size = current_size + $2, updated_at = now()
		WHERE id = $1 AND current_size + $2 <= max_size
		RETURNING current_size`

	var currentSize int64
	err := s.db.QueryRowContext(ctx, query, id, amount).Scan(&currentSize)
	if err == nil {
		return currentSize, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("error reserving quota: %w", err)
	}

	if _, findErr := s.FindByID(ctx, id); findErr != nil {
		return 0, findErr
	}
	return 0, domain.ErrQuotaExceeded
}

// ReleaseQuota refunds amount, never going below zero
func (s *sqlRoomRepository) ReleaseQuota(ctx context.Context, id uuid.UUID, amount int64) (int64, error) {
	query := `
		UPDATE room
		SET current_size = GREATEST(current_size - $2, 0), updated_at = now()
		WHERE id = $1
		RETURNING current_size`

	return s.updateSize(ctx, query, id, amount)
}

// ConsumeQuota converts a credit of reserved bytes into a debit of actual bytes
func (s *sqlRoomRepository) ConsumeQuota(ctx context.Context, id uuid.UUID, debit, credit int64) (int64, error) {
	query := `
		UPDATE room
		SET current_size = GREATEST(current_size + $2 - $3, 0), updated_at = now()
		WHERE id = $1
		RETURNING current_size`

	return s.updateSize(ctx, query, id, debit, credit)
}

func (s *sqlRoomRepository) updateSize(ctx context.Context, query string, id uuid.UUID, args ...any) (int64, error) {
	var currentSize int64
	err := s.db.QueryRowContext(ctx, query, append([]any{id}, args...)...).Scan(&currentSize)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, domain.ErrRoomNotFound
		}
		return 0, fmt.Errorf("error updating room size: %w", err)
	}
	return currentSize, nil
}

// IncrementEntries increments the entry counter of an open room that has entries left.
// A max_times_entered of zero means unlimited.
func (s *sqlRoomRepository) IncrementEntries(ctx context.Context, id uuid.UUID) (*domain.Room, error) {
	query := `
		UPDATE room
		SET current_times_entered = current_times_entered + 1, updated_at = now()
		WHERE id = $1 AND status = 'open'
		  AND (max_times_entered = 0 OR current_times_entered < max_times_entered)
		RETURNING ` + roomColumns

	room, err := s.findOne(ctx, query, id)
	if err == nil {
		return room, nil
	}
	if !errors.Is(err, domain.ErrRoomNotFound) {
		return nil, err
	}

	current, findErr := s.FindByID(ctx, id)
	if findErr != nil {
		return nil, findErr
	}
	if current.Status != domain.RoomStatusOpen {
		return nil, domain.ErrRoomClosed
	}
	return nil, domain.ErrRoomFull
}

// SetCleanupMarkers stamps the GC markers
func (s *sqlRoomRepository) SetCleanupMarkers(ctx context.Context, id uuid.UUID, emptySince, cleanupAfter time.Time) error {
	query := `UPDATE room SET empty_since = $2, cleanup_after = $3, updated_at = now() WHERE id = $1`
	return s.exec(ctx, query, id, emptySince, cleanupAfter)
}

// ClearCleanupMarkers resets the GC markers
func (s *sqlRoomRepository) ClearCleanupMarkers(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE room SET empty_since = NULL, cleanup_after = NULL, updated_at = now() WHERE id = $1`
	return s.exec(ctx, query, id)
}

// FindCleanupCandidates lists rooms whose cleanup time passed, oldest first
func (s *sqlRoomRepository) FindCleanupCandidates(ctx context.Context, now time.Time, limit int) ([]domain.Room, error) {
	query := `
		SELECT ` + roomColumns + `
		FROM room
		WHERE cleanup_after IS NOT NULL AND cleanup_after <= $1
		ORDER BY cleanup_after ASC
		LIMIT $2`

	return s.findMany(ctx, query, now, limit)
}

// FindFullUnbounded lists rooms without expiry that ran out of entries
func (s *sqlRoomRepository) FindFullUnbounded(ctx context.Context, limit int) ([]domain.Room, error) {
	query := `
		SELECT ` + roomColumns + `
		FROM room
		WHERE expire_at IS NULL AND max_times_entered > 0 AND current_times_entered >= max_times_entered
		ORDER BY cleanup_after ASC NULLS LAST, created_at ASC
		LIMIT $1`

	return s.findMany(ctx, query, limit)
}

// Delete deletes a room, cascading to its reservations, chunks, contents and credentials
func (s *sqlRoomRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return s.exec(ctx, `DELETE FROM room WHERE id = $1`, id)
}

func (s *sqlRoomRepository) exec(ctx context.Context, query string, args ...any) error {
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("error updating room: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error checking rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrRoomNotFound
	}
	return nil
}

func (s *sqlRoomRepository) findOne(ctx context.Context, query string, args ...any) (*domain.Room, error) {
	var row dbRoom
	if err := row.scan(s.db.QueryRowContext(ctx, query, args...)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrRoomNotFound
		}
		return nil, err
	}
	return row.ToDomain(), nil
}

func (s *sqlRoomRepository) findMany(ctx context.Context, query string, args ...any) ([]domain.Room, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying rooms: %w", err)
	}
	defer rows.Close()

	var rooms []domain.Room
	for rows.Next() {
		var row dbRoom
		if err := row.scan(rows); err != nil {
			return nil, fmt.Errorf("error scanning room: %w", err)
		}
		rooms = append(rooms, *row.ToDomain())
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rooms: %w", err)
	}
	return rooms, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

type dbRoom struct {
	ID                  uuid.UUID  `db:"id"`
	Name                string     `db:"name"`
	Slug                string     `db:"slug"`
	Status              string     `db:"status"`
	MaxSize             int64      `db:"max_size"`
	CurrentSize         int64      `db:"current_size"`
	MaxTimesEntered     int64      `db:"max_times_entered"`
	CurrentTimesEntered int64      `db:"current_times_entered"`
	ExpireAt            *time.Time `db:"expire_at"`
	Permission          int16      `db:"permission"`
	EmptySince          *time.Time `db:"empty_since"`
	CleanupAfter        *time.Time `db:"cleanup_after"`
	CreatedAt           time.Time  `db:"created_at"`
	UpdatedAt           time.Time  `db:"updated_at"`
}

func (r *dbRoom) scan(row rowScanner) error {
	return row.Scan(
		&r.ID,
		&r.Name,
		&r.Slug,
		&r.Status,
		&r.MaxSize,
		&r.CurrentSize,
		&r.MaxTimesEntered,
		&r.CurrentTimesEntered,
		&r.ExpireAt,
		&r.Permission,
		&r.EmptySince,
		&r.CleanupAfter,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
}

// ToDomain converts db obj to domain
func (r *dbRoom) ToDomain() *domain.Room {
	return &domain.Room{
		ID:                  r.ID,
		Name:                r.Name,
		Slug:                r.Slug,
		Status:              domain.RoomStatus(r.Status),
		MaxSize:             r.MaxSize,
		CurrentSize:         r.CurrentSize,
		MaxTimesEntered:     r.MaxTimesEntered,
		CurrentTimesEntered: r.CurrentTimesEntered,
		ExpireAt:            r.ExpireAt,
		Permission:          domain.Permission(r.Permission),
		EmptySince:          r.EmptySince,
		CleanupAfter:        r.CleanupAfter,
		CreatedAt:           r.CreatedAt,
		UpdatedAt:           r.UpdatedAt,
	}
}

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

type sqlContentRepository struct {
	db SQLQuerier
}

// NewSQLContentRepository creates sqlContentRepository that implements port.ContentRepository
func NewSQLContentRepository(db SQLQuerier) port.ContentRepository {
	return &sqlContentRepository{db: db}
}

// Create creates a content record
func (s *sqlContentRepository) Create(ctx context.Context, content domain.ContentRecord) error {
	contentType := content.Type
	if contentType == "" {
		contentType = domain.ContentTypeFile
	}

	var reservationID *uuid.UUID
	if content.ReservationID != uuid.Nil {
		reservationID = &content.ReservationID
	}

	query := `
		INSERT INTO content (id, room_id, reservation_id, content_type, storage_key, file_name, size_bytes, mime_type, checksum)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := s.db.ExecContext(ctx, query,
		content.ID,
		content.RoomID,
		reservationID,
		contentType,
		content.StorageKey,
		content.FileName,
		content.SizeBytes,
		content.MimeType,
		content.Checksum,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("content %s: %w", content.FileName, domain.ErrNameTaken)
		}
		return fmt.Errorf("error inserting content: %w", err)
	}
	return nil
}

// FindByID finds a content record by id
func (s *sqlContentRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.ContentRecord, error) {
	query := `
		SELECT id, room_id, reservation_id, content_type, storage_key, file_name, size_bytes, mime_type, checksum, created_at, updated_at
		FROM content
		WHERE id = $1`

	var row dbContent
	if err := row.scan(s.db.QueryRowContext(ctx, query, id)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrContentNotFound
		}
		return nil, err
	}
	return row.ToDomain(), nil
}

// ExistsByName reports whether a room already holds a file with this name
func (s *sqlContentRepository) ExistsByName(ctx context.Context, roomID uuid.UUID, name string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM content WHERE room_id = $1 AND file_name = $2)`

	var exists bool
	if err := s.db.QueryRowContext(ctx, query, roomID, name).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// ListByRoom lists the contents of a room
func (s *sqlContentRepository) ListByRoom(ctx context.Context, roomID uuid.UUID) ([]domain.ContentRecord, error) {
	query := `
		SELECT id, room_id, reservation_id, content_type, storage_key, file_name, size_bytes, mime_type, checksum, created_at, updated_at
		FROM content
		WHERE room_id = $1
		ORDER BY created_at ASC`

	rows, err := s.db.QueryContext(ctx, query, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var contents []domain.ContentRecord
	for rows.Next() {
		var row dbContent
		if err := row.scan(rows); err != nil {
			return nil, err
		}
		contents = append(contents, *row.ToDomain())
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return contents, nil
}

// DeleteByRoom deletes the content records of a room
func (s *sqlContentRepository) DeleteByRoom(ctx context.Context, roomID uuid.UUID) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM content WHERE room_id = $1`, roomID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

type dbContent struct {
	ID            uuid.UUID     `db:"id"`
	RoomID        uuid.UUID     `db:"room_id"`
	ReservationID uuid.NullUUID `db:"reservation_id"`
	Type          string        `db:"content_type"`
	StorageKey    string        `db:"storage_key"`
	FileName      string        `db:"file_name"`
	SizeBytes     int64         `db:"size_bytes"`
	MimeType      string        `db:"mime_type"`
	Checksum      string        `db:"checksum"`
	CreatedAt     time.Time     `db:"created_at"`
	UpdatedAt     time.Time     `db:"updated_at"`
}

func (c *dbContent) scan(row rowScanner) error {
	return row.Scan(
		&c.ID,
		&c.RoomID,
		&c.ReservationID,
		&c.Type,
		&c.StorageKey,
		&c.FileName,
		&c.SizeBytes,
		&c.MimeType,
		&c.Checksum,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
}

// ToDomain converts db obj to domain
func (c *dbContent) ToDomain() *domain.ContentRecord {
	return &domain.ContentRecord{
		ID:            c.ID,
		RoomID:        c.RoomID,
		ReservationID: c.ReservationID.UUID,
		Type:          domain.ContentType(c.Type),
		StorageKey:    c.StorageKey,
		FileName:      c.FileName,
		SizeBytes:     c.SizeBytes,
		MimeType:      c.MimeType,
		Checksum:      c.Checksum,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}

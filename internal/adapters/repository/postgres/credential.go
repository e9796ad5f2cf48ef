package postgres

import (
	"context"
	"database/sql"
	"roomdrop/internal/core/domain"
	"roomdrop/internal/core/port"
	"time"

	"github.com/google/uuid"
)

type sqlCredentialRepository struct {
	db SQLQuerier
}

// NewSQLCredentialRepository Creates a new sqlCredentialRepository
func NewSQLCredentialRepository(db SQLQuerier) port.CredentialRepository {
	return &sqlCredentialRepository{db: db}
}

// Create registers an issued credential
func (s *sqlCredentialRepository) Create(ctx context.Context, credential domain.CredentialRecord) error {
	query := `
		INSERT INTO room_credential (jti, room_id, expires_at, revoked)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (jti) DO UPDATE SET expires_at = EXCLUDED.expires_at`

	_, err := s.db.ExecContext(ctx, query,
		credential.JTI,
		credential.RoomID,
		credential.ExpiresAt,
		credential.Revoked,
	)
	return err
}

// Revoke revokes a credential
func (s *sqlCredentialRepository) Revoke(ctx context.Context, jti string) error {
	result, err := s.db.ExecContext(ctx, `UPDATE room_credential SET revoked = TRUE WHERE jti = $1`, jti)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrCredentialNotFound
	}
	return nil
}

// MaxActiveExpiry returns the latest expiry of the non revoked credentials of a room
func (s *sqlCredentialRepository) MaxActiveExpiry(ctx context.Context, roomID uuid.UUID) (*time.Time, error) {
	query := `SELECT MAX(expires_at) FROM room_credential WHERE room_id = $1 AND NOT revoked`

	var maxExpiry sql.NullTime
	if err := s.db.QueryRowContext(ctx, query, roomID).Scan(&maxExpiry); err != nil {
		return nil, err
	}
	if !maxExpiry.Valid {
		return nil, nil
	}
	return &maxExpiry.Time, nil
}

// DeleteByRoom deletes the credentials of a room
func (s *sqlCredentialRepository) DeleteByRoom(ctx context.Context, roomID uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM room_credential WHERE room_id = $1`, roomID)
	return err
}

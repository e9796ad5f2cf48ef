package port

import (
	"context"
	"roomdrop/internal/core/domain"
	"time"

	"github.com/google/uuid"
)

// CredentialRepository is an interface to interact with issued room credentials
type CredentialRepository interface {
	Create(ctx context.Context, credential domain.CredentialRecord) error
	Revoke(ctx context.Context, jti string) error
	// MaxActiveExpiry returns the latest expiry among non-revoked credentials of a room, nil if none
	MaxActiveExpiry(ctx context.Context, roomID uuid.UUID) (*time.Time, error)
	DeleteByRoom(ctx context.Context, roomID uuid.UUID) error
}

// CredentialVerifier validates a bearer token and extracts the room credential
type CredentialVerifier interface {
	Verify(ctx context.Context, token string) (*domain.Credential, error)
}

// CredentialIssuer signs new room credentials
type CredentialIssuer interface {
	Issue(roomID uuid.UUID, permission domain.Permission, ttl time.Duration) (string, *domain.CredentialRecord, error)
}

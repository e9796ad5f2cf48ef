package domain

import (
	"time"

	"github.com/google/uuid"
)

// ContentType represents the kind of a stored content
type ContentType string

const (
	ContentTypeFile ContentType = "file"
)

// ContentRecord represents a finalized stored artifact of a room
type ContentRecord struct {
	ID            uuid.UUID
	RoomID        uuid.UUID
	ReservationID uuid.UUID
	Type          ContentType
	StorageKey    string
	FileName      string
	SizeBytes     int64
	MimeType      string
	Checksum      string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// MergedFile is the result of a successful merge or whole-file upload
type MergedFile struct {
	Name      string
	Size      int64
	Hash      string
	ContentID uuid.UUID
}

// Credential is the subset of a room token the engine reads
type Credential struct {
	ID         string
	RoomID     uuid.UUID
	Permission Permission
	ExpiresAt  time.Time
}

// CredentialRecord is an issued credential persisted for lifecycle decisions
type CredentialRecord struct {
	JTI       string
	RoomID    uuid.UUID
	ExpiresAt time.Time
	Revoked   bool
	CreatedAt time.Time
}

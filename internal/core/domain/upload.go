package domain

import (
	"io"
	"time"

	"github.com/google/uuid"
)

// PreparedUpload is the answer to a successful reservation request
type PreparedUpload struct {
	ReservationID uuid.UUID
	ReservedSize  int64
	ExpiresAt     time.Time
	IsChunked     bool
	Plans         []ChunkPlan
	Room          Room
}

// ChunkUpload carries one chunk body and its declared attributes
type ChunkUpload struct {
	ReservationID uuid.UUID
	RoomID        uuid.UUID
	CredentialID  string
	Index         int
	Size          int64
	Hash          string
	Body          io.Reader
}

// FilePayload is one whole file of a non-chunked reservation
type FilePayload struct {
	Name string
	Body io.Reader
}

// ConsumeRequest finalizes a reservation against what was actually stored
type ConsumeRequest struct {
	ReservationID  uuid.UUID
	RoomID         uuid.UUID
	CredentialID   string
	ActualSize     int64
	ActualManifest Manifest
}

// NewRoom holds the attributes of a room to create
type NewRoom struct {
	Name            string
	Slug            string
	MaxSize         int64
	MaxTimesEntered int64
	ExpireAt        *time.Time
	Permission      Permission
}

package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ChunkStatus represents the status of an uploaded chunk
type ChunkStatus int

const (
	ChunkStatusPending ChunkStatus = iota
	ChunkStatusUploaded
	ChunkStatusVerified
	ChunkStatusFailed
)

var chunkStatusNames = map[ChunkStatus]string{
	ChunkStatusPending:  "pending",
	ChunkStatusUploaded: "uploaded",
	ChunkStatusVerified: "verified",
	ChunkStatusFailed:   "failed",
}

// String returns the stored name of the status
func (s ChunkStatus) String() string {
	if name, ok := chunkStatusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("ChunkStatus(%d)", int(s))
}

// ParseChunkStatus maps a stored name back to a ChunkStatus
func ParseChunkStatus(name string) (ChunkStatus, error) {
	for status, n := range chunkStatusNames {
		if n == name {
			return status, nil
		}
	}
	return ChunkStatusPending, fmt.Errorf("unknown chunk status %q", name)
}

// IsMergeable reports whether a chunk can take part in a merge
func (s ChunkStatus) IsMergeable() bool {
	return s == ChunkStatusUploaded || s == ChunkStatusVerified
}

// ChunkRecord represents one independently uploaded byte range
type ChunkRecord struct {
	ReservationID uuid.UUID
	ChunkIndex    int
	ChunkSize     int64
	ChunkHash     string
	Status        ChunkStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ReservationStatus is the derived status of an upload reservation
type ReservationStatus string

const (
	ReservationStatusPending   ReservationStatus = "pending"
	ReservationStatusUploading ReservationStatus = "uploading"
	ReservationStatusCompleted ReservationStatus = "completed"
	ReservationStatusExpired   ReservationStatus = "expired"
	ReservationStatusConsumed  ReservationStatus = "consumed"
	ReservationStatusFailed    ReservationStatus = "failed"
)

// MergeState tracks the merge guard of a chunked reservation
type MergeState string

const (
	MergeStateIdle    MergeState = "idle"
	MergeStateMerging MergeState = "merging"
	MergeStateFailed  MergeState = "failed"
)

// ManifestEntry is one file a reservation covers
type ManifestEntry struct {
	Name        string `json:"name"`
	Size        int64  `json:"size"`
	Mime        string `json:"mime"`
	ChunkSize   int64  `json:"chunk_size,omitempty"`
	ContentHash string `json:"content_hash,omitempty"`
}

// Manifest is the ordered list of files of a reservation
type Manifest []ManifestEntry

// TotalSize returns the sum of entry sizes
func (m Manifest) TotalSize() int64 {
	var total int64
	for _, entry := range m {
		total += entry.Size
	}
	return total
}

// ChunkPlan describes how one manifest entry is split
type ChunkPlan struct {
	Name        string
	Size        int64
	ChunkSize   int64
	TotalChunks int
}

// MaxTotalChunks bounds the number of chunks a single file may be split into
const MaxTotalChunks = 10000

// TotalChunks returns ceil(size/chunkSize)
func TotalChunks(size, chunkSize int64) int {
	return int(chunkCount(size, chunkSize))
}

func chunkCount(size, chunkSize int64) int64 {
	if size <= 0 || chunkSize <= 0 {
		return 0
	}
	count := size / chunkSize
	if size%chunkSize != 0 {
		count++
	}
	return count
}

// UploadReservation represents a time-boxed promise of quota against a room
type UploadReservation struct {
	ID             uuid.UUID
	RoomID         uuid.UUID
	CredentialID   string
	Manifest       Manifest
	ReservedSize   int64
	ReservedAt     time.Time
	ExpiresAt      time.Time
	ConsumedAt     *time.Time
	IsChunked      bool
	TotalChunks    int
	UploadedChunks int
	ChunkSize      int64
	MergeState     MergeState
	UpdatedAt      time.Time
}

// IsExpired reports whether the reservation is past its TTL and unconsumed
func (r *UploadReservation) IsExpired(now time.Time) bool {
	return r.ConsumedAt == nil && !now.Before(r.ExpiresAt)
}

// IsConsumed reports whether the reservation was finalized
func (r *UploadReservation) IsConsumed() bool {
	return r.ConsumedAt != nil
}

// Status derives the reservation status at now
func (r *UploadReservation) Status(now time.Time) ReservationStatus {
	switch {
	case r.ConsumedAt != nil:
		return ReservationStatusConsumed
	case r.MergeState == MergeStateFailed:
		return ReservationStatusFailed
	case r.IsExpired(now):
		return ReservationStatusExpired
	case r.UploadedChunks == 0:
		return ReservationStatusPending
	case r.TotalChunks > 0 && r.UploadedChunks >= r.TotalChunks:
		return ReservationStatusCompleted
	default:
		return ReservationStatusUploading
	}
}

// ProgressPercent returns uploaded/total*100, 0 when nothing is planned
func (r *UploadReservation) ProgressPercent() float64 {
	if r.TotalChunks <= 0 {
		return 0
	}
	progress := float64(r.UploadedChunks) / float64(r.TotalChunks) * 100
	if progress > 100 {
		return 100
	}
	return progress
}

// ExpectedChunkSize returns the exact size of the chunk at index
func (r *UploadReservation) ExpectedChunkSize(index int) int64 {
	if index < 0 || index >= r.TotalChunks {
		return 0
	}
	if index < r.TotalChunks-1 {
		return r.ChunkSize
	}
	return r.ReservedSize - r.ChunkSize*int64(r.TotalChunks-1)
}

// UploadStatus is the progress report of a reservation
type UploadStatus struct {
	ReservationID    uuid.UUID
	Status           ReservationStatus
	TotalChunks      int
	UploadedChunks   int
	ProgressPercent  float64
	ReservedSize     int64
	UploadedSize     int64
	IsExpired        bool
	RemainingSeconds int64
	ChunkDetails     []ChunkRecord
}

// Validate checks the manifest shape: at least one entry, unique non-empty names, positive sizes
func (m Manifest) Validate() error {
	if len(m) == 0 {
		return fmt.Errorf("%w: manifest is empty", ErrValidation)
	}

	seen := make(map[string]struct{}, len(m))
	for i, entry := range m {
		if entry.Name == "" {
			return fmt.Errorf("%w: entry %d has no name", ErrValidation, i)
		}
		if entry.Size <= 0 {
			return fmt.Errorf("%w: entry %q has a non-positive size", ErrValidation, entry.Name)
		}
		if entry.ChunkSize < 0 {
			return fmt.Errorf("%w: entry %q has a negative chunk size", ErrValidation, entry.Name)
		}
		if chunks := chunkCount(entry.Size, entry.ChunkSize); chunks > MaxTotalChunks {
			return fmt.Errorf("%w: entry %q would need %d chunks, at most %d allowed", ErrValidation, entry.Name, chunks, MaxTotalChunks)
		}
		if _, ok := seen[entry.Name]; ok {
			return fmt.Errorf("%w: duplicate name %q", ErrValidation, entry.Name)
		}
		seen[entry.Name] = struct{}{}
	}

	if m.TotalSize() <= 0 {
		return fmt.Errorf("%w: manifest total size must be positive", ErrValidation)
	}
	return nil
}

// IsChunked reports whether the manifest describes a single chunked file
func (m Manifest) IsChunked() bool {
	return len(m) == 1 && m[0].ChunkSize > 0
}

package upload

import (
	"context"
	"fmt"
	"roomdrop/internal/core/domain"
	"strings"

	"github.com/google/uuid"
)

// PrepareUpload reserves quota for a manifest and returns how each file must be sent
func (u *uploadService) PrepareUpload(ctx context.Context, roomID uuid.UUID, credential domain.Credential, manifest domain.Manifest) (*domain.PreparedUpload, error) {
	if err := authorize(roomID, credential); err != nil {
		return nil, err
	}

	if len(manifest) > u.cfg.MaxManifestEntries {
		return nil, fmt.Errorf("%w: at most %d files per upload", domain.ErrValidation, u.cfg.MaxManifestEntries)
	}

	normalized := make(domain.Manifest, len(manifest))
	for i, entry := range manifest {
		entry.Name = sanitizeName(entry.Name)
		entry.ContentHash = strings.ToLower(entry.ContentHash)
		if entry.Mime == "" {
			entry.Mime = "application/octet-stream"
		}

		if entry.ContentHash != "" && !isSHA256Hex(entry.ContentHash) {
			return nil, fmt.Errorf("%w: %q has a malformed content hash", domain.ErrValidation, entry.Name)
		}
		if entry.ChunkSize > 0 {
			if len(manifest) > 1 {
				return nil, fmt.Errorf("%w: a chunked upload carries a single file", domain.ErrValidation)
			}
			if entry.ChunkSize > u.cfg.MaxChunkSize {
				return nil, fmt.Errorf("%w: chunk size above %d bytes", domain.ErrValidation, u.cfg.MaxChunkSize)
			}
		}
		normalized[i] = entry
	}

	if err := normalized.Validate(); err != nil {
		return nil, err
	}

	reservation, room, err := u.reservations.Reserve(ctx, roomID, credential.ID, normalized, u.cfg.ReservationTTL)
	if err != nil {
		return nil, err
	}

	plans := make([]domain.ChunkPlan, 0, len(normalized))
	for _, entry := range normalized {
		plan := domain.ChunkPlan{Name: entry.Name, Size: entry.Size, ChunkSize: entry.Size, TotalChunks: 1}
		if entry.ChunkSize > 0 {
			plan.ChunkSize = entry.ChunkSize
			plan.TotalChunks = domain.TotalChunks(entry.Size, entry.ChunkSize)
		}
		plans = append(plans, plan)
	}

	u.logger.Info("upload prepared",
		"room_id", roomID,
		"reservation_id", reservation.ID,
		"reserved_size", reservation.ReservedSize,
		"chunked", reservation.IsChunked)

	return &domain.PreparedUpload{
		ReservationID: reservation.ID,
		ReservedSize:  reservation.ReservedSize,
		ExpiresAt:     reservation.ExpiresAt,
		IsChunked:     reservation.IsChunked,
		Plans:         plans,
		Room:          *room,
	}, nil
}

package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"roomdrop/internal/core/domain"
	"roomdrop/internal/core/port"
	"strings"
	"time"

	"github.com/google/uuid"
)

// placedFile is a blob written to its final key, awaiting its content record
type placedFile struct {
	record    domain.ContentRecord
	entry     domain.ManifestEntry
	requested string
}

// UploadFiles stores the whole files of a non-chunked reservation and consumes it.
// Files missing from the request are refunded on consume.
func (u *uploadService) UploadFiles(ctx context.Context, roomID uuid.UUID, credential domain.Credential, reservationID uuid.UUID, files []domain.FilePayload) ([]domain.MergedFile, error) {
	if err := authorize(roomID, credential); err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no files", domain.ErrValidation)
	}

	reservation, err := u.loadOwned(ctx, reservationID, roomID, credential.ID)
	if err != nil {
		return nil, err
	}
	if reservation.IsChunked {
		return nil, fmt.Errorf("%w: reservation expects chunks", domain.ErrInvalidState)
	}
	if reservation.IsConsumed() {
		return nil, domain.ErrAlreadyConsumed
	}
	if reservation.IsExpired(time.Now()) {
		return nil, u.expire(ctx, reservation.ID)
	}

	entries := make(map[string]domain.ManifestEntry, len(reservation.Manifest))
	for _, entry := range reservation.Manifest {
		entries[entry.Name] = entry
	}

	placed := make([]placedFile, 0, len(files))
	taken := make(map[string]struct{}, len(files))
	seen := make(map[string]struct{}, len(files))

	for _, file := range files {
		name := sanitizeName(file.Name)
		entry, ok := entries[name]
		if !ok {
			u.discard(ctx, placed)
			return nil, fmt.Errorf("%w: %q is not part of the reservation", domain.ErrValidation, name)
		}
		if _, dup := seen[name]; dup {
			u.discard(ctx, placed)
			return nil, fmt.Errorf("%w: %q sent twice", domain.ErrValidation, name)
		}
		seen[name] = struct{}{}

		p, err := u.placeFile(ctx, roomID, reservation.ID, entry, file.Body, taken)
		if err != nil {
			u.discard(ctx, placed)
			return nil, err
		}
		placed = append(placed, *p)
		taken[p.record.FileName] = struct{}{}
	}

	var actualSize int64
	for _, p := range placed {
		actualSize += p.record.SizeBytes
	}

	txErr := u.commitWithFreshNames(ctx, roomID, placed, func(placed []placedFile) error {
		return u.uow.Execute(ctx, func(uow port.UnitOfWork) error {
			actual := make(domain.Manifest, 0, len(placed))
			for _, p := range placed {
				if err := uow.ContentRepo().Create(ctx, p.record); err != nil {
					return err
				}
				actual = append(actual, p.entry)
			}

			_, err := u.reservations.ConsumeIn(ctx, uow, domain.ConsumeRequest{
				ReservationID:  reservation.ID,
				RoomID:         roomID,
				CredentialID:   credential.ID,
				ActualSize:     actualSize,
				ActualManifest: actual,
			})
			return err
		})
	})
	if txErr != nil {
		u.discard(ctx, placed)
		if errors.Is(txErr, domain.ErrExpired) {
			return nil, u.expire(ctx, reservation.ID)
		}
		return nil, txErr
	}

	merged := make([]domain.MergedFile, 0, len(placed))
	for _, p := range placed {
		merged = append(merged, domain.MergedFile{
			Name:      p.record.FileName,
			Size:      p.record.SizeBytes,
			Hash:      p.record.Checksum,
			ContentID: p.record.ID,
		})
	}

	u.logger.Info("files stored",
		"room_id", roomID,
		"reservation_id", reservation.ID,
		"files", len(merged),
		"size", actualSize)

	return merged, nil
}

// placeFile streams one file to its final key while hashing it, then checks size and hash
func (u *uploadService) placeFile(ctx context.Context, roomID, reservationID uuid.UUID, entry domain.ManifestEntry, body io.Reader, taken map[string]struct{}) (*placedFile, error) {
	if body == nil {
		return nil, fmt.Errorf("%w: %q has no body", domain.ErrValidation, entry.Name)
	}

	name, err := u.resolveName(ctx, roomID, entry.Name, taken)
	if err != nil {
		return nil, err
	}

	contentID := uuid.New()
	key := domain.ContentKey(roomID, contentID)
	reader := newHashingReader(io.LimitReader(body, entry.Size+1))

	if err := u.storage.Put(ctx, key, reader, -1); err != nil {
		return nil, fmt.Errorf("%w: could not store %q: %v", domain.ErrInternal, name, err)
	}

	if reader.n != entry.Size {
		u.deleteBlob(ctx, key)
		return nil, fmt.Errorf("%w: %q carried %d bytes, declared %d", domain.ErrValidation, entry.Name, reader.n, entry.Size)
	}

	digest := reader.Sum()
	if entry.ContentHash != "" && !strings.EqualFold(entry.ContentHash, digest) {
		u.deleteBlob(ctx, key)
		integrityFailuresTotal.WithLabelValues(stageFile).Inc()
		return nil, fmt.Errorf("%w: %q hash mismatch", domain.ErrIntegrity, entry.Name)
	}

	now := time.Now()
	requested := entry.Name
	entry.Name = name
	entry.ContentHash = digest
	return &placedFile{
		record: domain.ContentRecord{
			ID:            contentID,
			RoomID:        roomID,
			ReservationID: reservationID,
			Type:          domain.ContentTypeFile,
			StorageKey:    key,
			FileName:      name,
			SizeBytes:     entry.Size,
			MimeType:      entry.Mime,
			Checksum:      digest,
			CreatedAt:     now,
			UpdatedAt:     now,
		},
		entry:     entry,
		requested: requested,
	}, nil
}

// discard removes blobs that never got their content record
func (u *uploadService) discard(ctx context.Context, placed []placedFile) {
	for _, p := range placed {
		u.deleteBlob(ctx, p.record.StorageKey)
	}
}

func (u *uploadService) deleteBlob(ctx context.Context, key string) {
	if err := u.storage.Delete(ctx, key); err != nil {
		u.logger.Error("failed to delete orphaned blob", "key", key, "error", err)
	}
}

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

// CompleteMerge concatenates the chunks of a reservation, verifies the whole-file hash
// and stores the result as room content.
func (u *uploadService) CompleteMerge(ctx context.Context, roomID uuid.UUID, credential domain.Credential, reservationID uuid.UUID, finalHash string) ([]domain.MergedFile, error) {
	reservation, err := u.uow.ReservationRepo().FindByID(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if reservation.RoomID != roomID {
		return nil, domain.ErrReservationNotFound
	}
	if err := authorize(roomID, credential); err != nil {
		return nil, err
	}
	if reservation.CredentialID != credential.ID {
		return nil, domain.ErrTokenMismatch
	}
	if !reservation.IsChunked {
		return nil, fmt.Errorf("%w: reservation holds whole files", domain.ErrInvalidState)
	}
	if reservation.IsExpired(time.Now()) {
		return nil, u.expire(ctx, reservation.ID)
	}
	if reservation.IsConsumed() {
		return nil, domain.ErrAlreadyConsumed
	}
	switch reservation.MergeState {
	case domain.MergeStateFailed:
		return nil, fmt.Errorf("%w: a previous merge failed", domain.ErrConflict)
	case domain.MergeStateMerging:
		return nil, domain.ErrMergeInProgress
	}

	chunks, err := u.uow.ChunkRepo().ListByReservation(ctx, reservation.ID)
	if err != nil {
		return nil, err
	}
	if err := checkComplete(reservation, chunks); err != nil {
		return nil, err
	}

	entry := reservation.Manifest[0]
	if finalHash == "" {
		finalHash = entry.ContentHash
	}
	finalHash = strings.ToLower(finalHash)
	if !isSHA256Hex(finalHash) {
		return nil, fmt.Errorf("%w: a sha256 hex final hash is required", domain.ErrValidation)
	}

	if err := u.uow.ReservationRepo().TryBeginMerge(ctx, reservation.ID); err != nil {
		return nil, err
	}

	merged, err := u.merge(ctx, reservation, entry, finalHash)
	if err != nil {
		if !errors.Is(err, domain.ErrIntegrity) && !errors.Is(err, domain.ErrExpired) {
			u.resetMergeState(ctx, reservation.ID)
		}
		return nil, err
	}

	if err := u.storage.DeletePrefix(ctx, domain.ChunkPrefix(reservation.ID)); err != nil {
		u.logger.Warn("failed to purge merged chunks",
			"reservation_id", reservation.ID,
			"error", err)
	}

	u.logger.Info("chunks merged",
		"room_id", roomID,
		"reservation_id", reservation.ID,
		"content_id", merged.ContentID,
		"size", merged.Size)

	return []domain.MergedFile{*merged}, nil
}

// checkComplete requires exactly one mergeable record per index 0..total-1
func checkComplete(reservation *domain.UploadReservation, chunks []domain.ChunkRecord) error {
	if len(chunks) != reservation.TotalChunks {
		return fmt.Errorf("%w: %d of %d chunks received", domain.ErrIncomplete, len(chunks), reservation.TotalChunks)
	}
	for i, chunk := range chunks {
		if chunk.ChunkIndex != i {
			return fmt.Errorf("%w: chunk %d missing", domain.ErrIncomplete, i)
		}
		if !chunk.Status.IsMergeable() {
			return fmt.Errorf("%w: chunk %d is %s", domain.ErrIncomplete, i, chunk.Status)
		}
	}
	return nil
}

func (u *uploadService) merge(ctx context.Context, reservation *domain.UploadReservation, entry domain.ManifestEntry, finalHash string) (*domain.MergedFile, error) {
	// first pass: verify before anything reaches the room
	first := newChunkReader(ctx, u.storage, reservation.ID, reservation.TotalChunks)
	defer first.Close()
	verify := newHashingReader(first)
	if _, err := io.Copy(io.Discard, verify); err != nil {
		return nil, fmt.Errorf("%w: could not read chunks: %v", domain.ErrInternal, err)
	}
	if verify.Sum() != finalHash {
		u.failMerge(ctx, reservation.ID)
		return nil, fmt.Errorf("%w: merged file hash mismatch", domain.ErrIntegrity)
	}
	if verify.n != reservation.ReservedSize {
		u.failMerge(ctx, reservation.ID)
		return nil, fmt.Errorf("%w: merged %d bytes, reserved %d", domain.ErrIntegrity, verify.n, reservation.ReservedSize)
	}

	name, err := u.resolveName(ctx, reservation.RoomID, entry.Name, nil)
	if err != nil {
		return nil, err
	}

	contentID := uuid.New()
	key := domain.ContentKey(reservation.RoomID, contentID)
	second := newChunkReader(ctx, u.storage, reservation.ID, reservation.TotalChunks)
	defer second.Close()
	body := newHashingReader(second)
	if err := u.storage.Put(ctx, key, body, verify.n); err != nil {
		return nil, fmt.Errorf("%w: could not store merged file: %v", domain.ErrInternal, err)
	}
	if body.Sum() != finalHash {
		u.deleteBlob(ctx, key)
		return nil, fmt.Errorf("%w: chunks changed during merge", domain.ErrInternal)
	}

	now := time.Now()
	record := domain.ContentRecord{
		ID:            contentID,
		RoomID:        reservation.RoomID,
		ReservationID: reservation.ID,
		Type:          domain.ContentTypeFile,
		StorageKey:    key,
		FileName:      name,
		SizeBytes:     body.n,
		MimeType:      entry.Mime,
		Checksum:      finalHash,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	actual := entry
	actual.Name = name
	actual.ContentHash = finalHash

	placed := []placedFile{{record: record, entry: actual, requested: entry.Name}}
	txErr := u.commitWithFreshNames(ctx, reservation.RoomID, placed, func(placed []placedFile) error {
		return u.uow.Execute(ctx, func(uow port.UnitOfWork) error {
			if err := uow.ContentRepo().Create(ctx, placed[0].record); err != nil {
				return err
			}

			if _, err := u.reservations.ConsumeIn(ctx, uow, domain.ConsumeRequest{
				ReservationID:  reservation.ID,
				RoomID:         reservation.RoomID,
				CredentialID:   reservation.CredentialID,
				ActualSize:     placed[0].record.SizeBytes,
				ActualManifest: domain.Manifest{placed[0].entry},
			}); err != nil {
				return err
			}

			return uow.ChunkRepo().DeleteByReservation(ctx, reservation.ID)
		})
	})
	if txErr != nil {
		u.deleteBlob(ctx, key)
		if errors.Is(txErr, domain.ErrExpired) {
			return nil, u.expire(ctx, reservation.ID)
		}
		return nil, txErr
	}

	return &domain.MergedFile{
		Name:      placed[0].record.FileName,
		Size:      record.SizeBytes,
		Hash:      finalHash,
		ContentID: contentID,
	}, nil
}

// failMerge marks the reservation failed and drops its chunks; the debit stays until the TTL release
func (u *uploadService) failMerge(ctx context.Context, reservationID uuid.UUID) {
	integrityFailuresTotal.WithLabelValues(stageMerge).Inc()

	if err := u.uow.ReservationRepo().SetMergeState(ctx, reservationID, domain.MergeStateFailed); err != nil {
		u.logger.Error("failed to mark merge as failed", "reservation_id", reservationID, "error", err)
	}
	if err := u.storage.DeletePrefix(ctx, domain.ChunkPrefix(reservationID)); err != nil {
		u.logger.Warn("failed to discard chunks", "reservation_id", reservationID, "error", err)
	}
}

func (u *uploadService) resetMergeState(ctx context.Context, reservationID uuid.UUID) {
	if err := u.uow.ReservationRepo().SetMergeState(ctx, reservationID, domain.MergeStateIdle); err != nil {
		u.logger.Error("failed to release merge guard", "reservation_id", reservationID, "error", err)
	}
}

// chunkReader reads the chunks of a reservation in index order, opening one at a time
type chunkReader struct {
	ctx           context.Context
	storage       port.Storage
	reservationID uuid.UUID
	total         int
	next          int
	current       io.ReadCloser
}

func newChunkReader(ctx context.Context, storage port.Storage, reservationID uuid.UUID, total int) *chunkReader {
	return &chunkReader{ctx: ctx, storage: storage, reservationID: reservationID, total: total}
}

func (c *chunkReader) Read(p []byte) (int, error) {
	for {
		if c.current == nil {
			if c.next >= c.total {
				return 0, io.EOF
			}
			rc, err := c.storage.Get(c.ctx, domain.ChunkKey(c.reservationID, c.next))
			if err != nil {
				return 0, fmt.Errorf("chunk %d: %w", c.next, err)
			}
			c.current = rc
			c.next++
		}

		n, err := c.current.Read(p)
		if errors.Is(err, io.EOF) {
			c.current.Close()
			c.current = nil
			if n > 0 {
				return n, nil
			}
			continue
		}
		return n, err
	}
}

func (c *chunkReader) Close() error {
	if c.current == nil {
		return nil
	}
	err := c.current.Close()
	c.current = nil
	return err
}

package upload

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"roomdrop/internal/core/domain"
	"roomdrop/internal/core/port"
	"strings"
	"time"
)

// UploadChunk stores one chunk of a chunked reservation, at most once per index
func (u *uploadService) UploadChunk(ctx context.Context, upload domain.ChunkUpload) (*domain.ChunkRecord, error) {
	if upload.Body == nil {
		return nil, fmt.Errorf("%w: empty chunk body", domain.ErrValidation)
	}

	reservation, err := u.loadOwned(ctx, upload.ReservationID, upload.RoomID, upload.CredentialID)
	if err != nil {
		return nil, err
	}
	if !reservation.IsChunked {
		return nil, fmt.Errorf("%w: reservation takes whole files", domain.ErrInvalidState)
	}
	if reservation.IsConsumed() {
		return nil, domain.ErrAlreadyConsumed
	}
	if reservation.IsExpired(time.Now()) {
		return nil, u.expire(ctx, reservation.ID)
	}
	if reservation.MergeState != domain.MergeStateIdle {
		return nil, fmt.Errorf("%w: reservation is %s", domain.ErrConflict, reservation.MergeState)
	}
	if upload.Index < 0 || upload.Index >= reservation.TotalChunks {
		return nil, fmt.Errorf("%w: chunk index %d out of range [0,%d)", domain.ErrValidation, upload.Index, reservation.TotalChunks)
	}

	expected := reservation.ExpectedChunkSize(upload.Index)
	if upload.Size != expected {
		return nil, fmt.Errorf("%w: chunk %d declared %d bytes, expected %d", domain.ErrValidation, upload.Index, upload.Size, expected)
	}

	// one byte past the expected size is enough to detect an oversized body
	body := newHashingReader(io.LimitReader(upload.Body, expected+1))
	var buf bytes.Buffer
	buf.Grow(int(expected))
	if _, err := io.Copy(&buf, body); err != nil {
		return nil, fmt.Errorf("could not read chunk %d: %w", upload.Index, err)
	}
	if body.n != expected {
		return nil, fmt.Errorf("%w: chunk %d carried %d bytes, expected %d", domain.ErrValidation, upload.Index, body.n, expected)
	}

	digest := body.Sum()
	status := domain.ChunkStatusUploaded
	if upload.Hash != "" {
		if !strings.EqualFold(upload.Hash, digest) {
			integrityFailuresTotal.WithLabelValues(stageChunk).Inc()
			return nil, fmt.Errorf("%w: chunk %d hash mismatch", domain.ErrIntegrity, upload.Index)
		}
		status = domain.ChunkStatusVerified
	}

	now := time.Now()
	record := domain.ChunkRecord{
		ReservationID: reservation.ID,
		ChunkIndex:    upload.Index,
		ChunkSize:     expected,
		ChunkHash:     digest,
		Status:        status,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	var uploaded int
	txErr := u.uow.Execute(ctx, func(uow port.UnitOfWork) error {
		// the record is inserted first so a duplicate index never overwrites stored bytes
		if err := uow.ChunkRepo().Create(ctx, record); err != nil {
			return err
		}

		if err := u.storage.Put(ctx, domain.ChunkKey(reservation.ID, upload.Index), bytes.NewReader(buf.Bytes()), expected); err != nil {
			return fmt.Errorf("%w: could not store chunk: %v", domain.ErrInternal, err)
		}

		uploaded, err = uow.ReservationRepo().IncrementUploadedChunks(ctx, reservation.ID)
		return err
	})
	if txErr != nil {
		return nil, txErr
	}

	u.logger.Debug("chunk stored",
		"reservation_id", reservation.ID,
		"index", upload.Index,
		"uploaded", uploaded,
		"total", reservation.TotalChunks)

	return &record, nil
}

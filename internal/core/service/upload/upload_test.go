package upload_test

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"log/slog"
	"time"

	"roomdrop/internal/adapters/repository"
	"roomdrop/internal/adapters/storage"
	"roomdrop/internal/config"
	"roomdrop/internal/core/domain"
	"roomdrop/internal/core/port"
	"roomdrop/internal/core/service/reservation"
	"roomdrop/internal/core/service/upload"

	"github.com/google/uuid"
)

var (
	discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))
	defaultCfg    = config.UploadConfig{
		ReservationTTL:     30 * time.Minute,
		MaxChunkSize:       1 << 20,
		MaxManifestEntries: 10,
	}
)

type fixture struct {
	uow          *repository.MockUnitOfWork
	reservations *reservation.MockReservationService
	storage      *storage.MockStorage
	links        *storage.MockLinkGenerator
	service      port.UploadService
}

func newFixture() *fixture {
	f := &fixture{
		uow:          repository.NewMockUnitOfWork(),
		reservations: reservation.NewMockReservationService(),
		storage:      storage.NewMockStorage(),
		links:        storage.NewMockLinkGenerator(),
	}
	f.service = upload.NewUploadService(f.uow, f.reservations, f.storage, f.links, defaultCfg, discardLogger)
	return f
}

func sha(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func editor(roomID uuid.UUID) domain.Credential {
	return domain.Credential{
		ID:         "jti-1",
		RoomID:     roomID,
		Permission: domain.PermissionView | domain.PermissionEdit,
		ExpiresAt:  time.Now().Add(time.Hour),
	}
}

func readCloser(data []byte) io.ReadCloser {
	return io.NopCloser(bytes.NewReader(data))
}

func chunkedReservation(roomID uuid.UUID, size, chunkSize int64) *domain.UploadReservation {
	return &domain.UploadReservation{
		ID:           uuid.New(),
		RoomID:       roomID,
		CredentialID: "jti-1",
		Manifest:     domain.Manifest{{Name: "big.bin", Size: size, Mime: "application/octet-stream", ChunkSize: chunkSize}},
		ReservedSize: size,
		ExpiresAt:    time.Now().Add(time.Hour),
		IsChunked:    true,
		ChunkSize:    chunkSize,
		TotalChunks:  domain.TotalChunks(size, chunkSize),
		MergeState:   domain.MergeStateIdle,
	}
}

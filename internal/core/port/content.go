package port

import (
	"context"
	"roomdrop/internal/core/domain"
	"time"

	"github.com/google/uuid"
)

// ContentRepository is an interface to interact with stored content records
type ContentRepository interface {
	Create(ctx context.Context, content domain.ContentRecord) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.ContentRecord, error)
	ExistsByName(ctx context.Context, roomID uuid.UUID, name string) (bool, error)
	ListByRoom(ctx context.Context, roomID uuid.UUID) ([]domain.ContentRecord, error)
	DeleteByRoom(ctx context.Context, roomID uuid.UUID) (int64, error)
}

// UploadService is an interface to define the upload engine
type UploadService interface {
	PrepareUpload(ctx context.Context, roomID uuid.UUID, credential domain.Credential, manifest domain.Manifest) (*domain.PreparedUpload, error)
	UploadChunk(ctx context.Context, upload domain.ChunkUpload) (*domain.ChunkRecord, error)
	UploadFiles(ctx context.Context, roomID uuid.UUID, credential domain.Credential, reservationID uuid.UUID, files []domain.FilePayload) ([]domain.MergedFile, error)
	GetUploadStatus(ctx context.Context, roomID uuid.UUID, reservationID uuid.UUID) (*domain.UploadStatus, error)
	GetUploadStatusByCredential(ctx context.Context, roomID uuid.UUID, credentialID string) (*domain.UploadStatus, error)
	CompleteMerge(ctx context.Context, roomID uuid.UUID, credential domain.Credential, reservationID uuid.UUID, finalHash string) ([]domain.MergedFile, error)
	GetContent(ctx context.Context, roomID uuid.UUID, contentID uuid.UUID) (*domain.ContentRecord, string, *time.Time, error)
}

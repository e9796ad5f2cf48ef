package upload

import (
	"context"
	"roomdrop/internal/core/domain"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockUploadService is a mock implementation of UploadService
type MockUploadService struct {
	mock.Mock
}

// NewMockUploadService creates a new MockUploadService
func NewMockUploadService() *MockUploadService {
	return &MockUploadService{}
}

func (m *MockUploadService) PrepareUpload(ctx context.Context, roomID uuid.UUID, credential domain.Credential, manifest domain.Manifest) (*domain.PreparedUpload, error) {
	args := m.Called(ctx, roomID, credential, manifest)
	prepared, _ := args.Get(0).(*domain.PreparedUpload)
	return prepared, args.Error(1)
}

func (m *MockUploadService) UploadChunk(ctx context.Context, upload domain.ChunkUpload) (*domain.ChunkRecord, error) {
	args := m.Called(ctx, upload)
	record, _ := args.Get(0).(*domain.ChunkRecord)
	return record, args.Error(1)
}

func (m *MockUploadService) UploadFiles(ctx context.Context, roomID uuid.UUID, credential domain.Credential, reservationID uuid.UUID, files []domain.FilePayload) ([]domain.MergedFile, error) {
	args := m.Called(ctx, roomID, credential, reservationID, files)
	merged, _ := args.Get(0).([]domain.MergedFile)
	return merged, args.Error(1)
}

func (m *MockUploadService) GetUploadStatus(ctx context.Context, roomID uuid.UUID, reservationID uuid.UUID) (*domain.UploadStatus, error) {
	args := m.Called(ctx, roomID, reservationID)
	status, _ := args.Get(0).(*domain.UploadStatus)
	return status, args.Error(1)
}

func (m *MockUploadService) GetUploadStatusByCredential(ctx context.Context, roomID uuid.UUID, credentialID string) (*domain.UploadStatus, error) {
	args := m.Called(ctx, roomID, credentialID)
	status, _ := args.Get(0).(*domain.UploadStatus)
	return status, args.Error(1)
}

func (m *MockUploadService) CompleteMerge(ctx context.Context, roomID uuid.UUID, credential domain.Credential, reservationID uuid.UUID, finalHash string) ([]domain.MergedFile, error) {
	args := m.Called(ctx, roomID, credential, reservationID, finalHash)
	merged, _ := args.Get(0).([]domain.MergedFile)
	return merged, args.Error(1)
}

func (m *MockUploadService) GetContent(ctx context.Context, roomID uuid.UUID, contentID uuid.UUID) (*domain.ContentRecord, string, *time.Time, error) {
	args := m.Called(ctx, roomID, contentID)
	content, _ := args.Get(0).(*domain.ContentRecord)
	expiresAt, _ := args.Get(2).(*time.Time)
	return content, args.String(1), expiresAt, args.Error(3)
}

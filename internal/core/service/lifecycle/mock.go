package lifecycle

import (
	"context"
	"roomdrop/internal/core/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockLifecycleService is a mock implementation of LifecycleService
type MockLifecycleService struct {
	mock.Mock
}

// NewMockLifecycleService creates a new MockLifecycleService
func NewMockLifecycleService() *MockLifecycleService {
	return &MockLifecycleService{}
}

func (m *MockLifecycleService) CreateRoom(ctx context.Context, room domain.NewRoom) (*domain.Room, error) {
	args := m.Called(ctx, room)
	created, _ := args.Get(0).(*domain.Room)
	return created, args.Error(1)
}

func (m *MockLifecycleService) RecordEntry(ctx context.Context, roomID uuid.UUID) (*domain.Room, error) {
	args := m.Called(ctx, roomID)
	room, _ := args.Get(0).(*domain.Room)
	return room, args.Error(1)
}

func (m *MockLifecycleService) RegisterCredential(ctx context.Context, credential domain.CredentialRecord) error {
	args := m.Called(ctx, credential)
	return args.Error(0)
}

func (m *MockLifecycleService) RevokeCredential(ctx context.Context, jti string) error {
	args := m.Called(ctx, jti)
	return args.Error(0)
}

func (m *MockLifecycleService) OnRoomBecameEmpty(ctx context.Context, roomID uuid.UUID) error {
	args := m.Called(ctx, roomID)
	return args.Error(0)
}

func (m *MockLifecycleService) OnRoomBecameActive(ctx context.Context, roomID uuid.UUID) error {
	args := m.Called(ctx, roomID)
	return args.Error(0)
}

func (m *MockLifecycleService) RunScheduledGc(ctx context.Context, limit int) (int, error) {
	args := m.Called(ctx, limit)
	return args.Int(0), args.Error(1)
}

func (m *MockLifecycleService) ListFullUnboundedRooms(ctx context.Context, limit int) ([]domain.FullRoomInfo, error) {
	args := m.Called(ctx, limit)
	rooms, _ := args.Get(0).([]domain.FullRoomInfo)
	return rooms, args.Error(1)
}

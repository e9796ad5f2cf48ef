package reservation

import (
	"context"
	"roomdrop/internal/core/domain"
	"roomdrop/internal/core/port"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockReservationService is a mock implementation of ReservationService
type MockReservationService struct {
	mock.Mock
}

// NewMockReservationService creates a new MockReservationService
func NewMockReservationService() *MockReservationService {
	return &MockReservationService{}
}

func (m *MockReservationService) Reserve(ctx context.Context, roomID uuid.UUID, credentialID string, manifest domain.Manifest, ttl time.Duration) (*domain.UploadReservation, *domain.Room, error) {
	args := m.Called(ctx, roomID, credentialID, manifest, ttl)
	reservation, _ := args.Get(0).(*domain.UploadReservation)
	room, _ := args.Get(1).(*domain.Room)
	return reservation, room, args.Error(2)
}

func (m *MockReservationService) Consume(ctx context.Context, req domain.ConsumeRequest) (*domain.Room, error) {
	args := m.Called(ctx, req)
	room, _ := args.Get(0).(*domain.Room)
	return room, args.Error(1)
}

func (m *MockReservationService) ConsumeIn(ctx context.Context, uow port.UnitOfWork, req domain.ConsumeRequest) (*domain.Room, error) {
	args := m.Called(ctx, uow, req)
	room, _ := args.Get(0).(*domain.Room)
	return room, args.Error(1)
}

func (m *MockReservationService) ReleaseIfPending(ctx context.Context, reservationID uuid.UUID) (bool, error) {
	args := m.Called(ctx, reservationID)
	return args.Bool(0), args.Error(1)
}

package cleanup_test

import (
	"context"
	"errors"
	"log/slog"
	"roomdrop/internal/adapters/repository"
	"roomdrop/internal/core/domain"
	"roomdrop/internal/core/service/cleanup"
	"roomdrop/internal/core/service/reservation"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestCleanupService_CleanupExpiredReservations_NoneExpired(t *testing.T) {
	// Arrange
	ctx := context.Background()
	mockUow := repository.NewMockUnitOfWork()
	mockReservations := reservation.NewMockReservationService()
	service := cleanup.NewCleanupService(mockUow, mockReservations, 100, slog.Default())

	now := time.Now()
	mockReservationRepo := mockUow.GetReservationRepoMock()
	mockReservationRepo.On("FindExpired", ctx, now, 100).Return([]domain.UploadReservation{}, nil)

	// Act
	released, err := service.CleanupExpiredReservations(ctx, now)

	// Assert
	assert.NoError(t, err)
	assert.Zero(t, released)
	mockReservationRepo.AssertExpectations(t)
	mockReservations.AssertNotCalled(t, "ReleaseIfPending")
}

func TestCleanupService_CleanupExpiredReservations_Success(t *testing.T) {
	// Arrange
	ctx := context.Background()
	mockUow := repository.NewMockUnitOfWork()
	mockReservations := reservation.NewMockReservationService()
	service := cleanup.NewCleanupService(mockUow, mockReservations, 100, slog.Default())

	now := time.Now()
	first := domain.UploadReservation{ID: uuid.New()}
	second := domain.UploadReservation{ID: uuid.New()}

	mockReservationRepo := mockUow.GetReservationRepoMock()
	mockReservationRepo.On("FindExpired", ctx, now, 100).Return([]domain.UploadReservation{first, second}, nil)
	mockReservations.On("ReleaseIfPending", ctx, first.ID).Return(true, nil)
	// consumed or released by its timer in the meantime
	mockReservations.On("ReleaseIfPending", ctx, second.ID).Return(false, nil)

	// Act
	released, err := service.CleanupExpiredReservations(ctx, now)

	// Assert
	assert.NoError(t, err)
	assert.Equal(t, 1, released)
	mockReservations.AssertExpectations(t)
}

func TestCleanupService_CleanupExpiredReservations_FindExpiredError(t *testing.T) {
	// Arrange
	ctx := context.Background()
	mockUow := repository.NewMockUnitOfWork()
	mockReservations := reservation.NewMockReservationService()
	service := cleanup.NewCleanupService(mockUow, mockReservations, 100, slog.Default())

	now := time.Now()
	expectedError := errors.New("database error")
	mockUow.GetReservationRepoMock().On("FindExpired", ctx, now, 100).Return([]domain.UploadReservation{}, expectedError)

	// Act
	_, err := service.CleanupExpiredReservations(ctx, now)

	// Assert
	assert.Error(t, err)
	assert.Equal(t, expectedError, err)
}

func TestCleanupService_CleanupExpiredReservations_PartialFailure(t *testing.T) {
	// Arrange
	ctx := context.Background()
	mockUow := repository.NewMockUnitOfWork()
	mockReservations := reservation.NewMockReservationService()
	service := cleanup.NewCleanupService(mockUow, mockReservations, 100, slog.Default())

	now := time.Now()
	failing := domain.UploadReservation{ID: uuid.New()}
	healthy := domain.UploadReservation{ID: uuid.New()}

	mockUow.GetReservationRepoMock().On("FindExpired", ctx, now, 100).Return([]domain.UploadReservation{failing, healthy}, nil)
	mockReservations.On("ReleaseIfPending", ctx, failing.ID).Return(false, errors.New("transaction error"))
	mockReservations.On("ReleaseIfPending", ctx, healthy.ID).Return(true, nil)

	// Act
	released, err := service.CleanupExpiredReservations(ctx, now)

	// Assert
	assert.NoError(t, err)
	assert.Equal(t, 1, released)
	mockReservations.AssertExpectations(t)
}

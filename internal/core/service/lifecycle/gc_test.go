package lifecycle_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"roomdrop/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestLifecycleService_RunScheduledGc(t *testing.T) {
	t.Run("reclaims an idle room and its files", func(t *testing.T) {
		// Arrange
		ctx := context.Background()
		f := newFixture()
		room := fullRoom(ptr(time.Now().Add(-time.Minute)))
		contents := []domain.ContentRecord{
			{ID: room.ID, RoomID: room.ID, StorageKey: "rooms/a"},
			{ID: room.ID, RoomID: room.ID, StorageKey: "rooms/b"},
		}
		pending := domain.UploadReservation{ID: room.ID, RoomID: room.ID, IsChunked: true}

		f.uow.GetRoomRepoMock().On("FindCleanupCandidates", ctx, mock.Anything, 5).Return([]domain.Room{room}, nil)
		f.registry.On("CountLiveConnections", ctx, room.Slug).Return(0, nil)
		f.uow.On("Execute", ctx, mock.Anything).Return(nil)
		f.uow.GetRoomRepoMock().On("FindByIDForUpdate", ctx, room.ID).Return(&room, nil)
		f.uow.GetContentRepoMock().On("ListByRoom", ctx, room.ID).Return(contents, nil)
		f.uow.GetReservationRepoMock().On("ListByRoom", ctx, room.ID).Return([]domain.UploadReservation{pending}, nil)
		f.uow.GetContentRepoMock().On("DeleteByRoom", ctx, room.ID).Return(int64(2), nil)
		f.uow.GetCredentialRepoMock().On("DeleteByRoom", ctx, room.ID).Return(nil)
		f.uow.GetRoomRepoMock().On("Delete", ctx, room.ID).Return(nil)
		f.storage.On("Delete", ctx, "rooms/a").Return(errors.New("io error"))
		f.storage.On("Delete", ctx, "rooms/b").Return(nil)
		f.storage.On("DeletePrefix", ctx, domain.ChunkPrefix(pending.ID)).Return(nil)
		f.storage.On("DeletePrefix", ctx, domain.RoomPrefix(room.ID)).Return(nil)

		// Act
		reclaimed, err := f.service.RunScheduledGc(ctx, 5)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, 1, reclaimed)
		f.registry.AssertNumberOfCalls(t, "CountLiveConnections", 2)
		f.storage.AssertExpectations(t)
		f.uow.GetRoomRepoMock().AssertExpectations(t)
		f.uow.GetCredentialRepoMock().AssertExpectations(t)
	})

	t.Run("live viewer wins over cleanup", func(t *testing.T) {
		// Arrange
		ctx := context.Background()
		f := newFixture()
		room := fullRoom(ptr(time.Now().Add(-time.Minute)))

		f.uow.GetRoomRepoMock().On("FindCleanupCandidates", ctx, mock.Anything, 5).Return([]domain.Room{room}, nil)
		f.registry.On("CountLiveConnections", ctx, room.Slug).Return(1, nil)
		f.uow.GetRoomRepoMock().On("ClearCleanupMarkers", ctx, room.ID).Return(nil)

		// Act
		reclaimed, err := f.service.RunScheduledGc(ctx, 5)

		// Assert
		require.NoError(t, err)
		assert.Zero(t, reclaimed)
		f.uow.GetRoomRepoMock().AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
		f.storage.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("viewer arriving during the sweep aborts the delete", func(t *testing.T) {
		ctx := context.Background()
		f := newFixture()
		room := fullRoom(ptr(time.Now().Add(-time.Minute)))

		f.uow.GetRoomRepoMock().On("FindCleanupCandidates", ctx, mock.Anything, 5).Return([]domain.Room{room}, nil)
		f.registry.On("CountLiveConnections", ctx, room.Slug).Return(0, nil).Once()
		f.registry.On("CountLiveConnections", ctx, room.Slug).Return(1, nil).Once()
		f.uow.On("Execute", ctx, mock.Anything).Return(nil)
		f.uow.GetRoomRepoMock().On("FindByIDForUpdate", ctx, room.ID).Return(&room, nil)
		f.uow.GetRoomRepoMock().On("ClearCleanupMarkers", ctx, room.ID).Return(nil)

		reclaimed, err := f.service.RunScheduledGc(ctx, 5)

		require.NoError(t, err)
		assert.Zero(t, reclaimed)
		f.uow.GetContentRepoMock().AssertNotCalled(t, "DeleteByRoom", mock.Anything, mock.Anything)
		f.uow.GetRoomRepoMock().AssertExpectations(t)
	})

	t.Run("rooms that are not full unbounded survive", func(t *testing.T) {
		ctx := context.Background()
		f := newFixture()
		withEntries := fullRoom(ptr(time.Now().Add(-time.Minute)))
		withEntries.CurrentTimesEntered = 1
		withExpiry := fullRoom(ptr(time.Now().Add(-time.Minute)))
		withExpiry.ExpireAt = ptr(time.Now().Add(time.Hour))

		f.uow.GetRoomRepoMock().On("FindCleanupCandidates", ctx, mock.Anything, 5).Return([]domain.Room{withEntries, withExpiry}, nil)
		f.uow.GetRoomRepoMock().On("ClearCleanupMarkers", ctx, withEntries.ID).Return(nil)
		f.uow.GetRoomRepoMock().On("ClearCleanupMarkers", ctx, withExpiry.ID).Return(nil)

		reclaimed, err := f.service.RunScheduledGc(ctx, 5)

		require.NoError(t, err)
		assert.Zero(t, reclaimed)
		f.registry.AssertNotCalled(t, "CountLiveConnections", mock.Anything, mock.Anything)
		f.uow.GetRoomRepoMock().AssertExpectations(t)
	})

	t.Run("a failing room does not stop the sweep", func(t *testing.T) {
		// Arrange
		ctx := context.Background()
		f := newFixture()
		broken := fullRoom(ptr(time.Now().Add(-2 * time.Minute)))
		healthy := fullRoom(ptr(time.Now().Add(-time.Minute)))

		f.uow.GetRoomRepoMock().On("FindCleanupCandidates", ctx, mock.Anything, gcCfg.BatchSize).Return([]domain.Room{broken, healthy}, nil)
		f.registry.On("CountLiveConnections", ctx, broken.Slug).Return(0, errors.New("registry unavailable"))
		f.registry.On("CountLiveConnections", ctx, healthy.Slug).Return(0, nil)
		f.uow.On("Execute", ctx, mock.Anything).Return(nil)
		f.uow.GetRoomRepoMock().On("FindByIDForUpdate", ctx, healthy.ID).Return(&healthy, nil)
		f.uow.GetContentRepoMock().On("ListByRoom", ctx, healthy.ID).Return([]domain.ContentRecord{}, nil)
		f.uow.GetReservationRepoMock().On("ListByRoom", ctx, healthy.ID).Return([]domain.UploadReservation{}, nil)
		f.uow.GetContentRepoMock().On("DeleteByRoom", ctx, healthy.ID).Return(int64(0), nil)
		f.uow.GetCredentialRepoMock().On("DeleteByRoom", ctx, healthy.ID).Return(nil)
		f.uow.GetRoomRepoMock().On("Delete", ctx, healthy.ID).Return(nil)
		f.storage.On("DeletePrefix", ctx, domain.RoomPrefix(healthy.ID)).Return(nil)

		// Act
		reclaimed, err := f.service.RunScheduledGc(ctx, 0)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, 1, reclaimed)
		f.uow.GetRoomRepoMock().AssertNotCalled(t, "Delete", mock.Anything, broken.ID)
	})

	t.Run("candidate query failure", func(t *testing.T) {
		ctx := context.Background()
		f := newFixture()
		f.uow.GetRoomRepoMock().On("FindCleanupCandidates", ctx, mock.Anything, 5).Return([]domain.Room{}, errors.New("db down"))

		_, err := f.service.RunScheduledGc(ctx, 5)

		assert.Error(t, err)
	})
}

package lifecycle_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"roomdrop/internal/adapters/registry"
	"roomdrop/internal/adapters/repository"
	"roomdrop/internal/adapters/storage"
	"roomdrop/internal/config"
	"roomdrop/internal/core/domain"
	"roomdrop/internal/core/port"
	"roomdrop/internal/core/service/lifecycle"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var (
	discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))
	gcCfg         = config.GCConfig{Every: time.Minute, BatchSize: 50, GracePeriod: 24 * time.Hour}
)

type fixture struct {
	uow      *repository.MockUnitOfWork
	storage  *storage.MockStorage
	registry *registry.MockConnectionRegistry
	service  port.LifecycleService
}

func newFixture() *fixture {
	f := &fixture{
		uow:      repository.NewMockUnitOfWork(),
		storage:  storage.NewMockStorage(),
		registry: registry.NewMockConnectionRegistry(),
	}
	f.service = lifecycle.NewLifecycleService(f.uow, f.storage, f.registry, gcCfg, discardLogger)
	return f
}

func fullRoom(cleanupAfter *time.Time) domain.Room {
	return domain.Room{
		ID:                  uuid.New(),
		Name:                "room",
		Slug:                "room-" + uuid.NewString()[:8],
		Status:              domain.RoomStatusOpen,
		MaxSize:             1000,
		MaxTimesEntered:     3,
		CurrentTimesEntered: 3,
		CleanupAfter:        cleanupAfter,
	}
}

func ptr(t time.Time) *time.Time {
	return &t
}

func TestLifecycleService_CreateRoom(t *testing.T) {
	t.Run("creates an open room", func(t *testing.T) {
		// Arrange
		ctx := context.Background()
		f := newFixture()
		f.uow.GetRoomRepoMock().On("Create", ctx, mock.MatchedBy(func(r domain.Room) bool {
			return r.Name == "holiday" && r.Status == domain.RoomStatusOpen && r.Permission == domain.PermissionView && r.CurrentSize == 0
		})).Return(nil)

		// Act
		room, err := f.service.CreateRoom(ctx, domain.NewRoom{Name: " holiday ", Slug: "hol", MaxSize: 1000, MaxTimesEntered: 5})

		// Assert
		require.NoError(t, err)
		assert.Equal(t, "holiday", room.Name)
		assert.NotEqual(t, uuid.Nil, room.ID)
		f.uow.GetRoomRepoMock().AssertExpectations(t)
	})

	tests := []struct {
		name    string
		newRoom domain.NewRoom
	}{
		{"missing name", domain.NewRoom{Slug: "s", MaxSize: 1}},
		{"missing slug", domain.NewRoom{Name: "n", MaxSize: 1}},
		{"zero quota", domain.NewRoom{Name: "n", Slug: "s"}},
		{"negative entries", domain.NewRoom{Name: "n", Slug: "s", MaxSize: 1, MaxTimesEntered: -1}},
		{"expiry in the past", domain.NewRoom{Name: "n", Slug: "s", MaxSize: 1, ExpireAt: ptr(time.Now().Add(-time.Hour))}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()

			_, err := f.service.CreateRoom(context.Background(), tt.newRoom)

			assert.ErrorIs(t, err, domain.ErrValidation)
			f.uow.GetRoomRepoMock().AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestLifecycleService_RecordEntry(t *testing.T) {
	t.Run("entering a marked room clears its markers", func(t *testing.T) {
		// Arrange
		ctx := context.Background()
		f := newFixture()
		room := fullRoom(ptr(time.Now().Add(time.Hour)))
		room.EmptySince = ptr(time.Now())
		f.uow.GetRoomRepoMock().On("IncrementEntries", ctx, room.ID).Return(&room, nil)
		f.uow.GetRoomRepoMock().On("ClearCleanupMarkers", ctx, room.ID).Return(nil)

		// Act
		entered, err := f.service.RecordEntry(ctx, room.ID)

		// Assert
		require.NoError(t, err)
		assert.Nil(t, entered.CleanupAfter)
		assert.Nil(t, entered.EmptySince)
		f.uow.GetRoomRepoMock().AssertExpectations(t)
	})

	t.Run("closed room refuses", func(t *testing.T) {
		ctx := context.Background()
		f := newFixture()
		roomID := uuid.New()
		f.uow.GetRoomRepoMock().On("IncrementEntries", ctx, roomID).Return(nil, domain.ErrRoomClosed)

		_, err := f.service.RecordEntry(ctx, roomID)

		assert.ErrorIs(t, err, domain.ErrPermissionDenied)
	})

	t.Run("room at its cap refuses and keeps its markers", func(t *testing.T) {
		ctx := context.Background()
		f := newFixture()
		roomID := uuid.New()
		f.uow.GetRoomRepoMock().On("IncrementEntries", ctx, roomID).Return(nil, domain.ErrRoomFull)

		_, err := f.service.RecordEntry(ctx, roomID)

		assert.ErrorIs(t, err, domain.ErrRoomFull)
		f.uow.GetRoomRepoMock().AssertNotCalled(t, "ClearCleanupMarkers", mock.Anything, mock.Anything)
	})
}

func TestLifecycleService_RegisterCredential(t *testing.T) {
	// Arrange
	ctx := context.Background()
	f := newFixture()
	room := fullRoom(nil)
	record := domain.CredentialRecord{JTI: "jti-1", RoomID: room.ID, ExpiresAt: time.Now().Add(time.Hour)}

	f.uow.On("Execute", ctx, mock.Anything).Return(nil)
	f.uow.GetRoomRepoMock().On("FindByIDForUpdate", ctx, room.ID).Return(&room, nil)
	f.uow.GetCredentialRepoMock().On("Create", ctx, mock.MatchedBy(func(c domain.CredentialRecord) bool {
		return c.JTI == "jti-1" && !c.CreatedAt.IsZero()
	})).Return(nil)
	f.uow.GetRoomRepoMock().On("ClearCleanupMarkers", ctx, room.ID).Return(nil)

	// Act
	err := f.service.RegisterCredential(ctx, record)

	// Assert
	require.NoError(t, err)
	f.uow.GetCredentialRepoMock().AssertExpectations(t)
	f.uow.GetRoomRepoMock().AssertExpectations(t)

	t.Run("requires an id and an expiry", func(t *testing.T) {
		assert.ErrorIs(t, f.service.RegisterCredential(ctx, domain.CredentialRecord{RoomID: room.ID, ExpiresAt: time.Now()}), domain.ErrValidation)
		assert.ErrorIs(t, f.service.RegisterCredential(ctx, domain.CredentialRecord{JTI: "x", RoomID: room.ID}), domain.ErrValidation)
	})

	t.Run("revoke", func(t *testing.T) {
		f.uow.GetCredentialRepoMock().On("Revoke", ctx, "jti-1").Return(nil)

		assert.NoError(t, f.service.RevokeCredential(ctx, "jti-1"))
	})
}

func TestLifecycleService_OnRoomBecameEmpty(t *testing.T) {
	t.Run("cleanup waits for the latest credential plus grace", func(t *testing.T) {
		// Arrange
		ctx := context.Background()
		f := newFixture()
		room := fullRoom(nil)
		latest := time.Now().Add(6 * time.Hour)

		f.uow.On("Execute", ctx, mock.Anything).Return(nil)
		f.uow.GetRoomRepoMock().On("FindByIDForUpdate", ctx, room.ID).Return(&room, nil)
		f.uow.GetCredentialRepoMock().On("MaxActiveExpiry", ctx, room.ID).Return(&latest, nil)
		f.uow.GetRoomRepoMock().On("SetCleanupMarkers", ctx, room.ID, mock.Anything, latest.Add(gcCfg.GracePeriod)).Return(nil)

		// Act
		err := f.service.OnRoomBecameEmpty(ctx, room.ID)

		// Assert
		require.NoError(t, err)
		f.uow.GetRoomRepoMock().AssertExpectations(t)
	})

	t.Run("no credential means now plus grace", func(t *testing.T) {
		ctx := context.Background()
		f := newFixture()
		room := fullRoom(nil)

		f.uow.On("Execute", ctx, mock.Anything).Return(nil)
		f.uow.GetRoomRepoMock().On("FindByIDForUpdate", ctx, room.ID).Return(&room, nil)
		f.uow.GetCredentialRepoMock().On("MaxActiveExpiry", ctx, room.ID).Return(nil, nil)
		f.uow.GetRoomRepoMock().On("SetCleanupMarkers", ctx, room.ID, mock.Anything, mock.MatchedBy(func(after time.Time) bool {
			return after.Sub(time.Now().Add(gcCfg.GracePeriod)).Abs() < 5*time.Second
		})).Return(nil)

		require.NoError(t, f.service.OnRoomBecameEmpty(ctx, room.ID))
		f.uow.GetRoomRepoMock().AssertExpectations(t)
	})

	t.Run("bounded room only loses stale markers", func(t *testing.T) {
		ctx := context.Background()
		f := newFixture()
		room := fullRoom(ptr(time.Now()))
		room.ExpireAt = ptr(time.Now().Add(48 * time.Hour))

		f.uow.On("Execute", ctx, mock.Anything).Return(nil)
		f.uow.GetRoomRepoMock().On("FindByIDForUpdate", ctx, room.ID).Return(&room, nil)
		f.uow.GetRoomRepoMock().On("ClearCleanupMarkers", ctx, room.ID).Return(nil)

		require.NoError(t, f.service.OnRoomBecameEmpty(ctx, room.ID))
		f.uow.GetRoomRepoMock().AssertNotCalled(t, "SetCleanupMarkers", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		f.uow.GetCredentialRepoMock().AssertNotCalled(t, "MaxActiveExpiry", mock.Anything, mock.Anything)
	})

	t.Run("room without an entry cap is never scheduled", func(t *testing.T) {
		ctx := context.Background()
		f := newFixture()
		room := fullRoom(nil)
		room.MaxTimesEntered = 0
		room.CurrentTimesEntered = 0

		f.uow.On("Execute", ctx, mock.Anything).Return(nil)
		f.uow.GetRoomRepoMock().On("FindByIDForUpdate", ctx, room.ID).Return(&room, nil)

		require.NoError(t, f.service.OnRoomBecameEmpty(ctx, room.ID))
		f.uow.GetRoomRepoMock().AssertNotCalled(t, "SetCleanupMarkers", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("room with entries left", func(t *testing.T) {
		ctx := context.Background()
		f := newFixture()
		room := fullRoom(nil)
		room.CurrentTimesEntered = 1

		f.uow.On("Execute", ctx, mock.Anything).Return(nil)
		f.uow.GetRoomRepoMock().On("FindByIDForUpdate", ctx, room.ID).Return(&room, nil)

		require.NoError(t, f.service.OnRoomBecameEmpty(ctx, room.ID))
		f.uow.GetRoomRepoMock().AssertNotCalled(t, "ClearCleanupMarkers", mock.Anything, mock.Anything)
	})
}

func TestLifecycleService_OnRoomBecameActive(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	roomID := uuid.New()
	f.uow.GetRoomRepoMock().On("ClearCleanupMarkers", ctx, roomID).Return(nil)

	require.NoError(t, f.service.OnRoomBecameActive(ctx, roomID))
	f.uow.GetRoomRepoMock().AssertExpectations(t)
}

func TestLifecycleService_ListFullUnboundedRooms(t *testing.T) {
	// Arrange
	ctx := context.Background()
	f := newFixture()
	first := fullRoom(ptr(time.Now()))
	second := fullRoom(nil)
	expiry := time.Now().Add(time.Hour)

	f.uow.GetRoomRepoMock().On("FindFullUnbounded", ctx, 10).Return([]domain.Room{first, second}, nil)
	f.uow.GetCredentialRepoMock().On("MaxActiveExpiry", ctx, first.ID).Return(&expiry, nil)
	f.uow.GetCredentialRepoMock().On("MaxActiveExpiry", ctx, second.ID).Return(nil, nil)
	f.registry.On("CountLiveConnections", ctx, first.Slug).Return(2, nil)
	f.registry.On("CountLiveConnections", ctx, second.Slug).Return(0, errors.New("redis down"))

	// Act
	infos, err := f.service.ListFullUnboundedRooms(ctx, 10)

	// Assert
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, first.ID, infos[0].RoomID)
	assert.Equal(t, &expiry, infos[0].MaxCredentialExpiry)
	assert.Equal(t, 2, infos[0].ActiveConnections)
	assert.Equal(t, int64(3), infos[0].Entries)
	assert.Nil(t, infos[1].MaxCredentialExpiry)
	assert.Equal(t, -1, infos[1].ActiveConnections)
}

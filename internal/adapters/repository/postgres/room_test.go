package postgres_test

import (
	"context"
	"roomdrop/internal/adapters/repository/postgres"
	"roomdrop/internal/core/domain"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestSqlRoomRepository(t *testing.T) {
	dbConnection, cleanup, truncate := postgres.NewTestDB(t)
	defer cleanup()
	ctx := context.Background()

	roomRepo := postgres.NewSQLRoomRepository(dbConnection)

	t.Run("Create - Nominal case", func(t *testing.T) {
		// Arrange
		truncate()
		expireAt := time.Now().Add(48 * time.Hour).Round(time.Microsecond)
		room := domain.Room{
			ID:              uuid.New(),
			Name:            "holidays",
			Slug:            "hol-123",
			Status:          domain.RoomStatusOpen,
			MaxSize:         1000,
			MaxTimesEntered: 5,
			ExpireAt:        &expireAt,
			Permission:      domain.PermissionView | domain.PermissionEdit,
		}

		// Act
		err := roomRepo.Create(ctx, room)

		// Assert
		require.NoError(t, err)
		saved, err := roomRepo.FindByID(ctx, room.ID)
		require.NoError(t, err)
		require.Equal(t, room.Name, saved.Name)
		require.Equal(t, int64(0), saved.CurrentSize)
		require.Equal(t, room.Permission, saved.Permission)
		require.WithinDuration(t, expireAt, *saved.ExpireAt, time.Second)
	})

	t.Run("Create - Duplicate name is a conflict", func(t *testing.T) {
		// Arrange
		truncate()
		room := postgres.SeedRoom(t, dbConnection, 100)
		room.ID = uuid.New()
		room.Slug = "other"

		// Act
		err := roomRepo.Create(ctx, room)

		// Assert
		require.ErrorIs(t, err, domain.ErrConflict)
	})

	t.Run("FindByID - Not found", func(t *testing.T) {
		// Act
		_, err := roomRepo.FindByID(ctx, uuid.New())

		// Assert
		require.ErrorIs(t, err, domain.ErrRoomNotFound)
		require.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("ReserveQuota - Debits when it fits", func(t *testing.T) {
		// Arrange
		truncate()
		room := postgres.SeedRoom(t, dbConnection, 1000)

		// Act
		current, err := roomRepo.ReserveQuota(ctx, room.ID, 600)

		// Assert
		require.NoError(t, err)
		require.Equal(t, int64(600), current)
	})

	t.Run("ReserveQuota - Exact fit is accepted", func(t *testing.T) {
		// Arrange
		truncate()
		room := postgres.SeedRoom(t, dbConnection, 1000)

		// Act
		current, err := roomRepo.ReserveQuota(ctx, room.ID, 1000)

		// Assert
		require.NoError(t, err)
		require.Equal(t, int64(1000), current)
	})

	t.Run("ReserveQuota - Refuses over quota and leaves ledger untouched", func(t *testing.T) {
		// Arrange
		truncate()
		room := postgres.SeedRoom(t, dbConnection, 1000)
		_, err := roomRepo.ReserveQuota(ctx, room.ID, 600)
		require.NoError(t, err)

		// Act
		_, err = roomRepo.ReserveQuota(ctx, room.ID, 500)

		// Assert
		require.ErrorIs(t, err, domain.ErrQuotaExceeded)
		saved, err := roomRepo.FindByID(ctx, room.ID)
		require.NoError(t, err)
		require.Equal(t, int64(600), saved.CurrentSize)
	})

	t.Run("ReserveQuota - Unknown room", func(t *testing.T) {
		// Act
		_, err := roomRepo.ReserveQuota(ctx, uuid.New(), 10)

		// Assert
		require.ErrorIs(t, err, domain.ErrRoomNotFound)
	})

	t.Run("ReserveQuota - Concurrent reservations never overshoot", func(t *testing.T) {
		// Arrange
		truncate()
		room := postgres.SeedRoom(t, dbConnection, 1000)
		var wg sync.WaitGroup
		var mu sync.Mutex
		accepted := 0

		// Act
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := roomRepo.ReserveQuota(ctx, room.ID, 300); err == nil {
					mu.Lock()
					accepted++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		// Assert
		require.Equal(t, 3, accepted)
		saved, err := roomRepo.FindByID(ctx, room.ID)
		require.NoError(t, err)
		require.Equal(t, int64(900), saved.CurrentSize)
	})

	t.Run("ReleaseQuota - Clamps at zero", func(t *testing.T) {
		// Arrange
		truncate()
		room := postgres.SeedRoom(t, dbConnection, 1000)
		_, err := roomRepo.ReserveQuota(ctx, room.ID, 100)
		require.NoError(t, err)

		// Act
		current, err := roomRepo.ReleaseQuota(ctx, room.ID, 250)

		// Assert
		require.NoError(t, err)
		require.Equal(t, int64(0), current)
	})

	t.Run("ConsumeQuota - Refunds the unused part", func(t *testing.T) {
		// Arrange
		truncate()
		room := postgres.SeedRoom(t, dbConnection, 1000)
		_, err := roomRepo.ReserveQuota(ctx, room.ID, 600)
		require.NoError(t, err)

		// Act
		current, err := roomRepo.ConsumeQuota(ctx, room.ID, 450, 600)

		// Assert
		require.NoError(t, err)
		require.Equal(t, int64(450), current)
	})

	t.Run("IncrementEntries - Open room", func(t *testing.T) {
		// Arrange
		truncate()
		room := postgres.SeedRoom(t, dbConnection, 1000)

		// Act
		updated, err := roomRepo.IncrementEntries(ctx, room.ID)

		// Assert
		require.NoError(t, err)
		require.Equal(t, int64(1), updated.CurrentTimesEntered)
	})

	t.Run("IncrementEntries - Closed room is refused", func(t *testing.T) {
		// Arrange
		truncate()
		room := domain.Room{
			ID:              uuid.New(),
			Name:            "closed",
			Slug:            "closed",
			Status:          domain.RoomStatusClosed,
			MaxSize:         10,
			MaxTimesEntered: 1,
		}
		require.NoError(t, roomRepo.Create(ctx, room))

		// Act
		_, err := roomRepo.IncrementEntries(ctx, room.ID)

		// Assert
		require.ErrorIs(t, err, domain.ErrRoomClosed)
	})

	t.Run("IncrementEntries - Room at its cap is refused", func(t *testing.T) {
		// Arrange
		truncate()
		room := domain.Room{ID: uuid.New(), Name: "capped", Slug: "capped", Status: domain.RoomStatusOpen, MaxSize: 10, MaxTimesEntered: 2}
		require.NoError(t, roomRepo.Create(ctx, room))

		// Act
		_, first := roomRepo.IncrementEntries(ctx, room.ID)
		_, second := roomRepo.IncrementEntries(ctx, room.ID)
		_, third := roomRepo.IncrementEntries(ctx, room.ID)

		// Assert
		require.NoError(t, first)
		require.NoError(t, second)
		require.ErrorIs(t, third, domain.ErrRoomFull)
		saved, err := roomRepo.FindByID(ctx, room.ID)
		require.NoError(t, err)
		require.Equal(t, int64(2), saved.CurrentTimesEntered)
	})

	t.Run("IncrementEntries - Zero cap means unlimited", func(t *testing.T) {
		truncate()
		room := domain.Room{ID: uuid.New(), Name: "open-ended", Slug: "open-ended", Status: domain.RoomStatusOpen, MaxSize: 10}
		require.NoError(t, roomRepo.Create(ctx, room))

		var updated *domain.Room
		var err error
		for i := 0; i < 3; i++ {
			updated, err = roomRepo.IncrementEntries(ctx, room.ID)
			require.NoError(t, err)
		}

		require.Equal(t, int64(3), updated.CurrentTimesEntered)
	})

	t.Run("FindCleanupCandidates - Ordered by cleanup time and bounded", func(t *testing.T) {
		// Arrange
		truncate()
		now := time.Now()
		first := postgres.SeedRoom(t, dbConnection, 10)
		second := postgres.SeedRoom(t, dbConnection, 10)
		future := postgres.SeedRoom(t, dbConnection, 10)
		require.NoError(t, roomRepo.SetCleanupMarkers(ctx, second.ID, now.Add(-time.Hour), now.Add(-time.Minute)))
		require.NoError(t, roomRepo.SetCleanupMarkers(ctx, first.ID, now.Add(-2*time.Hour), now.Add(-time.Hour)))
		require.NoError(t, roomRepo.SetCleanupMarkers(ctx, future.ID, now, now.Add(time.Hour)))

		// Act
		rooms, err := roomRepo.FindCleanupCandidates(ctx, now, 10)
		limited, limitErr := roomRepo.FindCleanupCandidates(ctx, now, 1)

		// Assert
		require.NoError(t, err)
		require.NoError(t, limitErr)
		require.Len(t, rooms, 2)
		require.Equal(t, first.ID, rooms[0].ID)
		require.Equal(t, second.ID, rooms[1].ID)
		require.Len(t, limited, 1)
	})

	t.Run("ClearCleanupMarkers - Removes markers", func(t *testing.T) {
		// Arrange
		truncate()
		now := time.Now()
		room := postgres.SeedRoom(t, dbConnection, 10)
		require.NoError(t, roomRepo.SetCleanupMarkers(ctx, room.ID, now, now))

		// Act
		err := roomRepo.ClearCleanupMarkers(ctx, room.ID)

		// Assert
		require.NoError(t, err)
		saved, err := roomRepo.FindByID(ctx, room.ID)
		require.NoError(t, err)
		require.Nil(t, saved.EmptySince)
		require.Nil(t, saved.CleanupAfter)
	})

	t.Run("FindFullUnbounded - Only rooms without expiry that ran out of entries", func(t *testing.T) {
		// Arrange
		truncate()
		expireAt := time.Now().Add(time.Hour)
		full := domain.Room{ID: uuid.New(), Name: "full", Slug: "full", Status: domain.RoomStatusOpen, MaxSize: 10, MaxTimesEntered: 1, CurrentTimesEntered: 1}
		bounded := domain.Room{ID: uuid.New(), Name: "bounded", Slug: "bounded", Status: domain.RoomStatusOpen, MaxSize: 10, MaxTimesEntered: 1, CurrentTimesEntered: 1, ExpireAt: &expireAt}
		notFull := domain.Room{ID: uuid.New(), Name: "notfull", Slug: "notfull", Status: domain.RoomStatusOpen, MaxSize: 10, MaxTimesEntered: 2, CurrentTimesEntered: 1}
		uncapped := domain.Room{ID: uuid.New(), Name: "uncapped", Slug: "uncapped", Status: domain.RoomStatusOpen, MaxSize: 10}
		for _, r := range []domain.Room{full, bounded, notFull, uncapped} {
			require.NoError(t, roomRepo.Create(ctx, r))
		}

		// Act
		rooms, err := roomRepo.FindFullUnbounded(ctx, 10)

		// Assert
		require.NoError(t, err)
		require.Len(t, rooms, 1)
		require.Equal(t, full.ID, rooms[0].ID)
	})

	t.Run("Delete - Cascades to reservations", func(t *testing.T) {
		// Arrange
		truncate()
		room := postgres.SeedRoom(t, dbConnection, 100)
		reservationRepo := postgres.NewSQLReservationRepository(dbConnection)
		reservation := newReservation(room.ID, 50, time.Now().Add(time.Hour))
		require.NoError(t, reservationRepo.Create(ctx, reservation))

		// Act
		err := roomRepo.Delete(ctx, room.ID)

		// Assert
		require.NoError(t, err)
		_, err = reservationRepo.FindByID(ctx, reservation.ID)
		require.ErrorIs(t, err, domain.ErrReservationNotFound)
		require.ErrorIs(t, roomRepo.Delete(ctx, room.ID), domain.ErrRoomNotFound)
	})
}

package postgres_test

import (
	"context"
	"roomdrop/internal/adapters/repository/postgres"
	"roomdrop/internal/core/domain"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestSqlContentRepository(t *testing.T) {
	dbConnection, cleanup, truncate := postgres.NewTestDB(t)
	defer cleanup()
	ctx := context.Background()

	contentRepo := postgres.NewSQLContentRepository(dbConnection)

	newContent := func(roomID uuid.UUID, name string) domain.ContentRecord {
		return domain.ContentRecord{
			ID:         uuid.New(),
			RoomID:     roomID,
			Type:       domain.ContentTypeFile,
			StorageKey: "rooms/" + roomID.String() + "/" + name,
			FileName:   name,
			SizeBytes:  42,
			MimeType:   "image/jpeg",
			Checksum:   "deadbeef",
		}
	}

	t.Run("Create - Nominal case", func(t *testing.T) {
		// Arrange
		truncate()
		room := postgres.SeedRoom(t, dbConnection, 1000)
		content := newContent(room.ID, "photo.jpg")

		// Act
		err := contentRepo.Create(ctx, content)

		// Assert
		require.NoError(t, err)
		saved, err := contentRepo.FindByID(ctx, content.ID)
		require.NoError(t, err)
		require.Equal(t, content.StorageKey, saved.StorageKey)
		require.Equal(t, uuid.Nil, saved.ReservationID)
	})

	t.Run("Create - Same name in room is a conflict", func(t *testing.T) {
		// Arrange
		truncate()
		room := postgres.SeedRoom(t, dbConnection, 1000)
		require.NoError(t, contentRepo.Create(ctx, newContent(room.ID, "photo.jpg")))

		// Act
		err := contentRepo.Create(ctx, newContent(room.ID, "photo.jpg"))

		// Assert
		require.ErrorIs(t, err, domain.ErrNameTaken)
	})

	t.Run("ExistsByName", func(t *testing.T) {
		// Arrange
		truncate()
		room := postgres.SeedRoom(t, dbConnection, 1000)
		require.NoError(t, contentRepo.Create(ctx, newContent(room.ID, "photo.jpg")))

		// Act
		exists, err := contentRepo.ExistsByName(ctx, room.ID, "photo.jpg")
		missing, missingErr := contentRepo.ExistsByName(ctx, room.ID, "photo(1).jpg")

		// Assert
		require.NoError(t, err)
		require.NoError(t, missingErr)
		require.True(t, exists)
		require.False(t, missing)
	})

	t.Run("DeleteByRoom - Returns count", func(t *testing.T) {
		// Arrange
		truncate()
		room := postgres.SeedRoom(t, dbConnection, 1000)
		require.NoError(t, contentRepo.Create(ctx, newContent(room.ID, "a")))
		require.NoError(t, contentRepo.Create(ctx, newContent(room.ID, "b")))

		// Act
		deleted, err := contentRepo.DeleteByRoom(ctx, room.ID)

		// Assert
		require.NoError(t, err)
		require.Equal(t, int64(2), deleted)
		contents, err := contentRepo.ListByRoom(ctx, room.ID)
		require.NoError(t, err)
		require.Empty(t, contents)
	})
}

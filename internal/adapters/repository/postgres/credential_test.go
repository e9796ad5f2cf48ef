package postgres_test

import (
	"context"
	"testing"
	"time"

	"roomdrop/internal/adapters/repository/postgres"
	"roomdrop/internal/core/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSqlCredentialRepository(t *testing.T) {
	dbConnection, cleanup, truncate := postgres.NewTestDB(t)
	defer cleanup()
	ctx := context.Background()

	credentialRepo := postgres.NewSQLCredentialRepository(dbConnection)

	t.Run("MaxActiveExpiry - ignores revoked credentials", func(t *testing.T) {
		// Arrange
		truncate()
		room := postgres.SeedRoom(t, dbConnection, 100)
		soon := time.Now().Add(time.Hour).Round(time.Microsecond)
		later := time.Now().Add(5 * time.Hour).Round(time.Microsecond)
		require.NoError(t, credentialRepo.Create(ctx, domain.CredentialRecord{JTI: "a", RoomID: room.ID, ExpiresAt: soon}))
		require.NoError(t, credentialRepo.Create(ctx, domain.CredentialRecord{JTI: "b", RoomID: room.ID, ExpiresAt: later}))

		// Act
		before, err := credentialRepo.MaxActiveExpiry(ctx, room.ID)
		require.NoError(t, err)
		require.NoError(t, credentialRepo.Revoke(ctx, "b"))
		after, err := credentialRepo.MaxActiveExpiry(ctx, room.ID)
		require.NoError(t, err)

		// Assert
		require.NotNil(t, before)
		require.NotNil(t, after)
		assert.WithinDuration(t, later, *before, time.Millisecond)
		assert.WithinDuration(t, soon, *after, time.Millisecond)
	})

	t.Run("MaxActiveExpiry - none registered", func(t *testing.T) {
		truncate()
		room := postgres.SeedRoom(t, dbConnection, 100)

		maxExpiry, err := credentialRepo.MaxActiveExpiry(ctx, room.ID)

		require.NoError(t, err)
		assert.Nil(t, maxExpiry)
	})

	t.Run("Create - re-registering a jti updates its expiry", func(t *testing.T) {
		truncate()
		room := postgres.SeedRoom(t, dbConnection, 100)
		extended := time.Now().Add(48 * time.Hour).Round(time.Microsecond)
		require.NoError(t, credentialRepo.Create(ctx, domain.CredentialRecord{JTI: "a", RoomID: room.ID, ExpiresAt: time.Now().Add(time.Hour)}))

		require.NoError(t, credentialRepo.Create(ctx, domain.CredentialRecord{JTI: "a", RoomID: room.ID, ExpiresAt: extended}))

		maxExpiry, err := credentialRepo.MaxActiveExpiry(ctx, room.ID)
		require.NoError(t, err)
		assert.WithinDuration(t, extended, *maxExpiry, time.Millisecond)
	})

	t.Run("Revoke - unknown jti", func(t *testing.T) {
		truncate()

		err := credentialRepo.Revoke(ctx, uuid.NewString())

		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("DeleteByRoom", func(t *testing.T) {
		truncate()
		room := postgres.SeedRoom(t, dbConnection, 100)
		require.NoError(t, credentialRepo.Create(ctx, domain.CredentialRecord{JTI: "a", RoomID: room.ID, ExpiresAt: time.Now().Add(time.Hour)}))

		require.NoError(t, credentialRepo.DeleteByRoom(ctx, room.ID))

		maxExpiry, err := credentialRepo.MaxActiveExpiry(ctx, room.ID)
		require.NoError(t, err)
		assert.Nil(t, maxExpiry)
	})
}

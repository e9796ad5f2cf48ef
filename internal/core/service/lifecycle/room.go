package lifecycle

import (
	"context"
	"fmt"
	"roomdrop/internal/core/domain"
	"strings"
	"time"

	"github.com/google/uuid"
)

// CreateRoom creates an open room with an empty ledger
func (l *lifecycleService) CreateRoom(ctx context.Context, newRoom domain.NewRoom) (*domain.Room, error) {
	name := strings.TrimSpace(newRoom.Name)
	slug := strings.TrimSpace(newRoom.Slug)
	if name == "" || slug == "" {
		return nil, fmt.Errorf("%w: room name and slug are required", domain.ErrValidation)
	}
	if newRoom.MaxSize <= 0 {
		return nil, fmt.Errorf("%w: max size must be positive", domain.ErrValidation)
	}
	if newRoom.MaxTimesEntered < 0 {
		return nil, fmt.Errorf("%w: max times entered must not be negative", domain.ErrValidation)
	}

	now := time.Now()
	if newRoom.ExpireAt != nil && !newRoom.ExpireAt.After(now) {
		return nil, fmt.Errorf("%w: expire_at is in the past", domain.ErrValidation)
	}

	permission := newRoom.Permission
	if permission == 0 {
		permission = domain.PermissionView
	}

	room := domain.Room{
		ID:              uuid.New(),
		Name:            name,
		Slug:            slug,
		Status:          domain.RoomStatusOpen,
		MaxSize:         newRoom.MaxSize,
		MaxTimesEntered: newRoom.MaxTimesEntered,
		ExpireAt:        newRoom.ExpireAt,
		Permission:      permission,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := l.uow.RoomRepo().Create(ctx, room); err != nil {
		return nil, err
	}

	l.logger.Info("room created", "room_id", room.ID, "slug", room.Slug, "max_size", room.MaxSize)
	return &room, nil
}

// RecordEntry counts one more entry into the room; locked and closed rooms refuse it
func (l *lifecycleService) RecordEntry(ctx context.Context, roomID uuid.UUID) (*domain.Room, error) {
	room, err := l.uow.RoomRepo().IncrementEntries(ctx, roomID)
	if err != nil {
		return nil, err
	}

	// someone is inside again
	if room.EmptySince != nil || room.CleanupAfter != nil {
		if err := l.uow.RoomRepo().ClearCleanupMarkers(ctx, roomID); err != nil {
			return nil, err
		}
		room.EmptySince = nil
		room.CleanupAfter = nil
	}

	return room, nil
}

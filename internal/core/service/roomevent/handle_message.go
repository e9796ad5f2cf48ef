package roomevent

import (
	"context"
	"encoding/json"
	"fmt"
	"roomdrop/internal/core/domain"

	"github.com/google/uuid"
)

// HandleMessage applies a room presence transition published by the connection layer
func (r *roomEventService) HandleMessage(ctx context.Context, data []byte) error {
	var event domain.PresenceEvent

	if err := json.Unmarshal(data, &event); err != nil {
		return fmt.Errorf("%w: could not unmarshal presence event: %v", domain.ErrValidation, err)
	}
	if event.RoomID == uuid.Nil {
		return fmt.Errorf("%w: presence event without room id", domain.ErrValidation)
	}

	r.logger.Info("handling event", "eventtype", event.Event, "room_id", event.RoomID, "slug", event.Slug)

	switch event.Event {
	case domain.PresenceEventRoomEmpty:
		return r.lifecycle.OnRoomBecameEmpty(ctx, event.RoomID)
	case domain.PresenceEventRoomActive:
		return r.lifecycle.OnRoomBecameActive(ctx, event.RoomID)
	default:
		return fmt.Errorf("%w: unknown presence event %q", domain.ErrValidation, event.Event)
	}
}

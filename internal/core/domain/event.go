package domain

import "github.com/google/uuid"

// PresenceEventType is the kind of a room presence transition
type PresenceEventType string

const (
	PresenceEventRoomEmpty  PresenceEventType = "room.empty"
	PresenceEventRoomActive PresenceEventType = "room.active"
)

// PresenceEvent is published by the connection layer when a room gains or loses its last viewer
type PresenceEvent struct {
	Event  PresenceEventType `json:"event"`
	RoomID uuid.UUID         `json:"room_id"`
	Slug   string            `json:"slug,omitempty"`
}

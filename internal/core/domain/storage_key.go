package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// ChunkPrefix is the temporary area of a reservation's chunks
func ChunkPrefix(reservationID uuid.UUID) string {
	return fmt.Sprintf("tmp/%s/", reservationID)
}

// ChunkKey is the temporary location of one chunk
func ChunkKey(reservationID uuid.UUID, index int) string {
	return fmt.Sprintf("%s%d", ChunkPrefix(reservationID), index)
}

// RoomPrefix holds every stored file of a room
func RoomPrefix(roomID uuid.UUID) string {
	return fmt.Sprintf("rooms/%s/", roomID)
}

// ContentKey is the final location of a file inside a room.
// Keys use the content id so two uploads racing for one display name never share a blob.
func ContentKey(roomID, contentID uuid.UUID) string {
	return RoomPrefix(roomID) + contentID.String()
}

package room

import (
	"net/http"
	"roomdrop/internal/adapters/handlers/http/chi/v1/apierror"
	"time"

	"github.com/google/uuid"
)

// V1RoomResponse is the public view of a room
type V1RoomResponse struct {
	ID              uuid.UUID  `json:"id"`
	Name            string     `json:"name"`
	Slug            string     `json:"slug"`
	Status          string     `json:"status"`
	MaxSize         int64      `json:"max_size"`
	CurrentSize     int64      `json:"current_size"`
	AvailableSize   int64      `json:"available_size"`
	MaxTimesEntered int64      `json:"max_times_entered"`
	TimesEntered    int64      `json:"times_entered"`
	ExpireAt        *time.Time `json:"expire_at,omitempty"`
}

// EnterRoomV1 counts an entry into the room
func (h *HandlerV1) EnterRoomV1(w http.ResponseWriter, r *http.Request) {
	roomID, _, ok := h.roomCredential(w, r)
	if !ok {
		return
	}

	room, err := h.lifecycleService.RecordEntry(r.Context(), roomID)
	if err != nil {
		apierror.Write(w, h.logger, err)
		return
	}

	apierror.WriteJSON(w, h.logger, http.StatusOK, V1RoomResponse{
		ID:              room.ID,
		Name:            room.Name,
		Slug:            room.Slug,
		Status:          string(room.Status),
		MaxSize:         room.MaxSize,
		CurrentSize:     room.CurrentSize,
		AvailableSize:   room.AvailableSize(),
		MaxTimesEntered: room.MaxTimesEntered,
		TimesEntered:    room.CurrentTimesEntered,
		ExpireAt:        room.ExpireAt,
	})
}

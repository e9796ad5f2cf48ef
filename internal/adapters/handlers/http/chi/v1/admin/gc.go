package admin

import (
	"net/http"
	"roomdrop/internal/adapters/handlers/http/chi/v1/apierror"
	"time"

	"github.com/google/uuid"
)

// V1FullRoom is a full room without expiry and its cleanup state
type V1FullRoom struct {
	RoomID              uuid.UUID  `json:"room_id"`
	Name                string     `json:"name"`
	Slug                string     `json:"slug"`
	Entries             int64      `json:"entries"`
	EmptySince          *time.Time `json:"empty_since"`
	CleanupAfter        *time.Time `json:"cleanup_after"`
	MaxCredentialExpiry *time.Time `json:"max_credential_expiry"`
	ActiveConnections   int        `json:"active_connections"`
}

// V1ListFullRoomsResponse lists full rooms
type V1ListFullRoomsResponse struct {
	Rooms []V1FullRoom `json:"rooms"`
}

// V1RunGcResponse is the outcome of a manual GC pass
type V1RunGcResponse struct {
	Reclaimed int `json:"reclaimed"`
}

// ListFullRoomsV1 lists full rooms without expiry
func (h *HandlerV1) ListFullRoomsV1(w http.ResponseWriter, r *http.Request) {
	limit, ok := h.queryLimit(w, r)
	if !ok {
		return
	}

	infos, err := h.lifecycleService.ListFullUnboundedRooms(r.Context(), limit)
	if err != nil {
		apierror.Write(w, h.logger, err)
		return
	}

	rooms := make([]V1FullRoom, 0, len(infos))
	for _, info := range infos {
		rooms = append(rooms, V1FullRoom{
			RoomID:              info.RoomID,
			Name:                info.Name,
			Slug:                info.Slug,
			Entries:             info.Entries,
			EmptySince:          info.EmptySince,
			CleanupAfter:        info.CleanupAfter,
			MaxCredentialExpiry: info.MaxCredentialExpiry,
			ActiveConnections:   info.ActiveConnections,
		})
	}

	apierror.WriteJSON(w, h.logger, http.StatusOK, V1ListFullRoomsResponse{Rooms: rooms})
}

// RunRoomGcV1 runs one room GC pass now
func (h *HandlerV1) RunRoomGcV1(w http.ResponseWriter, r *http.Request) {
	limit, ok := h.queryLimit(w, r)
	if !ok {
		return
	}

	reclaimed, err := h.lifecycleService.RunScheduledGc(r.Context(), limit)
	if err != nil {
		apierror.Write(w, h.logger, err)
		return
	}

	apierror.WriteJSON(w, h.logger, http.StatusOK, V1RunGcResponse{Reclaimed: reclaimed})
}

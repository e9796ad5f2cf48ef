package admin

import (
	"encoding/json"
	"net/http"
	"roomdrop/internal/adapters/handlers/http/chi/v1/apierror"
	"roomdrop/internal/core/domain"
	"time"

	"github.com/google/uuid"
)

// V1CreateRoomRequest is the request to create a room
type V1CreateRoomRequest struct {
	Name            string     `json:"name" validate:"required,max=255"`
	Slug            string     `json:"slug" validate:"required,max=255"`
	MaxSize         int64      `json:"max_size" validate:"gt=0"`
	MaxTimesEntered int64      `json:"max_times_entered" validate:"gte=0"`
	ExpireAt        *time.Time `json:"expire_at"`
	Permission      uint8      `json:"permission" validate:"lte=15"`
}

// V1CreateRoomResponse is the response to a created room
type V1CreateRoomResponse struct {
	ID              uuid.UUID  `json:"id"`
	Name            string     `json:"name"`
	Slug            string     `json:"slug"`
	Status          string     `json:"status"`
	MaxSize         int64      `json:"max_size"`
	MaxTimesEntered int64      `json:"max_times_entered"`
	ExpireAt        *time.Time `json:"expire_at,omitempty"`
	Permission      uint8      `json:"permission"`
}

// CreateRoomV1 creates a room
func (h *HandlerV1) CreateRoomV1(w http.ResponseWriter, r *http.Request) {
	var req V1CreateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("error decoding create room request", "error", err)
		apierror.WriteStatus(w, h.logger, http.StatusBadRequest, "invalid json body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		apierror.WriteStatus(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}

	room, err := h.lifecycleService.CreateRoom(r.Context(), domain.NewRoom{
		Name:            req.Name,
		Slug:            req.Slug,
		MaxSize:         req.MaxSize,
		MaxTimesEntered: req.MaxTimesEntered,
		ExpireAt:        req.ExpireAt,
		Permission:      domain.Permission(req.Permission),
	})
	if err != nil {
		apierror.Write(w, h.logger, err)
		return
	}

	apierror.WriteJSON(w, h.logger, http.StatusCreated, V1CreateRoomResponse{
		ID:              room.ID,
		Name:            room.Name,
		Slug:            room.Slug,
		Status:          string(room.Status),
		MaxSize:         room.MaxSize,
		MaxTimesEntered: room.MaxTimesEntered,
		ExpireAt:        room.ExpireAt,
		Permission:      uint8(room.Permission),
	})
}

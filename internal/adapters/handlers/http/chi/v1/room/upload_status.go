package room

import (
	"net/http"
	"roomdrop/internal/adapters/handlers/http/chi/v1/apierror"
	"roomdrop/internal/core/domain"

	"github.com/google/uuid"
)

// V1ChunkDetail is the state of one received chunk
type V1ChunkDetail struct {
	Index  int    `json:"index"`
	Size   int64  `json:"size"`
	Hash   string `json:"hash"`
	Status string `json:"status"`
}

// V1UploadStatusResponse is the progress of a reservation
type V1UploadStatusResponse struct {
	ReservationID    uuid.UUID       `json:"reservation_id"`
	Status           string          `json:"status"`
	TotalChunks      int             `json:"total_chunks"`
	UploadedChunks   int             `json:"uploaded_chunks"`
	ProgressPercent  float64         `json:"progress_percent"`
	ReservedSize     int64           `json:"reserved_size"`
	UploadedSize     int64           `json:"uploaded_size"`
	IsExpired        bool            `json:"is_expired"`
	RemainingSeconds int64           `json:"remaining_seconds"`
	Chunks           []V1ChunkDetail `json:"chunks"`
}

// GetUploadStatusV1 reports the progress of a reservation
func (h *HandlerV1) GetUploadStatusV1(w http.ResponseWriter, r *http.Request) {
	roomID, _, ok := h.roomCredential(w, r)
	if !ok {
		return
	}
	reservationID, ok := h.pathUUID(w, r, "reservationID")
	if !ok {
		return
	}

	status, err := h.uploadService.GetUploadStatus(r.Context(), roomID, reservationID)
	if err != nil {
		apierror.Write(w, h.logger, err)
		return
	}

	apierror.WriteJSON(w, h.logger, http.StatusOK, toStatusResponse(status))
}

// GetUploadStatusByCredentialV1 reports the latest open reservation of the caller
func (h *HandlerV1) GetUploadStatusByCredentialV1(w http.ResponseWriter, r *http.Request) {
	roomID, credential, ok := h.roomCredential(w, r)
	if !ok {
		return
	}

	status, err := h.uploadService.GetUploadStatusByCredential(r.Context(), roomID, credential.ID)
	if err != nil {
		apierror.Write(w, h.logger, err)
		return
	}

	apierror.WriteJSON(w, h.logger, http.StatusOK, toStatusResponse(status))
}

func toStatusResponse(status *domain.UploadStatus) V1UploadStatusResponse {
	chunks := make([]V1ChunkDetail, 0, len(status.ChunkDetails))
	for _, c := range status.ChunkDetails {
		chunks = append(chunks, V1ChunkDetail{Index: c.ChunkIndex, Size: c.ChunkSize, Hash: c.ChunkHash, Status: c.Status.String()})
	}

	return V1UploadStatusResponse{
		ReservationID:    status.ReservationID,
		Status:           string(status.Status),
		TotalChunks:      status.TotalChunks,
		UploadedChunks:   status.UploadedChunks,
		ProgressPercent:  status.ProgressPercent,
		ReservedSize:     status.ReservedSize,
		UploadedSize:     status.UploadedSize,
		IsExpired:        status.IsExpired,
		RemainingSeconds: status.RemainingSeconds,
		Chunks:           chunks,
	}
}

package room

import (
	"encoding/json"
	"net/http"
	"roomdrop/internal/adapters/handlers/http/chi/v1/apierror"
	"roomdrop/internal/core/domain"
	"time"

	"github.com/google/uuid"
)

// V1ManifestEntry is one file of a prepare request
type V1ManifestEntry struct {
	Name        string `json:"name" validate:"required,max=255"`
	Size        int64  `json:"size" validate:"gt=0"`
	Mime        string `json:"mime" validate:"omitempty,max=255"`
	ChunkSize   int64  `json:"chunk_size" validate:"gte=0"`
	ContentHash string `json:"content_hash" validate:"omitempty,len=64,hexadecimal"`
}

// V1PrepareUploadRequest is the request to reserve quota for an upload
type V1PrepareUploadRequest struct {
	Files []V1ManifestEntry `json:"files" validate:"required,min=1,dive"`
}

// V1ChunkPlan tells the client how to split a file
type V1ChunkPlan struct {
	Name        string `json:"name"`
	Size        int64  `json:"size"`
	ChunkSize   int64  `json:"chunk_size"`
	TotalChunks int    `json:"total_chunks"`
}

// V1PrepareUploadResponse is the response to a prepare request
type V1PrepareUploadResponse struct {
	ReservationID uuid.UUID     `json:"reservation_id"`
	ReservedSize  int64         `json:"reserved_size"`
	ExpiresAt     time.Time     `json:"expires_at"`
	IsChunked     bool          `json:"is_chunked"`
	Plans         []V1ChunkPlan `json:"plans"`
	AvailableSize int64         `json:"available_size"`
}

// PrepareUploadV1 reserves quota for the announced files
func (h *HandlerV1) PrepareUploadV1(w http.ResponseWriter, r *http.Request) {
	roomID, credential, ok := h.roomCredential(w, r)
	if !ok {
		return
	}

	var req V1PrepareUploadRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		h.logger.Error("error decoding prepare upload request", "error", err)
		apierror.WriteStatus(w, h.logger, http.StatusBadRequest, "invalid json body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		apierror.WriteStatus(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}

	manifest := make(domain.Manifest, 0, len(req.Files))
	for _, f := range req.Files {
		manifest = append(manifest, domain.ManifestEntry{
			Name:        f.Name,
			Size:        f.Size,
			Mime:        f.Mime,
			ChunkSize:   f.ChunkSize,
			ContentHash: f.ContentHash,
		})
	}

	prepared, err := h.uploadService.PrepareUpload(r.Context(), roomID, credential, manifest)
	if err != nil {
		apierror.Write(w, h.logger, err)
		return
	}

	plans := make([]V1ChunkPlan, 0, len(prepared.Plans))
	for _, p := range prepared.Plans {
		plans = append(plans, V1ChunkPlan{Name: p.Name, Size: p.Size, ChunkSize: p.ChunkSize, TotalChunks: p.TotalChunks})
	}

	apierror.WriteJSON(w, h.logger, http.StatusCreated, V1PrepareUploadResponse{
		ReservationID: prepared.ReservationID,
		ReservedSize:  prepared.ReservedSize,
		ExpiresAt:     prepared.ExpiresAt,
		IsChunked:     prepared.IsChunked,
		Plans:         plans,
		AvailableSize: prepared.Room.AvailableSize(),
	})
}

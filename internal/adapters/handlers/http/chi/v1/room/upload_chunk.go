package room

import (
	"net/http"
	"roomdrop/internal/adapters/handlers/http/chi/v1/apierror"
	"roomdrop/internal/core/domain"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// V1ChunkResponse is the response to a stored chunk
type V1ChunkResponse struct {
	Index  int    `json:"index"`
	Size   int64  `json:"size"`
	Hash   string `json:"hash"`
	Status string `json:"status"`
}

// UploadChunkV1 stores the raw request body as one chunk.
// X-Chunk-Size defaults to Content-Length; X-Chunk-Hash is optional.
func (h *HandlerV1) UploadChunkV1(w http.ResponseWriter, r *http.Request) {
	roomID, credential, ok := h.roomCredential(w, r)
	if !ok {
		return
	}
	reservationID, ok := h.pathUUID(w, r, "reservationID")
	if !ok {
		return
	}

	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		apierror.WriteStatus(w, h.logger, http.StatusBadRequest, "index must be an integer")
		return
	}

	size := r.ContentLength
	if header := r.Header.Get("X-Chunk-Size"); header != "" {
		size, err = strconv.ParseInt(header, 10, 64)
		if err != nil {
			apierror.WriteStatus(w, h.logger, http.StatusBadRequest, "X-Chunk-Size must be an integer")
			return
		}
	}
	if size <= 0 {
		apierror.WriteStatus(w, h.logger, http.StatusBadRequest, "chunk size is required")
		return
	}

	chunk, err := h.uploadService.UploadChunk(r.Context(), domain.ChunkUpload{
		ReservationID: reservationID,
		RoomID:        roomID,
		CredentialID:  credential.ID,
		Index:         index,
		Size:          size,
		Hash:          r.Header.Get("X-Chunk-Hash"),
		Body:          r.Body,
	})
	if err != nil {
		apierror.Write(w, h.logger, err)
		return
	}

	apierror.WriteJSON(w, h.logger, http.StatusCreated, V1ChunkResponse{
		Index:  chunk.ChunkIndex,
		Size:   chunk.ChunkSize,
		Hash:   chunk.ChunkHash,
		Status: chunk.Status.String(),
	})
}

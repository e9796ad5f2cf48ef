package room

import (
	"net/http"
	"roomdrop/internal/adapters/handlers/http/chi/v1/apierror"
	"time"

	"github.com/google/uuid"
)

// V1GetContentResponse is the response to get content
type V1GetContentResponse struct {
	ContentID uuid.UUID  `json:"content_id"`
	FileName  string     `json:"file_name"`
	Size      int64      `json:"size"`
	MimeType  string     `json:"mime_type"`
	Checksum  string     `json:"checksum"`
	URL       string     `json:"url"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// GetContentV1 returns a stored file with a download link
func (h *HandlerV1) GetContentV1(w http.ResponseWriter, r *http.Request) {
	roomID, _, ok := h.roomCredential(w, r)
	if !ok {
		return
	}
	contentID, ok := h.pathUUID(w, r, "contentID")
	if !ok {
		return
	}

	content, url, expiresAt, err := h.uploadService.GetContent(r.Context(), roomID, contentID)
	if err != nil {
		apierror.Write(w, h.logger, err)
		return
	}

	apierror.WriteJSON(w, h.logger, http.StatusOK, V1GetContentResponse{
		ContentID: content.ID,
		FileName:  content.FileName,
		Size:      content.SizeBytes,
		MimeType:  content.MimeType,
		Checksum:  content.Checksum,
		URL:       url,
		ExpiresAt: expiresAt,
	})
}

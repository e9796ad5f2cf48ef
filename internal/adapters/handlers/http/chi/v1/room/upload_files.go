package room

import (
	"io"
	"mime/multipart"
	"net/http"
	"roomdrop/internal/adapters/handlers/http/chi/v1/apierror"
	"roomdrop/internal/core/domain"

	"github.com/google/uuid"
)

const (
	filesFormField     = "files"
	multipartMemoryMax = 32 << 20
)

// V1MergedFile is a stored file
type V1MergedFile struct {
	ContentID uuid.UUID `json:"content_id"`
	Name      string    `json:"name"`
	Size      int64     `json:"size"`
	Hash      string    `json:"hash"`
}

// V1MergedFilesResponse lists the files stored by an upload
type V1MergedFilesResponse struct {
	Files []V1MergedFile `json:"files"`
}

// UploadFilesV1 stores every manifest file of a whole-file reservation from a multipart form.
// Each part of the "files" field is matched to the manifest by its file name.
func (h *HandlerV1) UploadFilesV1(w http.ResponseWriter, r *http.Request) {
	roomID, credential, ok := h.roomCredential(w, r)
	if !ok {
		return
	}
	reservationID, ok := h.pathUUID(w, r, "reservationID")
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(multipartMemoryMax); err != nil {
		apierror.WriteStatus(w, h.logger, http.StatusBadRequest, "invalid multipart body")
		return
	}
	defer func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			h.logger.Warn("could not remove multipart temp files", "error", err)
		}
	}()

	headers := r.MultipartForm.File[filesFormField]
	if len(headers) == 0 {
		apierror.WriteStatus(w, h.logger, http.StatusBadRequest, "no files in form field "+filesFormField)
		return
	}

	payloads := make([]domain.FilePayload, 0, len(headers))
	opened := make([]multipart.File, 0, len(headers))
	defer func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}()
	for _, header := range headers {
		f, err := header.Open()
		if err != nil {
			h.logger.Error("could not open multipart file", "error", err)
			apierror.WriteStatus(w, h.logger, http.StatusBadRequest, "unreadable file part")
			return
		}
		opened = append(opened, f)
		payloads = append(payloads, domain.FilePayload{Name: header.Filename, Body: io.Reader(f)})
	}

	merged, err := h.uploadService.UploadFiles(r.Context(), roomID, credential, reservationID, payloads)
	if err != nil {
		apierror.Write(w, h.logger, err)
		return
	}

	apierror.WriteJSON(w, h.logger, http.StatusCreated, toMergedFilesResponse(merged))
}

func toMergedFilesResponse(merged []domain.MergedFile) V1MergedFilesResponse {
	files := make([]V1MergedFile, 0, len(merged))
	for _, m := range merged {
		files = append(files, V1MergedFile{ContentID: m.ContentID, Name: m.Name, Size: m.Size, Hash: m.Hash})
	}
	return V1MergedFilesResponse{Files: files}
}

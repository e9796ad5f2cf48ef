package room

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"roomdrop/internal/adapters/handlers/http/chi/v1/apierror"
)

// V1CompleteMergeRequest carries the optional hash of the whole file
type V1CompleteMergeRequest struct {
	FinalHash string `json:"final_hash" validate:"omitempty,len=64,hexadecimal"`
}

// CompleteMergeV1 assembles the chunks of a reservation into its file
func (h *HandlerV1) CompleteMergeV1(w http.ResponseWriter, r *http.Request) {
	roomID, credential, ok := h.roomCredential(w, r)
	if !ok {
		return
	}
	reservationID, ok := h.pathUUID(w, r, "reservationID")
	if !ok {
		return
	}

	var req V1CompleteMergeRequest
	// the body is optional
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		apierror.WriteStatus(w, h.logger, http.StatusBadRequest, "invalid json body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		apierror.WriteStatus(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}

	merged, err := h.uploadService.CompleteMerge(r.Context(), roomID, credential, reservationID, req.FinalHash)
	if err != nil {
		apierror.Write(w, h.logger, err)
		return
	}

	apierror.WriteJSON(w, h.logger, http.StatusOK, toMergedFilesResponse(merged))
}

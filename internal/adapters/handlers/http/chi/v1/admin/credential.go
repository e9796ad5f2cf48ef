package admin

import (
	"encoding/json"
	"net/http"
	"roomdrop/internal/adapters/handlers/http/chi/v1/apierror"
	"roomdrop/internal/core/domain"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// V1IssueCredentialRequest is the request to issue a room credential
type V1IssueCredentialRequest struct {
	Permission uint8 `json:"permission" validate:"gt=0,lte=15"`
	TTLSeconds int64 `json:"ttl_seconds" validate:"gt=0"`
}

// V1IssueCredentialResponse carries the signed credential
type V1IssueCredentialResponse struct {
	Token     string    `json:"token"`
	JTI       string    `json:"jti"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IssueCredentialV1 signs a credential for a room and records it for the lifecycle
func (h *HandlerV1) IssueCredentialV1(w http.ResponseWriter, r *http.Request) {
	roomID, err := uuid.Parse(chi.URLParam(r, "roomID"))
	if err != nil {
		apierror.WriteStatus(w, h.logger, http.StatusBadRequest, "roomID must be a uuid")
		return
	}

	var req V1IssueCredentialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierror.WriteStatus(w, h.logger, http.StatusBadRequest, "invalid json body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		apierror.WriteStatus(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}

	token, record, err := h.issuer.Issue(roomID, domain.Permission(req.Permission), time.Duration(req.TTLSeconds)*time.Second)
	if err != nil {
		apierror.Write(w, h.logger, err)
		return
	}
	if err := h.lifecycleService.RegisterCredential(r.Context(), *record); err != nil {
		apierror.Write(w, h.logger, err)
		return
	}

	apierror.WriteJSON(w, h.logger, http.StatusCreated, V1IssueCredentialResponse{
		Token:     token,
		JTI:       record.JTI,
		ExpiresAt: record.ExpiresAt,
	})
}

// RevokeCredentialV1 revokes a credential by id
func (h *HandlerV1) RevokeCredentialV1(w http.ResponseWriter, r *http.Request) {
	jti := chi.URLParam(r, "jti")
	if jti == "" {
		apierror.WriteStatus(w, h.logger, http.StatusBadRequest, "jti is required")
		return
	}

	if err := h.lifecycleService.RevokeCredential(r.Context(), jti); err != nil {
		apierror.Write(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

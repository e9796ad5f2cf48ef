package room

import (
	"context"
	"log/slog"
	"net/http"
	"roomdrop/internal/adapters/handlers/http/chi/v1/apierror"
	"roomdrop/internal/core/domain"
	"roomdrop/internal/core/port"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type credentialKey struct{}

// HandlerV1 is the handler for v1 room routes
type HandlerV1 struct {
	uploadService    port.UploadService
	lifecycleService port.LifecycleService
	verifier         port.CredentialVerifier
	validate         *validator.Validate
	logger           *slog.Logger
}

// NewRoomHandlerV1 creates HandlerV1
func NewRoomHandlerV1(uploadService port.UploadService, lifecycleService port.LifecycleService, verifier port.CredentialVerifier, logger *slog.Logger) *HandlerV1 {
	return &HandlerV1{
		uploadService:    uploadService,
		lifecycleService: lifecycleService,
		verifier:         verifier,
		validate:         validator.New(),
		logger:           logger,
	}
}

// Routes exposes handler routes. Every route needs a bearer credential.
func (h *HandlerV1) Routes() chi.Router {
	router := chi.NewRouter()
	router.Use(h.Authenticate)

	router.Post("/{roomID}/enter", h.EnterRoomV1)
	router.Post("/{roomID}/upload/prepare", h.PrepareUploadV1)
	router.Get("/{roomID}/upload/status", h.GetUploadStatusByCredentialV1)
	router.Put("/{roomID}/upload/{reservationID}/chunk/{index}", h.UploadChunkV1)
	router.Post("/{roomID}/upload/{reservationID}/files", h.UploadFilesV1)
	router.Get("/{roomID}/upload/{reservationID}/status", h.GetUploadStatusV1)
	router.Post("/{roomID}/upload/{reservationID}/merge", h.CompleteMergeV1)
	router.Get("/{roomID}/content/{contentID}", h.GetContentV1)

	return router
}

// Authenticate verifies the bearer credential and stores it in the request context
func (h *HandlerV1) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			apierror.WriteStatus(w, h.logger, http.StatusUnauthorized, "missing bearer credential")
			return
		}

		credential, err := h.verifier.Verify(r.Context(), strings.TrimSpace(token))
		if err != nil {
			h.logger.Warn("credential rejected", "error", err)
			apierror.WriteStatus(w, h.logger, http.StatusUnauthorized, "invalid credential")
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), credentialKey{}, *credential)))
	})
}

// roomCredential returns the path room and the caller credential, which must belong to it
func (h *HandlerV1) roomCredential(w http.ResponseWriter, r *http.Request) (uuid.UUID, domain.Credential, bool) {
	roomID, ok := h.pathUUID(w, r, "roomID")
	if !ok {
		return uuid.Nil, domain.Credential{}, false
	}

	credential, found := r.Context().Value(credentialKey{}).(domain.Credential)
	if !found || credential.RoomID != roomID || !credential.Permission.Has(domain.PermissionView) {
		apierror.WriteStatus(w, h.logger, http.StatusForbidden, "credential does not grant access to this room")
		return uuid.Nil, domain.Credential{}, false
	}

	return roomID, credential, true
}

func (h *HandlerV1) pathUUID(w http.ResponseWriter, r *http.Request, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		apierror.WriteStatus(w, h.logger, http.StatusBadRequest, param+" must be a uuid")
		return uuid.Nil, false
	}
	return id, true
}

package admin

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"roomdrop/internal/adapters/handlers/http/chi/v1/apierror"
	"roomdrop/internal/core/port"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
)

// AdminTokenHeader carries the static admin token
const AdminTokenHeader = "X-Admin-Token"

// HandlerV1 is the handler for v1 admin routes
type HandlerV1 struct {
	lifecycleService port.LifecycleService
	issuer           port.CredentialIssuer
	adminToken       string
	validate         *validator.Validate
	logger           *slog.Logger
}

// NewAdminHandlerV1 creates HandlerV1
func NewAdminHandlerV1(lifecycleService port.LifecycleService, issuer port.CredentialIssuer, adminToken string, logger *slog.Logger) *HandlerV1 {
	return &HandlerV1{
		lifecycleService: lifecycleService,
		issuer:           issuer,
		adminToken:       adminToken,
		validate:         validator.New(),
		logger:           logger,
	}
}

// Routes exposes handler routes
func (h *HandlerV1) Routes() chi.Router {
	router := chi.NewRouter()
	router.Use(h.RequireAdminToken)
	router.Use(middleware.RequestSize(1 << 20))

	router.Post("/room", h.CreateRoomV1)
	router.Get("/room/full", h.ListFullRoomsV1)
	router.Post("/room/gc", h.RunRoomGcV1)
	router.Post("/room/{roomID}/credential", h.IssueCredentialV1)
	router.Delete("/credential/{jti}", h.RevokeCredentialV1)

	return router
}

// RequireAdminToken rejects requests without the configured admin token
func (h *HandlerV1) RequireAdminToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get(AdminTokenHeader)
		if h.adminToken == "" || subtle.ConstantTimeCompare([]byte(token), []byte(h.adminToken)) != 1 {
			apierror.WriteStatus(w, h.logger, http.StatusUnauthorized, "invalid admin token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// queryLimit reads ?limit=, 0 meaning the configured batch size
func (h *HandlerV1) queryLimit(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		apierror.WriteStatus(w, h.logger, http.StatusBadRequest, "limit must be a non-negative integer")
		return 0, false
	}
	return limit, true
}

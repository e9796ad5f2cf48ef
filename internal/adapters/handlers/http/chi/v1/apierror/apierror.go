package apierror

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"roomdrop/internal/core/domain"
)

// Response is the body of every error answer
type Response struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Status maps a domain error to its HTTP status code
func Status(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrIncomplete):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrInvalidState):
		return http.StatusConflict
	case errors.Is(err, domain.ErrExpired):
		return http.StatusGone
	case errors.Is(err, domain.ErrQuotaExceeded):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, domain.ErrIntegrity):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func code(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "validation_error"
	case http.StatusForbidden:
		return "permission_denied"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	case http.StatusGone:
		return "expired"
	case http.StatusRequestEntityTooLarge:
		return "quota_exceeded"
	case http.StatusUnprocessableEntity:
		return "integrity_error"
	case http.StatusUnauthorized:
		return "unauthorized"
	default:
		return "internal_error"
	}
}

// Write answers with the status of err. Internal details never reach the client.
func Write(w http.ResponseWriter, logger *slog.Logger, err error) {
	status := Status(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		logger.Error("request failed", "error", err)
		message = "internal server error"
	}
	WriteStatus(w, logger, status, message)
}

// WriteStatus answers with an explicit status and message
func WriteStatus(w http.ResponseWriter, logger *slog.Logger, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(Response{Error: code(status), Message: message}); err != nil {
		logger.Error("error encoding response", "error", err)
	}
}

// WriteJSON answers with a JSON body
func WriteJSON(w http.ResponseWriter, logger *slog.Logger, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("error encoding response", "error", err)
	}
}

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/easyplit/easyplit/internal/auth"
	"github.com/easyplit/easyplit/internal/calculator"
	"github.com/easyplit/easyplit/internal/money"
	"github.com/easyplit/easyplit/internal/service"
	"github.com/easyplit/easyplit/internal/storage"
)

const maxBodyBytes = 1 << 20

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("Failed to encode response", "error", err)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, errType, msg string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}

// statusFor maps a domain error to an HTTP status and error type.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrInvalidArgument),
		errors.Is(err, calculator.ErrInvalidArgument),
		errors.Is(err, money.ErrInvalidAmount),
		errors.Is(err, money.ErrSubCent),
		errors.Is(err, auth.ErrWeakPassword),
		errors.Is(err, auth.ErrInvalidEmail):
		return http.StatusBadRequest, "invalid_request"
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrMissingToken):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, auth.ErrEmailExists),
		errors.Is(err, storage.ErrConflict):
		return http.StatusConflict, "conflict"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

// writeServiceError writes err with the status statusFor picks. Internal
// errors are logged and replaced with a generic message.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status, errType := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		slog.Error("Request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		msg = "internal server error"
	}
	writeError(w, status, errType, msg)
}

// decodeJSON reads a size-limited JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: invalid request body: %v", service.ErrInvalidArgument, err)
	}
	return nil
}

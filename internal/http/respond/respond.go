// Package respond writes JSON bodies and maps domain errors to HTTP statuses.
package respond

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/MrJamesThe3rd/tabungan/internal/auth"
	"github.com/MrJamesThe3rd/tabungan/internal/student"
	"github.com/MrJamesThe3rd/tabungan/internal/transaction"
	"github.com/MrJamesThe3rd/tabungan/internal/user"
)

func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// StatusOf returns the HTTP status for err.
func StatusOf(err error) int {
	switch {
	case errors.Is(err, transaction.ErrInvalid), errors.Is(err, user.ErrInvalid):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrRevoked),
		errors.Is(err, user.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, transaction.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, transaction.ErrNotFound), errors.Is(err, student.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, transaction.ErrAlreadyApproved), errors.Is(err, user.ErrEmailTaken):
		return http.StatusConflict
	case errors.Is(err, transaction.ErrOverflow):
		return http.StatusUnprocessableEntity
	case errors.Is(err, transaction.ErrStore):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Error writes err with the status StatusOf picks. Server-side failures are
// logged and their details kept from the client.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusOf(err)

	switch status {
	case http.StatusInternalServerError:
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		http.Error(w, "internal error", status)
	case http.StatusServiceUnavailable:
		slog.Warn("store unavailable", "method", r.Method, "path", r.URL.Path, "error", err)
		w.Header().Set("Retry-After", "1")
		http.Error(w, "temporarily unavailable, retry later", status)
	default:
		http.Error(w, err.Error(), status)
	}
}

package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/erazemk/stockroom/internal/auth"
	"github.com/erazemk/stockroom/internal/inventory"
	"github.com/erazemk/stockroom/internal/store"
	"github.com/erazemk/stockroom/internal/tracker"
)

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode response", "error", err)
		}
	}
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

// decodeJSON decodes a JSON request body into the given target.
func decodeJSON(r *http.Request, target any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(target)
}

// ErrorStatus maps a tracker error to an HTTP status and a message safe
// to show the caller.
func ErrorStatus(err error) (int, string) {
	var verr *inventory.ValidationError
	var nferr *inventory.NotFoundError
	var aerr *auth.AuthError
	var serr *store.StoreError
	var lerr *tracker.LogError

	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, verr.Error()
	case errors.As(err, &nferr):
		return http.StatusNotFound, nferr.Error()
	case errors.As(err, &aerr):
		return http.StatusUnauthorized, aerr.Error()
	case errors.As(err, &serr):
		status := http.StatusInternalServerError
		if serr.Remote {
			status = http.StatusBadGateway
		}
		if errors.As(err, &lerr) {
			return status, "inventory saved, restock log not written: " + serr.Error()
		}
		return status, "storage error: " + serr.Error()
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

// writeError logs server-side failures and writes the mapped JSON error.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := ErrorStatus(err)
	if status >= http.StatusInternalServerError {
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	jsonError(w, status, msg)
}

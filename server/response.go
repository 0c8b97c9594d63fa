package server

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/teranos/kgviz/errors"
)

// writeJSON writes a JSON response with the given status code
func writeJSON(w http.ResponseWriter, status int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		return errors.Wrap(err, "failed to encode JSON")
	}
	return nil
}

// writeError writes a JSON error response
func writeError(w http.ResponseWriter, status int, message string, hints ...string) {
	body := map[string]interface{}{"error": message}
	if len(hints) > 0 {
		body["hints"] = hints
	}
	writeJSON(w, status, body)
}

// writeErr maps err onto a status code and writes it
func writeErr(w http.ResponseWriter, err error) {
	writeError(w, statusFor(err), err.Error(), errors.GetAllHints(err)...)
}

// statusFor maps the error sentinels onto HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.IsNotFoundError(err):
		return http.StatusNotFound
	case errors.IsInvalidRequestError(err):
		return http.StatusBadRequest
	case errors.Is(err, errors.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.IsServiceUnavailableError(err):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

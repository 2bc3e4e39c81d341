package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"llamabridge/pkg/types"
)

// HTTPError allows services to provide an HTTP status code for an error.
type HTTPError interface {
	error
	StatusCode() int
}

// codedError exposes a machine-readable error code.
type codedError interface {
	Code() string
}

// writeJSON writes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeJSONError writes a consistent JSON error payload.
func writeJSONError(w http.ResponseWriter, status int, msg, kind string) {
	writeJSON(w, status, types.ErrorResponse{Error: msg, Code: status, Kind: kind})
}

// writeError maps err onto a status code and writes it. Errors without a
// status are 500s. It returns the status written.
func writeError(w http.ResponseWriter, err error) int {
	status := http.StatusInternalServerError
	var he HTTPError
	if errors.As(err, &he) {
		status = he.StatusCode()
	}
	kind := ""
	var ce codedError
	if errors.As(err, &ce) {
		kind = ce.Code()
	}
	if status == http.StatusConflict || status == http.StatusServiceUnavailable {
		IncrementRejection(kind)
	}
	writeJSONError(w, status, err.Error(), kind)
	return status
}

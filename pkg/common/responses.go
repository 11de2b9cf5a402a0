// Package common holds the JSON request and response helpers shared by the
// HTTP handlers.
package common

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	apperrors "schemagraph/pkg/errors"
)

// DefaultMaxBodyBytes caps request bodies when a handler sets no limit
const DefaultMaxBodyBytes int64 = 1 << 20

// RespondJSON writes data as the whole response body
func RespondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// ParseJSONBody decodes a JSON request body with a size limit.
// Malformed or oversized bodies come back as VALIDATION errors.
func ParseJSONBody(w http.ResponseWriter, r *http.Request, v interface{}, maxBytes int64) error {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBodyBytes
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return apperrors.NewValidationError(fmt.Sprintf("request body exceeds %d bytes", maxBytes))
		case errors.Is(err, io.EOF):
			return apperrors.NewValidationError("request body is required")
		default:
			return apperrors.NewValidationError("invalid request body").WithCause(err)
		}
	}
	return nil
}

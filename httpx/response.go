// Package httpx holds the JSON response helpers shared by every handler.
package httpx

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/mycoll/marketplace/internal/apperr"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Details any    `json:"details,omitempty"`
}

func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	var body []byte
	var err error
	if payload != nil {
		body, err = json.Marshal(payload)
		if err != nil {
			// avoid writing partial JSON
			http.Error(w, `{"error":"encode_error"}`, http.StatusInternalServerError)
			return
		}
	} else {
		body = []byte("null")
	}
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func JSONError(w http.ResponseWriter, status int, code string, details any) {
	JSON(w, status, ErrorResponse{Error: code, Details: details})
}

// NoContent writes a bare 204.
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// StatusFor maps an error kind onto its HTTP status.
func StatusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// WriteError renders err as a JSON error body. Classified errors expose their
// code and message under their own status, or the one their kind maps to;
// anything else is reported as a generic internal error.
func WriteError(w http.ResponseWriter, err error) {
	e, ok := apperr.As(err)
	if !ok {
		JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	status := StatusFor(e.Kind)
	if e.Status != 0 {
		status = e.Status
	}
	JSON(w, status, ErrorResponse{Error: e.Code, Message: err.Error(), Details: e.Details})
}

// ErrInvalidJSON is returned by DecodeJSON for malformed bodies.
var ErrInvalidJSON = apperr.Validation("invalid_json", "request body is not valid JSON")

// DecodeJSON decodes the request body into dst, rejecting unknown fields.
func DecodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return ErrInvalidJSON.Withf("empty body")
		}
		return ErrInvalidJSON.Withf("%v", err)
	}
	return nil
}

// ErrInvalidID is returned by PathID when a path segment is not a positive integer.
var ErrInvalidID = apperr.Validation("invalid_id", "invalid id")

// PathID parses the named path value as a positive integer id.
func PathID(r *http.Request, name string) (uint, error) {
	n, err := strconv.ParseUint(r.PathValue(name), 10, 64)
	if err != nil || n == 0 {
		return 0, ErrInvalidID.Withf("%s=%q", name, r.PathValue(name))
	}
	return uint(n), nil
}

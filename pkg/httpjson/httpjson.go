// Package httpjson contains the small JSON request/response helpers shared by
// the HTTP handlers of every module.
package httpjson

import (
	"encoding/json"
	"errors"
	"net/http"
)

// maxBodyBytes caps request bodies to keep malformed or hostile payloads cheap.
const maxBodyBytes = 1 << 20

// ErrInvalidBody is returned by Decode for unreadable or malformed JSON bodies.
var ErrInvalidBody = errors.New("invalid request body")

type errorResponse struct {
	Error string `json:"error"`
}

// Write serializes v as JSON with the given status code. Encoding failures
// are silently dropped since headers are already written at that point.
func Write(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// Error writes a JSON error envelope with the given status code.
func Error(w http.ResponseWriter, status int, msg string) {
	Write(w, status, errorResponse{Error: msg})
}

// Decode reads a JSON request body into v, rejecting unknown fields and
// oversized payloads.
func Decode(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.Join(ErrInvalidBody, err)
	}
	return nil
}

package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/buemura/contractlens/internal/engine"
	"github.com/buemura/contractlens/internal/web/sessions"
)

// ErrorResponse is the standard error JSON body.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
	Kind  string `json:"kind,omitempty"`
}

// writeJSON encodes data as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg, Code: status})
}

// writeEngineError maps err onto a status code and writes it.
func writeEngineError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	resp := ErrorResponse{Error: err.Error(), Code: status}
	if code, ok := engine.CodeOf(err); ok {
		resp.Kind = string(code)
	}
	writeJSON(w, status, resp)
}

func statusFor(err error) int {
	if errors.Is(err, sessions.ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return http.StatusServiceUnavailable
	}
	code, ok := engine.CodeOf(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch code {
	case engine.CodeSourceTooLarge:
		return http.StatusRequestEntityTooLarge
	case engine.CodeEngineDisposed:
		return http.StatusGone
	case engine.CodeStaleFixTarget:
		return http.StatusConflict
	case engine.CodeAdapterUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nerrad567/gray-logic-bus/internal/bus"
	"github.com/nerrad567/gray-logic-bus/internal/replication"
	"github.com/nerrad567/gray-logic-bus/internal/rpc"
)

// Error represents a structured error response.
type Error struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes.
const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeNotFound         = "not_found"
	ErrCodeInternal         = "internal_error"
	ErrCodeUnknownMethod    = "unknown_method"
	ErrCodeInvalidArgument  = "invalid_argument"
	ErrCodeInvocationFailed = "invocation_failed"
	ErrCodeUnsupported      = "unsupported"
	ErrCodeUnavailable      = "unavailable"
	ErrCodeTimeout          = "timeout"
)

// writeJSON writes a JSON response with the given status code and payload.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // Best-effort write to response; connection may be closed
		json.NewEncoder(w).Encode(v)
	}
}

// writeError writes a structured error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, Error{
		Status:  status,
		Code:    code,
		Message: message,
	})
}

func writeBadRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

func writeNotFound(w http.ResponseWriter, message string) {
	writeError(w, http.StatusNotFound, ErrCodeNotFound, message)
}

func writeInternalError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusInternalServerError, ErrCodeInternal, message)
}

// writeBusError maps invocation and mutation errors to responses.
func writeBusError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, rpc.ErrUnknownMethod):
		writeError(w, http.StatusNotFound, ErrCodeUnknownMethod, err.Error())
	case errors.Is(err, rpc.ErrInvalidArgument), errors.Is(err, replication.ErrInvalidMessage):
		writeError(w, http.StatusBadRequest, ErrCodeInvalidArgument, err.Error())
	case errors.Is(err, bus.ErrDeviceNotFound), errors.Is(err, replication.ErrNoBlock):
		writeNotFound(w, err.Error())
	case errors.Is(err, replication.ErrUnsupportedTarget):
		writeError(w, http.StatusConflict, ErrCodeUnsupported, err.Error())
	case errors.Is(err, bus.ErrLoopStopped):
		writeError(w, http.StatusServiceUnavailable, ErrCodeUnavailable, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, ErrCodeTimeout, err.Error())
	case errors.Is(err, rpc.ErrInvocationFailed):
		writeError(w, http.StatusUnprocessableEntity, ErrCodeInvocationFailed, err.Error())
	default:
		writeInternalError(w, err.Error())
	}
}

package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/marshalhq/marshals-api/internal/domain"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message   string `json:"message,omitempty"`
	Error     string `json:"error,omitempty"`
	ErrorCode int    `json:"error_code,omitempty"`
}

// CapacityEnvelope is the 409 payload for refused approvals: the error text
// plus the reconciled counts so the client can render the current state.
type CapacityEnvelope struct {
	Error    string                `json:"error"`
	Capacity *domain.CapacityError `json:"capacity"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg})
}

// httpError maps domain errors to HTTP status codes. Anything unrecognized
// is a 500 with a generic message so infrastructure detail never leaks.
func httpError(w http.ResponseWriter, err error) {
	var capErr *domain.CapacityError
	if errors.As(err, &capErr) {
		writeJSON(w, http.StatusConflict, CapacityEnvelope{Error: capErr.Error(), Capacity: capErr})
		return
	}
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrBadRequest):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

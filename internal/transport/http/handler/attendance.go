package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/marshalhq/marshals-api/internal/application/attendance"
	"github.com/marshalhq/marshals-api/internal/domain"
	"github.com/marshalhq/marshals-api/internal/pkg/validate"
	"github.com/marshalhq/marshals-api/internal/transport/http/middleware"
)

// AttendanceHandler handles the attendance request workflow endpoints.
type AttendanceHandler struct {
	svc attendance.Service
}

func NewAttendanceHandler(svc attendance.Service) *AttendanceHandler {
	return &AttendanceHandler{svc: svc}
}

// Register creates a pending request for the authenticated marshal.
func (h *AttendanceHandler) Register(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req domain.RegisterAttendanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	created, err := h.svc.Register(r.Context(), claims.MarshalID, chi.URLParam(r, "id"), req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// Decide executes the admin approve/reject transition. A refused approval
// returns 409 with the reconciled capacity counts.
func (h *AttendanceHandler) Decide(w http.ResponseWriter, r *http.Request) {
	var req domain.DecideAttendanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	decided, err := h.svc.Decide(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, decided)
}

func (h *AttendanceHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req domain.CancelAttendanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	cancelled, err := h.svc.Cancel(r.Context(), chi.URLParam(r, "id"), claims.MarshalID, req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cancelled)
}

// Get returns a single request. Marshals may only read their own; admins
// may read any.
func (h *AttendanceHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	req, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, err)
		return
	}
	if req.MarshalID != claims.MarshalID && claims.Role != domain.RoleAdmin {
		writeError(w, http.StatusForbidden, "request belongs to another marshal")
		return
	}
	writeJSON(w, http.StatusOK, req)
}

// ListByEvent returns an event's requests, optionally filtered by ?status=.
func (h *AttendanceHandler) ListByEvent(w http.ResponseWriter, r *http.Request) {
	requests, err := h.svc.ListByEvent(r.Context(), chi.URLParam(r, "id"), r.URL.Query().Get("status"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, requests)
}

// ListMine returns the authenticated marshal's own requests.
func (h *AttendanceHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	requests, err := h.svc.ListByMarshal(r.Context(), claims.MarshalID)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, requests)
}

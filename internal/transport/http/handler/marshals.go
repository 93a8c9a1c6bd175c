package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/marshalhq/marshals-api/internal/application/marshal"
	"github.com/marshalhq/marshals-api/internal/domain"
	"github.com/marshalhq/marshals-api/internal/pkg/validate"
	"github.com/marshalhq/marshals-api/internal/transport/http/middleware"
)

// MarshalHandler handles marshal registry endpoints.
type MarshalHandler struct {
	svc marshal.Service
}

func NewMarshalHandler(svc marshal.Service) *MarshalHandler {
	return &MarshalHandler{svc: svc}
}

func (h *MarshalHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateMarshalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	m, err := h.svc.Register(r.Context(), req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (h *MarshalHandler) List(w http.ResponseWriter, r *http.Request) {
	marshals, err := h.svc.List(r.Context())
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, marshals)
}

func (h *MarshalHandler) Get(w http.ResponseWriter, r *http.Request) {
	m, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// Update allows a marshal to edit their own profile; admins may edit anyone.
// Role and enable changes are admin-only regardless of target.
func (h *MarshalHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	targetID := chi.URLParam(r, "id")
	isAdmin := claims.Role == domain.RoleAdmin
	if claims.MarshalID != targetID && !isAdmin {
		writeError(w, http.StatusForbidden, "cannot update another marshal")
		return
	}
	var req domain.UpdateMarshalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if (req.Role != nil || req.Enable != nil) && !isAdmin {
		writeError(w, http.StatusForbidden, "role and enable changes require admin")
		return
	}
	m, err := h.svc.Update(r.Context(), targetID, req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (h *MarshalHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "marshal deleted"})
}

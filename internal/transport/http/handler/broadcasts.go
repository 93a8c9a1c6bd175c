package handler

import (
	"encoding/json"
	"net/http"

	"github.com/marshalhq/marshals-api/internal/application/broadcast"
	"github.com/marshalhq/marshals-api/internal/application/notifier"
	"github.com/marshalhq/marshals-api/internal/domain"
	"github.com/marshalhq/marshals-api/internal/pkg/validate"
	"github.com/marshalhq/marshals-api/internal/transport/http/middleware"
)

// BroadcastHandler handles admin broadcast endpoints.
type BroadcastHandler struct {
	svc broadcast.Service
}

func NewBroadcastHandler(svc broadcast.Service) *BroadcastHandler {
	return &BroadcastHandler{svc: svc}
}

// BroadcastEnvelope returns the audit record alongside the delivery report.
type BroadcastEnvelope struct {
	Broadcast *domain.BroadcastMessage `json:"broadcast"`
	Report    *notifier.Report         `json:"report"`
}

func (h *BroadcastHandler) Send(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req domain.SendBroadcastRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	record, report, err := h.svc.Send(r.Context(), claims.MarshalID, req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, BroadcastEnvelope{Broadcast: record, Report: report})
}

func (h *BroadcastHandler) History(w http.ResponseWriter, r *http.Request) {
	history, err := h.svc.History(r.Context())
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}

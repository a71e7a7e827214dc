package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/bentwick/crewcal/internal/push"
	"github.com/bentwick/crewcal/internal/store"
	"github.com/bentwick/crewcal/internal/tenantctx"
)

type PushHandler struct {
	pushStore   *store.PushStore
	technicians *store.TechnicianStore
	service     *push.Service
	logger      *slog.Logger
}

func NewPushHandler(ps *store.PushStore, ts *store.TechnicianStore, svc *push.Service, logger *slog.Logger) *PushHandler {
	return &PushHandler{pushStore: ps, technicians: ts, service: svc, logger: logger}
}

type subscribeRequest struct {
	TechnicianID int64  `json:"technicianId"`
	Endpoint     string `json:"endpoint"`
	P256dh       string `json:"p256dh"`
	Auth         string `json:"auth"`
	DeviceName   string `json:"deviceName"`
}

// Subscribe handles POST /api/push/subscribe
func (h *PushHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	tenantID := tenantctx.TenantID(r.Context())

	var req subscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if req.Endpoint == "" || req.P256dh == "" || req.Auth == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "endpoint, p256dh, and auth are required"})
		return
	}

	tech, err := h.technicians.GetByID(tenantID, req.TechnicianID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to check technician"})
		return
	}
	if tech == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "technician not found"})
		return
	}

	sub, err := h.pushStore.CreateSubscription(tenantID, req.TechnicianID, req.Endpoint, req.P256dh, req.Auth, req.DeviceName)
	if err != nil {
		h.logger.Error("create push subscription", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to save subscription"})
		return
	}
	writeJSON(w, http.StatusCreated, sub)
}

// Unsubscribe handles DELETE /api/push/subscriptions/{id}
func (h *PushHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	if err := h.pushStore.DeleteSubscription(tenantctx.TenantID(r.Context()), id); err != nil {
		h.logger.Error("delete push subscription", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to delete subscription"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetVAPIDKey handles GET /api/push/vapid-key
func (h *PushHandler) GetVAPIDKey(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"public_key": h.service.VAPIDPublicKey()})
}

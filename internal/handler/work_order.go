package handler

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bentwick/crewcal/internal/model"
	"github.com/bentwick/crewcal/internal/store"
	"github.com/bentwick/crewcal/internal/tenantctx"
)

type WorkOrderHandler struct {
	workOrders *store.WorkOrderStore
	customers  *store.CustomerStore
}

func NewWorkOrderHandler(ws *store.WorkOrderStore, cs *store.CustomerStore) *WorkOrderHandler {
	return &WorkOrderHandler{workOrders: ws, customers: cs}
}

type workOrderRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	CustomerID  *int64 `json:"customerId"`
}

// newWorkOrderNumber mints a short human-opaque reference like WO-9F2C41D7.
func newWorkOrderNumber() string {
	return "WO-" + strings.ToUpper(uuid.NewString()[:8])
}

func (h *WorkOrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req workOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "title is required"})
		return
	}
	tenantID := tenantctx.TenantID(r.Context())

	if req.CustomerID != nil {
		customer, err := h.customers.GetByID(tenantID, *req.CustomerID)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to check customer"})
			return
		}
		if customer == nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "customer not found"})
			return
		}
	}

	order, err := h.workOrders.Create(tenantID, newWorkOrderNumber(), req.CustomerID, req.Title, req.Description)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create work order"})
		return
	}
	writeJSON(w, http.StatusCreated, order)
}

func (h *WorkOrderHandler) List(w http.ResponseWriter, r *http.Request) {
	orders, err := h.workOrders.List(tenantctx.TenantID(r.Context()))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list work orders"})
		return
	}
	if orders == nil {
		orders = []model.WorkOrder{}
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *WorkOrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	order, err := h.workOrders.GetByID(tenantctx.TenantID(r.Context()), id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get work order"})
		return
	}
	if order == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "work order not found"})
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *WorkOrderHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}
	tenantID := tenantctx.TenantID(r.Context())

	existing, err := h.workOrders.GetByID(tenantID, id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get work order"})
		return
	}
	if existing == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "work order not found"})
		return
	}

	var req workOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "title is required"})
		return
	}

	order, err := h.workOrders.Update(tenantID, id, req.Title, req.Description, req.CustomerID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update work order"})
		return
	}
	writeJSON(w, http.StatusOK, order)
}

type workOrderStatusRequest struct {
	Status model.WorkOrderStatus `json:"status"`
}

// UpdateStatus is the manual override for dispatchers; the calendar
// engine drives the same store mutation when visits change.
func (h *WorkOrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}
	tenantID := tenantctx.TenantID(r.Context())

	existing, err := h.workOrders.GetByID(tenantID, id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get work order"})
		return
	}
	if existing == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "work order not found"})
		return
	}

	var req workOrderStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	var scheduledFor, completedAt *time.Time
	switch req.Status {
	case model.WorkOrderStatusPending, model.WorkOrderStatusCancelled:
	case model.WorkOrderStatusScheduled:
		scheduledFor = existing.ScheduledFor
	case model.WorkOrderStatusCompleted:
		now := time.Now().UTC()
		scheduledFor = existing.ScheduledFor
		completedAt = &now
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid status"})
		return
	}

	if err := h.workOrders.UpdateStatus(tenantID, id, req.Status, scheduledFor, completedAt); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update status"})
		return
	}
	order, err := h.workOrders.GetByID(tenantID, id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get work order"})
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *WorkOrderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}
	if err := h.workOrders.Delete(tenantctx.TenantID(r.Context()), id); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to delete work order"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

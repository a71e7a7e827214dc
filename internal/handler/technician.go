package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/bentwick/crewcal/internal/model"
	"github.com/bentwick/crewcal/internal/store"
	"github.com/bentwick/crewcal/internal/tenantctx"
)

type TechnicianHandler struct {
	technicians *store.TechnicianStore
}

func NewTechnicianHandler(ts *store.TechnicianStore) *TechnicianHandler {
	return &TechnicianHandler{technicians: ts}
}

type technicianRequest struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Phone  string `json:"phone"`
	Active *bool  `json:"active"`
}

func (h *TechnicianHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req technicianRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}

	tech, err := h.technicians.Create(tenantctx.TenantID(r.Context()), req.Name, req.Email, req.Phone)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create technician"})
		return
	}
	writeJSON(w, http.StatusCreated, tech)
}

func (h *TechnicianHandler) List(w http.ResponseWriter, r *http.Request) {
	techs, err := h.technicians.List(tenantctx.TenantID(r.Context()))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list technicians"})
		return
	}
	if techs == nil {
		techs = []model.Technician{}
	}
	writeJSON(w, http.StatusOK, techs)
}

func (h *TechnicianHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	tech, err := h.technicians.GetByID(tenantctx.TenantID(r.Context()), id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get technician"})
		return
	}
	if tech == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "technician not found"})
		return
	}
	writeJSON(w, http.StatusOK, tech)
}

func (h *TechnicianHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}
	tenantID := tenantctx.TenantID(r.Context())

	existing, err := h.technicians.GetByID(tenantID, id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get technician"})
		return
	}
	if existing == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "technician not found"})
		return
	}

	var req technicianRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}
	active := existing.Active
	if req.Active != nil {
		active = *req.Active
	}

	tech, err := h.technicians.Update(tenantID, id, req.Name, req.Email, req.Phone, active)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update technician"})
		return
	}
	writeJSON(w, http.StatusOK, tech)
}

func (h *TechnicianHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}
	if err := h.technicians.Delete(tenantctx.TenantID(r.Context()), id); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to delete technician"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

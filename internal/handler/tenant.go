package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/bentwick/crewcal/internal/store"
)

// TenantHandler provisions tenants. It sits outside the tenant-scoped
// middleware chain.
type TenantHandler struct {
	tenants *store.TenantStore
}

func NewTenantHandler(ts *store.TenantStore) *TenantHandler {
	return &TenantHandler{tenants: ts}
}

func (h *TenantHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}

	tenant, err := h.tenants.Create(req.Name)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create tenant"})
		return
	}
	writeJSON(w, http.StatusCreated, tenant)
}

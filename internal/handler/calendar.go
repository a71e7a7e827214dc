package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/bentwick/crewcal/internal/calendar"
	"github.com/bentwick/crewcal/internal/model"
	"github.com/bentwick/crewcal/internal/store"
	"github.com/bentwick/crewcal/internal/tenantctx"
)

type CalendarHandler struct {
	svc    *calendar.Service
	logger *slog.Logger
}

func NewCalendarHandler(svc *calendar.Service, logger *slog.Logger) *CalendarHandler {
	return &CalendarHandler{svc: svc, logger: logger.With("component", "calendar_handler")}
}

func (h *CalendarHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req calendar.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if req.Title == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "title is required"})
		return
	}
	if req.Date == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "date is required"})
		return
	}

	result, err := h.svc.CreateOccurrence(r.Context(), tenantctx.TenantID(r.Context()), req)
	if err != nil {
		h.logger.Error("create occurrence failed", "error", err)
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (h *CalendarHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.OccurrenceFilter{
		DateFrom: q.Get("from"),
		DateTo:   q.Get("to"),
		Status:   model.OccurrenceStatus(q.Get("status")),
	}
	if s := q.Get("technician"); s != "" {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "technician must be an id"})
			return
		}
		filter.TechnicianID = id
	}
	if s := q.Get("customer"); s != "" {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "customer must be an id"})
			return
		}
		filter.CustomerID = id
	}
	if q.Get("includeCompleted") == "true" {
		filter.IncludeCompleted = true
	}

	occurrences, err := h.svc.ListOccurrences(r.Context(), tenantctx.TenantID(r.Context()), filter)
	if err != nil {
		h.logger.Error("list occurrences failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list occurrences"})
		return
	}
	if occurrences == nil {
		occurrences = []model.Occurrence{}
	}
	writeJSON(w, http.StatusOK, occurrences)
}

func (h *CalendarHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	occ, err := h.svc.GetOccurrence(r.Context(), tenantctx.TenantID(r.Context()), id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get occurrence"})
		return
	}
	if occ == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "occurrence not found", "code": "occurrence_not_found"})
		return
	}
	writeJSON(w, http.StatusOK, occ)
}

func (h *CalendarHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}
	scope, err := calendar.ParseScope(r.URL.Query().Get("scope"))
	if err != nil {
		writeEngineError(w, err)
		return
	}

	var patch calendar.UpdatePatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	occ, err := h.svc.UpdateOccurrence(r.Context(), tenantctx.TenantID(r.Context()), id, patch, scope)
	if err != nil {
		h.logger.Error("update occurrence failed", "error", err, "id", id, "scope", scope)
		writeEngineError(w, err)
		return
	}
	if occ == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "occurrence not found", "code": "occurrence_not_found"})
		return
	}
	writeJSON(w, http.StatusOK, occ)
}

func (h *CalendarHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}
	scope, err := calendar.ParseScope(r.URL.Query().Get("scope"))
	if err != nil {
		writeEngineError(w, err)
		return
	}

	result, err := h.svc.DeleteOccurrence(r.Context(), tenantctx.TenantID(r.Context()), id, scope)
	if err != nil {
		h.logger.Error("delete occurrence failed", "error", err, "id", id, "scope", scope)
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

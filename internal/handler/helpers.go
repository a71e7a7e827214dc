package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/bentwick/crewcal/internal/calendar"
)

func parseIDParam(r *http.Request) (int64, error) {
	idStr := r.PathValue("id")
	return strconv.ParseInt(idStr, 10, 64)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeEngineError maps calendar engine errors onto the JSON error
// envelope with their stable code. Anything without a code is a 500.
func writeEngineError(w http.ResponseWriter, err error) {
	if code := calendar.Code(err); code != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error(), "code": code})
		return
	}
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
}

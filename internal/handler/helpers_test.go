package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bentwick/crewcal/internal/calendar"
	"github.com/bentwick/crewcal/internal/recurrence"
)

func TestWriteEngineErrorCodes(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{"invalid date range", recurrence.ErrInvalidDateRange, "invalid_date_range"},
		{"recurrence too long", recurrence.ErrRecurrenceTooLong, "recurrence_too_long"},
		{"invalid participants", calendar.ErrInvalidParticipants, "invalid_participants"},
		{"occurrence not found", calendar.ErrOccurrenceNotFound, "occurrence_not_found"},
		{"invalid scope", calendar.ErrInvalidScope, "invalid_scope"},
		{"invalid transition", calendar.ErrInvalidTransition, "invalid_transition"},
		{"invalid time window", calendar.ErrInvalidTimeWindow, "invalid_time_window"},
		{"wrapped", fmt.Errorf("expand: %w", recurrence.ErrRecurrenceTooLong), "recurrence_too_long"},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		writeEngineError(rec, tt.err)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", tt.name, rec.Code)
		}
		var body map[string]string
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("%s: unmarshal: %v", tt.name, err)
		}
		if body["code"] != tt.wantCode {
			t.Errorf("%s: code = %q, want %q", tt.name, body["code"], tt.wantCode)
		}
	}
}

func TestWriteEngineErrorUnknown(t *testing.T) {
	rec := httptest.NewRecorder()
	writeEngineError(rec, errors.New("disk on fire"))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	// Internal details never leak into the response
	if body["error"] != "internal error" {
		t.Errorf("error = %q, want generic message", body["error"])
	}
}

func TestParseIDParam(t *testing.T) {
	mux := http.NewServeMux()
	var gotID int64
	var gotErr error
	mux.HandleFunc("GET /api/calendar/{id}", func(w http.ResponseWriter, r *http.Request) {
		gotID, gotErr = parseIDParam(r)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/calendar/42", nil)
	mux.ServeHTTP(httptest.NewRecorder(), req)
	if gotErr != nil {
		t.Fatalf("parse id: %v", gotErr)
	}
	if gotID != 42 {
		t.Errorf("id = %d, want 42", gotID)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/calendar/forty-two", nil)
	mux.ServeHTTP(httptest.NewRecorder(), req)
	if gotErr == nil {
		t.Error("expected error for non-numeric id")
	}
}

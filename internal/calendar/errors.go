package calendar

import (
	"errors"

	"github.com/bentwick/crewcal/internal/recurrence"
)

var (
	// ErrInvalidParticipants means a customer or technician id on the
	// request does not resolve within the tenant.
	ErrInvalidParticipants = errors.New("invalid participants")

	// ErrOccurrenceNotFound means a scoped mutation targeted an id that
	// does not exist for the tenant.
	ErrOccurrenceNotFound = errors.New("occurrence not found")

	// ErrInvalidScope means the scope keyword was not single, future or all.
	ErrInvalidScope = errors.New("invalid scope")

	// ErrInvalidTransition means a status patch tried to move an
	// occurrence out of a terminal state (completed or cancelled).
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrInvalidTimeWindow means start_time is not before end_time.
	ErrInvalidTimeWindow = errors.New("invalid time window")
)

// Code maps an engine error to its stable machine code, or "" when the
// error is not one of ours.
func Code(err error) string {
	switch {
	case errors.Is(err, recurrence.ErrInvalidDateRange):
		return "invalid_date_range"
	case errors.Is(err, recurrence.ErrRecurrenceTooLong):
		return "recurrence_too_long"
	case errors.Is(err, recurrence.ErrInvalidFrequency):
		return "invalid_frequency"
	case errors.Is(err, recurrence.ErrInvalidWeekday):
		return "invalid_weekday"
	case errors.Is(err, ErrInvalidParticipants):
		return "invalid_participants"
	case errors.Is(err, ErrOccurrenceNotFound):
		return "occurrence_not_found"
	case errors.Is(err, ErrInvalidScope):
		return "invalid_scope"
	case errors.Is(err, ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, ErrInvalidTimeWindow):
		return "invalid_time_window"
	}
	return ""
}

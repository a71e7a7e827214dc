package calendar

import (
	"time"

	"github.com/bentwick/crewcal/internal/model"
	"github.com/bentwick/crewcal/internal/recurrence"
)

// SyncEvent is an occurrence-side change that may have to be mirrored
// onto a linked work order.
type SyncEvent int

const (
	EventLinked SyncEvent = iota
	EventCompleted
	EventDeleted
	EventCancelled
)

// SyncDecision is the work-order mutation a sync event calls for.
type SyncDecision struct {
	Status       model.WorkOrderStatus
	ScheduledFor *time.Time
	CompletedAt  *time.Time
}

// ResolveSync is the pure decision table keeping work orders in step with
// their occurrences. A nil decision means the work order stays untouched.
//
//	linked / re-linked  -> scheduled, stamped with the visit's date+time
//	completed (linked)  -> completed
//	deleted             -> back to pending, but only from scheduled
//	cancelled           -> nothing; cancellation policy is the caller's call
func ResolveSync(event SyncEvent, order *model.WorkOrder, occ *model.Occurrence, now time.Time) *SyncDecision {
	if order == nil {
		return nil
	}

	switch event {
	case EventLinked:
		at := VisitTime(occ.Date, occ.StartTime)
		return &SyncDecision{Status: model.WorkOrderStatusScheduled, ScheduledFor: &at}
	case EventCompleted:
		at := now.UTC()
		return &SyncDecision{Status: model.WorkOrderStatusCompleted, ScheduledFor: order.ScheduledFor, CompletedAt: &at}
	case EventDeleted:
		if order.Status != model.WorkOrderStatusScheduled {
			return nil
		}
		return &SyncDecision{Status: model.WorkOrderStatusPending}
	case EventCancelled:
		return nil
	}
	return nil
}

// VisitTime combines a calendar day and an optional "HH:MM" start time
// into a UTC timestamp for work-order scheduling.
func VisitTime(date, startTime string) time.Time {
	if startTime != "" {
		if t, err := time.Parse(recurrence.DateLayout+" 15:04", date+" "+startTime); err == nil {
			return t.UTC()
		}
	}
	t, err := time.Parse(recurrence.DateLayout, date)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}

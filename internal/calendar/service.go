package calendar

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bentwick/crewcal/internal/model"
	"github.com/bentwick/crewcal/internal/recurrence"
	"github.com/bentwick/crewcal/internal/store"
	"github.com/bentwick/crewcal/internal/tenantctx"
)

// Broadcaster pushes a calendar mutation out to connected clients.
type Broadcaster interface {
	Broadcast(tenantID int64, event string, payload any)
}

// Notifier delivers a push notification about an occurrence to the
// given technicians.
type Notifier interface {
	Notify(tenantID int64, notifType string, technicianIDs []int64, occ *model.Occurrence)
}

// Service is the calendar engine: occurrence CRUD with recurrence
// expansion, scoped series mutation, and work-order synchronization.
// All methods are synchronous and tenant-scoped.
type Service struct {
	occurrences *store.OccurrenceStore
	series      *store.SeriesStore
	workOrders  *store.WorkOrderStore
	customers   *store.CustomerStore
	technicians *store.TechnicianStore
	hub         Broadcaster
	notifier    Notifier
	logger      *slog.Logger
	now         func() time.Time
}

func NewService(
	occurrences *store.OccurrenceStore,
	series *store.SeriesStore,
	workOrders *store.WorkOrderStore,
	customers *store.CustomerStore,
	technicians *store.TechnicianStore,
	hub Broadcaster,
	notifier Notifier,
	logger *slog.Logger,
) *Service {
	return &Service{
		occurrences: occurrences,
		series:      series,
		workOrders:  workOrders,
		customers:   customers,
		technicians: technicians,
		hub:         hub,
		notifier:    notifier,
		logger:      logger.With("component", "calendar"),
		now:         time.Now,
	}
}

// RecurringConfig describes the repetition of a new series. The start
// date is the occurrence's own date.
type RecurringConfig struct {
	Frequency  string `json:"frequency"`
	Interval   int    `json:"interval"`
	DaysOfWeek []int  `json:"daysOfWeek"`
	UntilDate  string `json:"untilDate"`
}

type CreateRequest struct {
	Date          string           `json:"date"`
	StartTime     string           `json:"startTime"`
	EndTime       string           `json:"endTime"`
	CustomerID    int64            `json:"customerId"`
	TechnicianIDs []int64          `json:"technicianIds"`
	Title         string           `json:"title"`
	Description   string           `json:"description"`
	WorkOrderID   *int64           `json:"workOrderId"`
	Recurring     *RecurringConfig `json:"recurring"`
}

type CreateResult struct {
	Occurrences []model.Occurrence  `json:"occurrences"`
	Series      *model.SeriesConfig `json:"series,omitempty"`
}

// CreateOccurrence creates one standalone occurrence, or a whole series
// when a recurring config is present. Every series row shares the
// payload, crew and time-of-day; only the date varies. A linked work
// order moves to scheduled, stamped with the first visit.
func (s *Service) CreateOccurrence(ctx context.Context, tenantID int64, req CreateRequest) (*CreateResult, error) {
	if err := validateWindow(req.StartTime, req.EndTime); err != nil {
		return nil, err
	}
	if err := s.validateParticipants(tenantID, req.CustomerID, req.TechnicianIDs); err != nil {
		return nil, err
	}
	if req.WorkOrderID != nil {
		order, err := s.workOrders.GetByID(tenantID, *req.WorkOrderID)
		if err != nil {
			return nil, err
		}
		if order == nil {
			return nil, fmt.Errorf("%w: work order %d", ErrInvalidParticipants, *req.WorkOrderID)
		}
	}

	actor := tenantctx.Actor(ctx)
	result := &CreateResult{}

	dates := []string{req.Date}
	if req.Recurring != nil {
		rule, err := recurrence.NewRule(req.Recurring.Frequency, req.Recurring.Interval, req.Recurring.DaysOfWeek, req.Date, req.Recurring.UntilDate)
		if err != nil {
			return nil, err
		}
		dates, err = recurrence.Expand(rule)
		if err != nil {
			return nil, err
		}

		series, err := s.series.Create(tenantID, req.Recurring.Frequency, rule.Interval, req.Recurring.DaysOfWeek, req.Date, req.Recurring.UntilDate, actor)
		if err != nil {
			return nil, err
		}
		result.Series = series
	} else {
		if _, err := time.Parse(recurrence.DateLayout, req.Date); err != nil {
			return nil, fmt.Errorf("parse date %q: %w", req.Date, err)
		}
	}

	var seriesID *int64
	if result.Series != nil {
		seriesID = &result.Series.ID
	}

	for _, date := range dates {
		occ, err := s.occurrences.Create(&model.Occurrence{
			TenantID:      tenantID,
			Date:          date,
			StartTime:     req.StartTime,
			EndTime:       req.EndTime,
			CustomerID:    req.CustomerID,
			TechnicianIDs: req.TechnicianIDs,
			Title:         req.Title,
			Description:   req.Description,
			Status:        model.OccurrenceStatusScheduled,
			WorkOrderID:   req.WorkOrderID,
			SeriesID:      seriesID,
			CreatedBy:     actor,
			UpdatedBy:     actor,
		})
		if err != nil {
			return nil, fmt.Errorf("create occurrence %s: %w", date, err)
		}
		result.Occurrences = append(result.Occurrences, *occ)
	}

	if req.WorkOrderID != nil && len(result.Occurrences) > 0 {
		if err := s.applySync(tenantID, *req.WorkOrderID, EventLinked, &result.Occurrences[0]); err != nil {
			return nil, err
		}
	}

	s.logger.Info("occurrences created", "tenant_id", tenantID, "count", len(result.Occurrences), "series", result.Series != nil)

	s.broadcast(tenantID, "occurrence.created", result)
	if len(result.Occurrences) > 0 {
		s.notify(tenantID, model.NotifTypeVisitAssigned, req.TechnicianIDs, &result.Occurrences[0])
	}
	return result, nil
}

func (s *Service) GetOccurrence(ctx context.Context, tenantID, id int64) (*model.Occurrence, error) {
	return s.occurrences.GetByID(tenantID, id)
}

func (s *Service) ListOccurrences(ctx context.Context, tenantID int64, f store.OccurrenceFilter) ([]model.Occurrence, error) {
	return s.occurrences.List(tenantID, f)
}

// UpdatePatch carries the fields of a scoped update. Nil pointers leave
// the stored value alone.
type UpdatePatch struct {
	Date            *string                 `json:"date"`
	StartTime       *string                 `json:"startTime"`
	EndTime         *string                 `json:"endTime"`
	CustomerID      *int64                  `json:"customerId"`
	TechnicianIDs   *[]int64                `json:"technicianIds"`
	Title           *string                 `json:"title"`
	Description     *string                 `json:"description"`
	Status          *model.OccurrenceStatus `json:"status"`
	CompletionNotes *string                 `json:"completionNotes"`
	WorkOrderID     *int64                  `json:"workOrderId"`
}

// UpdateOccurrence applies the patch to every occurrence the scope
// resolves to. A missing target returns (nil, nil); the caller decides
// how to surface that. The returned occurrence is the updated target.
func (s *Service) UpdateOccurrence(ctx context.Context, tenantID, id int64, patch UpdatePatch, scope Scope) (*model.Occurrence, error) {
	res, err := s.resolveScope(tenantID, id, scope)
	if err == ErrOccurrenceNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var customerID int64
	if patch.CustomerID != nil {
		customerID = *patch.CustomerID
	}
	var technicianIDs []int64
	if patch.TechnicianIDs != nil {
		technicianIDs = *patch.TechnicianIDs
	}
	if err := s.validateParticipants(tenantID, customerID, technicianIDs); err != nil {
		return nil, err
	}
	if patch.WorkOrderID != nil {
		order, err := s.workOrders.GetByID(tenantID, *patch.WorkOrderID)
		if err != nil {
			return nil, err
		}
		if order == nil {
			return nil, fmt.Errorf("%w: work order %d", ErrInvalidParticipants, *patch.WorkOrderID)
		}
	}

	actor := tenantctx.Actor(ctx)
	now := s.now().UTC()
	var target *model.Occurrence

	for i := range res.occurrences {
		row := res.occurrences[i]
		completing := false
		relinked := false

		if patch.Date != nil {
			row.Date = *patch.Date
		}
		if patch.StartTime != nil {
			row.StartTime = *patch.StartTime
		}
		if patch.EndTime != nil {
			row.EndTime = *patch.EndTime
		}
		if err := validateWindow(row.StartTime, row.EndTime); err != nil {
			return nil, fmt.Errorf("occurrence %d: %w", row.ID, err)
		}
		if patch.CustomerID != nil {
			row.CustomerID = *patch.CustomerID
		}
		if patch.TechnicianIDs != nil {
			row.TechnicianIDs = *patch.TechnicianIDs
		}
		if patch.Title != nil {
			row.Title = *patch.Title
		}
		if patch.Description != nil {
			row.Description = *patch.Description
		}
		if patch.CompletionNotes != nil {
			row.CompletionNotes = *patch.CompletionNotes
		}
		if patch.Status != nil && row.Status != *patch.Status {
			switch {
			case row.Status == model.OccurrenceStatusScheduled:
				row.Status = *patch.Status
				if *patch.Status == model.OccurrenceStatusCompleted {
					row.CompletedAt = &now
					row.CompletedBy = actor
					completing = true
				}
			case row.ID == id:
				// completed and cancelled are terminal
				return nil, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, row.Status, *patch.Status)
			default:
				// a bulk patch leaves terminal siblings where they are
			}
		}
		if patch.WorkOrderID != nil && (row.WorkOrderID == nil || *row.WorkOrderID != *patch.WorkOrderID) {
			row.WorkOrderID = patch.WorkOrderID
			relinked = true
		}
		row.UpdatedBy = actor

		updated, err := s.occurrences.Update(&row)
		if err != nil {
			return nil, fmt.Errorf("update occurrence %d: %w", row.ID, err)
		}

		// A patch can both re-link and complete; the link stamps the
		// scheduled slot first, then completion overrides the status.
		if row.WorkOrderID != nil {
			if relinked {
				if err := s.applySync(tenantID, *row.WorkOrderID, EventLinked, updated); err != nil {
					return nil, err
				}
			}
			if completing {
				if err := s.applySync(tenantID, *row.WorkOrderID, EventCompleted, updated); err != nil {
					return nil, err
				}
			}
		}

		if updated.ID == id {
			target = updated
		}
	}

	s.logger.Info("occurrences updated", "tenant_id", tenantID, "target_id", id, "scope", scope, "count", len(res.occurrences))
	s.broadcast(tenantID, "occurrence.updated", target)
	if patch.Status != nil && *patch.Status == model.OccurrenceStatusCancelled && target != nil {
		s.notify(tenantID, model.NotifTypeVisitCancelled, target.TechnicianIDs, target)
	}
	return target, nil
}

// DeleteResult reports whether anything was removed and how many rows
// went with it.
type DeleteResult struct {
	Deleted      bool `json:"deleted"`
	DeletedCount int  `json:"deletedCount"`
}

// DeleteOccurrence removes the occurrences the scope resolves to.
// Deleting a missing id is not an error; it reports {false, 0}. Linked
// work orders still in scheduled status revert to pending, and an
// all-scope delete removes the series config too.
func (s *Service) DeleteOccurrence(ctx context.Context, tenantID, id int64, scope Scope) (DeleteResult, error) {
	res, err := s.resolveScope(tenantID, id, scope)
	if err == ErrOccurrenceNotFound {
		return DeleteResult{}, nil
	}
	if err != nil {
		return DeleteResult{}, err
	}

	count := 0
	for i := range res.occurrences {
		row := res.occurrences[i]
		if row.WorkOrderID != nil {
			if err := s.applySync(tenantID, *row.WorkOrderID, EventDeleted, &row); err != nil {
				return DeleteResult{DeletedCount: count, Deleted: count > 0}, err
			}
		}
		removed, err := s.occurrences.Delete(tenantID, row.ID)
		if err != nil {
			return DeleteResult{DeletedCount: count, Deleted: count > 0}, err
		}
		if removed {
			count++
		}
	}

	if res.seriesID != nil {
		if err := s.series.Delete(tenantID, *res.seriesID); err != nil {
			return DeleteResult{DeletedCount: count, Deleted: count > 0}, err
		}
	}

	s.logger.Info("occurrences deleted", "tenant_id", tenantID, "target_id", id, "scope", scope, "count", count)
	s.broadcast(tenantID, "occurrence.deleted", map[string]any{"id": id, "deletedCount": count})
	s.notify(tenantID, model.NotifTypeVisitCancelled, res.target.TechnicianIDs, res.target)
	return DeleteResult{Deleted: count > 0, DeletedCount: count}, nil
}

// validateParticipants checks that the customer and every technician
// resolve within the tenant. A zero customer id means "no customer".
func (s *Service) validateParticipants(tenantID, customerID int64, technicianIDs []int64) error {
	if customerID != 0 {
		customer, err := s.customers.GetByID(tenantID, customerID)
		if err != nil {
			return err
		}
		if customer == nil {
			return fmt.Errorf("%w: customer %d", ErrInvalidParticipants, customerID)
		}
	}
	if len(technicianIDs) > 0 {
		techs, err := s.technicians.GetByIDs(tenantID, technicianIDs)
		if err != nil {
			return err
		}
		if len(techs) != len(uniqueIDs(technicianIDs)) {
			return fmt.Errorf("%w: unknown technician id", ErrInvalidParticipants)
		}
	}
	return nil
}

func (s *Service) applySync(tenantID, orderID int64, event SyncEvent, occ *model.Occurrence) error {
	order, err := s.workOrders.GetByID(tenantID, orderID)
	if err != nil {
		return err
	}
	decision := ResolveSync(event, order, occ, s.now())
	if decision == nil {
		return nil
	}
	return s.workOrders.UpdateStatus(tenantID, orderID, decision.Status, decision.ScheduledFor, decision.CompletedAt)
}

func (s *Service) broadcast(tenantID int64, event string, payload any) {
	if s.hub != nil {
		s.hub.Broadcast(tenantID, event, payload)
	}
}

func (s *Service) notify(tenantID int64, notifType string, technicianIDs []int64, occ *model.Occurrence) {
	if s.notifier != nil && len(technicianIDs) > 0 {
		s.notifier.Notify(tenantID, notifType, technicianIDs, occ)
	}
}

// timeLayout is the wire format for times of day.
const timeLayout = "15:04"

func validateWindow(start, end string) error {
	var from, to time.Time
	var err error
	if start != "" {
		if from, err = time.Parse(timeLayout, start); err != nil {
			return fmt.Errorf("%w: %q", ErrInvalidTimeWindow, start)
		}
	}
	if end != "" {
		if to, err = time.Parse(timeLayout, end); err != nil {
			return fmt.Errorf("%w: %q", ErrInvalidTimeWindow, end)
		}
	}
	if start != "" && end != "" && !from.Before(to) {
		return fmt.Errorf("%w: %s..%s", ErrInvalidTimeWindow, start, end)
	}
	return nil
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

package calendar

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/bentwick/crewcal/internal/database"
	"github.com/bentwick/crewcal/internal/model"
	"github.com/bentwick/crewcal/internal/recurrence"
	"github.com/bentwick/crewcal/internal/store"
	"github.com/bentwick/crewcal/internal/tenantctx"
)

type fixture struct {
	svc        *Service
	tenantID   int64
	customerID int64
	techIDs    []int64
	series     *store.SeriesStore
	workOrders *store.WorkOrderStore
}

func setupService(t *testing.T) *fixture {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	tenants := store.NewTenantStore(db)
	customers := store.NewCustomerStore(db)
	technicians := store.NewTechnicianStore(db)

	tenant, err := tenants.Create("Acme Field Services")
	if err != nil {
		t.Fatalf("create tenant: %v", err)
	}
	customer, err := customers.Create(tenant.ID, "Dana Whitfield", "dana@example.com", "555-0101", "12 Elm St")
	if err != nil {
		t.Fatalf("create customer: %v", err)
	}
	var techIDs []int64
	for _, name := range []string{"Marta Ruiz", "Joel Park"} {
		tech, err := technicians.Create(tenant.ID, name, name+"@example.com", "")
		if err != nil {
			t.Fatalf("create technician: %v", err)
		}
		techIDs = append(techIDs, tech.ID)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	series := store.NewSeriesStore(db)
	workOrders := store.NewWorkOrderStore(db)
	svc := NewService(store.NewOccurrenceStore(db), series, workOrders, customers, technicians, nil, nil, logger)

	return &fixture{
		svc:        svc,
		tenantID:   tenant.ID,
		customerID: customer.ID,
		techIDs:    techIDs,
		series:     series,
		workOrders: workOrders,
	}
}

func testCtx() context.Context {
	return tenantctx.WithRequest(context.Background(), tenantctx.RequestContext{TenantID: 1, Actor: "dispatcher"})
}

// weeklySeries creates the Mon/Wed/Fri January 2024 series used across
// the scope tests: 14 occurrences from 2024-01-01 through 2024-01-31.
func weeklySeries(t *testing.T, f *fixture) *CreateResult {
	t.Helper()
	result, err := f.svc.CreateOccurrence(testCtx(), f.tenantID, CreateRequest{
		Date:          "2024-01-01",
		StartTime:     "09:00",
		EndTime:       "10:00",
		CustomerID:    f.customerID,
		TechnicianIDs: f.techIDs,
		Title:         "Weekly maintenance",
		Recurring: &RecurringConfig{
			Frequency:  "weekly",
			Interval:   1,
			DaysOfWeek: []int{1, 3, 5},
			UntilDate:  "2024-01-31",
		},
	})
	if err != nil {
		t.Fatalf("create weekly series: %v", err)
	}
	return result
}

func TestCreateStandaloneOccurrence(t *testing.T) {
	f := setupService(t)

	result, err := f.svc.CreateOccurrence(testCtx(), f.tenantID, CreateRequest{
		Date:          "2024-06-03",
		StartTime:     "09:00",
		EndTime:       "10:30",
		CustomerID:    f.customerID,
		TechnicianIDs: f.techIDs,
		Title:         "Furnace inspection",
	})
	if err != nil {
		t.Fatalf("create occurrence: %v", err)
	}
	if len(result.Occurrences) != 1 {
		t.Fatalf("got %d occurrences, want 1", len(result.Occurrences))
	}
	if result.Series != nil {
		t.Error("expected no series config for a standalone occurrence")
	}
	occ := result.Occurrences[0]
	if occ.Status != model.OccurrenceStatusScheduled {
		t.Errorf("status = %q, want scheduled", occ.Status)
	}
	if occ.SeriesID != nil {
		t.Error("expected nil series id")
	}
	if occ.CreatedBy != "dispatcher" {
		t.Errorf("created_by = %q, want dispatcher", occ.CreatedBy)
	}
}

func TestCreateWeeklySeries(t *testing.T) {
	f := setupService(t)
	result := weeklySeries(t, f)

	if len(result.Occurrences) != 14 {
		t.Fatalf("got %d occurrences, want 14", len(result.Occurrences))
	}
	if result.Series == nil {
		t.Fatal("expected a series config")
	}
	if result.Occurrences[0].Date != "2024-01-01" {
		t.Errorf("first date = %q, want 2024-01-01", result.Occurrences[0].Date)
	}
	if result.Occurrences[13].Date != "2024-01-31" {
		t.Errorf("last date = %q, want 2024-01-31", result.Occurrences[13].Date)
	}
	for i, occ := range result.Occurrences {
		if occ.SeriesID == nil || *occ.SeriesID != result.Series.ID {
			t.Fatalf("occurrence %d not linked to series", i)
		}
		if occ.StartTime != "09:00" || occ.Title != "Weekly maintenance" {
			t.Fatalf("occurrence %d payload not shared: %q %q", i, occ.StartTime, occ.Title)
		}
		if i > 0 && occ.Date <= result.Occurrences[i-1].Date {
			t.Fatalf("dates not ascending at %d", i)
		}
	}
}

func TestCreateSeriesInvalidDateRange(t *testing.T) {
	f := setupService(t)

	_, err := f.svc.CreateOccurrence(testCtx(), f.tenantID, CreateRequest{
		Date:  "2024-06-10",
		Title: "Backwards",
		Recurring: &RecurringConfig{
			Frequency: "daily",
			UntilDate: "2024-06-01",
		},
	})
	if !errors.Is(err, recurrence.ErrInvalidDateRange) {
		t.Fatalf("err = %v, want ErrInvalidDateRange", err)
	}
	if Code(err) != "invalid_date_range" {
		t.Errorf("code = %q, want invalid_date_range", Code(err))
	}
}

func TestCreateSeriesTooLong(t *testing.T) {
	f := setupService(t)

	_, err := f.svc.CreateOccurrence(testCtx(), f.tenantID, CreateRequest{
		Date:  "2024-03-01",
		Title: "Marathon",
		Recurring: &RecurringConfig{
			Frequency: "daily",
			UntilDate: "2025-03-02",
		},
	})
	if !errors.Is(err, recurrence.ErrRecurrenceTooLong) {
		t.Fatalf("err = %v, want ErrRecurrenceTooLong", err)
	}
	if Code(err) != "recurrence_too_long" {
		t.Errorf("code = %q, want recurrence_too_long", Code(err))
	}
}

func TestCreateInvalidParticipants(t *testing.T) {
	f := setupService(t)

	_, err := f.svc.CreateOccurrence(testCtx(), f.tenantID, CreateRequest{
		Date:          "2024-06-03",
		Title:         "Ghost crew",
		TechnicianIDs: []int64{f.techIDs[0], 9999},
	})
	if !errors.Is(err, ErrInvalidParticipants) {
		t.Fatalf("err = %v, want ErrInvalidParticipants", err)
	}

	_, err = f.svc.CreateOccurrence(testCtx(), f.tenantID, CreateRequest{
		Date:       "2024-06-03",
		Title:      "Ghost customer",
		CustomerID: 9999,
	})
	if !errors.Is(err, ErrInvalidParticipants) {
		t.Fatalf("err = %v, want ErrInvalidParticipants for customer", err)
	}
	if Code(err) != "invalid_participants" {
		t.Errorf("code = %q, want invalid_participants", Code(err))
	}
}

func TestCreateLinkedWorkOrderScheduled(t *testing.T) {
	f := setupService(t)

	order, err := f.workOrders.Create(f.tenantID, "WO-1001", nil, "Replace water heater", "")
	if err != nil {
		t.Fatalf("create work order: %v", err)
	}

	result, err := f.svc.CreateOccurrence(testCtx(), f.tenantID, CreateRequest{
		Date:        "2024-06-03",
		StartTime:   "09:00",
		EndTime:     "11:00",
		Title:       "Install visit",
		WorkOrderID: &order.ID,
	})
	if err != nil {
		t.Fatalf("create occurrence: %v", err)
	}
	if result.Occurrences[0].WorkOrderID == nil || *result.Occurrences[0].WorkOrderID != order.ID {
		t.Fatal("occurrence not linked to work order")
	}

	got, err := f.workOrders.GetByID(f.tenantID, order.ID)
	if err != nil {
		t.Fatalf("get work order: %v", err)
	}
	if got.Status != model.WorkOrderStatusScheduled {
		t.Errorf("status = %q, want scheduled", got.Status)
	}
	want := VisitTime("2024-06-03", "09:00")
	if got.ScheduledFor == nil || !got.ScheduledFor.Equal(want) {
		t.Errorf("scheduled_for = %v, want %v", got.ScheduledFor, want)
	}
}

func TestCreateInvalidTimeWindow(t *testing.T) {
	f := setupService(t)

	_, err := f.svc.CreateOccurrence(testCtx(), f.tenantID, CreateRequest{
		Date:      "2024-06-03",
		StartTime: "11:00",
		EndTime:   "09:00",
		Title:     "Backwards window",
	})
	if !errors.Is(err, ErrInvalidTimeWindow) {
		t.Fatalf("err = %v, want ErrInvalidTimeWindow", err)
	}
}

func TestParseScope(t *testing.T) {
	tests := []struct {
		in      string
		want    Scope
		wantErr bool
	}{
		{"", ScopeSingle, false},
		{"single", ScopeSingle, false},
		{"future", ScopeFuture, false},
		{"all", ScopeAll, false},
		{"everything", "", true},
		{"SINGLE", "", true},
	}
	for _, tt := range tests {
		got, err := ParseScope(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidScope) {
				t.Errorf("ParseScope(%q) err = %v, want ErrInvalidScope", tt.in, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseScope(%q) err = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseScope(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDeleteSingleScope(t *testing.T) {
	f := setupService(t)
	series := weeklySeries(t, f)
	target := series.Occurrences[4]

	result, err := f.svc.DeleteOccurrence(testCtx(), f.tenantID, target.ID, ScopeSingle)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !result.Deleted || result.DeletedCount != 1 {
		t.Fatalf("result = %+v, want one row deleted", result)
	}

	remaining, err := f.svc.ListOccurrences(testCtx(), f.tenantID, store.OccurrenceFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(remaining) != 13 {
		t.Errorf("remaining = %d, want 13", len(remaining))
	}

	config, err := f.series.GetByID(f.tenantID, series.Series.ID)
	if err != nil {
		t.Fatalf("get series: %v", err)
	}
	if config == nil {
		t.Error("series config should survive a single delete")
	}
}

func TestDeleteFutureScope(t *testing.T) {
	f := setupService(t)
	series := weeklySeries(t, f)

	var target *model.Occurrence
	for i := range series.Occurrences {
		if series.Occurrences[i].Date == "2024-01-17" {
			target = &series.Occurrences[i]
		}
	}
	if target == nil {
		t.Fatal("expected an occurrence on 2024-01-17")
	}

	result, err := f.svc.DeleteOccurrence(testCtx(), f.tenantID, target.ID, ScopeFuture)
	if err != nil {
		t.Fatalf("delete future: %v", err)
	}
	if result.DeletedCount != 7 {
		t.Fatalf("deletedCount = %d, want 7", result.DeletedCount)
	}

	remaining, err := f.svc.ListOccurrences(testCtx(), f.tenantID, store.OccurrenceFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(remaining) != 7 {
		t.Fatalf("remaining = %d, want 7", len(remaining))
	}
	for _, occ := range remaining {
		if occ.Date >= "2024-01-17" {
			t.Errorf("occurrence on %s should have been deleted", occ.Date)
		}
	}

	config, err := f.series.GetByID(f.tenantID, series.Series.ID)
	if err != nil {
		t.Fatalf("get series: %v", err)
	}
	if config == nil {
		t.Error("series config should survive a future delete")
	}
}

func TestDeleteAllScope(t *testing.T) {
	f := setupService(t)
	series := weeklySeries(t, f)
	target := series.Occurrences[7]

	result, err := f.svc.DeleteOccurrence(testCtx(), f.tenantID, target.ID, ScopeAll)
	if err != nil {
		t.Fatalf("delete all: %v", err)
	}
	if result.DeletedCount != 14 {
		t.Fatalf("deletedCount = %d, want 14", result.DeletedCount)
	}

	remaining, err := f.svc.ListOccurrences(testCtx(), f.tenantID, store.OccurrenceFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(remaining) != 0 {
		t.Errorf("remaining = %d, want 0", len(remaining))
	}

	config, err := f.series.GetByID(f.tenantID, series.Series.ID)
	if err != nil {
		t.Fatalf("get series: %v", err)
	}
	if config != nil {
		t.Error("series config should be deleted with the whole series")
	}
}

func TestDeleteMissingIsIdempotent(t *testing.T) {
	f := setupService(t)

	result, err := f.svc.DeleteOccurrence(testCtx(), f.tenantID, 9999, ScopeSingle)
	if err != nil {
		t.Fatalf("delete missing: %v", err)
	}
	if result.Deleted || result.DeletedCount != 0 {
		t.Errorf("result = %+v, want {false, 0}", result)
	}
}

func TestDeleteRevertsScheduledWorkOrder(t *testing.T) {
	f := setupService(t)

	order, err := f.workOrders.Create(f.tenantID, "WO-2001", nil, "Repair", "")
	if err != nil {
		t.Fatalf("create work order: %v", err)
	}
	result, err := f.svc.CreateOccurrence(testCtx(), f.tenantID, CreateRequest{
		Date:        "2024-06-03",
		Title:       "Repair visit",
		WorkOrderID: &order.ID,
	})
	if err != nil {
		t.Fatalf("create occurrence: %v", err)
	}

	if _, err := f.svc.DeleteOccurrence(testCtx(), f.tenantID, result.Occurrences[0].ID, ScopeSingle); err != nil {
		t.Fatalf("delete: %v", err)
	}

	got, err := f.workOrders.GetByID(f.tenantID, order.ID)
	if err != nil {
		t.Fatalf("get work order: %v", err)
	}
	if got.Status != model.WorkOrderStatusPending {
		t.Errorf("status = %q, want pending after delete", got.Status)
	}
	if got.ScheduledFor != nil {
		t.Errorf("scheduled_for = %v, want cleared", got.ScheduledFor)
	}
}

func TestDeleteLeavesCompletedWorkOrderAlone(t *testing.T) {
	f := setupService(t)

	order, err := f.workOrders.Create(f.tenantID, "WO-2002", nil, "Repair", "")
	if err != nil {
		t.Fatalf("create work order: %v", err)
	}
	result, err := f.svc.CreateOccurrence(testCtx(), f.tenantID, CreateRequest{
		Date:        "2024-06-03",
		Title:       "Repair visit",
		WorkOrderID: &order.ID,
	})
	if err != nil {
		t.Fatalf("create occurrence: %v", err)
	}

	// Complete the visit first; the work order follows.
	status := model.OccurrenceStatusCompleted
	if _, err := f.svc.UpdateOccurrence(testCtx(), f.tenantID, result.Occurrences[0].ID, UpdatePatch{Status: &status}, ScopeSingle); err != nil {
		t.Fatalf("complete occurrence: %v", err)
	}

	if _, err := f.svc.DeleteOccurrence(testCtx(), f.tenantID, result.Occurrences[0].ID, ScopeSingle); err != nil {
		t.Fatalf("delete: %v", err)
	}

	got, err := f.workOrders.GetByID(f.tenantID, order.ID)
	if err != nil {
		t.Fatalf("get work order: %v", err)
	}
	if got.Status != model.WorkOrderStatusCompleted {
		t.Errorf("status = %q, want completed to stick", got.Status)
	}
}

func TestUpdateMissingReturnsNil(t *testing.T) {
	f := setupService(t)

	title := "New title"
	got, err := f.svc.UpdateOccurrence(testCtx(), f.tenantID, 9999, UpdatePatch{Title: &title}, ScopeSingle)
	if err != nil {
		t.Fatalf("update missing: %v", err)
	}
	if got != nil {
		t.Errorf("got = %v, want nil for missing occurrence", got)
	}
}

func TestUpdateSingleKeepsSeriesReference(t *testing.T) {
	f := setupService(t)
	series := weeklySeries(t, f)
	target := series.Occurrences[2]

	title := "One-off revised visit"
	updated, err := f.svc.UpdateOccurrence(testCtx(), f.tenantID, target.ID, UpdatePatch{Title: &title}, ScopeSingle)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Title != title {
		t.Errorf("title = %q, want %q", updated.Title, title)
	}
	if updated.SeriesID == nil || *updated.SeriesID != series.Series.ID {
		t.Error("single-scope edit must keep the series reference")
	}

	// Siblings untouched
	sibling, err := f.svc.GetOccurrence(testCtx(), f.tenantID, series.Occurrences[3].ID)
	if err != nil {
		t.Fatalf("get sibling: %v", err)
	}
	if sibling.Title != "Weekly maintenance" {
		t.Errorf("sibling title = %q, want unchanged", sibling.Title)
	}
}

func TestUpdateFutureScope(t *testing.T) {
	f := setupService(t)
	series := weeklySeries(t, f)

	var target *model.Occurrence
	for i := range series.Occurrences {
		if series.Occurrences[i].Date == "2024-01-17" {
			target = &series.Occurrences[i]
		}
	}

	start, end := "13:00", "14:00"
	updated, err := f.svc.UpdateOccurrence(testCtx(), f.tenantID, target.ID, UpdatePatch{StartTime: &start, EndTime: &end}, ScopeFuture)
	if err != nil {
		t.Fatalf("update future: %v", err)
	}
	if updated.StartTime != "13:00" {
		t.Errorf("target start = %q, want 13:00", updated.StartTime)
	}

	all, err := f.svc.ListOccurrences(testCtx(), f.tenantID, store.OccurrenceFilter{IncludeCompleted: true})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for _, occ := range all {
		want := "09:00"
		if occ.Date >= "2024-01-17" {
			want = "13:00"
		}
		if occ.StartTime != want {
			t.Errorf("occurrence %s start = %q, want %q", occ.Date, occ.StartTime, want)
		}
	}
}

func TestUpdateAllScope(t *testing.T) {
	f := setupService(t)
	series := weeklySeries(t, f)
	target := series.Occurrences[10]

	title := "Rebranded maintenance"
	if _, err := f.svc.UpdateOccurrence(testCtx(), f.tenantID, target.ID, UpdatePatch{Title: &title}, ScopeAll); err != nil {
		t.Fatalf("update all: %v", err)
	}

	all, err := f.svc.ListOccurrences(testCtx(), f.tenantID, store.OccurrenceFilter{IncludeCompleted: true})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 14 {
		t.Fatalf("list = %d, want all 14 intact", len(all))
	}
	for _, occ := range all {
		if occ.Title != title {
			t.Errorf("occurrence %s title = %q, want %q", occ.Date, occ.Title, title)
		}
	}

	// All-scope update never deletes the config
	config, err := f.series.GetByID(f.tenantID, series.Series.ID)
	if err != nil {
		t.Fatalf("get series: %v", err)
	}
	if config == nil {
		t.Error("series config should survive an all-scope update")
	}
}

func TestUpdateCompletionSyncsWorkOrder(t *testing.T) {
	f := setupService(t)

	order, err := f.workOrders.Create(f.tenantID, "WO-3001", nil, "Repair", "")
	if err != nil {
		t.Fatalf("create work order: %v", err)
	}
	result, err := f.svc.CreateOccurrence(testCtx(), f.tenantID, CreateRequest{
		Date:        "2024-06-03",
		Title:       "Repair visit",
		WorkOrderID: &order.ID,
	})
	if err != nil {
		t.Fatalf("create occurrence: %v", err)
	}

	status := model.OccurrenceStatusCompleted
	notes := "Replaced the igniter"
	updated, err := f.svc.UpdateOccurrence(testCtx(), f.tenantID, result.Occurrences[0].ID, UpdatePatch{Status: &status, CompletionNotes: &notes}, ScopeSingle)
	if err != nil {
		t.Fatalf("complete occurrence: %v", err)
	}
	if updated.CompletedAt == nil {
		t.Error("expected completed_at to be set")
	}
	if updated.CompletedBy != "dispatcher" {
		t.Errorf("completed_by = %q, want dispatcher", updated.CompletedBy)
	}
	if updated.CompletionNotes != notes {
		t.Errorf("completion_notes = %q", updated.CompletionNotes)
	}

	got, err := f.workOrders.GetByID(f.tenantID, order.ID)
	if err != nil {
		t.Fatalf("get work order: %v", err)
	}
	if got.Status != model.WorkOrderStatusCompleted {
		t.Errorf("work order status = %q, want completed", got.Status)
	}
	if got.CompletedAt == nil {
		t.Error("expected work order completed_at to be set")
	}
}

func TestUpdateCancelledLeavesWorkOrderAlone(t *testing.T) {
	f := setupService(t)

	order, err := f.workOrders.Create(f.tenantID, "WO-3002", nil, "Repair", "")
	if err != nil {
		t.Fatalf("create work order: %v", err)
	}
	result, err := f.svc.CreateOccurrence(testCtx(), f.tenantID, CreateRequest{
		Date:        "2024-06-03",
		Title:       "Repair visit",
		WorkOrderID: &order.ID,
	})
	if err != nil {
		t.Fatalf("create occurrence: %v", err)
	}

	status := model.OccurrenceStatusCancelled
	if _, err := f.svc.UpdateOccurrence(testCtx(), f.tenantID, result.Occurrences[0].ID, UpdatePatch{Status: &status}, ScopeSingle); err != nil {
		t.Fatalf("cancel occurrence: %v", err)
	}

	got, err := f.workOrders.GetByID(f.tenantID, order.ID)
	if err != nil {
		t.Fatalf("get work order: %v", err)
	}
	if got.Status != model.WorkOrderStatusScheduled {
		t.Errorf("work order status = %q, want scheduled untouched by cancellation", got.Status)
	}
}

func TestUpdateRelinkSchedulesNewWorkOrder(t *testing.T) {
	f := setupService(t)

	first, err := f.workOrders.Create(f.tenantID, "WO-4001", nil, "First", "")
	if err != nil {
		t.Fatalf("create first work order: %v", err)
	}
	second, err := f.workOrders.Create(f.tenantID, "WO-4002", nil, "Second", "")
	if err != nil {
		t.Fatalf("create second work order: %v", err)
	}

	result, err := f.svc.CreateOccurrence(testCtx(), f.tenantID, CreateRequest{
		Date:        "2024-06-03",
		StartTime:   "09:00",
		EndTime:     "10:00",
		Title:       "Visit",
		WorkOrderID: &first.ID,
	})
	if err != nil {
		t.Fatalf("create occurrence: %v", err)
	}

	updated, err := f.svc.UpdateOccurrence(testCtx(), f.tenantID, result.Occurrences[0].ID, UpdatePatch{WorkOrderID: &second.ID}, ScopeSingle)
	if err != nil {
		t.Fatalf("relink: %v", err)
	}
	if updated.WorkOrderID == nil || *updated.WorkOrderID != second.ID {
		t.Fatal("occurrence not relinked")
	}

	got, err := f.workOrders.GetByID(f.tenantID, second.ID)
	if err != nil {
		t.Fatalf("get second work order: %v", err)
	}
	if got.Status != model.WorkOrderStatusScheduled {
		t.Errorf("second work order status = %q, want scheduled", got.Status)
	}
	want := VisitTime("2024-06-03", "09:00")
	if got.ScheduledFor == nil || !got.ScheduledFor.Equal(want) {
		t.Errorf("scheduled_for = %v, want %v", got.ScheduledFor, want)
	}
}

func TestUpdateRejectsLeavingTerminalStatus(t *testing.T) {
	f := setupService(t)

	result, err := f.svc.CreateOccurrence(testCtx(), f.tenantID, CreateRequest{
		Date:  "2024-06-03",
		Title: "Repair visit",
	})
	if err != nil {
		t.Fatalf("create occurrence: %v", err)
	}
	occID := result.Occurrences[0].ID

	completed := model.OccurrenceStatusCompleted
	if _, err := f.svc.UpdateOccurrence(testCtx(), f.tenantID, occID, UpdatePatch{Status: &completed}, ScopeSingle); err != nil {
		t.Fatalf("complete occurrence: %v", err)
	}

	scheduled := model.OccurrenceStatusScheduled
	_, err = f.svc.UpdateOccurrence(testCtx(), f.tenantID, occID, UpdatePatch{Status: &scheduled}, ScopeSingle)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("err = %v, want ErrInvalidTransition", err)
	}
	if Code(err) != "invalid_transition" {
		t.Errorf("code = %q, want invalid_transition", Code(err))
	}

	got, err := f.svc.GetOccurrence(testCtx(), f.tenantID, occID)
	if err != nil {
		t.Fatalf("get occurrence: %v", err)
	}
	if got.Status != model.OccurrenceStatusCompleted {
		t.Errorf("status = %q, want completed to stick", got.Status)
	}

	// cancelled is terminal too
	cancelled := model.OccurrenceStatusCancelled
	other, err := f.svc.CreateOccurrence(testCtx(), f.tenantID, CreateRequest{Date: "2024-06-04", Title: "Other visit"})
	if err != nil {
		t.Fatalf("create second occurrence: %v", err)
	}
	if _, err := f.svc.UpdateOccurrence(testCtx(), f.tenantID, other.Occurrences[0].ID, UpdatePatch{Status: &cancelled}, ScopeSingle); err != nil {
		t.Fatalf("cancel occurrence: %v", err)
	}
	_, err = f.svc.UpdateOccurrence(testCtx(), f.tenantID, other.Occurrences[0].ID, UpdatePatch{Status: &completed}, ScopeSingle)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("err = %v, want ErrInvalidTransition for cancelled occurrence", err)
	}
}

func TestUpdateBulkSkipsTerminalSiblings(t *testing.T) {
	f := setupService(t)
	series := weeklySeries(t, f)

	cancelled := model.OccurrenceStatusCancelled
	if _, err := f.svc.UpdateOccurrence(testCtx(), f.tenantID, series.Occurrences[3].ID, UpdatePatch{Status: &cancelled}, ScopeSingle); err != nil {
		t.Fatalf("cancel sibling: %v", err)
	}

	completed := model.OccurrenceStatusCompleted
	if _, err := f.svc.UpdateOccurrence(testCtx(), f.tenantID, series.Occurrences[0].ID, UpdatePatch{Status: &completed}, ScopeAll); err != nil {
		t.Fatalf("complete series: %v", err)
	}

	all, err := f.svc.ListOccurrences(testCtx(), f.tenantID, store.OccurrenceFilter{IncludeCompleted: true})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for _, occ := range all {
		if occ.ID == series.Occurrences[3].ID {
			if occ.Status != model.OccurrenceStatusCancelled {
				t.Errorf("cancelled sibling status = %q, want cancelled", occ.Status)
			}
			if occ.CompletedAt != nil {
				t.Error("cancelled sibling must not carry completion metadata")
			}
			continue
		}
		if occ.Status != model.OccurrenceStatusCompleted {
			t.Errorf("occurrence %s status = %q, want completed", occ.Date, occ.Status)
		}
	}
}

func TestUpdateRelinkAndCompleteTogether(t *testing.T) {
	f := setupService(t)

	order, err := f.workOrders.Create(f.tenantID, "WO-5001", nil, "Late paperwork", "")
	if err != nil {
		t.Fatalf("create work order: %v", err)
	}
	result, err := f.svc.CreateOccurrence(testCtx(), f.tenantID, CreateRequest{
		Date:      "2024-06-03",
		StartTime: "09:00",
		EndTime:   "10:00",
		Title:     "Visit",
	})
	if err != nil {
		t.Fatalf("create occurrence: %v", err)
	}

	completed := model.OccurrenceStatusCompleted
	if _, err := f.svc.UpdateOccurrence(testCtx(), f.tenantID, result.Occurrences[0].ID, UpdatePatch{WorkOrderID: &order.ID, Status: &completed}, ScopeSingle); err != nil {
		t.Fatalf("relink and complete: %v", err)
	}

	got, err := f.workOrders.GetByID(f.tenantID, order.ID)
	if err != nil {
		t.Fatalf("get work order: %v", err)
	}
	if got.Status != model.WorkOrderStatusCompleted {
		t.Errorf("work order status = %q, want completed to win over the link", got.Status)
	}
	if got.CompletedAt == nil {
		t.Error("expected work order completed_at to be set")
	}
	want := VisitTime("2024-06-03", "09:00")
	if got.ScheduledFor == nil || !got.ScheduledFor.Equal(want) {
		t.Errorf("scheduled_for = %v, want %v from the link", got.ScheduledFor, want)
	}
}

func TestValidateWindowFormats(t *testing.T) {
	tests := []struct {
		start, end string
		wantErr    bool
	}{
		{"09:00", "10:00", false},
		{"9:00", "10:00", false},
		{"", "", false},
		{"09:00", "", false},
		{"10:00", "9:30", true},
		{"11:00", "11:00", true},
		{"noon", "13:00", true},
		{"09:00", "25:00", true},
	}
	for _, tt := range tests {
		err := validateWindow(tt.start, tt.end)
		if tt.wantErr && !errors.Is(err, ErrInvalidTimeWindow) {
			t.Errorf("validateWindow(%q, %q) = %v, want ErrInvalidTimeWindow", tt.start, tt.end, err)
		}
		if !tt.wantErr && err != nil {
			t.Errorf("validateWindow(%q, %q) = %v, want nil", tt.start, tt.end, err)
		}
	}
}

func TestUpdateBulkValidatesTimeWindow(t *testing.T) {
	f := setupService(t)
	series := weeklySeries(t, f)

	start := "11:00" // end stays 10:00 -> inverted on every row
	_, err := f.svc.UpdateOccurrence(testCtx(), f.tenantID, series.Occurrences[0].ID, UpdatePatch{StartTime: &start}, ScopeAll)
	if !errors.Is(err, ErrInvalidTimeWindow) {
		t.Fatalf("err = %v, want ErrInvalidTimeWindow", err)
	}
}

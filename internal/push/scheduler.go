package push

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bentwick/crewcal/internal/model"
	"github.com/bentwick/crewcal/internal/recurrence"
	"github.com/bentwick/crewcal/internal/store"
)

// Scheduler periodically reminds technicians about the next day's
// visits. Dedup records keep a visit from being announced twice.
type Scheduler struct {
	mu          sync.RWMutex
	notifier    *Notifier
	subs        *store.PushStore
	occurrences *store.OccurrenceStore
	logger      *slog.Logger
	interval    time.Duration
	cancel      context.CancelFunc
	done        chan struct{}
}

func NewScheduler(notifier *Notifier, subs *store.PushStore, occurrences *store.OccurrenceStore, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		notifier:    notifier,
		subs:        subs,
		occurrences: occurrences,
		logger:      logger.With("component", "push_scheduler"),
		interval:    time.Hour,
	}
}

// Start begins the scheduler loop.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	s.mu.Unlock()

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.tick()
			}
		}
	}()
}

// Stop gracefully stops the scheduler.
func (s *Scheduler) Stop() {
	s.mu.RLock()
	cancel := s.cancel
	done := s.done
	s.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

func (s *Scheduler) tick() {
	tenantIDs, err := s.subs.ListTenantIDs()
	if err != nil {
		s.logger.Error("list tenants", "error", err)
		return
	}

	tomorrow := time.Now().UTC().AddDate(0, 0, 1).Format(recurrence.DateLayout)
	for _, tid := range tenantIDs {
		s.remindVisits(tid, tomorrow)
	}

	if err := s.subs.CleanupSent(time.Now().UTC().AddDate(0, 0, -30)); err != nil {
		s.logger.Error("cleanup sent records", "error", err)
	}
}

func (s *Scheduler) remindVisits(tenantID int64, date string) {
	visits, err := s.occurrences.List(tenantID, store.OccurrenceFilter{
		DateFrom: date,
		DateTo:   date,
		Status:   model.OccurrenceStatusScheduled,
	})
	if err != nil {
		s.logger.Error("list visits", "error", err, "tenant_id", tenantID)
		return
	}

	for i := range visits {
		visit := visits[i]
		if len(visit.TechnicianIDs) == 0 {
			continue
		}
		refID := fmt.Sprintf("occurrence-%d", visit.ID)

		sent, err := s.subs.WasSent(tenantID, model.NotifTypeVisitReminder, refID)
		if err != nil {
			s.logger.Error("check sent", "error", err)
			continue
		}
		if sent {
			continue
		}

		// Synchronous here; the loop already runs off the request path.
		s.notifier.send(tenantID, model.NotifTypeVisitReminder, visit.TechnicianIDs, &visit)

		if err := s.subs.RecordSent(tenantID, model.NotifTypeVisitReminder, refID); err != nil {
			s.logger.Error("record sent", "error", err)
		}
	}
}

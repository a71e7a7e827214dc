package push

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/bentwick/crewcal/internal/model"
	"github.com/bentwick/crewcal/internal/store"
)

// Notifier fans calendar events out to the assigned technicians'
// registered devices. It satisfies the calendar engine's Notifier
// interface and sends in the background so a slow push service never
// stalls a request.
type Notifier struct {
	service *Service
	subs    *store.PushStore
	logger  *slog.Logger
}

func NewNotifier(service *Service, subs *store.PushStore, logger *slog.Logger) *Notifier {
	return &Notifier{service: service, subs: subs, logger: logger.With("component", "push")}
}

func (n *Notifier) Notify(tenantID int64, notifType string, technicianIDs []int64, occ *model.Occurrence) {
	go n.send(tenantID, notifType, technicianIDs, occ)
}

func (n *Notifier) send(tenantID int64, notifType string, technicianIDs []int64, occ *model.Occurrence) {
	subs, err := n.subs.ListByTechnicians(tenantID, technicianIDs)
	if err != nil {
		n.logger.Error("list subscriptions", "error", err, "tenant_id", tenantID)
		return
	}
	if len(subs) == 0 {
		return
	}

	payload := buildPayload(notifType, occ)
	for i := range subs {
		err := n.service.Send(&subs[i], payload)
		if errors.Is(err, ErrExpired) {
			if err := n.subs.DeleteByEndpoint(subs[i].Endpoint); err != nil {
				n.logger.Error("drop expired subscription", "error", err)
			}
			continue
		}
		if err != nil {
			n.logger.Error("send push", "error", err, "tenant_id", tenantID)
		}
	}
}

func buildPayload(notifType string, occ *model.Occurrence) Payload {
	when := occ.Date
	if occ.StartTime != "" {
		when += " " + occ.StartTime
	}

	switch notifType {
	case model.NotifTypeVisitAssigned:
		return Payload{
			Title: "New visit assigned",
			Body:  fmt.Sprintf("%s on %s", occ.Title, when),
			URL:   fmt.Sprintf("/calendar/%d", occ.ID),
			Tag:   fmt.Sprintf("assigned-%d", occ.ID),
		}
	case model.NotifTypeVisitCancelled:
		return Payload{
			Title: "Visit cancelled",
			Body:  fmt.Sprintf("%s on %s was cancelled", occ.Title, when),
			Tag:   fmt.Sprintf("cancelled-%d", occ.ID),
		}
	case model.NotifTypeVisitReminder:
		return Payload{
			Title: "Upcoming visit",
			Body:  fmt.Sprintf("%s on %s", occ.Title, when),
			URL:   fmt.Sprintf("/calendar/%d", occ.ID),
			Tag:   fmt.Sprintf("reminder-%d", occ.ID),
		}
	}
	return Payload{Title: occ.Title, Body: when}
}

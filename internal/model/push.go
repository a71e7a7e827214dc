package model

import "time"

// Notification type constants
const (
	NotifTypeVisitReminder  = "visit_reminder"
	NotifTypeVisitAssigned  = "visit_assigned"
	NotifTypeVisitCancelled = "visit_cancelled"
)

type PushSubscription struct {
	ID           int64     `json:"id"`
	TenantID     int64     `json:"tenant_id"`
	TechnicianID int64     `json:"technician_id"`
	Endpoint     string    `json:"endpoint"`
	P256dhKey    string    `json:"p256dh_key"`
	AuthKey      string    `json:"auth_key"`
	DeviceName   string    `json:"device_name"`
	CreatedAt    time.Time `json:"created_at"`
}

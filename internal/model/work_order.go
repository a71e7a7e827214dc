package model

import "time"

type WorkOrderStatus string

const (
	WorkOrderStatusPending   WorkOrderStatus = "pending"
	WorkOrderStatusScheduled WorkOrderStatus = "scheduled"
	WorkOrderStatusCompleted WorkOrderStatus = "completed"
	WorkOrderStatusCancelled WorkOrderStatus = "cancelled"
)

type WorkOrder struct {
	ID           int64           `json:"id"`
	TenantID     int64           `json:"tenant_id"`
	Number       string          `json:"number"`
	CustomerID   *int64          `json:"customer_id"`
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	Status       WorkOrderStatus `json:"status"`
	ScheduledFor *time.Time      `json:"scheduled_for,omitempty"`
	CompletedAt  *time.Time      `json:"completed_at,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

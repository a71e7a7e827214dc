package model

import "time"

type OccurrenceStatus string

const (
	OccurrenceStatusScheduled OccurrenceStatus = "scheduled"
	OccurrenceStatusCompleted OccurrenceStatus = "completed"
	OccurrenceStatusCancelled OccurrenceStatus = "cancelled"
)

// Occurrence is one bookable calendar slot. Date is a plain calendar day
// ("2006-01-02") and StartTime/EndTime are "HH:MM" strings so day-granularity
// comparisons stay timezone-independent.
type Occurrence struct {
	ID              int64            `json:"id"`
	TenantID        int64            `json:"tenant_id"`
	Date            string           `json:"date"`
	StartTime       string           `json:"start_time"`
	EndTime         string           `json:"end_time"`
	CustomerID      int64            `json:"customer_id"`
	TechnicianIDs   []int64          `json:"technician_ids"`
	Title           string           `json:"title"`
	Description     string           `json:"description"`
	Status          OccurrenceStatus `json:"status"`
	WorkOrderID     *int64           `json:"work_order_id,omitempty"`
	SeriesID        *int64           `json:"series_id,omitempty"`
	CompletedAt     *time.Time       `json:"completed_at,omitempty"`
	CompletedBy     string           `json:"completed_by,omitempty"`
	CompletionNotes string           `json:"completion_notes,omitempty"`
	CreatedBy       string           `json:"created_by,omitempty"`
	UpdatedBy       string           `json:"updated_by,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// SeriesConfig is the shared recurrence rule referenced by every occurrence
// of a series. It is never cascade-deleted; only an "all"-scope delete
// removes it.
type SeriesConfig struct {
	ID         int64     `json:"id"`
	TenantID   int64     `json:"tenant_id"`
	Frequency  string    `json:"frequency"`
	Interval   int       `json:"interval"`
	DaysOfWeek []int     `json:"days_of_week,omitempty"`
	StartDate  string    `json:"start_date"`
	UntilDate  string    `json:"until_date"`
	CreatedBy  string    `json:"created_by,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

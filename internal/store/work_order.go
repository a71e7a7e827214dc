package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/bentwick/crewcal/internal/model"
)

type WorkOrderStore struct {
	db *sql.DB
}

func NewWorkOrderStore(db *sql.DB) *WorkOrderStore {
	return &WorkOrderStore{db: db}
}

const workOrderCols = `id, tenant_id, number, customer_id, title, description, status, scheduled_for, completed_at, created_at, updated_at`

func scanWorkOrder(scanner interface{ Scan(...any) error }) (*model.WorkOrder, error) {
	var w model.WorkOrder
	var customerID sql.NullInt64
	var scheduledFor, completedAt sql.NullTime
	err := scanner.Scan(&w.ID, &w.TenantID, &w.Number, &customerID, &w.Title, &w.Description,
		&w.Status, &scheduledFor, &completedAt, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if customerID.Valid {
		w.CustomerID = &customerID.Int64
	}
	if scheduledFor.Valid {
		t := scheduledFor.Time
		w.ScheduledFor = &t
	}
	if completedAt.Valid {
		t := completedAt.Time
		w.CompletedAt = &t
	}
	return &w, nil
}

func (s *WorkOrderStore) Create(tenantID int64, number string, customerID *int64, title, description string) (*model.WorkOrder, error) {
	var cid sql.NullInt64
	if customerID != nil {
		cid = sql.NullInt64{Int64: *customerID, Valid: true}
	}

	result, err := s.db.Exec(
		`INSERT INTO work_orders (tenant_id, number, customer_id, title, description, status)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		tenantID, number, cid, title, description, model.WorkOrderStatusPending,
	)
	if err != nil {
		return nil, fmt.Errorf("insert work order: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(tenantID, id)
}

func (s *WorkOrderStore) GetByID(tenantID, id int64) (*model.WorkOrder, error) {
	row := s.db.QueryRow(`SELECT `+workOrderCols+` FROM work_orders WHERE id = ? AND tenant_id = ?`, id, tenantID)
	w, err := scanWorkOrder(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get work order: %w", err)
	}
	return w, nil
}

func (s *WorkOrderStore) List(tenantID int64) ([]model.WorkOrder, error) {
	rows, err := s.db.Query(`SELECT `+workOrderCols+` FROM work_orders WHERE tenant_id = ? ORDER BY created_at DESC`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list work orders: %w", err)
	}
	defer rows.Close()

	var orders []model.WorkOrder
	for rows.Next() {
		w, err := scanWorkOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan work order: %w", err)
		}
		orders = append(orders, *w)
	}
	return orders, rows.Err()
}

// UpdateStatus is the narrow mutation the calendar engine uses to keep a
// linked work order in step with its occurrence. scheduledFor and
// completedAt replace the stored values, including clearing them with nil.
func (s *WorkOrderStore) UpdateStatus(tenantID, id int64, status model.WorkOrderStatus, scheduledFor, completedAt *time.Time) error {
	var sf, ca sql.NullTime
	if scheduledFor != nil {
		sf = sql.NullTime{Time: scheduledFor.UTC(), Valid: true}
	}
	if completedAt != nil {
		ca = sql.NullTime{Time: completedAt.UTC(), Valid: true}
	}

	_, err := s.db.Exec(
		`UPDATE work_orders SET status = ?, scheduled_for = ?, completed_at = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND tenant_id = ?`,
		status, sf, ca, id, tenantID,
	)
	if err != nil {
		return fmt.Errorf("update work order status: %w", err)
	}
	return nil
}

func (s *WorkOrderStore) Update(tenantID, id int64, title, description string, customerID *int64) (*model.WorkOrder, error) {
	var cid sql.NullInt64
	if customerID != nil {
		cid = sql.NullInt64{Int64: *customerID, Valid: true}
	}
	_, err := s.db.Exec(
		`UPDATE work_orders SET title = ?, description = ?, customer_id = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND tenant_id = ?`,
		title, description, cid, id, tenantID,
	)
	if err != nil {
		return nil, fmt.Errorf("update work order: %w", err)
	}
	return s.GetByID(tenantID, id)
}

func (s *WorkOrderStore) Delete(tenantID, id int64) error {
	_, err := s.db.Exec(`DELETE FROM work_orders WHERE id = ? AND tenant_id = ?`, id, tenantID)
	if err != nil {
		return fmt.Errorf("delete work order: %w", err)
	}
	return nil
}

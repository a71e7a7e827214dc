package store

import (
	"database/sql"
	"fmt"

	"github.com/bentwick/crewcal/internal/model"
)

type OccurrenceStore struct {
	db *sql.DB
}

func NewOccurrenceStore(db *sql.DB) *OccurrenceStore {
	return &OccurrenceStore{db: db}
}

const occurrenceCols = `id, tenant_id, date, start_time, end_time, customer_id, title, description, status,
	work_order_id, series_id, completed_at, completed_by, completion_notes, created_by, updated_by, created_at, updated_at`

func scanOccurrence(scanner interface{ Scan(...any) error }) (*model.Occurrence, error) {
	var o model.Occurrence
	var customerID, workOrderID, seriesID sql.NullInt64
	var completedAt sql.NullTime
	err := scanner.Scan(&o.ID, &o.TenantID, &o.Date, &o.StartTime, &o.EndTime, &customerID,
		&o.Title, &o.Description, &o.Status, &workOrderID, &seriesID, &completedAt,
		&o.CompletedBy, &o.CompletionNotes, &o.CreatedBy, &o.UpdatedBy, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	o.CustomerID = customerID.Int64
	if workOrderID.Valid {
		o.WorkOrderID = &workOrderID.Int64
	}
	if seriesID.Valid {
		o.SeriesID = &seriesID.Int64
	}
	if completedAt.Valid {
		t := completedAt.Time
		o.CompletedAt = &t
	}
	return &o, nil
}

func nullInt(p *int64) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *p, Valid: true}
}

// nullID treats a zero id as "unset" so optional foreign keys store NULL.
func nullID(id int64) sql.NullInt64 {
	if id == 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: id, Valid: true}
}

func (s *OccurrenceStore) Create(o *model.Occurrence) (*model.Occurrence, error) {
	var completedAt sql.NullTime
	if o.CompletedAt != nil {
		completedAt = sql.NullTime{Time: o.CompletedAt.UTC(), Valid: true}
	}

	result, err := s.db.Exec(
		`INSERT INTO occurrences (tenant_id, date, start_time, end_time, customer_id, title, description, status,
		   work_order_id, series_id, completed_at, completed_by, completion_notes, created_by, updated_by)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.TenantID, o.Date, o.StartTime, o.EndTime, nullID(o.CustomerID), o.Title, o.Description, o.Status,
		nullInt(o.WorkOrderID), nullInt(o.SeriesID), completedAt, o.CompletedBy, o.CompletionNotes,
		o.CreatedBy, o.UpdatedBy,
	)
	if err != nil {
		return nil, fmt.Errorf("insert occurrence: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	if err := s.replaceTechnicians(id, o.TechnicianIDs); err != nil {
		return nil, err
	}

	return s.GetByID(o.TenantID, id)
}

func (s *OccurrenceStore) GetByID(tenantID, id int64) (*model.Occurrence, error) {
	row := s.db.QueryRow(`SELECT `+occurrenceCols+` FROM occurrences WHERE id = ? AND tenant_id = ?`, id, tenantID)
	o, err := scanOccurrence(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get occurrence: %w", err)
	}
	if err := s.loadTechnicians(o); err != nil {
		return nil, err
	}
	return o, nil
}

// ListBySeries returns every occurrence referencing the series config,
// ordered by date then start time.
func (s *OccurrenceStore) ListBySeries(tenantID, seriesID int64) ([]model.Occurrence, error) {
	rows, err := s.db.Query(
		`SELECT `+occurrenceCols+` FROM occurrences
		 WHERE tenant_id = ? AND series_id = ?
		 ORDER BY date ASC, start_time ASC`,
		tenantID, seriesID,
	)
	if err != nil {
		return nil, fmt.Errorf("list series occurrences: %w", err)
	}
	return s.collect(rows)
}

// OccurrenceFilter narrows a List call. Zero values mean "no filter".
// Completed occurrences are excluded unless IncludeCompleted is set or
// Status explicitly asks for them (calendar view convention).
type OccurrenceFilter struct {
	DateFrom         string
	DateTo           string
	TechnicianID     int64
	CustomerID       int64
	Status           model.OccurrenceStatus
	IncludeCompleted bool
}

func (s *OccurrenceStore) List(tenantID int64, f OccurrenceFilter) ([]model.Occurrence, error) {
	query := `SELECT ` + occurrenceCols + ` FROM occurrences WHERE tenant_id = ?`
	args := []any{tenantID}

	if f.DateFrom != "" {
		query += ` AND date >= ?`
		args = append(args, f.DateFrom)
	}
	if f.DateTo != "" {
		query += ` AND date <= ?`
		args = append(args, f.DateTo)
	}
	if f.CustomerID != 0 {
		query += ` AND customer_id = ?`
		args = append(args, f.CustomerID)
	}
	if f.TechnicianID != 0 {
		query += ` AND EXISTS (SELECT 1 FROM occurrence_technicians ot WHERE ot.occurrence_id = occurrences.id AND ot.technician_id = ?)`
		args = append(args, f.TechnicianID)
	}
	if f.Status != "" {
		query += ` AND status = ?`
		args = append(args, f.Status)
	} else if !f.IncludeCompleted {
		query += ` AND status != ?`
		args = append(args, model.OccurrenceStatusCompleted)
	}

	query += ` ORDER BY date ASC, start_time ASC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list occurrences: %w", err)
	}
	return s.collect(rows)
}

func (s *OccurrenceStore) Update(o *model.Occurrence) (*model.Occurrence, error) {
	var completedAt sql.NullTime
	if o.CompletedAt != nil {
		completedAt = sql.NullTime{Time: o.CompletedAt.UTC(), Valid: true}
	}

	_, err := s.db.Exec(
		`UPDATE occurrences SET date = ?, start_time = ?, end_time = ?, customer_id = ?, title = ?,
		   description = ?, status = ?, work_order_id = ?, series_id = ?, completed_at = ?,
		   completed_by = ?, completion_notes = ?, updated_by = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND tenant_id = ?`,
		o.Date, o.StartTime, o.EndTime, nullID(o.CustomerID), o.Title, o.Description, o.Status,
		nullInt(o.WorkOrderID), nullInt(o.SeriesID), completedAt, o.CompletedBy, o.CompletionNotes,
		o.UpdatedBy, o.ID, o.TenantID,
	)
	if err != nil {
		return nil, fmt.Errorf("update occurrence: %w", err)
	}

	if err := s.replaceTechnicians(o.ID, o.TechnicianIDs); err != nil {
		return nil, err
	}

	return s.GetByID(o.TenantID, o.ID)
}

// Delete removes one occurrence and reports whether a row was removed.
func (s *OccurrenceStore) Delete(tenantID, id int64) (bool, error) {
	result, err := s.db.Exec(`DELETE FROM occurrences WHERE id = ? AND tenant_id = ?`, id, tenantID)
	if err != nil {
		return false, fmt.Errorf("delete occurrence: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

func (s *OccurrenceStore) collect(rows *sql.Rows) ([]model.Occurrence, error) {
	defer rows.Close()

	var occurrences []model.Occurrence
	for rows.Next() {
		o, err := scanOccurrence(rows)
		if err != nil {
			return nil, fmt.Errorf("scan occurrence: %w", err)
		}
		occurrences = append(occurrences, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range occurrences {
		if err := s.loadTechnicians(&occurrences[i]); err != nil {
			return nil, err
		}
	}
	return occurrences, nil
}

func (s *OccurrenceStore) loadTechnicians(o *model.Occurrence) error {
	rows, err := s.db.Query(
		`SELECT technician_id FROM occurrence_technicians WHERE occurrence_id = ? ORDER BY technician_id`,
		o.ID,
	)
	if err != nil {
		return fmt.Errorf("load occurrence technicians: %w", err)
	}
	defer rows.Close()

	o.TechnicianIDs = nil
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return fmt.Errorf("scan technician id: %w", err)
		}
		o.TechnicianIDs = append(o.TechnicianIDs, id)
	}
	return rows.Err()
}

func (s *OccurrenceStore) replaceTechnicians(occurrenceID int64, technicianIDs []int64) error {
	if _, err := s.db.Exec(`DELETE FROM occurrence_technicians WHERE occurrence_id = ?`, occurrenceID); err != nil {
		return fmt.Errorf("clear occurrence technicians: %w", err)
	}
	for _, tid := range technicianIDs {
		if _, err := s.db.Exec(
			`INSERT INTO occurrence_technicians (occurrence_id, technician_id) VALUES (?, ?)`,
			occurrenceID, tid,
		); err != nil {
			return fmt.Errorf("insert occurrence technician: %w", err)
		}
	}
	return nil
}

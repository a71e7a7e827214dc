package store

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/bentwick/crewcal/internal/model"
)

type TechnicianStore struct {
	db *sql.DB
}

func NewTechnicianStore(db *sql.DB) *TechnicianStore {
	return &TechnicianStore{db: db}
}

const technicianCols = `id, tenant_id, name, email, phone, active, created_at, updated_at`

func scanTechnician(scanner interface{ Scan(...any) error }) (*model.Technician, error) {
	var t model.Technician
	var active int
	err := scanner.Scan(&t.ID, &t.TenantID, &t.Name, &t.Email, &t.Phone, &active, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	t.Active = active != 0
	return &t, nil
}

func (s *TechnicianStore) Create(tenantID int64, name, email, phone string) (*model.Technician, error) {
	result, err := s.db.Exec(
		`INSERT INTO technicians (tenant_id, name, email, phone) VALUES (?, ?, ?, ?)`,
		tenantID, name, email, phone,
	)
	if err != nil {
		return nil, fmt.Errorf("insert technician: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(tenantID, id)
}

func (s *TechnicianStore) GetByID(tenantID, id int64) (*model.Technician, error) {
	row := s.db.QueryRow(`SELECT `+technicianCols+` FROM technicians WHERE id = ? AND tenant_id = ?`, id, tenantID)
	t, err := scanTechnician(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get technician: %w", err)
	}
	return t, nil
}

// GetByIDs returns the technicians for the given id set. The result may be
// shorter than the input when some ids do not resolve within the tenant.
func (s *TechnicianStore) GetByIDs(tenantID int64, ids []int64) ([]model.Technician, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, 0, len(ids)+1)
	for _, id := range ids {
		args = append(args, id)
	}
	args = append(args, tenantID)

	rows, err := s.db.Query(
		`SELECT `+technicianCols+` FROM technicians WHERE id IN (`+placeholders+`) AND tenant_id = ?`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("get technicians: %w", err)
	}
	defer rows.Close()

	var techs []model.Technician
	for rows.Next() {
		t, err := scanTechnician(rows)
		if err != nil {
			return nil, fmt.Errorf("scan technician: %w", err)
		}
		techs = append(techs, *t)
	}
	return techs, rows.Err()
}

func (s *TechnicianStore) List(tenantID int64) ([]model.Technician, error) {
	rows, err := s.db.Query(`SELECT `+technicianCols+` FROM technicians WHERE tenant_id = ? ORDER BY name ASC`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list technicians: %w", err)
	}
	defer rows.Close()

	var techs []model.Technician
	for rows.Next() {
		t, err := scanTechnician(rows)
		if err != nil {
			return nil, fmt.Errorf("scan technician: %w", err)
		}
		techs = append(techs, *t)
	}
	return techs, rows.Err()
}

func (s *TechnicianStore) Update(tenantID, id int64, name, email, phone string, active bool) (*model.Technician, error) {
	activeInt := 0
	if active {
		activeInt = 1
	}
	_, err := s.db.Exec(
		`UPDATE technicians SET name = ?, email = ?, phone = ?, active = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND tenant_id = ?`,
		name, email, phone, activeInt, id, tenantID,
	)
	if err != nil {
		return nil, fmt.Errorf("update technician: %w", err)
	}
	return s.GetByID(tenantID, id)
}

func (s *TechnicianStore) Delete(tenantID, id int64) error {
	_, err := s.db.Exec(`DELETE FROM technicians WHERE id = ? AND tenant_id = ?`, id, tenantID)
	if err != nil {
		return fmt.Errorf("delete technician: %w", err)
	}
	return nil
}

package store

import (
	"database/sql"
	"fmt"

	"github.com/bentwick/crewcal/internal/model"
)

type TenantStore struct {
	db *sql.DB
}

func NewTenantStore(db *sql.DB) *TenantStore {
	return &TenantStore{db: db}
}

const tenantCols = `id, name, created_at, updated_at`

func scanTenant(scanner interface{ Scan(...any) error }) (*model.Tenant, error) {
	var t model.Tenant
	if err := scanner.Scan(&t.ID, &t.Name, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *TenantStore) Create(name string) (*model.Tenant, error) {
	result, err := s.db.Exec(`INSERT INTO tenants (name) VALUES (?)`, name)
	if err != nil {
		return nil, fmt.Errorf("insert tenant: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *TenantStore) GetByID(id int64) (*model.Tenant, error) {
	row := s.db.QueryRow(`SELECT `+tenantCols+` FROM tenants WHERE id = ?`, id)
	t, err := scanTenant(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get tenant: %w", err)
	}
	return t, nil
}

func (s *TenantStore) List() ([]model.Tenant, error) {
	rows, err := s.db.Query(`SELECT ` + tenantCols + ` FROM tenants ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list tenants: %w", err)
	}
	defer rows.Close()

	var tenants []model.Tenant
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tenant: %w", err)
		}
		tenants = append(tenants, *t)
	}
	return tenants, rows.Err()
}

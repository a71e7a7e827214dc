package store

import (
	"database/sql"
	"fmt"

	"github.com/bentwick/crewcal/internal/model"
)

type CustomerStore struct {
	db *sql.DB
}

func NewCustomerStore(db *sql.DB) *CustomerStore {
	return &CustomerStore{db: db}
}

const customerCols = `id, tenant_id, name, email, phone, address, created_at, updated_at`

func scanCustomer(scanner interface{ Scan(...any) error }) (*model.Customer, error) {
	var c model.Customer
	err := scanner.Scan(&c.ID, &c.TenantID, &c.Name, &c.Email, &c.Phone, &c.Address, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *CustomerStore) Create(tenantID int64, name, email, phone, address string) (*model.Customer, error) {
	result, err := s.db.Exec(
		`INSERT INTO customers (tenant_id, name, email, phone, address) VALUES (?, ?, ?, ?, ?)`,
		tenantID, name, email, phone, address,
	)
	if err != nil {
		return nil, fmt.Errorf("insert customer: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(tenantID, id)
}

func (s *CustomerStore) GetByID(tenantID, id int64) (*model.Customer, error) {
	row := s.db.QueryRow(`SELECT `+customerCols+` FROM customers WHERE id = ? AND tenant_id = ?`, id, tenantID)
	c, err := scanCustomer(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get customer: %w", err)
	}
	return c, nil
}

func (s *CustomerStore) List(tenantID int64) ([]model.Customer, error) {
	rows, err := s.db.Query(`SELECT `+customerCols+` FROM customers WHERE tenant_id = ? ORDER BY name ASC`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()

	var customers []model.Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		customers = append(customers, *c)
	}
	return customers, rows.Err()
}

func (s *CustomerStore) Update(tenantID, id int64, name, email, phone, address string) (*model.Customer, error) {
	_, err := s.db.Exec(
		`UPDATE customers SET name = ?, email = ?, phone = ?, address = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND tenant_id = ?`,
		name, email, phone, address, id, tenantID,
	)
	if err != nil {
		return nil, fmt.Errorf("update customer: %w", err)
	}
	return s.GetByID(tenantID, id)
}

func (s *CustomerStore) Delete(tenantID, id int64) error {
	_, err := s.db.Exec(`DELETE FROM customers WHERE id = ? AND tenant_id = ?`, id, tenantID)
	if err != nil {
		return fmt.Errorf("delete customer: %w", err)
	}
	return nil
}

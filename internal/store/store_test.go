package store

import (
	"database/sql"
	"testing"

	"github.com/bentwick/crewcal/internal/database"
	"github.com/bentwick/crewcal/internal/model"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func createTestTenant(t *testing.T, db *sql.DB) *model.Tenant {
	t.Helper()
	tenant, err := NewTenantStore(db).Create("Acme Field Services")
	if err != nil {
		t.Fatalf("create test tenant: %v", err)
	}
	return tenant
}

func createTestCustomer(t *testing.T, db *sql.DB, tenantID int64) *model.Customer {
	t.Helper()
	customer, err := NewCustomerStore(db).Create(tenantID, "Dana Whitfield", "dana@example.com", "555-0101", "12 Elm St")
	if err != nil {
		t.Fatalf("create test customer: %v", err)
	}
	return customer
}

func createTestTechnician(t *testing.T, db *sql.DB, tenantID int64, name string) *model.Technician {
	t.Helper()
	tech, err := NewTechnicianStore(db).Create(tenantID, name, name+"@example.com", "555-0102")
	if err != nil {
		t.Fatalf("create test technician: %v", err)
	}
	return tech
}

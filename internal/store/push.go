package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/bentwick/crewcal/internal/model"
)

type PushStore struct {
	db *sql.DB
}

func NewPushStore(db *sql.DB) *PushStore {
	return &PushStore{db: db}
}

const pushCols = `id, tenant_id, technician_id, endpoint, p256dh_key, auth_key, device_name, created_at`

func (s *PushStore) CreateSubscription(tenantID, technicianID int64, endpoint, p256dh, auth, deviceName string) (*model.PushSubscription, error) {
	result, err := s.db.Exec(
		`INSERT INTO push_subscriptions (tenant_id, technician_id, endpoint, p256dh_key, auth_key, device_name)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(endpoint) DO UPDATE SET p256dh_key = excluded.p256dh_key, auth_key = excluded.auth_key, device_name = excluded.device_name`,
		tenantID, technicianID, endpoint, p256dh, auth, deviceName,
	)
	if err != nil {
		return nil, fmt.Errorf("create push subscription: %w", err)
	}
	id, _ := result.LastInsertId()

	// LastInsertId may be 0 on conflict update; re-query by endpoint
	if id == 0 {
		return s.getByEndpoint(endpoint)
	}
	return s.GetByID(tenantID, id)
}

func (s *PushStore) GetByID(tenantID, id int64) (*model.PushSubscription, error) {
	row := s.db.QueryRow(`SELECT `+pushCols+` FROM push_subscriptions WHERE id = ? AND tenant_id = ?`, id, tenantID)
	sub, err := scanSubscription(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get push subscription: %w", err)
	}
	return sub, nil
}

func (s *PushStore) getByEndpoint(endpoint string) (*model.PushSubscription, error) {
	row := s.db.QueryRow(`SELECT `+pushCols+` FROM push_subscriptions WHERE endpoint = ?`, endpoint)
	sub, err := scanSubscription(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get push subscription by endpoint: %w", err)
	}
	return sub, nil
}

func (s *PushStore) ListByTechnician(tenantID, technicianID int64) ([]model.PushSubscription, error) {
	rows, err := s.db.Query(
		`SELECT `+pushCols+` FROM push_subscriptions
		 WHERE tenant_id = ? AND technician_id = ? ORDER BY created_at DESC`,
		tenantID, technicianID,
	)
	if err != nil {
		return nil, fmt.Errorf("list push subscriptions by technician: %w", err)
	}
	defer rows.Close()
	return scanSubscriptions(rows)
}

// ListByTechnicians returns every subscription belonging to any of the given
// technicians. Used to fan a visit notification out to an assigned crew.
func (s *PushStore) ListByTechnicians(tenantID int64, technicianIDs []int64) ([]model.PushSubscription, error) {
	if len(technicianIDs) == 0 {
		return nil, nil
	}

	query := `SELECT ` + pushCols + ` FROM push_subscriptions WHERE tenant_id = ? AND technician_id IN (`
	args := []any{tenantID}
	for i, id := range technicianIDs {
		if i > 0 {
			query += ","
		}
		query += "?"
		args = append(args, id)
	}
	query += `) ORDER BY created_at DESC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list push subscriptions by technicians: %w", err)
	}
	defer rows.Close()
	return scanSubscriptions(rows)
}

func (s *PushStore) DeleteSubscription(tenantID, id int64) error {
	_, err := s.db.Exec(`DELETE FROM push_subscriptions WHERE id = ? AND tenant_id = ?`, id, tenantID)
	if err != nil {
		return fmt.Errorf("delete push subscription: %w", err)
	}
	return nil
}

func (s *PushStore) DeleteByEndpoint(endpoint string) error {
	_, err := s.db.Exec(`DELETE FROM push_subscriptions WHERE endpoint = ?`, endpoint)
	if err != nil {
		return fmt.Errorf("delete push subscription by endpoint: %w", err)
	}
	return nil
}

// ListTenantIDs returns distinct tenant IDs that have push subscriptions.
func (s *PushStore) ListTenantIDs() ([]int64, error) {
	rows, err := s.db.Query(`SELECT DISTINCT tenant_id FROM push_subscriptions`)
	if err != nil {
		return nil, fmt.Errorf("list push tenant ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan tenant id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// RecordSent records that a notification was sent (for dedup).
func (s *PushStore) RecordSent(tenantID int64, notifType, refID string) error {
	_, err := s.db.Exec(
		`INSERT OR IGNORE INTO push_sent (tenant_id, notification_type, reference_id) VALUES (?, ?, ?)`,
		tenantID, notifType, refID,
	)
	if err != nil {
		return fmt.Errorf("record sent notification: %w", err)
	}
	return nil
}

// WasSent checks if a notification was already sent.
func (s *PushStore) WasSent(tenantID int64, notifType, refID string) (bool, error) {
	var count int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM push_sent WHERE tenant_id = ? AND notification_type = ? AND reference_id = ?`,
		tenantID, notifType, refID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check sent notification: %w", err)
	}
	return count > 0, nil
}

// CleanupSent deletes dedup records older than the given time.
func (s *PushStore) CleanupSent(before time.Time) error {
	_, err := s.db.Exec(`DELETE FROM push_sent WHERE sent_at < ?`, before.UTC())
	if err != nil {
		return fmt.Errorf("cleanup sent notifications: %w", err)
	}
	return nil
}

func scanSubscription(scanner interface{ Scan(...any) error }) (*model.PushSubscription, error) {
	var sub model.PushSubscription
	err := scanner.Scan(&sub.ID, &sub.TenantID, &sub.TechnicianID, &sub.Endpoint,
		&sub.P256dhKey, &sub.AuthKey, &sub.DeviceName, &sub.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func scanSubscriptions(rows *sql.Rows) ([]model.PushSubscription, error) {
	var subs []model.PushSubscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("scan push subscription: %w", err)
		}
		subs = append(subs, *sub)
	}
	return subs, rows.Err()
}

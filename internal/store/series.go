package store

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/bentwick/crewcal/internal/model"
)

type SeriesStore struct {
	db *sql.DB
}

func NewSeriesStore(db *sql.DB) *SeriesStore {
	return &SeriesStore{db: db}
}

const seriesCols = `id, tenant_id, frequency, interval, days_of_week, start_date, until_date, created_by, created_at, updated_at`

func scanSeries(scanner interface{ Scan(...any) error }) (*model.SeriesConfig, error) {
	var c model.SeriesConfig
	var days string
	err := scanner.Scan(&c.ID, &c.TenantID, &c.Frequency, &c.Interval, &days,
		&c.StartDate, &c.UntilDate, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	c.DaysOfWeek = parseDaySet(days)
	return &c, nil
}

// parseDaySet decodes the CSV day-of-week column ("1,3,5" -> [1 3 5]).
func parseDaySet(csv string) []int {
	if csv == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	days := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			continue
		}
		days = append(days, n)
	}
	return days
}

func formatDaySet(days []int) string {
	if len(days) == 0 {
		return ""
	}
	parts := make([]string, len(days))
	for i, d := range days {
		parts[i] = strconv.Itoa(d)
	}
	return strings.Join(parts, ",")
}

func (s *SeriesStore) Create(tenantID int64, frequency string, interval int, daysOfWeek []int, startDate, untilDate, createdBy string) (*model.SeriesConfig, error) {
	result, err := s.db.Exec(
		`INSERT INTO series_configs (tenant_id, frequency, interval, days_of_week, start_date, until_date, created_by)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		tenantID, frequency, interval, formatDaySet(daysOfWeek), startDate, untilDate, createdBy,
	)
	if err != nil {
		return nil, fmt.Errorf("insert series config: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(tenantID, id)
}

func (s *SeriesStore) GetByID(tenantID, id int64) (*model.SeriesConfig, error) {
	row := s.db.QueryRow(`SELECT `+seriesCols+` FROM series_configs WHERE id = ? AND tenant_id = ?`, id, tenantID)
	c, err := scanSeries(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get series config: %w", err)
	}
	return c, nil
}

// Delete removes a series config. Occurrences referencing it are not
// touched here; the "all"-scope delete path removes them first.
func (s *SeriesStore) Delete(tenantID, id int64) error {
	_, err := s.db.Exec(`DELETE FROM series_configs WHERE id = ? AND tenant_id = ?`, id, tenantID)
	if err != nil {
		return fmt.Errorf("delete series config: %w", err)
	}
	return nil
}

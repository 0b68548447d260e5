package data

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"intelhub/internal/core"
)

type IncidentRepo struct {
	db *sql.DB
}

func NewIncidentRepo(db *sql.DB) *IncidentRepo {
	return &IncidentRepo{db: db}
}

// Group/filter columns that may be interpolated into aggregate SQL. Everything
// else is rejected before it reaches the statement.
var incidentColumns = map[string]bool{
	"title":    true,
	"severity": true,
	"status":   true,
	"date":     true,
}

func validateIncident(inc *core.Incident) error {
	if strings.TrimSpace(inc.Title) == "" {
		return core.NewValidationError("title", "must not be empty")
	}
	if !core.ValidSeverity(inc.Severity) {
		return core.NewValidationError("severity", "must be one of "+strings.Join(core.Severities, ", "))
	}
	if inc.Status == "" {
		inc.Status = core.StatusOpen
	}
	if !core.ValidStatus(inc.Status) {
		return core.NewValidationError("status", "must be one of "+strings.Join(core.Statuses, ", "))
	}
	return nil
}

func (r *IncidentRepo) Create(inc *core.Incident) (int64, error) {
	if err := validateIncident(inc); err != nil {
		return 0, err
	}
	now := time.Now().UTC()
	res, err := r.db.Exec(`INSERT INTO cyber_incidents (title, severity, status, date, created_at) VALUES (?, ?, ?, ?, ?)`,
		inc.Title, inc.Severity, inc.Status, inc.Date, now)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	inc.ID = id
	inc.CreatedAt = now
	return id, nil
}

// GetAll returns incidents most-recent-first. A zero filter returns everything.
func (r *IncidentRepo) GetAll(filter core.IncidentFilter) ([]core.Incident, error) {
	query := `SELECT id, title, severity, status, date, created_at FROM cyber_incidents`
	var clauses []string
	var args []interface{}
	if filter.Severity != "" {
		clauses = append(clauses, "severity = ?")
		args = append(args, filter.Severity)
	}
	if filter.Status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, filter.Status)
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY id DESC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	incidents := []core.Incident{}
	for rows.Next() {
		var inc core.Incident
		if err := rows.Scan(&inc.ID, &inc.Title, &inc.Severity, &inc.Status, &inc.Date, &inc.CreatedAt); err != nil {
			return nil, err
		}
		incidents = append(incidents, inc)
	}
	return incidents, rows.Err()
}

func (r *IncidentRepo) GetByID(id int64) (*core.Incident, error) {
	var inc core.Incident
	err := r.db.QueryRow(`SELECT id, title, severity, status, date, created_at FROM cyber_incidents WHERE id = ?`, id).
		Scan(&inc.ID, &inc.Title, &inc.Severity, &inc.Status, &inc.Date, &inc.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &inc, nil
}

// Update applies the non-nil fields and returns the affected row count.
// A missing id yields 0, not an error.
func (r *IncidentRepo) Update(id int64, fields core.IncidentUpdate) (int64, error) {
	var sets []string
	var args []interface{}
	if fields.Title != nil {
		if strings.TrimSpace(*fields.Title) == "" {
			return 0, core.NewValidationError("title", "must not be empty")
		}
		sets = append(sets, "title = ?")
		args = append(args, *fields.Title)
	}
	if fields.Severity != nil {
		if !core.ValidSeverity(*fields.Severity) {
			return 0, core.NewValidationError("severity", "must be one of "+strings.Join(core.Severities, ", "))
		}
		sets = append(sets, "severity = ?")
		args = append(args, *fields.Severity)
	}
	if fields.Status != nil {
		if !core.ValidStatus(*fields.Status) {
			return 0, core.NewValidationError("status", "must be one of "+strings.Join(core.Statuses, ", "))
		}
		sets = append(sets, "status = ?")
		args = append(args, *fields.Status)
	}
	if fields.Date != nil {
		sets = append(sets, "date = ?")
		args = append(args, *fields.Date)
	}
	if len(sets) == 0 {
		return 0, nil
	}
	args = append(args, id)

	res, err := r.db.Exec(`UPDATE cyber_incidents SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *IncidentRepo) Delete(id int64) (int64, error) {
	res, err := r.db.Exec(`DELETE FROM cyber_incidents WHERE id = ?`, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// CountByColumn groups incidents by an allow-listed column.
func (r *IncidentRepo) CountByColumn(column string) (map[string]int, error) {
	if !incidentColumns[column] {
		return nil, core.NewValidationError("column", "cannot group by "+column)
	}
	rows, err := r.db.Query(`SELECT ` + column + `, COUNT(*) FROM cyber_incidents GROUP BY ` + column + ` ORDER BY COUNT(*) DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var value string
		var n int
		if err := rows.Scan(&value, &n); err != nil {
			return nil, err
		}
		counts[value] = n
	}
	return counts, rows.Err()
}

func (r *IncidentRepo) CountWhere(column, value string) (int, error) {
	if !incidentColumns[column] {
		return 0, core.NewValidationError("column", "cannot filter by "+column)
	}
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM cyber_incidents WHERE `+column+` = ?`, value).Scan(&count)
	return count, err
}

func (r *IncidentRepo) Count() (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM cyber_incidents`).Scan(&count)
	return count, err
}

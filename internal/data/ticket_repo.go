package data

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"intelhub/internal/core"
)

type TicketRepo struct {
	db *sql.DB
}

func NewTicketRepo(db *sql.DB) *TicketRepo {
	return &TicketRepo{db: db}
}

var ticketColumns = map[string]bool{
	"title":        true,
	"priority":     true,
	"status":       true,
	"created_date": true,
}

func validateTicket(t *core.Ticket) error {
	if strings.TrimSpace(t.Title) == "" {
		return core.NewValidationError("title", "must not be empty")
	}
	if !core.ValidPriority(t.Priority) {
		return core.NewValidationError("priority", "must be one of "+strings.Join(core.Priorities, ", "))
	}
	if t.Status == "" {
		t.Status = core.StatusOpen
	}
	if !core.ValidStatus(t.Status) {
		return core.NewValidationError("status", "must be one of "+strings.Join(core.Statuses, ", "))
	}
	return nil
}

func (r *TicketRepo) Create(t *core.Ticket) (int64, error) {
	if err := validateTicket(t); err != nil {
		return 0, err
	}
	now := time.Now().UTC()
	res, err := r.db.Exec(`INSERT INTO it_tickets (title, priority, status, created_date, created_at) VALUES (?, ?, ?, ?, ?)`,
		t.Title, t.Priority, t.Status, t.CreatedDate, now)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	t.ID = id
	t.CreatedAt = now
	return id, nil
}

func (r *TicketRepo) GetAll(filter core.TicketFilter) ([]core.Ticket, error) {
	query := `SELECT id, title, priority, status, created_date, created_at FROM it_tickets`
	var clauses []string
	var args []interface{}
	if filter.Priority != "" {
		clauses = append(clauses, "priority = ?")
		args = append(args, filter.Priority)
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

	tickets := []core.Ticket{}
	for rows.Next() {
		var t core.Ticket
		if err := rows.Scan(&t.ID, &t.Title, &t.Priority, &t.Status, &t.CreatedDate, &t.CreatedAt); err != nil {
			return nil, err
		}
		tickets = append(tickets, t)
	}
	return tickets, rows.Err()
}

func (r *TicketRepo) GetByID(id int64) (*core.Ticket, error) {
	var t core.Ticket
	err := r.db.QueryRow(`SELECT id, title, priority, status, created_date, created_at FROM it_tickets WHERE id = ?`, id).
		Scan(&t.ID, &t.Title, &t.Priority, &t.Status, &t.CreatedDate, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TicketRepo) Update(id int64, fields core.TicketUpdate) (int64, error) {
	var sets []string
	var args []interface{}
	if fields.Title != nil {
		if strings.TrimSpace(*fields.Title) == "" {
			return 0, core.NewValidationError("title", "must not be empty")
		}
		sets = append(sets, "title = ?")
		args = append(args, *fields.Title)
	}
	if fields.Priority != nil {
		if !core.ValidPriority(*fields.Priority) {
			return 0, core.NewValidationError("priority", "must be one of "+strings.Join(core.Priorities, ", "))
		}
		sets = append(sets, "priority = ?")
		args = append(args, *fields.Priority)
	}
	if fields.Status != nil {
		if !core.ValidStatus(*fields.Status) {
			return 0, core.NewValidationError("status", "must be one of "+strings.Join(core.Statuses, ", "))
		}
		sets = append(sets, "status = ?")
		args = append(args, *fields.Status)
	}
	if fields.CreatedDate != nil {
		sets = append(sets, "created_date = ?")
		args = append(args, *fields.CreatedDate)
	}
	if len(sets) == 0 {
		return 0, nil
	}
	args = append(args, id)

	res, err := r.db.Exec(`UPDATE it_tickets SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *TicketRepo) Delete(id int64) (int64, error) {
	res, err := r.db.Exec(`DELETE FROM it_tickets WHERE id = ?`, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *TicketRepo) CountByColumn(column string) (map[string]int, error) {
	if !ticketColumns[column] {
		return nil, core.NewValidationError("column", "cannot group by "+column)
	}
	rows, err := r.db.Query(`SELECT ` + column + `, COUNT(*) FROM it_tickets GROUP BY ` + column + ` ORDER BY COUNT(*) DESC`)
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

func (r *TicketRepo) CountWhere(column, value string) (int, error) {
	if !ticketColumns[column] {
		return 0, core.NewValidationError("column", "cannot filter by "+column)
	}
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM it_tickets WHERE `+column+` = ?`, value).Scan(&count)
	return count, err
}

func (r *TicketRepo) Count() (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM it_tickets`).Scan(&count)
	return count, err
}

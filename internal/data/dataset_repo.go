package data

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"intelhub/internal/core"
)

type DatasetRepo struct {
	db *sql.DB
}

func NewDatasetRepo(db *sql.DB) *DatasetRepo {
	return &DatasetRepo{db: db}
}

var datasetColumns = map[string]bool{
	"name":     true,
	"source":   true,
	"category": true,
}

func (r *DatasetRepo) Create(d *core.Dataset) (int64, error) {
	if strings.TrimSpace(d.Name) == "" {
		return 0, core.NewValidationError("name", "must not be empty")
	}
	if d.Size < 0 {
		return 0, core.NewValidationError("size", "must not be negative")
	}
	now := time.Now().UTC()
	res, err := r.db.Exec(`INSERT INTO datasets_metadata (name, source, category, size, created_at) VALUES (?, ?, ?, ?, ?)`,
		d.Name, d.Source, d.Category, d.Size, now)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	d.ID = id
	d.CreatedAt = now
	return id, nil
}

func (r *DatasetRepo) GetAll(filter core.DatasetFilter) ([]core.Dataset, error) {
	query := `SELECT id, name, source, category, size, created_at FROM datasets_metadata`
	var args []interface{}
	if filter.Category != "" {
		query += " WHERE category = ?"
		args = append(args, filter.Category)
	}
	query += " ORDER BY id DESC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	datasets := []core.Dataset{}
	for rows.Next() {
		var d core.Dataset
		if err := rows.Scan(&d.ID, &d.Name, &d.Source, &d.Category, &d.Size, &d.CreatedAt); err != nil {
			return nil, err
		}
		datasets = append(datasets, d)
	}
	return datasets, rows.Err()
}

func (r *DatasetRepo) GetByID(id int64) (*core.Dataset, error) {
	var d core.Dataset
	err := r.db.QueryRow(`SELECT id, name, source, category, size, created_at FROM datasets_metadata WHERE id = ?`, id).
		Scan(&d.ID, &d.Name, &d.Source, &d.Category, &d.Size, &d.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *DatasetRepo) Update(id int64, fields core.DatasetUpdate) (int64, error) {
	var sets []string
	var args []interface{}
	if fields.Name != nil {
		if strings.TrimSpace(*fields.Name) == "" {
			return 0, core.NewValidationError("name", "must not be empty")
		}
		sets = append(sets, "name = ?")
		args = append(args, *fields.Name)
	}
	if fields.Source != nil {
		sets = append(sets, "source = ?")
		args = append(args, *fields.Source)
	}
	if fields.Category != nil {
		sets = append(sets, "category = ?")
		args = append(args, *fields.Category)
	}
	if fields.Size != nil {
		if *fields.Size < 0 {
			return 0, core.NewValidationError("size", "must not be negative")
		}
		sets = append(sets, "size = ?")
		args = append(args, *fields.Size)
	}
	if len(sets) == 0 {
		return 0, nil
	}
	args = append(args, id)

	res, err := r.db.Exec(`UPDATE datasets_metadata SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *DatasetRepo) Delete(id int64) (int64, error) {
	res, err := r.db.Exec(`DELETE FROM datasets_metadata WHERE id = ?`, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *DatasetRepo) CountByColumn(column string) (map[string]int, error) {
	if !datasetColumns[column] {
		return nil, core.NewValidationError("column", "cannot group by "+column)
	}
	rows, err := r.db.Query(`SELECT ` + column + `, COUNT(*) FROM datasets_metadata GROUP BY ` + column + ` ORDER BY COUNT(*) DESC`)
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

func (r *DatasetRepo) CountWhere(column, value string) (int, error) {
	if !datasetColumns[column] {
		return 0, core.NewValidationError("column", "cannot filter by "+column)
	}
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM datasets_metadata WHERE `+column+` = ?`, value).Scan(&count)
	return count, err
}

func (r *DatasetRepo) Count() (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM datasets_metadata`).Scan(&count)
	return count, err
}

// TotalSize sums dataset sizes in bytes for the dashboard.
func (r *DatasetRepo) TotalSize() (int64, error) {
	var total sql.NullInt64
	err := r.db.QueryRow(`SELECT SUM(size) FROM datasets_metadata`).Scan(&total)
	return total.Int64, err
}

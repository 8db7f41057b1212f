package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	reporting "energy-dashboard/internal/reporting/domain"
)

const defaultSeriesTable = "energy_daily_series"

// SeriesRepository is a Postgres implementation of the series store. One
// table holds every derived series keyed by (series_id, day).
type SeriesRepository struct {
	db    *sql.DB
	table string
}

// RepositoryOption configures the repository.
type RepositoryOption func(*SeriesRepository)

// WithTable overrides the default table name.
func WithTable(table string) RepositoryOption {
	return func(repo *SeriesRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// NewSeriesRepository creates a repository using the default table name.
func NewSeriesRepository(db *sql.DB, opts ...RepositoryOption) *SeriesRepository {
	repo := &SeriesRepository{db: db, table: defaultSeriesTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// ReplaceSeries swaps a series' rows inside one transaction so readers
// never observe a half-written pipeline run.
func (r *SeriesRepository) ReplaceSeries(ctx context.Context, id reporting.SeriesID, records []reporting.DailyRecord) error {
	if id == "" {
		return reporting.ErrEmptySeriesID
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	deleteQuery := fmt.Sprintf(`DELETE FROM %s WHERE series_id = $1`, r.table)
	if _, err := tx.ExecContext(ctx, deleteQuery, string(id)); err != nil {
		return err
	}

	insertQuery := fmt.Sprintf(`
INSERT INTO %s (
	series_id, day, quantity, source, unit_price, cost, peak_kw, avg_kw, capacity_factor
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`, r.table)
	for _, record := range records {
		if _, err := tx.ExecContext(ctx, insertQuery,
			string(id),
			record.Day,
			record.Quantity,
			record.Source,
			record.UnitPrice,
			record.Cost,
			record.PeakKW,
			record.AvgKW,
			record.CapacityFactor,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ListSeries returns the records for a series inside [from, to]. Zero
// bounds are open.
func (r *SeriesRepository) ListSeries(ctx context.Context, id reporting.SeriesID, from, to time.Time) ([]reporting.DailyRecord, error) {
	if id == "" {
		return nil, reporting.ErrEmptySeriesID
	}

	query := fmt.Sprintf(`
SELECT day, quantity, source, unit_price, cost, peak_kw, avg_kw, capacity_factor
FROM %s
WHERE series_id = $1
	AND ($2::timestamptz IS NULL OR day >= $2)
	AND ($3::timestamptz IS NULL OR day <= $3)
ORDER BY day ASC`, r.table)

	rows, err := r.db.QueryContext(ctx, query, string(id), nullableTime(from), nullableTime(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []reporting.DailyRecord
	for rows.Next() {
		var record reporting.DailyRecord
		if err := rows.Scan(
			&record.Day,
			&record.Quantity,
			&record.Source,
			&record.UnitPrice,
			&record.Cost,
			&record.PeakKW,
			&record.AvgKW,
			&record.CapacityFactor,
		); err != nil {
			return nil, err
		}
		record.Day = record.Day.UTC()
		out = append(out, record)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, reporting.ErrSeriesNotFound
	}
	return out, nil
}

// SeriesIDs lists the stored series.
func (r *SeriesRepository) SeriesIDs(ctx context.Context) ([]reporting.SeriesID, error) {
	query := fmt.Sprintf(`SELECT DISTINCT series_id FROM %s ORDER BY series_id`, r.table)
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []reporting.SeriesID
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, reporting.SeriesID(id))
	}
	return ids, rows.Err()
}

func nullableTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t
}

package rate

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ahmethakanbesel/apor-sync/internal/category"
	domain "github.com/ahmethakanbesel/apor-sync/internal/rate"
)

const (
	dateFormat = "2006-01-02"
	batchSize  = 500
)

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) ListAll(ctx context.Context, c category.Category) ([]domain.Record, error) {
	const query = `SELECT id, date, date_iso, rates, date_added, time_added, amended
		FROM rate_records
		WHERE collection = ?
		ORDER BY id ASC`

	rows, err := r.db.QueryContext(ctx, query, c.RecordPartition())
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []domain.Record
	for rows.Next() {
		var rec domain.Record
		var isoStr, ratesStr, addedStr string
		if err := rows.Scan(&rec.ID, &rec.Date, &isoStr, &ratesStr, &addedStr, &rec.TimeAdded, &rec.Amended); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		if err := json.Unmarshal([]byte(ratesStr), &rec.Rates); err != nil {
			return nil, fmt.Errorf("decode rates of record %d: %w", rec.ID, err)
		}
		rec.DateISO, _ = time.Parse(dateFormat, isoStr)
		rec.DateAdded, err = time.Parse(time.RFC3339Nano, addedStr)
		if err != nil {
			return nil, fmt.Errorf("decode date_added of record %d: %w", rec.ID, err)
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

func (r *Repository) InsertMany(ctx context.Context, c category.Category, records []domain.Record) (int64, error) {
	return insertMany(ctx, r.db, c, records)
}

func (r *Repository) MarkAmended(ctx context.Context, c category.Category, date string) (int64, error) {
	return markAmended(ctx, r.db, c, date)
}

func (r *Repository) Apply(ctx context.Context, c category.Category, ws domain.WriteSet) (int64, error) {
	if ws.Empty() && len(ws.AmendedDates) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("apply: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, d := range ws.AmendedDates {
		if _, err := markAmended(ctx, tx, c, d); err != nil {
			return 0, fmt.Errorf("apply: %w", err)
		}
	}

	n, err := insertMany(ctx, tx, c, ws.Records)
	if err != nil {
		return 0, fmt.Errorf("apply: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("apply: commit: %w", err)
	}
	return n, nil
}

func insertMany(ctx context.Context, db execer, c category.Category, records []domain.Record) (int64, error) {
	if len(records) == 0 {
		return 0, nil
	}

	var total int64
	for i := 0; i < len(records); i += batchSize {
		end := min(i+batchSize, len(records))
		batch := records[i:end]

		placeholders := make([]string, len(batch))
		args := make([]any, 0, len(batch)*7)
		for j, rec := range batch {
			rates, err := json.Marshal(ratesOrEmpty(rec.Rates))
			if err != nil {
				return total, fmt.Errorf("encode rates for %s: %w", rec.Date, err)
			}
			placeholders[j] = "(?, ?, ?, ?, ?, ?, ?)"
			args = append(args,
				c.RecordPartition(), rec.Date, rec.DateISO.Format(dateFormat), string(rates),
				rec.DateAdded.UTC().Format(time.RFC3339Nano), rec.TimeAdded, rec.Amended,
			)
		}

		query := fmt.Sprintf( //nolint:gosec // placeholders are not user input
			"INSERT INTO rate_records (collection, date, date_iso, rates, date_added, time_added, amended) VALUES %s",
			strings.Join(placeholders, ", "),
		)

		res, err := db.ExecContext(ctx, query, args...)
		if err != nil {
			return total, fmt.Errorf("insert records: %w", err)
		}

		n, _ := res.RowsAffected()
		total += n
	}

	return total, nil
}

func markAmended(ctx context.Context, db execer, c category.Category, date string) (int64, error) {
	const query = `UPDATE rate_records SET amended = 1 WHERE collection = ? AND date = ?`

	res, err := db.ExecContext(ctx, query, c.RecordPartition(), date)
	if err != nil {
		return 0, fmt.Errorf("mark %s amended: %w", date, err)
	}
	return res.RowsAffected()
}

func ratesOrEmpty(rates []string) []string {
	if rates == nil {
		return []string{}
	}
	return rates
}

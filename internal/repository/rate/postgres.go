package rate

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ahmethakanbesel/apor-sync/internal/category"
	domain "github.com/ahmethakanbesel/apor-sync/internal/rate"
)

var recordColumns = []string{"collection", "date", "date_iso", "rates", "date_added", "time_added", "amended"}

// PostgresRepository stores records in PostgreSQL. Rates are a TEXT[] column.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) ListAll(ctx context.Context, c category.Category) ([]domain.Record, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, date, date_iso, rates, date_added, time_added, amended
		 FROM rate_records WHERE collection = $1 ORDER BY id ASC`,
		c.RecordPartition(),
	)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	var records []domain.Record
	for rows.Next() {
		var rec domain.Record
		if err := rows.Scan(&rec.ID, &rec.Date, &rec.DateISO, &rec.Rates, &rec.DateAdded, &rec.TimeAdded, &rec.Amended); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		rec.DateISO = rec.DateISO.UTC()
		rec.DateAdded = rec.DateAdded.UTC()
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (r *PostgresRepository) InsertMany(ctx context.Context, c category.Category, records []domain.Record) (int64, error) {
	if len(records) == 0 {
		return 0, nil
	}
	n, err := r.pool.CopyFrom(ctx, pgx.Identifier{"rate_records"}, recordColumns, copyRows(c, records))
	if err != nil {
		return 0, fmt.Errorf("insert records: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) MarkAmended(ctx context.Context, c category.Category, date string) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE rate_records SET amended = TRUE WHERE collection = $1 AND date = $2`,
		c.RecordPartition(), date,
	)
	if err != nil {
		return 0, fmt.Errorf("mark %s amended: %w", date, err)
	}
	return tag.RowsAffected(), nil
}

func (r *PostgresRepository) Apply(ctx context.Context, c category.Category, ws domain.WriteSet) (int64, error) {
	if ws.Empty() && len(ws.AmendedDates) == 0 {
		return 0, nil
	}

	var inserted int64
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		for _, d := range ws.AmendedDates {
			if _, err := tx.Exec(ctx,
				`UPDATE rate_records SET amended = TRUE WHERE collection = $1 AND date = $2`,
				c.RecordPartition(), d,
			); err != nil {
				return fmt.Errorf("mark %s amended: %w", d, err)
			}
		}
		if ws.Empty() {
			return nil
		}
		n, err := tx.CopyFrom(ctx, pgx.Identifier{"rate_records"}, recordColumns, copyRows(c, ws.Records))
		if err != nil {
			return fmt.Errorf("insert records: %w", err)
		}
		inserted = n
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("apply: %w", err)
	}
	return inserted, nil
}

func copyRows(c category.Category, records []domain.Record) pgx.CopyFromSource {
	rows := make([][]any, len(records))
	for i, rec := range records {
		rows[i] = []any{
			c.RecordPartition(), rec.Date, rec.DateISO, ratesOrEmpty(rec.Rates),
			rec.DateAdded.UTC(), rec.TimeAdded, rec.Amended,
		}
	}
	return pgx.CopyFromRows(rows)
}

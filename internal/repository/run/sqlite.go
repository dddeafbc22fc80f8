package run

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ahmethakanbesel/apor-sync/internal/apperror"
	"github.com/ahmethakanbesel/apor-sync/internal/category"
	domain "github.com/ahmethakanbesel/apor-sync/internal/run"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, run *domain.Run) error {
	const query = `INSERT INTO sync_runs (pass_id, category, status) VALUES (?, ?, ?)`

	res, err := r.db.ExecContext(ctx, query, run.PassID, string(run.Category), string(run.Status))
	if err != nil {
		return fmt.Errorf("create run: %w", err)
	}

	run.ID, _ = res.LastInsertId()
	run.CreatedAt = time.Now().UTC()
	run.UpdatedAt = run.CreatedAt
	return nil
}

func (r *Repository) Update(ctx context.Context, run *domain.Run) error {
	const query = `UPDATE sync_runs SET status = ?, step = ?, error = ?,
		added = ?, amended = ?, archive_id = ?,
		updated_at = strftime('%Y-%m-%dT%H:%M:%SZ', 'now')
		WHERE id = ?`

	_, err := r.db.ExecContext(ctx, query,
		string(run.Status), nullString(string(run.Step)), nullString(run.Error),
		run.Added, run.Amended, nullInt(run.ArchiveID), run.ID,
	)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	run.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *Repository) List(ctx context.Context, c category.Category, limit int) ([]domain.Run, error) {
	query := `SELECT id, pass_id, category, status, step, error,
		added, amended, archive_id, created_at, updated_at
		FROM sync_runs WHERE 1=1`

	var args []any
	if c != "" {
		query += " AND category = ?"
		args = append(args, string(c))
	}
	query += " ORDER BY id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []domain.Run
	for rows.Next() {
		var run domain.Run
		var cat, status, createdStr, updatedStr string
		var step, runErr sql.NullString
		var archiveID sql.NullInt64

		if err := rows.Scan(
			&run.ID, &run.PassID, &cat, &status, &step, &runErr,
			&run.Added, &run.Amended, &archiveID, &createdStr, &updatedStr,
		); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}

		run.Category = category.Category(cat)
		run.Status = domain.Status(status)
		run.Step = apperror.Step(step.String)
		run.Error = runErr.String
		run.ArchiveID = archiveID.Int64
		run.CreatedAt, _ = time.Parse(time.RFC3339, createdStr)
		run.UpdatedAt, _ = time.Parse(time.RFC3339, updatedStr)
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

func (r *Repository) RecoverStale(ctx context.Context) (int64, error) {
	const query = `UPDATE sync_runs SET status = 'failed', error = 'interrupted',
		updated_at = strftime('%Y-%m-%dT%H:%M:%SZ', 'now')
		WHERE status = 'running'`

	res, err := r.db.ExecContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("recover stale runs: %w", err)
	}

	return res.RowsAffected()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt(n int64) sql.NullInt64 {
	return sql.NullInt64{Int64: n, Valid: n != 0}
}

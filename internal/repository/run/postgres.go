package run

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ahmethakanbesel/apor-sync/internal/apperror"
	"github.com/ahmethakanbesel/apor-sync/internal/category"
	domain "github.com/ahmethakanbesel/apor-sync/internal/run"
)

type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) Create(ctx context.Context, run *domain.Run) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO sync_runs (pass_id, category, status) VALUES ($1, $2, $3)
		 RETURNING id, created_at, updated_at`,
		run.PassID, string(run.Category), string(run.Status),
	).Scan(&run.ID, &run.CreatedAt, &run.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create run: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Update(ctx context.Context, run *domain.Run) error {
	err := r.pool.QueryRow(ctx,
		`UPDATE sync_runs SET status = $1, step = $2, error = $3,
		 added = $4, amended = $5, archive_id = $6, updated_at = NOW()
		 WHERE id = $7 RETURNING updated_at`,
		string(run.Status), nullString(string(run.Step)), nullString(run.Error),
		run.Added, run.Amended, nullInt(run.ArchiveID), run.ID,
	).Scan(&run.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	return nil
}

func (r *PostgresRepository) List(ctx context.Context, c category.Category, limit int) ([]domain.Run, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, pass_id, category, status, COALESCE(step, ''), COALESCE(error, ''),
		 added, amended, COALESCE(archive_id, 0), created_at, updated_at
		 FROM sync_runs WHERE ($1 = '' OR category = $1) ORDER BY id DESC LIMIT $2`,
		string(c), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.Run
	for rows.Next() {
		var run domain.Run
		var cat, status, step string
		if err := rows.Scan(
			&run.ID, &run.PassID, &cat, &status, &step, &run.Error,
			&run.Added, &run.Amended, &run.ArchiveID, &run.CreatedAt, &run.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.Category = category.Category(cat)
		run.Status = domain.Status(status)
		run.Step = apperror.Step(step)
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (r *PostgresRepository) RecoverStale(ctx context.Context) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE sync_runs SET status = 'failed', error = 'interrupted', updated_at = NOW()
		 WHERE status = 'running'`,
	)
	if err != nil {
		return 0, fmt.Errorf("recover stale runs: %w", err)
	}
	return tag.RowsAffected(), nil
}

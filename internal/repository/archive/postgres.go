package archive

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	domain "github.com/ahmethakanbesel/apor-sync/internal/archive"
	"github.com/ahmethakanbesel/apor-sync/internal/category"
)

type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) Insert(ctx context.Context, e *domain.Entry) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO feed_archive
		 (collection, body, hash, algorithm, size, is_unique, archived_at, time_added)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`,
		e.Category.ArchivePartition(), e.Body, e.Hash, e.Algorithm, e.Size, e.Unique,
		e.ArchivedAt.UTC(), e.TimeAdded,
	).Scan(&e.ID)
	if err != nil {
		return fmt.Errorf("insert archive entry: %w", err)
	}
	return nil
}

func (r *PostgresRepository) List(ctx context.Context, c category.Category, limit int) ([]domain.Entry, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, body, hash, algorithm, size, is_unique, archived_at, time_added
		 FROM feed_archive WHERE collection = $1 ORDER BY id DESC LIMIT $2`,
		c.ArchivePartition(), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list archive entries: %w", err)
	}
	defer rows.Close()

	var entries []domain.Entry
	for rows.Next() {
		e := domain.Entry{Category: c}
		if err := rows.Scan(&e.ID, &e.Body, &e.Hash, &e.Algorithm, &e.Size, &e.Unique, &e.ArchivedAt, &e.TimeAdded); err != nil {
			return nil, fmt.Errorf("scan archive entry: %w", err)
		}
		e.ArchivedAt = e.ArchivedAt.UTC()
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

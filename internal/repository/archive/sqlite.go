package archive

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	domain "github.com/ahmethakanbesel/apor-sync/internal/archive"
	"github.com/ahmethakanbesel/apor-sync/internal/category"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Insert(ctx context.Context, e *domain.Entry) error {
	const query = `INSERT INTO feed_archive
		(collection, body, hash, algorithm, size, is_unique, archived_at, time_added)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	res, err := r.db.ExecContext(ctx, query,
		e.Category.ArchivePartition(), e.Body, e.Hash, e.Algorithm, e.Size, e.Unique,
		e.ArchivedAt.UTC().Format(time.RFC3339Nano), e.TimeAdded,
	)
	if err != nil {
		return fmt.Errorf("insert archive entry: %w", err)
	}

	e.ID, _ = res.LastInsertId()
	return nil
}

// List returns the newest entries first.
func (r *Repository) List(ctx context.Context, c category.Category, limit int) ([]domain.Entry, error) {
	const query = `SELECT id, body, hash, algorithm, size, is_unique, archived_at, time_added
		FROM feed_archive
		WHERE collection = ?
		ORDER BY id DESC
		LIMIT ?`

	if limit <= 0 {
		limit = 100
	}

	rows, err := r.db.QueryContext(ctx, query, c.ArchivePartition(), limit)
	if err != nil {
		return nil, fmt.Errorf("list archive entries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []domain.Entry
	for rows.Next() {
		e := domain.Entry{Category: c}
		var archivedStr string
		if err := rows.Scan(&e.ID, &e.Body, &e.Hash, &e.Algorithm, &e.Size, &e.Unique, &archivedStr, &e.TimeAdded); err != nil {
			return nil, fmt.Errorf("scan archive entry: %w", err)
		}
		e.ArchivedAt, _ = time.Parse(time.RFC3339Nano, archivedStr)
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

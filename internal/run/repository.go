package run

import (
	"context"

	"github.com/ahmethakanbesel/apor-sync/internal/category"
)

type Repository interface {
	Create(ctx context.Context, r *Run) error
	Update(ctx context.Context, r *Run) error
	List(ctx context.Context, c category.Category, limit int) ([]Run, error)
	// RecoverStale marks runs left in running state by a crashed process as failed.
	RecoverStale(ctx context.Context) (int64, error)
}

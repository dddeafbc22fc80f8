package rate

import (
	"context"

	"github.com/ahmethakanbesel/apor-sync/internal/category"
)

type Repository interface {
	ListAll(ctx context.Context, c category.Category) ([]Record, error)
	InsertMany(ctx context.Context, c category.Category, records []Record) (int64, error)
	MarkAmended(ctx context.Context, c category.Category, date string) (int64, error)
	// Apply flags every AmendedDates version and inserts Records in a single
	// transaction. It returns the number of inserted records.
	Apply(ctx context.Context, c category.Category, ws WriteSet) (int64, error)
}

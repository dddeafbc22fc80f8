package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/ahmethakanbesel/apor-sync/internal/archive"
	"github.com/ahmethakanbesel/apor-sync/internal/config"
	"github.com/ahmethakanbesel/apor-sync/internal/platform/postgres"
	"github.com/ahmethakanbesel/apor-sync/internal/platform/sqlite"
	"github.com/ahmethakanbesel/apor-sync/internal/rate"
	archiverepo "github.com/ahmethakanbesel/apor-sync/internal/repository/archive"
	raterepo "github.com/ahmethakanbesel/apor-sync/internal/repository/rate"
	runrepo "github.com/ahmethakanbesel/apor-sync/internal/repository/run"
	"github.com/ahmethakanbesel/apor-sync/internal/run"
)

// stores holds the repositories of the configured backend.
type stores struct {
	records  rate.Repository
	archives archive.Repository
	runs     run.Repository
	close    func()
}

func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	switch cfg.DBDriver {
	case config.DriverPostgres:
		pool, err := postgres.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		return &stores{
			records:  raterepo.NewPostgresRepository(pool),
			archives: archiverepo.NewPostgresRepository(pool),
			runs:     runrepo.NewPostgresRepository(pool),
			close:    pool.Close,
		}, nil
	default:
		db, err := sqlite.Open(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		return &stores{
			records:  raterepo.NewRepository(db.DB),
			archives: archiverepo.NewRepository(db.DB),
			runs:     runrepo.NewRepository(db.DB),
			close:    func() { _ = db.Close() },
		}, nil
	}
}

func setupLogger(cfg *config.Config) {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	var h slog.Handler
	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		h = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(h))
}

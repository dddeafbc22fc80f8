package cli

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ahmethakanbesel/apor-sync/internal/archive"
	"github.com/ahmethakanbesel/apor-sync/internal/category"
	"github.com/ahmethakanbesel/apor-sync/internal/feed"
	"github.com/ahmethakanbesel/apor-sync/internal/run"
	"github.com/ahmethakanbesel/apor-sync/internal/syncer"
)

// SyncOptions holds the flags of the sync command.
type SyncOptions struct {
	Categories []string
	Every      time.Duration
}

func NewSyncCommand() *cobra.Command {
	opts := &SyncOptions{}

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run one reconciliation pass over every category",
		Long: "Fetch each category's yield table, insert new and amended weeks, and archive the raw feed.\n" +
			"With --every the pass repeats until the process is interrupted.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSync(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringSliceVarP(&opts.Categories, "category", "c", nil, "categories to sync (default from CATEGORIES)")
	cmd.Flags().DurationVar(&opts.Every, "every", 0, "repeat the pass at this interval")
	return cmd
}

func runSync(ctx context.Context, opts *SyncOptions) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	setupLogger(cfg)

	cats := cfg.Categories
	if len(opts.Categories) > 0 {
		if cats, err = category.ParseList(strings.Join(opts.Categories, ",")); err != nil {
			return err
		}
	}

	st, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.close()

	runSvc := run.NewService(st.runs)
	if err := runSvc.RecoverStaleRuns(ctx); err != nil {
		slog.Error("failed to recover stale runs", "error", err)
	}

	fetcher := feed.New(
		feed.WithBaseURL(cfg.FeedBaseURL),
		feed.WithTimeout(cfg.FetchTimeout),
		feed.WithMaxBytes(cfg.MaxFeedBytes),
	)
	s := syncer.New(fetcher, st.records, archive.NewArchiver(st.archives), syncer.WithRuns(runSvc))

	if opts.Every <= 0 {
		return syncOnce(ctx, s, cats)
	}

	ticker := time.NewTicker(opts.Every)
	defer ticker.Stop()
	for {
		if err := syncOnce(ctx, s, cats); err != nil {
			slog.Warn("pass finished with failures", "error", err, "next_in", opts.Every.String())
		}
		select {
		case <-ctx.Done():
			slog.Info("sync loop stopped")
			return nil
		case <-ticker.C:
		}
	}
}

func syncOnce(ctx context.Context, s *syncer.Syncer, cats []category.Category) error {
	slog.Info("syncing data with CFPB", "categories", cats)
	start := time.Now()

	results, err := s.SyncAll(ctx, cats)

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	slog.Info("pass complete", "categories", len(results), "failed", failed, "duration", time.Since(start).String())
	return err
}

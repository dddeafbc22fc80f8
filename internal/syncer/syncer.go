package syncer

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ahmethakanbesel/apor-sync/internal/apperror"
	"github.com/ahmethakanbesel/apor-sync/internal/archive"
	"github.com/ahmethakanbesel/apor-sync/internal/category"
	"github.com/ahmethakanbesel/apor-sync/internal/rate"
	"github.com/ahmethakanbesel/apor-sync/internal/run"
)

// Fetcher returns the raw feed body of a category.
type Fetcher interface {
	Fetch(ctx context.Context, c category.Category) (string, error)
}

// Archiver persists one snapshot of a raw feed.
type Archiver interface {
	Archive(ctx context.Context, c category.Category, body string, changed bool) (archive.Entry, error)
}

// Result is the outcome of one category pass.
type Result struct {
	Category  category.Category
	Added     int
	Amended   int
	Written   int64
	ArchiveID int64
	Err       error
}

// Changed reports whether the pass wrote anything to the record store.
func (r Result) Changed() bool { return r.Added+r.Amended > 0 }

type Syncer struct {
	fetcher  Fetcher
	records  rate.Repository
	archiver Archiver
	runs     *run.Service
	now      func() time.Time
	passID   func() string
}

func New(fetcher Fetcher, records rate.Repository, archiver Archiver, opts ...Option) *Syncer {
	s := &Syncer{
		fetcher:  fetcher,
		records:  records,
		archiver: archiver,
		now:      time.Now,
		passID:   uuid.NewString,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

type Option func(*Syncer)

// WithRuns records every category pass in the run log.
func WithRuns(runs *run.Service) Option {
	return func(s *Syncer) { s.runs = runs }
}

func WithClock(now func() time.Time) Option {
	return func(s *Syncer) { s.now = now }
}

func WithPassID(fn func() string) Option {
	return func(s *Syncer) { s.passID = fn }
}

// SyncAll runs one pass per category concurrently and waits for all of them.
// A failing category never stops the others; the returned error joins every
// category failure and results are in the order of cats.
func (s *Syncer) SyncAll(ctx context.Context, cats []category.Category) ([]Result, error) {
	passID := s.passID()
	results := make([]Result, len(cats))

	var g errgroup.Group
	for i, c := range cats {
		g.Go(func() error {
			results[i] = s.SyncCategory(ctx, passID, c)
			return nil
		})
	}
	_ = g.Wait()

	var errs []error
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, r.Err)
		}
	}
	return results, errors.Join(errs...)
}

// SyncCategory fetches, parses and reconciles one category, applies the
// write-set and archives the raw feed. Any failure aborts only this pass and
// is returned in Result.Err as an *apperror.Error.
func (s *Syncer) SyncCategory(ctx context.Context, passID string, c category.Category) Result {
	log := slog.With("pass", passID, "category", c)
	res := Result{Category: c}

	var rr *run.Run
	if s.runs != nil {
		var err error
		rr, err = s.runs.Start(ctx, passID, c)
		if err != nil {
			log.Error("record run start", "error", err)
		}
	}

	res.Err = s.pass(ctx, log, c, &res)

	if res.Err != nil {
		var ae *apperror.Error
		step := apperror.Step("")
		if errors.As(res.Err, &ae) {
			step = ae.Step()
		}
		log.Error("sync failed", "step", step, "kind", apperror.KindOf(res.Err), "error", res.Err)
	}

	if rr != nil {
		var err error
		if res.Err != nil {
			err = s.runs.Fail(ctx, rr, res.Err)
		} else {
			err = s.runs.Complete(ctx, rr, res.Added, res.Amended, res.ArchiveID)
		}
		if err != nil {
			log.Error("record run result", "run", rr.ID, "error", err)
		}
	}
	return res
}

func (s *Syncer) pass(ctx context.Context, log *slog.Logger, c category.Category, res *Result) error {
	body, err := s.fetcher.Fetch(ctx, c)
	if err != nil {
		return apperror.Wrap(string(c), apperror.StepFetch, err)
	}

	now := s.now()
	incoming, err := rate.Parse(body, now)
	if err != nil {
		return apperror.Wrap(string(c), apperror.StepParse, err)
	}

	stored, err := s.records.ListAll(ctx, c)
	if err != nil {
		return apperror.Wrap(string(c), apperror.StepList, err)
	}

	ws := rate.Reconcile(stored, incoming, now)
	if len(ws.Duplicates) > 0 {
		log.Warn("feed repeats dates, kept first occurrence", "dates", ws.Duplicates)
	}
	res.Added, res.Amended = ws.Counts()

	if !ws.Empty() {
		n, err := s.records.Apply(ctx, c, ws)
		if err != nil {
			res.Added, res.Amended = 0, 0
			return apperror.Wrap(string(c), apperror.StepApply, err)
		}
		res.Written = n
		log.Info("applied write-set", "new", res.Added, "amended", res.Amended,
			"flagged_dates", ws.AmendedDates, "inserted", n)
	} else {
		log.Info("no missing weeks", "parsed", len(incoming), "stored", len(stored))
	}

	entry, err := s.archiver.Archive(ctx, c, body, !ws.Empty())
	if err != nil {
		return apperror.Wrap(string(c), apperror.StepArchive, err)
	}
	res.ArchiveID = entry.ID
	log.Info("archived feed", "archive", entry.ID, "hash", entry.Hash, "unique", entry.Unique, "bytes", entry.Size)
	return nil
}

package run

import (
	"context"
	"errors"
	"log/slog"

	"github.com/ahmethakanbesel/apor-sync/internal/apperror"
	"github.com/ahmethakanbesel/apor-sync/internal/category"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) RecoverStaleRuns(ctx context.Context) error {
	n, err := s.repo.RecoverStale(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		slog.Warn("marked interrupted runs as failed", "count", n)
	}
	return nil
}

// Start records the beginning of a category pass.
func (s *Service) Start(ctx context.Context, passID string, c category.Category) (*Run, error) {
	r := &Run{PassID: passID, Category: c, Status: StatusRunning}
	if err := s.repo.Create(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *Service) Complete(ctx context.Context, r *Run, added, amended int, archiveID int64) error {
	r.Status = StatusCompleted
	r.Added = added
	r.Amended = amended
	r.ArchiveID = archiveID
	return s.repo.Update(ctx, r)
}

// Fail records the failing step of r. The step is taken from err when it is
// an *apperror.Error.
func (s *Service) Fail(ctx context.Context, r *Run, err error) error {
	r.Status = StatusFailed
	r.Error = err.Error()
	var ae *apperror.Error
	if errors.As(err, &ae) {
		r.Step = ae.Step()
	}
	return s.repo.Update(ctx, r)
}

func (s *Service) List(ctx context.Context, c category.Category, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 100
	}
	return s.repo.List(ctx, c, limit)
}

package run

import (
	"time"

	"github.com/ahmethakanbesel/apor-sync/internal/apperror"
	"github.com/ahmethakanbesel/apor-sync/internal/category"
)

type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Run records one category pass.
type Run struct {
	ID        int64             `json:"id"`
	PassID    string            `json:"passId"`
	Category  category.Category `json:"category"`
	Status    Status            `json:"status"`
	Step      apperror.Step     `json:"step,omitempty"`
	Error     string            `json:"error,omitempty"`
	Added     int               `json:"added"`
	Amended   int               `json:"amended"`
	ArchiveID int64             `json:"archiveId,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

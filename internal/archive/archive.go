package archive

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/ahmethakanbesel/apor-sync/internal/category"
	"github.com/ahmethakanbesel/apor-sync/internal/rate"
)

const AlgorithmSHA256 = "sha256"

// Entry is an immutable snapshot of one raw feed fetch.
type Entry struct {
	ID         int64             `json:"id"`
	Category   category.Category `json:"category"`
	Body       string            `json:"body"`
	Hash       string            `json:"hash"`
	Algorithm  string            `json:"algorithm"`
	Size       int               `json:"size"`
	Unique     bool              `json:"unique"`
	ArchivedAt time.Time         `json:"archivedAt"`
	TimeAdded  string            `json:"timeAdded"`
}

type Repository interface {
	Insert(ctx context.Context, e *Entry) error
	List(ctx context.Context, c category.Category, limit int) ([]Entry, error)
}

// Digest returns the hex encoded SHA-256 of body.
func Digest(body string) string {
	sum := sha256.Sum256([]byte(body))
	return hex.EncodeToString(sum[:])
}

// NewEntry builds the archive entry for body without persisting it.
func NewEntry(c category.Category, body string, changed bool, now time.Time) Entry {
	now = now.UTC()
	return Entry{
		Category:   c,
		Body:       body,
		Hash:       Digest(body),
		Algorithm:  AlgorithmSHA256,
		Size:       len(body),
		Unique:     changed,
		ArchivedAt: now,
		TimeAdded:  now.Format(rate.TimeAddedFormat),
	}
}

type Archiver struct {
	repo Repository
	now  func() time.Time
}

func NewArchiver(repo Repository, opts ...Option) *Archiver {
	a := &Archiver{repo: repo, now: time.Now}
	for _, o := range opts {
		o(a)
	}
	return a
}

type Option func(*Archiver)

func WithClock(now func() time.Time) Option {
	return func(a *Archiver) { a.now = now }
}

// Archive persists a snapshot of body. It is called once per pass whether or
// not the pass changed anything.
func (a *Archiver) Archive(ctx context.Context, c category.Category, body string, changed bool) (Entry, error) {
	e := NewEntry(c, body, changed, a.now())
	if err := a.repo.Insert(ctx, &e); err != nil {
		return Entry{}, fmt.Errorf("archive %s feed: %w", c, err)
	}
	return e, nil
}

package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/ahmethakanbesel/apor-sync/internal/category"
)

const (
	DefaultBaseURL  = "https://s3.amazonaws.com/cfpb-hmda-public/prod/apor"
	defaultTimeout  = 30 * time.Second
	defaultMaxBytes = 10 << 20
)

// ErrTooLarge is returned when a feed body exceeds the configured cap.
var ErrTooLarge = errors.New("feed body too large")

// Fetcher downloads the raw yield table for a category.
type Fetcher struct {
	client   *http.Client
	baseURL  string
	timeout  time.Duration
	maxBytes int64
}

func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		client:   http.DefaultClient,
		baseURL:  DefaultBaseURL,
		timeout:  defaultTimeout,
		maxBytes: defaultMaxBytes,
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

type Option func(*Fetcher)

func WithClient(c *http.Client) Option {
	return func(f *Fetcher) { f.client = c }
}

func WithBaseURL(url string) Option {
	return func(f *Fetcher) { f.baseURL = url }
}

// WithTimeout bounds a single fetch. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) { f.timeout = d }
}

func WithMaxBytes(n int64) Option {
	return func(f *Fetcher) { f.maxBytes = n }
}

func (f *Fetcher) URL(c category.Category) string { return c.FeedURL(f.baseURL) }

// Fetch returns the feed body for c. Transport failures, timeouts and
// non-2xx responses are errors.
func (f *Fetcher) Fetch(ctx context.Context, c category.Category) (string, error) {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	url := f.URL(c)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "text/plain")

	res, err := f.client.Do(req) //nolint:gosec // URL built from internal config
	if err != nil {
		return "", fmt.Errorf("get %s: %w", url, err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return "", fmt.Errorf("feed returned HTTP %d for %s", res.StatusCode, url)
	}

	var body io.Reader = res.Body
	if f.maxBytes > 0 {
		body = io.LimitReader(res.Body, f.maxBytes+1)
	}
	b, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", url, err)
	}
	if f.maxBytes > 0 && int64(len(b)) > f.maxBytes {
		return "", fmt.Errorf("%s: %w (limit %d bytes)", url, ErrTooLarge, f.maxBytes)
	}

	slog.Debug("fetched feed", "category", c, "url", url, "bytes", len(b))
	return string(b), nil
}

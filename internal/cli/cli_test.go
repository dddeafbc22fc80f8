package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahmethakanbesel/apor-sync/internal/category"
	"github.com/ahmethakanbesel/apor-sync/internal/config"
	"github.com/ahmethakanbesel/apor-sync/internal/rate"
)

const (
	fixedV1 = "Date|1 Year|2 Years\n" +
		"1/1/2024|5.00|5.10\n" +
		"1/8/2024|5.05|5.15\n"
	fixedV2 = "Date|1 Year|2 Years\n" +
		"1/1/2024|5.00|5.10\n" +
		"1/8/2024|5.06|5.15\n" +
		"1/15/2024|5.10|5.20\n"
	adjustableV1 = "Date|1 Year|2 Years\n" +
		"1/1/2024|6.00|6.10\n"
)

type feedServer struct {
	mu     sync.Mutex
	bodies map[string]string
	hits   map[string]int
}

func newFeedServer(t *testing.T, bodies map[string]string) (*feedServer, *httptest.Server) {
	t.Helper()
	fs := &feedServer{bodies: bodies, hits: make(map[string]int)}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fs.mu.Lock()
		defer fs.mu.Unlock()
		name := strings.TrimPrefix(r.URL.Path, "/")
		fs.hits[name]++
		body, ok := fs.bodies[name]
		if !ok {
			http.Error(w, "missing", http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return fs, srv
}

func (fs *feedServer) set(name, body string) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.bodies[name] = body
}

func (fs *feedServer) hitCount(name string) int {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.hits[name]
}

func useConfig(t *testing.T, baseURL string) *config.Config {
	t.Helper()
	cfg := &config.Config{
		DBDriver:     config.DriverSQLite,
		DBPath:       filepath.Join(t.TempDir(), "apor.db"),
		FeedBaseURL:  baseURL,
		FetchTimeout: 5 * time.Second,
		MaxFeedBytes: 1 << 20,
		Categories:   category.All,
		LogLevel:     slog.LevelError,
		LogFormat:    "text",
	}
	prev := loadConfig
	loadConfig = func() (*config.Config, error) { return cfg, nil }
	t.Cleanup(func() { loadConfig = prev })
	return cfg
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func exportRecords(t *testing.T, args ...string) []rate.Record {
	t.Helper()
	out, err := execute(t, append([]string{"export"}, args...)...)
	require.NoError(t, err)
	var records []rate.Record
	require.NoError(t, json.Unmarshal([]byte(out), &records))
	return records
}

func TestSyncThenExport(t *testing.T) {
	fs, srv := newFeedServer(t, map[string]string{
		"YieldTableFixed.txt":      fixedV1,
		"YieldTableAdjustable.txt": adjustableV1,
	})
	useConfig(t, srv.URL)

	_, err := execute(t, "sync")
	require.NoError(t, err)

	fixed := exportRecords(t, "--category", "fixed")
	require.Len(t, fixed, 2)
	assert.Equal(t, "1/1/2024", fixed[0].Date)
	assert.Equal(t, []string{"5.00", "5.10"}, fixed[0].Rates)
	assert.False(t, fixed[1].Amended)

	adjustable := exportRecords(t, "-c", "adjustable")
	require.Len(t, adjustable, 1)
	assert.Equal(t, []string{"6.00", "6.10"}, adjustable[0].Rates)

	// Second pass: one amendment and one new week.
	fs.set("YieldTableFixed.txt", fixedV2)
	_, err = execute(t, "sync", "--category", "fixed")
	require.NoError(t, err)

	fixed = exportRecords(t, "-c", "fixed")
	require.Len(t, fixed, 4)
	var amended int
	for _, r := range fixed {
		if r.Date == "1/8/2024" {
			assert.True(t, r.Amended, "every version of an amended week is flagged")
			amended++
		}
	}
	assert.Equal(t, 2, amended)

	current := exportRecords(t, "-c", "fixed", "--current")
	require.Len(t, current, 3)
	assert.Equal(t, []string{"1/1/2024", "1/8/2024", "1/15/2024"}, []string{current[0].Date, current[1].Date, current[2].Date})
	assert.Equal(t, []string{"5.06", "5.15"}, current[1].Rates)

	assert.Equal(t, 1, fs.hitCount("YieldTableAdjustable.txt"), "--category limits the pass")
}

func TestSync_RerunIsNoop(t *testing.T) {
	_, srv := newFeedServer(t, map[string]string{
		"YieldTableFixed.txt":      fixedV1,
		"YieldTableAdjustable.txt": adjustableV1,
	})
	useConfig(t, srv.URL)

	for range 3 {
		_, err := execute(t, "sync")
		require.NoError(t, err)
	}

	assert.Len(t, exportRecords(t, "-c", "fixed"), 2)
	assert.Len(t, exportRecords(t, "-c", "adjustable"), 1)
}

func TestSync_FailedCategoryDoesNotBlockOthers(t *testing.T) {
	_, srv := newFeedServer(t, map[string]string{
		"YieldTableFixed.txt": fixedV1,
	})
	useConfig(t, srv.URL)

	_, err := execute(t, "sync")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "adjustable")

	assert.Len(t, exportRecords(t, "-c", "fixed"), 2)
	assert.Empty(t, exportRecords(t, "-c", "adjustable"))

	out, err := execute(t, "runs", "-c", "adjustable")
	require.NoError(t, err)
	assert.Contains(t, out, "failed")
	assert.Contains(t, out, "fetch")
}

func TestSync_UnknownCategory(t *testing.T) {
	_, srv := newFeedServer(t, map[string]string{})
	useConfig(t, srv.URL)

	_, err := execute(t, "sync", "--category", "balloon")
	require.Error(t, err)
}

func TestExport_ToFile(t *testing.T) {
	_, srv := newFeedServer(t, map[string]string{
		"YieldTableFixed.txt":      fixedV1,
		"YieldTableAdjustable.txt": adjustableV1,
	})
	useConfig(t, srv.URL)

	_, err := execute(t, "sync")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "fixed.json")
	_, err = execute(t, "export", "-c", "fixed", "-o", path)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var records []rate.Record
	require.NoError(t, json.Unmarshal(data, &records))
	assert.Len(t, records, 2)
}

func TestExport_EmptyStoreIsEmptyArray(t *testing.T) {
	_, srv := newFeedServer(t, map[string]string{})
	useConfig(t, srv.URL)

	out, err := execute(t, "export", "-c", "fixed")
	require.NoError(t, err)
	assert.Equal(t, "[]\n", out)
}

func TestExport_RequiresCategory(t *testing.T) {
	_, srv := newFeedServer(t, map[string]string{})
	useConfig(t, srv.URL)

	_, err := execute(t, "export")
	require.Error(t, err)
}

func TestRuns_ListsCompletedPasses(t *testing.T) {
	_, srv := newFeedServer(t, map[string]string{
		"YieldTableFixed.txt":      fixedV1,
		"YieldTableAdjustable.txt": adjustableV1,
	})
	useConfig(t, srv.URL)

	_, err := execute(t, "sync")
	require.NoError(t, err)

	out, err := execute(t, "runs")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "STATUS")
	assert.Contains(t, out, "completed")
}

package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/hotelsearch/booking"
	"github.com/viant/hotelsearch/catalog"
	"github.com/viant/hotelsearch/knnvt"
	"github.com/viant/hotelsearch/search"
)

func TestMain(m *testing.M) {
	logrus.SetLevel(logrus.WarnLevel)
	os.Exit(m.Run())
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	path := writeFile(t, "hotelsearch.yaml", `
log: debug
search:
  n: 50
  k: 5
  query_x: 1.5
catalog:
  db: /tmp/x.sqlite
  index: cover
  snapshots: false
bench:
  runs: 3
`)
	cfg, err = LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log)
	searchCfg, err := cfg.Search.Config()
	require.NoError(t, err)
	assert.Equal(t, 50, searchCfg.N)
	assert.Equal(t, 5, searchCfg.K)
	assert.Equal(t, 1.5, searchCfg.Query.X)
	assert.Equal(t, search.DefaultQueryY, searchCfg.Query.Y)
	assert.Equal(t, "cover", cfg.Catalog.Index)
	assert.False(t, cfg.Catalog.snapshotsEnabled())
	// Keys absent from the file keep their defaults.
	assert.Equal(t, 10, cfg.Catalog.K)
	assert.Equal(t, 3, cfg.Bench.Runs)
	assert.Equal(t, 8, cfg.Bench.Concurrency)
}

func TestLoadConfig_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		content string
	}{
		{name: "unknown key", content: "serach:\n  n: 5\n"},
		{name: "non-numeric query", content: "search:\n  query_x: abc\n"},
		{name: "negative n", content: "search:\n  n: -1\n"},
		{name: "negative runs", content: "bench:\n  runs: -2\n"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadConfig(writeFile(t, "bad.yaml", tc.content))
			assert.Error(t, err)
		})
	}
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestSearchCmd(t *testing.T) {
	out, err := execute(t, "search", "--n", "30", "--k", "4", "--query-x", "50", "--query-y", "50")
	require.NoError(t, err)

	var resp search.Response
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Points, 4)
	for _, p := range resp.Points {
		assert.Equal(t, resp.Points[0].Brand, p.Brand)
	}

	_, err = execute(t, "search", "--k=-1")
	assert.ErrorIs(t, err, search.ErrInvalidArgument)
}

func TestSearchCmd_ConfigFile(t *testing.T) {
	path := writeFile(t, "cfg.yaml", "search:\n  n: 3\n  k: 5\n")
	out, err := execute(t, "--config", path, "search")
	require.NoError(t, err)
	var resp search.Response
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Len(t, resp.Points, 3)
}

func TestBenchCmd(t *testing.T) {
	metricsFile := filepath.Join(t.TempDir(), "bench.prom")
	out, err := execute(t, "--metrics-file", metricsFile, "bench", "--runs", "25", "--concurrency", "4")
	require.NoError(t, err)

	var summary BenchSummary
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.Equal(t, 25, summary.Runs)
	assert.Equal(t, 25*search.DefaultK, summary.Results)
	assert.LessOrEqual(t, summary.P50, summary.Max)

	data, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hotelsearch_search_runs_total")
}

func TestRunBench_Rate(t *testing.T) {
	summary, err := runBench(context.Background(), search.Config{N: 10, K: 2}, BenchConfig{Runs: 5, Concurrency: 2, Rate: 1000})
	require.NoError(t, err)
	assert.Equal(t, 5, summary.Runs)
	assert.Equal(t, 10, summary.Results)

	_, err = runBench(context.Background(), search.Config{N: 10, K: 2}, BenchConfig{Runs: -1})
	assert.Error(t, err)
}

func TestHotelsCommands(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "hotels.sqlite")
	textPath := filepath.Join(dir, "hotels.txt")

	out, err := execute(t, "hotels", "generate", "--db", dbPath, "--count", "60", "--seed", "7", "--text", textPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Generated 60 hotels")

	data, err := os.ReadFile(textPath)
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(string(data)), "\n"), 60)

	out, err = execute(t, "hotels", "find", "--db", dbPath, "--location", "Shanghai", "--k", "3")
	require.NoError(t, err)
	var found catalog.FindResult
	require.NoError(t, json.Unmarshal([]byte(out), &found))
	assert.Equal(t, "Shanghai", found.Location)
	require.Len(t, found.Hotels, 3)

	out, err = execute(t, "hotels", "find", "--db", dbPath, "--x", "10", "--y", "20", "--k", "2", "--index", "cover")
	require.NoError(t, err)
	var near catalog.FindResult
	require.NoError(t, json.Unmarshal([]byte(out), &near))
	require.Len(t, near.Hotels, 2)
	assert.LessOrEqual(t, near.Hotels[0].Distance, near.Hotels[1].Distance)

	out, err = execute(t, "hotels", "book", "--db", dbPath, "--hotel-id", "1", "--guest", "ana")
	require.NoError(t, err)
	var b booking.Booking
	require.NoError(t, json.Unmarshal([]byte(out), &b))
	assert.Equal(t, int64(1), b.HotelID)
	assert.True(t, strings.HasPrefix(b.ConfirmationID, "CONF-"))
	assert.Equal(t, catalog.DefaultCapacity-1, b.Remaining)

	out, err = execute(t, "hotels", "bookings", "--db", dbPath, "--hotel-id", "1")
	require.NoError(t, err)
	var list []booking.Booking
	require.NoError(t, json.Unmarshal([]byte(out), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "ana", list[0].Guest)

	_, err = execute(t, "hotels", "book", "--db", dbPath, "--hotel-id", "9999")
	assert.ErrorIs(t, err, catalog.ErrNotFound)

	out, err = execute(t, "hotels", "export", "--db", dbPath)
	require.NoError(t, err)
	exported, err := catalog.ReadText(strings.NewReader(out))
	require.NoError(t, err)
	assert.Len(t, exported, 60)
}

func TestHotelsGenerate_FromText(t *testing.T) {
	dir := t.TempDir()
	textPath := writeFile(t, "hotels.txt", "品牌1,品牌1 地点01 Hotel #1,10.00,20.00,300,4.5\n品牌2,品牌2 地点02 Hotel #2,90.00,90.00,800,3.9\n")
	dbPath := filepath.Join(dir, "hotels.sqlite")

	_, err := execute(t, "hotels", "generate", "--db", dbPath, "--from-text", textPath)
	require.NoError(t, err)

	out, err := execute(t, "hotels", "find", "--db", dbPath, "--x", "11", "--y", "21", "--k", "1")
	require.NoError(t, err)
	var res catalog.FindResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	require.Len(t, res.Hotels, 1)
	assert.Equal(t, "品牌1 地点01 Hotel #1", res.Hotels[0].Name)
	assert.Equal(t, "地点01", res.Hotels[0].City)
	assert.Equal(t, 1.41, res.Hotels[0].Distance)
}

func TestHotelsFind_ViaSQLNeedsFileDB(t *testing.T) {
	_, err := execute(t, "hotels", "find", "--db", ":memory:", "--x", "10", "--y", "20", "--via-sql")
	assert.ErrorIs(t, err, knnvt.ErrSingleConnection)
}

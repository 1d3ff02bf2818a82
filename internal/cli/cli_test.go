package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock-risk-engine/internal/analysis/series"
	"stock-risk-engine/internal/config"
	"stock-risk-engine/internal/engine"
	"stock-risk-engine/internal/models"
)

type testEnv struct {
	t   *testing.T
	dir string
	cfg *config.Config
}

func newTestEnv(t *testing.T) *testEnv {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Store.Path = filepath.Join(dir, "test.db")
	cfg.UI.ColorEnabled = false
	return &testEnv{t: t, dir: dir, cfg: cfg}
}

// run executes one command against a fresh root, as separate CLI
// invocations would.
func (e *testEnv) run(args ...string) (string, error) {
	root := NewRootCmd(e.cfg, zerolog.Nop(), e.dir)
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func (e *testEnv) writeCSV(name string, bars int) string {
	var b strings.Builder
	b.WriteString("date,open,high,low,close,volume\n")
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < bars; i++ {
		close := 100 + 0.3*float64(i) + 2*math.Sin(float64(i)/3)
		open := close - 0.5
		fmt.Fprintf(&b, "%s,%.2f,%.2f,%.2f,%.2f,%d\n",
			start.AddDate(0, 0, i).Format("2006-01-02"), open, close+1, open-1, close, 100000+i*10)
	}
	path := filepath.Join(e.dir, name)
	require.NoError(e.t, os.WriteFile(path, []byte(b.String()), 0644))
	return path
}

func TestVersion_JSON(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run("version", "--json")
	require.NoError(t, err)

	var got map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, Version, got["version"])
}

func TestConfigValidate(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run("config", "validate", "--json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"valid": true}`, out)

	env.cfg.Engine.MinBars = 1
	_, err = env.run("config", "validate", "--no-color")
	assert.Error(t, err)
}

func TestImportAnalyzeHistoryExport(t *testing.T) {
	env := newTestEnv(t)
	csvPath := env.writeCSV("infy.csv", 150)

	out, err := env.run("import", "infy", csvPath, "--json")
	require.NoError(t, err)
	var imported importResult
	require.NoError(t, json.Unmarshal([]byte(out), &imported))
	assert.Equal(t, "INFY", imported.Symbol)
	assert.Equal(t, "day", imported.Timeframe)
	assert.Equal(t, 150, imported.Kept)
	assert.Zero(t, imported.Dropped)

	out, err = env.run("analyze", "INFY", "--save", "--json")
	require.NoError(t, err)
	var result engine.Result
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, "INFY", result.Symbol)
	assert.NotEqual(t, engine.StatusInsufficientData, result.Status)
	assert.Equal(t, 150, result.Bars)
	assert.Nil(t, result.ChartData, "chart data is only included with --chart")
	require.NotNil(t, result.Risk)
	assert.Contains(t, []string{"BUY", "HOLD", "AVOID", "SELL"}, string(result.Risk.Decision))

	out, err = env.run("history", "list", "--json")
	require.NoError(t, err)
	var records []models.AssessmentRecord
	require.NoError(t, json.Unmarshal([]byte(out), &records))
	require.Len(t, records, 1)
	assert.Equal(t, "INFY", records[0].Symbol)
	assert.Equal(t, string(result.Risk.Decision), records[0].Decision)

	out, err = env.run("history", "show", records[0].ID[:8], "--no-color")
	require.NoError(t, err)
	assert.Contains(t, out, "INFY Risk Analysis")

	exportPath := filepath.Join(env.dir, "out", "infy.csv")
	_, err = env.run("export", "candles", "INFY", "-o", exportPath, "--no-color")
	require.NoError(t, err)

	f, err := os.Open(exportPath)
	require.NoError(t, err)
	defer f.Close()
	rows, err := series.LoadCSV(f)
	require.NoError(t, err)
	assert.Len(t, rows, 150)
}

func TestAnalyze_CSVInsufficientHistory(t *testing.T) {
	env := newTestEnv(t)
	csvPath := env.writeCSV("short.csv", 10)

	out, err := env.run("analyze", "TINY", "--csv", csvPath, "--json")
	require.NoError(t, err)

	var result engine.Result
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, engine.StatusInsufficientData, result.Status)
	assert.Equal(t, "TINY", result.Symbol)
	assert.NotEmpty(t, result.Warnings)
}

func TestAnalyze_CSVWithBenchmark(t *testing.T) {
	env := newTestEnv(t)
	stock := env.writeCSV("stock.csv", 120)
	bench := env.writeCSV("bench.csv", 120)

	out, err := env.run("analyze", "TCS", "--csv", stock, "--benchmark-csv", bench, "--json", "--chart")
	require.NoError(t, err)

	var result engine.Result
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, SourceCSV, result.Provenance.Source)
	require.NotNil(t, result.Beta)
	assert.True(t, result.Beta.Available)
	require.NotNil(t, result.ChartData)
	assert.NotEmpty(t, result.ChartData.Points)
}

func TestWatchlistCommands(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run("watchlist", "add", "infy", "--no-color")
	require.NoError(t, err)
	_, err = env.run("watchlist", "add", "tcs", "--no-color")
	require.NoError(t, err)
	_, err = env.run("watchlist", "add", "wipro", "it", "--no-color")
	require.NoError(t, err)
	_, err = env.run("watchlist", "remove", "tcs", "--no-color")
	require.NoError(t, err)

	out, err := env.run("watchlist", "list", "--json")
	require.NoError(t, err)
	var lists map[string][]string
	require.NoError(t, json.Unmarshal([]byte(out), &lists))
	assert.Equal(t, []string{"INFY"}, lists[env.cfg.Watch.Watchlist])
	assert.Equal(t, []string{"WIPRO"}, lists["it"])
}

func TestScan_Watchlist(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.run("import", "INFY", env.writeCSV("infy.csv", 120), "--no-color")
	require.NoError(t, err)
	_, err = env.run("watchlist", "add", "INFY", "--no-color")
	require.NoError(t, err)
	_, err = env.run("watchlist", "add", "MISSING", "--no-color")
	require.NoError(t, err)

	out, err := env.run("scan", "--save", "--json")
	require.NoError(t, err)

	var summary summaryJSON
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	require.Len(t, summary.Results, 2)
	assert.Equal(t, "INFY", summary.Results[0].Symbol)
	assert.NotEmpty(t, summary.Results[0].Decision)
	assert.Equal(t, "MISSING", summary.Results[1].Symbol)
	assert.Equal(t, 1, summary.Insufficient)
}

func TestOutput_TableAndColors(t *testing.T) {
	var buf bytes.Buffer
	out := &Output{writer: &buf}

	table := NewTable(out, "Symbol", "Decision")
	table.AddRow("INFY", out.Decision("BUY"))
	table.Render()

	text := buf.String()
	assert.Contains(t, text, "Symbol")
	assert.Contains(t, text, "INFY")
	assert.Contains(t, text, "▲ BUY")
	assert.NotContains(t, text, "\x1b[", "colour is off unless enabled")

	colored := &Output{writer: &buf, colorEnabled: true}
	assert.Contains(t, colored.Green("up"), "\x1b[")
	assert.Equal(t, "NEUTRAL", out.Signal("neutral"))
	assert.Equal(t, "STRONG BUY", out.Signal("strong_buy"))
}

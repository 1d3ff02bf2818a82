package runner

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock-risk-engine/internal/config"
	"stock-risk-engine/internal/engine"
	apperrors "stock-risk-engine/internal/errors"
	"stock-risk-engine/internal/models"
	"stock-risk-engine/internal/store"
)

func candles(n int, base float64) []models.Candle {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]models.Candle, n)
	prev := base
	for i := range out {
		x := float64(i)
		c := base + 0.2*x + 4*math.Sin(x/6)
		out[i] = models.Candle{
			Timestamp: start.AddDate(0, 0, i),
			Open:      prev,
			High:      math.Max(prev, c) + 1,
			Low:       math.Min(prev, c) - 1,
			Close:     c,
			Volume:    5000 + 1000*math.Cos(x/4),
		}
		prev = c
	}
	return out
}

type memStore struct {
	mu      sync.Mutex
	candles map[string][]models.Candle
	saved   []*models.AssessmentRecord
	failOn  string
	saveErr error
}

func newMemStore() *memStore {
	return &memStore{candles: make(map[string][]models.Candle)}
}

func (m *memStore) put(symbol, timeframe string, c []models.Candle) {
	m.candles[symbol+"|"+timeframe] = c
}

func (m *memStore) GetCandles(_ context.Context, symbol, timeframe string, _, _ time.Time) ([]models.Candle, error) {
	if symbol == m.failOn {
		return nil, errors.New("disk on fire")
	}
	return m.candles[symbol+"|"+timeframe], nil
}

func (m *memStore) SaveAssessment(_ context.Context, rec *models.AssessmentRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved = append(m.saved, rec)
	return nil
}

func testConfig() config.EngineConfig {
	return config.Default().Engine
}

func TestRun_MixedOutcomes(t *testing.T) {
	mem := newMemStore()
	mem.put("INFY", models.TimeframeDay, candles(120, 100))
	mem.put("TCS", models.TimeframeDay, candles(120, 300))
	mem.put("TINY", models.TimeframeDay, candles(20, 50))
	mem.put("NIFTY50", models.TimeframeDay, candles(120, 1000))
	mem.failOn = "BROKEN"

	r := New(mem, mem, testConfig(), 2)
	summary, err := r.Run(context.Background(), []string{"INFY", "TINY", "BROKEN", "TCS"})
	require.NoError(t, err)

	require.Len(t, summary.Outcomes, 4)
	assert.NotEmpty(t, summary.RunID)
	assert.Equal(t, 1, summary.Insufficient)
	assert.Equal(t, 1, summary.Failed)
	assert.False(t, summary.FinishedAt.Before(summary.StartedAt))

	infy := summary.Outcomes[0]
	assert.Equal(t, "INFY", infy.Symbol)
	require.NoError(t, infy.Err)
	require.NotNil(t, infy.Result)
	assert.Equal(t, SourceStore, infy.Result.Provenance.Source)
	assert.Equal(t, summary.RunID, infy.Result.Provenance.Extra["run_id"])
	assert.True(t, infy.Result.Beta.Available)

	tiny := summary.Outcomes[1]
	assert.True(t, tiny.Insufficient())
	assert.Equal(t, engine.StatusInsufficientData, tiny.Result.Status)
	require.NotNil(t, tiny.Record)

	broken := summary.Outcomes[2]
	assert.True(t, broken.Failed())
	assert.Nil(t, broken.Result)

	assert.Equal(t, "TCS", summary.Outcomes[3].Symbol)

	// INFY, TINY and TCS are persisted.
	assert.Len(t, mem.saved, 3)
	for _, rec := range mem.saved {
		assert.Equal(t, summary.RunID, rec.RunID)
	}
}

func TestRun_SaveFailureIsReported(t *testing.T) {
	mem := newMemStore()
	mem.put("INFY", models.TimeframeDay, candles(120, 100))
	mem.saveErr = errors.New("read-only")

	summary, err := New(mem, mem, testConfig(), 1).Run(context.Background(), []string{"INFY"})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Failed)

	var dataErr *apperrors.DataError
	assert.True(t, apperrors.As(summary.Outcomes[0].Err, &dataErr))
	assert.NotNil(t, summary.Outcomes[0].Result)
}

func TestRun_NilSinkSkipsPersistence(t *testing.T) {
	mem := newMemStore()
	mem.put("INFY", models.TimeframeDay, candles(120, 100))

	summary, err := New(mem, nil, testConfig(), 0).Run(context.Background(), []string{"INFY"})
	require.NoError(t, err)
	assert.Zero(t, summary.Failed)
	assert.NotNil(t, summary.Outcomes[0].Record)
	assert.Empty(t, mem.saved)
}

func TestRun_CancelledContext(t *testing.T) {
	mem := newMemStore()
	mem.put("INFY", models.TimeframeDay, candles(120, 100))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := New(mem, mem, testConfig(), 2).Run(ctx, []string{"INFY", "TCS"})
	assert.ErrorIs(t, err, context.Canceled)
	for _, o := range summary.Outcomes {
		assert.ErrorIs(t, o.Err, context.Canceled)
	}
}

func TestAnalyzeSymbol_UsesStoredTimeframes(t *testing.T) {
	mem := newMemStore()
	mem.put("INFY", models.TimeframeDay, candles(120, 100))
	mem.put("INFY", models.Timeframe60Min, candles(80, 100))
	mem.put("INFY", models.Timeframe5Min, candles(80, 100))

	res, err := New(mem, nil, testConfig(), 1).AnalyzeSymbol(context.Background(), "INFY")
	require.NoError(t, err)
	assert.Len(t, res.MTF.Timeframes, 3)
	assert.False(t, res.Beta.Available, "no benchmark candles stored")
}

func TestAnalyzeSymbol_BenchmarkIsNotItsOwnBenchmark(t *testing.T) {
	mem := newMemStore()
	mem.put("NIFTY50", models.TimeframeDay, candles(120, 1000))

	res, err := New(mem, nil, testConfig(), 1).AnalyzeSymbol(context.Background(), "NIFTY50")
	require.NoError(t, err)
	assert.False(t, res.Beta.Available)
	assert.Equal(t, engine.StatusComplete, res.Status)
}

func TestNewRecord(t *testing.T) {
	mem := newMemStore()
	mem.put("INFY", models.TimeframeDay, candles(120, 100))
	res, err := New(mem, nil, testConfig(), 1).AnalyzeSymbol(context.Background(), "INFY")
	require.NoError(t, err)

	rec, err := NewRecord("run-x", res)
	require.NoError(t, err)
	assert.Equal(t, "run-x", rec.RunID)
	assert.Equal(t, string(res.Risk.Decision), rec.Decision)
	assert.Equal(t, string(res.Score.Signal), rec.Signal)
	assert.Equal(t, res.Risk.RiskScore, rec.RiskScore)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Payload, &decoded))
	assert.Equal(t, "INFY", decoded["symbol"])
}

func TestRun_WithSQLiteStore(t *testing.T) {
	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "run.db"))
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	require.NoError(t, s.SaveCandles(ctx, "INFY", models.TimeframeDay, candles(120, 100)))
	require.NoError(t, s.SaveCandles(ctx, "NIFTY50", models.TimeframeDay, candles(120, 1000)))

	summary, err := New(s, s, testConfig(), 2).Run(ctx, []string{"INFY"})
	require.NoError(t, err)
	require.NoError(t, summary.Outcomes[0].Err)

	records, err := s.GetAssessments(ctx, store.AssessmentFilter{RunID: summary.RunID})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "INFY", records[0].Symbol)
	assert.NotEmpty(t, records[0].Payload)
}

package patterns

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock-risk-engine/internal/analysis"
	"stock-risk-engine/internal/models"
)

func buildSeries(closes []float64, spread float64) *models.PriceSeries {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]models.Candle, len(closes))
	for i, c := range closes {
		bars[i] = models.Candle{
			Timestamp: start.AddDate(0, 0, i),
			Open:      c,
			High:      c + spread,
			Low:       c - spread,
			Close:     c,
			Volume:    1000,
		}
	}
	return &models.PriceSeries{Symbol: "TEST", Bars: bars}
}

func TestPoolPicksClosestAcrossSources(t *testing.T) {
	candidates := []analysis.Level{
		{Price: 90, Source: "s1"},
		{Price: 97, Source: "swing_high"},
		{Price: 100, Source: "pivot"},
		{Price: 104, Source: "swing_low"},
		{Price: 108, Source: "r1"},
	}

	support, resistance := Pool(candidates, 100)
	require.NotNil(t, support)
	require.NotNil(t, resistance)
	assert.Equal(t, 97.0, support.Price)
	assert.Equal(t, "swing_high", support.Source)
	assert.Equal(t, analysis.LevelSupport, support.Type)
	assert.Equal(t, 104.0, resistance.Price)
	assert.Equal(t, analysis.LevelResistance, resistance.Type)
}

func TestPoolEmptySide(t *testing.T) {
	support, resistance := Pool([]analysis.Level{{Price: 120}}, 100)
	assert.Nil(t, support)
	require.NotNil(t, resistance)
	assert.Equal(t, 120.0, resistance.Price)
}

func TestAnalyzePivotFormulas(t *testing.T) {
	bars := []models.Candle{{High: 110, Low: 90, Close: 100}}
	sr := NewLevelAnalyzer().Analyze(bars)

	assert.InDelta(t, 100.0, sr.Pivot, 1e-9)
	assert.InDelta(t, 110.0, sr.R1, 1e-9)
	assert.InDelta(t, 120.0, sr.R2, 1e-9)
	assert.InDelta(t, 130.0, sr.R3, 1e-9)
	assert.InDelta(t, 90.0, sr.S1, 1e-9)
	assert.InDelta(t, 80.0, sr.S2, 1e-9)
	assert.InDelta(t, 70.0, sr.S3, 1e-9)

	require.NotNil(t, sr.NearestSupport)
	assert.InDelta(t, 90.0, *sr.NearestSupport, 1e-9)
	assert.InDelta(t, 10.0, *sr.SupportDistancePct, 1e-9)
	assert.InDelta(t, 10.0, *sr.ResistanceDistancePct, 1e-9)
}

func TestAnalyzeSwingLevelsJoinThePool(t *testing.T) {
	// A peak at 130 then a pullback to 120: the swing high sits above price
	// and is closer than R1.
	closes := make([]float64, 0, 40)
	for i := 0; i < 15; i++ {
		closes = append(closes, 100+float64(i)*2)
	}
	closes = append(closes, 130)
	for i := 0; i < 24; i++ {
		closes = append(closes, 128-float64(i%3)*2)
	}

	sr := DetectLevels(buildSeries(closes, 1))
	assert.Contains(t, sr.SwingResistance, 131.0)
	require.NotNil(t, sr.NearestResistance)
	assert.Greater(t, *sr.NearestResistance, sr.Price)
	assert.LessOrEqual(t, *sr.NearestResistance, sr.R1)
}

func TestAnalyzeEmpty(t *testing.T) {
	sr := NewLevelAnalyzer().Analyze(nil)
	assert.Nil(t, sr.NearestSupport)
	assert.Nil(t, sr.NearestResistance)
}

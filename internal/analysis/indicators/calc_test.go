package indicators

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "stock-risk-engine/internal/errors"
)

func TestCalculatorsRejectBadInput(t *testing.T) {
	bars := seriesFromCloses([]float64{1, 2, 3}).Bars

	_, err := NewSMA(0).Calculate(bars)
	var verr *apperrors.ValidationError
	assert.ErrorAs(t, err, &verr)

	_, err = NewBollingerBands(20, 0).Calculate(bars)
	assert.ErrorAs(t, err, &verr)

	_, err = NewEMA(5).Calculate(bars)
	assert.ErrorIs(t, err, apperrors.ErrInsufficientData)

	_, err = NewATR(3).Calculate(bars)
	assert.ErrorIs(t, err, apperrors.ErrInsufficientData, "ATR needs a previous close for every range")
}

func TestCalculatorsKnownValues(t *testing.T) {
	bars := seriesFromCloses([]float64{10, 11, 12, 13, 14, 15}).Bars

	sma, err := NewSMA(3).Calculate(bars)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 11, 12, 13, 14}, sma)

	ema, err := NewEMA(3).Calculate(bars)
	require.NoError(t, err)
	assert.InDelta(t, 11, ema[2], 1e-12)
	assert.InDelta(t, 12, ema[3], 1e-12)

	roc, err := NewROC(2).Calculate(bars)
	require.NoError(t, err)
	assert.InDelta(t, 20, roc[2], 1e-12)

	obv, err := NewOBV().Calculate(bars)
	require.NoError(t, err)
	assert.Equal(t, 60000.0, last(obv))

	atr, err := NewATR(3).Calculate(bars)
	require.NoError(t, err)
	assert.Zero(t, atr[2], "bar 0 has no previous close and seeds nothing")
	assert.InDelta(t, 1.5, atr[3], 1e-12)
	assert.InDelta(t, 1.5, last(atr), 1e-12)
}

func TestStochasticFlatRange(t *testing.T) {
	bars := seriesFromCloses(make([]float64, 20)).Bars
	for i := range bars {
		bars[i].High, bars[i].Low, bars[i].Close = 5, 5, 5
	}
	lines, err := NewStochastic(14, 3, 3).Calculate(bars)
	require.NoError(t, err)
	assert.Equal(t, 50.0, last(lines[LineK]))
	assert.Equal(t, 50.0, last(lines[LineD]))
}

func TestMACDLines(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	m := NewMACD(12, 26, 9)
	lines, err := m.Calculate(seriesFromCloses(closes).Bars)
	require.NoError(t, err)

	assert.Equal(t, 34, m.Period())
	assert.Zero(t, lines[LineSignal][32])
	assert.Zero(t, lines[LineMACD][24])
	assert.NotZero(t, lines[LineMACD][25])
	assert.Equal(t, 25, m.LineWarmup(LineMACD))
	assert.Equal(t, 33, m.LineWarmup(LineSignal))
	assert.Greater(t, last(lines[LineMACD]), 0.0)
	assert.InDelta(t, last(lines[LineMACD])-last(lines[LineSignal]), last(lines[LineHistogram]), 1e-12)
}

package indicators

import (
	"fmt"

	"stock-risk-engine/internal/models"
)

// SMA is the simple moving average of a candle source.
type SMA struct {
	window
	src Source
}

// NewSMA creates an SMA over closes.
func NewSMA(period int) *SMA {
	return &SMA{window: window{fmt.Sprintf("SMA_%d", period), period}, src: Close}
}

func (s *SMA) Calculate(candles []models.Candle) ([]float64, error) {
	if err := s.check(len(candles), s.period); err != nil {
		return nil, err
	}
	return rollingMean(s.src.Column(candles), s.period), nil
}

// EMA is the exponential moving average of closes, seeded with the SMA of
// the first period bars.
type EMA struct {
	window
}

// NewEMA creates an EMA over closes.
func NewEMA(period int) *EMA {
	return &EMA{window{fmt.Sprintf("EMA_%d", period), period}}
}

func (e *EMA) Calculate(candles []models.Candle) ([]float64, error) {
	if err := e.check(len(candles), e.period); err != nil {
		return nil, err
	}
	return emaOf(Close.Column(candles), e.period), nil
}

// MACD output lines.
const (
	LineMACD      = "macd"
	LineSignal    = "signal"
	LineHistogram = "histogram"
)

// MACD is the fast-minus-slow EMA spread with its signal EMA.
type MACD struct {
	window
	fast, slow, signal int
}

// NewMACD creates a MACD, conventionally (12, 26, 9).
func NewMACD(fast, slow, signal int) *MACD {
	return &MACD{
		window: window{fmt.Sprintf("MACD_%d_%d_%d", fast, slow, signal), slow + signal - 1},
		fast:   fast,
		slow:   slow,
		signal: signal,
	}
}

// Calculate returns the LineMACD, LineSignal and LineHistogram series. The
// MACD line starts at bar slow-1; signal and histogram at Period()-1.
func (m *MACD) Calculate(candles []models.Candle) (map[string][]float64, error) {
	if err := m.check(len(candles), m.fast, m.slow, m.signal); err != nil {
		return nil, err
	}

	n := len(candles)
	closes := Close.Column(candles)
	fast, slow := emaOf(closes, m.fast), emaOf(closes, m.slow)

	from := m.slow - 1
	line := make([]float64, n)
	for i := from; i < n; i++ {
		line[i] = fast[i] - slow[i]
	}
	signal := shift(emaOf(line[from:], m.signal), from, n)

	hist := make([]float64, n)
	for i := m.period - 1; i < n; i++ {
		hist[i] = line[i] - signal[i]
	}

	return map[string][]float64{
		LineMACD:      line,
		LineSignal:    signal,
		LineHistogram: hist,
	}, nil
}

// LineWarmup returns the leading bars without a value for one output line.
func (m *MACD) LineWarmup(line string) int {
	if line == LineMACD {
		return m.slow - 1
	}
	return m.Period() - 1
}

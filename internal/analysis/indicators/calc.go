package indicators

import (
	"fmt"
	"math"

	"github.com/montanaflynn/stats"

	apperrors "stock-risk-engine/internal/errors"
	"stock-risk-engine/internal/models"
)

// Source picks the price a calculator reads from each candle.
type Source func(models.Candle) float64

// Candle field sources.
var (
	Close  Source = func(c models.Candle) float64 { return c.Close }
	High   Source = func(c models.Candle) float64 { return c.High }
	Low    Source = func(c models.Candle) float64 { return c.Low }
	Volume Source = func(c models.Candle) float64 { return c.Volume }
)

// Column extracts one value per candle.
func (s Source) Column(candles []models.Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = s(c)
	}
	return out
}

// window carries the name and lookback shared by every calculator.
type window struct {
	name   string
	period int
}

func (w window) Name() string { return w.name }

// Period is the number of bars needed before the first value.
func (w window) Period() int { return w.period }

// check validates the configured lengths against the history length.
func (w window) check(have int, lengths ...int) error {
	for _, l := range lengths {
		if l <= 0 {
			return apperrors.NewValidationError("period", l, w.name+" lengths must be positive")
		}
	}
	if have < w.period {
		return fmt.Errorf("%s needs %d bars, have %d: %w", w.name, w.period, have, apperrors.ErrInsufficientData)
	}
	return nil
}

// average is the arithmetic mean, 0 for an empty slice.
func average(values []float64) float64 {
	m, err := stats.Mean(values)
	if err != nil {
		return 0
	}
	return m
}

// deviation is the population standard deviation.
func deviation(values []float64) float64 {
	sd, err := stats.StandardDeviationPopulation(values)
	if err != nil {
		return 0
	}
	return sd
}

// rollingMean writes the trailing mean of length n from index n-1 on.
func rollingMean(values []float64, n int) []float64 {
	out := make([]float64, len(values))
	for end := n; end <= len(values); end++ {
		out[end-1] = average(values[end-n : end])
	}
	return out
}

// expSmooth seeds with the mean of the first n values and then applies
// an exponential step of weight alpha. Values before the seed stay 0.
func expSmooth(values []float64, n int, alpha float64) []float64 {
	if n <= 0 || len(values) < n {
		return nil
	}
	out := make([]float64, len(values))
	prev := average(values[:n])
	out[n-1] = prev
	for i := n; i < len(values); i++ {
		prev += alpha * (values[i] - prev)
		out[i] = prev
	}
	return out
}

// emaOf is the standard EMA with alpha 2/(n+1).
func emaOf(values []float64, n int) []float64 {
	return expSmooth(values, n, 2/float64(n+1))
}

// wilderOf is Wilder's running average with alpha 1/n.
func wilderOf(values []float64, n int) []float64 {
	return expSmooth(values, n, 1/float64(n))
}

// trueRanges returns the true range of every bar; the first bar has no
// previous close and uses its own high-low span.
func trueRanges(candles []models.Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		span := c.High - c.Low
		if i > 0 {
			prev := candles[i-1].Close
			span = math.Max(span, math.Max(math.Abs(c.High-prev), math.Abs(c.Low-prev)))
		}
		out[i] = span
	}
	return out
}

// extremes returns the highest and lowest values of a slice.
func extremes(values []float64) (hi, lo float64) {
	if len(values) == 0 {
		return 0, 0
	}
	hi, lo = values[0], values[0]
	for _, v := range values[1:] {
		hi = math.Max(hi, v)
		lo = math.Min(lo, v)
	}
	return hi, lo
}

// shift moves values right by offset into a slice of length n.
func shift(values []float64, offset, n int) []float64 {
	out := make([]float64, n)
	copy(out[offset:], values)
	return out
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

// Slope returns the least-squares slope of values against their index.
// It returns 0 for fewer than two points.
func Slope(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	series := make(stats.Series, len(values))
	for i, v := range values {
		series[i] = stats.Coordinate{X: float64(i), Y: v}
	}
	fit, err := stats.LinearRegression(series)
	if err != nil || len(fit) < 2 {
		return 0
	}
	slope := fit[1].Y - fit[0].Y
	if math.IsNaN(slope) || math.IsInf(slope, 0) {
		return 0
	}
	return slope
}

func last(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return values[len(values)-1]
}

func ptr(v float64) *float64 {
	return &v
}

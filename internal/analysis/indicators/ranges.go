package indicators

import (
	"fmt"
	"math"

	apperrors "stock-risk-engine/internal/errors"
	"stock-risk-engine/internal/models"
)

// ATR is Wilder's average true range.
type ATR struct {
	window
}

// NewATR creates an ATR; it needs n+1 bars so that every averaged range
// has a previous close.
func NewATR(n int) *ATR {
	return &ATR{window{fmt.Sprintf("ATR_%d", n), n}}
}

// Calculate seeds from the ranges of bars 1..n, so the first value is at
// index n and bar 0 never contributes.
func (a *ATR) Calculate(candles []models.Candle) ([]float64, error) {
	if err := a.check(len(candles)-1, a.period); err != nil {
		return nil, err
	}
	return shift(wilderOf(trueRanges(candles)[1:], a.period), 1, len(candles)), nil
}

// ADX output lines.
const (
	LineADX     = "adx"
	LinePlusDI  = "plus_di"
	LineMinusDI = "minus_di"
)

// ADX is the average directional index with its +DI and -DI lines.
type ADX struct {
	window
	n int
}

// NewADX creates an ADX; the first ADX value needs 2n bars.
func NewADX(n int) *ADX {
	return &ADX{window: window{fmt.Sprintf("ADX_%d", n), 2 * n}, n: n}
}

// Calculate returns LineADX, LinePlusDI and LineMinusDI. DI lines start at
// bar n, ADX at bar 2n-1.
func (a *ADX) Calculate(candles []models.Candle) (map[string][]float64, error) {
	if err := a.check(len(candles), a.n); err != nil {
		return nil, err
	}

	bars := len(candles)
	plusMove := make([]float64, bars)
	minusMove := make([]float64, bars)
	for i := 1; i < bars; i++ {
		up := candles[i].High - candles[i-1].High
		down := candles[i-1].Low - candles[i].Low
		switch {
		case up > down && up > 0:
			plusMove[i] = up
		case down > up && down > 0:
			minusMove[i] = down
		}
	}
	ranges := trueRanges(candles)
	ranges[0] = 0

	plus, minus, tr := wilderOf(plusMove, a.n), wilderOf(minusMove, a.n), wilderOf(ranges, a.n)

	plusDI := make([]float64, bars)
	minusDI := make([]float64, bars)
	dx := make([]float64, bars)
	for i := a.n; i < bars; i++ {
		if tr[i] != 0 {
			plusDI[i] = 100 * plus[i] / tr[i]
			minusDI[i] = 100 * minus[i] / tr[i]
		}
		if total := plusDI[i] + minusDI[i]; total != 0 {
			dx[i] = 100 * math.Abs(plusDI[i]-minusDI[i]) / total
		}
	}

	return map[string][]float64{
		LineADX:     shift(wilderOf(dx[a.n:], a.n), a.n, bars),
		LinePlusDI:  plusDI,
		LineMinusDI: minusDI,
	}, nil
}

// Bollinger output lines.
const (
	LineUpper     = "upper"
	LineMiddle    = "middle"
	LineLower     = "lower"
	LineBandwidth = "bandwidth"
	LinePercentB  = "percent_b"
)

// BollingerBands are an SMA envelope at k population standard deviations.
type BollingerBands struct {
	window
	k float64
}

// NewBollingerBands creates bands of the given length and width.
func NewBollingerBands(period int, k float64) *BollingerBands {
	return &BollingerBands{window: window{fmt.Sprintf("BollingerBands_%d_%.1f", period, k), period}, k: k}
}

// Calculate returns the three bands plus LineBandwidth, (upper-lower)/middle,
// and LinePercentB, the close's position between the bands.
func (b *BollingerBands) Calculate(candles []models.Candle) (map[string][]float64, error) {
	if b.k <= 0 {
		return nil, apperrors.NewValidationError("k", b.k, "band width must be positive")
	}
	if err := b.check(len(candles), b.period); err != nil {
		return nil, err
	}

	n := len(candles)
	closes := Close.Column(candles)
	lines := map[string][]float64{}
	for _, key := range []string{LineUpper, LineMiddle, LineLower, LineBandwidth, LinePercentB} {
		lines[key] = make([]float64, n)
	}

	for i := b.period - 1; i < n; i++ {
		win := closes[i-b.period+1 : i+1]
		mid, off := average(win), b.k*deviation(win)
		upper, lower := mid+off, mid-off

		lines[LineMiddle][i] = mid
		lines[LineUpper][i] = upper
		lines[LineLower][i] = lower
		if mid != 0 {
			lines[LineBandwidth][i] = (upper - lower) / mid
		}
		if upper != lower {
			lines[LinePercentB][i] = (closes[i] - lower) / (upper - lower)
		}
	}
	return lines, nil
}

package indicators

import (
	"fmt"

	"stock-risk-engine/internal/models"
)

// RSI is Wilder's relative strength index. A window without losses reads
// 100.
type RSI struct {
	window
	n int
}

// NewRSI creates an RSI; the first value needs n+1 bars.
func NewRSI(n int) *RSI {
	return &RSI{window: window{fmt.Sprintf("RSI_%d", n), n + 1}, n: n}
}

func (r *RSI) Calculate(candles []models.Candle) ([]float64, error) {
	if err := r.check(len(candles), r.n); err != nil {
		return nil, err
	}

	closes := Close.Column(candles)
	up := make([]float64, len(closes)-1)
	down := make([]float64, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		if d := closes[i] - closes[i-1]; d > 0 {
			up[i-1] = d
		} else {
			down[i-1] = -d
		}
	}

	gain, loss := wilderOf(up, r.n), wilderOf(down, r.n)
	out := make([]float64, len(closes))
	for i := r.n - 1; i < len(up); i++ {
		out[i+1] = relativeStrength(gain[i], loss[i])
	}
	return out, nil
}

func relativeStrength(gain, loss float64) float64 {
	if loss == 0 {
		return 100
	}
	return 100 - 100/(1+gain/loss)
}

// Stochastic output lines.
const (
	LineK = "percent_k"
	LineD = "percent_d"
)

// Stochastic is the %K/%D oscillator with optional %K smoothing.
type Stochastic struct {
	window
	k, d, smooth int
}

// NewStochastic creates a stochastic oscillator, conventionally (14, 3, 3).
func NewStochastic(k, d, smooth int) *Stochastic {
	return &Stochastic{
		window: window{fmt.Sprintf("Stochastic_%d_%d_%d", k, d, smooth), k + d},
		k:      k,
		d:      d,
		smooth: smooth,
	}
}

// Calculate returns LineK and LineD. A flat range reads 50.
func (s *Stochastic) Calculate(candles []models.Candle) (map[string][]float64, error) {
	if err := s.check(len(candles), s.k, s.d); err != nil {
		return nil, err
	}

	n := len(candles)
	highs, lows := High.Column(candles), Low.Column(candles)

	raw := make([]float64, n)
	for i := s.k - 1; i < n; i++ {
		hi, _ := extremes(highs[i-s.k+1 : i+1])
		_, lo := extremes(lows[i-s.k+1 : i+1])
		raw[i] = 50
		if hi != lo {
			raw[i] = 100 * (candles[i].Close - lo) / (hi - lo)
		}
	}

	k, kStart := raw, s.k-1
	if s.smooth > 1 {
		k = make([]float64, n)
		kStart += s.smooth - 1
		for i := kStart; i < n; i++ {
			k[i] = average(raw[i-s.smooth+1 : i+1])
		}
	}

	d := make([]float64, n)
	for i := kStart + s.d - 1; i < n; i++ {
		d[i] = average(k[i-s.d+1 : i+1])
	}

	return map[string][]float64{LineK: k, LineD: d}, nil
}

// ROC is the percentage change of the close over n bars.
type ROC struct {
	window
	n int
}

// NewROC creates a rate-of-change indicator.
func NewROC(n int) *ROC {
	return &ROC{window: window{fmt.Sprintf("ROC_%d", n), n + 1}, n: n}
}

func (r *ROC) Calculate(candles []models.Candle) ([]float64, error) {
	if err := r.check(len(candles), r.n); err != nil {
		return nil, err
	}
	closes := Close.Column(candles)
	out := make([]float64, len(closes))
	for i := r.n; i < len(closes); i++ {
		if base := closes[i-r.n]; base != 0 {
			out[i] = 100 * (closes[i] - base) / base
		}
	}
	return out, nil
}

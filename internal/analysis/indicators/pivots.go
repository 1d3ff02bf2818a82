package indicators

import (
	"stock-risk-engine/internal/models"
)

// PivotPoints are the classic floor-trader levels around a pivot.
type PivotPoints struct {
	Pivot  float64
	R1, S1 float64
	R2, S2 float64
	R3, S3 float64
}

// StandardPivotPoints derives PivotPoints from one bar's high, low and
// close.
type StandardPivotPoints struct {
	window
}

// NewStandardPivotPoints creates the classic pivot calculator.
func NewStandardPivotPoints() *StandardPivotPoints {
	return &StandardPivotPoints{window{"StandardPivotPoints", 1}}
}

// Calculate returns the levels for one high/low/close triple.
func (s *StandardPivotPoints) Calculate(high, low, close float64) *PivotPoints {
	p := (high + low + close) / 3
	span := high - low
	return &PivotPoints{
		Pivot: p,
		R1:    2*p - low,
		S1:    2*p - high,
		R2:    p + span,
		S2:    p - span,
		R3:    high + 2*(p-low),
		S3:    low - 2*(high-p),
	}
}

// CalculateFromCandle returns the levels for a single candle.
func (s *StandardPivotPoints) CalculateFromCandle(c models.Candle) *PivotPoints {
	return s.Calculate(c.High, c.Low, c.Close)
}

// CalculateFromCandles returns the levels for the latest candle.
func (s *StandardPivotPoints) CalculateFromCandles(candles []models.Candle) (*PivotPoints, error) {
	if err := s.check(len(candles)); err != nil {
		return nil, err
	}
	return s.CalculateFromCandle(candles[len(candles)-1]), nil
}

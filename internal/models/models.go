// Package models provides domain models for the analysis engine.
package models

import (
	"time"
)

// Timeframe identifiers used when storing and labelling series.
const (
	TimeframeDay   = "day"
	Timeframe60Min = "60minute"
	Timeframe5Min  = "5minute"
)

// Candle represents OHLCV data for a time period.
type Candle struct {
	Timestamp time.Time `json:"date"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
}

// PriceSeries is an ordered, cleaned sequence of candles for one instrument.
// Timestamps are strictly increasing. A series is never mutated after
// preparation; helpers return fresh slices.
type PriceSeries struct {
	Symbol    string
	Timeframe string
	Bars      []Candle
}

// Len returns the number of bars.
func (s *PriceSeries) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Bars)
}

// Last returns the latest bar. It panics on an empty series.
func (s *PriceSeries) Last() Candle {
	return s.Bars[len(s.Bars)-1]
}

// Tail returns the trailing n bars (or all bars when n exceeds the length).
func (s *PriceSeries) Tail(n int) []Candle {
	if n >= len(s.Bars) {
		return s.Bars
	}
	return s.Bars[len(s.Bars)-n:]
}

// Closes extracts close prices.
func (s *PriceSeries) Closes() []float64 {
	out := make([]float64, len(s.Bars))
	for i, c := range s.Bars {
		out[i] = c.Close
	}
	return out
}

// Highs extracts high prices.
func (s *PriceSeries) Highs() []float64 {
	out := make([]float64, len(s.Bars))
	for i, c := range s.Bars {
		out[i] = c.High
	}
	return out
}

// Lows extracts low prices.
func (s *PriceSeries) Lows() []float64 {
	out := make([]float64, len(s.Bars))
	for i, c := range s.Bars {
		out[i] = c.Low
	}
	return out
}

// Volumes extracts volumes.
func (s *PriceSeries) Volumes() []float64 {
	out := make([]float64, len(s.Bars))
	for i, c := range s.Bars {
		out[i] = c.Volume
	}
	return out
}

// Direction is a generic bullish/bearish/neutral classification shared by
// the analysis stages.
type Direction string

const (
	Bullish Direction = "bullish"
	Bearish Direction = "bearish"
	Neutral Direction = "neutral"
)

// Vote converts a direction into a +1/0/-1 vote.
func (d Direction) Vote() int {
	switch d {
	case Bullish:
		return 1
	case Bearish:
		return -1
	default:
		return 0
	}
}

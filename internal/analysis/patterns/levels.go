// Package patterns provides support/resistance detection and price
// structure classification.
package patterns

import (
	"fmt"
	"sort"

	"stock-risk-engine/internal/analysis"
	"stock-risk-engine/internal/analysis/indicators"
	"stock-risk-engine/internal/models"
)

// DefaultSwingRadii are the half-widths of the centered windows used to
// find swing extrema.
var DefaultSwingRadii = []int{5, 10, 20}

// LevelAnalyzer identifies support and resistance levels in price data.
type LevelAnalyzer struct {
	radii  []int
	pivots *indicators.StandardPivotPoints
}

// NewLevelAnalyzer creates a new support/resistance level analyzer.
func NewLevelAnalyzer() *LevelAnalyzer {
	return &LevelAnalyzer{
		radii:  DefaultSwingRadii,
		pivots: indicators.NewStandardPivotPoints(),
	}
}

func (l *LevelAnalyzer) Name() string {
	return "LevelAnalyzer"
}

// SupportResistance is the pooled level picture for the latest bar.
// Nearest levels and distances are nil when no candidate lies on that side
// of price.
type SupportResistance struct {
	Price float64 `json:"price"`

	Pivot float64 `json:"pivot"`
	R1    float64 `json:"r1"`
	R2    float64 `json:"r2"`
	R3    float64 `json:"r3"`
	S1    float64 `json:"s1"`
	S2    float64 `json:"s2"`
	S3    float64 `json:"s3"`

	// Swing extrema, ascending and de-duplicated. A swing high may sit
	// below price; pooling decides its role, not its origin.
	SwingSupport    []float64 `json:"swing_support"`
	SwingResistance []float64 `json:"swing_resistance"`

	NearestSupport        *float64 `json:"nearest_support"`
	NearestResistance     *float64 `json:"nearest_resistance"`
	SupportDistancePct    *float64 `json:"support_distance_pct"`
	ResistanceDistancePct *float64 `json:"resistance_distance_pct"`
	SupportSource         string   `json:"support_source,omitempty"`
	ResistanceSource      string   `json:"resistance_source,omitempty"`
}

// DetectLevels runs the default analyzer over a series.
func DetectLevels(series *models.PriceSeries) SupportResistance {
	return NewLevelAnalyzer().Analyze(series.Bars)
}

// Analyze computes pivot and swing levels and pools them around the latest
// close. An empty input yields a zero value.
func (l *LevelAnalyzer) Analyze(candles []models.Candle) SupportResistance {
	if len(candles) == 0 {
		return SupportResistance{}
	}

	lastBar := candles[len(candles)-1]
	pp := l.pivots.CalculateFromCandle(lastBar)
	sr := SupportResistance{
		Price: lastBar.Close,
		Pivot: pp.Pivot,
		R1:    pp.R1,
		R2:    pp.R2,
		R3:    pp.R3,
		S1:    pp.S1,
		S2:    pp.S2,
		S3:    pp.S3,
	}

	lows, highs := l.findSwingLevels(candles)
	sr.SwingSupport = uniqueSorted(lows)
	sr.SwingResistance = uniqueSorted(highs)

	candidates := []analysis.Level{
		{Price: pp.Pivot, Source: "pivot"},
		{Price: pp.R1, Source: "r1"},
		{Price: pp.R2, Source: "r2"},
		{Price: pp.R3, Source: "r3"},
		{Price: pp.S1, Source: "s1"},
		{Price: pp.S2, Source: "s2"},
		{Price: pp.S3, Source: "s3"},
	}
	for _, p := range sr.SwingSupport {
		candidates = append(candidates, analysis.Level{Price: p, Source: "swing_low"})
	}
	for _, p := range sr.SwingResistance {
		candidates = append(candidates, analysis.Level{Price: p, Source: "swing_high"})
	}

	support, resistance := Pool(candidates, sr.Price)
	if support != nil {
		sr.NearestSupport = &support.Price
		sr.SupportSource = support.Source
		dist := (sr.Price - support.Price) / sr.Price * 100
		sr.SupportDistancePct = &dist
	}
	if resistance != nil {
		sr.NearestResistance = &resistance.Price
		sr.ResistanceSource = resistance.Source
		dist := (resistance.Price - sr.Price) / sr.Price * 100
		sr.ResistanceDistancePct = &dist
	}

	return sr
}

// Pool classifies candidates purely by position relative to price and
// returns the closest one on each side. Candidates equal to price are
// ignored. Ties keep the first candidate seen.
func Pool(candidates []analysis.Level, price float64) (support, resistance *analysis.Level) {
	for i := range candidates {
		c := candidates[i]
		switch {
		case c.Price < price:
			if support == nil || c.Price > support.Price {
				c.Type = analysis.LevelSupport
				support = &c
			}
		case c.Price > price:
			if resistance == nil || c.Price < resistance.Price {
				c.Type = analysis.LevelResistance
				resistance = &c
			}
		}
	}
	return support, resistance
}

// findSwingLevels returns swing lows and highs for every radius. A bar is a
// swing high when its high equals the maximum over the full centered window
// of 2r+1 bars; swing lows mirror this.
func (l *LevelAnalyzer) findSwingLevels(candles []models.Candle) (lows, highs []float64) {
	n := len(candles)
	for _, r := range l.radii {
		for i := r; i < n-r; i++ {
			hi, lo := candles[i].High, candles[i].Low
			isHigh, isLow := true, true
			for j := i - r; j <= i+r; j++ {
				if candles[j].High > hi {
					isHigh = false
				}
				if candles[j].Low < lo {
					isLow = false
				}
				if !isHigh && !isLow {
					break
				}
			}
			if isHigh {
				highs = append(highs, hi)
			}
			if isLow {
				lows = append(lows, lo)
			}
		}
	}
	return lows, highs
}

func uniqueSorted(values []float64) []float64 {
	if len(values) == 0 {
		return nil
	}
	out := append([]float64(nil), values...)
	sort.Float64s(out)
	k := 1
	for i := 1; i < len(out); i++ {
		if out[i] != out[k-1] {
			out[k] = out[i]
			k++
		}
	}
	return out[:k]
}

// String renders the nearest levels for logs.
func (sr SupportResistance) String() string {
	s, r := "none", "none"
	if sr.NearestSupport != nil {
		s = fmt.Sprintf("%.2f (%s, %.2f%%)", *sr.NearestSupport, sr.SupportSource, *sr.SupportDistancePct)
	}
	if sr.NearestResistance != nil {
		r = fmt.Sprintf("%.2f (%s, %.2f%%)", *sr.NearestResistance, sr.ResistanceSource, *sr.ResistanceDistancePct)
	}
	return fmt.Sprintf("support=%s resistance=%s", s, r)
}

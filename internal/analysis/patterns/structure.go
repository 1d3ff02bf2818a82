package patterns

import (
	"stock-risk-engine/internal/analysis/indicators"
	"stock-risk-engine/internal/models"
)

// Channel labels.
const (
	ChannelAscending  = "ascending"
	ChannelDescending = "descending"
	ChannelHorizontal = "horizontal"
)

const (
	StructureWindow   = 20
	channelSlopePct   = 0.1 // percent of mean close per bar
	consolidationPct  = 5.0
	breakoutSMAPeriod = 50
)

// Structure describes the recent shape of price.
type Structure struct {
	Channel        string           `json:"channel"`
	SlopePctPerBar float64          `json:"slope_pct_per_bar"`
	RangePct       float64          `json:"range_pct"`
	Consolidation  bool             `json:"consolidation"`
	Breakout       models.Direction `json:"breakout"`
	// Detected is false when the history was too short and the neutral
	// defaults were returned.
	Detected bool `json:"detected"`
}

// NeutralStructure is returned when detection is not possible.
func NeutralStructure() Structure {
	return Structure{
		Channel:  ChannelHorizontal,
		Breakout: models.Neutral,
	}
}

// DetectStructure classifies the trailing window into a channel, flags
// consolidation and detects a close crossing the 50-bar SMA.
func DetectStructure(series *models.PriceSeries) Structure {
	s := NeutralStructure()
	n := series.Len()
	if n < StructureWindow {
		return s
	}
	s.Detected = true

	window := series.Tail(StructureWindow)
	closes := make([]float64, len(window))
	hi, lo := window[0].High, window[0].Low
	var total float64
	for i, c := range window {
		closes[i] = c.Close
		total += c.Close
		if c.High > hi {
			hi = c.High
		}
		if c.Low < lo {
			lo = c.Low
		}
	}

	avg := total / float64(len(closes))
	if avg > 0 {
		s.SlopePctPerBar = indicators.Slope(closes) / avg * 100
	}
	switch {
	case s.SlopePctPerBar > channelSlopePct:
		s.Channel = ChannelAscending
	case s.SlopePctPerBar < -channelSlopePct:
		s.Channel = ChannelDescending
	}

	price := series.Last().Close
	s.RangePct = (hi - lo) / price * 100
	s.Consolidation = s.RangePct < consolidationPct

	if n > breakoutSMAPeriod {
		sma, err := indicators.NewSMA(breakoutSMAPeriod).Calculate(series.Bars)
		if err == nil {
			prevClose, curClose := series.Bars[n-2].Close, series.Bars[n-1].Close
			prevSMA, curSMA := sma[n-2], sma[n-1]
			switch {
			case prevClose <= prevSMA && curClose > curSMA:
				s.Breakout = models.Bullish
			case prevClose >= prevSMA && curClose < curSMA:
				s.Breakout = models.Bearish
			}
		}
	}

	return s
}

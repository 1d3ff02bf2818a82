package engine

import (
	"math"
	"time"

	"stock-risk-engine/internal/analysis/indicators"
	"stock-risk-engine/internal/models"
)

// ChartPoint is one bar of the chart payload. Overlay fields are nil while
// their indicator is still warming up.
type ChartPoint struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`

	SMA20         *float64 `json:"sma_20"`
	SMA50         *float64 `json:"sma_50"`
	SMA200        *float64 `json:"sma_200"`
	EMA12         *float64 `json:"ema_12"`
	EMA26         *float64 `json:"ema_26"`
	BBUpper       *float64 `json:"bb_upper"`
	BBMiddle      *float64 `json:"bb_middle"`
	BBLower       *float64 `json:"bb_lower"`
	RSI           *float64 `json:"rsi"`
	MACD          *float64 `json:"macd"`
	MACDSignal    *float64 `json:"macd_signal"`
	MACDHistogram *float64 `json:"macd_histogram"`
}

// ChartData is the trimmed visualisation payload.
type ChartData struct {
	Symbol    string       `json:"symbol"`
	Timeframe string       `json:"timeframe"`
	Points    []ChartPoint `json:"points"`
}

// BuildChartData computes the chart overlays over the full history and
// keeps the trailing bars.
func BuildChartData(series *models.PriceSeries, bars int) *ChartData {
	data := &ChartData{Symbol: series.Symbol, Timeframe: series.Timeframe}
	n := series.Len()
	if n == 0 {
		return data
	}

	reg := indicators.ChartRegistry()
	single, multi := reg.CalculateAll(series.Bars)

	at := func(warmup int, values []float64, i int) *float64 {
		if values == nil || i < warmup || i >= len(values) {
			return nil
		}
		v := values[i]
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil
		}
		return &v
	}
	singleAt := func(key string, i int) *float64 {
		return at(reg.Warmup(key), single[key], i)
	}
	multiAt := func(key, field string, i int) *float64 {
		values, ok := multi[key]
		if !ok {
			return nil
		}
		return at(reg.LineWarmup(key, field), values[field], i)
	}

	start := 0
	if bars > 0 && n > bars {
		start = n - bars
	}
	data.Points = make([]ChartPoint, 0, n-start)
	for i := start; i < n; i++ {
		c := series.Bars[i]
		data.Points = append(data.Points, ChartPoint{
			Time:   c.Timestamp,
			Open:   c.Open,
			High:   c.High,
			Low:    c.Low,
			Close:  c.Close,
			Volume: c.Volume,

			SMA20:         singleAt("sma20", i),
			SMA50:         singleAt("sma50", i),
			SMA200:        singleAt("sma200", i),
			EMA12:         singleAt("ema12", i),
			EMA26:         singleAt("ema26", i),
			RSI:           singleAt("rsi", i),
			BBUpper:       multiAt("bollinger", indicators.LineUpper, i),
			BBMiddle:      multiAt("bollinger", indicators.LineMiddle, i),
			BBLower:       multiAt("bollinger", indicators.LineLower, i),
			MACD:          multiAt("macd", indicators.LineMACD, i),
			MACDSignal:    multiAt("macd", indicators.LineSignal, i),
			MACDHistogram: multiAt("macd", indicators.LineHistogram, i),
		})
	}
	return data
}

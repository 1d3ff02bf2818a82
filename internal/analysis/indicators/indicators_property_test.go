package indicators

import (
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"stock-risk-engine/internal/models"
)

// walkGen builds a random walk of n bars from percentage moves. Each bar
// gets a wick on both sides, so high > low and both enclose open and close.
func walkGen(minBars, maxBars int) gopter.Gen {
	step := gen.Float64Range(-4, 4)
	return gen.IntRange(minBars, maxBars).FlatMap(func(v interface{}) gopter.Gen {
		return gen.SliceOfN(v.(int), step)
	}, reflect.TypeOf([]float64{})).Map(func(moves []float64) []models.Candle {
		start := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
		bars := make([]models.Candle, len(moves))
		price := 250.0
		for i, m := range moves {
			open := price
			price = math.Max(1, price*(1+m/100))
			wick := 0.2 + math.Abs(m)/10
			bars[i] = models.Candle{
				Timestamp: start.AddDate(0, 0, i),
				Open:      open,
				Close:     price,
				High:      math.Max(open, price) + wick,
				Low:       math.Max(0.01, math.Min(open, price)-wick),
				Volume:    10000 + math.Abs(m)*5000,
			}
		}
		return bars
	})
}

func properties(runs int) *gopter.Properties {
	params := gopter.DefaultTestParameters()
	params.MinSuccessfulTests = runs
	return gopter.NewProperties(params)
}

func within(values []float64, from int, lo, hi float64) bool {
	for _, v := range values[from:] {
		if v < lo || v > hi || math.IsNaN(v) {
			return false
		}
	}
	return true
}

func TestProperty_OscillatorBounds(t *testing.T) {
	p := properties(100)

	p.Property("RSI stays in [0, 100]", prop.ForAll(
		func(candles []models.Candle) bool {
			rsi := NewRSI(RSIPeriod)
			values, err := rsi.Calculate(candles)
			return err == nil && within(values, rsi.Period()-1, 0, 100)
		},
		walkGen(20, 120),
	))

	p.Property("stochastic %K and %D stay in [0, 100]", prop.ForAll(
		func(candles []models.Candle) bool {
			st := NewStochastic(14, 3, 3)
			lines, err := st.Calculate(candles)
			return err == nil &&
				within(lines[LineK], st.Period(), 0, 100) &&
				within(lines[LineD], st.Period(), 0, 100)
		},
		walkGen(25, 120),
	))

	p.Property("ADX and both DI lines stay in [0, 100]", prop.ForAll(
		func(candles []models.Candle) bool {
			adx := NewADX(ADXPeriod)
			lines, err := adx.Calculate(candles)
			return err == nil &&
				within(lines[LineADX], adx.Period()-1, 0, 100) &&
				within(lines[LinePlusDI], ADXPeriod, 0, 100) &&
				within(lines[LineMinusDI], ADXPeriod, 0, 100)
		},
		walkGen(30, 120),
	))

	p.TestingRun(t)
}

func TestProperty_RangeIndicators(t *testing.T) {
	p := properties(100)

	p.Property("ATR is non-negative", prop.ForAll(
		func(candles []models.Candle) bool {
			values, err := NewATR(ATRPeriod).Calculate(candles)
			return err == nil && within(values, ATRPeriod-1, 0, math.Inf(1))
		},
		walkGen(20, 120),
	))

	p.Property("Bollinger lower <= middle <= upper", prop.ForAll(
		func(candles []models.Candle) bool {
			bb := NewBollingerBands(BollingerPeriod, BollingerStdDev)
			lines, err := bb.Calculate(candles)
			if err != nil {
				return false
			}
			for i := bb.Period() - 1; i < len(candles); i++ {
				if lines[LineLower][i] > lines[LineMiddle][i] || lines[LineMiddle][i] > lines[LineUpper][i] {
					return false
				}
			}
			return true
		},
		walkGen(25, 120),
	))

	p.Property("pivot levels are strictly ordered for a bar with range", prop.ForAll(
		func(candles []models.Candle) bool {
			pp, err := NewStandardPivotPoints().CalculateFromCandles(candles)
			return err == nil &&
				pp.S3 < pp.S2 && pp.S2 < pp.S1 && pp.S1 < pp.Pivot &&
				pp.Pivot < pp.R1 && pp.R1 < pp.R2 && pp.R2 < pp.R3
		},
		walkGen(1, 5),
	))

	p.TestingRun(t)
}

func TestProperty_MovingAverages(t *testing.T) {
	p := properties(60)

	p.Property("SMA equals the trailing mean of closes", prop.ForAll(
		func(candles []models.Candle) bool {
			values, err := NewSMA(10).Calculate(candles)
			if err != nil {
				return false
			}
			closes := Close.Column(candles)
			for i := 9; i < len(closes); i++ {
				if math.Abs(values[i]-average(closes[i-9:i+1])) > 1e-9 {
					return false
				}
			}
			return true
		},
		walkGen(15, 60),
	))

	p.Property("EMA stays within the range of closes seen", prop.ForAll(
		func(candles []models.Candle) bool {
			values, err := NewEMA(12).Calculate(candles)
			if err != nil {
				return false
			}
			hi, lo := extremes(Close.Column(candles))
			return within(values, 11, lo-1e-9, hi+1e-9)
		},
		walkGen(15, 80),
	))

	p.Property("snapshot SMA200 is the mean of the last 200 closes", prop.ForAll(
		func(candles []models.Candle) bool {
			set, err := Compute(&models.PriceSeries{Symbol: "PROP", Bars: candles})
			if err != nil || set.Trend.SMA200 == nil {
				return false
			}
			closes := Close.Column(candles)
			return math.Abs(*set.Trend.SMA200-average(closes[len(closes)-200:])) < 1e-9
		},
		walkGen(200, 260),
	))

	p.TestingRun(t)
}

func TestProperty_SnapshotScoresWithinBounds(t *testing.T) {
	p := properties(60)

	p.Property("snapshot sub-scores stay in [0, 10]", prop.ForAll(
		func(candles []models.Candle) bool {
			set, err := Compute(&models.PriceSeries{Symbol: "PROP", Bars: candles})
			if err != nil {
				return false
			}
			scores := []float64{
				set.Trend.StrengthScore,
				set.Momentum.Analysis.Score,
				set.Volatility.Score,
				set.Volume.Score,
			}
			if !within(scores, 0, 0, 10) {
				return false
			}
			return set.Momentum.RSI == nil || (*set.Momentum.RSI >= 0 && *set.Momentum.RSI <= 100)
		},
		walkGen(2, 150),
	))

	p.TestingRun(t)
}

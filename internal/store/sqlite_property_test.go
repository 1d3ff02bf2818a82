package store

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"stock-risk-engine/internal/models"
)

// Property: saving candles and reading them back yields the same bars in
// ascending timestamp order.
func TestProperty_CandleRoundTripConsistency(t *testing.T) {
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "candles.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	symbols := []string{"RELIANCE", "TCS", "INFY", "HDFCBANK", "ICICIBANK", "SBIN", "BHARTIARTL", "ITC", "KOTAKBANK", "LT"}
	timeframeGen := gen.OneConstOf(models.TimeframeDay, models.Timeframe60Min, models.Timeframe5Min)

	run := 0
	properties.Property("save then retrieve produces equivalent candles", prop.ForAll(
		func(symbolIdx int, timeframe string, count int, basePrice float64, baseVolume float64) bool {
			ctx := context.Background()
			run++
			symbol := fmt.Sprintf("%s_%d", symbols[symbolIdx%len(symbols)], run)

			candles := generateTestCandles(count, basePrice, baseVolume)
			if err := store.SaveCandles(ctx, symbol, timeframe, candles); err != nil {
				t.Logf("Failed to save candles: %v", err)
				return false
			}

			from := candles[0].Timestamp.Add(-time.Second)
			to := candles[len(candles)-1].Timestamp.Add(time.Second)
			retrieved, err := store.GetCandles(ctx, symbol, timeframe, from, to)
			if err != nil {
				t.Logf("Failed to get candles: %v", err)
				return false
			}
			if len(retrieved) != len(candles) {
				t.Logf("Count mismatch: expected %d, got %d", len(candles), len(retrieved))
				return false
			}
			for i, orig := range candles {
				if !candlesEqual(orig, retrieved[i]) {
					t.Logf("Candle mismatch at index %d: original=%+v, retrieved=%+v", i, orig, retrieved[i])
					return false
				}
			}
			return true
		},
		gen.IntRange(0, len(symbols)-1),
		timeframeGen,
		gen.IntRange(1, 20),
		gen.Float64Range(100.0, 5000.0),
		gen.Float64Range(1000, 1000000),
	))

	properties.Property("saving the same bars twice does not duplicate them", prop.ForAll(
		func(count int) bool {
			ctx := context.Background()
			run++
			symbol := fmt.Sprintf("DUP_%d", run)
			candles := generateTestCandles(count, 250, 5000)

			if err := store.SaveCandles(ctx, symbol, models.TimeframeDay, candles); err != nil {
				return false
			}
			if err := store.SaveCandles(ctx, symbol, models.TimeframeDay, candles); err != nil {
				return false
			}
			retrieved, err := store.GetCandles(ctx, symbol, models.TimeframeDay, time.Time{}, time.Time{})
			return err == nil && len(retrieved) == count
		},
		gen.IntRange(1, 20),
	))

	properties.Property("saving an empty slice succeeds", prop.ForAll(
		func(timeframe string) bool {
			return store.SaveCandles(context.Background(), "EMPTY", timeframe, []models.Candle{}) == nil
		},
		timeframeGen,
	))

	properties.TestingRun(t)
}

// generateTestCandles creates valid candles one minute apart.
func generateTestCandles(count int, basePrice, baseVolume float64) []models.Candle {
	candles := make([]models.Candle, count)
	baseTime := time.Date(2024, 1, 1, 9, 15, 0, 0, time.UTC)

	for i := 0; i < count; i++ {
		variation := float64(i%10) * 0.01 * basePrice
		open := basePrice + variation
		close := basePrice + variation*0.5

		candles[i] = models.Candle{
			Timestamp: baseTime.Add(time.Duration(i) * time.Minute),
			Open:      roundToDecimal(open, 2),
			High:      roundToDecimal(math.Max(open, close)*1.01, 2),
			Low:       roundToDecimal(math.Min(open, close)*0.99, 2),
			Close:     roundToDecimal(close, 2),
			Volume:    math.Round(baseVolume) + float64(i*1000),
		}
	}

	return candles
}

func roundToDecimal(val float64, places int) float64 {
	multiplier := math.Pow(10, float64(places))
	return math.Round(val*multiplier) / multiplier
}

// candlesEqual compares two candles with floating point tolerance.
func candlesEqual(a, b models.Candle) bool {
	const tolerance = 0.01

	if !a.Timestamp.Equal(b.Timestamp) {
		return false
	}
	return floatEqual(a.Open, b.Open, tolerance) &&
		floatEqual(a.High, b.High, tolerance) &&
		floatEqual(a.Low, b.Low, tolerance) &&
		floatEqual(a.Close, b.Close, tolerance) &&
		a.Volume == b.Volume
}

func floatEqual(a, b, tolerance float64) bool {
	return math.Abs(a-b) <= tolerance
}

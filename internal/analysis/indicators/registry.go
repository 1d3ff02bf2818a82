// Package indicators provides technical indicator calculations and the
// per-bar indicator snapshot used by the scoring stages.
package indicators

import (
	"fmt"
	"sort"

	"stock-risk-engine/internal/models"
)

// Indicator defines the interface for single-value technical indicators.
type Indicator interface {
	Name() string
	Calculate(candles []models.Candle) ([]float64, error)
	Period() int
}

// MultiValueIndicator defines the interface for indicators that return multiple values.
type MultiValueIndicator interface {
	Name() string
	Calculate(candles []models.Candle) (map[string][]float64, error)
	Period() int
}

// Registry holds a named set of indicators and evaluates them in a fixed
// order. It is not safe for concurrent registration; build it once and
// share it read-only.
type Registry struct {
	indicators  map[string]Indicator
	multiIndics map[string]MultiValueIndicator
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		indicators:  make(map[string]Indicator),
		multiIndics: make(map[string]MultiValueIndicator),
	}
}

// Register registers a single-value indicator under the given key.
func (r *Registry) Register(key string, ind Indicator) *Registry {
	r.indicators[key] = ind
	return r
}

// RegisterMulti registers a multi-value indicator under the given key.
func (r *Registry) RegisterMulti(key string, ind MultiValueIndicator) *Registry {
	r.multiIndics[key] = ind
	return r
}

// CalculateAll evaluates every registered indicator. Indicators whose
// window exceeds the history are left out of the result.
func (r *Registry) CalculateAll(candles []models.Candle) (map[string][]float64, map[string]map[string][]float64) {
	single := make(map[string][]float64, len(r.indicators))
	for _, key := range r.Keys() {
		values, err := r.indicators[key].Calculate(candles)
		if err == nil {
			single[key] = values
		}
	}

	multi := make(map[string]map[string][]float64, len(r.multiIndics))
	for _, key := range r.MultiKeys() {
		values, err := r.multiIndics[key].Calculate(candles)
		if err == nil {
			multi[key] = values
		}
	}

	return single, multi
}

// Calculate calculates a specific indicator by key.
func (r *Registry) Calculate(key string, candles []models.Candle) ([]float64, error) {
	ind, ok := r.indicators[key]
	if !ok {
		return nil, fmt.Errorf("indicator %s not found", key)
	}
	return ind.Calculate(candles)
}

// Warmup returns the number of leading bars for which the keyed indicator
// has no value.
func (r *Registry) Warmup(key string) int {
	if ind, ok := r.indicators[key]; ok {
		return ind.Period() - 1
	}
	if ind, ok := r.multiIndics[key]; ok {
		return ind.Period() - 1
	}
	return 0
}

// LineWarmup is Warmup for one output line of a multi-value indicator.
// Indicators whose lines start together fall back to Warmup.
func (r *Registry) LineWarmup(key, line string) int {
	if ind, ok := r.multiIndics[key].(interface{ LineWarmup(string) int }); ok {
		return ind.LineWarmup(line)
	}
	return r.Warmup(key)
}

// Keys returns the sorted keys of single-value indicators.
func (r *Registry) Keys() []string {
	names := make([]string, 0, len(r.indicators))
	for name := range r.indicators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// MultiKeys returns the sorted keys of multi-value indicators.
func (r *Registry) MultiKeys() []string {
	names := make([]string, 0, len(r.multiIndics))
	for name := range r.multiIndics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ChartRegistry returns the overlays drawn alongside price.
func ChartRegistry() *Registry {
	return NewRegistry().
		Register("sma20", NewSMA(20)).
		Register("sma50", NewSMA(50)).
		Register("sma200", NewSMA(200)).
		Register("ema12", NewEMA(12)).
		Register("ema26", NewEMA(26)).
		Register("rsi", NewRSI(14)).
		RegisterMulti("bollinger", NewBollingerBands(20, 2.5)).
		RegisterMulti("macd", NewMACD(12, 26, 9))
}

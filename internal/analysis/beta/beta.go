// Package beta measures an instrument's sensitivity to a benchmark.
package beta

import (
	"math"

	"github.com/montanaflynn/stats"

	"stock-risk-engine/internal/analysis/buckets"
	apperrors "stock-risk-engine/internal/errors"
	"stock-risk-engine/internal/models"
)

// Alignment requirements and annualisation factor.
const (
	MinOverlap      = 30
	MinObservations = 20
	TradingDays     = 252
)

// Result holds beta statistics. When Available is false the remaining
// fields carry the defaults from Default.
type Result struct {
	Available           bool    `json:"available"`
	Benchmark           string  `json:"benchmark,omitempty"`
	Observations        int     `json:"observations"`
	Beta                float64 `json:"beta"`
	Alpha               float64 `json:"alpha"`
	AnnualizedAlpha     float64 `json:"annualized_alpha"`
	Correlation         float64 `json:"correlation"`
	RSquared            float64 `json:"r_squared"`
	StockVolatility     float64 `json:"stock_volatility"`
	BenchmarkVolatility float64 `json:"benchmark_volatility"`
	RiskProfile         string  `json:"risk_profile"`
}

// Default is the neutral result used when beta cannot be computed.
func Default() *Result {
	return &Result{
		Beta:        1.0,
		RiskProfile: "unknown",
	}
}

// Options tunes the alignment floor.
type Options struct {
	MinOverlap      int
	MinObservations int
}

func (o Options) withDefaults() Options {
	if o.MinOverlap <= 0 {
		o.MinOverlap = MinOverlap
	}
	if o.MinObservations <= 0 {
		o.MinObservations = MinObservations
	}
	return o
}

// Analyze computes beta with default options.
func Analyze(stock, bench *models.PriceSeries) (*Result, error) {
	return AnalyzeWithOptions(stock, bench, Options{})
}

// AnalyzeWithOptions aligns both series on common calendar dates and
// regresses simple returns of the stock on those of the benchmark.
func AnalyzeWithOptions(stock, bench *models.PriceSeries, opts Options) (*Result, error) {
	opts = opts.withDefaults()
	symbol, benchSymbol := "", ""
	if stock != nil {
		symbol = stock.Symbol
	}
	if bench != nil {
		benchSymbol = bench.Symbol
	}

	if bench.Len() == 0 {
		return Default(), apperrors.NewBenchmarkAlignmentError(symbol, benchSymbol, "no benchmark series", 0, opts.MinOverlap)
	}
	if stock.Len() == 0 {
		return Default(), apperrors.NewBenchmarkAlignmentError(symbol, benchSymbol, "no instrument series", 0, opts.MinOverlap)
	}

	stockCloses, benchCloses := alignCloses(stock, bench)
	if len(stockCloses) < opts.MinOverlap {
		return Default(), apperrors.NewBenchmarkAlignmentError(symbol, benchSymbol, "too few common dates", len(stockCloses), opts.MinOverlap)
	}

	stockRet := simpleReturns(stockCloses)
	benchRet := simpleReturns(benchCloses)
	if len(stockRet) < opts.MinObservations {
		return Default(), apperrors.NewBenchmarkAlignmentError(symbol, benchSymbol, "too few return observations", len(stockRet), opts.MinObservations)
	}

	benchVar, err := stats.SampleVariance(benchRet)
	if err != nil || benchVar == 0 || math.IsNaN(benchVar) {
		return Default(), apperrors.NewBenchmarkAlignmentError(symbol, benchSymbol, "benchmark returns have zero variance", len(stockRet), opts.MinObservations)
	}
	cov, err := stats.Covariance(stockRet, benchRet)
	if err != nil {
		return Default(), apperrors.NewBenchmarkAlignmentError(symbol, benchSymbol, err.Error(), len(stockRet), opts.MinObservations)
	}
	corr, err := stats.Correlation(stockRet, benchRet)
	if err != nil {
		corr = 0
	}

	stockMean, _ := stats.Mean(stockRet)
	benchMean, _ := stats.Mean(benchRet)
	stockSD, _ := stats.StandardDeviationSample(stockRet)
	benchSD, _ := stats.StandardDeviationSample(benchRet)

	b := cov / benchVar
	alpha := stockMean - b*benchMean

	return &Result{
		Available:           true,
		Benchmark:           benchSymbol,
		Observations:        len(stockRet),
		Beta:                b,
		Alpha:               alpha,
		AnnualizedAlpha:     alpha * TradingDays,
		Correlation:         corr,
		RSquared:            corr * corr,
		StockVolatility:     stockSD * math.Sqrt(TradingDays),
		BenchmarkVolatility: benchSD * math.Sqrt(TradingDays),
		RiskProfile:         buckets.BetaProfile.Lookup(b),
	}, nil
}

// alignCloses pairs closes that share a calendar date, in date order.
func alignCloses(stock, bench *models.PriceSeries) (stockCloses, benchCloses []float64) {
	byDate := make(map[string]float64, bench.Len())
	for _, c := range bench.Bars {
		byDate[c.Timestamp.UTC().Format("2006-01-02")] = c.Close
	}
	for _, c := range stock.Bars {
		if b, ok := byDate[c.Timestamp.UTC().Format("2006-01-02")]; ok {
			stockCloses = append(stockCloses, c.Close)
			benchCloses = append(benchCloses, b)
		}
	}
	return stockCloses, benchCloses
}

func simpleReturns(closes []float64) []float64 {
	if len(closes) < 2 {
		return nil
	}
	out := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		if closes[i-1] == 0 {
			continue
		}
		out = append(out, closes[i]/closes[i-1]-1)
	}
	return out
}

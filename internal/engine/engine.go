// Package engine runs the full analysis pipeline for one instrument: series
// preparation, indicators, levels, structure, multi-timeframe alignment,
// beta, entry evaluation, composite scoring and risk assessment.
//
// Analyze is pure and synchronous. It reads no clock and touches no shared
// state, so identical inputs always produce identical results and callers
// may run it concurrently for different symbols.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"stock-risk-engine/internal/analysis/beta"
	"stock-risk-engine/internal/analysis/entry"
	"stock-risk-engine/internal/analysis/indicators"
	"stock-risk-engine/internal/analysis/mtf"
	"stock-risk-engine/internal/analysis/patterns"
	"stock-risk-engine/internal/analysis/risk"
	"stock-risk-engine/internal/analysis/scoring"
	"stock-risk-engine/internal/analysis/series"
	"stock-risk-engine/internal/config"
	apperrors "stock-risk-engine/internal/errors"
	"stock-risk-engine/internal/logging"
	"stock-risk-engine/internal/models"
)

// Status describes how complete a result is.
type Status string

const (
	StatusComplete         Status = "complete"
	StatusPartial          Status = "partial"
	StatusInsufficientData Status = "insufficient_data"
)

// DefaultChartBars is how many trailing bars the chart payload carries.
const DefaultChartBars = 130

// Input is the data for one analysis. Only Primary is required.
type Input struct {
	Primary   *models.PriceSeries
	Hourly    *models.PriceSeries
	Intraday  *models.PriceSeries
	Benchmark *models.PriceSeries
	// GrowthScore is an external 0-10 fundamentals score used only to nudge
	// decision confidence.
	GrowthScore *float64
}

// Options tunes the pipeline.
type Options struct {
	MinBars               int
	ChartBars             int
	MinBenchmarkOverlap   int
	MinReturnObservations int
}

// DefaultOptions returns the default pipeline options.
func DefaultOptions() Options {
	return Options{
		MinBars:               series.DefaultMinBars,
		ChartBars:             DefaultChartBars,
		MinBenchmarkOverlap:   beta.MinOverlap,
		MinReturnObservations: beta.MinObservations,
	}
}

// OptionsFromConfig builds options from the engine config section.
func OptionsFromConfig(cfg config.EngineConfig) Options {
	return Options{
		MinBars:               cfg.MinBars,
		ChartBars:             cfg.ChartBars,
		MinBenchmarkOverlap:   cfg.MinBenchmarkOverlap,
		MinReturnObservations: cfg.MinReturnObservations,
	}.withDefaults()
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.MinBars <= 0 {
		o.MinBars = d.MinBars
	}
	if o.ChartBars <= 0 {
		o.ChartBars = d.ChartBars
	}
	if o.MinBenchmarkOverlap <= 0 {
		o.MinBenchmarkOverlap = d.MinBenchmarkOverlap
	}
	if o.MinReturnObservations <= 0 {
		o.MinReturnObservations = d.MinReturnObservations
	}
	return o
}

// Provenance is left empty for the caller to describe where the input
// came from.
type Provenance struct {
	Source    string            `json:"source,omitempty"`
	FetchedAt *time.Time        `json:"fetched_at,omitempty"`
	Extra     map[string]string `json:"extra,omitempty"`
}

// Result is the complete analysis of one instrument.
type Result struct {
	Symbol    string    `json:"symbol"`
	Timeframe string    `json:"timeframe"`
	Status    Status    `json:"status"`
	AsOf      time.Time `json:"as_of"`
	Price     float64   `json:"price"`
	Bars      int       `json:"bars"`

	Indicators *indicators.IndicatorSet   `json:"indicators,omitempty"`
	Levels     patterns.SupportResistance `json:"support_resistance"`
	Structure  patterns.Structure         `json:"structure"`
	MTF        *mtf.Result                `json:"multi_timeframe"`
	Beta       *beta.Result               `json:"beta"`
	Entry      *entry.Analysis            `json:"entry,omitempty"`
	Score      *scoring.CompositeScore    `json:"composite"`
	Risk       *risk.Assessment           `json:"risk"`

	ChartData  *ChartData `json:"chart_data,omitempty"`
	Provenance Provenance `json:"provenance"`
	Warnings   []string   `json:"warnings,omitempty"`
}

// NeutralResult is returned when the primary series cannot be analysed.
func NeutralResult(symbol string, cause error) *Result {
	r := &Result{
		Symbol:    symbol,
		Status:    StatusInsufficientData,
		Structure: patterns.NeutralStructure(),
		MTF:       mtf.NeutralResult(),
		Beta:      beta.Default(),
		Score:     scoring.NeutralScore(),
		Risk:      risk.NeutralAssessment(),
	}
	if cause != nil {
		r.Warnings = append(r.Warnings, cause.Error())
	}
	return r
}

// Analyze runs the pipeline. It always returns a non-nil result; when the
// primary series is below the bar floor the result is NeutralResult and
// the error is an *errors.InsufficientDataError. Failures of the pattern,
// beta and multi-timeframe stages are logged and recorded as warnings.
func Analyze(ctx context.Context, in Input, opts Options) (*Result, error) {
	opts = opts.withDefaults()

	symbol := ""
	if in.Primary != nil {
		symbol = in.Primary.Symbol
	}
	logger := logging.WithSymbol(logging.WithOperation(logging.FromContext(ctx), "analyze"), symbol)

	primary, report, err := prepare(in.Primary, opts)
	if err != nil {
		logger.Warn().Err(err).Msg("Primary series below the bar floor")
		return NeutralResult(symbol, err), err
	}

	r := &Result{
		Symbol:    primary.Symbol,
		Timeframe: primary.Timeframe,
		Status:    StatusComplete,
		AsOf:      primary.Last().Timestamp,
		Price:     primary.Last().Close,
		Bars:      primary.Len(),
	}
	if report != nil && report.Malformed != nil {
		r.warn(report.Malformed.Error())
		logger.Warn().Int("dropped", report.Malformed.Dropped()).Msg("Dropped malformed bars")
	}

	ind, err := indicators.Compute(primary)
	if err != nil {
		// Unreachable above the floor, kept for callers with MinBars < 2.
		return NeutralResult(symbol, err), err
	}
	r.Indicators = ind

	r.Levels = patterns.DetectLevels(primary)
	logger.Debug().Str("levels", r.Levels.String()).Msg("Support and resistance pooled")

	r.Structure = patterns.DetectStructure(primary)
	if !r.Structure.Detected {
		stageErr := apperrors.NewInsufficientDataError(symbol, primary.Len(), patterns.StructureWindow, 0)
		logging.LogSkippedStage(logger, "structure", stageErr)
		r.warn("structure: " + stageErr.Error())
	}

	hourly := r.prepareAux(logger, "hourly", in.Hourly)
	intraday := r.prepareAux(logger, "intraday", in.Intraday)
	benchmark := r.prepareAux(logger, "benchmark", in.Benchmark)

	r.MTF = mtf.Aggregate(map[mtf.Role]*models.PriceSeries{
		mtf.RolePrimary:      primary,
		mtf.RoleConfirmation: hourly,
		mtf.RoleExecution:    intraday,
	})
	for _, w := range r.MTF.Warnings {
		logging.LogSkippedStage(logger, "multi_timeframe", fmt.Errorf("%s", w))
		r.warn("multi_timeframe: " + w)
	}

	r.Beta = analyzeBeta(logger, primary, benchmark, opts, r)

	r.Entry = entry.Analyze(ind, r.Levels)
	r.Score = scoring.Score(ind, r.Levels, r.Entry.PriceActionScore())
	r.Risk = risk.Assess(risk.Input{
		Indicators:  ind,
		Levels:      r.Levels,
		Entry:       r.Entry,
		MTF:         r.MTF,
		GrowthScore: in.GrowthScore,
	})

	r.ChartData = BuildChartData(primary, opts.ChartBars)

	if len(r.Warnings) > 0 {
		r.Status = StatusPartial
	}

	logging.LogAssessment(logger, r.Symbol, string(r.Score.Signal), string(r.Risk.Decision), r.Risk.RiskScore, r.Risk.DecisionConfidence)
	return r, nil
}

func prepare(primary *models.PriceSeries, opts Options) (*models.PriceSeries, *series.Report, error) {
	if primary == nil {
		return nil, nil, apperrors.NewInsufficientDataError("", 0, opts.MinBars, 0)
	}
	return series.FromCandles(primary.Symbol, primary.Timeframe, primary.Bars, series.Options{MinBars: opts.MinBars})
}

// prepareAux sorts and dedupes a secondary series with a floor of one bar.
// Dropped rows become warnings; a series with no valid bars is treated as
// absent.
func (r *Result) prepareAux(logger zerolog.Logger, name string, s *models.PriceSeries) *models.PriceSeries {
	if s == nil {
		return nil
	}
	prepared, report, err := series.FromCandles(s.Symbol, s.Timeframe, s.Bars, series.Options{MinBars: 1})
	if report != nil && report.Malformed != nil {
		logger.Warn().Str("series", name).Int("dropped", report.Malformed.Dropped()).Msg("Dropped malformed bars")
		r.warn(name + ": " + report.Malformed.Error())
	}
	if err != nil {
		logging.LogSkippedStage(logger, name, err)
		r.warn(name + ": " + err.Error())
		return nil
	}
	return prepared
}

func analyzeBeta(logger zerolog.Logger, primary, benchmark *models.PriceSeries, opts Options, r *Result) *beta.Result {
	if benchmark == nil {
		logger.Debug().Msg("No benchmark supplied, beta skipped")
		return beta.Default()
	}
	result, err := beta.AnalyzeWithOptions(primary, benchmark, beta.Options{
		MinOverlap:      opts.MinBenchmarkOverlap,
		MinObservations: opts.MinReturnObservations,
	})
	if err != nil {
		logging.LogSkippedStage(logger, "beta", err)
		r.warn("beta: " + err.Error())
	}
	return result
}

func (r *Result) warn(msg string) {
	r.Warnings = append(r.Warnings, msg)
}

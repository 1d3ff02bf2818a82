// Package runner analyses many symbols concurrently from stored candles
// using a fixed pool of workers.
package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"stock-risk-engine/internal/config"
	"stock-risk-engine/internal/engine"
	apperrors "stock-risk-engine/internal/errors"
	"stock-risk-engine/internal/logging"
	"stock-risk-engine/internal/models"
	"stock-risk-engine/internal/store"
	"stock-risk-engine/pkg/utils"
)

// DefaultWorkers is used when the configured worker count is not positive.
const DefaultWorkers = 4

// SourceStore is the provenance source recorded on results built from
// stored candles.
const SourceStore = "store"

// Outcome is the analysis of one symbol within a run.
type Outcome struct {
	Symbol string
	Result *engine.Result
	Record *models.AssessmentRecord
	Err    error
}

// Insufficient reports whether the symbol lacked the history to analyse.
func (o Outcome) Insufficient() bool {
	return apperrors.Is(o.Err, apperrors.ErrInsufficientData)
}

// Failed reports whether the symbol failed for a reason other than
// insufficient history.
func (o Outcome) Failed() bool {
	return o.Err != nil && !o.Insufficient()
}

// Summary describes a finished run. Outcomes are in input order.
type Summary struct {
	RunID        string
	StartedAt    time.Time
	FinishedAt   time.Time
	Outcomes     []Outcome
	Insufficient int
	Failed       int
}

// Duration returns how long the run took.
func (s *Summary) Duration() time.Duration {
	return s.FinishedAt.Sub(s.StartedAt)
}

// Runner loads candles for each symbol, runs the engine and optionally
// persists the assessments.
type Runner struct {
	candles store.CandleReader
	sink    store.AssessmentWriter
	cfg     config.EngineConfig
	opts    engine.Options
	workers int
	growth  map[string]float64
	logger  zerolog.Logger
}

// New creates a runner. sink may be nil to skip persistence.
func New(candles store.CandleReader, sink store.AssessmentWriter, cfg config.EngineConfig, workers int) *Runner {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Runner{
		candles: candles,
		sink:    sink,
		cfg:     cfg,
		opts:    engine.OptionsFromConfig(cfg),
		workers: workers,
		logger:  zerolog.Nop(),
	}
}

// WithLogger sets the runner's logger.
func (r *Runner) WithLogger(logger zerolog.Logger) *Runner {
	r.logger = logger.With().Str("component", "runner").Logger()
	return r
}

// WithGrowthScore attaches an external 0-10 fundamentals score to symbol.
// Set scores before Run; they are read concurrently.
func (r *Runner) WithGrowthScore(symbol string, score float64) *Runner {
	if r.growth == nil {
		r.growth = make(map[string]float64)
	}
	r.growth[symbol] = score
	return r
}

// Run analyses every symbol. Per-symbol failures are recorded in the
// outcomes; the returned error is non-nil only when the context was
// cancelled before all symbols were processed.
func (r *Runner) Run(ctx context.Context, symbols []string) (*Summary, error) {
	summary := &Summary{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
		Outcomes:  make([]Outcome, len(symbols)),
	}
	logger := logging.WithRunID(r.logger, summary.RunID)
	ctx = logging.WithLogger(ctx, logger)

	benchmark, err := r.loadBenchmark(ctx)
	if err != nil {
		logging.LogSkippedStage(logger, "benchmark", err)
	}

	var wg sync.WaitGroup
	work := make(chan int, len(symbols))

	for i := 0; i < r.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range work {
				symbol := symbols[idx]
				select {
				case <-ctx.Done():
					summary.Outcomes[idx] = Outcome{Symbol: symbol, Err: ctx.Err()}
				default:
					summary.Outcomes[idx] = r.analyze(ctx, summary.RunID, symbol, benchmark)
				}
			}
		}()
	}

	for i := range symbols {
		work <- i
	}
	close(work)

	wg.Wait()

	summary.FinishedAt = time.Now()
	for _, o := range summary.Outcomes {
		switch {
		case o.Insufficient():
			summary.Insufficient++
		case o.Failed():
			summary.Failed++
		}
	}
	logging.LogRun(logger, summary.RunID, len(symbols), summary.Failed, summary.Duration())

	return summary, ctx.Err()
}

// AnalyzeSymbol runs the engine for one symbol without persisting.
func (r *Runner) AnalyzeSymbol(ctx context.Context, symbol string) (*engine.Result, error) {
	benchmark, err := r.loadBenchmark(ctx)
	if err != nil {
		logging.LogSkippedStage(logging.FromContext(ctx), "benchmark", err)
	}
	return r.analyzeWith(ctx, symbol, benchmark)
}

func (r *Runner) analyze(ctx context.Context, runID, symbol string, benchmark *models.PriceSeries) Outcome {
	out := Outcome{Symbol: symbol}

	result, err := r.analyzeWith(ctx, symbol, benchmark)
	out.Result = result
	out.Err = err
	if result == nil {
		return out
	}
	result.Provenance.Extra = map[string]string{"run_id": runID}

	record, recErr := NewRecord(runID, result)
	if recErr != nil {
		out.Err = recErr
		return out
	}
	out.Record = record

	if r.sink != nil {
		saveErr := utils.Retry(ctx, utils.StoreRetryConfig(), func() error {
			return r.sink.SaveAssessment(ctx, record)
		})
		if saveErr != nil {
			out.Err = apperrors.NewDataError("assessment", symbol, "save failed", saveErr)
		}
	}
	return out
}

func (r *Runner) analyzeWith(ctx context.Context, symbol string, benchmark *models.PriceSeries) (*engine.Result, error) {
	primary, err := r.load(ctx, symbol, r.cfg.PrimaryTimeframe)
	if err != nil {
		return nil, err
	}
	if primary == nil {
		primary = &models.PriceSeries{Symbol: symbol, Timeframe: r.cfg.PrimaryTimeframe}
	}
	hourly, err := r.load(ctx, symbol, r.cfg.HourlyTimeframe)
	if err != nil {
		return nil, err
	}
	intraday, err := r.load(ctx, symbol, r.cfg.IntradayTimeframe)
	if err != nil {
		return nil, err
	}
	if symbol == r.cfg.BenchmarkSymbol {
		benchmark = nil
	}

	in := engine.Input{
		Primary:   primary,
		Hourly:    hourly,
		Intraday:  intraday,
		Benchmark: benchmark,
	}
	if g, ok := r.growth[symbol]; ok {
		in.GrowthScore = &g
	}

	result, err := engine.Analyze(ctx, in, r.opts)
	if result != nil {
		result.Provenance.Source = SourceStore
	}
	return result, err
}

// load returns nil when the store holds no candles for the timeframe.
func (r *Runner) load(ctx context.Context, symbol, timeframe string) (*models.PriceSeries, error) {
	if timeframe == "" {
		return nil, nil
	}
	candles, err := utils.RetryWithResult(ctx, utils.StoreRetryConfig(), func() ([]models.Candle, error) {
		return r.candles.GetCandles(ctx, symbol, timeframe, time.Time{}, time.Time{})
	})
	if err != nil {
		return nil, apperrors.NewDataError("candles", symbol, fmt.Sprintf("loading %s", timeframe), err)
	}
	if len(candles) == 0 {
		return nil, nil
	}
	return &models.PriceSeries{Symbol: symbol, Timeframe: timeframe, Bars: candles}, nil
}

func (r *Runner) loadBenchmark(ctx context.Context) (*models.PriceSeries, error) {
	if r.cfg.BenchmarkSymbol == "" {
		return nil, nil
	}
	return r.load(ctx, r.cfg.BenchmarkSymbol, r.cfg.PrimaryTimeframe)
}

// NewRecord flattens a result into a storable assessment with the full
// result as JSON payload.
func NewRecord(runID string, res *engine.Result) (*models.AssessmentRecord, error) {
	payload, err := json.Marshal(res)
	if err != nil {
		return nil, apperrors.Wrapf(err, "encoding result for %s", res.Symbol)
	}
	return &models.AssessmentRecord{
		RunID:      runID,
		Symbol:     res.Symbol,
		Timeframe:  res.Timeframe,
		AsOf:       res.AsOf,
		Status:     string(res.Status),
		Signal:     string(res.Score.Signal),
		Decision:   string(res.Risk.Decision),
		Composite:  res.Score.Composite,
		Confidence: res.Risk.DecisionConfidence,
		RiskScore:  res.Risk.RiskScore,
		RiskLevel:  res.Risk.RiskLevel,
		Price:      res.Price,
		Payload:    payload,
	}, nil
}

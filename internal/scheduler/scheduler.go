// Package scheduler runs the watchlist analysis on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"stock-risk-engine/internal/config"
	"stock-risk-engine/internal/logging"
	"stock-risk-engine/internal/runner"
)

// WatchlistSource supplies the symbols of a named watchlist.
type WatchlistSource interface {
	GetWatchlist(ctx context.Context, listName string) ([]string, error)
}

// RunRecorder records when a job last completed.
type RunRecorder interface {
	SetLastRun(name string, t time.Time) error
}

// BatchRunner analyses a list of symbols.
type BatchRunner interface {
	Run(ctx context.Context, symbols []string) (*runner.Summary, error)
}

// Scheduler manages the watchlist cron job.
type Scheduler struct {
	cron      *cron.Cron
	entry     cron.EntryID
	runner    BatchRunner
	lists     WatchlistSource
	runs      RunRecorder
	watchlist string
	ctx       context.Context
	logger    zerolog.Logger

	// OnSummary, when set, receives every finished run.
	OnSummary func(*runner.Summary)
}

// New creates a scheduler for the configured watchlist. runs may be nil.
func New(ctx context.Context, r BatchRunner, lists WatchlistSource, runs RunRecorder, watchlist string) *Scheduler {
	return &Scheduler{
		cron: cron.New(
			cron.WithParser(config.ScheduleParser),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
		runner:    r,
		lists:     lists,
		runs:      runs,
		watchlist: watchlist,
		ctx:       ctx,
		logger:    logging.FromContext(ctx).With().Str("component", "scheduler").Logger(),
	}
}

// JobName is the run-status key for a watchlist job.
func JobName(watchlist string) string {
	return "watch:" + watchlist
}

// Register adds the watchlist job on the given schedule.
func (s *Scheduler) Register(schedule string) error {
	id, err := s.cron.AddFunc(schedule, s.tick)
	if err != nil {
		return fmt.Errorf("register watchlist job %q: %w", schedule, err)
	}
	s.entry = id
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info().Str("watchlist", s.watchlist).Time("next", s.Next()).Msg("Scheduler started")
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info().Msg("Scheduler stopped")
}

// Next returns the next scheduled run, or the zero time when nothing is
// registered or the scheduler is not running.
func (s *Scheduler) Next() time.Time {
	if s.entry == 0 {
		return time.Time{}
	}
	return s.cron.Entry(s.entry).Next
}

// RunNow analyses the watchlist immediately. It returns a nil summary when
// the watchlist is empty.
func (s *Scheduler) RunNow(ctx context.Context) (*runner.Summary, error) {
	symbols, err := s.lists.GetWatchlist(ctx, s.watchlist)
	if err != nil {
		return nil, fmt.Errorf("loading watchlist %s: %w", s.watchlist, err)
	}
	if len(symbols) == 0 {
		s.logger.Warn().Str("watchlist", s.watchlist).Msg("Watchlist is empty, nothing to analyse")
		return nil, nil
	}

	summary, err := s.runner.Run(ctx, symbols)
	if err != nil {
		return summary, err
	}

	if s.runs != nil {
		if err := s.runs.SetLastRun(JobName(s.watchlist), summary.FinishedAt); err != nil {
			s.logger.Error().Err(err).Msg("Failed to record run time")
		}
	}
	if s.OnSummary != nil {
		s.OnSummary(summary)
	}
	return summary, nil
}

func (s *Scheduler) tick() {
	if _, err := s.RunNow(s.ctx); err != nil {
		s.logger.Error().Err(err).Str("watchlist", s.watchlist).Msg("Scheduled run failed")
	}
}

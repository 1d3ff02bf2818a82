// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"time"

	"stock-risk-engine/internal/models"
)

// DataStore defines the interface for data persistence.
type DataStore interface {
	// Candles
	SaveCandles(ctx context.Context, symbol, timeframe string, candles []models.Candle) error
	GetCandles(ctx context.Context, symbol, timeframe string, from, to time.Time) ([]models.Candle, error)
	GetCandlesFreshness(ctx context.Context, symbol, timeframe string) (time.Time, error)
	ListSymbols(ctx context.Context, timeframe string) ([]string, error)

	// Assessments
	SaveAssessment(ctx context.Context, record *models.AssessmentRecord) error
	GetAssessments(ctx context.Context, filter AssessmentFilter) ([]models.AssessmentRecord, error)
	GetAssessmentByID(ctx context.Context, id string) (*models.AssessmentRecord, error)
	GetAssessmentStats(ctx context.Context, dateRange DateRange) (*models.AssessmentStats, error)

	// Watchlist
	AddToWatchlist(ctx context.Context, symbol, listName string) error
	RemoveFromWatchlist(ctx context.Context, symbol, listName string) error
	GetWatchlist(ctx context.Context, listName string) ([]string, error)
	GetAllWatchlists(ctx context.Context) (map[string][]string, error)

	// Runs
	GetLastRun(name string) time.Time
	SetLastRun(name string, t time.Time) error

	// Lifecycle
	Close() error
}

// CandleReader is the read side used by the runner.
type CandleReader interface {
	GetCandles(ctx context.Context, symbol, timeframe string, from, to time.Time) ([]models.Candle, error)
}

// AssessmentWriter is the write side used by the runner.
type AssessmentWriter interface {
	SaveAssessment(ctx context.Context, record *models.AssessmentRecord) error
}

// AssessmentFilter represents filters for querying assessments.
type AssessmentFilter struct {
	Symbol    string
	RunID     string
	Decision  string
	StartDate time.Time
	EndDate   time.Time
	Limit     int
}

// DateRange represents a date range.
type DateRange struct {
	Start time.Time
	End   time.Time
}

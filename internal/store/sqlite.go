// Package store provides data persistence implementations.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	apperrors "stock-risk-engine/internal/errors"
	"stock-risk-engine/internal/logging"
	"stock-risk-engine/internal/models"
)

// SQLiteStore implements DataStore using SQLite.
type SQLiteStore struct {
	db       *sql.DB
	logger   zerolog.Logger
	mu       sync.RWMutex
	runTimes map[string]time.Time
}

// NewSQLiteStore creates a new SQLite-based data store.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool for concurrent access
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	store := &SQLiteStore{
		db:       db,
		logger:   zerolog.Nop(),
		runTimes: make(map[string]time.Time),
	}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// WithLogger sets the logger used for store call tracing.
func (s *SQLiteStore) WithLogger(logger zerolog.Logger) *SQLiteStore {
	s.logger = logger.With().Str("component", "store").Logger()
	return s
}

// initSchema creates all required tables and indexes.
func (s *SQLiteStore) initSchema() error {
	schema := `
	-- Candles table for historical OHLCV data
	CREATE TABLE IF NOT EXISTS candles (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		symbol TEXT NOT NULL,
		timeframe TEXT NOT NULL,
		timestamp DATETIME NOT NULL,
		open REAL NOT NULL,
		high REAL NOT NULL,
		low REAL NOT NULL,
		close REAL NOT NULL,
		volume REAL NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(symbol, timeframe, timestamp)
	);

	-- Assessments table for analysis runs
	CREATE TABLE IF NOT EXISTS assessments (
		id TEXT PRIMARY KEY,
		created_at DATETIME NOT NULL,
		run_id TEXT,
		symbol TEXT NOT NULL,
		timeframe TEXT,
		as_of DATETIME,
		status TEXT NOT NULL,
		signal TEXT NOT NULL,
		decision TEXT NOT NULL,
		composite REAL NOT NULL,
		confidence REAL NOT NULL,
		risk_score REAL NOT NULL,
		risk_level TEXT,
		price REAL,
		payload TEXT
	);

	-- Watchlist table
	CREATE TABLE IF NOT EXISTS watchlist (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		symbol TEXT NOT NULL,
		list_name TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(symbol, list_name)
	);

	-- Run status table
	CREATE TABLE IF NOT EXISTS run_status (
		name TEXT PRIMARY KEY,
		last_run DATETIME NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	-- Create indexes for performance
	CREATE INDEX IF NOT EXISTS idx_candles_symbol_timeframe ON candles(symbol, timeframe);
	CREATE INDEX IF NOT EXISTS idx_candles_timestamp ON candles(timestamp);
	CREATE INDEX IF NOT EXISTS idx_assessments_symbol ON assessments(symbol);
	CREATE INDEX IF NOT EXISTS idx_assessments_created ON assessments(created_at);
	CREATE INDEX IF NOT EXISTS idx_assessments_run ON assessments(run_id);
	CREATE INDEX IF NOT EXISTS idx_watchlist_list ON watchlist(list_name);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) trace(operation string, start time.Time, err error) {
	logging.LogStoreCall(s.logger, operation, time.Since(start), err)
}

// ============================================================================
// Candles Methods
// ============================================================================

// SaveCandles saves candles to the database. Existing bars with the same
// timestamp are replaced.
func (s *SQLiteStore) SaveCandles(ctx context.Context, symbol, timeframe string, candles []models.Candle) (err error) {
	if len(candles) == 0 {
		return nil
	}
	defer func(start time.Time) { s.trace("save_candles", start, err) }(time.Now())

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO candles (symbol, timeframe, timestamp, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, c := range candles {
		_, err := stmt.ExecContext(ctx, symbol, timeframe, c.Timestamp.UTC(), c.Open, c.High, c.Low, c.Close, c.Volume)
		if err != nil {
			return fmt.Errorf("failed to insert candle: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetCandles retrieves candles from the database. A zero from or to leaves
// that side of the range open.
func (s *SQLiteStore) GetCandles(ctx context.Context, symbol, timeframe string, from, to time.Time) ([]models.Candle, error) {
	query := "SELECT timestamp, open, high, low, close, volume FROM candles WHERE symbol = ? AND timeframe = ?"
	args := []interface{}{symbol, timeframe}

	if !from.IsZero() {
		query += " AND timestamp >= ?"
		args = append(args, from.UTC())
	}
	if !to.IsZero() {
		query += " AND timestamp <= ?"
		args = append(args, to.UTC())
	}
	query += " ORDER BY timestamp ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query candles: %w", err)
	}
	defer rows.Close()

	var candles []models.Candle
	for rows.Next() {
		var c models.Candle
		if err := rows.Scan(&c.Timestamp, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume); err != nil {
			return nil, fmt.Errorf("failed to scan candle: %w", err)
		}
		candles = append(candles, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating candles: %w", err)
	}

	return candles, nil
}

// GetCandlesFreshness returns the timestamp of the most recent candle.
func (s *SQLiteStore) GetCandlesFreshness(ctx context.Context, symbol, timeframe string) (time.Time, error) {
	var latest time.Time
	found := false
	rows, err := s.db.QueryContext(ctx, `
		SELECT timestamp FROM candles WHERE symbol = ? AND timeframe = ?
		ORDER BY timestamp DESC LIMIT 1
	`, symbol, timeframe)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to get candles freshness: %w", err)
	}
	defer rows.Close()

	if rows.Next() {
		if err := rows.Scan(&latest); err != nil {
			return time.Time{}, fmt.Errorf("failed to scan candles freshness: %w", err)
		}
		found = true
	}
	if err := rows.Err(); err != nil {
		return time.Time{}, fmt.Errorf("failed to get candles freshness: %w", err)
	}
	if !found {
		return time.Time{}, nil
	}
	return latest, nil
}

// ListSymbols returns every symbol that has candles in the timeframe.
func (s *SQLiteStore) ListSymbols(ctx context.Context, timeframe string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT symbol FROM candles WHERE timeframe = ? ORDER BY symbol ASC
	`, timeframe)
	if err != nil {
		return nil, fmt.Errorf("failed to list symbols: %w", err)
	}
	defer rows.Close()

	var symbols []string
	for rows.Next() {
		var symbol string
		if err := rows.Scan(&symbol); err != nil {
			return nil, fmt.Errorf("failed to scan symbol: %w", err)
		}
		symbols = append(symbols, symbol)
	}

	return symbols, rows.Err()
}

// ============================================================================
// Assessment Methods
// ============================================================================

const assessmentColumns = "id, created_at, COALESCE(run_id, ''), symbol, COALESCE(timeframe, ''), as_of, status, signal, decision, composite, confidence, risk_score, COALESCE(risk_level, ''), COALESCE(price, 0), COALESCE(payload, '')"

// SaveAssessment saves an assessment. A missing ID is filled with a new
// UUID and a zero CreatedAt with the current time.
func (s *SQLiteStore) SaveAssessment(ctx context.Context, record *models.AssessmentRecord) (err error) {
	defer func(start time.Time) { s.trace("save_assessment", start, err) }(time.Now())

	if record.Symbol == "" {
		return apperrors.NewValidationError("symbol", record.Symbol, "symbol is required")
	}
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	var payload interface{}
	if len(record.Payload) > 0 {
		payload = string(record.Payload)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO assessments (id, created_at, run_id, symbol, timeframe, as_of, status, signal, decision, composite, confidence, risk_score, risk_level, price, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, record.ID, record.CreatedAt.UTC(), record.RunID, record.Symbol, record.Timeframe, record.AsOf.UTC(), record.Status, record.Signal, record.Decision, record.Composite, record.Confidence, record.RiskScore, record.RiskLevel, record.Price, payload)
	if err != nil {
		return fmt.Errorf("failed to save assessment: %w", err)
	}
	return nil
}

// GetAssessments retrieves assessments, newest first.
func (s *SQLiteStore) GetAssessments(ctx context.Context, filter AssessmentFilter) ([]models.AssessmentRecord, error) {
	query := "SELECT " + assessmentColumns + " FROM assessments WHERE 1=1"
	args := []interface{}{}

	if filter.Symbol != "" {
		query += " AND symbol = ?"
		args = append(args, filter.Symbol)
	}
	if filter.RunID != "" {
		query += " AND run_id = ?"
		args = append(args, filter.RunID)
	}
	if filter.Decision != "" {
		query += " AND decision = ?"
		args = append(args, filter.Decision)
	}
	if !filter.StartDate.IsZero() {
		query += " AND created_at >= ?"
		args = append(args, filter.StartDate.UTC())
	}
	if !filter.EndDate.IsZero() {
		query += " AND created_at <= ?"
		args = append(args, filter.EndDate.UTC())
	}

	query += " ORDER BY created_at DESC, rowid DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query assessments: %w", err)
	}
	defer rows.Close()

	var records []models.AssessmentRecord
	for rows.Next() {
		r, err := scanAssessment(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *r)
	}

	return records, rows.Err()
}

// GetAssessmentByID retrieves a single assessment. A missing ID yields an
// error wrapping errors.ErrDataNotFound.
func (s *SQLiteStore) GetAssessmentByID(ctx context.Context, id string) (*models.AssessmentRecord, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+assessmentColumns+" FROM assessments WHERE id = ?", id)
	r, err := scanAssessment(row)
	if apperrors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewDataError("assessment", id, "not found", apperrors.ErrDataNotFound)
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAssessment(row rowScanner) (*models.AssessmentRecord, error) {
	var r models.AssessmentRecord
	var payload string
	err := row.Scan(&r.ID, &r.CreatedAt, &r.RunID, &r.Symbol, &r.Timeframe, &r.AsOf, &r.Status, &r.Signal, &r.Decision, &r.Composite, &r.Confidence, &r.RiskScore, &r.RiskLevel, &r.Price, &payload)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan assessment: %w", err)
	}
	if payload != "" {
		r.Payload = []byte(payload)
	}
	return &r, nil
}

// GetAssessmentStats summarises assessments created within the range.
func (s *SQLiteStore) GetAssessmentStats(ctx context.Context, dateRange DateRange) (*models.AssessmentStats, error) {
	stats := &models.AssessmentStats{
		ByDecision: make(map[string]int),
		BySymbol:   make(map[string]*models.SymbolStats),
	}

	var avgRisk, avgConfidence sql.NullFloat64
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), AVG(risk_score), AVG(confidence)
		FROM assessments
		WHERE created_at >= ? AND created_at <= ?
	`, dateRange.Start.UTC(), dateRange.End.UTC()).Scan(&stats.Total, &avgRisk, &avgConfidence)
	if err != nil {
		return nil, fmt.Errorf("failed to get assessment stats: %w", err)
	}
	if avgRisk.Valid {
		stats.AvgRiskScore = avgRisk.Float64
	}
	if avgConfidence.Valid {
		stats.AvgConfidence = avgConfidence.Float64
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT decision, COUNT(*)
		FROM assessments
		WHERE created_at >= ? AND created_at <= ?
		GROUP BY decision
	`, dateRange.Start.UTC(), dateRange.End.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to get decision counts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var decision string
		var count int
		if err := rows.Scan(&decision, &count); err != nil {
			return nil, fmt.Errorf("failed to scan decision counts: %w", err)
		}
		stats.ByDecision[decision] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	symbolRows, err := s.db.QueryContext(ctx, `
		SELECT symbol, decision, risk_score
		FROM assessments
		WHERE created_at >= ? AND created_at <= ?
		ORDER BY created_at ASC, rowid ASC
	`, dateRange.Start.UTC(), dateRange.End.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to get symbol stats: %w", err)
	}
	defer symbolRows.Close()

	riskSums := make(map[string]float64)
	for symbolRows.Next() {
		var symbol, decision string
		var riskScore float64
		if err := symbolRows.Scan(&symbol, &decision, &riskScore); err != nil {
			return nil, fmt.Errorf("failed to scan symbol stats: %w", err)
		}
		st, ok := stats.BySymbol[symbol]
		if !ok {
			st = &models.SymbolStats{Symbol: symbol}
			stats.BySymbol[symbol] = st
		}
		st.Count++
		st.LastDecision = decision
		riskSums[symbol] += riskScore
	}
	for symbol, st := range stats.BySymbol {
		st.AvgRiskScore = riskSums[symbol] / float64(st.Count)
	}

	return stats, symbolRows.Err()
}

// ============================================================================
// Watchlist Methods
// ============================================================================

// AddToWatchlist adds a symbol to a watchlist.
func (s *SQLiteStore) AddToWatchlist(ctx context.Context, symbol, listName string) error {
	if symbol == "" {
		return apperrors.NewValidationError("symbol", symbol, "symbol is required")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO watchlist (symbol, list_name) VALUES (?, ?)
	`, symbol, listName)
	if err != nil {
		return fmt.Errorf("failed to add to watchlist: %w", err)
	}
	return nil
}

// RemoveFromWatchlist removes a symbol from a watchlist.
func (s *SQLiteStore) RemoveFromWatchlist(ctx context.Context, symbol, listName string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM watchlist WHERE symbol = ? AND list_name = ?
	`, symbol, listName)
	if err != nil {
		return fmt.Errorf("failed to remove from watchlist: %w", err)
	}
	return nil
}

// GetWatchlist retrieves symbols in a watchlist in insertion order.
func (s *SQLiteStore) GetWatchlist(ctx context.Context, listName string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT symbol FROM watchlist WHERE list_name = ? ORDER BY id ASC
	`, listName)
	if err != nil {
		return nil, fmt.Errorf("failed to query watchlist: %w", err)
	}
	defer rows.Close()

	var symbols []string
	for rows.Next() {
		var symbol string
		if err := rows.Scan(&symbol); err != nil {
			return nil, fmt.Errorf("failed to scan symbol: %w", err)
		}
		symbols = append(symbols, symbol)
	}

	return symbols, rows.Err()
}

// GetAllWatchlists retrieves all watchlists.
func (s *SQLiteStore) GetAllWatchlists(ctx context.Context) (map[string][]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT list_name, symbol FROM watchlist ORDER BY list_name, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query watchlists: %w", err)
	}
	defer rows.Close()

	watchlists := make(map[string][]string)
	for rows.Next() {
		var listName, symbol string
		if err := rows.Scan(&listName, &symbol); err != nil {
			return nil, fmt.Errorf("failed to scan watchlist entry: %w", err)
		}
		watchlists[listName] = append(watchlists[listName], symbol)
	}

	return watchlists, rows.Err()
}

// ============================================================================
// Run Methods
// ============================================================================

// GetLastRun returns when the named job last completed, or the zero time.
func (s *SQLiteStore) GetLastRun(name string) time.Time {
	s.mu.RLock()
	if t, ok := s.runTimes[name]; ok {
		s.mu.RUnlock()
		return t
	}
	s.mu.RUnlock()

	var lastRun time.Time
	err := s.db.QueryRow(`
		SELECT last_run FROM run_status WHERE name = ?
	`, name).Scan(&lastRun)
	if err != nil {
		return time.Time{}
	}

	s.mu.Lock()
	s.runTimes[name] = lastRun
	s.mu.Unlock()

	return lastRun
}

// SetLastRun records when the named job last completed.
func (s *SQLiteStore) SetLastRun(name string, t time.Time) error {
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO run_status (name, last_run, updated_at)
		VALUES (?, ?, ?)
	`, name, t.UTC(), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to set last run: %w", err)
	}

	s.mu.Lock()
	s.runTimes[name] = t
	s.mu.Unlock()

	return nil
}

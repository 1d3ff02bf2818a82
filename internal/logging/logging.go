// Package logging provides structured logging functionality.
package logging

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogConfig holds logging configuration.
type LogConfig struct {
	Level      string
	Console    bool
	Color      bool
	File       bool
	FilePath   string
	MaxSize    int // megabytes
	MaxBackups int
	MaxAge     int // days
}

// DefaultLogConfig returns the default logging configuration.
func DefaultLogConfig() LogConfig {
	home, _ := os.UserHomeDir()
	return LogConfig{
		Level:      "info",
		Console:    true,
		Color:      true,
		File:       true,
		FilePath:   filepath.Join(home, ".config", "stock-risk-engine", "logs", "riskengine.log"),
		MaxSize:    100,
		MaxBackups: 7,
		MaxAge:     30,
	}
}

type levelTag struct {
	text  string
	color *color.Color
}

var levelTags = map[string]levelTag{
	"debug": {"DBG", color.New(color.FgCyan)},
	"info":  {"INF", color.New(color.FgGreen)},
	"warn":  {"WRN", color.New(color.FgYellow)},
	"error": {"ERR", color.New(color.FgRed, color.Bold)},
	"fatal": {"FTL", color.New(color.FgRed, color.Bold)},
}

// consoleWriter renders three-letter level tags, coloured unless disabled.
func consoleWriter(out io.Writer, colored bool) zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{
		Out:        out,
		NoColor:    !colored,
		TimeFormat: time.RFC3339,
		FormatLevel: func(i interface{}) string {
			level, _ := i.(string)
			tag, ok := levelTags[level]
			if !ok {
				return "???"
			}
			if colored {
				return tag.color.Sprint(tag.text)
			}
			return tag.text
		},
	}
}

// NewLoggerWithConfig creates a logger writing to the console, a rotating
// file, both, or nowhere. Console output goes to stderr so JSON results on
// stdout stay clean. A log directory that cannot be created disables the
// file writer.
func NewLoggerWithConfig(cfg LogConfig) zerolog.Logger {
	var writers []io.Writer
	if cfg.Console {
		writers = append(writers, consoleWriter(os.Stderr, cfg.Color))
	}
	if cfg.File && os.MkdirAll(filepath.Dir(cfg.FilePath), 0755) == nil {
		writers = append(writers, &lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   true,
		})
	}

	zerolog.SetGlobalLevel(ParseLevel(cfg.Level))

	var out io.Writer = io.Discard
	switch len(writers) {
	case 0:
	case 1:
		out = writers[0]
	default:
		out = zerolog.MultiLevelWriter(writers...)
	}
	return zerolog.New(out).With().Timestamp().Caller().Logger()
}

// ParseLevel maps a config level name to a zerolog level, defaulting to
// info for empty or unknown names.
func ParseLevel(level string) zerolog.Level {
	l, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || l == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return l
}

// SetDebugLevel sets the global log level to debug.
func SetDebugLevel() {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
}

type ctxKey struct{}

// WithLogger adds a logger to the context.
func WithLogger(ctx context.Context, logger zerolog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// FromContext retrieves the logger from context. A context without one
// yields a no-op logger.
func FromContext(ctx context.Context) zerolog.Logger {
	if ctx == nil {
		return zerolog.Nop()
	}
	if logger, ok := ctx.Value(ctxKey{}).(zerolog.Logger); ok {
		return logger
	}
	return zerolog.Nop()
}

// WithSymbol adds a symbol to the logger context.
func WithSymbol(logger zerolog.Logger, symbol string) zerolog.Logger {
	return logger.With().Str("symbol", symbol).Logger()
}

// WithRunID adds a batch run ID to the logger context.
func WithRunID(logger zerolog.Logger, runID string) zerolog.Logger {
	return logger.With().Str("run_id", runID).Logger()
}

// WithOperation adds an operation name to the logger context.
func WithOperation(logger zerolog.Logger, operation string) zerolog.Logger {
	return logger.With().Str("operation", operation).Logger()
}

// LogAssessment logs a completed analysis.
func LogAssessment(logger zerolog.Logger, symbol, signal, decision string, riskScore, confidence float64) {
	logger.Info().
		Str("event", "assessment").
		Str("symbol", symbol).
		Str("signal", signal).
		Str("decision", decision).
		Float64("risk_score", riskScore).
		Float64("confidence", confidence).
		Msg("Assessment complete")
}

// LogSkippedStage logs an analysis stage that fell back to its neutral
// default.
func LogSkippedStage(logger zerolog.Logger, stage string, err error) {
	logger.Warn().
		Str("event", "stage_skipped").
		Str("stage", stage).
		Err(err).
		Msg("Analysis stage skipped")
}

// LogImport logs a candle import.
func LogImport(logger zerolog.Logger, symbol, timeframe string, kept, dropped int) {
	logger.Info().
		Str("event", "import").
		Str("symbol", symbol).
		Str("timeframe", timeframe).
		Int("kept", kept).
		Int("dropped", dropped).
		Msg("Candles imported")
}

// LogRun logs the outcome of a batch run over several symbols.
func LogRun(logger zerolog.Logger, runID string, symbols, failed int, duration time.Duration) {
	event := logger.Info()
	if failed > 0 {
		event = logger.Warn()
	}
	event.
		Str("event", "run").
		Str("run_id", runID).
		Int("symbols", symbols).
		Int("failed", failed).
		Dur("duration", duration).
		Msg("Batch run finished")
}

// LogStoreCall logs a store operation.
func LogStoreCall(logger zerolog.Logger, operation string, duration time.Duration, err error) {
	event := logger.Debug().
		Str("event", "store_call").
		Str("operation", operation).
		Dur("duration", duration)

	if err != nil {
		event.Err(err).Msg("Store call failed")
	} else {
		event.Msg("Store call completed")
	}
}

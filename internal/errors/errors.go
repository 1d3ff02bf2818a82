// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors
var (
	ErrInsufficientData   = errors.New("insufficient data")
	ErrMalformedSeries    = errors.New("malformed series")
	ErrBenchmarkAlignment = errors.New("benchmark alignment failed")
	ErrConfigInvalid      = errors.New("invalid configuration")
	ErrDataNotFound       = errors.New("data not found")
	ErrDatabaseError      = errors.New("database error")
	ErrInputValidation    = errors.New("input validation failed")
)

// InsufficientDataError is returned when a series holds fewer valid bars
// than a computation requires.
type InsufficientDataError struct {
	Symbol  string
	Have    int
	Need    int
	Dropped int
}

func (e *InsufficientDataError) Error() string {
	if e.Dropped > 0 {
		return fmt.Sprintf("insufficient data for %s: %d valid bars (%d dropped), need at least %d", e.Symbol, e.Have, e.Dropped, e.Need)
	}
	return fmt.Sprintf("insufficient data for %s: %d bars, need at least %d", e.Symbol, e.Have, e.Need)
}

func (e *InsufficientDataError) Unwrap() error {
	return ErrInsufficientData
}

// NewInsufficientDataError creates a new InsufficientDataError.
func NewInsufficientDataError(symbol string, have, need, dropped int) *InsufficientDataError {
	return &InsufficientDataError{
		Symbol:  symbol,
		Have:    have,
		Need:    need,
		Dropped: dropped,
	}
}

// MalformedSeriesError describes rows that were dropped while preparing a
// series. It is informational unless the remaining rows fall below the floor.
type MalformedSeriesError struct {
	Symbol     string
	Unparsable int
	Duplicates int
	Reasons    []string
}

func (e *MalformedSeriesError) Error() string {
	return fmt.Sprintf("malformed series %s: %d unparsable rows, %d duplicate dates dropped", e.Symbol, e.Unparsable, e.Duplicates)
}

func (e *MalformedSeriesError) Unwrap() error {
	return ErrMalformedSeries
}

// Dropped returns the total number of rows removed.
func (e *MalformedSeriesError) Dropped() int {
	return e.Unparsable + e.Duplicates
}

// BenchmarkAlignmentError is returned when an instrument and its benchmark
// do not overlap enough for beta analysis.
type BenchmarkAlignmentError struct {
	Symbol    string
	Benchmark string
	Overlap   int
	Need      int
	Reason    string
}

func (e *BenchmarkAlignmentError) Error() string {
	return fmt.Sprintf("benchmark alignment %s vs %s: %s (overlap %d, need %d)", e.Symbol, e.Benchmark, e.Reason, e.Overlap, e.Need)
}

func (e *BenchmarkAlignmentError) Unwrap() error {
	return ErrBenchmarkAlignment
}

// NewBenchmarkAlignmentError creates a new BenchmarkAlignmentError.
func NewBenchmarkAlignmentError(symbol, benchmark, reason string, overlap, need int) *BenchmarkAlignmentError {
	return &BenchmarkAlignmentError{
		Symbol:    symbol,
		Benchmark: benchmark,
		Overlap:   overlap,
		Need:      need,
		Reason:    reason,
	}
}

// ValidationError represents a validation error.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s (%v): %s", e.Field, e.Value, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrInputValidation
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// DataError represents a data-related error.
type DataError struct {
	DataType string
	Symbol   string
	Message  string
	Err      error
}

func (e *DataError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("data error [%s] %s: %s: %v", e.DataType, e.Symbol, e.Message, e.Err)
	}
	return fmt.Sprintf("data error [%s] %s: %s", e.DataType, e.Symbol, e.Message)
}

func (e *DataError) Unwrap() error {
	return e.Err
}

// NewDataError creates a new DataError.
func NewDataError(dataType, symbol, message string, err error) *DataError {
	return &DataError{
		DataType: dataType,
		Symbol:   symbol,
		Message:  message,
		Err:      err,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

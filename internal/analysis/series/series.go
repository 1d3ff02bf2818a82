// Package series turns raw OHLCV rows into a cleaned, ascending PriceSeries.
package series

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gocarina/gocsv"

	apperrors "stock-risk-engine/internal/errors"
	"stock-risk-engine/internal/models"
)

// DefaultMinBars is the valid-bar floor below which analysis is refused.
const DefaultMinBars = 50

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05-07:00",
	"02-01-2006",
}

func init() {
	gocsv.SetHeaderNormalizer(func(s string) string {
		return strings.ToLower(strings.TrimSpace(s))
	})
}

// RawBar is one untyped OHLCV row as read from a file or an upstream client.
type RawBar struct {
	Date   string `csv:"date"`
	Open   string `csv:"open"`
	High   string `csv:"high"`
	Low    string `csv:"low"`
	Close  string `csv:"close"`
	Volume string `csv:"volume"`
}

// Options controls preparation.
type Options struct {
	// MinBars is the floor of valid bars. Zero means DefaultMinBars.
	MinBars int
}

func (o Options) minBars() int {
	if o.MinBars <= 0 {
		return DefaultMinBars
	}
	return o.MinBars
}

// Report summarises what preparation did to the input.
type Report struct {
	Rows int
	Kept int
	// Malformed is non-nil when rows were dropped. It is informational.
	Malformed *apperrors.MalformedSeriesError
}

// LoadCSV reads raw rows from CSV with a header line. Header names are
// matched case-insensitively.
func LoadCSV(r io.Reader) ([]RawBar, error) {
	var rows []RawBar
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, apperrors.Wrap(err, "failed to parse csv")
	}
	return rows, nil
}

// Prepare parses, validates, sorts and de-duplicates raw rows.
func Prepare(symbol, timeframe string, rows []RawBar, opts Options) (*models.PriceSeries, *Report, error) {
	malformed := &apperrors.MalformedSeriesError{Symbol: symbol}
	candles := make([]models.Candle, 0, len(rows))

	for i, row := range rows {
		c, err := parseRow(row)
		if err != nil {
			malformed.Unparsable++
			malformed.Reasons = append(malformed.Reasons, fmt.Sprintf("row %d: %v", i+1, err))
			continue
		}
		candles = append(candles, c)
	}

	return finish(symbol, timeframe, len(rows), candles, malformed, opts)
}

// FromCandles validates typed candles the same way Prepare validates rows.
func FromCandles(symbol, timeframe string, bars []models.Candle, opts Options) (*models.PriceSeries, *Report, error) {
	malformed := &apperrors.MalformedSeriesError{Symbol: symbol}
	candles := make([]models.Candle, 0, len(bars))

	for i, c := range bars {
		if err := validate(c); err != nil {
			malformed.Unparsable++
			malformed.Reasons = append(malformed.Reasons, fmt.Sprintf("bar %d: %v", i+1, err))
			continue
		}
		candles = append(candles, c)
	}

	return finish(symbol, timeframe, len(bars), candles, malformed, opts)
}

func finish(symbol, timeframe string, total int, candles []models.Candle, malformed *apperrors.MalformedSeriesError, opts Options) (*models.PriceSeries, *Report, error) {
	sort.SliceStable(candles, func(i, j int) bool {
		return candles[i].Timestamp.Before(candles[j].Timestamp)
	})

	deduped := candles[:0]
	for i, c := range candles {
		if i > 0 && c.Timestamp.Equal(deduped[len(deduped)-1].Timestamp) {
			malformed.Duplicates++
			malformed.Reasons = append(malformed.Reasons, fmt.Sprintf("duplicate date %s", c.Timestamp.Format(time.RFC3339)))
			continue
		}
		deduped = append(deduped, c)
	}

	report := &Report{Rows: total, Kept: len(deduped)}
	if malformed.Dropped() > 0 {
		report.Malformed = malformed
	}

	if len(deduped) < opts.minBars() {
		return nil, report, apperrors.NewInsufficientDataError(symbol, len(deduped), opts.minBars(), malformed.Dropped())
	}

	return &models.PriceSeries{
		Symbol:    symbol,
		Timeframe: timeframe,
		Bars:      deduped,
	}, report, nil
}

func parseRow(row RawBar) (models.Candle, error) {
	ts, err := ParseDate(row.Date)
	if err != nil {
		return models.Candle{}, err
	}

	var c models.Candle
	c.Timestamp = ts
	fields := []struct {
		name string
		raw  string
		dst  *float64
	}{
		{"open", row.Open, &c.Open},
		{"high", row.High, &c.High},
		{"low", row.Low, &c.Low},
		{"close", row.Close, &c.Close},
		{"volume", row.Volume, &c.Volume},
	}
	for _, f := range fields {
		if f.name == "volume" && strings.TrimSpace(f.raw) == "" {
			continue
		}
		v, err := parseNumber(f.raw)
		if err != nil {
			return models.Candle{}, fmt.Errorf("%s: %w", f.name, err)
		}
		*f.dst = v
	}

	return c, validate(c)
}

// ParseDate accepts ISO dates, RFC3339 timestamps and unix seconds.
func ParseDate(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(secs, 0).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", raw)
}

func parseNumber(raw string) (float64, error) {
	s := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if s == "" {
		return 0, fmt.Errorf("empty value")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", raw)
	}
	return v, nil
}

func validate(c models.Candle) error {
	for _, v := range []float64{c.Open, c.High, c.Low, c.Close, c.Volume} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("non-finite value")
		}
	}
	if c.Close <= 0 {
		return fmt.Errorf("non-positive close %v", c.Close)
	}
	if c.Timestamp.IsZero() {
		return fmt.Errorf("missing date")
	}
	return nil
}

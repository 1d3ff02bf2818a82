package models

import (
	"encoding/json"
	"time"
)

// AssessmentRecord is a persisted analysis run for one symbol.
type AssessmentRecord struct {
	ID         string
	CreatedAt  time.Time
	RunID      string
	Symbol     string
	Timeframe  string
	AsOf       time.Time
	Status     string // complete, partial, insufficient_data
	Signal     string
	Decision   string // BUY, HOLD, AVOID, SELL
	Composite  float64
	Confidence float64
	RiskScore  float64
	RiskLevel  string
	Price      float64
	// Payload is the full result as JSON.
	Payload json.RawMessage
}

// AssessmentStats summarises stored assessments.
type AssessmentStats struct {
	Total         int
	AvgRiskScore  float64
	AvgConfidence float64
	ByDecision    map[string]int
	BySymbol      map[string]*SymbolStats
}

// SymbolStats summarises the assessments of a single symbol.
type SymbolStats struct {
	Symbol       string
	Count        int
	LastDecision string
	AvgRiskScore float64
}

// Package analysis holds the value types shared by the analysis stages:
// price levels and the discrete composite signal.
package analysis

// Level represents a support or resistance candidate.
type Level struct {
	Price  float64   `json:"price"`
	Type   LevelType `json:"type"`
	Source string    `json:"source"`
}

// LevelType represents the type of price level.
type LevelType string

const (
	LevelSupport    LevelType = "support"
	LevelResistance LevelType = "resistance"
)

// Signal is the discrete composite signal.
type Signal string

const (
	StrongBuy  Signal = "strong_buy"
	Buy        Signal = "buy"
	Neutral    Signal = "neutral"
	Sell       Signal = "sell"
	StrongSell Signal = "strong_sell"
)

// Rank orders signals from strong_sell (0) to strong_buy (4).
func (s Signal) Rank() int {
	switch s {
	case StrongSell:
		return 0
	case Sell:
		return 1
	case Buy:
		return 3
	case StrongBuy:
		return 4
	default:
		return 2
	}
}

// IsBuySide reports whether the signal is buy or strong_buy.
func (s Signal) IsBuySide() bool {
	return s == Buy || s == StrongBuy
}

// IsSellSide reports whether the signal is sell or strong_sell.
func (s Signal) IsSellSide() bool {
	return s == Sell || s == StrongSell
}

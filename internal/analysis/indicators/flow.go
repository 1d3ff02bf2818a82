package indicators

import (
	"stock-risk-engine/internal/models"
)

// OBV is on-balance volume: the running sum of volume signed by the
// direction of each close.
type OBV struct {
	window
}

// NewOBV creates an OBV indicator.
func NewOBV() *OBV {
	return &OBV{window{"OBV", 1}}
}

func (o *OBV) Calculate(candles []models.Candle) ([]float64, error) {
	if err := o.check(len(candles)); err != nil {
		return nil, err
	}
	out := make([]float64, len(candles))
	total := candles[0].Volume
	out[0] = total
	for i := 1; i < len(candles); i++ {
		prev, cur := candles[i-1].Close, candles[i]
		switch {
		case cur.Close > prev:
			total += cur.Volume
		case cur.Close < prev:
			total -= cur.Volume
		}
		out[i] = total
	}
	return out, nil
}

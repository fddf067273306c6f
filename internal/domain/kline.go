package domain

import (
	"fmt"
	"math"
	"time"
)

// Kline is one OHLCV row as delivered by a market data provider.
type Kline struct {
	OpenTime  time.Time `json:"open_time"`
	CloseTime time.Time `json:"close_time"` // zero when the source has no close time
	Symbol    string    `json:"symbol"`
	Interval  string    `json:"interval"` // provider notation, e.g. "1h", "1d"
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
	IsFinal   bool      `json:"is_final"` // false while the interval is still trading
}

// Validate checks that prices are finite and that high is not below low.
// Open and close outside [low, high] are tolerated.
func (k *Kline) Validate() error {
	for _, v := range []float64{k.Open, k.High, k.Low, k.Close, k.Volume} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("kline %s: non-finite value", k.OpenTime.Format(time.RFC3339))
		}
	}
	if k.High < k.Low {
		return fmt.Errorf("kline %s: high %g below low %g", k.OpenTime.Format(time.RFC3339), k.High, k.Low)
	}
	if k.Volume < 0 {
		return fmt.Errorf("kline %s: negative volume %g", k.OpenTime.Format(time.RFC3339), k.Volume)
	}
	return nil
}

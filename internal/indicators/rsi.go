package indicators

import (
	"math"

	"indicatorEngine/internal/domain"
	"indicatorEngine/internal/series"
)

// RSI computes the Relative Strength Index using simple rolling means of
// gains and losses. A window with no losses reads 100. Column: rsi.
func RSI(s *domain.Series, window int) (*Frame, error) {
	if err := positive(KindRSI, "window", window); err != nil {
		return nil, err
	}
	if err := checkInput(s, KindRSI, WindowParams{Window: window}); err != nil {
		return nil, err
	}

	delta := series.Diff(s.Close)
	gains := make([]float64, len(delta))
	losses := make([]float64, len(delta))
	for i, d := range delta {
		if math.IsNaN(d) {
			gains[i], losses[i] = math.NaN(), math.NaN()
			continue
		}
		gains[i] = math.Max(d, 0)
		losses[i] = math.Max(-d, 0)
	}

	avgGain, err := series.RollingMean(gains, window)
	if err != nil {
		return nil, err
	}
	avgLoss, err := series.RollingMean(losses, window)
	if err != nil {
		return nil, err
	}

	values := series.Filled(len(delta), math.NaN())
	for i := range values {
		g, l := avgGain[i], avgLoss[i]
		if math.IsNaN(g) || math.IsNaN(l) {
			continue
		}
		if l == 0 {
			values[i] = 100
			continue
		}
		values[i] = 100 - 100/(1+g/l)
	}
	return newFrame(KindRSI, s.Time).add("rsi", values), nil
}

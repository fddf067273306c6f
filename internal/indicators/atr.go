package indicators

import (
	"math"

	"indicatorEngine/internal/domain"
	"indicatorEngine/internal/series"
)

// TrueRange returns the per-bar true range. The first bar has no previous
// close, so its range is simply high - low.
func TrueRange(s *domain.Series) []float64 {
	tr := make([]float64, s.Len())
	for i := range tr {
		high, low := s.High[i], s.Low[i]
		if i == 0 {
			tr[i] = high - low
			continue
		}
		prevClose := s.Close[i-1]
		tr[i] = math.Max(high-low, math.Max(math.Abs(high-prevClose), math.Abs(low-prevClose)))
	}
	return tr
}

// ATR computes the Average True Range as a simple rolling mean of the true
// range. Column: atr.
func ATR(s *domain.Series, window int) (*Frame, error) {
	if err := positive(KindATR, "window", window); err != nil {
		return nil, err
	}
	if err := checkInput(s, KindATR, WindowParams{Window: window}); err != nil {
		return nil, err
	}
	values, err := series.RollingMean(TrueRange(s), window)
	if err != nil {
		return nil, err
	}
	return newFrame(KindATR, s.Time).add("atr", values), nil
}

package indicators

import (
	"indicatorEngine/internal/domain"
	"indicatorEngine/internal/series"
)

// SMA computes the simple moving average of close over window bars.
// Column: sma.
func SMA(s *domain.Series, window int) (*Frame, error) {
	if err := positive(KindSMA, "window", window); err != nil {
		return nil, err
	}
	if err := checkInput(s, KindSMA, WindowParams{Window: window}); err != nil {
		return nil, err
	}
	values, err := series.RollingMean(s.Close, window)
	if err != nil {
		return nil, err
	}
	return newFrame(KindSMA, s.Time).add("sma", values), nil
}

// EMA computes the exponential moving average of close with the given span,
// seeded with the first close. Column: ema.
func EMA(s *domain.Series, span int) (*Frame, error) {
	if err := positive(KindEMA, "span", span); err != nil {
		return nil, err
	}
	if err := checkInput(s, KindEMA, WindowParams{Window: span}); err != nil {
		return nil, err
	}
	values, err := series.EWMMean(s.Close, span)
	if err != nil {
		return nil, err
	}
	return newFrame(KindEMA, s.Time).add("ema", values), nil
}

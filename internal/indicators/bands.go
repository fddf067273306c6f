package indicators

import (
	"fmt"

	"indicatorEngine/internal/domain"
	"indicatorEngine/internal/ports"
	"indicatorEngine/internal/series"
)

// BollingerBands computes an SMA mid line with bands mult sample standard
// deviations away. Columns: bb_lower, bb_mid, bb_upper.
func BollingerBands(s *domain.Series, length int, mult float64) (*Frame, error) {
	if err := positive(KindBBands, "length", length); err != nil {
		return nil, err
	}
	if err := positiveFloat(KindBBands, "std multiplier", mult); err != nil {
		return nil, err
	}
	if err := checkInput(s, KindBBands, BandParams{Length: length, Mult: mult}); err != nil {
		return nil, err
	}

	mid, err := series.RollingMean(s.Close, length)
	if err != nil {
		return nil, err
	}
	std, err := series.RollingStd(s.Close, length)
	if err != nil {
		return nil, err
	}
	lower, upper := envelope(mid, std, mult)
	return newFrame(KindBBands, s.Time).
		add("bb_lower", lower).
		add("bb_mid", mid).
		add("bb_upper", upper), nil
}

// Keltner computes an EMA mid line with bands mult ATRs away. A precomputed
// ATR column of the same window may be passed; when atr is nil it is
// computed here. Columns: kel_lower, kel_mid, kel_upper.
func Keltner(s *domain.Series, length int, mult float64, atr Column) (*Frame, error) {
	if err := positive(KindKeltner, "length", length); err != nil {
		return nil, err
	}
	if err := positiveFloat(KindKeltner, "multiplier", mult); err != nil {
		return nil, err
	}
	if err := checkInput(s, KindKeltner, BandParams{Length: length, Mult: mult}); err != nil {
		return nil, err
	}
	atr, err := resolveATR(s, length, atr)
	if err != nil {
		return nil, err
	}

	mid, err := series.EWMMean(s.Close, length)
	if err != nil {
		return nil, err
	}
	lower, upper := envelope(mid, atr, mult)
	return newFrame(KindKeltner, s.Time).
		add("kel_lower", lower).
		add("kel_mid", mid).
		add("kel_upper", upper), nil
}

func envelope(mid, width []float64, mult float64) (lower, upper []float64) {
	lower = make([]float64, len(mid))
	upper = make([]float64, len(mid))
	for i := range mid {
		band := mult * width[i]
		lower[i] = mid[i] - band
		upper[i] = mid[i] + band
	}
	return lower, upper
}

// resolveATR returns the supplied ATR column after checking its length, or
// computes one when none was supplied.
func resolveATR(s *domain.Series, window int, atr Column) (Column, error) {
	if atr != nil {
		if len(atr) != s.Len() {
			return nil, fmt.Errorf("%w: atr column has %d rows, series has %d", ports.ErrInvalidParameter, len(atr), s.Len())
		}
		return atr, nil
	}
	f, err := ATR(s, window)
	if err != nil {
		return nil, err
	}
	return f.Column("atr"), nil
}

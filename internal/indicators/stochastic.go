package indicators

import (
	"math"

	"indicatorEngine/internal/domain"
	"indicatorEngine/internal/series"
)

// Stochastic computes the stochastic oscillator. Raw %K compares close with
// the k-bar high/low range and is undefined when that range is flat; it is
// smoothed over smoothK bars, and %D is the d-bar mean of %K.
// Columns: %K, %D.
func Stochastic(s *domain.Series, k, d, smoothK int) (*Frame, error) {
	if err := positive(KindStochastic, "k", k); err != nil {
		return nil, err
	}
	if err := positive(KindStochastic, "d", d); err != nil {
		return nil, err
	}
	if err := positive(KindStochastic, "smooth_k", smoothK); err != nil {
		return nil, err
	}
	if err := checkInput(s, KindStochastic, StochasticParams{K: k, D: d, SmoothK: smoothK}); err != nil {
		return nil, err
	}

	hh, err := series.RollingMax(s.High, k)
	if err != nil {
		return nil, err
	}
	ll, err := series.RollingMin(s.Low, k)
	if err != nil {
		return nil, err
	}
	raw := series.Filled(s.Len(), math.NaN())
	for i := range raw {
		rng := hh[i] - ll[i]
		if math.IsNaN(rng) || rng == 0 {
			continue
		}
		raw[i] = 100 * (s.Close[i] - ll[i]) / rng
	}

	pctK, err := series.RollingMean(raw, smoothK)
	if err != nil {
		return nil, err
	}
	pctD, err := series.RollingMean(pctK, d)
	if err != nil {
		return nil, err
	}
	return newFrame(KindStochastic, s.Time).add("%K", pctK).add("%D", pctD), nil
}

package indicators

import (
	"fmt"
	"math"

	"indicatorEngine/internal/domain"
	"indicatorEngine/internal/ports"
	"indicatorEngine/internal/series"
)

// DirectionalMovement returns the per-bar +DM and -DM. The first bar has no
// predecessor and carries zero movement.
func DirectionalMovement(s *domain.Series) (plus, minus []float64) {
	n := s.Len()
	plus = make([]float64, n)
	minus = make([]float64, n)
	for i := 1; i < n; i++ {
		up := s.High[i] - s.High[i-1]
		down := s.Low[i-1] - s.Low[i]
		if up > down && up > 0 {
			plus[i] = up
		}
		if down > up && down > 0 {
			minus[i] = down
		}
	}
	return plus, minus
}

// DMI computes the positive and negative directional indicators. A
// precomputed ATR column of the same window may be passed; when atr is nil
// it is computed here. Where the ATR is zero both indicators read 0.
// Columns: +di, -di.
func DMI(s *domain.Series, window int, atr Column) (*Frame, error) {
	if err := positive(KindDMI, "window", window); err != nil {
		return nil, err
	}
	if err := checkInput(s, KindDMI, WindowParams{Window: window}); err != nil {
		return nil, err
	}
	atr, err := resolveATR(s, window, atr)
	if err != nil {
		return nil, err
	}

	plusDM, minusDM := DirectionalMovement(s)
	plusAvg, err := series.RollingMean(plusDM, window)
	if err != nil {
		return nil, err
	}
	minusAvg, err := series.RollingMean(minusDM, window)
	if err != nil {
		return nil, err
	}

	plusDI := series.Filled(s.Len(), math.NaN())
	minusDI := series.Filled(s.Len(), math.NaN())
	for i := range plusDI {
		a := atr[i]
		if math.IsNaN(a) || math.IsNaN(plusAvg[i]) || math.IsNaN(minusAvg[i]) {
			continue
		}
		if a == 0 {
			plusDI[i], minusDI[i] = 0, 0
			continue
		}
		plusDI[i] = 100 * plusAvg[i] / a
		minusDI[i] = 100 * minusAvg[i] / a
	}
	return newFrame(KindDMI, s.Time).add("+di", plusDI).add("-di", minusDI), nil
}

// ADX computes the Average Directional Index: the window mean of
// DX = 100 * |+DI - -DI| / (+DI + -DI), with DX = 0 when both indicators
// are zero. A precomputed DMI frame of the same window may be passed; when
// dmi is nil it is computed here. Column: adx.
func ADX(s *domain.Series, window int, dmi *Frame) (*Frame, error) {
	if err := positive(KindADX, "window", window); err != nil {
		return nil, err
	}
	if err := checkInput(s, KindADX, WindowParams{Window: window}); err != nil {
		return nil, err
	}
	if dmi == nil {
		var err error
		if dmi, err = DMI(s, window, nil); err != nil {
			return nil, err
		}
	}
	plusDI, minusDI := dmi.Column("+di"), dmi.Column("-di")
	if len(plusDI) != s.Len() || len(minusDI) != s.Len() {
		return nil, fmt.Errorf("%w: dmi frame does not match series length %d", ports.ErrInvalidParameter, s.Len())
	}

	dx := series.Filled(s.Len(), math.NaN())
	for i := range dx {
		p, m := plusDI[i], minusDI[i]
		if math.IsNaN(p) || math.IsNaN(m) {
			continue
		}
		if total := p + m; total != 0 {
			dx[i] = 100 * math.Abs(p-m) / total
		} else {
			dx[i] = 0
		}
	}
	values, err := series.RollingMean(dx, window)
	if err != nil {
		return nil, err
	}
	return newFrame(KindADX, s.Time).add("adx", values), nil
}

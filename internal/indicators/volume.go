package indicators

import (
	"fmt"
	"math"

	"indicatorEngine/internal/domain"
	"indicatorEngine/internal/ports"
	"indicatorEngine/internal/series"
)

// OBV computes On-Balance Volume: the running sum of volume signed by the
// direction of each close-to-close move. The first bar contributes zero.
// Column: obv.
func OBV(s *domain.Series) (*Frame, error) {
	if err := checkInput(s, KindOBV, NoParams{}); err != nil {
		return nil, err
	}
	signed := make([]float64, s.Len())
	for i := 1; i < len(signed); i++ {
		switch d := s.Close[i] - s.Close[i-1]; {
		case d > 0:
			signed[i] = s.Volume[i]
		case d < 0:
			signed[i] = -s.Volume[i]
		}
	}
	return newFrame(KindOBV, s.Time).add("obv", series.CumSum(signed)), nil
}

// TypicalPrice returns (high + low + close) / 3 per bar.
func TypicalPrice(s *domain.Series) []float64 {
	tp := make([]float64, s.Len())
	for i := range tp {
		tp[i] = (s.High[i] + s.Low[i] + s.Close[i]) / 3
	}
	return tp
}

// MFI computes the Money Flow Index over window bars. A window without
// negative flow reads 100. Column: mfi.
func MFI(s *domain.Series, window int) (*Frame, error) {
	if err := positive(KindMFI, "window", window); err != nil {
		return nil, err
	}
	if err := checkInput(s, KindMFI, WindowParams{Window: window}); err != nil {
		return nil, err
	}

	tp := TypicalPrice(s)
	pos := series.Filled(len(tp), math.NaN())
	neg := series.Filled(len(tp), math.NaN())
	for i := 1; i < len(tp); i++ {
		flow := tp[i] * s.Volume[i]
		pos[i], neg[i] = 0, 0
		switch {
		case tp[i] > tp[i-1]:
			pos[i] = flow
		case tp[i] < tp[i-1]:
			neg[i] = flow
		}
	}
	posSum, err := series.RollingSum(pos, window)
	if err != nil {
		return nil, err
	}
	negSum, err := series.RollingSum(neg, window)
	if err != nil {
		return nil, err
	}

	values := series.Filled(len(tp), math.NaN())
	for i := range values {
		p, n := posSum[i], negSum[i]
		if math.IsNaN(p) || math.IsNaN(n) {
			continue
		}
		if n == 0 {
			values[i] = 100
			continue
		}
		values[i] = 100 - 100/(1+p/n)
	}
	return newFrame(KindMFI, s.Time).add("mfi", values), nil
}

// VWAP computes the volume-weighted average typical price accumulated from
// the first bar of the series. It does not reset per session. Bars before
// any volume has traded are NaN. Column: vwap.
func VWAP(s *domain.Series) (*Frame, error) {
	if err := checkInput(s, KindVWAP, NoParams{}); err != nil {
		return nil, err
	}
	tp := TypicalPrice(s)
	pv := make([]float64, len(tp))
	for i := range pv {
		pv[i] = tp[i] * s.Volume[i]
	}
	cumPV := series.CumSum(pv)
	cumVol := series.CumSum(s.Volume)

	values := series.Filled(len(tp), math.NaN())
	for i := range values {
		if cumVol[i] != 0 {
			values[i] = cumPV[i] / cumVol[i]
		}
	}
	return newFrame(KindVWAP, s.Time).add("vwap", values), nil
}

// MaxBins caps the volume profile bucket count.
const MaxBins = 10000

// VolumeProfile buckets traded volume by close price into bins equal-width
// bins spanning the close range. A flat range is widened by 0.5 on each side.
// The result is indexed by bin, not time. Columns: price_bin, volume_sum.
func VolumeProfile(s *domain.Series, bins int) (*Frame, error) {
	if err := positive(KindVolumeProfile, "bins", bins); err != nil {
		return nil, err
	}
	if bins > MaxBins {
		return nil, fmt.Errorf("%w: %s bins must be at most %d, got %d",
			ports.ErrInvalidParameter, KindVolumeProfile, MaxBins, bins)
	}
	if err := checkInput(s, KindVolumeProfile, BinsParams{Bins: bins}); err != nil {
		return nil, err
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, c := range s.Close {
		if math.IsNaN(c) {
			continue
		}
		lo, hi = math.Min(lo, c), math.Max(hi, c)
	}
	centers := make([]float64, bins)
	sums := make([]float64, bins)
	if math.IsInf(lo, 1) {
		// no defined close
		for i := range centers {
			centers[i] = math.NaN()
		}
		return newFrame(KindVolumeProfile, nil).add("price_bin", centers).add("volume_sum", sums), nil
	}
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}

	width := (hi - lo) / float64(bins)
	for i := range centers {
		centers[i] = lo + width*(float64(i)+0.5)
	}
	for i, c := range s.Close {
		v := s.Volume[i]
		if math.IsNaN(c) || math.IsNaN(v) {
			continue
		}
		b := int((c - lo) / width)
		if b >= bins {
			b = bins - 1
		}
		if b < 0 {
			b = 0
		}
		sums[b] += v
	}
	return newFrame(KindVolumeProfile, nil).add("price_bin", centers).add("volume_sum", sums), nil
}

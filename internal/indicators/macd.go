package indicators

import (
	"indicatorEngine/internal/domain"
	"indicatorEngine/internal/series"
)

// MACD computes the moving average convergence/divergence line, its signal
// line and their difference. Columns: macd, signal, hist.
func MACD(s *domain.Series, fast, slow, signal int) (*Frame, error) {
	for _, p := range []struct {
		name string
		v    int
	}{{"fast", fast}, {"slow", slow}, {"signal", signal}} {
		if err := positive(KindMACD, p.name, p.v); err != nil {
			return nil, err
		}
	}
	if err := checkInput(s, KindMACD, MACDParams{Fast: fast, Slow: slow, Signal: signal}); err != nil {
		return nil, err
	}

	fastEMA, err := series.EWMMean(s.Close, fast)
	if err != nil {
		return nil, err
	}
	slowEMA, err := series.EWMMean(s.Close, slow)
	if err != nil {
		return nil, err
	}
	line := make([]float64, len(fastEMA))
	for i := range line {
		line[i] = fastEMA[i] - slowEMA[i]
	}
	sig, err := series.EWMMean(line, signal)
	if err != nil {
		return nil, err
	}
	hist := make([]float64, len(line))
	for i := range hist {
		hist[i] = line[i] - sig[i]
	}

	return newFrame(KindMACD, s.Time).
		add("macd", line).
		add("signal", sig).
		add("hist", hist), nil
}

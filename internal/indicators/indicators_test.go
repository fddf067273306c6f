package indicators

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/markcheno/go-talib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"indicatorEngine/internal/ports"
	"indicatorEngine/internal/series"
)

func TestSMA_WarmUp(t *testing.T) {
	s := increasing(30)

	f, err := SMA(s, 20)
	require.NoError(t, err)
	sma := f.Column("sma")
	require.Len(t, sma, 30)

	assert.Equal(t, 19, leadingNaN(sma))
	assertClose(t, mean(s.Close[0:20]), sma[19])
	assertClose(t, mean(s.Close[10:30]), sma[29])
}

func TestEMA_SeededWithFirstClose(t *testing.T) {
	s := seriesFromCloses([]float64{10, 20, 30})

	f, err := EMA(s, 3)
	require.NoError(t, err)
	ema := f.Column("ema")
	// alpha = 0.5
	assertClose(t, 10, ema[0])
	assertClose(t, 15, ema[1])
	assertClose(t, 22.5, ema[2])
}

func TestRSI(t *testing.T) {
	tests := []struct {
		name     string
		closes   []float64
		window   int
		expected []float64
	}{
		{
			name:     "mixed moves",
			closes:   []float64{1, 2, 3, 2, 3},
			window:   2,
			expected: []float64{math.NaN(), math.NaN(), 100, 50, 50},
		},
		{
			name:     "flat series has no losses",
			closes:   []float64{5, 5, 5, 5},
			window:   2,
			expected: []float64{math.NaN(), math.NaN(), 100, 100},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := RSI(seriesFromCloses(tt.closes), tt.window)
			require.NoError(t, err)
			rsi := f.Column("rsi")
			for i := range tt.expected {
				assertClose(t, tt.expected[i], rsi[i], "index %d", i)
			}
		})
	}
}

func TestRSI_StrictlyIncreasingIsAlways100(t *testing.T) {
	f, err := RSI(increasing(60), 14)
	require.NoError(t, err)
	rsi := f.Column("rsi")
	assert.Equal(t, 14, leadingNaN(rsi))
	for i := 14; i < len(rsi); i++ {
		assert.Equal(t, 100.0, rsi[i], "index %d", i)
	}
}

func TestMACD_HistogramIsExactDifference(t *testing.T) {
	f, err := MACD(oscillating(120), 12, 26, 9)
	require.NoError(t, err)
	assert.Equal(t, []string{"macd", "signal", "hist"}, f.Names())

	line, sig, hist := f.Column("macd"), f.Column("signal"), f.Column("hist")
	for i := range hist {
		assert.Equal(t, line[i]-sig[i], hist[i], "index %d", i)
	}
}

func TestStochastic(t *testing.T) {
	t.Run("bounded between 0 and 100", func(t *testing.T) {
		f, err := Stochastic(oscillating(80), 14, 3, 3)
		require.NoError(t, err)
		k := f.Column("%K")
		assert.Equal(t, 14+3-2, leadingNaN(k))
		assert.Equal(t, 14+3+3-3, leadingNaN(f.Column("%D")))
		for i := leadingNaN(k); i < len(k); i++ {
			assert.True(t, k[i] >= 0 && k[i] <= 100, "index %d: %f", i, k[i])
		}
	})

	t.Run("flat range is undefined", func(t *testing.T) {
		s := seriesFromCloses([]float64{7, 7, 7, 7, 7})
		copy(s.High, s.Close)
		copy(s.Low, s.Close)
		f, err := Stochastic(s, 2, 1, 1)
		require.NoError(t, err)
		for _, v := range f.Column("%K") {
			assert.True(t, math.IsNaN(v))
		}
	})
}

func TestATR(t *testing.T) {
	s := seriesFromCloses([]float64{10, 12, 11})

	assert.Equal(t, []float64{2, 3, 2}, TrueRange(s))

	f, err := ATR(s, 2)
	require.NoError(t, err)
	atr := f.Column("atr")
	assert.True(t, math.IsNaN(atr[0]))
	assertClose(t, 2.5, atr[1])
	assertClose(t, 2.5, atr[2])
}

func TestBollingerBands(t *testing.T) {
	s := oscillating(60)
	f, err := BollingerBands(s, 20, 2.0)
	require.NoError(t, err)
	assert.Equal(t, []string{"bb_lower", "bb_mid", "bb_upper"}, f.Names())

	sma, err := SMA(s, 20)
	require.NoError(t, err)
	std, err := series.RollingStd(s.Close, 20)
	require.NoError(t, err)

	for i := 19; i < 60; i++ {
		assertClose(t, sma.Column("sma")[i], f.Column("bb_mid")[i])
		assertClose(t, 4*std[i], f.Column("bb_upper")[i]-f.Column("bb_lower")[i])
	}
}

func TestKeltner_PrecomputedATRMatchesOwn(t *testing.T) {
	s := oscillating(60)
	atr, err := ATR(s, 20)
	require.NoError(t, err)

	withDep, err := Keltner(s, 20, 1.5, atr.Column("atr"))
	require.NoError(t, err)
	standalone, err := Keltner(s, 20, 1.5, nil)
	require.NoError(t, err)

	for _, name := range []string{"kel_lower", "kel_mid", "kel_upper"} {
		a, b := withDep.Column(name), standalone.Column(name)
		require.Len(t, a, 60)
		for i := range a {
			assertClose(t, b[i], a[i], "%s index %d", name, i)
		}
	}

	_, err = Keltner(s, 20, 1.5, atr.Column("atr")[:10])
	require.Error(t, err)
	assert.True(t, errors.Is(err, ports.ErrInvalidParameter))
}

func TestDMI_ZeroATRGivesZero(t *testing.T) {
	s := seriesFromCloses([]float64{5, 5, 5, 5, 5, 5})
	copy(s.High, s.Close)
	copy(s.Low, s.Close)

	f, err := DMI(s, 3, nil)
	require.NoError(t, err)
	for i := 2; i < 6; i++ {
		assert.Equal(t, 0.0, f.Column("+di")[i])
		assert.Equal(t, 0.0, f.Column("-di")[i])
	}

	adx, err := ADX(s, 3, f)
	require.NoError(t, err)
	assert.Equal(t, 0.0, adx.Column("adx")[5])
}

func TestADX_DirectEqualsManualDerivation(t *testing.T) {
	s := oscillating(150)
	const w = 14

	direct, err := ADX(s, w, nil)
	require.NoError(t, err)

	atr, err := ATR(s, w)
	require.NoError(t, err)
	dmi, err := DMI(s, w, atr.Column("atr"))
	require.NoError(t, err)

	plus, minus := dmi.Column("+di"), dmi.Column("-di")
	dx := make([]float64, len(plus))
	for i := range dx {
		if math.IsNaN(plus[i]) || math.IsNaN(minus[i]) {
			dx[i] = math.NaN()
			continue
		}
		if plus[i]+minus[i] == 0 {
			dx[i] = 0
			continue
		}
		dx[i] = 100 * math.Abs(plus[i]-minus[i]) / (plus[i] + minus[i])
	}
	manual, err := series.RollingMean(dx, w)
	require.NoError(t, err)

	got := direct.Column("adx")
	assert.Equal(t, 2*w-2, leadingNaN(got))
	for i := range manual {
		assertClose(t, manual[i], got[i], "index %d", i)
	}
}

func TestIchimoku(t *testing.T) {
	s := oscillating(80)
	f, err := Ichimoku(s, 9, 26, 52)
	require.NoError(t, err)
	assert.Equal(t, []string{"conversion", "base", "span_a", "span_b", "lagging"}, f.Names())

	conv, base := f.Column("conversion"), f.Column("base")
	spanA, spanB, lagging := f.Column("span_a"), f.Column("span_b"), f.Column("lagging")

	assert.Equal(t, 8, leadingNaN(conv))
	assert.Equal(t, 25, leadingNaN(base))
	assert.Equal(t, 25+26, leadingNaN(spanA))
	assert.Equal(t, 51+26, leadingNaN(spanB))

	for i := 51; i < 80; i++ {
		assertClose(t, (conv[i-26]+base[i-26])/2, spanA[i], "index %d", i)
	}
	assertClose(t, s.Close[26], lagging[0])
	for i := 80 - 26; i < 80; i++ {
		assert.True(t, math.IsNaN(lagging[i]))
	}
}

func TestOBV_MatchesTALib(t *testing.T) {
	s := oscillating(50)
	f, err := OBV(s)
	require.NoError(t, err)
	obv := f.Column("obv")

	ref := talib.Obv(s.Close, s.Volume)
	assert.Equal(t, 0.0, obv[0])
	for i := range obv {
		assertClose(t, ref[i]-s.Volume[0], obv[i], "index %d", i)
	}
}

func TestMFI(t *testing.T) {
	f, err := MFI(increasing(30), 14)
	require.NoError(t, err)
	mfi := f.Column("mfi")
	assert.Equal(t, 14, leadingNaN(mfi))
	for i := 14; i < 30; i++ {
		assert.Equal(t, 100.0, mfi[i])
	}

	f, err = MFI(oscillating(60), 14)
	require.NoError(t, err)
	for i := 14; i < 60; i++ {
		v := f.Column("mfi")[i]
		assert.True(t, v >= 0 && v <= 100, "index %d: %f", i, v)
	}
}

func TestVWAP(t *testing.T) {
	s := seriesFromCloses([]float64{10, 20})
	f, err := VWAP(s)
	require.NoError(t, err)
	vwap := f.Column("vwap")
	assertClose(t, 10, vwap[0])
	assertClose(t, (10*s.Volume[0]+20*s.Volume[1])/(s.Volume[0]+s.Volume[1]), vwap[1])

	s.Volume[0] = 0
	f, err = VWAP(s)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(f.Column("vwap")[0]))
	assertClose(t, 20, f.Column("vwap")[1])
}

func TestVolumeProfile(t *testing.T) {
	t.Run("buckets by close", func(t *testing.T) {
		s := seriesFromCloses([]float64{1, 2, 3, 4})
		f, err := VolumeProfile(s, 3)
		require.NoError(t, err)
		assert.Nil(t, f.Index)
		assert.Equal(t, 3, f.Len())
		assert.Equal(t, []float64{1.5, 2.5, 3.5}, []float64(f.Column("price_bin")))
		assert.Equal(t, []float64{1000, 1100, 2500}, []float64(f.Column("volume_sum")))
	})

	t.Run("flat range is widened", func(t *testing.T) {
		s := seriesFromCloses([]float64{5, 5, 5})
		f, err := VolumeProfile(s, 2)
		require.NoError(t, err)
		assert.Equal(t, []float64{4.75, 5.25}, []float64(f.Column("price_bin")))
		assert.Equal(t, []float64{0, 3300}, []float64(f.Column("volume_sum")))
	})
}

func TestTimeAlignment(t *testing.T) {
	s := oscillating(100)
	frames := map[string]func() (*Frame, error){
		"sma":        func() (*Frame, error) { return SMA(s, 20) },
		"ema":        func() (*Frame, error) { return EMA(s, 20) },
		"rsi":        func() (*Frame, error) { return RSI(s, 14) },
		"macd":       func() (*Frame, error) { return MACD(s, 12, 26, 9) },
		"stochastic": func() (*Frame, error) { return Stochastic(s, 14, 3, 3) },
		"atr":        func() (*Frame, error) { return ATR(s, 14) },
		"bbands":     func() (*Frame, error) { return BollingerBands(s, 20, 2) },
		"keltner":    func() (*Frame, error) { return Keltner(s, 20, 1.5, nil) },
		"dmi":        func() (*Frame, error) { return DMI(s, 14, nil) },
		"adx":        func() (*Frame, error) { return ADX(s, 14, nil) },
		"ichimoku":   func() (*Frame, error) { return Ichimoku(s, 9, 26, 52) },
		"obv":        func() (*Frame, error) { return OBV(s) },
		"mfi":        func() (*Frame, error) { return MFI(s, 14) },
		"vwap":       func() (*Frame, error) { return VWAP(s) },
	}
	for name, compute := range frames {
		t.Run(name, func(t *testing.T) {
			f, err := compute()
			require.NoError(t, err)
			assert.Equal(t, s.Time, f.Index)
			for _, c := range f.Columns {
				assert.Len(t, c.Values, s.Len(), "column %s", c.Name)
			}
		})
	}
}

func TestErrors(t *testing.T) {
	s := oscillating(10)
	noVolume := s.WithoutVolume()

	tests := []struct {
		name    string
		compute func() (*Frame, error)
		want    error
	}{
		{"sma zero window", func() (*Frame, error) { return SMA(s, 0) }, ports.ErrInvalidParameter},
		{"bbands negative mult", func() (*Frame, error) { return BollingerBands(s, 5, -1) }, ports.ErrInvalidParameter},
		{"volume profile zero bins", func() (*Frame, error) { return VolumeProfile(s, 0) }, ports.ErrInvalidParameter},
		{"volume profile too many bins", func() (*Frame, error) { return VolumeProfile(s, MaxBins+1) }, ports.ErrInvalidParameter},
		{"sma too short", func() (*Frame, error) { return SMA(s, 20) }, ports.ErrInsufficientData},
		{"rsi needs window+1", func() (*Frame, error) { return RSI(s, 10) }, ports.ErrInsufficientData},
		{"adx needs 2w-1", func() (*Frame, error) { return ADX(s, 6, nil) }, ports.ErrInsufficientData},
		{"macd too short", func() (*Frame, error) { return MACD(s, 3, 8, 3) }, ports.ErrInsufficientData},
		{"obv without volume", func() (*Frame, error) { return OBV(noVolume) }, ports.ErrInsufficientData},
		{"mfi without volume", func() (*Frame, error) { return MFI(noVolume, 3) }, ports.ErrInsufficientData},
		{"vwap without volume", func() (*Frame, error) { return VWAP(noVolume) }, ports.ErrInsufficientData},
		{"nil series", func() (*Frame, error) { return ATR(nil, 3) }, ports.ErrInsufficientData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := tt.compute()
			require.Error(t, err)
			assert.Nil(t, f)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestInputNotMutated(t *testing.T) {
	s := oscillating(60)
	closes := append([]float64(nil), s.Close...)
	highs := append([]float64(nil), s.High...)

	_, _ = Ichimoku(s, 9, 26, 52)
	_, _ = ADX(s, 14, nil)
	_, _ = VolumeProfile(s, 10)

	assert.Equal(t, closes, s.Close)
	assert.Equal(t, highs, s.High)
}

func TestFrameIndexIsCopied(t *testing.T) {
	s := oscillating(30)
	first := s.Time[0]

	f, err := SMA(s, 5)
	require.NoError(t, err)
	s.Time[0] = time.Unix(0, 0).UTC()

	assert.Equal(t, first, f.Index[0])
	assert.Len(t, f.Index, s.Len())
}

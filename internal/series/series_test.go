package series

import (
	"errors"
	"math"
	"testing"

	"github.com/markcheno/go-talib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"indicatorEngine/internal/ports"
)

const tolerance = 1e-9

func assertClose(t *testing.T, want, got float64, msgAndArgs ...interface{}) {
	t.Helper()
	if math.IsNaN(want) {
		assert.True(t, math.IsNaN(got), msgAndArgs...)
		return
	}
	assert.InDelta(t, want, got, tolerance*math.Max(1, math.Abs(want)), msgAndArgs...)
}

func wave(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 100 + 0.3*float64(i) + 5*math.Sin(float64(i)/3)
	}
	return out
}

func countLeadingNaN(x []float64) int {
	n := 0
	for _, v := range x {
		if !math.IsNaN(v) {
			break
		}
		n++
	}
	return n
}

func TestRollingMean(t *testing.T) {
	tests := []struct {
		name     string
		input    []float64
		window   int
		expected []float64
	}{
		{
			name:     "window of three",
			input:    []float64{1, 2, 3, 4, 5},
			window:   3,
			expected: []float64{NaN, NaN, 2, 3, 4},
		},
		{
			name:     "window of one is identity",
			input:    []float64{4, 5, 6},
			window:   1,
			expected: []float64{4, 5, 6},
		},
		{
			name:     "data shorter than window",
			input:    []float64{1, 2},
			window:   5,
			expected: []float64{NaN, NaN},
		},
		{
			name:     "NaN only undefines windows containing it",
			input:    []float64{1, NaN, 3, 4, 5, 6},
			window:   2,
			expected: []float64{NaN, NaN, NaN, 3.5, 4.5, 5.5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RollingMean(tt.input, tt.window)
			require.NoError(t, err)
			require.Len(t, got, len(tt.expected))
			for i := range tt.expected {
				assertClose(t, tt.expected[i], got[i], "index %d", i)
			}
		})
	}
}

func TestRollingStd_Sample(t *testing.T) {
	got, err := RollingStd([]float64{2, 4, 4, 4, 5, 5, 7, 9}, 8)
	require.NoError(t, err)
	// population std of this set is 2; sample std is sqrt(32/7)
	assertClose(t, math.Sqrt(32.0/7.0), got[7])
	assert.Equal(t, 7, countLeadingNaN(got))

	single, err := RollingStd([]float64{1, 2, 3}, 1)
	require.NoError(t, err)
	for _, v := range single {
		assert.True(t, math.IsNaN(v))
	}
}

func TestRollingMinMax(t *testing.T) {
	x := []float64{3, 1, 4, 1, 5, 9, 2, 6}
	mins, err := RollingMin(x, 3)
	require.NoError(t, err)
	maxs, err := RollingMax(x, 3)
	require.NoError(t, err)

	wantMin := []float64{NaN, NaN, 1, 1, 1, 1, 2, 2}
	wantMax := []float64{NaN, NaN, 4, 4, 5, 9, 9, 9}
	for i := range x {
		assertClose(t, wantMin[i], mins[i], "min index %d", i)
		assertClose(t, wantMax[i], maxs[i], "max index %d", i)
	}
}

func TestEWMMean(t *testing.T) {
	got, err := EWMMean([]float64{NaN, 10, 20, NaN, 30}, 3)
	require.NoError(t, err)
	// alpha = 0.5
	assert.True(t, math.IsNaN(got[0]))
	assertClose(t, 10, got[1])
	assertClose(t, 15, got[2])
	assertClose(t, 15, got[3])
	assertClose(t, 22.5, got[4])
}

func TestCumSumShiftDiff(t *testing.T) {
	assert.Equal(t, []float64{1, 3, 3, 7}, CumSum([]float64{1, 2, NaN, 4}))

	shifted := Shift([]float64{1, 2, 3, 4}, 2)
	assert.True(t, math.IsNaN(shifted[0]))
	assert.True(t, math.IsNaN(shifted[1]))
	assert.Equal(t, []float64{1, 2}, shifted[2:])

	lead := Shift([]float64{1, 2, 3, 4}, -1)
	assert.Equal(t, []float64{2, 3, 4}, lead[:3])
	assert.True(t, math.IsNaN(lead[3]))

	d := Diff([]float64{5, 7, 4})
	assert.True(t, math.IsNaN(d[0]))
	assert.Equal(t, []float64{2, -3}, d[1:])
}

func TestInvalidWindow(t *testing.T) {
	x := wave(10)
	calls := map[string]func() error{
		"mean zero":      func() error { _, err := RollingMean(x, 0); return err },
		"std negative":   func() error { _, err := RollingStd(x, -2); return err },
		"min zero":       func() error { _, err := RollingMin(x, 0); return err },
		"max zero":       func() error { _, err := RollingMax(x, 0); return err },
		"sum zero":       func() error { _, err := RollingSum(x, 0); return err },
		"ewm zero":       func() error { _, err := EWMMean(x, 0); return err },
		"mean too large": func() error { _, err := RollingMean(x, MaxWindow+1); return err },
	}
	for name, call := range calls {
		t.Run(name, func(t *testing.T) {
			err := call()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ports.ErrInvalidParameter))
		})
	}
}

func TestInputNotMutated(t *testing.T) {
	x := wave(30)
	orig := append([]float64(nil), x...)
	_, _ = RollingMean(x, 5)
	_, _ = RollingStd(x, 5)
	_, _ = EWMMean(x, 5)
	_ = CumSum(x)
	_ = Shift(x, 3)
	assert.Equal(t, orig, x)
}

// TestAgainstTALib cross-checks the defined region of each rolling transform
// against the TA-Lib port.
func TestAgainstTALib(t *testing.T) {
	x := wave(120)
	const w = 14

	tests := []struct {
		name string
		ours func() ([]float64, error)
		ref  []float64
	}{
		{"mean vs Sma", func() ([]float64, error) { return RollingMean(x, w) }, talib.Sma(x, w)},
		{"max vs Max", func() ([]float64, error) { return RollingMax(x, w) }, talib.Max(x, w)},
		{"min vs Min", func() ([]float64, error) { return RollingMin(x, w) }, talib.Min(x, w)},
		{"sum vs Sum", func() ([]float64, error) { return RollingSum(x, w) }, talib.Sum(x, w)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.ours()
			require.NoError(t, err)
			require.Len(t, got, len(x))
			assert.Equal(t, w-1, countLeadingNaN(got))
			for i := w - 1; i < len(x); i++ {
				assertClose(t, tt.ref[i], got[i], "index %d", i)
			}
		})
	}
}

// TA-Lib reports population deviation; rescale it to the sample form.
func TestRollingStd_AgainstTALib(t *testing.T) {
	x := wave(120)
	const w = 20

	got, err := RollingStd(x, w)
	require.NoError(t, err)
	ref := talib.StdDev(x, w, 1.0)
	scale := math.Sqrt(float64(w) / float64(w-1))
	for i := w - 1; i < len(x); i++ {
		assert.InDelta(t, ref[i]*scale, got[i], 1e-6, "index %d", i)
	}
}

// Package series provides the rolling and cumulative transforms that the
// indicator library is built from. Every function returns a new slice of the
// same length as its input, padding undefined positions with NaN, and never
// modifies its arguments.
package series

import (
	"fmt"
	"math"

	"indicatorEngine/internal/ports"
)

// MaxWindow bounds window and span arguments.
const MaxWindow = 1 << 24

// NaN is a shorthand for an undefined value.
var NaN = math.NaN()

func checkWindow(name string, w int) error {
	if w <= 0 {
		return fmt.Errorf("%w: %s must be positive, got %d", ports.ErrInvalidParameter, name, w)
	}
	if w > MaxWindow {
		return fmt.Errorf("%w: %s %d exceeds maximum %d", ports.ErrInvalidParameter, name, w, MaxWindow)
	}
	return nil
}

// Filled returns a slice of length n holding v at every position.
func Filled(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// rolling applies agg to every complete window of x that holds no NaN.
func rolling(x []float64, w int, agg func(win []float64) float64) []float64 {
	out := Filled(len(x), NaN)
	if w > len(x) {
		return out
	}
	// nanCount tracks NaNs inside the current window so clean windows are
	// recognised without rescanning.
	nanCount := 0
	for i, v := range x {
		if math.IsNaN(v) {
			nanCount++
		}
		if i >= w && math.IsNaN(x[i-w]) {
			nanCount--
		}
		if i < w-1 || nanCount > 0 {
			continue
		}
		out[i] = agg(x[i-w+1 : i+1])
	}
	return out
}

// RollingSum returns the sum over each trailing window of w values.
func RollingSum(x []float64, w int) ([]float64, error) {
	if err := checkWindow("window", w); err != nil {
		return nil, err
	}
	return rolling(x, w, sum), nil
}

// RollingMean returns the arithmetic mean over each trailing window of w values.
func RollingMean(x []float64, w int) ([]float64, error) {
	if err := checkWindow("window", w); err != nil {
		return nil, err
	}
	return rolling(x, w, func(win []float64) float64 {
		return sum(win) / float64(len(win))
	}), nil
}

// RollingStd returns the sample standard deviation (n-1 denominator) over
// each trailing window. A window of 1 has no sample deviation and yields NaN.
func RollingStd(x []float64, w int) ([]float64, error) {
	if err := checkWindow("window", w); err != nil {
		return nil, err
	}
	if w == 1 {
		return Filled(len(x), NaN), nil
	}
	return rolling(x, w, func(win []float64) float64 {
		mean := sum(win) / float64(len(win))
		var sq float64
		for _, v := range win {
			d := v - mean
			sq += d * d
		}
		return math.Sqrt(sq / float64(len(win)-1))
	}), nil
}

// RollingMin returns the minimum over each trailing window.
func RollingMin(x []float64, w int) ([]float64, error) {
	if err := checkWindow("window", w); err != nil {
		return nil, err
	}
	return rolling(x, w, func(win []float64) float64 {
		m := win[0]
		for _, v := range win[1:] {
			if v < m {
				m = v
			}
		}
		return m
	}), nil
}

// RollingMax returns the maximum over each trailing window.
func RollingMax(x []float64, w int) ([]float64, error) {
	if err := checkWindow("window", w); err != nil {
		return nil, err
	}
	return rolling(x, w, func(win []float64) float64 {
		m := win[0]
		for _, v := range win[1:] {
			if v > m {
				m = v
			}
		}
		return m
	}), nil
}

// EWMMean returns the exponentially weighted mean with alpha = 2/(span+1).
// Leading NaNs stay NaN; the first defined input seeds the average. A NaN
// after the seed repeats the previous output.
func EWMMean(x []float64, span int) ([]float64, error) {
	if err := checkWindow("span", span); err != nil {
		return nil, err
	}
	alpha := 2.0 / (float64(span) + 1.0)
	out := Filled(len(x), NaN)
	prev := NaN
	for i, v := range x {
		switch {
		case math.IsNaN(v):
			out[i] = prev
		case math.IsNaN(prev):
			prev = v
			out[i] = v
		default:
			prev = alpha*v + (1-alpha)*prev
			out[i] = prev
		}
	}
	return out, nil
}

// CumSum returns the running total of x. NaN inputs contribute nothing.
func CumSum(x []float64) []float64 {
	out := make([]float64, len(x))
	var total float64
	for i, v := range x {
		if !math.IsNaN(v) {
			total += v
		}
		out[i] = total
	}
	return out
}

// Shift moves values k positions later (k > 0) or earlier (k < 0).
// Positions with no source value are NaN; values moved past either end are dropped.
func Shift(x []float64, k int) []float64 {
	out := Filled(len(x), NaN)
	for i := range x {
		j := i - k
		if j >= 0 && j < len(x) {
			out[i] = x[j]
		}
	}
	return out
}

// Diff returns x[i] - x[i-1], with NaN at index 0.
func Diff(x []float64) []float64 {
	out := Filled(len(x), NaN)
	for i := 1; i < len(x); i++ {
		out[i] = x[i] - x[i-1]
	}
	return out
}

func sum(win []float64) float64 {
	var s float64
	for _, v := range win {
		s += v
	}
	return s
}

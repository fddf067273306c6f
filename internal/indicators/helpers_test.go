package indicators

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"indicatorEngine/internal/domain"
)

const tolerance = 1e-9

var baseTime = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// seriesFromCloses builds a series whose high/low straddle close by 1.
func seriesFromCloses(closes []float64) *domain.Series {
	n := len(closes)
	s := &domain.Series{
		Symbol:   "TEST",
		Interval: "1d",
		Time:     make([]time.Time, n),
		Open:     make([]float64, n),
		High:     make([]float64, n),
		Low:      make([]float64, n),
		Close:    append([]float64(nil), closes...),
		Volume:   make([]float64, n),
	}
	for i, c := range closes {
		s.Time[i] = baseTime.Add(time.Duration(i) * 24 * time.Hour)
		s.Open[i] = c
		s.High[i] = c + 1
		s.Low[i] = c - 1
		s.Volume[i] = 1000 + float64(i%7)*100
	}
	return s
}

// oscillating builds an n-bar series with a gentle uptrend and cyclic swings.
func oscillating(n int) *domain.Series {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = 100 + 0.2*float64(i) + 6*math.Sin(float64(i)/4)
	}
	s := seriesFromCloses(closes)
	for i := range closes {
		s.High[i] = closes[i] + 1 + math.Abs(math.Cos(float64(i)))
		s.Low[i] = closes[i] - 1 - math.Abs(math.Sin(float64(i)/2))
	}
	return s
}

func increasing(n int) *domain.Series {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	return seriesFromCloses(closes)
}

func assertClose(t *testing.T, want, got float64, msgAndArgs ...interface{}) {
	t.Helper()
	if math.IsNaN(want) {
		assert.True(t, math.IsNaN(got), msgAndArgs...)
		return
	}
	assert.InDelta(t, want, got, tolerance*math.Max(1, math.Abs(want)), msgAndArgs...)
}

func leadingNaN(c []float64) int {
	n := 0
	for _, v := range c {
		if !math.IsNaN(v) {
			break
		}
		n++
	}
	return n
}

func mean(x []float64) float64 {
	var s float64
	for _, v := range x {
		s += v
	}
	return s / float64(len(x))
}

package domain

import (
	"errors"
	"fmt"
	"time"
)

// ErrUnorderedSeries is returned when timestamps are not strictly increasing.
var ErrUnorderedSeries = errors.New("series timestamps must be strictly increasing")

// Series is a column-oriented OHLCV price history.
// All columns share the same length. Volume is nil when the instrument
// reports no traded volume.
type Series struct {
	Symbol   string
	Interval string
	Time     []time.Time
	Open     []float64
	High     []float64
	Low      []float64
	Close    []float64
	Volume   []float64
}

// NewSeries builds a Series from klines ordered by OpenTime.
// The volume column is always populated; use WithoutVolume to drop it.
func NewSeries(klines []*Kline) (*Series, error) {
	n := len(klines)
	s := &Series{
		Time:   make([]time.Time, n),
		Open:   make([]float64, n),
		High:   make([]float64, n),
		Low:    make([]float64, n),
		Close:  make([]float64, n),
		Volume: make([]float64, n),
	}
	for i, k := range klines {
		if k == nil {
			return nil, fmt.Errorf("kline at index %d is nil", i)
		}
		if i > 0 && !k.OpenTime.After(klines[i-1].OpenTime) {
			return nil, fmt.Errorf("%w: index %d (%s) does not follow %s", ErrUnorderedSeries,
				i, k.OpenTime.Format(time.RFC3339), klines[i-1].OpenTime.Format(time.RFC3339))
		}
		s.Time[i] = k.OpenTime
		s.Open[i] = k.Open
		s.High[i] = k.High
		s.Low[i] = k.Low
		s.Close[i] = k.Close
		s.Volume[i] = k.Volume
	}
	if n > 0 {
		s.Symbol = klines[0].Symbol
		s.Interval = klines[0].Interval
	}
	return s, nil
}

// Len returns the number of rows. A nil Series has length 0.
func (s *Series) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Close)
}

// HasVolume reports whether the volume column is present.
func (s *Series) HasVolume() bool {
	return s != nil && s.Volume != nil
}

// WithoutVolume returns a shallow copy of s with the volume column removed.
func (s *Series) WithoutVolume() *Series {
	c := *s
	c.Volume = nil
	return &c
}

// Klines converts the series back into rows.
func (s *Series) Klines() []*Kline {
	out := make([]*Kline, s.Len())
	for i := range out {
		k := &Kline{
			OpenTime: s.Time[i],
			Symbol:   s.Symbol,
			Interval: s.Interval,
			Open:     s.Open[i],
			High:     s.High[i],
			Low:      s.Low[i],
			Close:    s.Close[i],
			IsFinal:  true,
		}
		if s.Volume != nil {
			k.Volume = s.Volume[i]
		}
		out[i] = k
	}
	return out
}

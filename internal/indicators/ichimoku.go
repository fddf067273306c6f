package indicators

import (
	"math"

	"indicatorEngine/internal/domain"
	"indicatorEngine/internal/series"
)

// Ichimoku computes the Ichimoku cloud on the series' own index. The leading
// spans are shifted base bars forward and the lagging span base bars back;
// values shifted past either end of the index are dropped.
// Columns: conversion, base, span_a, span_b, lagging.
func Ichimoku(s *domain.Series, conversion, base, spanB int) (*Frame, error) {
	if err := positive(KindIchimoku, "conversion", conversion); err != nil {
		return nil, err
	}
	if err := positive(KindIchimoku, "base", base); err != nil {
		return nil, err
	}
	if err := positive(KindIchimoku, "span_b", spanB); err != nil {
		return nil, err
	}
	if err := checkInput(s, KindIchimoku, IchimokuParams{Conversion: conversion, Base: base, SpanB: spanB}); err != nil {
		return nil, err
	}

	conv, err := midpoint(s, conversion)
	if err != nil {
		return nil, err
	}
	baseLine, err := midpoint(s, base)
	if err != nil {
		return nil, err
	}
	spanBRaw, err := midpoint(s, spanB)
	if err != nil {
		return nil, err
	}
	spanARaw := series.Filled(s.Len(), math.NaN())
	for i := range spanARaw {
		spanARaw[i] = (conv[i] + baseLine[i]) / 2
	}

	return newFrame(KindIchimoku, s.Time).
		add("conversion", conv).
		add("base", baseLine).
		add("span_a", series.Shift(spanARaw, base)).
		add("span_b", series.Shift(spanBRaw, base)).
		add("lagging", series.Shift(s.Close, -base)), nil
}

// midpoint returns (highest high + lowest low) / 2 over window bars.
func midpoint(s *domain.Series, window int) ([]float64, error) {
	hh, err := series.RollingMax(s.High, window)
	if err != nil {
		return nil, err
	}
	ll, err := series.RollingMin(s.Low, window)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(hh))
	for i := range out {
		out[i] = (hh[i] + ll[i]) / 2
	}
	return out, nil
}

// Package indicators implements the technical indicator library. Every
// indicator is a pure function from a price series to a Frame of named
// columns aligned to the series' time index.
package indicators

import (
	"fmt"
	"strings"

	"indicatorEngine/internal/domain"
	"indicatorEngine/internal/ports"
)

// Kind identifies an indicator family. The set is closed.
type Kind int

// Families in display order: trend, momentum, volatility, volume/flow.
const (
	KindSMA Kind = iota
	KindEMA
	KindIchimoku
	KindADX
	KindDMI
	KindRSI
	KindMACD
	KindStochastic
	KindATR
	KindBBands
	KindKeltner
	KindOBV
	KindMFI
	KindVWAP
	KindVolumeProfile
)

// NumKinds is the number of indicator families.
const NumKinds = int(KindVolumeProfile) + 1

var kindNames = [NumKinds]string{
	KindSMA:           "sma",
	KindEMA:           "ema",
	KindIchimoku:      "ichimoku",
	KindADX:           "adx",
	KindDMI:           "dmi",
	KindRSI:           "rsi",
	KindMACD:          "macd",
	KindStochastic:    "stochastic",
	KindATR:           "atr",
	KindBBands:        "bbands",
	KindKeltner:       "keltner",
	KindOBV:           "obv",
	KindMFI:           "mfi",
	KindVWAP:          "vwap",
	KindVolumeProfile: "volume_profile",
}

// String returns the family name used as the output key.
func (k Kind) String() string {
	if k < 0 || int(k) >= NumKinds {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindNames[k]
}

// Valid reports whether k is one of the declared families.
func (k Kind) Valid() bool {
	return k >= 0 && int(k) < NumKinds
}

// Kinds returns every family in declaration order.
func Kinds() []Kind {
	out := make([]Kind, NumKinds)
	for i := range out {
		out[i] = Kind(i)
	}
	return out
}

// ParseKind resolves a family name (case-insensitive).
func ParseKind(name string) (Kind, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range kindNames {
		if n == name {
			return Kind(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown indicator %q", ports.ErrInvalidParameter, name)
}

// RequiresVolume reports whether the family reads the volume column.
func (k Kind) RequiresVolume() bool {
	switch k {
	case KindOBV, KindMFI, KindVWAP, KindVolumeProfile:
		return true
	}
	return false
}

// Dependencies returns the families whose outputs k consumes.
func (k Kind) Dependencies() []Kind {
	switch k {
	case KindDMI, KindKeltner:
		return []Kind{KindATR}
	case KindADX:
		return []Kind{KindDMI}
	}
	return nil
}

// Params is the parameter set of one indicator invocation. The variants
// below are the only implementations.
type Params interface {
	isParams()
}

// PeriodsParams lists the periods of a multi-period family (SMA, EMA).
type PeriodsParams struct{ Periods []int }

// WindowParams is a single look-back window.
type WindowParams struct{ Window int }

// MACDParams holds the fast, slow and signal spans.
type MACDParams struct{ Fast, Slow, Signal int }

// StochasticParams holds the %K window, %D smoothing and %K smoothing.
type StochasticParams struct{ K, D, SmoothK int }

// BandParams holds a window length and band-width multiplier.
type BandParams struct {
	Length int
	Mult   float64
}

// IchimokuParams holds the conversion, base and leading span B windows.
type IchimokuParams struct{ Conversion, Base, SpanB int }

// BinsParams holds the number of volume profile buckets.
type BinsParams struct{ Bins int }

// NoParams is used by families without parameters.
type NoParams struct{}

func (PeriodsParams) isParams()    {}
func (WindowParams) isParams()     {}
func (MACDParams) isParams()       {}
func (StochasticParams) isParams() {}
func (BandParams) isParams()       {}
func (IchimokuParams) isParams()   {}
func (BinsParams) isParams()       {}
func (NoParams) isParams()         {}

func (p PeriodsParams) String() string {
	parts := make([]string, len(p.Periods))
	for i, v := range p.Periods {
		parts[i] = fmt.Sprint(v)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

func (p WindowParams) String() string     { return fmt.Sprintf("(%d)", p.Window) }
func (p MACDParams) String() string       { return fmt.Sprintf("(%d,%d,%d)", p.Fast, p.Slow, p.Signal) }
func (p StochasticParams) String() string { return fmt.Sprintf("(%d,%d,%d)", p.K, p.D, p.SmoothK) }
func (p BandParams) String() string       { return fmt.Sprintf("(%d,%g)", p.Length, p.Mult) }
func (p IchimokuParams) String() string {
	return fmt.Sprintf("(%d,%d,%d)", p.Conversion, p.Base, p.SpanB)
}
func (p BinsParams) String() string { return fmt.Sprintf("(%d)", p.Bins) }
func (NoParams) String() string     { return "()" }

// MinLength returns the minimum series length for which the family produces
// at least one defined value with the given parameters. SMA and EMA take
// WindowParams, one period at a time.
func MinLength(k Kind, p Params) (int, error) {
	bad := func() (int, error) {
		return 0, fmt.Errorf("%w: %s cannot take parameters %T", ports.ErrInvalidParameter, k, p)
	}
	switch k {
	case KindSMA, KindEMA, KindATR, KindDMI:
		wp, ok := p.(WindowParams)
		if !ok {
			return bad()
		}
		return wp.Window, nil
	case KindRSI, KindMFI:
		wp, ok := p.(WindowParams)
		if !ok {
			return bad()
		}
		return wp.Window + 1, nil
	case KindADX:
		wp, ok := p.(WindowParams)
		if !ok {
			return bad()
		}
		return 2*wp.Window - 1, nil
	case KindMACD:
		mp, ok := p.(MACDParams)
		if !ok {
			return bad()
		}
		return mp.Slow + mp.Signal, nil
	case KindStochastic:
		sp, ok := p.(StochasticParams)
		if !ok {
			return bad()
		}
		return sp.K + sp.SmoothK + sp.D - 2, nil
	case KindBBands, KindKeltner:
		bp, ok := p.(BandParams)
		if !ok {
			return bad()
		}
		return bp.Length, nil
	case KindIchimoku:
		ip, ok := p.(IchimokuParams)
		if !ok {
			return bad()
		}
		return max(ip.Conversion, ip.Base, ip.SpanB), nil
	case KindOBV:
		return 2, nil
	case KindVWAP, KindVolumeProfile:
		return 1, nil
	}
	return 0, fmt.Errorf("%w: unknown indicator kind %d", ports.ErrInvalidParameter, int(k))
}

// checkInput checks the common preconditions shared by every family.
func checkInput(s *domain.Series, k Kind, p Params) error {
	if s == nil {
		return fmt.Errorf("%w: %s: nil series", ports.ErrInsufficientData, k)
	}
	if k.RequiresVolume() && !s.HasVolume() {
		return fmt.Errorf("%w: %s requires a volume column", ports.ErrInsufficientData, k)
	}
	need, err := MinLength(k, p)
	if err != nil {
		return err
	}
	if s.Len() < need {
		return fmt.Errorf("%w: %s%v needs %d rows, got %d", ports.ErrInsufficientData, k, p, need, s.Len())
	}
	return nil
}

func positive(k Kind, name string, v int) error {
	if v <= 0 {
		return fmt.Errorf("%w: %s %s must be positive, got %d", ports.ErrInvalidParameter, k, name, v)
	}
	return nil
}

func positiveFloat(k Kind, name string, v float64) error {
	if !(v > 0) {
		return fmt.Errorf("%w: %s %s must be positive, got %g", ports.ErrInvalidParameter, k, name, v)
	}
	return nil
}

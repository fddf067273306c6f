// Package indicatorconfig holds the declarative indicator configuration:
// which families are active and with which parameters.
//
// A Config is treated as an immutable value. Edits go through With, which
// returns a deep copy, so a Config handed to the engine is never changed
// underneath it.
package indicatorconfig

import (
	"encoding/json"
	"fmt"

	"github.com/cespare/xxhash/v2"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"

	"indicatorEngine/internal/indicators"
	"indicatorEngine/internal/ports"
)

// Config selects indicator families and their parameters. SMA and EMA are
// active when their period lists are non-empty; every other family has a
// toggle plus parameters that are kept even while the family is inactive.
type Config struct {
	// Trend
	SMA                []int `yaml:"sma,omitempty" json:"sma,omitempty" validate:"omitempty,dive,gt=0,lte=16777216"`
	EMA                []int `yaml:"ema,omitempty" json:"ema,omitempty" validate:"omitempty,dive,gt=0,lte=16777216"`
	Ichimoku           bool  `yaml:"ichimoku" json:"ichimoku"`
	IchimokuConversion int   `yaml:"ichimoku_conversion" json:"ichimoku_conversion" default:"9" validate:"gte=1"`
	IchimokuBase       int   `yaml:"ichimoku_base" json:"ichimoku_base" default:"26" validate:"gte=1"`
	IchimokuSpanB      int   `yaml:"ichimoku_span_b" json:"ichimoku_span_b" default:"52" validate:"gte=1"`
	ADX                bool  `yaml:"adx" json:"adx"`
	ADXLength          int   `yaml:"adx_length" json:"adx_length" default:"14" validate:"gte=1"`
	DMI                bool  `yaml:"dmi" json:"dmi"`
	DMILength          int   `yaml:"dmi_length" json:"dmi_length" default:"14" validate:"gte=1"`

	// Momentum
	RSI          bool `yaml:"rsi" json:"rsi"`
	RSILength    int  `yaml:"rsi_length" json:"rsi_length" default:"14" validate:"gte=1"`
	MACD         bool `yaml:"macd" json:"macd"`
	MACDFast     int  `yaml:"macd_fast" json:"macd_fast" default:"12" validate:"gte=1"`
	MACDSlow     int  `yaml:"macd_slow" json:"macd_slow" default:"26" validate:"gte=1"`
	MACDSignal   int  `yaml:"macd_signal" json:"macd_signal" default:"9" validate:"gte=1"`
	Stochastic   bool `yaml:"stochastic" json:"stochastic"`
	StochK       int  `yaml:"stoch_k" json:"stoch_k" default:"14" validate:"gte=1"`
	StochD       int  `yaml:"stoch_d" json:"stoch_d" default:"3" validate:"gte=1"`
	StochSmoothK int  `yaml:"stoch_smooth_k" json:"stoch_smooth_k" default:"3" validate:"gte=1"`

	// Volatility
	ATR       bool    `yaml:"atr" json:"atr"`
	ATRLength int     `yaml:"atr_length" json:"atr_length" default:"14" validate:"gte=1"`
	BBands    bool    `yaml:"bbands" json:"bbands"`
	BBLength  int     `yaml:"bb_length" json:"bb_length" default:"20" validate:"gte=1"`
	BBStd     float64 `yaml:"bb_std" json:"bb_std" default:"2.0" validate:"gt=0"`
	Keltner   bool    `yaml:"keltner" json:"keltner"`
	KelLength int     `yaml:"kel_length" json:"kel_length" default:"20" validate:"gte=1"`
	KelMult   float64 `yaml:"kel_mult" json:"kel_mult" default:"1.5" validate:"gt=0"`

	// Volume / flow
	OBV               bool `yaml:"obv" json:"obv"`
	MFI               bool `yaml:"mfi" json:"mfi"`
	MFILength         int  `yaml:"mfi_length" json:"mfi_length" default:"14" validate:"gte=1"`
	VWAP              bool `yaml:"vwap" json:"vwap"`
	VolumeProfile     bool `yaml:"volume_profile" json:"volume_profile"`
	VolumeProfileBins int  `yaml:"volume_profile_bins" json:"volume_profile_bins" default:"50" validate:"gte=1,lte=10000"`
}

var validate = validator.New()

// Default returns a configuration with every family inactive and every
// parameter at its default.
func Default() Config {
	var c Config
	if err := defaults.Set(&c); err != nil {
		// only reachable with a malformed default tag
		panic(fmt.Sprintf("indicatorconfig: bad default tags: %v", err))
	}
	return c
}

// Clone returns a deep copy.
func (c Config) Clone() Config {
	out := c
	out.SMA = append([]int(nil), c.SMA...)
	out.EMA = append([]int(nil), c.EMA...)
	if len(out.SMA) == 0 {
		out.SMA = nil
	}
	if len(out.EMA) == 0 {
		out.EMA = nil
	}
	return out
}

// Validate checks parameter invariants and wraps violations with
// ports.ErrInvalidParameter.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ports.ErrInvalidParameter, err)
	}
	return nil
}

// Active is one enabled family with its resolved parameters.
type Active struct {
	Kind   indicators.Kind
	Params indicators.Params
}

// Key returns the family name.
func (a Active) Key() string { return a.Kind.String() }

// ActiveIndicators lists the enabled families in kind order.
func (c Config) ActiveIndicators() []Active {
	var out []Active
	for _, k := range indicators.Kinds() {
		if p, ok := c.params(k); ok {
			out = append(out, Active{Kind: k, Params: p})
		}
	}
	return out
}

// Enabled reports whether the family is active.
func (c Config) Enabled(k indicators.Kind) bool {
	_, ok := c.params(k)
	return ok
}

// Keys returns the names of the enabled families in kind order.
func (c Config) Keys() []string {
	active := c.ActiveIndicators()
	keys := make([]string, len(active))
	for i, a := range active {
		keys[i] = a.Key()
	}
	return keys
}

func (c Config) params(k indicators.Kind) (indicators.Params, bool) {
	switch k {
	case indicators.KindSMA:
		return indicators.PeriodsParams{Periods: append([]int(nil), c.SMA...)}, len(c.SMA) > 0
	case indicators.KindEMA:
		return indicators.PeriodsParams{Periods: append([]int(nil), c.EMA...)}, len(c.EMA) > 0
	case indicators.KindIchimoku:
		return indicators.IchimokuParams{Conversion: c.IchimokuConversion, Base: c.IchimokuBase, SpanB: c.IchimokuSpanB}, c.Ichimoku
	case indicators.KindADX:
		return indicators.WindowParams{Window: c.ADXLength}, c.ADX
	case indicators.KindDMI:
		return indicators.WindowParams{Window: c.DMILength}, c.DMI
	case indicators.KindRSI:
		return indicators.WindowParams{Window: c.RSILength}, c.RSI
	case indicators.KindMACD:
		return indicators.MACDParams{Fast: c.MACDFast, Slow: c.MACDSlow, Signal: c.MACDSignal}, c.MACD
	case indicators.KindStochastic:
		return indicators.StochasticParams{K: c.StochK, D: c.StochD, SmoothK: c.StochSmoothK}, c.Stochastic
	case indicators.KindATR:
		return indicators.WindowParams{Window: c.ATRLength}, c.ATR
	case indicators.KindBBands:
		return indicators.BandParams{Length: c.BBLength, Mult: c.BBStd}, c.BBands
	case indicators.KindKeltner:
		return indicators.BandParams{Length: c.KelLength, Mult: c.KelMult}, c.Keltner
	case indicators.KindOBV:
		return indicators.NoParams{}, c.OBV
	case indicators.KindMFI:
		return indicators.WindowParams{Window: c.MFILength}, c.MFI
	case indicators.KindVWAP:
		return indicators.NoParams{}, c.VWAP
	case indicators.KindVolumeProfile:
		return indicators.BinsParams{Bins: c.VolumeProfileBins}, c.VolumeProfile
	}
	return nil, false
}

// CacheKey returns a stable digest of the whole configuration, suitable for
// keying cached results. Equal configurations always share a key.
func (c Config) CacheKey() string {
	data, err := json.Marshal(c.Clone())
	if err != nil {
		// NaN multipliers cannot be encoded as JSON
		data = []byte(fmt.Sprintf("%#v", c))
	}
	return fmt.Sprintf("%016x", xxhash.Sum64(data))
}

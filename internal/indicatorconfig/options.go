package indicatorconfig

import "indicatorEngine/internal/indicators"

// Option edits a configuration copy inside With.
type Option func(*Config)

// With returns a copy of c with opts applied. c itself is unchanged.
func (c Config) With(opts ...Option) Config {
	out := c.Clone()
	for _, opt := range opts {
		opt(&out)
	}
	return out
}

// WithSMA sets the SMA periods. No periods disables SMA.
func WithSMA(periods ...int) Option {
	return func(c *Config) { c.SMA = copyPeriods(periods) }
}

// WithEMA sets the EMA periods. No periods disables EMA.
func WithEMA(periods ...int) Option {
	return func(c *Config) { c.EMA = copyPeriods(periods) }
}

// WithIchimoku enables Ichimoku with the given conversion, base and span B windows.
func WithIchimoku(conversion, base, spanB int) Option {
	return func(c *Config) {
		c.Ichimoku = true
		c.IchimokuConversion, c.IchimokuBase, c.IchimokuSpanB = conversion, base, spanB
	}
}

// WithADX enables ADX over length bars.
func WithADX(length int) Option {
	return func(c *Config) { c.ADX, c.ADXLength = true, length }
}

// WithDMI enables the directional movement index over length bars.
func WithDMI(length int) Option {
	return func(c *Config) { c.DMI, c.DMILength = true, length }
}

// WithRSI enables RSI over length bars.
func WithRSI(length int) Option {
	return func(c *Config) { c.RSI, c.RSILength = true, length }
}

// WithMACD enables MACD with the given fast, slow and signal spans.
func WithMACD(fast, slow, signal int) Option {
	return func(c *Config) {
		c.MACD = true
		c.MACDFast, c.MACDSlow, c.MACDSignal = fast, slow, signal
	}
}

// WithStochastic enables the stochastic oscillator with %K window k, %D
// window d and %K smoothing smoothK.
func WithStochastic(k, d, smoothK int) Option {
	return func(c *Config) {
		c.Stochastic = true
		c.StochK, c.StochD, c.StochSmoothK = k, d, smoothK
	}
}

// WithATR enables ATR over length bars.
func WithATR(length int) Option {
	return func(c *Config) { c.ATR, c.ATRLength = true, length }
}

// WithBBands enables Bollinger Bands of length bars at std deviations.
func WithBBands(length int, std float64) Option {
	return func(c *Config) { c.BBands, c.BBLength, c.BBStd = true, length, std }
}

// WithKeltner enables Keltner Channels of length bars at mult ATRs.
func WithKeltner(length int, mult float64) Option {
	return func(c *Config) { c.Keltner, c.KelLength, c.KelMult = true, length, mult }
}

// WithOBV enables On-Balance Volume.
func WithOBV() Option {
	return func(c *Config) { c.OBV = true }
}

// WithMFI enables the Money Flow Index over length bars.
func WithMFI(length int) Option {
	return func(c *Config) { c.MFI, c.MFILength = true, length }
}

// WithVWAP enables the cumulative VWAP.
func WithVWAP() Option {
	return func(c *Config) { c.VWAP = true }
}

// WithVolumeProfile enables the volume profile with bins buckets.
func WithVolumeProfile(bins int) Option {
	return func(c *Config) { c.VolumeProfile, c.VolumeProfileBins = true, bins }
}

// Enable turns a family on with its current parameters. SMA and EMA are
// enabled through WithSMA and WithEMA instead.
func Enable(k indicators.Kind) Option {
	return func(c *Config) { setToggle(c, k, true) }
}

// Without disables a family, keeping its parameters.
func Without(k indicators.Kind) Option {
	return func(c *Config) { setToggle(c, k, false) }
}

func setToggle(c *Config, k indicators.Kind, on bool) {
	switch k {
	case indicators.KindSMA:
		if !on {
			c.SMA = nil
		}
	case indicators.KindEMA:
		if !on {
			c.EMA = nil
		}
	case indicators.KindIchimoku:
		c.Ichimoku = on
	case indicators.KindADX:
		c.ADX = on
	case indicators.KindDMI:
		c.DMI = on
	case indicators.KindRSI:
		c.RSI = on
	case indicators.KindMACD:
		c.MACD = on
	case indicators.KindStochastic:
		c.Stochastic = on
	case indicators.KindATR:
		c.ATR = on
	case indicators.KindBBands:
		c.BBands = on
	case indicators.KindKeltner:
		c.Keltner = on
	case indicators.KindOBV:
		c.OBV = on
	case indicators.KindMFI:
		c.MFI = on
	case indicators.KindVWAP:
		c.VWAP = on
	case indicators.KindVolumeProfile:
		c.VolumeProfile = on
	}
}

func copyPeriods(periods []int) []int {
	if len(periods) == 0 {
		return nil
	}
	return append([]int(nil), periods...)
}

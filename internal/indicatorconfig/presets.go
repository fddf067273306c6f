package indicatorconfig

import "strings"

// Preset names.
const (
	PresetMinimal       = "minimal"
	PresetTrendFollower = "trend_follower"
	PresetMeanReversion = "mean_reversion"
	PresetIntraday      = "intraday"
	PresetComprehensive = "comprehensive"
)

type preset struct {
	name        string
	description string
	options     []Option
}

var presets = []preset{
	{
		name:        PresetMinimal,
		description: "SMA 20/50, RSI, ATR - Basic analysis",
		options:     []Option{WithSMA(20, 50), WithRSI(14), WithATR(14)},
	},
	{
		name:        PresetTrendFollower,
		description: "EMA 20/50/200, ADX, MACD - Trend identification",
		options:     []Option{WithEMA(20, 50, 200), WithADX(14), WithMACD(12, 26, 9)},
	},
	{
		name:        PresetMeanReversion,
		description: "Bollinger Bands, Stochastic, RSI - Reversal signals",
		options:     []Option{WithBBands(20, 2.0), WithStochastic(14, 3, 3), WithRSI(14)},
	},
	{
		name:        PresetIntraday,
		description: "VWAP, OBV, Keltner Channels, ADX - Day trading",
		options:     []Option{WithVWAP(), WithOBV(), WithKeltner(20, 1.5), WithADX(14)},
	},
	{
		name:        PresetComprehensive,
		description: "Multiple SMAs/EMAs, RSI, MACD, Bollinger, ATR, OBV, VWAP",
		options: []Option{
			WithSMA(20, 50, 200), WithEMA(12, 26),
			WithRSI(14), WithMACD(12, 26, 9), WithBBands(20, 2.0),
			WithATR(14), WithOBV(), WithVWAP(),
		},
	},
}

// FromPreset returns the named preset, or the all-inactive default when the
// name is not a known preset. Names are matched case-insensitively.
func FromPreset(name string) Config {
	cfg, _ := LookupPreset(name)
	return cfg
}

// LookupPreset is FromPreset that also reports whether the name was known.
func LookupPreset(name string) (Config, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, p := range presets {
		if p.name == name {
			return Default().With(p.options...), true
		}
	}
	return Default(), false
}

// PresetNames lists the preset names in a fixed order.
func PresetNames() []string {
	names := make([]string, len(presets))
	for i, p := range presets {
		names[i] = p.name
	}
	return names
}

// PresetDescription returns a one-line summary of the named preset, or ""
// for an unknown name.
func PresetDescription(name string) string {
	for _, p := range presets {
		if p.name == name {
			return p.description
		}
	}
	return ""
}

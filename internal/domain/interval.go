package domain

import "strings"

// Intervals lists the bar intervals in provider notation. "1M" is one month
// and "1m" one minute, so case matters there and nowhere else.
var Intervals = []string{
	"1m", "3m", "5m", "15m", "30m",
	"1h", "2h", "4h", "6h", "8h", "12h",
	"1d", "3d", "1w", "1M",
}

// NormalizeInterval returns the canonical spelling of interval, accepting
// upper-case units such as "1H" or "1D". ok is false for unknown intervals.
func NormalizeInterval(interval string) (canonical string, ok bool) {
	interval = strings.TrimSpace(interval)
	for _, candidate := range []string{interval, strings.ToLower(interval)} {
		for _, known := range Intervals {
			if candidate == known {
				return known, true
			}
		}
	}
	return interval, false
}

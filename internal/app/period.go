package app

import (
	"strings"
	"time"
)

// DefaultPeriod is used when a request names no period or an unknown one.
const DefaultPeriod = "1y"

var periodDays = map[string]int{
	"1d":  1,
	"5d":  5,
	"1mo": 30,
	"3mo": 90,
	"6mo": 180,
	"1y":  365,
	"2y":  730,
	"5y":  1825,
}

// Periods lists the supported lookback periods, shortest first.
func Periods() []string {
	return []string{"1d", "5d", "1mo", "3mo", "6mo", "1y", "2y", "5y"}
}

// NormalizePeriod maps a period name onto a supported one. Unknown names
// fall back to DefaultPeriod.
func NormalizePeriod(period string) string {
	period = strings.ToLower(strings.TrimSpace(period))
	if _, ok := periodDays[period]; ok {
		return period
	}
	return DefaultPeriod
}

// ResolvePeriod returns the [start, end] window a period covers, ending at now.
func ResolvePeriod(period string, now time.Time) (start, end time.Time) {
	days := periodDays[NormalizePeriod(period)]
	return now.AddDate(0, 0, -days), now
}

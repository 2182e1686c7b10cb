package security

import (
	"math"
	"regexp"
	"strconv"
	"time"
)

// DefaultTokenTTL is used when a configured lifetime cannot be parsed.
const DefaultTokenTTL = 900 * time.Second

var durationPattern = regexp.MustCompile(`^(\d+)([smhd])$`)

// ParseDuration parses lifetimes such as "30s", "15m", "12h" or "7d".
// Anything else, including Go-style compound durations, zero and values too large
// for time.Duration, yields DefaultTokenTTL.
func ParseDuration(s string) time.Duration {
	m := durationPattern.FindStringSubmatch(s)
	if m == nil {
		return DefaultTokenTTL
	}
	n, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil || n == 0 {
		return DefaultTokenTTL
	}
	var unit time.Duration
	switch m[2] {
	case "s":
		unit = time.Second
	case "m":
		unit = time.Minute
	case "h":
		unit = time.Hour
	case "d":
		unit = 24 * time.Hour
	}
	if n > math.MaxInt64/int64(unit) {
		return DefaultTokenTTL
	}
	return time.Duration(n) * unit
}

// Package formatting renders and parses human-readable values such as byte
// sizes and loosely wrapped JSON results.
package formatting

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

var units = []string{"B", "KB", "MB", "GB", "TB", "PB", "EB"}

// FormatBytes renders n in base-1024 units with the given number of
// decimals. Negative precision is treated as zero.
func FormatBytes(n int64, precision int) string {
	precision = max(precision, 0)

	size := float64(n)
	i := 0
	for (size >= 1024 || size <= -1024) && i < len(units)-1 {
		size /= 1024
		i++
	}

	if i == 0 {
		return strconv.FormatInt(n, 10) + " B"
	}
	return strconv.FormatFloat(size, 'f', precision, 64) + " " + units[i]
}

// ParseBytes parses sizes such as "1MB", "64 kb", or "2GiB" as base-1024
// byte counts. A bare number is a count of bytes.
func ParseBytes(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty byte size string")
	}

	split := strings.IndexFunc(s, func(r rune) bool {
		return !unicode.IsDigit(r) && r != '.'
	})
	number, unit := s, ""
	if split >= 0 {
		number, unit = s[:split], strings.TrimSpace(s[split:])
	}
	if number == "" {
		return 0, fmt.Errorf("invalid byte size: %q", s)
	}

	value, err := strconv.ParseFloat(number, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid byte size number: %w", err)
	}

	exp, ok := unitExponent(unit)
	if !ok {
		return 0, fmt.Errorf("unknown byte size unit: %q", unit)
	}

	for range exp {
		value *= 1024
	}
	return int64(value), nil
}

// unitExponent maps a unit suffix to its power of 1024. IEC spellings
// such as "MiB" are accepted alongside "MB".
func unitExponent(unit string) (int, bool) {
	if unit == "" {
		return 0, true
	}
	u := strings.ToUpper(unit)
	if len(u) == 3 && u[1] == 'I' && u[2] == 'B' {
		u = u[:1] + "B"
	}
	for i, candidate := range units {
		if u == candidate {
			return i, true
		}
	}
	return 0, false
}

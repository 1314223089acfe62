package util

import "strconv"

// ParseYear parses a four-digit calendar year. Returns (year, true) if the
// string is a plausible year for demographic series.
func ParseYear(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	y, err := strconv.Atoi(s)
	if err != nil || y < 1900 || y > 2200 {
		return 0, false
	}
	return y, true
}

// ParseYearDefault parses a year or returns default if empty/invalid.
func ParseYearDefault(s string, def int) int {
	if y, ok := ParseYear(s); ok {
		return y
	}
	return def
}

// ClampYearRange orders and clips [from, to] into the bounds the engine
// was refreshed for.
func ClampYearRange(from, to, min, max int) (int, int) {
	if from > to {
		from, to = to, from
	}
	if from < min {
		from = min
	}
	if to > max {
		to = max
	}
	return from, to
}

// YearsBetween returns the inclusive ascending year list.
func YearsBetween(from, to int) []int {
	if to < from {
		return nil
	}
	out := make([]int, 0, to-from+1)
	for y := from; y <= to; y++ {
		out = append(out, y)
	}
	return out
}

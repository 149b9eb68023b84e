package relevance

import (
	"regexp"
	"strconv"
	"strings"
)

const amountPattern = `\$\s?([0-9][0-9,]*(?:\.[0-9]+)?)`

var (
	betweenPattern = regexp.MustCompile(`(?i)\bbetween\s+` + amountPattern + `\s+and\s+\$?\s?([0-9][0-9,]*(?:\.[0-9]+)?)`)
	minPattern     = regexp.MustCompile(`(?i)\b(?:over|above|more than|greater than|at least)\s+` + amountPattern)
	maxPattern     = regexp.MustCompile(`(?i)\b(?:under|below|less than|at most|up to)\s+` + amountPattern)
)

// AmountBounds is an inclusive amount constraint. Nil bounds are open.
type AmountBounds struct {
	Min *float64
	Max *float64
}

// Allows reports whether amount satisfies the bounds.
func (b AmountBounds) Allows(amount float64) bool {
	if b.Min != nil && amount < *b.Min {
		return false
	}
	if b.Max != nil && amount > *b.Max {
		return false
	}
	return true
}

// ParseAmountBounds extracts amount constraints such as "over $50",
// "under $20" or "between $10 and $30" from free text. Text without a
// "$<number>" yields no constraint.
func ParseAmountBounds(text string) AmountBounds {
	var b AmountBounds

	if m := betweenPattern.FindStringSubmatch(text); m != nil {
		lo, okLo := parseAmount(m[1])
		hi, okHi := parseAmount(m[2])
		if okLo && okHi {
			if lo > hi {
				lo, hi = hi, lo
			}
			b.Min, b.Max = &lo, &hi
			return b
		}
	}

	if m := minPattern.FindStringSubmatch(text); m != nil {
		if v, ok := parseAmount(m[1]); ok {
			b.Min = &v
		}
	}
	if m := maxPattern.FindStringSubmatch(text); m != nil {
		if v, ok := parseAmount(m[1]); ok {
			b.Max = &v
		}
	}
	return b
}

func parseAmount(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

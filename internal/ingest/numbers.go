package ingest

import (
	"math"
	"strconv"
	"strings"
)

// Values that mean "no data" in the source spreadsheets.
var blankValues = map[string]struct{}{
	"":       {},
	"-":      {},
	"—": {},
	"N/A":    {},
	"NA":     {},
	"nil":    {},
	"None":   {},
}

// ParseFloat parses human-formatted report numbers such as "31,079.00",
// "(1,234)", "₹ 1,200" and "12.5%". Percent values keep their face value;
// the warehouse stores 12.5, not 0.125. Returns nil when the cell holds no
// usable number.
func ParseFloat(value string) *float64 {
	s := strings.TrimSpace(value)
	if _, blank := blankValues[s]; blank {
		return nil
	}

	negative := strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")")
	if negative {
		s = s[1 : len(s)-1]
	}

	for _, symbol := range []string{"₹", "$", ",", " "} {
		s = strings.ReplaceAll(s, symbol, "")
	}
	s = strings.TrimSuffix(s, "%")

	num, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	if negative {
		num = -num
	}
	return &num
}

// ParseInt rounds a parsed float to the nearest integer.
func ParseInt(value string) *int64 {
	f := ParseFloat(value)
	if f == nil || math.IsNaN(*f) {
		return nil
	}
	n := int64(math.Round(*f))
	return &n
}

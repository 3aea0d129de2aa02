package overlay

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// coerceNumber converts a numeric DTO field. Strings are parsed the way the
// authoring tools emit them: the longest leading decimal prefix wins, so
// "2.5s" reads as 2.5. coerced is true when v was not already a number;
// ok is false when no number could be read at all.
func coerceNumber(v any) (n float64, coerced, ok bool) {
	switch x := v.(type) {
	case float64:
		return x, false, !math.IsNaN(x)
	case float32:
		return float64(x), false, true
	case int:
		return float64(x), false, true
	case int64:
		return float64(x), false, true
	case json.Number:
		f, err := x.Float64()
		return f, false, err == nil
	case string:
		f, ok := parseFloatPrefix(x)
		return f, true, ok && !math.IsNaN(f)
	default:
		return 0, true, false
	}
}

func parseFloatPrefix(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f, true
	}

	end := 0
	seenDigit, seenDot := false, false
scan:
	for i, r := range s {
		switch {
		case (r == '-' || r == '+') && i == 0:
		case r >= '0' && r <= '9':
			seenDigit = true
		case r == '.' && !seenDot:
			seenDot = true
		default:
			break scan
		}
		end = i + 1
	}
	if !seenDigit {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSuffix(s[:end], "."), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

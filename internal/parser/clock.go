package parser

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseClockValue converts a SMIL clock value into seconds. Accepted forms:
// full clock "01:02:03.5", partial clock "02:03.5", and timecounts with an
// optional metric ("1.5h", "2min", "3s", "250ms", "4.2"). A leading "npt="
// is ignored.
func ParseClockValue(s string) (float64, error) {
	v := strings.TrimSpace(s)
	v = strings.TrimPrefix(v, "npt=")
	if v == "" {
		return 0, fmt.Errorf("empty clock value")
	}

	if strings.Contains(v, ":") {
		return parseClock(v)
	}

	metric := 1.0
	switch {
	case strings.HasSuffix(v, "ms"):
		metric, v = 0.001, strings.TrimSuffix(v, "ms")
	case strings.HasSuffix(v, "min"):
		metric, v = 60, strings.TrimSuffix(v, "min")
	case strings.HasSuffix(v, "h"):
		metric, v = 3600, strings.TrimSuffix(v, "h")
	case strings.HasSuffix(v, "s"):
		v = strings.TrimSuffix(v, "s")
	}

	n, err := strconv.ParseFloat(v, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid clock value %q", s)
	}
	return n * metric, nil
}

func parseClock(v string) (float64, error) {
	parts := strings.Split(v, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("invalid clock value %q", v)
	}

	var total float64
	for i, p := range parts {
		last := i == len(parts)-1
		var n float64
		var err error
		if last {
			n, err = strconv.ParseFloat(p, 64)
		} else {
			var whole int
			whole, err = strconv.Atoi(p)
			n = float64(whole)
		}
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid clock value %q", v)
		}
		// Minutes and seconds must stay below 60 when a larger unit precedes them.
		if i > 0 && n >= 60 {
			return 0, fmt.Errorf("invalid clock value %q", v)
		}
		total = total*60 + n
	}
	return total, nil
}

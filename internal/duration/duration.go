// Package duration parses the loosely-formatted timeout strings accepted
// for eta_max: single units ("30m"), compound units ("1h30m"), and
// full-word forms ("1 hour, 30 minutes").
package duration

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var unitSeconds = map[string]float64{
	"h": 3600, "hour": 3600, "hours": 3600,
	"m": 60, "min": 60, "minute": 60, "minutes": 60,
	"s": 1, "sec": 1, "second": 1, "seconds": 1,
}

var cleanup = regexp.MustCompile(`[:,\s]+`)
var pair = regexp.MustCompile(`(\d+\.?\d*)([a-z]+)`)
var digitsOnly = regexp.MustCompile(`^\d+$`)

// Parse converts s into a duration. It accepts a bare integer (seconds),
// a single unit ("30m"), chained units ("1h30m15s"), or full words
// ("1 hour, 30 minutes"). Returns an error for anything else, including
// a parsed duration <= 0.
func Parse(s string) (time.Duration, error) {
	if s == "" {
		return 0, fmt.Errorf("duration: empty timeout string")
	}
	cleaned := cleanup.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), "")

	var totalSeconds float64
	if digitsOnly.MatchString(cleaned) {
		n, err := strconv.ParseInt(cleaned, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("duration: invalid timeout %q: %w", s, err)
		}
		totalSeconds = float64(n)
	} else {
		matches := pair.FindAllStringSubmatch(cleaned, -1)
		if len(matches) == 0 || joinMatches(matches) != cleaned {
			return 0, fmt.Errorf("duration: invalid timeout format %q", s)
		}
		for _, m := range matches {
			value, err := strconv.ParseFloat(m[1], 64)
			if err != nil {
				return 0, fmt.Errorf("duration: invalid number %q in %q", m[1], s)
			}
			unit, ok := unitSeconds[m[2]]
			if !ok {
				return 0, fmt.Errorf("duration: invalid unit %q in %q", m[2], s)
			}
			totalSeconds += value * unit
		}
	}

	d := time.Duration(totalSeconds * float64(time.Second))
	if d <= 0 {
		return 0, fmt.Errorf("duration: timeout %q must be positive", s)
	}
	return d, nil
}

func joinMatches(matches [][]string) string {
	var b strings.Builder
	for _, m := range matches {
		b.WriteString(m[1])
		b.WriteString(m[2])
	}
	return b.String()
}

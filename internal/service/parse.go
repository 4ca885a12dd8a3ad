package service

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// RepRange is a planned rep target; a bound is nil when it could not be read
type RepRange struct {
	Min *int
	Max *int
}

var (
	digitsOnly  = regexp.MustCompile(`^\d+$`)
	minutesPart = regexp.MustCompile(`(\d+)m`)
	secondsPart = regexp.MustCompile(`(\d+)s`)
)

// stripSpaces removes every whitespace rune, not just the edges
func stripSpaces(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

func atoiPtr(s string) *int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &n
}

// ParseRepsString reads coach-entered rep targets such as "8-12", "8 - 12" or "10".
// It never fails; unreadable bounds are left nil.
func ParseRepsString(reps string) RepRange {
	cleaned := stripSpaces(reps)
	if cleaned == "" {
		return RepRange{}
	}

	if lo, hi, ok := strings.Cut(cleaned, "-"); ok {
		return RepRange{Min: atoiPtr(lo), Max: atoiPtr(hi)}
	}

	n := atoiPtr(cleaned)
	if n == nil {
		return RepRange{}
	}
	hi := *n
	return RepRange{Min: n, Max: &hi}
}

// ParseRestTime converts "90s", "2m", "1m30s" or a bare "90" into seconds.
// Returns nil when nothing usable is found.
func ParseRestTime(rest string) *int {
	cleaned := strings.ToLower(stripSpaces(rest))
	if cleaned == "" {
		return nil
	}

	if digitsOnly.MatchString(cleaned) {
		return atoiPtr(cleaned)
	}

	total := 0
	if m := minutesPart.FindStringSubmatch(cleaned); m != nil {
		n, _ := strconv.Atoi(m[1])
		total += n * 60
	}
	if m := secondsPart.FindStringSubmatch(cleaned); m != nil {
		n, _ := strconv.Atoi(m[1])
		total += n
	}

	if total == 0 {
		return nil
	}
	return &total
}

const dateOnlyLayout = "2006-01-02"

// ParseDateBound reads a filter bound given as RFC 3339 or a plain date.
// A plain date used as an upper bound covers the whole day.
func ParseDateBound(raw string, endOfDay bool) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse(dateOnlyLayout, raw)
	if err != nil {
		return nil, fmt.Errorf("expected RFC 3339 or YYYY-MM-DD, got %q", raw)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

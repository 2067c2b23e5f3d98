// Package schedule parses 5-field cron expressions for the sweep daemon.
// Supported per field: `*`, single values, comma lists, ranges, and `*/step`.
package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

type Spec struct {
	fields [5]field // minute, hour, day-of-month, month, day-of-week
}

type field struct {
	any    bool
	values map[int]struct{}
}

var bounds = [5]struct {
	name     string
	min, max int
}{
	{"minute", 0, 59},
	{"hour", 0, 23},
	{"day-of-month", 1, 31},
	{"month", 1, 12},
	{"day-of-week", 0, 6},
}

func Parse(expr string) (Spec, error) {
	parts := strings.Fields(expr)
	if len(parts) != 5 {
		return Spec{}, fmt.Errorf("expected 5 fields, got %d", len(parts))
	}

	var s Spec
	for i, part := range parts {
		b := bounds[i]
		f, err := parseField(part, b.min, b.max)
		if err != nil {
			return Spec{}, fmt.Errorf("%s: %w", b.name, err)
		}
		s.fields[i] = f
	}
	return s, nil
}

// Matches reports whether t (truncated to the minute) is a firing time.
func (s Spec) Matches(t time.Time) bool {
	checks := [5]int{t.Minute(), t.Hour(), t.Day(), int(t.Month()), int(t.Weekday())}
	for i, v := range checks {
		if !s.fields[i].has(v) {
			return false
		}
	}
	return true
}

func (f field) has(v int) bool {
	if f.any {
		return true
	}
	_, ok := f.values[v]
	return ok
}

func parseField(token string, min, max int) (field, error) {
	if token == "*" {
		return field{any: true}, nil
	}

	set := make(map[int]struct{})
	for _, part := range strings.Split(token, ",") {
		if err := parseElement(part, min, max, set); err != nil {
			return field{}, err
		}
	}
	if len(set) == 0 {
		return field{}, fmt.Errorf("no values in %q", token)
	}
	return field{values: set}, nil
}

func parseElement(part string, min, max int, set map[int]struct{}) error {
	part = strings.TrimSpace(part)
	if part == "" {
		return fmt.Errorf("empty list element")
	}

	if rest, ok := strings.CutPrefix(part, "*/"); ok {
		step, err := strconv.Atoi(rest)
		if err != nil || step <= 0 {
			return fmt.Errorf("invalid step %q", part)
		}
		for v := min; v <= max; v += step {
			set[v] = struct{}{}
		}
		return nil
	}

	if lo, hi, ok := strings.Cut(part, "-"); ok {
		start, errA := strconv.Atoi(strings.TrimSpace(lo))
		end, errB := strconv.Atoi(strings.TrimSpace(hi))
		if errA != nil || errB != nil {
			return fmt.Errorf("invalid range %q", part)
		}
		if start > end || start < min || end > max {
			return fmt.Errorf("range out of bounds %q", part)
		}
		for v := start; v <= end; v++ {
			set[v] = struct{}{}
		}
		return nil
	}

	v, err := strconv.Atoi(part)
	if err != nil {
		return fmt.Errorf("invalid value %q", part)
	}
	if v < min || v > max {
		return fmt.Errorf("value out of bounds %d", v)
	}
	set[v] = struct{}{}
	return nil
}

package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func at(hour, minute int) time.Time {
	// 2024-06-03 is a Monday.
	return time.Date(2024, 6, 3, hour, minute, 0, 0, time.UTC)
}

func TestParseAndMatch(t *testing.T) {
	cases := []struct {
		expr  string
		time  time.Time
		match bool
	}{
		{"* * * * *", at(12, 30), true},
		{"0 3 * * *", at(3, 0), true},
		{"0 3 * * *", at(3, 1), false},
		{"*/15 * * * *", at(9, 45), true},
		{"*/15 * * * *", at(9, 50), false},
		{"0 0-6 * * *", at(4, 0), true},
		{"0 0-6 * * *", at(7, 0), false},
		{"30 2 * * 1", at(2, 30), true},  // Monday
		{"30 2 * * 0", at(2, 30), false}, // Sunday
		{"0 12 3 6 *", at(12, 0), true},
	}

	for _, tc := range cases {
		spec, err := Parse(tc.expr)
		require.NoError(t, err, "expr %q", tc.expr)
		require.Equal(t, tc.match, spec.Matches(tc.time), "expr %q at %s", tc.expr, tc.time)
	}
}

func TestParseErrors(t *testing.T) {
	for _, expr := range []string{
		"",
		"* * * *",
		"* * * * * *",
		"61 * * * *",
		"* 24 * * *",
		"*/0 * * * *",
		"5-1 * * * *",
		"x * * * *",
		", * * * *",
	} {
		_, err := Parse(expr)
		require.Error(t, err, "expr %q", expr)
	}
}

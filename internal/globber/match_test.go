package globber

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPatternMatch(t *testing.T) {
	cases := []struct {
		glob string
		name string
		want bool
	}{
		{"*.json", "report.json", true},
		{"*.json", "report.jsonx", false},
		{"*.json", ".json", true},
		{"exe_*.json", "exe_1.json", true},
		{"exe_*.json", "other.json", false},
		{"file?.txt", "file1.txt", true},
		{"file?.txt", "file12.txt", false},
		{"log[0-9].txt", "log5.txt", true},
		{"log[0-9].txt", "logx.txt", false},
		{"log[!0-9].txt", "logx.txt", true},
		{"log[!0-9].txt", "log5.txt", false},
		{"plain.txt", "plain.txt", true},
		{"plain.txt", "plainxtxt", false},
		{"a+b(c).dat", "a+b(c).dat", true},
		{"*", "anything at all", true},
	}

	for _, tc := range cases {
		p, err := Compile(tc.glob)
		require.NoError(t, err, "glob %q", tc.glob)
		require.Equal(t, tc.want, p.Match(tc.name), "glob %q against %q", tc.glob, tc.name)
	}
}

func TestCompileRejectsEmptyPattern(t *testing.T) {
	_, err := Compile("")
	require.Error(t, err)
}

func TestCompileUnterminatedClassIsLiteral(t *testing.T) {
	p, err := Compile("a[bc")
	require.NoError(t, err)
	require.True(t, p.Match("a[bc"))
	require.False(t, p.Match("ab"))
}

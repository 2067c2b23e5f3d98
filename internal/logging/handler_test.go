package logging

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConsoleHandlerOutput(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewConsoleHandler(&buf, slog.LevelInfo, false))

	log.Info("deleted", "id", "abc", "count", 3)
	out := buf.String()
	require.Contains(t, out, "INFO")
	require.Contains(t, out, "deleted")
	require.Contains(t, out, "id=abc")
	require.Contains(t, out, "count=3")
	require.NotContains(t, out, "\033[")
}

func TestConsoleHandlerLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewConsoleHandler(&buf, slog.LevelWarn, false))

	log.Info("hidden")
	log.Warn("shown")
	require.NotContains(t, buf.String(), "hidden")
	require.Contains(t, buf.String(), "shown")
}

func TestConsoleHandlerWithAttrs(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewConsoleHandler(&buf, slog.LevelInfo, false)).With("run", "r1")

	log.Info("scan complete")
	require.Contains(t, buf.String(), "run=r1")
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "globs.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadGlobConfigDefaults(t *testing.T) {
	path := writeConfig(t, `{"globs": ["*.json"]}`)

	cfg, err := LoadGlobConfig(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	require.Equal(t, DefaultMaxFilesPerDelete, cfg.MaxFilesPerDelete)
	require.True(t, cfg.MaxDate().IsZero())
}

func TestLoadGlobConfigFull(t *testing.T) {
	path := writeConfig(t, `{
		"maxFilesPerDelete": 25,
		"maxDateOpened": "2024-01-01",
		"requiredParent": "Archive",
		"globs": ["*.json", "exe_*.log"]
	}`)

	cfg, err := LoadGlobConfig(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	require.Equal(t, 25, cfg.MaxFilesPerDelete)
	require.Equal(t, "Archive", cfg.RequiredParent)
	require.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), cfg.MaxDate())
}

func TestLoadGlobConfigMissingFile(t *testing.T) {
	_, err := LoadGlobConfig(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
}

func TestValidateRejectsEmptyGlobs(t *testing.T) {
	cfg := &GlobConfig{MaxFilesPerDelete: 100}
	require.Error(t, cfg.Validate())

	cfg.Globs = []string{""}
	require.Error(t, cfg.Validate())
}

func TestValidateRejectsBadDate(t *testing.T) {
	cfg := &GlobConfig{
		MaxFilesPerDelete: 100,
		Globs:             []string{"*.json"},
		MaxDateOpened:     "01/02/2024",
	}
	require.Error(t, cfg.Validate())
}

func TestValidateWebhook(t *testing.T) {
	cfg := &GlobConfig{
		MaxFilesPerDelete: 100,
		Globs:             []string{"*.json"},
		Webhook:           &WebhookConfig{},
	}
	require.Error(t, cfg.Validate())

	cfg.Webhook.URL = "https://hooks.example/run"
	cfg.Webhook.On = []string{"success", "bogus"}
	require.Error(t, cfg.Validate())

	cfg.Webhook.On = []string{"success", "failure"}
	require.NoError(t, cfg.Validate())
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("MINTPICK_CONFIG", "")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, DefaultCollection, cfg.Collection.Source)
	require.Equal(t, 30*time.Second, cfg.Collection.Timeout)
	require.Equal(t, DefaultExportLabel, cfg.Export.Label)
	require.Equal(t, 50, cfg.UI.PageSize)
	require.Equal(t, 1, cfg.UI.FuzzyDistance)
	require.Equal(t, "127.0.0.1:8421", cfg.Server.Addr)
	require.Equal(t, 5*time.Second, cfg.Server.ShutdownTimeout)
	require.Empty(t, cfg.Server.AllowedOrigins)
	require.Equal(t, "collections", cfg.Scrape.OutDir)
	require.Equal(t, 64, cfg.Scrape.Concurrency)
	require.Equal(t, 8, cfg.Scrape.MaxRetries)
	require.Equal(t, 500*time.Millisecond, cfg.Scrape.RetryDelay)
	require.Equal(t, "info", cfg.Log.Level)
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "config.toml")
	data := []byte(`
[collection]
source = "https://example.com/tokens.json"
timeout = "4s"

[export]
label = "mints:"
clipboard = true

[ui]
page_size = 20
fuzzy_distance = 2
`)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	t.Setenv("MINTPICK_CONFIG", path)
	t.Setenv("MINTPICK_UI_PAGE_SIZE", "75")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "https://example.com/tokens.json", cfg.Collection.Source)
	require.Equal(t, 4*time.Second, cfg.Collection.Timeout)
	require.Equal(t, "mints:", cfg.Export.Label)
	require.True(t, cfg.Export.Clipboard)
	require.Equal(t, 75, cfg.UI.PageSize)
	require.Equal(t, 2, cfg.UI.FuzzyDistance)
}

func TestLoadExplicitMissingFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
}

func TestLoadClampsPageSize(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("MINTPICK_CONFIG", "")
	t.Setenv("MINTPICK_UI_PAGE_SIZE", "0")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, 50, cfg.UI.PageSize)
}

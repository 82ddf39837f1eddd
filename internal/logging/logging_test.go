package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jask/mintpick/internal/config"
)

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "mintpick.log")
	log, err := New(config.LogConfig{Path: path, Level: "debug", MaxSizeMB: 1})
	require.NoError(t, err)

	log.Info("collection loaded")
	require.NoError(t, log.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "collection loaded")
}

func TestNewRejectsBadLevel(t *testing.T) {
	_, err := New(config.LogConfig{Level: "loud"})
	require.Error(t, err)
}

func TestNewWithoutSinksIsNop(t *testing.T) {
	log, err := New(config.LogConfig{})
	require.NoError(t, err)
	log.Info("dropped")
}

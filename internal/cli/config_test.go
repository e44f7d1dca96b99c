package cli

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weft.yaml")
	writeFile(t, path, `
budget: 100
count: 7
database: ./weft.db
checkpoint: ./final.json
log_level: debug
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 100, cfg.Budget)
	assert.Equal(t, 7, cfg.Count)
	assert.Equal(t, "./weft.db", cfg.Database)
	assert.Equal(t, "./final.json", cfg.Checkpoint)

	level, err := cfg.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoadConfigBadLogLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weft.yaml")
	writeFile(t, path, "log_level: loud\n")

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown log level")
}

func TestSlogLevelDefaultsToInfo(t *testing.T) {
	cfg := &Config{}
	level, err := cfg.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, level)
}

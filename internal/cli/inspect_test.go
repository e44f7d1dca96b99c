package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInspectFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "final.json")
	_, err := execute(t, "run", "--count", "2", "--checkpoint", path)
	require.NoError(t, err)

	out, err := execute(t, "inspect", path)
	require.NoError(t, err)
	assert.Contains(t, out, "run:")
	assert.Contains(t, out, "tick: 2")
	assert.Contains(t, out, "Counter")
}

func TestInspectFileVerbose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "final.json")
	_, err := execute(t, "run", "--count", "2", "--checkpoint", path)
	require.NoError(t, err)

	out, err := execute(t, "--verbose", "inspect", path)
	require.NoError(t, err)
	assert.Contains(t, out, `"remaining":0`)
}

func TestInspectStoreList(t *testing.T) {
	db := filepath.Join(t.TempDir(), "weft.db")
	_, err := execute(t, "run", "--count", "1", "--db", db)
	require.NoError(t, err)
	_, err = execute(t, "run", "--count", "2", "--db", db)
	require.NoError(t, err)

	out, err := execute(t, "inspect", "--db", db, "--list")
	require.NoError(t, err)
	assert.Contains(t, out, "tick=1")
	assert.Contains(t, out, "tick=2")
}

func TestInspectWithoutSource(t *testing.T) {
	_, err := execute(t, "inspect")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestInspectMissingFile(t *testing.T) {
	_, err := execute(t, "inspect", filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

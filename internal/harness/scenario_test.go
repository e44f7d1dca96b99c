package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadScenario(t *testing.T) {
	sc, err := LoadScenario(filepath.Join("testdata", "countdown.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "countdown", sc.Name)
	assert.Equal(t, 10, sc.Budget)
	require.Len(t, sc.Entities, 1)
	require.Len(t, sc.Systems, 2)
	assert.Equal(t, "heartbeat", sc.Systems[0].Name)
	assert.Equal(t, 0, sc.Systems[0].Priority)
	assert.Equal(t, "countdown", sc.Systems[1].Name)
	assert.Equal(t, 1, sc.Systems[1].Priority)
}

func TestLoadScenarioMissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join("testdata", "does-not-exist.yaml"))
	require.Error(t, err)
}

func TestLoadScenarioInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: [unterminated"), 0o644))

	_, err := LoadScenario(path)
	require.Error(t, err)
}

func TestScenarioValidate(t *testing.T) {
	tests := []struct {
		name    string
		sc      Scenario
		wantErr string
	}{
		{
			name: "valid",
			sc: Scenario{
				Name:    "ok",
				Budget:  1,
				Systems: []ScenarioSystem{{Name: "heartbeat"}},
			},
		},
		{
			name:    "missing name",
			sc:      Scenario{Budget: 1, Systems: []ScenarioSystem{{Name: "heartbeat"}}},
			wantErr: "name",
		},
		{
			name:    "no systems",
			sc:      Scenario{Name: "x", Budget: 1},
			wantErr: "system",
		},
		{
			name:    "negative budget",
			sc:      Scenario{Name: "x", Budget: -1, Systems: []ScenarioSystem{{Name: "heartbeat"}}},
			wantErr: "budget",
		},
		{
			name:    "unnamed system",
			sc:      Scenario{Name: "x", Budget: 1, Systems: []ScenarioSystem{{Priority: 2}}},
			wantErr: "system",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.sc.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

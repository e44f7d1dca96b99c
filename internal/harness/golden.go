package harness

import (
	"context"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"
)

// RunGolden loads the scenario at path, executes it, and compares the
// canonical trace against testdata/<name>.golden. Regenerate goldens with
// `go test -update`.
func (r *Runner) RunGolden(t *testing.T, path string) {
	t.Helper()

	sc, err := LoadScenario(path)
	require.NoError(t, err)

	trace, err := r.Run(context.Background(), sc)
	require.NoError(t, err)

	data, err := trace.Marshal()
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, sc.Name, data)
}

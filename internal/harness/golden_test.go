package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/microstore/internal/testutil"
)

func TestScenarios_Golden(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("testdata", "scenarios", "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			scenario, err := LoadScenario(path)
			require.NoError(t, err)

			result, err := RunWithGolden(t, scenario, WithLogger(testutil.DiscardLogger()))
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestMarshalTrace_Canonical(t *testing.T) {
	result := NewResult()
	result.AddEvent(0, OpReset, "", nil)
	result.AddEvent(1, OpPeekAll, "person", []any{map[string]any{"name": "b", "id": "1"}})

	data, err := MarshalTrace("demo", result)
	require.NoError(t, err)

	assert.Equal(t,
		`{"scenario_name":"demo","trace":[{"op":"reset","seq":1,"step":0},{"op":"peek_all","output":[{"id":"1","name":"b"}],"seq":2,"step":1,"target":"person"}]}`,
		string(data))
}

func TestMarshalTrace_Deterministic(t *testing.T) {
	scenario, err := LoadScenario(filepath.Join("testdata", "scenarios", "projection_ticks.yaml"))
	require.NoError(t, err)

	var first []byte
	for i := 0; i < 5; i++ {
		result, err := Run(t.Context(), scenario)
		require.NoError(t, err)
		data, err := MarshalTrace(scenario.Name, result)
		require.NoError(t, err)
		if first == nil {
			first = data
			continue
		}
		assert.Equal(t, string(first), string(data), "run %d", i)
	}
}

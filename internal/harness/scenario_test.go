package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalScenario = `
name: minimal
description: One push
schema:
  person:
    id: { type: string }
steps:
  - push:
      method: GET
      payload: { people: [{ id: "1" }] }
`

func TestParseScenario_Minimal(t *testing.T) {
	s, err := ParseScenario([]byte(minimalScenario))
	require.NoError(t, err)

	assert.Equal(t, "minimal", s.Name)
	require.Len(t, s.Steps, 1)
	assert.Equal(t, "push", s.Steps[0].Op())
	assert.Equal(t, []string{"people"}, s.Steps[0].Push.Payload.Keys())
}

func TestParseScenario_PayloadKeepsKeyOrder(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: ordered
description: Keys in document order
schema:
  person:
    id: { type: string }
steps:
  - push:
      method: GET
      payload:
        zebras: []
        meta: { page: 2 }
        apples: []
`))
	require.NoError(t, err)

	assert.Equal(t, []string{"zebras", "meta", "apples"}, s.Steps[0].Push.Payload.Keys())
}

func TestParseScenario_Errors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "missing name",
			yaml:    "description: d\nschema: {a: {id: {type: string}}}\nsteps: [{reset: true}]\n",
			wantErr: "name is required",
		},
		{
			name:    "missing description",
			yaml:    "name: n\nschema: {a: {id: {type: string}}}\nsteps: [{reset: true}]\n",
			wantErr: "description is required",
		},
		{
			name:    "missing schema",
			yaml:    "name: n\ndescription: d\nsteps: [{reset: true}]\n",
			wantErr: "schema or schema_file is required",
		},
		{
			name:    "both schemas",
			yaml:    "name: n\ndescription: d\nschema_file: x.cue\nschema: {a: {id: {type: string}}}\nsteps: [{reset: true}]\n",
			wantErr: "mutually exclusive",
		},
		{
			name:    "no steps",
			yaml:    "name: n\ndescription: d\nschema: {a: {id: {type: string}}}\n",
			wantErr: "steps list is required",
		},
		{
			name:    "empty step",
			yaml:    "name: n\ndescription: d\nschema: {a: {id: {type: string}}}\nsteps: [{expect: 1}]\n",
			wantErr: "steps[0]: an operation is required",
		},
		{
			name:    "two operations",
			yaml:    "name: n\ndescription: d\nschema: {a: {id: {type: string}}}\nsteps: [{reset: true, peek_all: a}]\n",
			wantErr: "more than one operation (peek_all, reset)",
		},
		{
			name:    "push without payload",
			yaml:    "name: n\ndescription: d\nschema: {a: {id: {type: string}}}\nsteps: [{push: {method: GET}}]\n",
			wantErr: "payload is required",
		},
		{
			name:    "payload not a mapping",
			yaml:    "name: n\ndescription: d\nschema: {a: {id: {type: string}}}\nsteps: [{push: {method: GET, payload: [1]}}]\n",
			wantErr: "payload must be a mapping",
		},
		{
			name:    "project without name",
			yaml:    "name: n\ndescription: d\nschema: {a: {id: {type: string}}}\nsteps: [{project: {type: a}}]\n",
			wantErr: "name is required for project",
		},
		{
			name:    "unknown field",
			yaml:    "name: n\ndescription: d\nschema: {a: {id: {type: string}}}\nsteps: [{reset: true}]\nassertions: []\n",
			wantErr: "field assertions not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadScenario_ResolvesSchemaFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "schema.yaml"), []byte("schema:\n  person:\n    id: { type: string }\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "s.yaml"), []byte(`
name: file_schema
description: Schema from a sibling file
schema_file: schema.yaml
steps:
  - peek_all: person
`), 0644))

	s, err := LoadScenario(filepath.Join(dir, "s.yaml"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "schema.yaml"), s.SchemaFile)
}

func TestLoadScenario_MissingSchemaFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "s.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
name: missing
description: Schema file does not exist
schema_file: nope.cue
steps:
  - reset: true
`), 0644))

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema file not found")
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

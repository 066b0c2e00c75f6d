package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var catalogSchema = filepath.Join("..", "harness", "testdata", "scenarios", "schemas", "catalog.cue")

func TestValidate_CUEFile(t *testing.T) {
	out, err := execute(t, NewValidateCommand(&RootOptions{Format: "text"}), catalogSchema)
	require.NoError(t, err)

	assert.Contains(t, out, "\u2713 Schema valid: 2 type(s)")
	assert.Contains(t, out, "orderItem (primary key: id, 2 field(s))")
	assert.Contains(t, out, "person (primary key: handle, 2 field(s))")
}

func TestValidate_YAMLFileJSON(t *testing.T) {
	path := writeFile(t, t.TempDir(), "schema.yaml", ordersSchemaYAML)

	out, err := execute(t, NewValidateCommand(&RootOptions{Format: "json"}), path)
	require.NoError(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.Valid)
	assert.Equal(t, map[string]string{"purchases": "order"}, resp.Data.TypeNames)
	require.Len(t, resp.Data.Types, 1)
	assert.Equal(t, TypeSummary{
		Type:       "order",
		PrimaryKey: "id",
		Fields:     []string{"id", "items", "name", "paid", "total"},
		Transforms: []string{"items:json"},
	}, resp.Data.Types[0])
}

func TestValidate_CUEDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.cue", "package shop\n\nschema: order: id: string\n")
	writeFile(t, dir, "b.cue", "package shop\n\nschema: customer: {\n\temail: {type: \"string\", primaryKey: true}\n}\n")

	out, err := execute(t, NewValidateCommand(&RootOptions{Format: "text"}), dir)
	require.NoError(t, err)
	assert.Contains(t, out, "customer (primary key: email, 1 field(s))")
	assert.Contains(t, out, "order (primary key: id, 1 field(s))")
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		content  string
		wantCode string
		wantExit int
	}{
		{
			name:     "no primary key",
			file:     "schema.yaml",
			content:  "schema:\n  order:\n    name: { type: string }\n",
			wantCode: ErrCodeNoPrimaryKey,
			wantExit: ExitFailure,
		},
		{
			name:     "two primary keys",
			file:     "schema.yaml",
			content:  "schema:\n  order:\n    a: { type: string, primaryKey: true }\n    b: { type: string, primaryKey: true }\n",
			wantCode: ErrCodeMultiplePrimary,
			wantExit: ExitFailure,
		},
		{
			name:     "unknown cell type",
			file:     "schema.yaml",
			content:  "schema:\n  order:\n    id: { type: string }\n    at: { type: date }\n",
			wantCode: ErrCodeSchemaInvalid,
			wantExit: ExitFailure,
		},
		{
			name:     "missing schema section",
			file:     "schema.yaml",
			content:  "type_names: {}\n",
			wantCode: ErrCodeSchemaMissing,
			wantExit: ExitFailure,
		},
		{
			name:     "malformed yaml",
			file:     "schema.yaml",
			content:  "schema: [\n",
			wantCode: ErrCodeLoadFailed,
			wantExit: ExitFailure,
		},
		{
			name:     "unsupported extension",
			file:     "schema.toml",
			content:  "",
			wantCode: ErrCodeUnsupported,
			wantExit: ExitCommandError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), tt.file, tt.content)

			out, err := execute(t, NewValidateCommand(&RootOptions{Format: "text"}), path)
			require.Error(t, err)
			assert.Equal(t, tt.wantExit, GetExitCode(err))
			assert.Contains(t, err.Error(), tt.wantCode)
			assert.Contains(t, out, "\u2717 Validation failed")
		})
	}
}

func TestValidate_NotFound(t *testing.T) {
	out, err := execute(t, NewValidateCommand(&RootOptions{Format: "json"}), "/nonexistent/schema.cue")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, ErrCodeNotFound, resp.Error.Code)
}

func TestValidate_MissingArgument(t *testing.T) {
	_, err := execute(t, NewValidateCommand(&RootOptions{Format: "text"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

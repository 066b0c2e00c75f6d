package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/microstore/internal/ir"
)

func TestOpen_PrivateDatabases(t *testing.T) {
	ctx := context.Background()
	a := createTestStore(t)
	b := createTestStore(t)

	require.NoError(t, a.SetRow(ctx, "order", "1", ir.Row{"id": "1"}))

	ok, err := b.HasRow(ctx, "order", "1")
	require.NoError(t, err)
	assert.False(t, ok, "stores must not share rows")
}

func TestClose_Idempotent(t *testing.T) {
	s, err := Open(context.Background())
	require.NoError(t, err)
	require.NoError(t, s.Close())
	assert.NoError(t, (&Store{}).Close())
}

func TestSetTablesSchema_Declares(t *testing.T) {
	s := createTestStore(t)

	assert.Equal(t, []string{"customer", "order"}, s.Tables())

	ts, ok := s.TableSchema("order")
	require.True(t, ok)
	assert.Equal(t, []string{"id", "name", "paid", "status", "total"}, ts.Columns())

	_, ok = s.TableSchema("missing")
	assert.False(t, ok)
}

func TestSetTablesSchema_ReplacesTables(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	require.NoError(t, s.SetRow(ctx, "order", "1", ir.Row{"id": "1"}))

	require.NoError(t, s.SetTablesSchema(ctx, TablesSchema{
		"order": {"id": {Type: CellString}},
	}))

	assert.Equal(t, []string{"order"}, s.Tables())
	entries, err := s.GetTable(ctx, "order")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSetTablesSchema_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		schema TablesSchema
		want   string
	}{
		{"reserved column", TablesSchema{"t": {RowIDColumn: {Type: CellString}}}, "reserved"},
		{"unknown type", TablesSchema{"t": {"x": {Type: "date"}}}, "unknown cell type"},
		{"mistyped default", TablesSchema{"t": {"x": {Type: CellNumber, Default: "0"}}}, "default"},
		{"empty table name", TablesSchema{"": {"x": {Type: CellString}}}, "empty table"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Open(context.Background())
			require.NoError(t, err)
			defer s.Close()

			err = s.SetTablesSchema(context.Background(), tt.schema)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestCellType_Normalize(t *testing.T) {
	v, ok := CellNumber.Normalize(3)
	assert.True(t, ok)
	assert.Equal(t, 3.0, v)

	_, ok = CellNumber.Normalize("3")
	assert.False(t, ok)

	_, ok = CellString.Normalize(3)
	assert.False(t, ok)

	v, ok = CellBoolean.Normalize(true)
	assert.True(t, ok)
	assert.Equal(t, true, v)

	assert.False(t, CellType("json").Valid())
}

package engine

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/microstore/internal/compiler"
	"github.com/roach88/microstore/internal/ir"
	"github.com/roach88/microstore/internal/store"
	"github.com/roach88/microstore/internal/transform"
)

func TestSerialize_DropsUndeclaredFields(t *testing.T) {
	e := newTestEngine(t)
	schema, _ := e.Schema("person")

	row, err := e.Serialize(ir.Row{"id": "1", "name": "a", "age": 30.0}, schema)
	require.NoError(t, err)

	assert.Equal(t, ir.Row{"id": "1", "name": "a"}, row)
}

func TestSerialize_AppliesFieldTransforms(t *testing.T) {
	e := newTestEngine(t)
	schema, _ := e.Schema("order")

	row, err := e.Serialize(ir.Row{
		"id":    "1",
		"items": []any{map[string]any{"sku": "a", "qty": 2.0}},
		"total": 4.5,
	}, schema)
	require.NoError(t, err)

	assert.Equal(t, ir.Row{
		"id":    "1",
		"items": `[{"qty":2,"sku":"a"}]`,
		"total": 4.5,
	}, row)
}

func TestSerializeDeserialize_RoundTrip(t *testing.T) {
	e := newTestEngine(t)
	schema, _ := e.Schema("order")

	rows := []ir.Row{
		{"id": "1"},
		{"id": "2", "name": "a", "total": 3.0, "paid": true},
		{"id": "3", "items": []any{"x", 1.0, true, nil, map[string]any{"k": []any{}}}},
		{"id": "4", "items": nil},
		{"id": "5", "items": map[string]any{"nested": map[string]any{"deep": "yes"}}},
	}

	for _, row := range rows {
		serialized, err := e.Serialize(row, schema)
		require.NoError(t, err)
		back, err := e.Deserialize(serialized, schema)
		require.NoError(t, err)

		if diff := cmp.Diff(row, back); diff != "" {
			t.Errorf("round trip mismatch for %v (-want +got):\n%s", row["id"], diff)
		}
	}
}

func TestDeserialize_SkipsUndeclaredCells(t *testing.T) {
	e := newTestEngine(t)
	schema, _ := e.Schema("person")

	row, err := e.Deserialize(ir.Row{"id": "1", "ghost": "boo"}, schema)
	require.NoError(t, err)
	assert.Equal(t, ir.Row{"id": "1"}, row)
}

func TestSerialize_TransformError(t *testing.T) {
	boom := errors.New("boom")
	e := newTestEngine(t, WithFieldTransforms(map[string]transform.Field{
		"fail": transform.FieldFuncs{
			SerializeFunc:   func(any) (any, error) { return nil, boom },
			DeserializeFunc: func(any) (any, error) { return nil, boom },
		},
	}))
	schema := compiler.Schema{
		"id":  {Type: store.CellString},
		"bad": {Type: store.CellString, Transform: "fail"},
	}

	_, err := e.Serialize(ir.Row{"id": "1", "bad": "x"}, schema)
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), `"bad"`)

	_, err = e.Deserialize(ir.Row{"id": "1", "bad": "x"}, schema)
	require.ErrorIs(t, err, boom)
}

func TestRecordFromRow(t *testing.T) {
	e := newTestEngine(t, WithRecordTransforms(map[string]transform.Record{
		"order": transform.RecordFuncs{
			DeserializeFunc: func(row ir.Row) (ir.Record, error) {
				rec := ir.Record(row.Clone())
				rec["itemCount"] = float64(len(row["items"].([]any)))
				return rec, nil
			},
		},
	}))

	rec, err := e.RecordFromRow("order", ir.Row{"id": "1", "items": `["a","b"]`})
	require.NoError(t, err)
	assert.Equal(t, ir.Record{"id": "1", "items": []any{"a", "b"}, "itemCount": 2.0}, rec)

	_, err = e.RecordFromRow("ghost", ir.Row{})
	require.Error(t, err)
}

package engine

import (
	"fmt"

	"github.com/roach88/microstore/internal/compiler"
	"github.com/roach88/microstore/internal/ir"
)

// Serialize applies the schema's field transforms to a raw row. Fields the
// schema does not declare are dropped; declared fields without a transform
// pass through unchanged.
func (e *Engine) Serialize(row ir.Row, schema compiler.Schema) (ir.Row, error) {
	out := make(ir.Row, len(row))
	for _, name := range schema.FieldNames() {
		v, ok := row[name]
		if !ok {
			continue
		}
		if tr, ok := e.transforms.Field(schema[name].Transform); ok {
			sv, err := tr.Serialize(v)
			if err != nil {
				return nil, fmt.Errorf("serialize field %q: %w", name, err)
			}
			v = sv
		}
		out[name] = v
	}
	return out, nil
}

// Deserialize applies the schema's field transforms in reverse to a stored
// row. Cells the schema does not declare are not copied.
func (e *Engine) Deserialize(row ir.Row, schema compiler.Schema) (ir.Row, error) {
	out := make(ir.Row, len(row))
	for _, name := range schema.FieldNames() {
		v, ok := row[name]
		if !ok {
			continue
		}
		if tr, ok := e.transforms.Field(schema[name].Transform); ok {
			dv, err := tr.Deserialize(v)
			if err != nil {
				return nil, fmt.Errorf("deserialize field %q: %w", name, err)
			}
			v = dv
		}
		out[name] = v
	}
	return out, nil
}

// RecordFromRow turns a stored row of entityType into an application record:
// field deserialization first, then the record transform if one exists.
func (e *Engine) RecordFromRow(entityType string, row ir.Row) (ir.Record, error) {
	schema, ok := e.Schema(entityType)
	if !ok {
		return nil, fmt.Errorf("no schema for type %q", entityType)
	}

	fields, err := e.Deserialize(row, schema)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", entityType, err)
	}

	rt, ok := e.RecordTransform(entityType)
	if !ok {
		return ir.Record(fields), nil
	}
	rec, err := rt.Deserialize(fields)
	if err != nil {
		return nil, fmt.Errorf("%s: record transform: %w", entityType, err)
	}
	return rec, nil
}

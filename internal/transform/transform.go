// Package transform holds the field-level and record-level transforms the
// engine applies on the way into and out of the table store.
//
// A field transform converts one application value into a storable scalar
// and back. A record transform converts a whole application record into a
// raw row before field serialization, and a field-deserialized row back into
// an application record.
package transform

import (
	"maps"
	"slices"

	"github.com/roach88/microstore/internal/ir"
)

// Field converts a single cell value. Implementations must map nil to nil in
// both directions.
type Field interface {
	Serialize(value any) (any, error)
	Deserialize(value any) (any, error)
}

// Record converts whole records. Serialize receives the application record
// before field serialization; Deserialize receives the row after field
// deserialization.
type Record interface {
	Serialize(record ir.Record) (ir.Row, error)
	Deserialize(row ir.Row) (ir.Record, error)
}

// FieldFuncs adapts a pair of functions to the Field interface.
type FieldFuncs struct {
	SerializeFunc   func(value any) (any, error)
	DeserializeFunc func(value any) (any, error)
}

// Serialize implements Field. A missing function is the identity.
func (f FieldFuncs) Serialize(value any) (any, error) {
	if f.SerializeFunc == nil {
		return value, nil
	}
	return f.SerializeFunc(value)
}

// Deserialize implements Field. A missing function is the identity.
func (f FieldFuncs) Deserialize(value any) (any, error) {
	if f.DeserializeFunc == nil {
		return value, nil
	}
	return f.DeserializeFunc(value)
}

// RecordFuncs adapts a pair of functions to the Record interface.
type RecordFuncs struct {
	SerializeFunc   func(record ir.Record) (ir.Row, error)
	DeserializeFunc func(row ir.Row) (ir.Record, error)
}

// Serialize implements Record. A missing function copies the record.
func (r RecordFuncs) Serialize(record ir.Record) (ir.Row, error) {
	if r.SerializeFunc == nil {
		return ir.Row(record.Clone()), nil
	}
	return r.SerializeFunc(record)
}

// Deserialize implements Record. A missing function copies the row.
func (r RecordFuncs) Deserialize(row ir.Row) (ir.Record, error) {
	if r.DeserializeFunc == nil {
		return ir.Record(row.Clone()), nil
	}
	return r.DeserializeFunc(row)
}

// Registry is the immutable set of transforms an engine was configured with.
// Field transforms are looked up by name (the schema's transform annotation),
// record transforms by entity type. Lookups never fail hard: a miss means
// "no transform".
type Registry struct {
	fields  map[string]Field
	records map[string]Record
}

// NewRegistry copies the caller's transforms and merges the built-in field
// transforms on top. A caller entry that reuses a built-in name is shadowed
// by the built-in.
func NewRegistry(fields map[string]Field, records map[string]Record) *Registry {
	r := &Registry{
		fields:  make(map[string]Field, len(fields)+len(builtins)),
		records: make(map[string]Record, len(records)),
	}
	for name, f := range fields {
		if f != nil {
			r.fields[name] = f
		}
	}
	maps.Copy(r.fields, builtins)
	for typ, rt := range records {
		if rt != nil {
			r.records[typ] = rt
		}
	}
	return r
}

// Field returns the field transform registered under name.
func (r *Registry) Field(name string) (Field, bool) {
	if r == nil || name == "" {
		return nil, false
	}
	f, ok := r.fields[name]
	return f, ok
}

// Record returns the record transform registered for an entity type.
func (r *Registry) Record(entityType string) (Record, bool) {
	if r == nil || entityType == "" {
		return nil, false
	}
	rt, ok := r.records[entityType]
	return rt, ok
}

// FieldNames returns the registered field transform names, sorted.
func (r *Registry) FieldNames() []string {
	if r == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(r.fields))
}

package compiler

import (
	"maps"
	"slices"

	"github.com/roach88/microstore/internal/store"
)

// Reserved annotation names. They configure the engine and are stripped from
// the schema handed to the store.
const (
	AnnotationTransform  = "transform"
	AnnotationPrimaryKey = "primaryKey"
)

// DefaultPrimaryKey is the implicit primary key field.
const DefaultPrimaryKey = "id"

// Field describes one field of an entity type.
type Field struct {
	Type       store.CellType `json:"type" yaml:"type"`
	Default    any            `json:"default,omitempty" yaml:"default,omitempty"`
	Transform  string         `json:"transform,omitempty" yaml:"transform,omitempty"`
	PrimaryKey bool           `json:"primaryKey,omitempty" yaml:"primaryKey,omitempty"`
}

// Cell returns the store-native part of the field.
func (f Field) Cell() store.Cell {
	return store.Cell{Type: f.Type, Default: f.Default}
}

// Schema maps field names to field descriptors.
type Schema map[string]Field

// FieldNames returns the schema's field names in sorted order.
func (s Schema) FieldNames() []string {
	return slices.Sorted(maps.Keys(s))
}

// Schemas maps entity types to schemas.
type Schemas map[string]Schema

// Types returns the entity type names in sorted order.
func (s Schemas) Types() []string {
	return slices.Sorted(maps.Keys(s))
}

// Compiled is the immutable result of compiling a set of schemas.
type Compiled struct {
	// Schemas are the declared schemas with defaults normalized.
	Schemas Schemas

	// PrimaryKeys maps each entity type to its primary key field.
	PrimaryKeys map[string]string

	// Tables is the store-native schema, one table per entity type.
	Tables store.TablesSchema
}

// Config is a schema file: the schemas plus optional payload key to entity
// type overrides for the interpreter.
type Config struct {
	Schemas   Schemas           `json:"schema" yaml:"schema"`
	TypeNames map[string]string `json:"type_names,omitempty" yaml:"type_names,omitempty"`
}

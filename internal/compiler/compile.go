package compiler

import (
	"fmt"

	"github.com/roach88/microstore/internal/store"
)

// Compile resolves the primary key of every entity type and derives the
// store-native table schema.
//
// Entity types and fields are visited in sorted order, so the error returned
// for an invalid set of schemas is always the same one.
func Compile(schemas Schemas) (*Compiled, error) {
	out := &Compiled{
		Schemas:     make(Schemas, len(schemas)),
		PrimaryKeys: make(map[string]string, len(schemas)),
		Tables:      make(store.TablesSchema, len(schemas)),
	}

	for _, typ := range schemas.Types() {
		schema, pk, err := compileSchema(typ, schemas[typ])
		if err != nil {
			return nil, err
		}

		table := make(store.TableSchema, len(schema))
		for name, f := range schema {
			table[name] = f.Cell()
		}

		out.Schemas[typ] = schema
		out.PrimaryKeys[typ] = pk
		out.Tables[typ] = table
	}

	return out, nil
}

func compileSchema(typ string, schema Schema) (Schema, string, error) {
	if typ == "" {
		return nil, "", &CompileError{Message: "entity type name is empty"}
	}

	compiled := make(Schema, len(schema))
	var pk string

	for _, name := range schema.FieldNames() {
		f := schema[name]

		if name == store.RowIDColumn {
			return nil, "", &CompileError{
				Type:    typ,
				Field:   name,
				Message: fmt.Sprintf("field name %q is reserved", name),
			}
		}
		if !f.Type.Valid() {
			return nil, "", &CompileError{
				Type:    typ,
				Field:   name,
				Message: fmt.Sprintf("unknown type %q (want string, number or boolean)", f.Type),
			}
		}
		if f.Default != nil {
			def, ok := f.Type.Normalize(f.Default)
			if !ok {
				return nil, "", &CompileError{
					Type:    typ,
					Field:   name,
					Message: fmt.Sprintf("default %v is not a %s", f.Default, f.Type),
				}
			}
			f.Default = def
		}

		// Only string fields can key a row
		if f.PrimaryKey && f.Type == store.CellString {
			if pk != "" {
				return nil, "", &CompileError{
					Type:    typ,
					Field:   name,
					Message: fmt.Sprintf("more than one primary key defined for schema %s (%s and %s)", typ, pk, name),
				}
			}
			pk = name
		}

		compiled[name] = f
	}

	if pk == "" {
		if f, ok := compiled[DefaultPrimaryKey]; ok && f.Type == store.CellString {
			pk = DefaultPrimaryKey
		}
	}
	if pk == "" {
		return nil, "", &CompileError{
			Type: typ,
			Message: fmt.Sprintf("no primary key defined for schema %s. This schema must have an 'id' field of "+
				"\"type\": \"string\", or another field of \"type\": \"string\" with \"primaryKey\": true", typ),
		}
	}

	return compiled, pk, nil
}

package compiler

import (
	"fmt"
	"maps"
	"reflect"
	"strings"

	"github.com/invopop/jsonschema"

	"github.com/roach88/microstore/internal/store"
	"github.com/roach88/microstore/internal/transform"
)

// TagPrimaryKey marks the primary key of a struct passed to SchemaFor:
//
//	Email string `json:"email" microstore:"pk"`
const TagPrimaryKey = "pk"

// SchemaFor derives an entity schema from the JSON shape of a struct.
// String, number, integer and boolean properties become cells of the same
// type. Objects, arrays and untyped properties are stored as string cells
// with the json transform. Defaults are not derived.
func SchemaFor(v any) (Schema, error) {
	t := reflect.TypeOf(v)
	if t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("schema for %T: want a struct or pointer to struct", v)
	}

	r := jsonschema.Reflector{Anonymous: true, DoNotReference: true}
	js := r.ReflectFromType(t)

	pks := primaryKeyFields(t)
	schema := Schema{}
	if js.Properties == nil {
		return schema, nil
	}
	for pair := js.Properties.Oldest(); pair != nil; pair = pair.Next() {
		f := Field{Type: store.CellString, PrimaryKey: pks[pair.Key]}
		switch pair.Value.Type {
		case "string":
		case "number", "integer":
			f.Type = store.CellNumber
		case "boolean":
			f.Type = store.CellBoolean
		default:
			f.Transform = transform.JSONName
		}
		schema[pair.Key] = f
	}
	return schema, nil
}

// primaryKeyFields returns the JSON names of fields tagged as primary key,
// following embedded structs the way encoding/json flattens them.
func primaryKeyFields(t reflect.Type) map[string]bool {
	pks := map[string]bool{}
	for i := range t.NumField() {
		f := t.Field(i)
		if f.Anonymous && f.Type.Kind() == reflect.Struct && f.Tag.Get("json") == "" {
			maps.Copy(pks, primaryKeyFields(f.Type))
			continue
		}
		if f.Tag.Get("microstore") == TagPrimaryKey {
			pks[jsonName(f)] = true
		}
	}
	return pks
}

func jsonName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "" {
		return f.Name
	}
	return name
}

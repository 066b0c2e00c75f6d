package compiler

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"

	"github.com/roach88/microstore/internal/store"
)

// LoadCUE loads a schema file, or the CUE package in a directory.
func LoadCUE(path string) (*Config, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("load cue: %w", err)
	}

	if !info.IsDir() {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("load cue: %w", err)
		}
		return FromCUE(cuecontext.New().CompileBytes(data, cue.Filename(path)))
	}

	instances := load.Instances([]string{"."}, &load.Config{Dir: path})
	if len(instances) == 0 {
		return nil, fmt.Errorf("load cue: no CUE instances in %s", path)
	}
	if err := instances[0].Err; err != nil {
		return nil, fmt.Errorf("load cue: %w", formatCUEError(err))
	}

	v := cuecontext.New().BuildInstance(instances[0])
	return FromCUE(v)
}

// FromCUE parses a configuration from a CUE value.
//
// The value must contain a "schema" struct of entity types. A field is either
// a struct {type, default?, transform?, primaryKey?} or a bare CUE kind:
//
//	schema: order: {
//		id:    string
//		total: number
//		tags:  {type: "string", transform: "json"}
//	}
//
// The optional "type_names" struct maps payload keys to entity types.
func FromCUE(v cue.Value) (*Config, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	schemaVal := v.LookupPath(cue.ParsePath("schema"))
	if !schemaVal.Exists() {
		return nil, &CompileError{
			Field:   "schema",
			Message: "schema is required",
			Pos:     v.Pos(),
		}
	}

	cfg := &Config{Schemas: Schemas{}}

	typeIter, err := schemaVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for typeIter.Next() {
		typ := typeIter.Label()
		schema, err := parseCUESchema(typ, typeIter.Value())
		if err != nil {
			return nil, err
		}
		cfg.Schemas[typ] = schema
	}

	namesVal := v.LookupPath(cue.ParsePath("type_names"))
	if namesVal.Exists() {
		names := map[string]string{}
		if err := namesVal.Decode(&names); err != nil {
			return nil, formatCUEError(err)
		}
		cfg.TypeNames = names
	}

	return cfg, nil
}

func parseCUESchema(typ string, v cue.Value) (Schema, error) {
	iter, err := v.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	schema := Schema{}
	for iter.Next() {
		name := iter.Label()
		f, err := parseCUEField(typ, name, iter.Value())
		if err != nil {
			return nil, err
		}
		schema[name] = f
	}
	return schema, nil
}

func parseCUEField(typ, name string, v cue.Value) (Field, error) {
	if v.IncompleteKind() != cue.StructKind {
		cellType, err := cellTypeOfKind(v)
		if err != nil {
			return Field{}, &CompileError{Type: typ, Field: name, Message: err.Error(), Pos: v.Pos()}
		}
		return Field{Type: cellType}, nil
	}

	var f Field

	typeVal := v.LookupPath(cue.ParsePath("type"))
	if !typeVal.Exists() {
		return Field{}, &CompileError{Type: typ, Field: name, Message: "type is required", Pos: v.Pos()}
	}
	t, err := typeVal.String()
	if err != nil {
		return Field{}, formatCUEError(err)
	}
	f.Type = store.CellType(t)

	if d := v.LookupPath(cue.ParsePath("default")); d.Exists() {
		def, err := cueScalar(d)
		if err != nil {
			return Field{}, &CompileError{Type: typ, Field: name + ".default", Message: err.Error(), Pos: d.Pos()}
		}
		f.Default = def
	}
	if tr := v.LookupPath(cue.ParsePath(AnnotationTransform)); tr.Exists() {
		if f.Transform, err = tr.String(); err != nil {
			return Field{}, formatCUEError(err)
		}
	}
	if pk := v.LookupPath(cue.ParsePath(AnnotationPrimaryKey)); pk.Exists() {
		if f.PrimaryKey, err = pk.Bool(); err != nil {
			return Field{}, formatCUEError(err)
		}
	}

	return f, nil
}

// cellTypeOfKind maps a bare CUE type to a cell type.
func cellTypeOfKind(v cue.Value) (store.CellType, error) {
	switch v.IncompleteKind() {
	case cue.StringKind:
		return store.CellString, nil
	case cue.IntKind, cue.FloatKind, cue.NumberKind:
		return store.CellNumber, nil
	case cue.BoolKind:
		return store.CellBoolean, nil
	default:
		return "", fmt.Errorf("unsupported type kind: %v", v.IncompleteKind())
	}
}

// cueScalar reads a concrete string, number or bool.
func cueScalar(v cue.Value) (any, error) {
	switch v.Kind() {
	case cue.StringKind:
		return v.String()
	case cue.BoolKind:
		return v.Bool()
	case cue.IntKind, cue.FloatKind, cue.NumberKind:
		return v.Float64()
	default:
		return nil, fmt.Errorf("default must be a concrete string, number or bool, got %v", v.IncompleteKind())
	}
}

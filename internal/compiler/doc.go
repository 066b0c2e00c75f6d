// Package compiler turns declared entity schemas into the configuration the
// engine runs on: one resolved primary key per entity type and a store-native
// table schema with the engine-only annotations stripped.
//
// A schema declares, per field, a cell type plus two annotations the store
// never sees:
//
//	transform   name of a field transform applied on read and write
//	primaryKey  marks the string field whose value keys the row
//
// Primary key resolution per entity type:
//  1. the single string field with primaryKey: true
//  2. otherwise a string field named "id"
//  3. otherwise the schema is rejected
//
// Schemas can be written in Go, CUE or YAML. Both file formats use the same
// tree:
//
//	schema: order: {
//		id:    {type: "string"}
//		total: {type: "number", default: 0}
//		items: {type: "string", transform: "json"}
//	}
//	type_names: people: "person"
package compiler

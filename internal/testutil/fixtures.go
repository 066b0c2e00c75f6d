package testutil

import (
	"io"
	"log/slog"

	"github.com/roach88/microstore/internal/compiler"
	"github.com/roach88/microstore/internal/store"
)

// DiscardLogger returns a logger that drops everything.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Customer is the record shape of the customer type.
type Customer struct {
	Email string `json:"email" microstore:"pk"`
	Name  string `json:"name,omitempty"`
}

// Person is the record shape of the person type.
type Person struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// OrderSchemas returns the schemas shared by the engine, reactive and
// harness tests:
//
//	order     id (implicit key), name, total, paid (default false), items (json)
//	customer  email (explicit key), name
//	person    id, name
func OrderSchemas() compiler.Schemas {
	return compiler.Schemas{
		"order": {
			"id":    {Type: store.CellString},
			"name":  {Type: store.CellString},
			"total": {Type: store.CellNumber},
			"paid":  {Type: store.CellBoolean, Default: false},
			"items": {Type: store.CellString, Transform: "json"},
		},
		"customer": mustSchemaFor(Customer{}),
		"person":   mustSchemaFor(Person{}),
	}
}

func mustSchemaFor(v any) compiler.Schema {
	s, err := compiler.SchemaFor(v)
	if err != nil {
		panic(err)
	}
	return s
}

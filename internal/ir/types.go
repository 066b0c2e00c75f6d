package ir

import (
	"maps"
	"strings"
)

// Row is the normalized, flat form of one record: field name -> storable scalar.
// Rows are stored under their primary-key value.
type Row map[string]any

// Clone returns a shallow copy of the row.
func (r Row) Clone() Row {
	if r == nil {
		return nil
	}
	return maps.Clone(r)
}

// Record is the application-level form of a row, after field
// deserialization and the optional record transform.
type Record map[string]any

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	return maps.Clone(r)
}

// Method is the HTTP-method-shaped verb that selects the write strategy of a push.
// Any value other than DELETE and PATCH is a full replace.
type Method string

// Write methods understood by the engine. Custom verbs are allowed and behave like PUT.
const (
	MethodGet    Method = "GET"
	MethodPost   Method = "POST"
	MethodPut    Method = "PUT"
	MethodPatch  Method = "PATCH"
	MethodDelete Method = "DELETE"
)

// Normalize returns the upper-cased method.
func (m Method) Normalize() Method {
	return Method(strings.ToUpper(string(m)))
}

// Options are passed through a push operation to the interpreter untouched.
type Options map[string]any

// Batch is a group of rows sharing one entity type, as emitted by an interpreter.
type Batch struct {
	Type string `json:"type"`
	Rows []Row  `json:"rows"`
}

// Result is what an interpreter returns and what a successful push hands back
// to the caller for diagnostics.
type Result struct {
	Batches []Batch `json:"batches"`
	Meta    any     `json:"meta,omitempty"` // Verbatim "meta" section, nil when absent
}

// RowCount returns the number of rows across all batches.
func (r *Result) RowCount() int {
	if r == nil {
		return 0
	}
	n := 0
	for _, b := range r.Batches {
		n += len(b.Rows)
	}
	return n
}

// Types returns the entity types of the batches in emission order.
func (r *Result) Types() []string {
	if r == nil {
		return nil
	}
	types := make([]string, len(r.Batches))
	for i, b := range r.Batches {
		types[i] = b.Type
	}
	return types
}

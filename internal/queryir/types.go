package queryir

// Query represents an abstract query in the QueryIR.
//
// This is a sealed interface - only types in this package implement it.
type Query interface {
	queryNode()
}

// Predicate represents a row filter condition.
//
// This is a sealed interface - only types in this package implement it.
type Predicate interface {
	predicateNode()
}

// Select reads the given fields of every row of one table that matches Filter.
//
// Semantics:
//
//	SELECT <fields> FROM <from> WHERE <filter>
//
// Example:
//
//	Select{
//	  From:   "order",
//	  Fields: []string{"id", "name", "total"},
//	  Filter: In{Field: "id", Values: []any{"1", "2"}},
//	}
//
// Result rows are keyed by the row id of the source table, not by a field.
type Select struct {
	From   string    // Table name
	Fields []string  // Selected fields, in selection order
	Filter Predicate // nil = every row
}

func (Select) queryNode() {}

// Equals matches rows whose field equals a literal value.
//
//	<field> = <value>
type Equals struct {
	Field string
	Value any // string, number or bool
}

func (Equals) predicateNode() {}

// In matches rows whose field equals any of the listed values.
// An empty Values list matches nothing.
//
//	<field> IN (<values>)
type In struct {
	Field  string
	Values []any
}

func (In) predicateNode() {}

// And is a conjunction. An empty Predicates slice is always true.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

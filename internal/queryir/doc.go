// Package queryir provides the abstract query representation behind the
// reactive query engine in package store.
//
// A query definition selects explicit fields from one table and filters rows
// with a predicate. The IR keeps query definitions independent of the
// backend that evaluates them; package querysql compiles it to SQLite.
//
//	[builder callback] -> [Query IR] -> [SQL backend]
//
// SEALED INTERFACES:
//
// Query and Predicate are sealed interfaces using the marker method pattern.
// Only types in this package implement them, so backends can switch
// exhaustively:
//
//	switch p := pred.(type) {
//	case Equals, *Equals:
//	case In, *In:
//	case And, *And:
//	}
//
// Fragment rules enforced by Validate:
//   - Explicit field selection (no SELECT *)
//   - Every referenced field exists in the source table
//   - Literal values are scalars (string, number, bool)
package queryir

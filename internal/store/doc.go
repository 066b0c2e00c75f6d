// Package store provides the reactive table store behind the engine: typed
// tables of rows held in an in-memory SQLite database, with change listeners
// and a query engine whose result tables stay current as rows change.
//
// The store has no durable state. Every Store owns a private ":memory:"
// database on a single connection and is discarded on Close.
//
// # Tables
//
// A table is declared by a TableSchema (column -> Cell). Each table carries a
// reserved "_row_id" TEXT PRIMARY KEY column holding the row id, followed by
// one column per declared cell:
//
//	string  -> TEXT
//	number  -> REAL
//	boolean -> BOOLEAN
//
// Writes are conformed to the schema: unknown cells and cells of the wrong
// type are dropped, declared defaults fill missing cells on full writes, and
// a row left with no cells is deleted. NULL columns read back as absent
// cells, so an empty Row always means "no such row".
//
// # Deterministic Ordering
//
// Rows keep insertion order. Upserts preserve the original rowid, and every
// read ends with ORDER BY rowid ASC.
//
// # Reactivity
//
// Table listeners fire synchronously on the writer's goroutine after any
// write that touched rows. Queries subscribes each definition to its source
// table, recomputes the result table on every change and notifies result
// listeners only when the result actually differs.
package store

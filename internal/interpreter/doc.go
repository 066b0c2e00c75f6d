// Package interpreter classifies raw API payloads into typed batches.
//
// An interpreter is a plain function value (Func). It never touches the
// store, so applications can swap it for one matching their API's envelope.
// REST is the default: one top-level key per entity type, plural keys for
// collections, singular keys for single records, and a reserved "meta" key.
package interpreter

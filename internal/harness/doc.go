// Package harness runs scripted engine scenarios and snapshots their traces.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: order_lifecycle
//	description: "What this scenario validates"
//	schema:
//	  order:
//	    id: { type: string }
//	    total: { type: number, default: 0 }
//	type_names:
//	  people: person
//	steps:
//	  - push:
//	      method: POST
//	      payload: { orders: [{ id: "1", total: 12 }] }
//	  - peek: { type: order, id: "1" }
//	    expect: { id: "1", total: 12 }
//	  - project: { name: open-orders, type: order, items: ["1"] }
//	final:
//	  order:
//	    - { id: "1", total: 12 }
//
// schema_file may replace the inline schema with a .cue or .yaml file
// relative to the scenario.
//
// # Operations
//
//   - push: sends a payload through the interpreter (strict; failures are
//     traced by error code)
//   - push_records: pushes application records of one type
//   - peek, peek_all, unload, unload_all, reset: engine reads and removals
//   - project: creates a named projection on first use and evaluates it
//   - records: the named projection's current records
//   - close: closes the named projection
//
// Every projection subscribes on creation; each reactive tick is traced as
// a "tick" event attributed to the step that caused it.
//
// # Determinism
//
// Each scenario runs on a fresh in-memory store. Projection query names come
// from the scenario, and traces are encoded as canonical JSON, so identical
// scenarios always produce identical golden files.
package harness

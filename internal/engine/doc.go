// Package engine is the store engine facade: it owns the table store and
// query engine, and normalizes payloads into rows on the way in and rows
// into records on the way out.
//
// Write path:
//
//	PushRecord(s) -> record transform -> PushPayload -> interpreter
//	  -> per batch: schema lookup -> field serialize -> store write
//
// Read path:
//
//	PeekRecord/PeekAll -> store read -> field deserialize -> record transform
//
// Write dispatch by method:
//
//	DELETE  delete the row (no-op when absent)
//	PATCH   merge the given fields into an existing row, else full write
//	other   full replace (GET, POST, PUT and custom verbs)
//
// Batches whose entity type has no schema are skipped. There is no rollback:
// a failure partway through a push leaves the earlier rows written.
//
// Engines are configured once and passed explicitly to whatever needs them.
// There is no package-level "current engine".
package engine

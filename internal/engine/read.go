package engine

import (
	"context"

	"github.com/roach88/microstore/internal/ir"
)

// PeekRecord reads one record. It returns false when the type is unknown,
// the row does not exist, or the row cannot be read back (logged).
func (e *Engine) PeekRecord(ctx context.Context, entityType, id string) (ir.Record, bool) {
	if _, ok := e.PrimaryKey(entityType); !ok {
		return nil, false
	}

	row, err := e.store.GetRow(ctx, entityType, id)
	if err != nil {
		e.logger.Warn("peek record failed", "type", entityType, "id", id, "error", err)
		return nil, false
	}
	if len(row) == 0 {
		return nil, false
	}

	rec, err := e.RecordFromRow(entityType, row)
	if err != nil {
		e.logger.Warn("peek record failed", "type", entityType, "id", id, "error", err)
		return nil, false
	}
	return rec, true
}

// PeekAll reads every record of a type in insertion order. Unknown types
// yield an empty slice; rows that cannot be read back are skipped (logged).
func (e *Engine) PeekAll(ctx context.Context, entityType string) []ir.Record {
	records := []ir.Record{}
	if _, ok := e.PrimaryKey(entityType); !ok {
		return records
	}

	entries, err := e.store.GetTable(ctx, entityType)
	if err != nil {
		e.logger.Warn("peek all failed", "type", entityType, "error", err)
		return records
	}

	for _, entry := range entries {
		rec, err := e.RecordFromRow(entityType, entry.Row)
		if err != nil {
			e.logger.Warn("peek all: skipping row", "type", entityType, "id", entry.ID, "error", err)
			continue
		}
		records = append(records, rec)
	}
	return records
}

// UnloadRecord removes one record from the store and returns what was
// there. Nothing is deleted when the record cannot be read.
func (e *Engine) UnloadRecord(ctx context.Context, entityType, id string) (ir.Record, bool) {
	rec, ok := e.PeekRecord(ctx, entityType, id)
	if !ok {
		return nil, false
	}
	if err := e.store.DelRow(ctx, entityType, id); err != nil {
		e.logger.Warn("unload record failed", "type", entityType, "id", id, "error", err)
	}
	return rec, true
}

// UnloadAll removes every record of a type. Unknown types are a no-op.
func (e *Engine) UnloadAll(ctx context.Context, entityType string) {
	if _, ok := e.PrimaryKey(entityType); !ok {
		return
	}
	if err := e.store.DelTable(ctx, entityType); err != nil {
		e.logger.Warn("unload all failed", "type", entityType, "error", err)
	}
}

// Reset removes every record of every configured type, e.g. on logout.
func (e *Engine) Reset(ctx context.Context) {
	for _, typ := range e.Types() {
		e.UnloadAll(ctx, typ)
	}
	e.logger.Debug("store reset", "types", len(e.Types()))
}

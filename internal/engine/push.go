package engine

import (
	"context"
	"fmt"

	"github.com/roach88/microstore/internal/compiler"
	"github.com/roach88/microstore/internal/ir"
)

// PushPayload interprets a raw payload and writes every batch that has a
// schema. Any failure is logged as a warning and reported as a nil result;
// callers that need the reason use Push.
func (e *Engine) PushPayload(ctx context.Context, method ir.Method, payload *ir.Payload, opts ir.Options) *ir.Result {
	result, err := e.Push(ctx, method, payload, opts)
	if err != nil {
		e.logger.Warn("push payload failed",
			"method", method.Normalize(),
			"error", err,
		)
		return nil
	}
	return result
}

// Push is PushPayload with the failure returned as a *PushError.
// Rows written before the failure stay written.
func (e *Engine) Push(ctx context.Context, method ir.Method, payload *ir.Payload, opts ir.Options) (*ir.Result, error) {
	method = method.Normalize()

	result, err := e.interpret(payload, opts)
	if err != nil {
		return nil, &PushError{Code: ErrCodeInterpretFailed, Method: method, Err: err}
	}
	if result == nil {
		result = &ir.Result{Batches: []ir.Batch{}}
	}

	for _, batch := range result.Batches {
		schema, ok := e.Schema(batch.Type)
		if !ok {
			e.logger.Debug("skipping batch without schema",
				"type", batch.Type,
				"rows", len(batch.Rows),
			)
			continue
		}
		pk := e.compiled.PrimaryKeys[batch.Type]

		for _, row := range batch.Rows {
			if err := e.writeRow(ctx, method, batch.Type, pk, schema, row); err != nil {
				return nil, err
			}
		}

		e.logger.Debug("batch written",
			"type", batch.Type,
			"method", method,
			"rows", len(batch.Rows),
		)
	}

	return result, nil
}

// writeRow dispatches one row by method.
func (e *Engine) writeRow(ctx context.Context, method ir.Method, entityType, pk string, schema compiler.Schema, row ir.Row) error {
	id, ok := row[pk].(string)
	if !ok {
		return &PushError{
			Code:   ErrCodeMissingPrimaryKey,
			Type:   entityType,
			Method: method,
			Err:    fmt.Errorf("field %q is %T, want string", pk, row[pk]),
		}
	}

	if method == ir.MethodDelete {
		if err := e.store.DelRow(ctx, entityType, id); err != nil {
			return &PushError{Code: ErrCodeStoreFailed, Type: entityType, Method: method, RowID: id, Err: err}
		}
		return nil
	}

	serialized, err := e.Serialize(row, schema)
	if err != nil {
		return &PushError{Code: ErrCodeSerializeFailed, Type: entityType, Method: method, RowID: id, Err: err}
	}

	if method == ir.MethodPatch {
		exists, err := e.store.HasRow(ctx, entityType, id)
		if err != nil {
			return &PushError{Code: ErrCodeStoreFailed, Type: entityType, Method: method, RowID: id, Err: err}
		}
		if exists {
			err = e.store.SetPartialRow(ctx, entityType, id, serialized)
		} else {
			err = e.store.SetRow(ctx, entityType, id, serialized)
		}
		if err != nil {
			return &PushError{Code: ErrCodeStoreFailed, Type: entityType, Method: method, RowID: id, Err: err}
		}
		return nil
	}

	if err := e.store.SetRow(ctx, entityType, id, serialized); err != nil {
		return &PushError{Code: ErrCodeStoreFailed, Type: entityType, Method: method, RowID: id, Err: err}
	}
	return nil
}

// PushRecord is PushRecords with a single record.
func (e *Engine) PushRecord(ctx context.Context, entityType string, record ir.Record, method ir.Method, opts ir.Options) *ir.Result {
	return e.PushRecords(ctx, entityType, []ir.Record{record}, method, opts)
}

// PushRecords writes application records of one entity type. Each record
// goes through the type's record transform, then all of them are wrapped
// under the type's plural payload key and handed to PushPayload.
//
// A record transform failure is logged and reported as a nil result, the
// same as any other push failure.
func (e *Engine) PushRecords(ctx context.Context, entityType string, records []ir.Record, method ir.Method, opts ir.Options) *ir.Result {
	rows := make([]any, 0, len(records))
	rt, hasTransform := e.RecordTransform(entityType)

	for _, rec := range records {
		if !hasTransform {
			rows = append(rows, ir.Row(rec.Clone()))
			continue
		}
		row, err := rt.Serialize(rec.Clone())
		if err != nil {
			e.logger.Warn("push payload failed",
				"method", method.Normalize(),
				"error", &PushError{Code: ErrCodeRecordTransformFailed, Type: entityType, Method: method.Normalize(), Err: err},
			)
			return nil
		}
		rows = append(rows, row)
	}

	payload := ir.NewPayload().Set(e.naming.Plural(entityType), rows)
	return e.PushPayload(ctx, method, payload, opts)
}

package engine

import (
	"context"
	"fmt"
	"log/slog"
	"maps"

	"github.com/roach88/microstore/internal/compiler"
	"github.com/roach88/microstore/internal/interpreter"
	"github.com/roach88/microstore/internal/store"
	"github.com/roach88/microstore/internal/transform"
)

// Engine normalizes API payloads into a reactive table store.
//
// Thread-safety model: the configuration (schemas, primary keys, transforms,
// interpreter) is immutable after New. Store writes are serialized by the
// store's single connection, but the engine does not coordinate concurrent
// writers beyond that.
type Engine struct {
	compiled   *compiler.Compiled
	transforms *transform.Registry
	interpret  interpreter.Func
	naming     *interpreter.Naming
	store      *store.Store
	queries    *store.Queries
	logger     *slog.Logger

	// Collected by options, merged into transforms by New.
	fieldTransforms  map[string]transform.Field
	recordTransforms map[string]transform.Record
}

// EngineOption allows configuration of engine parameters.
type EngineOption func(*Engine)

// WithFieldTransforms registers named field transforms. The built-in "json"
// transform cannot be replaced.
func WithFieldTransforms(fields map[string]transform.Field) EngineOption {
	return func(e *Engine) {
		maps.Copy(e.fieldTransforms, fields)
	}
}

// WithRecordTransforms registers record transforms by entity type.
func WithRecordTransforms(records map[string]transform.Record) EngineOption {
	return func(e *Engine) {
		maps.Copy(e.recordTransforms, records)
	}
}

// WithInterpreter replaces the default REST interpreter.
func WithInterpreter(fn interpreter.Func) EngineOption {
	return func(e *Engine) {
		e.interpret = fn
	}
}

// WithNaming sets the payload key <-> entity type naming used by the default
// interpreter and by PushRecords.
func WithNaming(n *interpreter.Naming) EngineOption {
	return func(e *Engine) {
		e.naming = n
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = l
	}
}

// New compiles the schemas, creates the store tables and returns a ready
// engine. An invalid schema set fails with a *compiler.CompileError and no
// engine.
func New(ctx context.Context, schemas compiler.Schemas, opts ...EngineOption) (*Engine, error) {
	e := &Engine{
		logger:           slog.Default(),
		fieldTransforms:  make(map[string]transform.Field),
		recordTransforms: make(map[string]transform.Record),
	}
	for _, opt := range opts {
		opt(e)
	}

	compiled, err := compiler.Compile(schemas)
	if err != nil {
		return nil, fmt.Errorf("new engine: %w", err)
	}
	e.compiled = compiled
	e.transforms = transform.NewRegistry(e.fieldTransforms, e.recordTransforms)
	e.fieldTransforms, e.recordTransforms = nil, nil

	if e.naming == nil {
		e.naming = interpreter.NewNaming()
	}
	if e.interpret == nil {
		e.interpret = interpreter.REST(e.naming)
	}

	e.checkTransforms()

	s, err := store.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("new engine: %w", err)
	}
	if err := s.SetTablesSchema(ctx, compiled.Tables); err != nil {
		s.Close()
		return nil, fmt.Errorf("new engine: %w", err)
	}
	e.store = s
	e.queries = store.NewQueries(s)

	e.logger.Debug("engine ready", "types", len(compiled.Schemas))
	return e, nil
}

// checkTransforms warns about schema fields naming a transform nobody
// registered. Such fields pass through unchanged.
func (e *Engine) checkTransforms() {
	for _, typ := range e.compiled.Schemas.Types() {
		schema := e.compiled.Schemas[typ]
		for _, name := range schema.FieldNames() {
			tr := schema[name].Transform
			if tr == "" {
				continue
			}
			if _, ok := e.transforms.Field(tr); !ok {
				e.logger.Warn("unknown field transform", "type", typ, "field", name, "transform", tr)
			}
		}
	}
}

// Close releases the store. The engine must not be used afterwards.
func (e *Engine) Close() error {
	if e.store == nil {
		return nil
	}
	return e.store.Close()
}

// PrimaryKey returns the primary key field of an entity type.
func (e *Engine) PrimaryKey(entityType string) (string, bool) {
	pk, ok := e.compiled.PrimaryKeys[entityType]
	return pk, ok
}

// Schema returns the declared schema of an entity type.
func (e *Engine) Schema(entityType string) (compiler.Schema, bool) {
	s, ok := e.compiled.Schemas[entityType]
	return s, ok
}

// RecordTransform returns the record transform of an entity type.
func (e *Engine) RecordTransform(entityType string) (transform.Record, bool) {
	return e.transforms.Record(entityType)
}

// FieldTransform returns a field transform by name.
func (e *Engine) FieldTransform(name string) (transform.Field, bool) {
	return e.transforms.Field(name)
}

// Types returns the configured entity types in sorted order.
func (e *Engine) Types() []string {
	return e.compiled.Schemas.Types()
}

// Naming returns the payload key <-> entity type naming.
func (e *Engine) Naming() *interpreter.Naming {
	return e.naming
}

// Logger returns the engine's logger.
func (e *Engine) Logger() *slog.Logger {
	return e.logger
}

// Store returns the underlying table store.
func (e *Engine) Store() *store.Store {
	return e.store
}

// Queries returns the underlying query engine.
func (e *Engine) Queries() *store.Queries {
	return e.queries
}

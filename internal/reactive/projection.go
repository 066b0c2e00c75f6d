package reactive

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/roach88/microstore/internal/compiler"
	"github.com/roach88/microstore/internal/engine"
	"github.com/roach88/microstore/internal/ir"
	"github.com/roach88/microstore/internal/queryir"
	"github.com/roach88/microstore/internal/store"
)

// ErrNoSchema is returned when a projection is requested for an entity type
// the engine has no schema for.
var ErrNoSchema = errors.New("no schema defined")

// Option configures a Projection.
type Option func(*Projection)

// WithIDGenerator sets the generator naming the projection's query.
// Default: UUIDv7Generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(p *Projection) {
		p.ids = g
	}
}

// Projection is a live view of the rows of one entity type whose primary
// keys a caller asked for.
//
// Thread-safety: methods may be called from any goroutine; concurrent
// Evaluate calls are applied one at a time. Subscribers run synchronously on
// the goroutine that wrote the rows.
type Projection struct {
	engine     *engine.Engine
	queries    *store.Queries
	entityType string
	pk         string
	fields     []string
	ids        IDGenerator
	name       string

	defineMu sync.Mutex // held from choosing a signature until it is applied

	mu       sync.Mutex
	items    []any  // last requested items, in caller order
	lastSig  string // signature of the applied query definition
	brakeSig string // signature that must not trigger a redefinition
	subs     map[int]func([]ir.Record)
	nextSub  int
	closed   bool
	unlisten func()
}

// New creates a projection over entityType. Requesting a type without a
// schema is a programming error and fails with ErrNoSchema.
func New(eng *engine.Engine, entityType string, opts ...Option) (*Projection, error) {
	schema, ok := eng.Schema(entityType)
	pk, hasPK := eng.PrimaryKey(entityType)
	if !ok || !hasPK {
		return nil, fmt.Errorf("%w for type %q", ErrNoSchema, entityType)
	}

	p := &Projection{
		engine:     eng,
		queries:    eng.Queries(),
		entityType: entityType,
		pk:         pk,
		fields:     fieldNames(schema),
		ids:        UUIDv7Generator{},
		subs:       make(map[int]func([]ir.Record)),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.name = p.ids.Generate()
	p.unlisten = p.queries.AddResultTableListener(p.name, p.onResultChange)

	return p, nil
}

func fieldNames(schema compiler.Schema) []string {
	return slices.Sorted(maps.Keys(schema))
}

// Name returns the name of the query the projection owns.
func (p *Projection) Name() string {
	return p.name
}

// Type returns the projected entity type.
func (p *Projection) Type() string {
	return p.entityType
}

// Evaluate sets the items the caller holds and returns their current
// records. Items are bare primary key strings or objects carrying the
// primary key field; other items are ignored.
//
// The query is redefined only when the id set differs from both the applied
// one and the brake. The brake moves to the new id set whenever the current
// result was non-empty.
func (p *Projection) Evaluate(ctx context.Context, items []any) ([]ir.Record, error) {
	ids := p.collectIDs(items)
	sig, err := signature(ids)
	if err != nil {
		return nil, fmt.Errorf("evaluate %s: %w", p.entityType, err)
	}

	p.defineMu.Lock()
	defer p.defineMu.Unlock()

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, fmt.Errorf("evaluate %s: projection closed", p.entityType)
	}
	p.items = slices.Clone(items)
	redefine := sig != p.lastSig && sig != p.brakeSig
	p.mu.Unlock()

	if redefine {
		hadRows := len(p.queries.ResultEntries(p.name)) > 0
		if err := p.define(ctx, ids); err != nil {
			return nil, fmt.Errorf("evaluate %s: %w", p.entityType, err)
		}

		// Signatures only move once the definition is in place, so a failed
		// define is retried by the next Evaluate with the same ids.
		p.mu.Lock()
		if hadRows {
			p.brakeSig = sig
		}
		p.lastSig = sig
		p.mu.Unlock()

		p.engine.Logger().Debug("projection redefined",
			"type", p.entityType,
			"query", p.name,
			"ids", len(ids),
		)
	}

	return p.Records(), nil
}

func (p *Projection) define(ctx context.Context, ids []string) error {
	values := make([]any, len(ids))
	for i, id := range ids {
		values[i] = id
	}

	return p.queries.SetQueryDefinition(ctx, p.name, p.entityType, func(b *store.Builder) {
		for _, f := range p.fields {
			b.Select(f)
		}
		b.Where(queryir.In{Field: p.pk, Values: values})
	})
}

// Records rebuilds the output for the last requested items against the live
// result table: one record per item in caller order, missing rows omitted.
// Rows that fail to deserialize are skipped and logged.
func (p *Projection) Records() []ir.Record {
	p.mu.Lock()
	items := p.items
	p.mu.Unlock()

	records := []ir.Record{}
	for _, item := range items {
		id, ok := p.itemID(item)
		if !ok {
			continue
		}
		row, ok := p.queries.ResultRow(p.name, id)
		if !ok {
			continue
		}
		rec, err := p.engine.RecordFromRow(p.entityType, row)
		if err != nil {
			p.engine.Logger().Warn("projection: skipping row", "type", p.entityType, "id", id, "error", err)
			continue
		}
		records = append(records, rec)
	}
	return records
}

// Subscribe registers fn to receive the new records after every change to
// the projection's result table. The returned func unsubscribes.
func (p *Projection) Subscribe(fn func([]ir.Record)) (unsubscribe func()) {
	p.mu.Lock()
	defer p.mu.Unlock()

	id := p.nextSub
	p.nextSub++
	p.subs[id] = fn

	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.subs, id)
	}
}

// Close drops the projection's query and subscribers. Evaluate fails
// afterwards.
func (p *Projection) Close(ctx context.Context) {
	p.defineMu.Lock()
	defer p.defineMu.Unlock()

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.subs = make(map[int]func([]ir.Record))
	p.mu.Unlock()

	p.unlisten()
	p.queries.DelQueryDefinition(ctx, p.name)
}

func (p *Projection) onResultChange(context.Context, string) {
	p.mu.Lock()
	ids := slices.Sorted(maps.Keys(p.subs))
	fns := make([]func([]ir.Record), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, p.subs[id])
	}
	p.mu.Unlock()

	if len(fns) == 0 {
		return
	}
	records := p.Records()
	for _, fn := range fns {
		fn(records)
	}
}

// itemID reads the primary key value of one requested item.
func (p *Projection) itemID(item any) (string, bool) {
	var v any
	switch it := item.(type) {
	case string:
		return it, true
	case map[string]any:
		v = it[p.pk]
	case ir.Record:
		v = it[p.pk]
	case ir.Row:
		v = it[p.pk]
	default:
		return "", false
	}
	id, ok := v.(string)
	return id, ok
}

// collectIDs returns the distinct requested ids, sorted.
func (p *Projection) collectIDs(items []any) []string {
	ids := []string{}
	for _, item := range items {
		if id, ok := p.itemID(item); ok {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return slices.Compact(ids)
}

func signature(ids []string) (string, error) {
	b, err := ir.MarshalCanonical(ids)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

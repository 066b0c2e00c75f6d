package store

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"reflect"
	"slices"
	"sync"

	"github.com/roach88/microstore/internal/ir"
	"github.com/roach88/microstore/internal/queryir"
	"github.com/roach88/microstore/internal/querysql"
)

// ResultListener is called after the result table of a query changed.
type ResultListener func(ctx context.Context, query string)

// Queries is the reactive query engine over a Store.
//
// Each named query definition selects fields from one table. Its result
// table is recomputed whenever the source table changes, keyed by the source
// row id, and result listeners fire only when the result differs.
type Queries struct {
	store    *Store
	compiler *querysql.SQLCompiler

	mu        sync.Mutex
	defs      map[string]*queryDef
	listeners map[string]map[int]ResultListener
	nextID    int
}

type queryDef struct {
	table   string
	fields  []string
	schema  TableSchema
	sql     string
	params  []any
	entries []Entry
	remove  func()
}

// Builder collects the parts of a query definition.
type Builder struct {
	fields []string
	where  []queryir.Predicate
}

// Select adds a field to the selection. Repeated fields are ignored.
func (b *Builder) Select(field string) *Builder {
	if !slices.Contains(b.fields, field) {
		b.fields = append(b.fields, field)
	}
	return b
}

// Where adds a filter. Multiple filters are combined with AND.
func (b *Builder) Where(pred queryir.Predicate) *Builder {
	if pred != nil {
		b.where = append(b.where, pred)
	}
	return b
}

func (b *Builder) query(table string) queryir.Select {
	q := queryir.Select{From: table, Fields: b.fields}
	switch len(b.where) {
	case 0:
	case 1:
		q.Filter = b.where[0]
	default:
		q.Filter = queryir.And{Predicates: b.where}
	}
	return q
}

// NewQueries creates a query engine over s.
func NewQueries(s *Store) *Queries {
	return &Queries{
		store:     s,
		compiler:  querysql.NewSQLCompiler(RowIDColumn),
		defs:      make(map[string]*queryDef),
		listeners: make(map[string]map[int]ResultListener),
	}
}

// Store returns the store the queries read from.
func (q *Queries) Store() *Store {
	return q.store
}

// SetQueryDefinition defines (or redefines) the named query over table and
// computes its result table immediately.
//
// Result listeners registered for name survive a redefinition, and fire if
// the new definition yields a different result.
func (q *Queries) SetQueryDefinition(ctx context.Context, name, table string, build func(b *Builder)) error {
	ts, ok := q.store.TableSchema(table)
	if !ok {
		return fmt.Errorf("set query %q: %w: %q", name, ErrNoTable, table)
	}

	b := &Builder{}
	if build != nil {
		build(b)
	}
	sel := b.query(table)

	if err := queryir.Validate(sel, ts.Columns()).Err(); err != nil {
		return fmt.Errorf("set query %q: %w", name, err)
	}
	sqlText, params, err := q.compiler.Compile(sel)
	if err != nil {
		return fmt.Errorf("set query %q: %w", name, err)
	}

	def := &queryDef{
		table:  table,
		fields: slices.Clone(sel.Fields),
		schema: ts,
		sql:    sqlText,
		params: params,
	}

	def.remove = q.store.AddTableListener(table, func(ctx context.Context, _ string) {
		if err := q.refresh(ctx, name, def); err != nil {
			slog.Warn("refresh query failed", "query", name, "table", table, "error", err)
		}
	})

	q.mu.Lock()
	old, replaced := q.defs[name]
	if replaced {
		def.entries = old.entries
	}
	q.defs[name] = def
	q.mu.Unlock()

	if replaced {
		old.remove()
	}

	if err := q.refresh(ctx, name, def); err != nil {
		return fmt.Errorf("set query %q: %w", name, err)
	}
	return nil
}

// DelQueryDefinition removes the named query. Listeners of a non-empty
// result are told it became empty; they stay registered.
func (q *Queries) DelQueryDefinition(ctx context.Context, name string) {
	q.mu.Lock()
	def, ok := q.defs[name]
	if ok {
		delete(q.defs, name)
	}
	q.mu.Unlock()

	if !ok {
		return
	}
	def.remove()
	if len(def.entries) > 0 {
		q.notify(ctx, name)
	}
}

// QueryNames returns the defined query names in sorted order.
func (q *Queries) QueryNames() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return slices.Sorted(maps.Keys(q.defs))
}

// TableName returns the source table of the named query.
func (q *Queries) TableName(name string) (string, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	def, ok := q.defs[name]
	if !ok {
		return "", false
	}
	return def.table, true
}

// ResultTable returns a copy of the named query's result table keyed by row
// id. An undefined query has an empty result.
func (q *Queries) ResultTable(name string) map[string]ir.Row {
	out := make(map[string]ir.Row)
	for _, e := range q.ResultEntries(name) {
		out[e.ID] = e.Row
	}
	return out
}

// ResultEntries returns a copy of the named query's result rows in source
// insertion order.
func (q *Queries) ResultEntries(name string) []Entry {
	q.mu.Lock()
	defer q.mu.Unlock()

	def, ok := q.defs[name]
	if !ok {
		return []Entry{}
	}
	out := make([]Entry, len(def.entries))
	for i, e := range def.entries {
		out[i] = Entry{ID: e.ID, Row: e.Row.Clone()}
	}
	return out
}

// ResultRow returns one row of the named query's result table.
func (q *Queries) ResultRow(name, id string) (ir.Row, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	def, ok := q.defs[name]
	if !ok {
		return nil, false
	}
	for _, e := range def.entries {
		if e.ID == id {
			return e.Row.Clone(), true
		}
	}
	return nil, false
}

// AddResultTableListener registers fn for changes to the named query's
// result table. The query need not be defined yet.
func (q *Queries) AddResultTableListener(name string, fn ResultListener) (remove func()) {
	q.mu.Lock()
	defer q.mu.Unlock()

	id := q.nextID
	q.nextID++
	if q.listeners[name] == nil {
		q.listeners[name] = make(map[int]ResultListener)
	}
	q.listeners[name][id] = fn

	return func() {
		q.mu.Lock()
		defer q.mu.Unlock()
		delete(q.listeners[name], id)
		if len(q.listeners[name]) == 0 {
			delete(q.listeners, name)
		}
	}
}

// refresh recomputes def's result table. A definition that was replaced or
// deleted while the query ran is left alone.
func (q *Queries) refresh(ctx context.Context, name string, def *queryDef) error {
	entries, err := q.store.queryEntries(ctx, def.sql, def.params, def.fields, def.schema)
	if err != nil {
		return fmt.Errorf("refresh: %w", err)
	}

	q.mu.Lock()
	if q.defs[name] != def {
		q.mu.Unlock()
		return nil
	}
	changed := !sameEntries(def.entries, entries)
	if changed {
		def.entries = entries
	}
	q.mu.Unlock()

	if changed {
		slog.Debug("query result changed", "query", name, "table", def.table, "rows", len(entries))
		q.notify(ctx, name)
	}
	return nil
}

func sameEntries(a, b []Entry) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID || !reflect.DeepEqual(a[i].Row, b[i].Row) {
			return false
		}
	}
	return true
}

func (q *Queries) notify(ctx context.Context, name string) {
	q.mu.Lock()
	ids := slices.Sorted(maps.Keys(q.listeners[name]))
	fns := make([]ResultListener, 0, len(ids))
	for _, id := range ids {
		fns = append(fns, q.listeners[name][id])
	}
	q.mu.Unlock()

	for _, fn := range fns {
		fn(ctx, name)
	}
}

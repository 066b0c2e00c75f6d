package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"math"
	"slices"
	"strings"

	"github.com/roach88/microstore/internal/ir"
	"github.com/roach88/microstore/internal/querysql"
)

// RowIDColumn is the reserved column holding each row's id.
const RowIDColumn = "_row_id"

// ErrNoTable is returned when writing to a table the schema does not declare.
var ErrNoTable = errors.New("table not declared")

// CellType is the storable type of a cell.
type CellType string

const (
	CellString  CellType = "string"
	CellNumber  CellType = "number"
	CellBoolean CellType = "boolean"
)

// Valid reports whether t is one of the three cell types.
func (t CellType) Valid() bool {
	switch t {
	case CellString, CellNumber, CellBoolean:
		return true
	default:
		return false
	}
}

// Normalize converts v to the canonical Go value for t.
// Numbers of any Go numeric type become float64; non-finite numbers are
// rejected because SQLite cannot store them.
func (t CellType) Normalize(v any) (any, bool) {
	switch t {
	case CellString:
		s, ok := v.(string)
		return s, ok
	case CellBoolean:
		b, ok := v.(bool)
		return b, ok
	case CellNumber:
		f, ok := toFloat(v)
		if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, false
		}
		return f, true
	default:
		return nil, false
	}
}

func (t CellType) sqlType() string {
	switch t {
	case CellNumber:
		return "REAL"
	case CellBoolean:
		return "BOOLEAN"
	default:
		return "TEXT"
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// Cell declares one column of a table.
type Cell struct {
	Type    CellType `json:"type" yaml:"type"`
	Default any      `json:"default,omitempty" yaml:"default,omitempty"`
}

// TableSchema maps column names to cells.
type TableSchema map[string]Cell

// Columns returns the column names in sorted order.
func (ts TableSchema) Columns() []string {
	return slices.Sorted(maps.Keys(ts))
}

// TablesSchema maps table names to their schemas.
type TablesSchema map[string]TableSchema

// SetTablesSchema declares the store's tables, replacing any previous
// declaration. Existing tables are dropped and recreated empty.
func (s *Store) SetTablesSchema(ctx context.Context, schema TablesSchema) error {
	for _, table := range slices.Sorted(maps.Keys(schema)) {
		if err := validateTable(table, schema[table]); err != nil {
			return fmt.Errorf("set tables schema: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, table := range slices.Sorted(maps.Keys(s.schema)) {
		if _, err := s.db.ExecContext(ctx, "DROP TABLE IF EXISTS "+querysql.QuoteIdent(table)); err != nil {
			return fmt.Errorf("set tables schema: drop %q: %w", table, err)
		}
	}
	s.schema = TablesSchema{}

	for _, table := range slices.Sorted(maps.Keys(schema)) {
		ts := maps.Clone(schema[table])
		if _, err := s.db.ExecContext(ctx, createTableSQL(table, ts)); err != nil {
			return fmt.Errorf("set tables schema: create %q: %w", table, err)
		}
		s.schema[table] = ts
	}

	return nil
}

func validateTable(table string, ts TableSchema) error {
	if table == "" {
		return fmt.Errorf("empty table name")
	}
	for _, col := range ts.Columns() {
		cell := ts[col]
		if col == RowIDColumn {
			return fmt.Errorf("table %q: column %q is reserved", table, col)
		}
		if !cell.Type.Valid() {
			return fmt.Errorf("table %q column %q: unknown cell type %q", table, col, cell.Type)
		}
		if cell.Default != nil {
			if _, ok := cell.Type.Normalize(cell.Default); !ok {
				return fmt.Errorf("table %q column %q: default %v is not a %s", table, col, cell.Default, cell.Type)
			}
		}
	}
	return nil
}

func createTableSQL(table string, ts TableSchema) string {
	defs := []string{querysql.QuoteIdent(RowIDColumn) + " TEXT PRIMARY KEY"}
	for _, col := range ts.Columns() {
		defs = append(defs, querysql.QuoteIdent(col)+" "+ts[col].Type.sqlType())
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", querysql.QuoteIdent(table), strings.Join(defs, ", "))
}

// conform keeps the cells of row that the schema declares with a matching
// type. With defaults set, missing cells take their declared default.
func conform(ts TableSchema, row ir.Row, defaults bool) ir.Row {
	out := ir.Row{}
	for col, v := range row {
		cell, ok := ts[col]
		if !ok || v == nil {
			continue
		}
		if nv, ok := cell.Type.Normalize(v); ok {
			out[col] = nv
		}
	}
	if defaults {
		for col, cell := range ts {
			if _, present := out[col]; present || cell.Default == nil {
				continue
			}
			if nv, ok := cell.Type.Normalize(cell.Default); ok {
				out[col] = nv
			}
		}
	}
	return out
}

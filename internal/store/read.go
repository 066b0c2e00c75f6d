package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/roach88/microstore/internal/ir"
	"github.com/roach88/microstore/internal/querysql"
)

// Entry is one row of a table together with its row id.
type Entry struct {
	ID  string `json:"id"`
	Row ir.Row `json:"row"`
}

// GetRow returns the row at id. A missing row, or a row of an undeclared
// table, is returned as an empty Row.
func (s *Store) GetRow(ctx context.Context, table, id string) (ir.Row, error) {
	ts, ok := s.TableSchema(table)
	if !ok {
		return ir.Row{}, nil
	}

	cols := ts.Columns()
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = ?",
		selectList(cols),
		querysql.QuoteIdent(table),
		querysql.QuoteIdent(RowIDColumn),
	)

	entries, err := s.queryEntries(ctx, query, []any{id}, cols, ts)
	if err != nil {
		return nil, fmt.Errorf("get row %q from %q: %w", id, table, err)
	}
	if len(entries) == 0 {
		return ir.Row{}, nil
	}
	return entries[0].Row, nil
}

// HasRow reports whether a row exists at id.
func (s *Store) HasRow(ctx context.Context, table, id string) (bool, error) {
	if _, ok := s.TableSchema(table); !ok {
		return false, nil
	}

	var one int
	err := s.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT 1 FROM %s WHERE %s = ?", querysql.QuoteIdent(table), querysql.QuoteIdent(RowIDColumn)),
		id,
	).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("has row %q in %q: %w", id, table, err)
	}
	return true, nil
}

// GetTable returns every row of a table in insertion order.
func (s *Store) GetTable(ctx context.Context, table string) ([]Entry, error) {
	ts, ok := s.TableSchema(table)
	if !ok {
		return []Entry{}, nil
	}

	cols := ts.Columns()
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY rowid ASC", selectList(cols), querysql.QuoteIdent(table))

	entries, err := s.queryEntries(ctx, query, nil, cols, ts)
	if err != nil {
		return nil, fmt.Errorf("get table %q: %w", table, err)
	}
	return entries, nil
}

func selectList(cols []string) string {
	quoted := make([]string, 0, len(cols)+1)
	quoted = append(quoted, querysql.QuoteIdent(RowIDColumn))
	for _, c := range cols {
		quoted = append(quoted, querysql.QuoteIdent(c))
	}
	return strings.Join(quoted, ", ")
}

// queryEntries runs a query whose first column is the row id and whose
// remaining columns are cols, in order. The rows are fully read and closed
// before returning, which frees the single connection.
func (s *Store) queryEntries(ctx context.Context, query string, args []any, cols []string, ts TableSchema) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var id string
		values := make([]any, len(cols))
		dest := make([]any, len(cols)+1)
		dest[0] = &id
		for i := range values {
			dest[i+1] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}

		row := ir.Row{}
		for i, col := range cols {
			if v, ok := fromSQL(ts[col].Type, values[i]); ok {
				row[col] = v
			}
		}
		entries = append(entries, Entry{ID: id, Row: row})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return entries, nil
}

// fromSQL maps a scanned column value back to its cell value.
// NULL means the cell is absent.
func fromSQL(t CellType, v any) (any, bool) {
	switch val := v.(type) {
	case nil:
		return nil, false
	case []byte:
		return t.Normalize(string(val))
	case int64:
		if t == CellBoolean {
			return val != 0, true
		}
		return float64(val), true
	default:
		return t.Normalize(val)
	}
}

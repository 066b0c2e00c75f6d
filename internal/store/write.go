package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/microstore/internal/ir"
	"github.com/roach88/microstore/internal/querysql"
)

// SetRow replaces the row at id with the conformed row.
//
// Cells the schema does not declare, or whose value has the wrong type, are
// dropped. Missing cells take their default; missing cells without a default
// are cleared. If nothing is left the row is deleted, matching the rule that
// an empty row does not exist.
//
// Uses INSERT ... ON CONFLICT DO UPDATE so an existing row keeps its
// position in insertion order.
func (s *Store) SetRow(ctx context.Context, table, id string, row ir.Row) error {
	ts, err := s.writableTable(table)
	if err != nil {
		return fmt.Errorf("set row: %w", err)
	}

	cells := conform(ts, row, true)
	if len(cells) == 0 {
		if err := s.DelRow(ctx, table, id); err != nil {
			return fmt.Errorf("set row: %w", err)
		}
		return nil
	}

	cols := ts.Columns()
	quoted := make([]string, 0, len(cols)+1)
	placeholders := make([]string, 0, len(cols)+1)
	updates := make([]string, 0, len(cols))
	args := make([]any, 0, len(cols)+1)

	quoted = append(quoted, querysql.QuoteIdent(RowIDColumn))
	placeholders = append(placeholders, "?")
	args = append(args, id)
	for _, col := range cols {
		q := querysql.QuoteIdent(col)
		quoted = append(quoted, q)
		placeholders = append(placeholders, "?")
		updates = append(updates, fmt.Sprintf("%s = excluded.%s", q, q))
		args = append(args, cells[col]) // nil clears the column
	}

	query := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) ON CONFLICT(%s) DO UPDATE SET %s",
		querysql.QuoteIdent(table),
		strings.Join(quoted, ", "),
		strings.Join(placeholders, ", "),
		querysql.QuoteIdent(RowIDColumn),
		strings.Join(updates, ", "),
	)
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("set row %q in %q: %w", id, table, err)
	}

	s.notify(ctx, table)
	return nil
}

// SetPartialRow updates only the given cells of the row at id.
// When the row does not exist yet it is created as a full write, defaults
// included. A partial row with no valid cells is a no-op.
func (s *Store) SetPartialRow(ctx context.Context, table, id string, partial ir.Row) error {
	ts, err := s.writableTable(table)
	if err != nil {
		return fmt.Errorf("set partial row: %w", err)
	}

	cells := conform(ts, partial, false)
	if len(cells) == 0 {
		return nil
	}

	exists, err := s.HasRow(ctx, table, id)
	if err != nil {
		return fmt.Errorf("set partial row: %w", err)
	}
	if !exists {
		return s.SetRow(ctx, table, id, cells)
	}

	var sets []string
	var args []any
	for _, col := range ts.Columns() {
		v, ok := cells[col]
		if !ok {
			continue
		}
		sets = append(sets, querysql.QuoteIdent(col)+" = ?")
		args = append(args, v)
	}
	args = append(args, id)

	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s = ?",
		querysql.QuoteIdent(table),
		strings.Join(sets, ", "),
		querysql.QuoteIdent(RowIDColumn),
	)
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("set partial row %q in %q: %w", id, table, err)
	}

	s.notify(ctx, table)
	return nil
}

// DelRow deletes the row at id. Deleting an absent row, or a row of an
// undeclared table, is a no-op.
func (s *Store) DelRow(ctx context.Context, table, id string) error {
	if _, ok := s.TableSchema(table); !ok {
		return nil
	}

	res, err := s.db.ExecContext(ctx,
		fmt.Sprintf("DELETE FROM %s WHERE %s = ?", querysql.QuoteIdent(table), querysql.QuoteIdent(RowIDColumn)),
		id,
	)
	if err != nil {
		return fmt.Errorf("delete row %q from %q: %w", id, table, err)
	}

	if n, err := res.RowsAffected(); err == nil && n > 0 {
		s.notify(ctx, table)
	}
	return nil
}

// DelTable deletes every row of a table. The table stays declared.
func (s *Store) DelTable(ctx context.Context, table string) error {
	if _, ok := s.TableSchema(table); !ok {
		return nil
	}

	res, err := s.db.ExecContext(ctx, "DELETE FROM "+querysql.QuoteIdent(table))
	if err != nil {
		return fmt.Errorf("delete table %q: %w", table, err)
	}

	if n, err := res.RowsAffected(); err == nil && n > 0 {
		s.notify(ctx, table)
	}
	return nil
}

func (s *Store) writableTable(table string) (TableSchema, error) {
	ts, ok := s.TableSchema(table)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNoTable, table)
	}
	return ts, nil
}

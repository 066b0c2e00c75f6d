package querysql

import (
	"fmt"
	"strings"

	"github.com/roach88/microstore/internal/queryir"
)

// SQLCompiler compiles QueryIR to parameterized SQL for SQLite.
//
// Every query selects the table's key column first and ends with an ORDER BY
// on rowid, so result rows come back in insertion order.
// All values are parameterized, never interpolated.
type SQLCompiler struct {
	// KeyColumn is the column holding the row id, selected ahead of the fields.
	KeyColumn string
}

// NewSQLCompiler creates a compiler for tables keyed by keyColumn.
func NewSQLCompiler(keyColumn string) *SQLCompiler {
	return &SQLCompiler{KeyColumn: keyColumn}
}

// Compile converts a QueryIR query to parameterized SQL.
// Returns (sql, params, error).
func (c *SQLCompiler) Compile(q queryir.Query) (string, []any, error) {
	switch query := q.(type) {
	case nil:
		return "", nil, fmt.Errorf("cannot compile nil query")
	case queryir.Select:
		return c.compileSelect(query)
	case *queryir.Select:
		if query == nil {
			return "", nil, fmt.Errorf("cannot compile nil query")
		}
		return c.compileSelect(*query)
	default:
		return "", nil, fmt.Errorf("unsupported query type: %T", q)
	}
}

func (c *SQLCompiler) compileSelect(q queryir.Select) (string, []any, error) {
	if q.From == "" {
		return "", nil, fmt.Errorf("select without source table")
	}

	columns := make([]string, 0, len(q.Fields)+1)
	if c.KeyColumn != "" {
		columns = append(columns, QuoteIdent(c.KeyColumn))
	}
	for _, f := range q.Fields {
		columns = append(columns, QuoteIdent(f))
	}
	if len(columns) == 0 {
		return "", nil, fmt.Errorf("select on %q has no columns", q.From)
	}

	var whereClause string
	var params []any
	if q.Filter != nil {
		filterSQL, filterParams, err := c.compilePredicate(q.Filter)
		if err != nil {
			return "", nil, fmt.Errorf("compile filter: %w", err)
		}
		whereClause = " WHERE " + filterSQL
		params = filterParams
	}

	sql := fmt.Sprintf("SELECT %s FROM %s%s ORDER BY rowid ASC",
		strings.Join(columns, ", "),
		QuoteIdent(q.From),
		whereClause)

	return sql, params, nil
}

func (c *SQLCompiler) compilePredicate(p queryir.Predicate) (string, []any, error) {
	switch pred := p.(type) {
	case nil:
		return "1 = 1", nil, nil
	case queryir.Equals:
		return c.compileEquals(pred)
	case *queryir.Equals:
		return c.compileEquals(*pred)
	case queryir.In:
		return c.compileIn(pred)
	case *queryir.In:
		return c.compileIn(*pred)
	case queryir.And:
		return c.compileAnd(pred)
	case *queryir.And:
		return c.compileAnd(*pred)
	default:
		return "", nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

func (c *SQLCompiler) compileEquals(eq queryir.Equals) (string, []any, error) {
	param, err := toParam(eq.Value)
	if err != nil {
		return "", nil, fmt.Errorf("field %q: %w", eq.Field, err)
	}
	return fmt.Sprintf("%s = ?", QuoteIdent(eq.Field)), []any{param}, nil
}

func (c *SQLCompiler) compileIn(in queryir.In) (string, []any, error) {
	if len(in.Values) == 0 {
		return "0 = 1", nil, nil // Matches nothing
	}

	placeholders := make([]string, len(in.Values))
	params := make([]any, len(in.Values))
	for i, v := range in.Values {
		param, err := toParam(v)
		if err != nil {
			return "", nil, fmt.Errorf("field %q value %d: %w", in.Field, i, err)
		}
		placeholders[i] = "?"
		params[i] = param
	}

	sql := fmt.Sprintf("%s IN (%s)", QuoteIdent(in.Field), strings.Join(placeholders, ", "))
	return sql, params, nil
}

func (c *SQLCompiler) compileAnd(and queryir.And) (string, []any, error) {
	if len(and.Predicates) == 0 {
		return "1 = 1", nil, nil // Vacuous truth
	}

	var sqlParts []string
	var allParams []any
	for _, pred := range and.Predicates {
		sql, params, err := c.compilePredicate(pred)
		if err != nil {
			return "", nil, err
		}
		sqlParts = append(sqlParts, "("+sql+")")
		allParams = append(allParams, params...)
	}

	return strings.Join(sqlParts, " AND "), allParams, nil
}

// toParam converts a literal to a SQL parameter. Integers become float64 to
// match the REAL affinity of number columns.
func toParam(v any) (any, error) {
	switch val := v.(type) {
	case string, bool, float64:
		return val, nil
	case float32:
		return float64(val), nil
	case int:
		return float64(val), nil
	case int32:
		return float64(val), nil
	case int64:
		return float64(val), nil
	default:
		return nil, fmt.Errorf("unsupported literal type for SQL parameter: %T", v)
	}
}

// QuoteIdent quotes a table or column name for SQLite. Entity types such as
// "order" collide with SQL keywords, so every identifier is quoted.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

package queryir

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ValidationResult lists the problems found in a query definition.
type ValidationResult struct {
	// Valid is true when Problems is empty.
	Valid bool

	// Problems describes each rule violation, in traversal order.
	Problems []string
}

// Err returns the problems as a single error, or nil for a valid query.
func (r ValidationResult) Err() error {
	if r.Valid {
		return nil
	}
	return errors.New("invalid query: " + strings.Join(r.Problems, "; "))
}

// Validate checks a query against the columns of its source table.
//
// Rules:
//  1. The source table is named
//  2. At least one field is selected, and every selected field is a column
//  3. Every predicate field is a column
//  4. Predicate values are scalars
//
// Validate is a pure function with no side effects.
func Validate(query Query, columns []string) ValidationResult {
	v := &validator{
		columns:  columns,
		problems: []string{},
	}
	v.validateQuery(query)

	return ValidationResult{
		Valid:    len(v.problems) == 0,
		Problems: v.problems,
	}
}

type validator struct {
	columns  []string
	problems []string
}

func (v *validator) addProblem(format string, args ...any) {
	v.problems = append(v.problems, fmt.Sprintf(format, args...))
}

func (v *validator) known(field string) bool {
	return slices.Contains(v.columns, field)
}

func (v *validator) validateQuery(q Query) {
	switch query := q.(type) {
	case nil:
		v.addProblem("nil query")
	case Select:
		v.validateSelect(query)
	case *Select:
		if query == nil {
			v.addProblem("nil query")
			return
		}
		v.validateSelect(*query)
	default:
		v.addProblem("unknown query type: %T", q)
	}
}

func (v *validator) validateSelect(sel Select) {
	if sel.From == "" {
		v.addProblem("select without source table")
	}
	if len(sel.Fields) == 0 {
		v.addProblem("empty selection - fields must be listed explicitly")
	}
	for _, f := range sel.Fields {
		if !v.known(f) {
			v.addProblem("selected field %q is not a column of %q", f, sel.From)
		}
	}
	if sel.Filter != nil {
		v.validatePredicate(sel.Filter)
	}
}

func (v *validator) validatePredicate(p Predicate) {
	switch pred := p.(type) {
	case nil:
	case Equals:
		v.validateField(pred.Field)
		v.validateValue(pred.Field, pred.Value)
	case *Equals:
		v.validatePredicate(*pred)
	case In:
		v.validateField(pred.Field)
		for _, val := range pred.Values {
			v.validateValue(pred.Field, val)
		}
	case *In:
		v.validatePredicate(*pred)
	case And:
		for _, sub := range pred.Predicates {
			v.validatePredicate(sub)
		}
	case *And:
		v.validatePredicate(*pred)
	default:
		v.addProblem("unknown predicate type: %T", p)
	}
}

func (v *validator) validateField(field string) {
	if !v.known(field) {
		v.addProblem("filter field %q is not a column", field)
	}
}

func (v *validator) validateValue(field string, value any) {
	if !IsScalar(value) {
		v.addProblem("field %q compared to non-scalar %T", field, value)
	}
}

// IsScalar reports whether v can be bound as a query parameter.
func IsScalar(v any) bool {
	switch v.(type) {
	case string, bool, float64, float32, int, int32, int64:
		return true
	default:
		return false
	}
}

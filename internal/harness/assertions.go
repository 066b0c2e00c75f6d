package harness

import (
	"bytes"
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/roach88/microstore/internal/engine"
	"github.com/roach88/microstore/internal/ir"
)

// AssertionError is returned when an expectation fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Where    string       // Step or final-state location
	Expected string       // Canonical JSON of the expected value
	Actual   string       // Canonical JSON of the actual value
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Where)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull trace:\n")
	for _, event := range e.Trace {
		fmt.Fprintf(&buf, "  [%d] step %d %s %s\n", event.Seq, event.Step, event.Op, event.Target)
	}

	return buf.String()
}

// canonicalEqual compares two values by their canonical JSON encoding, so
// YAML integers match stored float64 numbers and typed maps match plain ones.
func canonicalEqual(expected, actual any) (bool, string, string, error) {
	exp, err := ir.MarshalCanonical(expected)
	if err != nil {
		return false, "", "", fmt.Errorf("encode expected: %w", err)
	}
	act, err := ir.MarshalCanonical(actual)
	if err != nil {
		return false, "", "", fmt.Errorf("encode actual: %w", err)
	}
	return bytes.Equal(exp, act), string(exp), string(act), nil
}

// assertOutput checks a step's output against its expect clause.
func assertOutput(where string, expected, actual any, trace []TraceEvent) error {
	ok, exp, act, err := canonicalEqual(expected, actual)
	if err != nil {
		return fmt.Errorf("%s: %w", where, err)
	}
	if ok {
		return nil
	}
	return &AssertionError{
		Where:    where,
		Expected: exp,
		Actual:   act,
		Trace:    trace,
	}
}

// assertFinal checks the stored records of every listed type, in sorted type
// order so failures are reported deterministically.
func assertFinal(ctx context.Context, eng *engine.Engine, final map[string][]map[string]any, trace []TraceEvent) []string {
	var errs []string
	for _, typ := range slices.Sorted(maps.Keys(final)) {
		expected := final[typ]
		if expected == nil {
			expected = []map[string]any{}
		}
		actual := eng.PeekAll(ctx, typ)
		if err := assertOutput(fmt.Sprintf("final %s", typ), expected, actual, trace); err != nil {
			errs = append(errs, err.Error())
		}
	}
	return errs
}

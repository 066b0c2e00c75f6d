package harness

import (
	"context"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/microstore/internal/ir"
)

// goldenDir holds one <scenario>.golden file per scenario, relative to the
// package under test.
const goldenDir = "testdata/golden"

// canonical is the golden form of an event. Empty targets and nil outputs
// are left out so steps like reset stay one short line.
func (ev TraceEvent) canonical() map[string]any {
	m := map[string]any{
		"seq":  ev.Seq,
		"step": ev.Step,
		"op":   ev.Op,
	}
	if ev.Target != "" {
		m["target"] = ev.Target
	}
	if ev.Output != nil {
		m["output"] = ev.Output
	}
	return m
}

// MarshalTrace renders a result's trace as canonical JSON under the
// scenario's name. Equal traces always produce equal bytes.
func MarshalTrace(scenarioName string, result *Result) ([]byte, error) {
	events := make([]any, len(result.Trace))
	for i, ev := range result.Trace {
		events[i] = ev.canonical()
	}
	return ir.MarshalCanonical(map[string]any{
		"scenario_name": scenarioName,
		"trace":         events,
	})
}

// RunWithGolden runs a scenario and checks its trace against
// testdata/golden/<name>.golden. Regenerate with:
//
//	go test ./internal/harness -update
//
// Setup failures are returned; a trace mismatch fails t.
func RunWithGolden(t *testing.T, scenario *Scenario, opts ...Option) (*Result, error) {
	t.Helper()

	result, err := Run(context.Background(), scenario, opts...)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden checks an existing result against its golden file.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	trace, err := MarshalTrace(scenarioName, result)
	if err != nil {
		return err
	}

	goldie.New(t,
		goldie.WithFixtureDir(goldenDir),
		goldie.WithNameSuffix(".golden"),
	).Assert(t, scenarioName, trace)
	return nil
}

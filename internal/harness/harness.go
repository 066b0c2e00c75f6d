package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/roach88/microstore/internal/compiler"
	"github.com/roach88/microstore/internal/engine"
	"github.com/roach88/microstore/internal/interpreter"
	"github.com/roach88/microstore/internal/ir"
	"github.com/roach88/microstore/internal/reactive"
)

// Option configures a scenario run.
type Option func(*Harness)

// WithLogger sets the logger handed to the engine.
// Default: logs are discarded.
func WithLogger(l *slog.Logger) Option {
	return func(h *Harness) {
		h.logger = l
	}
}

// Harness is the test execution engine.
// Each run gets a fresh engine over its own in-memory store, and
// projections are named after their scenario name so traces are
// reproducible.
type Harness struct {
	engine      *engine.Engine
	projections map[string]*reactive.Projection
	logger      *slog.Logger
	result      *Result
	step        int
}

// Run executes a test scenario and returns the result.
//
// Execution flow:
// 1. Load the schema and create a fresh engine
// 2. Execute the steps, checking expect clauses
// 3. Check the final state
// 4. Return result with pass/fail, trace, and errors
//
// An error is returned only when the scenario cannot be set up. Failed
// expectations are reported in the result.
func Run(ctx context.Context, scenario *Scenario, opts ...Option) (*Result, error) {
	h := &Harness{
		projections: make(map[string]*reactive.Projection),
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		result:      NewResult(),
	}
	for _, opt := range opts {
		opt(h)
	}

	cfg, err := scenarioConfig(scenario)
	if err != nil {
		return nil, fmt.Errorf("failed to load schema: %w", err)
	}

	eng, err := engine.New(ctx, cfg.Schemas,
		engine.WithNaming(interpreter.NewNaming(interpreter.WithTypeNames(cfg.TypeNames))),
		engine.WithLogger(h.logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}
	defer eng.Close()
	h.engine = eng

	defer func() {
		for _, p := range h.projections {
			p.Close(ctx)
		}
	}()

	for i, step := range scenario.Steps {
		h.step = i
		if err := h.executeStep(ctx, step); err != nil {
			h.result.AddError(fmt.Sprintf("steps[%d] (%s): %v", i, step.Op(), err))
		}
	}

	for _, msg := range assertFinal(ctx, eng, scenario.Final, h.result.Trace) {
		h.result.AddError(msg)
	}

	return h.result, nil
}

// scenarioConfig returns the schema and type names of a scenario, loading
// the schema file when one is named. Scenario type names override the
// file's.
func scenarioConfig(s *Scenario) (*compiler.Config, error) {
	cfg := &compiler.Config{Schemas: s.Schema}
	if s.SchemaFile != "" {
		var err error
		switch strings.ToLower(filepath.Ext(s.SchemaFile)) {
		case ".yaml", ".yml":
			cfg, err = compiler.LoadYAML(s.SchemaFile)
		default:
			cfg, err = compiler.LoadCUE(s.SchemaFile)
		}
		if err != nil {
			return nil, err
		}
	}

	names := make(map[string]string, len(cfg.TypeNames)+len(s.TypeNames))
	for k, v := range cfg.TypeNames {
		names[k] = v
	}
	for k, v := range s.TypeNames {
		names[k] = v
	}
	cfg.TypeNames = names
	return cfg, nil
}

// executeStep runs one step, records its output and checks its expect
// clause.
func (h *Harness) executeStep(ctx context.Context, step Step) error {
	op, target, output, err := h.apply(ctx, step)
	if err != nil {
		return err
	}

	h.result.AddEvent(h.step, op, target, output)
	h.logger.Debug("scenario step completed",
		"step", h.step,
		"op", op,
		"target", target,
	)

	if step.Expect == nil {
		return nil
	}
	return assertOutput(fmt.Sprintf("steps[%d] (%s)", h.step, op), step.Expect, output, h.result.Trace)
}

func (h *Harness) apply(ctx context.Context, step Step) (op, target string, output any, err error) {
	eng := h.engine

	switch {
	case step.Push != nil:
		res, err := eng.Push(ctx, step.Push.Method, step.Push.Payload.Payload, nil)
		if err != nil {
			return OpPush, "", pushFailure(err), nil
		}
		return OpPush, "", summarize(res), nil

	case step.PushRecords != nil:
		records := make([]ir.Record, len(step.PushRecords.Records))
		for i, r := range step.PushRecords.Records {
			records[i] = ir.Record(r)
		}
		res := eng.PushRecords(ctx, step.PushRecords.Type, records, step.PushRecords.Method, nil)
		return OpPushRecords, step.PushRecords.Type, summarize(res), nil

	case step.Peek != nil:
		rec, ok := eng.PeekRecord(ctx, step.Peek.Type, step.Peek.ID)
		if !ok {
			return OpPeek, step.Peek.Type, nil, nil
		}
		return OpPeek, step.Peek.Type, rec, nil

	case step.PeekAll != "":
		return OpPeekAll, step.PeekAll, eng.PeekAll(ctx, step.PeekAll), nil

	case step.Unload != nil:
		rec, ok := eng.UnloadRecord(ctx, step.Unload.Type, step.Unload.ID)
		if !ok {
			return OpUnload, step.Unload.Type, nil, nil
		}
		return OpUnload, step.Unload.Type, rec, nil

	case step.UnloadAll != "":
		eng.UnloadAll(ctx, step.UnloadAll)
		return OpUnloadAll, step.UnloadAll, nil, nil

	case step.Reset:
		eng.Reset(ctx)
		return OpReset, "", nil, nil

	case step.Project != nil:
		p, err := h.projection(step.Project.Name, step.Project.Type)
		if err != nil {
			return "", "", nil, err
		}
		records, err := p.Evaluate(ctx, step.Project.Items)
		if err != nil {
			return "", "", nil, err
		}
		return OpProject, step.Project.Name, records, nil

	case step.Records != "":
		p, ok := h.projections[step.Records]
		if !ok {
			return "", "", nil, fmt.Errorf("unknown projection %q", step.Records)
		}
		return OpRecords, step.Records, p.Records(), nil

	case step.Close != "":
		p, ok := h.projections[step.Close]
		if !ok {
			return "", "", nil, fmt.Errorf("unknown projection %q", step.Close)
		}
		p.Close(ctx)
		delete(h.projections, step.Close)
		return OpClose, step.Close, nil, nil
	}

	return "", "", nil, fmt.Errorf("no operation")
}

// projection returns the named projection, creating it on first use. Its
// subscriber records every tick in the trace.
func (h *Harness) projection(name, entityType string) (*reactive.Projection, error) {
	if p, ok := h.projections[name]; ok {
		if entityType != "" && entityType != p.Type() {
			return nil, fmt.Errorf("projection %q projects %s, not %s", name, p.Type(), entityType)
		}
		return p, nil
	}

	p, err := reactive.New(h.engine, entityType, reactive.WithIDGenerator(reactive.NewFixedGenerator(name)))
	if err != nil {
		return nil, err
	}
	p.Subscribe(func(records []ir.Record) {
		h.result.AddEvent(h.step, OpTick, name, records)
	})
	h.projections[name] = p
	return p, nil
}

// summarize reduces a push result to what a trace needs.
func summarize(res *ir.Result) any {
	if res == nil {
		return nil
	}
	out := map[string]any{
		"types": res.Types(),
		"rows":  res.RowCount(),
	}
	if res.Meta != nil {
		out["meta"] = res.Meta
	}
	return out
}

// pushFailure renders a push error by code so traces do not depend on
// error message wording.
func pushFailure(err error) any {
	var pe *engine.PushError
	if errors.As(err, &pe) {
		return map[string]any{"error": string(pe.Code), "type": pe.Type}
	}
	return map[string]any{"error": err.Error()}
}

package harness

// Operation names recorded in the trace.
const (
	OpPush        = "push"
	OpPushRecords = "push_records"
	OpPeek        = "peek"
	OpPeekAll     = "peek_all"
	OpUnload      = "unload"
	OpUnloadAll   = "unload_all"
	OpReset       = "reset"
	OpProject     = "project"
	OpRecords     = "records"
	OpClose       = "close"

	// OpTick marks a projection's subscriber firing after a write.
	OpTick = "tick"
)

// TraceEvent is one observable outcome: a step's output or a projection tick.
type TraceEvent struct {
	Seq    int    `json:"seq"`
	Step   int    `json:"step"`
	Op     string `json:"op"`
	Target string `json:"target,omitempty"` // Entity type or projection name
	Output any    `json:"output,omitempty"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if every expect clause and the final state match.
	Pass bool `json:"pass"`

	// Trace contains step outputs and projection ticks in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddEvent appends an event with the next sequence number.
func (r *Result) AddEvent(step int, op, target string, output any) TraceEvent {
	ev := TraceEvent{
		Seq:    len(r.Trace) + 1,
		Step:   step,
		Op:     op,
		Target: target,
		Output: output,
	}
	r.Trace = append(r.Trace, ev)
	return ev
}

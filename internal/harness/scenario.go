package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/microstore/internal/compiler"
	"github.com/roach88/microstore/internal/ir"
)

// Scenario is a scripted sequence of engine operations run against a fresh
// in-memory store. Every step's output lands in the trace.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Schema declares the entity types inline.
	Schema compiler.Schemas `yaml:"schema,omitempty"`

	// SchemaFile points at a .cue or .yaml schema file instead of an inline
	// schema. Relative paths are resolved against the scenario file.
	SchemaFile string `yaml:"schema_file,omitempty"`

	// TypeNames are payload key -> entity type overrides.
	TypeNames map[string]string `yaml:"type_names,omitempty"`

	// Steps run in order.
	Steps []Step `yaml:"steps"`

	// Final lists the expected records per entity type after the last step,
	// in insertion order. Types not listed are not checked.
	Final map[string][]map[string]any `yaml:"final,omitempty"`
}

// Step is one operation. Exactly one operation field must be set.
type Step struct {
	Push        *PushStep        `yaml:"push,omitempty"`
	PushRecords *PushRecordsStep `yaml:"push_records,omitempty"`
	Peek        *RecordRef       `yaml:"peek,omitempty"`
	PeekAll     string           `yaml:"peek_all,omitempty"`
	Unload      *RecordRef       `yaml:"unload,omitempty"`
	UnloadAll   string           `yaml:"unload_all,omitempty"`
	Reset       bool             `yaml:"reset,omitempty"`
	Project     *ProjectStep     `yaml:"project,omitempty"`
	Records     string           `yaml:"records,omitempty"`
	Close       string           `yaml:"close,omitempty"`

	// Expect is compared against the step's output when present.
	Expect any `yaml:"expect,omitempty"`
}

// PushStep sends a payload through the interpreter.
type PushStep struct {
	Method  ir.Method `yaml:"method"`
	Payload Payload   `yaml:"payload"`
}

// PushRecordsStep pushes application records of one type.
type PushRecordsStep struct {
	Type    string           `yaml:"type"`
	Method  ir.Method        `yaml:"method"`
	Records []map[string]any `yaml:"records"`
}

// RecordRef names one row.
type RecordRef struct {
	Type string `yaml:"type"`
	ID   string `yaml:"id"`
}

// ProjectStep creates the named projection on first use and evaluates it
// with the given items.
type ProjectStep struct {
	Name  string `yaml:"name"`
	Type  string `yaml:"type"`
	Items []any  `yaml:"items"`
}

// Payload is a YAML mapping decoded with its key order kept, so payload
// keys reach the interpreter in document order.
type Payload struct {
	*ir.Payload
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (p *Payload) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: payload must be a mapping", node.Line)
	}
	p.Payload = ir.NewPayload()
	for i := 0; i+1 < len(node.Content); i += 2 {
		var value any
		if err := node.Content[i+1].Decode(&value); err != nil {
			return fmt.Errorf("payload key %q: %w", node.Content[i].Value, err)
		}
		p.Set(node.Content[i].Value, value)
	}
	return nil
}

// Op returns the name of the step's operation, or "" if none is set.
func (s Step) Op() string {
	ops := s.ops()
	if len(ops) != 1 {
		return ""
	}
	return ops[0]
}

func (s Step) ops() []string {
	var ops []string
	if s.Push != nil {
		ops = append(ops, "push")
	}
	if s.PushRecords != nil {
		ops = append(ops, "push_records")
	}
	if s.Peek != nil {
		ops = append(ops, "peek")
	}
	if s.PeekAll != "" {
		ops = append(ops, "peek_all")
	}
	if s.Unload != nil {
		ops = append(ops, "unload")
	}
	if s.UnloadAll != "" {
		ops = append(ops, "unload_all")
	}
	if s.Reset {
		ops = append(ops, "reset")
	}
	if s.Project != nil {
		ops = append(ops, "project")
	}
	if s.Records != "" {
		ops = append(ops, "records")
	}
	if s.Close != "" {
		ops = append(ops, "close")
	}
	return ops
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	if scenario.SchemaFile != "" && !filepath.IsAbs(scenario.SchemaFile) {
		scenario.SchemaFile = filepath.Join(filepath.Dir(path), scenario.SchemaFile)
	}
	if scenario.SchemaFile != "" {
		if _, err := os.Stat(scenario.SchemaFile); err != nil {
			return nil, fmt.Errorf("invalid scenario: schema file not found: %s", scenario.SchemaFile)
		}
	}

	return scenario, nil
}

// ParseScenario parses scenario YAML with unknown-field rejection.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	switch {
	case len(s.Schema) == 0 && s.SchemaFile == "":
		return fmt.Errorf("schema or schema_file is required")
	case len(s.Schema) > 0 && s.SchemaFile != "":
		return fmt.Errorf("schema and schema_file are mutually exclusive")
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if err := validateStep(i, step); err != nil {
			return err
		}
	}

	return nil
}

// validateStep validates a single step based on its operation.
func validateStep(index int, s Step) error {
	ops := s.ops()
	switch len(ops) {
	case 0:
		return fmt.Errorf("steps[%d]: an operation is required", index)
	case 1:
	default:
		return fmt.Errorf("steps[%d]: more than one operation (%s)", index, strings.Join(ops, ", "))
	}

	switch {
	case s.Push != nil:
		if s.Push.Payload.Payload == nil {
			return fmt.Errorf("steps[%d]: payload is required for push", index)
		}
	case s.PushRecords != nil:
		if s.PushRecords.Type == "" {
			return fmt.Errorf("steps[%d]: type is required for push_records", index)
		}
	case s.Peek != nil:
		if s.Peek.Type == "" {
			return fmt.Errorf("steps[%d]: type is required for peek", index)
		}
	case s.Unload != nil:
		if s.Unload.Type == "" {
			return fmt.Errorf("steps[%d]: type is required for unload", index)
		}
	case s.Project != nil:
		if s.Project.Name == "" {
			return fmt.Errorf("steps[%d]: name is required for project", index)
		}
	}

	return nil
}

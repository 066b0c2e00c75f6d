package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/microstore/internal/compiler"
)

// TypeSummary describes one compiled entity type.
type TypeSummary struct {
	Type       string   `json:"type"`
	PrimaryKey string   `json:"primary_key"`
	Fields     []string `json:"fields"`
	Transforms []string `json:"transforms,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid     bool              `json:"valid"`
	Types     []TypeSummary     `json:"types,omitempty"`
	TypeNames map[string]string `json:"type_names,omitempty"`
	Line      int               `json:"line,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <schema>",
		Short: "Compile a schema and report its entity types",
		Long: `Compile a CUE or YAML schema and report every entity type with its
resolved primary key.

Fails when a type has more than one string primary key, has neither an
explicit primary key nor a string 'id' field, or declares an unknown cell type.

Examples:
  microstore validate ./schema.cue
  microstore validate ./schemas/ --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	cfg, compiled, err := CompileSchemas(path)
	if err != nil {
		return outputValidateError(formatter, err)
	}

	result := ValidationResult{
		Valid:     true,
		Types:     summarizeTypes(compiled),
		TypeNames: cfg.TypeNames,
	}
	for _, ts := range result.Types {
		formatter.Logger.Debug("compiled type", "type", ts.Type, "primary_key", ts.PrimaryKey, "fields", len(ts.Fields))
	}

	return formatter.Success(result, func(w io.Writer) error {
		fmt.Fprintf(w, "\u2713 Schema valid: %d type(s)\n", len(result.Types))
		for _, ts := range result.Types {
			fmt.Fprintf(w, "  %s (primary key: %s, %d field(s))\n", ts.Type, ts.PrimaryKey, len(ts.Fields))
		}
		return nil
	})
}

// summarizeTypes lists the compiled types in sorted order.
func summarizeTypes(compiled *compiler.Compiled) []TypeSummary {
	types := compiled.Schemas.Types()
	out := make([]TypeSummary, 0, len(types))
	for _, typ := range types {
		schema := compiled.Schemas[typ]
		ts := TypeSummary{
			Type:       typ,
			PrimaryKey: compiled.PrimaryKeys[typ],
			Fields:     schema.FieldNames(),
		}
		for _, name := range ts.Fields {
			if tr := schema[name].Transform; tr != "" {
				ts.Transforms = append(ts.Transforms, name+":"+tr)
			}
		}
		out = append(out, ts)
	}
	return out
}

// outputValidateError reports a load or compile failure. Missing files are
// command errors (exit 2); invalid schemas are validation failures (exit 1).
func outputValidateError(formatter *OutputFormatter, err error) error {
	loadErr, exitCode := asLoadError(err)

	if formatter.JSON() {
		var details any
		if loadErr.Pos.IsValid() {
			details = ValidationResult{Valid: false, Line: loadErr.Pos.Line()}
		}
		return formatter.Fail(exitCode, loadErr.Code, loadErr.Message, details)
	}

	fmt.Fprintln(formatter.Writer, "\u2717 Validation failed")
	if loadErr.Pos.IsValid() {
		fmt.Fprintf(formatter.Writer, "line %d\n", loadErr.Pos.Line())
	}
	fmt.Fprintf(formatter.Writer, "  %s: %s\n", loadErr.Code, loadErr.Message)
	return Exitf(exitCode, "%s: %s", loadErr.Code, loadErr.Message)
}

package cli

import (
	"fmt"
	"io"
	"maps"

	"github.com/spf13/cobra"

	"github.com/roach88/microstore/internal/interpreter"
	"github.com/roach88/microstore/internal/ir"
)

// InterpretOptions holds flags for the interpret command.
type InterpretOptions struct {
	*RootOptions
	Schema    string            // optional schema file supplying type names
	TypeNames map[string]string // payload key -> entity type overrides
}

// NewInterpretCommand creates the interpret command.
func NewInterpretCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InterpretOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "interpret <payload.json>",
		Short: "Split a payload into typed batches",
		Long: `Run the REST interpreter over a JSON payload and print the typed
batches it produces, without touching a store.

Top-level keys become entity types by singularizing and camel-casing them;
the "meta" key is reported separately.

Examples:
  microstore interpret ./orders.json
  microstore interpret ./staff.json --type-name staff=person
  microstore interpret ./orders.json --schema ./schema.cue --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInterpret(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Schema, "schema", "", "schema file whose type_names to use")
	cmd.Flags().StringToStringVar(&opts.TypeNames, "type-name", nil, "payload key to entity type override (key=type)")

	return cmd
}

func runInterpret(opts *InterpretOptions, payloadPath string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	names := map[string]string{}
	if opts.Schema != "" {
		cfg, err := LoadSchemas(opts.Schema)
		if err != nil {
			return failLoad(formatter, err)
		}
		maps.Copy(names, cfg.TypeNames)
	}
	maps.Copy(names, opts.TypeNames)

	payload, err := LoadPayload(payloadPath)
	if err != nil {
		return failLoad(formatter, err)
	}

	interpret := interpreter.REST(interpreter.NewNaming(interpreter.WithTypeNames(names)))
	result, err := interpret(payload, nil)
	if err != nil {
		return formatter.Fail(ExitFailure, ErrCodePushFailed, err.Error(), nil)
	}
	formatter.Logger.Debug("interpreted payload", "path", payloadPath, "batches", len(result.Batches), "rows", result.RowCount())

	return formatter.Success(result, func(w io.Writer) error {
		return writeBatches(w, result)
	})
}

// writeBatches prints one header per batch followed by its rows as
// canonical JSON.
func writeBatches(w io.Writer, result *ir.Result) error {
	if len(result.Batches) == 0 {
		fmt.Fprintln(w, "No batches.")
	}
	for _, b := range result.Batches {
		fmt.Fprintf(w, "%s (%d row(s))\n", b.Type, len(b.Rows))
		for _, row := range b.Rows {
			if err := writeCanonicalLine(w, row); err != nil {
				return err
			}
		}
	}
	if result.Meta != nil {
		fmt.Fprintln(w, "meta")
		return writeCanonicalLine(w, result.Meta)
	}
	return nil
}

func writeCanonicalLine(w io.Writer, v any) error {
	data, err := ir.MarshalCanonical(v)
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	fmt.Fprintf(w, "  %s\n", data)
	return nil
}

// failLoad reports a load error with its code.
func failLoad(formatter *OutputFormatter, err error) error {
	loadErr, exitCode := asLoadError(err)
	return formatter.Fail(exitCode, loadErr.Code, loadErr.Message, nil)
}

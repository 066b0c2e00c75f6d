package cli

import (
	"errors"
	"fmt"
	"io"
	"maps"

	"github.com/spf13/cobra"

	"github.com/roach88/microstore/internal/engine"
	"github.com/roach88/microstore/internal/interpreter"
	"github.com/roach88/microstore/internal/ir"
)

// LoadOptions holds flags for the load command.
type LoadOptions struct {
	*RootOptions
	Method    string
	TypeNames map[string]string
}

// TableDump is the stored records of one entity type.
type TableDump struct {
	Type    string      `json:"type"`
	Records []ir.Record `json:"records"`
}

// LoadResult is the load command's output.
type LoadResult struct {
	Pushed int         `json:"pushed"` // rows written across all payloads
	Tables []TableDump `json:"tables"`
}

// NewLoadCommand creates the load command.
func NewLoadCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LoadOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "load <schema> <payload.json>...",
		Short: "Push payloads into an in-memory store and print its tables",
		Long: `Push one or more JSON payloads, in order, into a fresh in-memory store
governed by the schema, then print every entity type's stored records.

The method selects the write strategy: DELETE removes rows, PATCH merges
into existing rows, anything else replaces them.

Exit codes:
  0 - All payloads pushed
  1 - A payload could not be interpreted or written
  2 - Command error (missing files, etc.)

Examples:
  microstore load ./schema.cue ./orders.json
  microstore load ./schema.yaml ./orders.json ./patch.json --method PATCH`,
		Args:          cobra.MinimumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoad(opts, args[0], args[1:], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Method, "method", "m", string(ir.MethodPost), "write method (GET|POST|PUT|PATCH|DELETE)")
	cmd.Flags().StringToStringVar(&opts.TypeNames, "type-name", nil, "payload key to entity type override (key=type)")

	return cmd
}

func runLoad(opts *LoadOptions, schemaPath string, payloadPaths []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	cfg, err := LoadSchemas(schemaPath)
	if err != nil {
		return failLoad(formatter, err)
	}

	payloads := make([]*ir.Payload, len(payloadPaths))
	for i, path := range payloadPaths {
		if payloads[i], err = LoadPayload(path); err != nil {
			return failLoad(formatter, err)
		}
	}

	names := maps.Clone(cfg.TypeNames)
	if names == nil {
		names = map[string]string{}
	}
	maps.Copy(names, opts.TypeNames)

	ctx := cmd.Context()
	eng, err := engine.New(ctx, cfg.Schemas,
		engine.WithNaming(interpreter.NewNaming(interpreter.WithTypeNames(names))),
		engine.WithLogger(opts.logger()),
	)
	if err != nil {
		return failLoad(formatter, convertCompileError(err, ErrCodeSchemaInvalid))
	}
	defer eng.Close()

	method := ir.Method(opts.Method)
	result := LoadResult{}
	for i, p := range payloads {
		res, err := eng.Push(ctx, method, p, nil)
		if err != nil {
			return formatter.Fail(ExitFailure, ErrCodePushFailed,
				fmt.Sprintf("%s: %v", payloadPaths[i], err), pushErrorDetails(err))
		}
		formatter.Logger.Debug("pushed payload", "path", payloadPaths[i], "method", method.Normalize(), "rows", res.RowCount())
		result.Pushed += res.RowCount()
	}

	for _, typ := range eng.Types() {
		result.Tables = append(result.Tables, TableDump{Type: typ, Records: eng.PeekAll(ctx, typ)})
	}

	return formatter.Success(result, func(w io.Writer) error {
		fmt.Fprintf(w, "Pushed %d row(s)\n", result.Pushed)
		for _, t := range result.Tables {
			fmt.Fprintf(w, "%s (%d record(s))\n", t.Type, len(t.Records))
			for _, rec := range t.Records {
				if err := writeCanonicalLine(w, rec); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// pushErrorDetails exposes a push error's code and location.
func pushErrorDetails(err error) any {
	var pe *engine.PushError
	if !errors.As(err, &pe) {
		return nil
	}
	details := map[string]string{"code": string(pe.Code)}
	if pe.Type != "" {
		details["type"] = pe.Type
	}
	if pe.RowID != "" {
		details["row_id"] = pe.RowID
	}
	return details
}

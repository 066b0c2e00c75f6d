package interpreter

import (
	"fmt"

	"github.com/roach88/microstore/internal/ir"
)

// MetaKey is the top-level key whose value is returned as Result.Meta.
const MetaKey = "meta"

// Func classifies a payload into typed batches. It must be a pure function
// of its inputs.
type Func func(payload *ir.Payload, opts ir.Options) (*ir.Result, error)

// REST returns the default interpreter for REST-shaped payloads:
//
//	{"orders": [{...}, {...}], "customer": {...}, "meta": {...}}
//
// Each top-level key other than "meta" becomes one batch, in key order.
// The entity type is naming.Singular(key). A list yields one row per
// element; any other value is the sole row and must be an object, so a
// null section fails like any other non-object row.
func REST(naming *Naming) Func {
	return func(payload *ir.Payload, _ ir.Options) (*ir.Result, error) {
		result := &ir.Result{Batches: []ir.Batch{}}

		for key, content := range payload.All() {
			if key == MetaKey {
				result.Meta = content
				continue
			}

			rows, err := toRows(content)
			if err != nil {
				return nil, fmt.Errorf("interpret %q: %w", key, err)
			}
			result.Batches = append(result.Batches, ir.Batch{
				Type: naming.Singular(key),
				Rows: rows,
			})
		}

		return result, nil
	}
}

func toRows(content any) ([]ir.Row, error) {
	switch v := content.(type) {
	case []any:
		rows := make([]ir.Row, 0, len(v))
		for i, item := range v {
			row, err := toRow(item)
			if err != nil {
				return nil, fmt.Errorf("item %d: %w", i, err)
			}
			rows = append(rows, row)
		}
		return rows, nil
	case []map[string]any:
		rows := make([]ir.Row, len(v))
		for i, item := range v {
			rows[i] = ir.Row(item).Clone()
		}
		return rows, nil
	case []ir.Row:
		rows := make([]ir.Row, len(v))
		for i, item := range v {
			rows[i] = item.Clone()
		}
		return rows, nil
	case []ir.Record:
		rows := make([]ir.Row, len(v))
		for i, item := range v {
			rows[i] = ir.Row(item).Clone()
		}
		return rows, nil
	default:
		row, err := toRow(content)
		if err != nil {
			return nil, err
		}
		return []ir.Row{row}, nil
	}
}

func toRow(item any) (ir.Row, error) {
	switch v := item.(type) {
	case map[string]any:
		return ir.Row(v).Clone(), nil
	case ir.Row:
		return v.Clone(), nil
	case ir.Record:
		return ir.Row(v).Clone(), nil
	case *ir.Payload:
		row := ir.Row{}
		for k, val := range v.All() {
			row[k] = val
		}
		return row, nil
	default:
		return nil, fmt.Errorf("expected an object, got %T", item)
	}
}

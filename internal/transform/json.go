package transform

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/microstore/internal/ir"
)

// JSONName is the registry name of the built-in structured-value transform.
const JSONName = "json"

// JSON stores a composite value (object, list, ...) as canonical JSON text in
// a string cell and decodes it on the way out.
var JSON Field = jsonTransform{}

var builtins = map[string]Field{
	JSONName: JSON,
}

type jsonTransform struct{}

func (jsonTransform) Serialize(value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	b, err := ir.MarshalCanonical(value)
	if err != nil {
		return nil, fmt.Errorf("json transform: %w", err)
	}
	return string(b), nil
}

func (jsonTransform) Deserialize(value any) (any, error) {
	var raw []byte
	switch v := value.(type) {
	case nil:
		return nil, nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return nil, fmt.Errorf("json transform: expected string cell, got %T", value)
	}
	if len(raw) == 0 {
		return nil, nil
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("json transform: %w", err)
	}
	return out, nil
}

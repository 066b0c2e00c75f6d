package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"iter"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Payload is a decoded API response body. Top-level keys keep the order in
// which they were set or decoded, so interpreters emit batches in wire order.
// Nested values are plain Go values (map[string]any, []any, float64, ...).
//
// The zero value is not usable; use NewPayload or ParsePayload. A nil
// *Payload behaves as an empty payload for reads.
type Payload struct {
	m *orderedmap.OrderedMap[string, any]
}

// NewPayload creates an empty payload.
func NewPayload() *Payload {
	return &Payload{m: orderedmap.New[string, any]()}
}

// ParsePayload decodes a JSON object into a payload, preserving key order.
// A JSON null or empty input yields an empty payload.
func ParsePayload(data []byte) (*Payload, error) {
	p := NewPayload()
	if err := p.UnmarshalJSON(data); err != nil {
		return nil, err
	}
	return p, nil
}

// Set stores value under key. A key that already exists keeps its position.
// Returns the payload for chaining.
func (p *Payload) Set(key string, value any) *Payload {
	p.m.Set(key, value)
	return p
}

// Get returns the value stored under key.
func (p *Payload) Get(key string) (any, bool) {
	if p == nil || p.m == nil {
		return nil, false
	}
	return p.m.Get(key)
}

// Len returns the number of top-level keys.
func (p *Payload) Len() int {
	if p == nil || p.m == nil {
		return 0
	}
	return p.m.Len()
}

// Keys returns the top-level keys in order.
func (p *Payload) Keys() []string {
	keys := make([]string, 0, p.Len())
	for k := range p.All() {
		keys = append(keys, k)
	}
	return keys
}

// All iterates the top-level entries in order.
func (p *Payload) All() iter.Seq2[string, any] {
	return func(yield func(string, any) bool) {
		if p == nil || p.m == nil {
			return
		}
		for pair := p.m.Oldest(); pair != nil; pair = pair.Next() {
			if !yield(pair.Key, pair.Value) {
				return
			}
		}
	}
}

// MarshalJSON implements json.Marshaler, writing keys in order.
func (p *Payload) MarshalJSON() ([]byte, error) {
	if p == nil || p.m == nil {
		return []byte("{}"), nil
	}
	return p.m.MarshalJSON()
}

// UnmarshalJSON implements json.Unmarshaler. Only objects (or null) are accepted
// at the top level.
func (p *Payload) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if p.m == nil {
		p.m = orderedmap.New[string, any]()
	}
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	if trimmed[0] != '{' {
		return fmt.Errorf("payload must be a JSON object")
	}
	if err := p.m.UnmarshalJSON(trimmed); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	return nil
}

// String renders the payload as compact JSON, for logs.
func (p *Payload) String() string {
	b, err := json.Marshal(p)
	if err != nil {
		return fmt.Sprintf("<payload: %v>", err)
	}
	return string(b)
}

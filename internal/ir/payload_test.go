package ir

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePayloadKeepsKeyOrder(t *testing.T) {
	p, err := ParsePayload([]byte(`{"zones":[],"orders":[{"id":"1"}],"meta":{"total":1},"accounts":{"id":"a"}}`))
	require.NoError(t, err)

	assert.Equal(t, []string{"zones", "orders", "meta", "accounts"}, p.Keys())

	orders, ok := p.Get("orders")
	require.True(t, ok)
	assert.Equal(t, []any{map[string]any{"id": "1"}}, orders)
}

func TestParsePayloadNullAndEmpty(t *testing.T) {
	for _, input := range []string{"", "null", "  "} {
		p, err := ParsePayload([]byte(input))
		require.NoError(t, err, "input %q", input)
		assert.Equal(t, 0, p.Len())
	}
}

func TestParsePayloadRejectsNonObject(t *testing.T) {
	_, err := ParsePayload([]byte(`[1,2]`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "object")
}

func TestPayloadSetKeepsFirstPosition(t *testing.T) {
	p := NewPayload().Set("a", 1).Set("b", 2).Set("a", 3)

	assert.Equal(t, []string{"a", "b"}, p.Keys())
	v, _ := p.Get("a")
	assert.Equal(t, 3, v)
}

func TestPayloadMarshalJSONInOrder(t *testing.T) {
	p := NewPayload().Set("orders", []any{}).Set("meta", map[string]any{"total": 0})

	b, err := json.Marshal(p)
	require.NoError(t, err)
	assert.Equal(t, `{"orders":[],"meta":{"total":0}}`, string(b))
}

func TestNilPayloadReads(t *testing.T) {
	var p *Payload
	assert.Equal(t, 0, p.Len())
	assert.Empty(t, p.Keys())
	_, ok := p.Get("x")
	assert.False(t, ok)
}

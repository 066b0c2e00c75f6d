package engine

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/microstore/internal/compiler"
	"github.com/roach88/microstore/internal/interpreter"
	"github.com/roach88/microstore/internal/ir"
	"github.com/roach88/microstore/internal/store"
	"github.com/roach88/microstore/internal/testutil"
	"github.com/roach88/microstore/internal/transform"
)

func newTestEngine(t *testing.T, opts ...EngineOption) *Engine {
	t.Helper()
	opts = append([]EngineOption{WithLogger(testutil.DiscardLogger())}, opts...)
	e, err := New(context.Background(), testutil.OrderSchemas(), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { e.Close() })
	return e
}

func parsePayload(t *testing.T, data string) *ir.Payload {
	t.Helper()
	p, err := ir.ParsePayload([]byte(data))
	require.NoError(t, err)
	return p
}

func TestNew_ResolvesPrimaryKeys(t *testing.T) {
	e := newTestEngine(t)

	pk, ok := e.PrimaryKey("order")
	assert.True(t, ok)
	assert.Equal(t, "id", pk)

	pk, ok = e.PrimaryKey("customer")
	assert.True(t, ok)
	assert.Equal(t, "email", pk)

	_, ok = e.PrimaryKey("invoice")
	assert.False(t, ok)

	assert.Equal(t, []string{"customer", "order", "person"}, e.Types())
	assert.Equal(t, []string{"customer", "order", "person"}, e.Store().Tables())
}

func TestNew_InvalidSchemaFails(t *testing.T) {
	e, err := New(context.Background(), compiler.Schemas{
		"widget": {"name": {Type: store.CellString}},
	}, WithLogger(testutil.DiscardLogger()))

	require.Error(t, err)
	assert.Nil(t, e)

	var compileErr *compiler.CompileError
	require.True(t, errors.As(err, &compileErr))
	assert.Equal(t, "widget", compileErr.Type)
}

func TestNew_WarnsOnUnknownTransform(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	e, err := New(context.Background(), compiler.Schemas{
		"order": {
			"id":   {Type: store.CellString},
			"tags": {Type: store.CellString, Transform: "csv"},
		},
	}, WithLogger(logger))
	require.NoError(t, err)
	defer e.Close()

	assert.Contains(t, buf.String(), "unknown field transform")
	assert.Contains(t, buf.String(), "transform=csv")
}

func TestLookups(t *testing.T) {
	upper := transform.FieldFuncs{}
	rt := transform.RecordFuncs{}
	e := newTestEngine(t,
		WithFieldTransforms(map[string]transform.Field{"upper": upper}),
		WithRecordTransforms(map[string]transform.Record{"order": rt}),
	)

	schema, ok := e.Schema("order")
	require.True(t, ok)
	assert.Equal(t, "json", schema["items"].Transform)
	_, ok = e.Schema("nope")
	assert.False(t, ok)

	_, ok = e.FieldTransform("upper")
	assert.True(t, ok)
	_, ok = e.FieldTransform("json")
	assert.True(t, ok, "built-in is always present")
	_, ok = e.FieldTransform("nope")
	assert.False(t, ok)

	_, ok = e.RecordTransform("order")
	assert.True(t, ok)
	_, ok = e.RecordTransform("person")
	assert.False(t, ok)

	assert.NotNil(t, e.Queries())
	assert.NotNil(t, e.Naming())
	assert.NotNil(t, e.Logger())
}

func TestBuiltinJSONCannotBeReplaced(t *testing.T) {
	called := false
	e := newTestEngine(t, WithFieldTransforms(map[string]transform.Field{
		"json": transform.FieldFuncs{SerializeFunc: func(any) (any, error) {
			called = true
			return "x", nil
		}},
	}))

	schema, _ := e.Schema("order")
	row, err := e.Serialize(ir.Row{"id": "1", "items": []any{"a"}}, schema)
	require.NoError(t, err)

	assert.False(t, called)
	assert.Equal(t, `["a"]`, row["items"])
}

func TestClose(t *testing.T) {
	e, err := New(context.Background(), testutil.OrderSchemas(), WithLogger(testutil.DiscardLogger()))
	require.NoError(t, err)
	assert.NoError(t, e.Close())
	assert.NoError(t, (&Engine{}).Close())
}

func TestCustomNamingAndInterpreter(t *testing.T) {
	var seen []string
	custom := func(p *ir.Payload, opts ir.Options) (*ir.Result, error) {
		seen = p.Keys()
		return interpreter.REST(interpreter.NewNaming(interpreter.WithTypeName("folks", "person")))(p, opts)
	}
	e := newTestEngine(t,
		WithNaming(interpreter.NewNaming(interpreter.WithTypeName("folks", "person"))),
		WithInterpreter(custom),
	)

	result := e.PushRecord(context.Background(), "person", ir.Record{"id": "p1", "name": "Ann"}, ir.MethodPost, nil)
	require.NotNil(t, result)

	assert.Equal(t, []string{"folks"}, seen)
	rec, ok := e.PeekRecord(context.Background(), "person", "p1")
	require.True(t, ok)
	assert.Equal(t, "Ann", rec["name"])
}

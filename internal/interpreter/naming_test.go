package interpreter

import (
	"testing"

	"github.com/iancoleman/strcase"
	"github.com/stretchr/testify/assert"
)

func TestCamelCase(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"order", "order"},
		{"order_item", "orderItem"},
		{"order-item", "orderItem"},
		{"Order Item", "orderItem"},
		{"orderItem", "orderItem"},
		{"OrderItem", "orderItem"},
		{"HTTPRequest", "httpRequest"},
		{"line item 2", "lineItem2"},
		{"__weird__", "weird"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, CamelCase(tt.in))
		})
	}
}

// Payload keys are cased the way lodash camelCase does it. strcase only
// handles ASCII and does not split acronyms, so these keys come out wrong
// there and are covered by splitWords instead.
func TestCamelCase_KeysStrcaseMangles(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"HTTPRequest", "httpRequest"},
		{"__weird__", "weird"},
		{"caf\u00e9_items", "caf\u00e9Items"},
		{"\u00e9tape", "\u00e9tape"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, CamelCase(tt.in))
			assert.NotEqual(t, tt.want, strcase.ToLowerCamel(tt.in))
		})
	}
}

// For plain ASCII snake, kebab and space separated keys both agree.
func TestCamelCase_AgreesWithStrcaseOnASCII(t *testing.T) {
	for _, in := range []string{"order", "order_item", "order-item", "Order Item", "orderItem", "OrderItem", "line_items_2"} {
		assert.Equal(t, strcase.ToLowerCamel(in), CamelCase(in), in)
	}
}

func TestNaming_Singular(t *testing.T) {
	n := NewNaming()

	assert.Equal(t, "order", n.Singular("orders"))
	assert.Equal(t, "order", n.Singular("order"))
	assert.Equal(t, "orderItem", n.Singular("order_items"))
	assert.Equal(t, "orderItem", n.Singular("orderItems"))
	assert.Equal(t, "person", n.Singular("people"))
	assert.Equal(t, "status", n.Singular("statuses"))
}

func TestNaming_Plural(t *testing.T) {
	n := NewNaming()

	assert.Equal(t, "orders", n.Plural("order"))
	assert.Equal(t, "orderItems", n.Plural("orderItem"))
	assert.Equal(t, "people", n.Plural("person"))
}

func TestNaming_RoundTrip(t *testing.T) {
	n := NewNaming()
	for _, typ := range []string{"order", "orderItem", "person", "status", "category"} {
		assert.Equal(t, typ, n.Singular(n.Plural(typ)), typ)
	}
}

func TestNaming_Overrides(t *testing.T) {
	n := NewNaming(
		WithTypeName("criteria", "criterion"),
		WithTypeNames(map[string]string{"pedidos": "pedido"}),
	)

	assert.Equal(t, "criterion", n.Singular("criteria"))
	assert.Equal(t, "criteria", n.Plural("criterion"))
	assert.Equal(t, "pedido", n.Singular("pedidos"))
	assert.Equal(t, "pedidos", n.Plural("pedido"))

	// Non-overridden names still go through inflection
	assert.Equal(t, "order", n.Singular("orders"))
}

func TestNaming_NilUsesInflection(t *testing.T) {
	var n *Naming
	assert.Equal(t, "order", n.Singular("orders"))
	assert.Equal(t, "orders", n.Plural("order"))
}

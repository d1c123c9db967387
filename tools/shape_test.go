package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequiredAndOptionalParametersPreserveOrder(t *testing.T) {
	tree := []Parameter{
		{Name: "base", Required: true, Shape: Shape{Kind: KindPrimitive, Primitive: PrimitiveNumber}},
		{Name: "label", Required: false, Shape: Shape{Kind: KindPrimitive, Primitive: PrimitiveString}, Default: "x"},
		{Name: "exponent", Required: true, Shape: Shape{Kind: KindPrimitive, Primitive: PrimitiveNumber}},
	}

	required := RequiredParameters(tree)
	optional := OptionalParameters(tree)

	assert.Equal(t, []string{"base", "exponent"}, names(required))
	assert.Equal(t, []string{"label"}, names(optional))
}

func TestRequiredParametersEmptyWhenNoneMatch(t *testing.T) {
	tree := []Parameter{{Name: "a", Required: false}}
	assert.Empty(t, RequiredParameters(tree))
	assert.Len(t, OptionalParameters(tree), 1)
}

func names(params []Parameter) []string {
	out := make([]string, len(params))
	for i, p := range params {
		out[i] = p.Name
	}
	return out
}

package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileParameterSchemaAndValidate(t *testing.T) {
	tree := []Parameter{
		{Name: "base", Required: true, Shape: Shape{Kind: KindPrimitive, Primitive: PrimitiveNumber}},
		{Name: "label", Required: false, Shape: Shape{Kind: KindPrimitive, Primitive: PrimitiveString}},
	}
	sch, err := compileParameterSchema("calc", tree)
	require.NoError(t, err)

	err = validateArgs(sch, map[string]any{"base": 2.0, "label": "x"})
	assert.NoError(t, err)

	err = validateArgs(sch, map[string]any{"label": "x"})
	assert.Error(t, err, "missing required field must fail validation")

	err = validateArgs(sch, map[string]any{"base": "not-a-number"})
	assert.Error(t, err, "wrong type must fail validation")
}

func TestValidateArgsNilSchemaAlwaysPasses(t *testing.T) {
	assert.NoError(t, validateArgs(nil, map[string]any{"anything": true}))
}

func TestShapeToJSONSchemaNestedObjectAndArray(t *testing.T) {
	tree := []Parameter{
		{
			Name: "plan",
			Required: true,
			Shape: Shape{
				Kind: KindObject,
				Fields: map[string]Shape{
					"steps": {
						Kind: KindArray,
						Item: &Shape{Kind: KindPrimitive, Primitive: PrimitiveString},
					},
				},
			},
		},
	}
	sch, err := compileParameterSchema("runner", tree)
	require.NoError(t, err)

	err = validateArgs(sch, map[string]any{
		"plan": map[string]any{"steps": []any{"a", "b"}},
	})
	assert.NoError(t, err)

	err = validateArgs(sch, map[string]any{
		"plan": map[string]any{"steps": []any{1, 2}},
	})
	assert.Error(t, err, "array items of the wrong primitive type must fail validation")
}

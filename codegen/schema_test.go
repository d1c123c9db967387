package codegen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentcore/runtime/tools"
)

func TestSchemaRegistryObservesPrimitive(t *testing.T) {
	r := NewSchemaRegistry()
	r.Observe("calc_xm", 8.0)

	shape, ok := r.ShapeFor("calc_xm")
	require.True(t, ok)
	assert.Equal(t, tools.KindPrimitive, shape.Kind)
	assert.Equal(t, tools.PrimitiveNumber, shape.Primitive)
}

func TestSchemaRegistryDistinguishesNumberFromInteger(t *testing.T) {
	r := NewSchemaRegistry()
	r.Observe("search", map[string]any{
		"hits": []any{map[string]any{"title": "a", "score": 0.9}},
	})
	r.Observe("search", map[string]any{
		"hits": []any{map[string]any{"title": "b"}},
		"latency_ms": 12,
	})

	shape, ok := r.ShapeFor("search")
	require.True(t, ok)
	require.Equal(t, tools.KindObject, shape.Kind)
	require.Equal(t, 2, r.samples["search"])

	hits := shape.Fields["hits"]
	require.Equal(t, tools.KindArray, hits.Kind)
	item := *hits.Item
	require.Equal(t, tools.KindObject, item.Kind)
	assert.False(t, item.Fields["title"].Optional)
	assert.Equal(t, tools.PrimitiveString, item.Fields["title"].Primitive)
	assert.True(t, item.Fields["score"].Optional)
	assert.Equal(t, tools.PrimitiveNumber, item.Fields["score"].Primitive)

	latency := shape.Fields["latency_ms"]
	assert.True(t, latency.Optional)
	assert.Equal(t, tools.PrimitiveInteger, latency.Primitive)
}

func TestSchemaRegistryUnionMergesNewPrimitiveType(t *testing.T) {
	r := NewSchemaRegistry()
	r.Observe("flexible", 1.0)
	r.Observe("flexible", "a string now")

	shape, ok := r.ShapeFor("flexible")
	require.True(t, ok)
	assert.Equal(t, tools.KindUnion, shape.Kind)
	assert.Len(t, shape.Variants, 2)
}

func TestSchemaRegistryObjectMergeMakesMissingFieldsOptional(t *testing.T) {
	r := NewSchemaRegistry()
	r.Observe("search", map[string]any{"title": "a", "url": "http://x"})
	r.Observe("search", map[string]any{"title": "b"})

	shape, ok := r.ShapeFor("search")
	require.True(t, ok)
	require.Equal(t, tools.KindObject, shape.Kind)
	assert.True(t, shape.Fields["url"].Optional)
	assert.False(t, shape.Fields["title"].Optional)
}

func TestSchemaRegistryArrayMergesItemShapes(t *testing.T) {
	r := NewSchemaRegistry()
	r.Observe("list_items", []any{"a", "b"})

	shape, ok := r.ShapeFor("list_items")
	require.True(t, ok)
	require.Equal(t, tools.KindArray, shape.Kind)
	assert.Equal(t, tools.PrimitiveString, shape.Item.Primitive)
}

func TestSchemaRegistryStopsSamplingAtCap(t *testing.T) {
	r := NewSchemaRegistry()
	for i := 0; i < maxSamplesPerTool+10; i++ {
		r.Observe("busy", float64(i))
	}
	assert.Equal(t, maxSamplesPerTool, r.samples["busy"])
}

func TestSchemaRegistryUnknownToolHasNoShape(t *testing.T) {
	r := NewSchemaRegistry()
	_, ok := r.ShapeFor("never-seen")
	assert.False(t, ok)
}

func TestMergeShapeIsCommutative(t *testing.T) {
	a := tools.Shape{Kind: tools.KindPrimitive, Primitive: tools.PrimitiveString}
	b := tools.Shape{Kind: tools.KindPrimitive, Primitive: tools.PrimitiveNumber}

	ab := mergeShape(a, b)
	ba := mergeShape(b, a)
	assert.True(t, shapeEqual(ab, tools.Shape{Kind: tools.KindUnion, Variants: []tools.Shape{a, b}}) ||
		shapeEqual(ab, tools.Shape{Kind: tools.KindUnion, Variants: []tools.Shape{b, a}}))
	assert.Equal(t, len(ab.Variants), len(ba.Variants))
}

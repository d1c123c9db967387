// Package codegen implements the CodeGen Sub-Agent and Return-Schema
// Registry: prompt synthesis for a single
// synthetic source file exposing tools as callable methods/functions,
// and a registry that learns each tool's return shape by union-merging
// observed values.
package codegen

import (
	"sync"

	"github.com/agentcore/runtime/tools"
)

// maxSamplesPerTool caps the number of observations folded into a
// tool's learned shape.
const maxSamplesPerTool = 100

// maxShapeDepth bounds the recursion depth used both when merging an
// observed value into a Shape and when later expanding a shape into
// doc text, so a self-referential shape terminates.
const maxShapeDepth = 8

// SchemaRegistry learns each tool's return tools.Shape from the values
// the Dispatcher actually observes, implementing
// tools.SchemaObserver so it can be wired directly into a
// tools.Dispatcher without tools importing this package.
type SchemaRegistry struct {
	mu sync.Mutex
	shapes map[string]tools.Shape
	samples map[string]int
}

// NewSchemaRegistry constructs an empty SchemaRegistry.
func NewSchemaRegistry() *SchemaRegistry {
	return &SchemaRegistry{
		shapes: map[string]tools.Shape{},
		samples: map[string]int{},
	}
}

// Observe folds value into toolName's learned shape. Once a tool has
// reached maxSamplesPerTool observations, further calls are no-ops —
// the learned shape is assumed to have converged.
func (r *SchemaRegistry) Observe(toolName string, value any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.samples[toolName] >= maxSamplesPerTool {
		return
	}
	r.samples[toolName]++
	observed := shapeOf(value, 0)
	existing, ok := r.shapes[toolName]
	if !ok {
		r.shapes[toolName] = observed
		return
	}
	r.shapes[toolName] = mergeShape(existing, observed)
}

// ShapeFor returns toolName's learned shape, if any observation has
// been recorded.
func (r *SchemaRegistry) ShapeFor(toolName string) (tools.Shape, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.shapes[toolName]
	return s, ok
}

// shapeOf infers a tools.Shape from a runtime Go value (the shape of a
// tool's actual return), bounding recursion at maxShapeDepth.
func shapeOf(v any, depth int) tools.Shape {
	if depth >= maxShapeDepth {
		return tools.Shape{Kind: tools.KindUnknown}
	}
	switch val := v.(type) {
	case nil:
		return tools.Shape{Kind: tools.KindPrimitive, Primitive: tools.PrimitiveNull}
	case string:
		return tools.Shape{Kind: tools.KindPrimitive, Primitive: tools.PrimitiveString}
	case bool:
		return tools.Shape{Kind: tools.KindPrimitive, Primitive: tools.PrimitiveBoolean}
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return tools.Shape{Kind: tools.KindPrimitive, Primitive: tools.PrimitiveInteger}
	case float64, float32:
		return tools.Shape{Kind: tools.KindPrimitive, Primitive: tools.PrimitiveNumber}
	case map[string]any:
		fields := make(map[string]tools.Shape, len(val))
		for k, fv := range val {
			fields[k] = shapeOf(fv, depth+1)
		}
		return tools.Shape{Kind: tools.KindObject, Fields: fields}
	case []any:
		if len(val) == 0 {
			return tools.Shape{Kind: tools.KindArray, Item: &tools.Shape{Kind: tools.KindUnknown}}
		}
		item := shapeOf(val[0], depth+1)
		for _, elem := range val[1:] {
			item = mergeShape(item, shapeOf(elem, depth+1))
		}
		return tools.Shape{Kind: tools.KindArray, Item: &item}
	default:
		return tools.Shape{Kind: tools.KindUnknown}
	}
}

// mergeShape commutatively union-merges b into a: a new
// primitive kind widens a primitive shape into a union, a field absent
// from one side of an object merge becomes optional, and array item
// shapes merge recursively.
func mergeShape(a, b tools.Shape) tools.Shape {
	if shapeEqual(a, b) {
		return a
	}
	if a.Kind == tools.KindUnknown {
		return b
	}
	if b.Kind == tools.KindUnknown {
		return a
	}
	if a.Kind == tools.KindObject && b.Kind == tools.KindObject {
		return mergeObjectShape(a, b)
	}
	if a.Kind == tools.KindArray && b.Kind == tools.KindArray {
		item := a.Item
		if item == nil {
			item = b.Item
		} else if b.Item != nil {
			merged := mergeShape(*a.Item, *b.Item)
			item = &merged
		}
		return tools.Shape{Kind: tools.KindArray, Item: item}
	}

	variants := unionVariants(a)
	variants = append(variants, unionVariants(b)...)
	return tools.Shape{Kind: tools.KindUnion, Variants: dedupVariants(variants)}
}

func mergeObjectShape(a, b tools.Shape) tools.Shape {
	fields := make(map[string]tools.Shape, len(a.Fields)+len(b.Fields))
	for name, fa := range a.Fields {
		if fb, ok := b.Fields[name]; ok {
			fields[name] = mergeShape(fa, fb)
		} else {
			fa.Optional = true
			fields[name] = fa
		}
	}
	for name, fb := range b.Fields {
		if _, ok := a.Fields[name]; ok {
			continue
		}
		fb.Optional = true
		fields[name] = fb
	}
	return tools.Shape{Kind: tools.KindObject, Fields: fields}
}

func unionVariants(s tools.Shape) []tools.Shape {
	if s.Kind == tools.KindUnion {
		return append([]tools.Shape{}, s.Variants...)
	}
	return []tools.Shape{s}
}

func dedupVariants(variants []tools.Shape) []tools.Shape {
	var out []tools.Shape
	for _, v := range variants {
		dup := false
		for _, existing := range out {
			if shapeEqual(existing, v) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, v)
		}
	}
	return out
}

func shapeEqual(a, b tools.Shape) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case tools.KindPrimitive:
		return a.Primitive == b.Primitive
	case tools.KindArray:
		if a.Item == nil || b.Item == nil {
			return a.Item == b.Item
		}
		return shapeEqual(*a.Item, *b.Item)
	case tools.KindObject:
		if len(a.Fields) != len(b.Fields) {
			return false
		}
		for name, fa := range a.Fields {
			fb, ok := b.Fields[name]
			if !ok || !shapeEqual(fa, fb) {
				return false
			}
		}
		return true
	case tools.KindUnion:
		if len(a.Variants) != len(b.Variants) {
			return false
		}
		for _, va := range a.Variants {
			found := false
			for _, vb := range b.Variants {
				if shapeEqual(va, vb) {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
		return true
	default:
		return true
	}
}

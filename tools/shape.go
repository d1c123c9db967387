// Package tools implements the Tool Dispatcher and the Return-Schema
// shape model: a registry of callable
// tools resolved by name, argument validation against a declared
// parameter_tree, and the dispatch loop that records duration/outcome
// and feeds observed return values through the Schema Registry.
package tools

// ShapeKind distinguishes the recursive shape node kinds.
type ShapeKind string

const (
	KindPrimitive ShapeKind = "primitive"
	KindObject ShapeKind = "object"
	KindArray ShapeKind = "array"
	KindUnion ShapeKind = "union"
	KindUnknown ShapeKind = "unknown"
)

// PrimitiveType enumerates the scalar types a Primitive Shape can name.
type PrimitiveType string

const (
	PrimitiveString PrimitiveType = "string"
	PrimitiveInteger PrimitiveType = "integer"
	PrimitiveNumber PrimitiveType = "number"
	PrimitiveBoolean PrimitiveType = "boolean"
	PrimitiveNull PrimitiveType = "null"
)

// Shape is a recursive parameter/return schema node.
// Exactly one of the kind-specific fields is populated, selected by
// Kind.
type Shape struct {
	Kind ShapeKind
	Optional bool
	Description string

	// Primitive names the scalar type when Kind == KindPrimitive.
	Primitive PrimitiveType
	// Fields names the member shapes when Kind == KindObject.
	Fields map[string]Shape
	// Item is the element shape when Kind == KindArray.
	Item *Shape
	// Variants lists the alternative shapes when Kind == KindUnion.
	Variants []Shape
}

// Parameter is a single named, typed, possibly-defaulted argument in a
// Tool's parameter_tree.
type Parameter struct {
	Name string
	Shape Shape
	Required bool
	Default any
}

// Tool is the record: a stable, callable unit the
// Tool Dispatcher resolves by name (or alias) and the CodeGen Sub-Agent
// turns into generated source.
type Tool struct {
	Name string
	Description string
	ParameterTree []Parameter
	DeclaredReturnSchema *Shape
	SupportedLanguages []string
	TargetClassName string
	Aliases []string
}

// RequiredParameters returns tree's required parameters, preserving
// declaration order.
func RequiredParameters(tree []Parameter) []Parameter {
	return filterParameters(tree, true)
}

// OptionalParameters returns tree's optional parameters, preserving
// declaration order.
func OptionalParameters(tree []Parameter) []Parameter {
	return filterParameters(tree, false)
}

func filterParameters(tree []Parameter, required bool) []Parameter {
	var out []Parameter
	for _, p := range tree {
		if p.Required == required {
			out = append(out, p)
		}
	}
	return out
}

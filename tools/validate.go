package tools

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/agentcore/runtime/apperr"
)

// compileParameterSchema translates tree into a JSON Schema document and
// compiles it via jsonschema/v6, so the dispatcher can validate call
// arguments against a tool's declared parameter_tree // without hand-rolling schema-walking validation logic.
func compileParameterSchema(toolName string, tree []Parameter) (*jsonschema.Schema, error) {
	doc := map[string]any{
		"type": "object",
		"properties": map[string]any{},
	}
	props := doc["properties"].(map[string]any)
	var required []string
	for _, p := range tree {
		props[p.Name] = shapeToJSONSchema(p.Shape)
		if p.Required {
			required = append(required, p.Name)
		}
	}
	if len(required) > 0 {
		doc["required"] = required
	}

	id := "mem://tools/" + toolName + "/params.json"
	c := jsonschema.NewCompiler()
	if err := c.AddResource(id, doc); err != nil {
		return nil, apperr.Wrap(apperr.InvalidInput, fmt.Sprintf("tools: invalid parameter_tree for %q", toolName), err)
	}
	sch, err := c.Compile(id)
	if err != nil {
		return nil, apperr.Wrap(apperr.InvalidInput, fmt.Sprintf("tools: failed to compile parameter_tree for %q", toolName), err)
	}
	return sch, nil
}

// shapeToJSONSchema recursively translates a Shape into a JSON Schema
// document fragment.
func shapeToJSONSchema(s Shape) map[string]any {
	out := map[string]any{}
	if s.Description != "" {
		out["description"] = s.Description
	}
	switch s.Kind {
	case KindPrimitive:
		out["type"] = string(s.Primitive)
	case KindObject:
		out["type"] = "object"
		props := map[string]any{}
		var required []string
		for name, field := range s.Fields {
			props[name] = shapeToJSONSchema(field)
			if !field.Optional {
				required = append(required, name)
			}
		}
		out["properties"] = props
		if len(required) > 0 {
			out["required"] = required
		}
	case KindArray:
		out["type"] = "array"
		if s.Item != nil {
			out["items"] = shapeToJSONSchema(*s.Item)
		}
	case KindUnion:
		variants := make([]any, len(s.Variants))
		for i, v := range s.Variants {
			variants[i] = shapeToJSONSchema(v)
		}
		out["anyOf"] = variants
	default:
		// KindUnknown: no constraint.
	}
	return out
}

// validateArgs validates args against tool's compiled parameter schema.
// args is round-tripped through encoding/json first, the same way the
// teacher normalizes a tool payload before validating it, so numeric
// and struct-typed Go values compare against the schema the same way a
// JSON-decoded payload would (e.g. a Go int becomes a float64).
func validateArgs(sch *jsonschema.Schema, args map[string]any) error {
	if sch == nil {
		return nil
	}
	if args == nil {
		args = map[string]any{}
	}
	raw, err := json.Marshal(args)
	if err != nil {
		return apperr.Wrap(apperr.InvalidInput, "tools: arguments are not JSON-representable", err)
	}
	var instance any
	if err := json.Unmarshal(raw, &instance); err != nil {
		return apperr.Wrap(apperr.InvalidInput, "tools: arguments are not JSON-representable", err)
	}
	if err := sch.Validate(instance); err != nil {
		return apperr.Wrap(apperr.InvalidInput, "tools: argument validation failed", err)
	}
	return nil
}

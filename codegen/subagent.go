package codegen

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"text/template"

	"github.com/agentcore/runtime/apperr"
	"github.com/agentcore/runtime/tools"
)

// Completer performs a single raw text completion call against the
// underlying model, given a fully assembled prompt. It is kept minimal
// and decoupled from hooks.ModelHandler's transcript-oriented shape
// because the CodeGen Sub-Agent's prompt is a single synthetic source
// file, not a conversational exchange.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// ToolCatalog supplies the full set of registered tools the generated
// source file's classes/functions are built from: one class per distinct
// target_class_name, with global functions for ungrouped tools.
// *tools.Registry satisfies this via its List method.
type ToolCatalog interface {
	List() []tools.Tool
}

// GeneratedFunction is one entry in a conversation's generation history,
// a history section listing previously generated functions in the same
// conversation.
type GeneratedFunction struct {
	FunctionName string
	Source string
}

// SubAgent is the CodeGen Sub-Agent: it assembles the
// synthetic source-file prompt, calls Completer, strips code fences
// from the result, and records the outcome in the calling thread's
// generation history for subsequent prompts. It implements
// tools.CodeGenerator so the write_code/write_condition_code built-ins
// can depend on it through that narrow interface.
type SubAgent struct {
	completer Completer
	registry *SchemaRegistry
	catalog ToolCatalog
	tmpl *template.Template

	mu sync.Mutex
	history map[string][]GeneratedFunction
}

// NewSubAgent constructs a SubAgent. registry supplies the learned
// return shape used when a tool has no DeclaredReturnSchema; catalog
// supplies the tool set used to build the surrounding source file.
func NewSubAgent(completer Completer, registry *SchemaRegistry, catalog ToolCatalog) *SubAgent {
	return &SubAgent{
		completer: completer,
		registry: registry,
		catalog: catalog,
		tmpl: template.Must(template.New("source_file").Parse(sourceFileTemplate)),
		history: map[string][]GeneratedFunction{},
	}
}

// Generate synthesizes the prompt for req, calls the Completer, strips
// code fences from its output, records it in req.ThreadID's history,
// and returns the raw function source.
func (a *SubAgent) Generate(ctx context.Context, req tools.GenerationRequest) (string, error) {
	if req.FunctionName == "" {
		return "", apperr.New(apperr.InvalidInput, "codegen: function_name is required")
	}

	prompt, err := a.buildPrompt(req)
	if err != nil {
		return "", err
	}

	raw, err := a.completer.Complete(ctx, prompt)
	if err != nil {
		return "", apperr.Wrap(apperr.ExternalFailure, "codegen: completion failed", err)
	}
	source := stripCodeFences(raw)

	a.mu.Lock()
	a.history[req.ThreadID] = append(a.history[req.ThreadID], GeneratedFunction{
		FunctionName: req.FunctionName,
		Source: source,
	})
	a.mu.Unlock()

	return source, nil
}

// buildPrompt renders the single synthetic source-file prompt: fixed
// imports, one class per target_class_name with methods ordered
// required-then-optional-with-defaults, global functions for ungrouped
// tools, a recursively expanded return-schema doc block per method
// (bounded at maxShapeDepth), a history section, and the requested
// function's stub.
func (a *SubAgent) buildPrompt(req tools.GenerationRequest) (string, error) {
	classes, ungrouped := a.groupTools()

	view := promptView{
		Preset: presetFor(req.Conditional),
		Classes: classes,
		Ungrouped: ungrouped,
		History: a.historyFor(req.ThreadID),
		Stub: stubView{FunctionName: req.FunctionName, Requirement: req.Requirement, Parameters: req.Parameters, Conditional: req.Conditional},
	}

	var b strings.Builder
	if err := a.tmpl.Execute(&b, view); err != nil {
		return "", apperr.Wrap(apperr.InvalidInput, "codegen: failed to render prompt", err)
	}
	return b.String(), nil
}

func (a *SubAgent) historyFor(threadID string) []GeneratedFunction {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]GeneratedFunction{}, a.history[threadID]...)
}

func (a *SubAgent) groupTools() ([]classView, []methodView) {
	byClass := map[string][]tools.Tool{}
	var ungroupedTools []tools.Tool
	if a.catalog != nil {
		for _, t := range a.catalog.List() {
			if t.TargetClassName == "" {
				ungroupedTools = append(ungroupedTools, t)
				continue
			}
			byClass[t.TargetClassName] = append(byClass[t.TargetClassName], t)
		}
	}

	var classes []classView
	for name, toolset := range byClass {
		var methods []methodView
		for _, t := range toolset {
			methods = append(methods, a.methodViewFor(t))
		}
		classes = append(classes, classView{Name: name, InstanceName: instanceName(name), Methods: methods})
	}

	var ungrouped []methodView
	for _, t := range ungroupedTools {
		ungrouped = append(ungrouped, a.methodViewFor(t))
	}
	return classes, ungrouped
}

func (a *SubAgent) methodViewFor(t tools.Tool) methodView {
	required := tools.RequiredParameters(t.ParameterTree)
	optional := tools.OptionalParameters(t.ParameterTree)

	returnShape := t.DeclaredReturnSchema
	if returnShape == nil {
		if learned, ok := a.registry.ShapeFor(t.Name); ok {
			returnShape = &learned
		}
	}
	var doc string
	if returnShape != nil {
		doc = describeShape(*returnShape, 0)
	}

	return methodView{
		Name: t.Name,
		Description: t.Description,
		RequiredParams: paramNames(required),
		OptionalParams: paramNames(optional),
		ReturnShapeDoc: doc,
	}
}

func paramNames(params []tools.Parameter) []string {
	out := make([]string, len(params))
	for i, p := range params {
		out[i] = p.Name
	}
	return out
}

// describeShape recursively renders shape as an indented doc-comment
// body, bounded at maxShapeDepth.
func describeShape(shape tools.Shape, depth int) string {
	indent := strings.Repeat(" ", depth)
	if depth >= maxShapeDepth {
		return indent + "... (truncated at max depth)"
	}
	switch shape.Kind {
	case tools.KindPrimitive:
		return fmt.Sprintf("%s%s", indent, shape.Primitive)
	case tools.KindObject:
		var b strings.Builder
		b.WriteString(indent + "object:\n")
		for name, field := range shape.Fields {
			b.WriteString(fmt.Sprintf("%s %s: %s\n", indent, name, strings.TrimSpace(describeShape(field, depth+1))))
		}
		return b.String()
	case tools.KindArray:
		if shape.Item == nil {
			return indent + "array of unknown"
		}
		return indent + "array of:\n" + describeShape(*shape.Item, depth+1)
	case tools.KindUnion:
		var parts []string
		for _, v := range shape.Variants {
			parts = append(parts, strings.TrimSpace(describeShape(v, depth+1)))
		}
		return indent + "one of: " + strings.Join(parts, " | ")
	default:
		return indent + "unknown"
	}
}

// instanceName derives a lower_snake_case singleton variable name from
// a class name, e.g. "SearchTools" -> "search_tools".
func instanceName(className string) string {
	var b strings.Builder
	for i, r := range className {
		if i > 0 && r >= 'A' && r <= 'Z' {
			b.WriteByte('_')
		}
		b.WriteRune(r)
	}
	return strings.ToLower(b.String())
}

func presetFor(conditional bool) string {
	if conditional {
		return "condition-code-generator"
	}
	return "code-generator"
}

// stripCodeFences removes a single leading/trailing ``` fence (with an
// optional language tag on the opening fence) from s.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

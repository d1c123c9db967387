package codegen

// promptView is the data handed to sourceFileTemplate.
type promptView struct {
	Preset string
	Classes []classView
	Ungrouped []methodView
	History []GeneratedFunction
	Stub stubView
}

type classView struct {
	Name string
	InstanceName string
	Methods []methodView
}

type methodView struct {
	Name string
	Description string
	RequiredParams []string
	OptionalParams []string
	ReturnShapeDoc string
}

type stubView struct {
	FunctionName string
	Requirement string
	Parameters []string
	Conditional bool
}

// sourceFileTemplate renders the single synthetic source-file prompt:
// fixed imports, one class per
// target_class_name (each with one instantiated singleton), global
// functions for ungrouped tools, a history section, and the requested
// function's stub.
const sourceFileTemplate = `You are the {{.Preset}}. Produce exactly one raw function body
matching the requested signature below. Do not wrap the output in
explanation text; emit only the function source.

import "tools"
import "math"
import "strings"

{{range .Classes}}
class {{.Name}}:
{{- range .Methods}}
    # {{.Description}}
    def {{.Name}}(self{{range .RequiredParams}}, {{.}}{{end}}{{range .OptionalParams}}, {{.}}=None{{end}}):
        """
        returns:
{{.ReturnShapeDoc}}
        """
        ...
{{- end}}

{{.InstanceName}} = {{.Name}}()
{{end}}
{{range .Ungrouped}}
# {{.Description}}
def {{.Name}}({{range $i, $p := .RequiredParams}}{{if $i}}, {{end}}{{$p}}{{end}}{{range .OptionalParams}}, {{.}}=None{{end}}):
    """
    returns:
{{.ReturnShapeDoc}}
    """
    ...
{{end}}

{{if .History}}
# Previously generated in this conversation:
{{range .History}}
def {{.FunctionName}}(...):
    ...
{{end}}
{{end}}

# Function to add:
{{if .Stub.Requirement}}# Requirement: {{.Stub.Requirement}}
{{end}}{{if .Stub.Conditional}}# Must return a boolean.
{{end}}def {{.Stub.FunctionName}}({{range $i, $p := .Stub.Parameters}}{{if $i}}, {{end}}{{$p}}{{end}}):
`

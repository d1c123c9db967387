// Package inproc provides an in-process reference implementation of
// tools.Sandbox for tests and examples. It is explicitly NOT a
// production sandbox: it shells out to nothing, loads no native code,
// and only evaluates a single whitelisted arithmetic/string expression
// extracted from a generated function's return statement. Every real
// deployment plugs in an external, properly isolated executor behind
// the same tools.Sandbox interface (this module treats the sandbox
// as opaque).
package inproc

import (
	"context"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"regexp"
	"strings"
	"time"

	"github.com/agentcore/runtime/apperr"
	"github.com/agentcore/runtime/tools"
)

// Sandbox is the in-process reference tools.Sandbox.
type Sandbox struct{}

// New constructs a Sandbox.
func New() *Sandbox {
	return &Sandbox{}
}

var returnExprRe = regexp.MustCompile(`(?m)^\s*return\s+(.+?)\s*$`)

// Execute extracts the first "return <expr>" line from source and
// evaluates expr as a whitelisted Go expression — literals, identifiers
// bound to args, arithmetic, comparison, and string concatenation only.
// Function calls, indexing, and any other construct are rejected, which
// is this reference sandbox's stand-in for "IO and native access are
// disabled unless the caller opts in" ((b)); a real sandbox
// would enforce that at the process/VM boundary instead of by refusing
// to parse CallExpr.
func (s *Sandbox) Execute(ctx context.Context, source, functionName string, args map[string]any, limits tools.Limits) (any, error) {
	match := returnExprRe.FindStringSubmatch(source)
	if match == nil {
		return nil, apperr.Errorf(apperr.InvalidInput, "inproc: %q has no return expression to evaluate", functionName)
	}
	exprSrc := strings.TrimSuffix(strings.TrimSpace(match[1]), ";")

	timeout := limits.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type outcome struct {
		val any
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		expr, err := parser.ParseExpr(exprSrc)
		if err != nil {
			done <- outcome{nil, apperr.Wrap(apperr.InvalidInput, "inproc: failed to parse return expression", err)}
			return
		}
		val, err := evalExpr(expr, args)
		done <- outcome{val, err}
	}()

	select {
	case <-runCtx.Done():
		return nil, apperr.Errorf(apperr.Timeout, "inproc: %q exceeded its execution timeout", functionName)
	case out := <-done:
		return out.val, out.err
	}
}

func evalExpr(expr ast.Expr, args map[string]any) (any, error) {
	switch e := expr.(type) {
	case *ast.ParenExpr:
		return evalExpr(e.X, args)
	case *ast.BasicLit:
		return evalBasicLit(e)
	case *ast.Ident:
		if e.Name == "true" {
			return true, nil
		}
		if e.Name == "false" {
			return false, nil
		}
		v, ok := args[e.Name]
		if !ok {
			return nil, apperr.Errorf(apperr.InvalidInput, "inproc: unbound identifier %q", e.Name)
		}
		return v, nil
	case *ast.UnaryExpr:
		return evalUnary(e, args)
	case *ast.BinaryExpr:
		return evalBinary(e, args)
	default:
		return nil, apperr.Errorf(apperr.InvalidInput, "inproc: expression construct %T is not whitelisted", expr)
	}
}

func evalBasicLit(lit *ast.BasicLit) (any, error) {
	switch lit.Kind {
	case token.INT:
		var n int64
		if _, err := fmt.Sscanf(lit.Value, "%d", &n); err != nil {
			return nil, apperr.Wrap(apperr.InvalidInput, "inproc: invalid integer literal", err)
		}
		return float64(n), nil
	case token.FLOAT:
		var f float64
		if _, err := fmt.Sscanf(lit.Value, "%g", &f); err != nil {
			return nil, apperr.Wrap(apperr.InvalidInput, "inproc: invalid float literal", err)
		}
		return f, nil
	case token.STRING:
		unquoted := strings.Trim(lit.Value, `"`+"`")
		return unquoted, nil
	default:
		return nil, apperr.Errorf(apperr.InvalidInput, "inproc: literal kind %v is not whitelisted", lit.Kind)
	}
}

func evalUnary(e *ast.UnaryExpr, args map[string]any) (any, error) {
	v, err := evalExpr(e.X, args)
	if err != nil {
		return nil, err
	}
	switch e.Op {
	case token.SUB:
		n, ok := v.(float64)
		if !ok {
			return nil, apperr.New(apperr.InvalidInput, "inproc: unary - requires a numeric operand")
		}
		return -n, nil
	case token.NOT:
		b, ok := v.(bool)
		if !ok {
			return nil, apperr.New(apperr.InvalidInput, "inproc: unary ! requires a boolean operand")
		}
		return !b, nil
	default:
		return nil, apperr.Errorf(apperr.InvalidInput, "inproc: unary operator %v is not whitelisted", e.Op)
	}
}

func evalBinary(e *ast.BinaryExpr, args map[string]any) (any, error) {
	left, err := evalExpr(e.X, args)
	if err != nil {
		return nil, err
	}
	right, err := evalExpr(e.Y, args)
	if err != nil {
		return nil, err
	}

	if ls, ok := left.(string); ok {
		rs, ok := right.(string)
		if !ok || e.Op != token.ADD {
			return nil, apperr.New(apperr.InvalidInput, "inproc: strings only support + concatenation")
		}
		return ls + rs, nil
	}

	ln, ok := left.(float64)
	if !ok {
		return nil, apperr.New(apperr.InvalidInput, "inproc: binary expression requires numeric operands")
	}
	rn, ok := right.(float64)
	if !ok {
		return nil, apperr.New(apperr.InvalidInput, "inproc: binary expression requires numeric operands")
	}

	switch e.Op {
	case token.ADD:
		return ln + rn, nil
	case token.SUB:
		return ln - rn, nil
	case token.MUL:
		return ln * rn, nil
	case token.QUO:
		if rn == 0 {
			return nil, apperr.New(apperr.InvalidInput, "inproc: division by zero")
		}
		return ln / rn, nil
	case token.LSS:
		return ln < rn, nil
	case token.LEQ:
		return ln <= rn, nil
	case token.GTR:
		return ln > rn, nil
	case token.GEQ:
		return ln >= rn, nil
	case token.EQL:
		return ln == rn, nil
	case token.NEQ:
		return ln != rn, nil
	default:
		return nil, apperr.Errorf(apperr.InvalidInput, "inproc: binary operator %v is not whitelisted", e.Op)
	}
}

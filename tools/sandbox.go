package tools

import (
	"context"
	"time"
)

// Limits bounds a single Sandbox.Execute call ((a)(b)).
type Limits struct {
	// Timeout bounds wall-clock execution time.
	Timeout time.Duration
	// AllowIO permits file/network access from inside the sandbox.
	AllowIO bool
	// AllowNativeAccess permits loading native code or syscalls beyond
	// the host language runtime.
	AllowNativeAccess bool
}

// Sandbox executes previously registered generated source. The core
// treats Sandbox as opaque: it only contracts that execution is bounded
// by limits.Timeout, that IO/native access are disabled unless opted in,
// and that tool calls made from inside the executed function re-enter
// the Dispatcher in the same thread's context. Production
// deployments plug in an external, isolated executor; tools/sandbox/inproc
// is a reference implementation for tests and examples only.
type Sandbox interface {
	Execute(ctx context.Context, source, functionName string, args map[string]any, limits Limits) (any, error)
}

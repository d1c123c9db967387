// Package telemetry defines the ambient logging, metrics, and tracing
// interfaces used throughout the agent execution core. Components accept
// these interfaces rather than a concrete logging library so the runtime can
// be embedded in hosts with their own observability stack.
package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type (
	// Logger records structured log messages scoped to a context. Each
	// method accepts alternating key/value pairs for structured fields,
	// matching the convention used throughout the runtime's hook, eval, and
	// trigger packages.
	Logger interface {
		Debug(ctx context.Context, msg string, kv ...any)
		Info(ctx context.Context, msg string, kv ...any)
		Warn(ctx context.Context, msg string, kv ...any)
		Error(ctx context.Context, msg string, kv ...any)
	}

	// Metrics records counters, timers, and gauges. Tag arguments are
	// alternating key/value string pairs.
	Metrics interface {
		IncCounter(name string, value float64, tags ...string)
		RecordTimer(name string, d time.Duration, tags ...string)
		RecordGauge(name string, value float64, tags ...string)
	}

	// Tracer creates spans for tracking execution across component
	// boundaries (graph node, evaluator call, tool dispatch, trigger fire).
	Tracer interface {
		Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, Span)
	}

	// Span is a single unit of traced work.
	Span interface {
		End(opts ...trace.SpanEndOption)
		AddEvent(name string, kv ...any)
		SetStatus(code codes.Code, description string)
		RecordError(err error, opts ...trace.EventOption)
	}
)

package tools

import (
	"context"
	"sync"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/time/rate"

	"github.com/agentcore/runtime/apperr"
	"github.com/agentcore/runtime/telemetry"
)

// ExecutionContext is the (args, context) half of a tool's runtime
// contract. It carries the conversation's thread id so
// sandboxed tool calls can re-enter the Dispatcher "in the same
// thread's context" ((c)), and a reference back to the
// Dispatcher itself so built-in tools (execute_code in particular) can
// recursively invoke other tools without threading a second dependency
// through every Handler signature.
type ExecutionContext struct {
	context.Context

	ThreadID string
	RunID string
	Dispatcher *Dispatcher
}

// WithContext returns a copy of ec wrapping ctx instead of ec's own
// context.Context, preserving ThreadID/RunID/Dispatcher.
func (ec *ExecutionContext) WithContext(ctx context.Context) *ExecutionContext {
	cp := *ec
	cp.Context = ctx
	return &cp
}

// SchemaObserver receives every successful tool return value so a
// Return-Schema Registry (codegen.SchemaRegistry) can union-merge the
// observed shape without tools importing codegen (it feeds from
// this package's dispatch loop).
type SchemaObserver interface {
	Observe(toolName string, value any)
}

// noopSchemaObserver discards observations; the default when a
// Dispatcher is built without one.
type noopSchemaObserver struct{}

func (noopSchemaObserver) Observe(string, any) {}

// Outcome classifies how a dispatched call ended, recorded alongside
// duration for telemetry.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeValidationError Outcome = "validation_error"
	OutcomeToolError Outcome = "tool_error"
)

// Dispatcher resolves calls by name through a Registry, validates
// arguments against the tool's parameter_tree, invokes the handler,
// records duration/outcome, and feeds the return value through a
// SchemaObserver.
type Dispatcher struct {
	registry *Registry
	observer SchemaObserver
	logger telemetry.Logger
	metrics telemetry.Metrics
	tracer telemetry.Tracer
	limiter *rate.Limiter

	mu sync.Mutex
	schema map[string]*jsonschema.Schema
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithSchemaObserver feeds every successful tool return value to obs.
func WithSchemaObserver(obs SchemaObserver) DispatcherOption {
	return func(d *Dispatcher) { d.observer = obs }
}

// WithLogger sets the Dispatcher's Logger.
func WithLogger(l telemetry.Logger) DispatcherOption {
	return func(d *Dispatcher) { d.logger = l }
}

// WithMetrics sets the Dispatcher's Metrics recorder.
func WithMetrics(m telemetry.Metrics) DispatcherOption {
	return func(d *Dispatcher) { d.metrics = m }
}

// WithTracer sets the Dispatcher's Tracer.
func WithTracer(t telemetry.Tracer) DispatcherOption {
	return func(d *Dispatcher) { d.tracer = t }
}

// WithRateLimit bounds sustained tool-call throughput to rps calls per
// second, permitting bursts up to burst. Invoke blocks (subject to the
// call's own context) until a token is available rather than rejecting
// the call outright; a non-positive rps disables limiting.
func WithRateLimit(rps float64, burst int) DispatcherOption {
	return func(d *Dispatcher) {
		if rps <= 0 {
			return
		}
		d.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// NewDispatcher constructs a Dispatcher resolving calls through
// registry.
func NewDispatcher(registry *Registry, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		registry: registry,
		observer: noopSchemaObserver{},
		logger: telemetry.NewNoopLogger(),
		metrics: telemetry.NewNoopMetrics(),
		tracer: telemetry.NewNoopTracer(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Invoke resolves name, validates args against its parameter_tree,
// calls the handler, records duration/outcome, and feeds the return
// value through the SchemaObserver before returning it.
func (d *Dispatcher) Invoke(ec *ExecutionContext, name string, args map[string]any) (any, error) {
	ctx, span := d.tracer.Start(ec.Context, "tools.Dispatch")
	defer span.End()

	reg, err := d.registry.Resolve(name)
	if err != nil {
		d.recordOutcome(ctx, name, 0, OutcomeValidationError)
		return nil, err
	}

	if err := validateArgs(d.schemaFor(reg), args); err != nil {
		d.recordOutcome(ctx, name, 0, OutcomeValidationError)
		return nil, err
	}

	if d.limiter != nil {
		if err := d.limiter.Wait(ctx); err != nil {
			d.recordOutcome(ctx, name, 0, OutcomeToolError)
			return nil, apperr.Wrap(apperr.Cancelled, "tools: "+name+" rate limit wait interrupted", err)
		}
	}

	start := time.Now()
	callEC := ec.WithContext(ctx)
	result, err := reg.Handler(callEC, args)
	elapsed := time.Since(start)

	if err != nil {
		span.RecordError(err)
		d.recordOutcome(ctx, name, elapsed, OutcomeToolError)
		return nil, apperr.Wrap(apperr.KindOf(err), "tools: "+name+" failed", err)
	}

	d.observer.Observe(name, result)
	d.recordOutcome(ctx, name, elapsed, OutcomeSuccess)
	return result, nil
}

func (d *Dispatcher) recordOutcome(ctx context.Context, name string, elapsed time.Duration, outcome Outcome) {
	d.metrics.IncCounter("tools.dispatch.count", 1, "tool", name, "outcome", string(outcome))
	d.metrics.RecordTimer("tools.dispatch.duration", elapsed, "tool", name)
	d.logger.Info(ctx, "tool dispatched", "tool", name, "outcome", string(outcome), "duration_ms", elapsed.Milliseconds())
}

// schemaFor lazily compiles and caches reg.Tool's parameter_tree schema.
// An uncompilable parameter_tree is a registration-time bug; it degrades
// to "no validation" for that tool rather than failing every call.
func (d *Dispatcher) schemaFor(reg *Registration) *jsonschema.Schema {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.schema == nil {
		d.schema = map[string]*jsonschema.Schema{}
	}
	if cached, ok := d.schema[reg.Tool.Name]; ok {
		return cached
	}
	sch, err := compileParameterSchema(reg.Tool.Name, reg.Tool.ParameterTree)
	if err != nil {
		d.schema[reg.Tool.Name] = nil
		return nil
	}
	d.schema[reg.Tool.Name] = sch
	return sch
}

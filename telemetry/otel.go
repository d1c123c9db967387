package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// StdLogFunc writes a rendered log line somewhere (os.Stdout, a file, a
// structured log sink). OtelLogger uses it as the terminal sink for
// messages after attaching trace/span correlation ids pulled from ctx.
type StdLogFunc func(line string)

// OtelLogger renders log messages with trace/span correlation drawn from
// the active span in ctx, then forwards the line to Sink. It does not
// depend on the otel log SDK's exporter machinery directly so hosts can
// plug in any sink (stdout, otlploghttp, a file) behind StdLogFunc.
type OtelLogger struct {
	Sink StdLogFunc
}

// NewOtelLogger constructs an OtelLogger writing through sink.
func NewOtelLogger(sink StdLogFunc) *OtelLogger {
	return &OtelLogger{Sink: sink}
}

func (l *OtelLogger) log(ctx context.Context, level, msg string, kv ...any) {
	span := trace.SpanContextFromContext(ctx)
	line := fmt.Sprintf("level=%s msg=%q", level, msg)
	if span.HasTraceID() {
		line += fmt.Sprintf(" trace_id=%s span_id=%s", span.TraceID(), span.SpanID())
	}
	for i := 0; i+1 < len(kv); i += 2 {
		line += fmt.Sprintf(" %v=%v", kv[i], kv[i+1])
	}
	if l.Sink != nil {
		l.Sink(line)
	}
}

func (l *OtelLogger) Debug(ctx context.Context, msg string, kv ...any) { l.log(ctx, "debug", msg, kv...) }
func (l *OtelLogger) Info(ctx context.Context, msg string, kv ...any) { l.log(ctx, "info", msg, kv...) }
func (l *OtelLogger) Warn(ctx context.Context, msg string, kv ...any) { l.log(ctx, "warn", msg, kv...) }
func (l *OtelLogger) Error(ctx context.Context, msg string, kv ...any) { l.log(ctx, "error", msg, kv...) }

// OtelMetrics adapts the runtime's Metrics interface onto an
// go.opentelemetry.io/otel/metric Meter, lazily creating instruments per
// metric name the first time they are observed.
type OtelMetrics struct {
	meter metric.Meter
	counters map[string]metric.Float64Counter
	histograms map[string]metric.Float64Histogram
	gauges map[string]metric.Float64Gauge
}

// NewOtelMetrics constructs a Metrics recorder backed by the given Meter.
func NewOtelMetrics(meter metric.Meter) *OtelMetrics {
	return &OtelMetrics{
		meter: meter,
		counters: make(map[string]metric.Float64Counter),
		histograms: make(map[string]metric.Float64Histogram),
		gauges: make(map[string]metric.Float64Gauge),
	}
}

func tagsToAttrs(tags []string) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, len(tags)/2)
	for i := 0; i+1 < len(tags); i += 2 {
		attrs = append(attrs, attribute.String(tags[i], tags[i+1]))
	}
	return attrs
}

func (m *OtelMetrics) IncCounter(name string, value float64, tags ...string) {
	c, ok := m.counters[name]
	if !ok {
		var err error
		c, err = m.meter.Float64Counter(name)
		if err != nil {
			return
		}
		m.counters[name] = c
	}
	c.Add(context.Background(), value, metric.WithAttributes(tagsToAttrs(tags)...))
}

func (m *OtelMetrics) RecordTimer(name string, d time.Duration, tags ...string) {
	h, ok := m.histograms[name]
	if !ok {
		var err error
		h, err = m.meter.Float64Histogram(name, metric.WithUnit("ms"))
		if err != nil {
			return
		}
		m.histograms[name] = h
	}
	h.Record(context.Background(), float64(d.Milliseconds()), metric.WithAttributes(tagsToAttrs(tags)...))
}

func (m *OtelMetrics) RecordGauge(name string, value float64, tags ...string) {
	g, ok := m.gauges[name]
	if !ok {
		var err error
		g, err = m.meter.Float64Gauge(name)
		if err != nil {
			return
		}
		m.gauges[name] = g
	}
	g.Record(context.Background(), value, metric.WithAttributes(tagsToAttrs(tags)...))
}

// OtelTracer adapts the runtime's Tracer interface onto a
// go.opentelemetry.io/otel/trace Tracer.
type OtelTracer struct {
	tracer trace.Tracer
}

// NewOtelTracer constructs a Tracer backed by the given otel Tracer.
func NewOtelTracer(tracer trace.Tracer) *OtelTracer {
	return &OtelTracer{tracer: tracer}
}

func (t *OtelTracer) Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, Span) {
	ctx, span := t.tracer.Start(ctx, name, opts...)
	return ctx, &otelSpan{span: span}
}

type otelSpan struct {
	span trace.Span
}

func (s *otelSpan) End(opts ...trace.SpanEndOption) { s.span.End(opts...) }

func (s *otelSpan) AddEvent(name string, kv ...any) {
	s.span.AddEvent(name, trace.WithAttributes(kvToAttrs(kv)...))
}

func (s *otelSpan) SetStatus(code codes.Code, description string) {
	s.span.SetStatus(code, description)
}

func (s *otelSpan) RecordError(err error, opts ...trace.EventOption) {
	s.span.RecordError(err, opts...)
}

func kvToAttrs(kv []any) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, _ := kv[i].(string)
		attrs = append(attrs, attribute.String(key, fmt.Sprintf("%v", kv[i+1])))
	}
	return attrs
}

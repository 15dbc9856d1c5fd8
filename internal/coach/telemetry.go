package coach

import (
	"context"
	"log"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/fdg312/coach-hub/internal/coach"

// Fallback stages reported on coach_fallbacks_total.
const (
	stageParse   = "parse"
	stageLookup  = "lookup"
	stageReply   = "reply"
	stagePersist = "persist"
)

type instruments struct {
	tracer    trace.Tracer
	messages  metric.Int64Counter
	fallbacks metric.Int64Counter
	duration  metric.Float64Histogram
}

// newInstruments binds to the global providers, which are no-ops unless
// telemetry.InitOtel ran.
func newInstruments() *instruments {
	meter := otel.Meter(instrumentationName)
	ins := &instruments{tracer: otel.Tracer(instrumentationName)}

	var err error
	ins.messages, err = meter.Int64Counter("coach_messages_total",
		metric.WithDescription("Coach messages handled, by intent"))
	if err != nil {
		log.Printf("WARN coach: messages counter: %v", err)
	}
	ins.fallbacks, err = meter.Int64Counter("coach_fallbacks_total",
		metric.WithDescription("Deterministic fallbacks taken, by pipeline stage"))
	if err != nil {
		log.Printf("WARN coach: fallbacks counter: %v", err)
	}
	ins.duration, err = meter.Float64Histogram("coach_pipeline_duration_ms",
		metric.WithDescription("Message pipeline duration"),
		metric.WithUnit("ms"))
	if err != nil {
		log.Printf("WARN coach: duration histogram: %v", err)
	}
	return ins
}

func (i *instruments) start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return i.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func (i *instruments) message(ctx context.Context, kind string, started time.Time) {
	attrs := metric.WithAttributes(attribute.String("intent", kind))
	if i.messages != nil {
		i.messages.Add(ctx, 1, attrs)
	}
	if i.duration != nil {
		i.duration.Record(ctx, float64(time.Since(started).Milliseconds()), attrs)
	}
}

func (i *instruments) fallback(ctx context.Context, stage string) {
	if i.fallbacks != nil {
		i.fallbacks.Add(ctx, 1, metric.WithAttributes(attribute.String("stage", stage)))
	}
	trace.SpanFromContext(ctx).AddEvent("fallback", trace.WithAttributes(attribute.String("stage", stage)))
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

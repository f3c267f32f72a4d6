package httpapi

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var apiTracer = otel.Tracer("score-predictor/internal/interfaces/httpapi")
var noopSpan = trace.SpanFromContext(context.Background())

const (
	attrFixtureID = attribute.Key("predictor.fixture_id")
	attrScope     = attribute.Key("predictor.leaderboard_scope")
)

// startSpan opens a child span for handler names only. Requests the otelhttp
// filter skipped carry no parent and get the noop span.
func startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if !trace.SpanFromContext(ctx).SpanContext().IsValid() || !isHandlerSpan(name) {
		return ctx, noopSpan
	}
	return apiTracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func isHandlerSpan(name string) bool {
	return strings.HasPrefix(name, "httpapi.Handler.")
}

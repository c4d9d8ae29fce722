package observability

import (
	"context"
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Tracer wraps an OpenTelemetry tracer with search/ingest span creation
// methods.
type Tracer struct {
	tracer      trace.Tracer
	serviceName string
}

// NewTracer creates a new Tracer using the given TracerProvider.
func NewTracer(tp trace.TracerProvider, serviceName string) *Tracer {
	return &Tracer{
		tracer:      tp.Tracer(TracerName),
		serviceName: serviceName,
	}
}

// StartSpan starts a new span with the given name and attributes.
func (t *Tracer) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	ctx, span := t.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
	return ctx, span
}

// StartSearch starts a span for a search query.
func (t *Tracer) StartSearch(ctx context.Context, raw string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "cclogs.search", trace.WithAttributes(
		OperationAttr(OpSearch),
		QueryRawAttr(raw),
	))
}

// StartCount starts a span for a count query.
func (t *Tracer) StartCount(ctx context.Context, raw string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "cclogs.count", trace.WithAttributes(
		OperationAttr(OpCount),
		QueryRawAttr(raw),
	))
}

// StartTop starts a span for a top-authors query.
func (t *Tracer) StartTop(ctx context.Context, raw string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "cclogs.top", trace.WithAttributes(
		OperationAttr(OpTop),
		QueryRawAttr(raw),
	))
}

// StartIngest starts a span for ingesting a single day's log.
func (t *Tracer) StartIngest(ctx context.Context, date string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "cclogs.ingest", trace.WithAttributes(
		OperationAttr(OpIngest),
		IngestDateAttr(date),
	))
}

// StartCatchUp starts a span covering a full catch-up sweep.
func (t *Tracer) StartCatchUp(ctx context.Context) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "cclogs.catch_up", trace.WithAttributes(
		OperationAttr(OpCatchUp),
	))
}

// StartRequest starts a span for an HTTP request.
func (t *Tracer) StartRequest(ctx context.Context, r *http.Request) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "cclogs.request", trace.WithAttributes(
		attribute.String("http.method", r.Method),
		attribute.String("http.url", r.URL.String()),
		attribute.String("http.route", r.URL.Path),
	))
}

// SetHTTPStatus sets the HTTP status code on the current span.
func (t *Tracer) SetHTTPStatus(ctx context.Context, statusCode int) {
	span := trace.SpanFromContext(ctx)
	span.SetAttributes(attribute.Int("http.status_code", statusCode))
	if statusCode >= 400 {
		span.SetStatus(codes.Error, http.StatusText(statusCode))
	}
}

// StartDBQuery starts a span for a database query.
func (t *Tracer) StartDBQuery(ctx context.Context, operation string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "db.query", trace.WithAttributes(
		attribute.String("db.operation", operation),
	))
}

// RecordError records an error on the span.
func (t *Tracer) RecordError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// AddQueryResult adds the result count and cache outcome of a search/count/top
// query to a span.
func (t *Tracer) AddQueryResult(span trace.Span, resultCount int64, cacheHit bool) {
	outcome := "miss"
	if cacheHit {
		outcome = "hit"
	}
	span.SetAttributes(ResultCountAttr(resultCount), CacheOutcomeAttr(outcome))
}

// LoggerWithTrace returns a logger enriched with trace context.
func LoggerWithTrace(ctx context.Context, logger *slog.Logger) *slog.Logger {
	span := trace.SpanFromContext(ctx)
	if !span.SpanContext().IsValid() {
		return logger
	}
	return logger.With(
		slog.String(LogFieldTraceID, span.SpanContext().TraceID().String()),
		slog.String(LogFieldSpanID, span.SpanContext().SpanID().String()),
	)
}

package observability

import (
	"go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// NewNoopTracer creates a tracer that does nothing.
func NewNoopTracer() *Tracer {
	return &Tracer{
		tracer:      tracenoop.NewTracerProvider().Tracer(""),
		serviceName: "",
	}
}

// NewNoopMetrics creates metrics that do nothing.
func NewNoopMetrics() *Metrics {
	meter := noop.NewMeterProvider().Meter("")
	m := &Metrics{}

	m.requestDuration, _ = meter.Float64Histogram("cclogs.request.duration")
	m.requestCount, _ = meter.Int64Counter("cclogs.request.count")
	m.resultCount, _ = meter.Int64Histogram("cclogs.result.count")
	m.dbQueryDuration, _ = meter.Float64Histogram("cclogs.db.query.duration")
	m.cacheHits, _ = meter.Int64Counter("cclogs.cache.hits")
	m.cacheMisses, _ = meter.Int64Counter("cclogs.cache.misses")
	m.ingestedRows, _ = meter.Int64Counter("cclogs.ingest.rows")
	m.supersededRows, _ = meter.Int64Counter("cclogs.ingest.superseded_rows")
	m.errorCount, _ = meter.Int64Counter("cclogs.error.count")

	return m
}

package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the search/ingest metric instruments.
type Metrics struct {
	requestDuration metric.Float64Histogram
	requestCount    metric.Int64Counter
	resultCount     metric.Int64Histogram
	dbQueryDuration metric.Float64Histogram
	cacheHits       metric.Int64Counter
	cacheMisses     metric.Int64Counter
	ingestedRows    metric.Int64Counter
	supersededRows  metric.Int64Counter
	errorCount      metric.Int64Counter
}

// NewMetrics creates a new Metrics instance with the given MeterProvider.
func NewMetrics(mp metric.MeterProvider) *Metrics {
	meter := mp.Meter(MeterName)
	m := &Metrics{}

	var err error

	m.requestDuration, err = meter.Float64Histogram(
		"cclogs.request.duration",
		metric.WithDescription("Duration of search/count/top requests in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		m.requestDuration, _ = meter.Float64Histogram("cclogs.request.duration")
	}

	m.requestCount, err = meter.Int64Counter(
		"cclogs.request.count",
		metric.WithDescription("Total number of search/count/top requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		m.requestCount, _ = meter.Int64Counter("cclogs.request.count")
	}

	m.resultCount, err = meter.Int64Histogram(
		"cclogs.result.count",
		metric.WithDescription("Number of messages returned by a search query"),
		metric.WithUnit("{message}"),
	)
	if err != nil {
		m.resultCount, _ = meter.Int64Histogram("cclogs.result.count")
	}

	m.dbQueryDuration, err = meter.Float64Histogram(
		"cclogs.db.query.duration",
		metric.WithDescription("Duration of database queries in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		m.dbQueryDuration, _ = meter.Float64Histogram("cclogs.db.query.duration")
	}

	m.cacheHits, err = meter.Int64Counter(
		"cclogs.cache.hits",
		metric.WithDescription("Number of parsed-query cache hits"),
	)
	if err != nil {
		m.cacheHits, _ = meter.Int64Counter("cclogs.cache.hits")
	}

	m.cacheMisses, err = meter.Int64Counter(
		"cclogs.cache.misses",
		metric.WithDescription("Number of parsed-query cache misses"),
	)
	if err != nil {
		m.cacheMisses, _ = meter.Int64Counter("cclogs.cache.misses")
	}

	m.ingestedRows, err = meter.Int64Counter(
		"cclogs.ingest.rows",
		metric.WithDescription("Number of message rows inserted during ingestion"),
		metric.WithUnit("{row}"),
	)
	if err != nil {
		m.ingestedRows, _ = meter.Int64Counter("cclogs.ingest.rows")
	}

	m.supersededRows, err = meter.Int64Counter(
		"cclogs.ingest.superseded_rows",
		metric.WithDescription("Number of message rows deleted by delete-then-insert supersession"),
		metric.WithUnit("{row}"),
	)
	if err != nil {
		m.supersededRows, _ = meter.Int64Counter("cclogs.ingest.superseded_rows")
	}

	m.errorCount, err = meter.Int64Counter(
		"cclogs.error.count",
		metric.WithDescription("Total number of query/ingest errors"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		m.errorCount, _ = meter.Int64Counter("cclogs.error.count")
	}

	return m
}

// RecordRequest records metrics for a completed search/count/top request.
func (m *Metrics) RecordRequest(ctx context.Context, operation string, statusCode int, duration time.Duration) {
	attrs := metric.WithAttributes(
		OperationAttr(operation),
		attribute.Int("http.status_code", statusCode),
	)
	m.requestDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
	m.requestCount.Add(ctx, 1, attrs)
}

// RecordResultCount records the number of messages returned by a search query.
func (m *Metrics) RecordResultCount(ctx context.Context, count int64) {
	m.resultCount.Record(ctx, count)
}

// RecordDBQuery records metrics for a database query.
func (m *Metrics) RecordDBQuery(ctx context.Context, operation string, duration time.Duration) {
	attrs := metric.WithAttributes(attribute.String("db.operation", operation))
	m.dbQueryDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
}

// RecordCacheHit records a parsed-query cache hit.
func (m *Metrics) RecordCacheHit(ctx context.Context) {
	m.cacheHits.Add(ctx, 1)
}

// RecordCacheMiss records a parsed-query cache miss.
func (m *Metrics) RecordCacheMiss(ctx context.Context) {
	m.cacheMisses.Add(ctx, 1)
}

// RecordIngest records the outcome of ingesting a single day's log.
func (m *Metrics) RecordIngest(ctx context.Context, date string, rowsKept, rowsSuperseded int64) {
	attrs := metric.WithAttributes(IngestDateAttr(date))
	m.ingestedRows.Add(ctx, rowsKept, attrs)
	m.supersededRows.Add(ctx, rowsSuperseded, attrs)
}

// RecordError records an error occurrence.
func (m *Metrics) RecordError(ctx context.Context, operation, errorKind string) {
	attrs := metric.WithAttributes(
		OperationAttr(operation),
		ErrorKindAttr(errorKind),
	)
	m.errorCount.Add(ctx, 1, attrs)
}

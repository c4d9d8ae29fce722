// Package observability provides OpenTelemetry-based instrumentation for the
// log search and ingestion service.
//
// It supports distributed tracing, metrics collection, and enhanced structured
// logging. All observability features are opt-in: when not configured, no-op
// implementations are used with zero performance overhead.
package observability

import "go.opentelemetry.io/otel/attribute"

// Instrumentation identity constants.
const (
	// TracerName is the instrumentation name for tracing.
	TracerName = "github.com/fomalhaut/cclogs"
	// MeterName is the instrumentation name for metrics.
	MeterName = "github.com/fomalhaut/cclogs"
)

// Semantic attribute keys for search and ingestion spans and metrics.
const (
	AttrChannel   = "cclogs.channel"
	AttrOperation = "cclogs.operation"

	AttrQueryRaw      = "cclogs.query.raw"
	AttrQueryNormal   = "cclogs.query.normalized"
	AttrResultCount   = "cclogs.result.count"
	AttrCacheOutcome  = "cclogs.cache.outcome"
	AttrBotsIncluded  = "cclogs.bots_included"
	AttrSortMode      = "cclogs.sort"

	AttrIngestDate       = "cclogs.ingest.date"
	AttrIngestRowsSeen   = "cclogs.ingest.rows_seen"
	AttrIngestRowsKept   = "cclogs.ingest.rows_kept"
	AttrIngestSuperseded = "cclogs.ingest.superseded"

	AttrErrorKind = "cclogs.error.kind"
)

// Operation types for the cclogs.operation attribute.
const (
	OpSearch  = "search"
	OpCount   = "count"
	OpTop     = "top"
	OpIngest  = "ingest"
	OpCatchUp = "catch_up"
)

// Log field keys for structured logging with trace context.
const (
	LogFieldChannel     = "channel"
	LogFieldTraceID     = "trace_id"
	LogFieldSpanID      = "span_id"
	LogFieldRequestID   = "request_id"
	LogFieldDuration    = "duration_ms"
	LogFieldResultCount = "result_count"
	LogFieldError       = "error"
)

// ChannelAttr creates an attribute for the channel name.
func ChannelAttr(name string) attribute.KeyValue {
	return attribute.String(AttrChannel, name)
}

// OperationAttr creates an attribute for the operation type.
func OperationAttr(op string) attribute.KeyValue {
	return attribute.String(AttrOperation, op)
}

// ResultCountAttr creates an attribute for the result count.
func ResultCountAttr(count int64) attribute.KeyValue {
	return attribute.Int64(AttrResultCount, count)
}

// QueryRawAttr creates an attribute for the raw query string.
func QueryRawAttr(raw string) attribute.KeyValue {
	return attribute.String(AttrQueryRaw, raw)
}

// CacheOutcomeAttr creates an attribute for a query-cache lookup outcome
// ("hit" or "miss").
func CacheOutcomeAttr(outcome string) attribute.KeyValue {
	return attribute.String(AttrCacheOutcome, outcome)
}

// IngestDateAttr creates an attribute for the date being ingested.
func IngestDateAttr(date string) attribute.KeyValue {
	return attribute.String(AttrIngestDate, date)
}

// ErrorKindAttr creates an attribute for a query error kind.
func ErrorKindAttr(kind string) attribute.KeyValue {
	return attribute.String(AttrErrorKind, kind)
}

// Package ingest downloads daily chat transcripts, parses them into message
// rows, and supersedes the matching day's stored rows in the database.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/fomalhaut/cclogs/internal/observability"
	"github.com/fomalhaut/cclogs/internal/store"
)

// maxCatchUpDays bounds the day-by-day catch-up loop so a system clock
// rewind (real or simulated) cannot make it run forever.
const maxCatchUpDays = 366

// Ingestor drives the download-parse-supersede pipeline and serializes
// concurrent runs behind a single process-wide lock.
type Ingestor struct {
	store      *store.Store
	downloader Downloader
	tracer     *observability.Tracer
	metrics    *observability.Metrics
	logger     *slog.Logger

	mu sync.Mutex
}

// New creates an Ingestor. dl may be nil, in which case NewHTTPDownloader
// is used.
func New(st *store.Store, dl Downloader, cfg *observability.Config) *Ingestor {
	if dl == nil {
		dl = NewHTTPDownloader()
	}
	logger := slog.Default()
	if cfg != nil && cfg.Logger != nil {
		logger = cfg.Logger
	}
	return &Ingestor{
		store:      st,
		downloader: dl,
		tracer:     cfg.Tracer(),
		metrics:    cfg.Metrics(),
		logger:     logger,
	}
}

// IngestDate runs the download-parse-supersede pipeline for a single date,
// failing fast with ErrImportRunning if another ingestion is already in
// progress.
func (in *Ingestor) IngestDate(ctx context.Context, date time.Time, cutOffset int32) (int, error) {
	if !in.mu.TryLock() {
		return 0, ErrImportRunning
	}
	defer in.mu.Unlock()

	kept, err := in.ingestDateLocked(ctx, date, cutOffset)
	return kept, err
}

// CatchUpFromLatest resumes ingestion from the newest stored message's date
// and offset, or from today with a full re-ingest if the store is empty,
// then advances day-by-day through today.
func (in *Ingestor) CatchUpFromLatest(ctx context.Context) (int, error) {
	if !in.mu.TryLock() {
		return 0, ErrImportRunning
	}
	defer in.mu.Unlock()

	offset, date, found, err := in.store.LatestMessage(ctx)
	if err != nil {
		return 0, fmt.Errorf("ingest: latest marker: %w", err)
	}

	start := date
	cutOffset := offset
	if !found {
		start = time.Now().UTC().Truncate(24 * time.Hour)
		cutOffset = -1
	}

	return in.runCatchUpLocked(ctx, start, cutOffset)
}

// CatchUpFrom runs a full catch-up loop starting at the given date, through
// today.
func (in *Ingestor) CatchUpFrom(ctx context.Context, start time.Time) (int, error) {
	if !in.mu.TryLock() {
		return 0, ErrImportRunning
	}
	defer in.mu.Unlock()

	return in.runCatchUpLocked(ctx, start, -1)
}

func (in *Ingestor) runCatchUpLocked(ctx context.Context, start time.Time, cutOffset int32) (int, error) {
	ctx, span := in.tracer.StartCatchUp(ctx)
	defer span.End()

	today := time.Now().UTC().Truncate(24 * time.Hour)
	date := start.Truncate(24 * time.Hour)

	total := 0
	for days := 0; !date.After(today); days++ {
		if days >= maxCatchUpDays {
			in.logger.Warn("catch-up day limit reached, stopping early",
				slog.Int("days", days), slog.Time("date", date))
			break
		}

		kept, err := in.ingestDateLocked(ctx, date, cutOffset)
		if err != nil {
			in.tracer.RecordError(span, err)
			return total, err
		}
		total += kept

		cutOffset = -1
		date = date.AddDate(0, 0, 1)
	}
	return total, nil
}

// ingestDateLocked performs the download-parse-supersede pipeline for a
// single date. Callers must hold in.mu.
func (in *Ingestor) ingestDateLocked(ctx context.Context, date time.Time, cutOffset int32) (int, error) {
	dateStr := date.Format("2006-01-02")
	ctx, span := in.tracer.StartIngest(ctx, dateStr)
	defer span.End()

	raw, err := in.downloader.Download(ctx, date)
	if err != nil {
		in.tracer.RecordError(span, err)
		in.metrics.RecordError(ctx, observability.OpIngest, "download")
		return 0, fmt.Errorf("ingest: download %s: %w", dateStr, err)
	}

	rows := parseLines(raw, date, cutOffset, func(reason, line string) {
		in.logger.Warn("skipping log line", slog.String("reason", reason),
			slog.String("date", dateStr), slog.String("line", line))
	})

	if err := in.store.SupersedeDay(ctx, date, cutOffset, rows); err != nil {
		in.tracer.RecordError(span, err)
		in.metrics.RecordError(ctx, observability.OpIngest, "store")
		return 0, fmt.Errorf("ingest: supersede %s: %w", dateStr, err)
	}

	in.metrics.RecordIngest(ctx, dateStr, int64(len(rows)), 0)
	in.logger.Info("ingested day", slog.String("date", dateStr), slog.Int("rows", len(rows)))
	return len(rows), nil
}

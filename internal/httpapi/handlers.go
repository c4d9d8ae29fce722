package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/fomalhaut/cclogs/internal/observability"
	"github.com/fomalhaut/cclogs/internal/store"
)

func parsePathDate(r *http.Request) (time.Time, bool) {
	d, err := time.Parse("2006-01-02", r.PathValue("date"))
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

func today() time.Time {
	return time.Now().UTC().Truncate(24 * time.Hour)
}

// handleLogsByDate serves /logs/{date}: the messages of a single UTC date.
func (s *Server) handleLogsByDate(w http.ResponseWriter, r *http.Request) {
	date, ok := parsePathDate(r)
	if !ok {
		writeJSONError(r.Context(), w, s.obs.Metrics(), observability.OpSearch, errNotFound)
		return
	}

	rows, err := s.store.MessagesOnDate(r.Context(), date)
	if err != nil {
		writeJSONError(r.Context(), w, s.obs.Metrics(), observability.OpSearch, err)
		return
	}
	writeMessages(w, formatOf(r), rows)
}

// handleLogsLatest serves /logs/latest: the messages of today (UTC).
func (s *Server) handleLogsLatest(w http.ResponseWriter, r *http.Request) {
	rows, err := s.store.MessagesOnDate(r.Context(), today())
	if err != nil {
		writeJSONError(r.Context(), w, s.obs.Metrics(), observability.OpSearch, err)
		return
	}
	writeMessages(w, formatOf(r), rows)
}

// runSearch parses, normalizes, lowers, and executes a raw search query
// string against the store. It is shared by the JSON and HTML search
// routes.
func (s *Server) runSearch(ctx context.Context, raw string) ([]store.MessageRow, error) {
	expr, err := s.cache.GetOrParse(raw)
	if err != nil {
		return nil, err
	}

	lq, err := s.lowerer.Search(expr, s.botNames)
	if err != nil {
		return nil, err
	}

	return s.store.Search(ctx, lq)
}

// handleLogsSearch serves /logs/search: parse, lower, execute, render.
func (s *Server) handleLogsSearch(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("q")
	tracer := s.obs.Tracer()
	metrics := s.obs.Metrics()
	ctx, span := tracer.StartSearch(r.Context(), raw)
	defer span.End()

	rows, err := s.runSearch(ctx, raw)
	if err != nil {
		tracer.RecordError(span, err)
		writeJSONError(ctx, w, metrics, observability.OpSearch, err)
		return
	}

	tracer.AddQueryResult(span, int64(len(rows)), false)
	metrics.RecordResultCount(ctx, int64(len(rows)))
	writeMessages(w, formatOf(r), rows)
}

// handleDates serves /dates: the descending list of dates with any
// messages.
func (s *Server) handleDates(w http.ResponseWriter, r *http.Request) {
	dates, err := s.dates.Dates(r.Context())
	if err != nil {
		writeJSONError(r.Context(), w, s.obs.Metrics(), observability.OpSearch, err)
		return
	}

	out := make([]string, len(dates))
	for i, d := range dates {
		out[i] = d.Format("2006-01-02")
	}
	writeJSON(w, out)
}

type ingestResult struct {
	RowsIngested int `json:"rows_ingested"`
}

// handleImport serves /import: catch-up ingestion from the latest marker.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	rows, err := s.ingestor.CatchUpFromLatest(r.Context())
	if err != nil {
		writeJSONError(r.Context(), w, s.obs.Metrics(), observability.OpCatchUp, err)
		return
	}
	writeJSON(w, ingestResult{RowsIngested: rows})
}

// handleImportDate serves /import/{date}: catch-up ingestion starting at a
// caller-provided date.
func (s *Server) handleImportDate(w http.ResponseWriter, r *http.Request) {
	date, ok := parsePathDate(r)
	if !ok {
		writeJSONError(r.Context(), w, s.obs.Metrics(), observability.OpCatchUp, errNotFound)
		return
	}

	rows, err := s.ingestor.CatchUpFrom(r.Context(), date)
	if err != nil {
		writeJSONError(r.Context(), w, s.obs.Metrics(), observability.OpCatchUp, err)
		return
	}
	writeJSON(w, ingestResult{RowsIngested: rows})
}

// handleSearchHTML serves /search: an HTML-rendered search result page.
// Errors render the error template rather than a bare status code.
func (s *Server) handleSearchHTML(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("q")
	rows, err := s.runSearch(r.Context(), raw)
	if err != nil {
		status, message, _ := classify(err)
		_ = s.renderer.RenderError(w, status, message)
		return
	}
	_ = s.renderer.RenderSearch(w, raw, rows)
}

// handleRootHTML serves "/": today's daily view.
func (s *Server) handleRootHTML(w http.ResponseWriter, r *http.Request) {
	s.renderDayHTML(w, r, today())
}

// handleDayHTML serves /{date}: an HTML-rendered daily view.
func (s *Server) handleDayHTML(w http.ResponseWriter, r *http.Request) {
	date, ok := parsePathDate(r)
	if !ok {
		_ = s.renderer.RenderError(w, http.StatusNotFound, "no such date")
		return
	}
	s.renderDayHTML(w, r, date)
}

func (s *Server) renderDayHTML(w http.ResponseWriter, r *http.Request, date time.Time) {
	rows, err := s.store.MessagesOnDate(r.Context(), date)
	if err != nil {
		status, message, _ := classify(err)
		_ = s.renderer.RenderError(w, status, message)
		return
	}
	_ = s.renderer.RenderDay(w, date, rows)
}

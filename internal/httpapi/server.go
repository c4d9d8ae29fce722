// Package httpapi exposes the chat-log search and ingestion service over
// plain net/http: JSON/plaintext log and search endpoints, ingestion
// triggers, and HTML views delegated to a TemplateRenderer.
package httpapi

import (
	"net/http"

	"github.com/fomalhaut/cclogs/internal/datescache"
	"github.com/fomalhaut/cclogs/internal/ingest"
	"github.com/fomalhaut/cclogs/internal/observability"
	"github.com/fomalhaut/cclogs/internal/query"
	"github.com/fomalhaut/cclogs/internal/store"
)

// queryCacheSize bounds the parsed-query memoization cache.
const queryCacheSize = 1024

// Server wires the store, query pipeline, ingestor, and dates cache to an
// HTTP mux.
type Server struct {
	store    *store.Store
	cache    *query.Cache
	catalog  *query.Catalog
	lowerer  *query.Lowerer
	ingestor *ingest.Ingestor
	dates    *datescache.Cache
	renderer TemplateRenderer
	botNames []string
	obs      *observability.Config
}

// NewServer builds a Server. renderer may be nil, in which case
// NewDefaultRenderer is used. botNames is the exclusion list applied when a
// search requests bots=exclude (the default).
func NewServer(st *store.Store, ing *ingest.Ingestor, dates *datescache.Cache, obs *observability.Config, renderer TemplateRenderer, botNames []string) *Server {
	if renderer == nil {
		renderer = NewDefaultRenderer()
	}
	if obs == nil {
		obs = observability.NewConfig()
		_ = obs.Initialize()
	}
	catalog := query.NewCatalog()
	return &Server{
		store:    st,
		cache:    query.NewCache(queryCacheSize),
		catalog:  catalog,
		lowerer:  query.NewLowerer(catalog),
		ingestor: ing,
		dates:    dates,
		renderer: renderer,
		botNames: botNames,
		obs:      obs,
	}
}

// Router builds the HTTP handler for the full route table, wrapped in the
// request-correlation, tracing, and Server-Timing middleware.
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /logs/{date}", s.handleLogsByDate)
	mux.HandleFunc("GET /logs/latest", s.handleLogsLatest)
	mux.HandleFunc("GET /logs/search", s.handleLogsSearch)
	mux.HandleFunc("GET /dates", s.handleDates)
	mux.HandleFunc("GET /import", s.handleImport)
	mux.HandleFunc("GET /import/{date}", s.handleImportDate)
	mux.HandleFunc("GET /search", s.handleSearchHTML)
	mux.HandleFunc("GET /{$}", s.handleRootHTML)
	mux.HandleFunc("GET /{date}", s.handleDayHTML)

	return chain(mux,
		withCorrelationID,
		observability.HTTPMiddleware(s.obs),
		withServerTiming(s.obs),
	)
}

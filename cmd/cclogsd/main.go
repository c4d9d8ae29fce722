// Command cclogsd serves the chat-log search and ingestion API.
package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"

	"github.com/fomalhaut/cclogs/internal/config"
	"github.com/fomalhaut/cclogs/internal/datescache"
	"github.com/fomalhaut/cclogs/internal/httpapi"
	"github.com/fomalhaut/cclogs/internal/ingest"
	"github.com/fomalhaut/cclogs/internal/observability"
	"github.com/fomalhaut/cclogs/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("config: ", err)
	}

	logger := slog.Default()

	obs := observability.NewConfig(
		observability.WithServiceName("cclogsd"),
		observability.WithServerTiming(),
		observability.WithLogger(logger),
	)
	if err := obs.Initialize(); err != nil {
		log.Fatal("observability: ", err)
	}

	st, err := store.Open(cfg.PostgresURL)
	if err != nil {
		log.Fatal("store: open: ", err)
	}

	ctx := context.Background()
	if err := st.Migrate(ctx); err != nil {
		log.Fatal("store: migrate: ", err)
	}
	if err := st.RegisterObservability(obs); err != nil {
		log.Fatal("store: register observability: ", err)
	}

	ingestor := ingest.New(st, nil, obs)

	dates := datescache.New(st)
	dates.Start()
	defer dates.Stop()

	srv := httpapi.NewServer(st, ingestor, dates, obs, nil, cfg.BotNames)

	logger.Info("cclogsd listening", "addr", cfg.Addr())
	if err := http.ListenAndServe(cfg.Addr(), srv.Router()); err != nil {
		log.Fatal("server: ", err)
	}
}

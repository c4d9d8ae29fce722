package ingest

import "errors"

// ErrImportRunning is returned when an ingestion is requested while another
// is already in progress. The process-wide lock is acquired with try-lock
// semantics: a busy lock fails fast rather than queuing the caller.
var ErrImportRunning = errors.New("Import already running")

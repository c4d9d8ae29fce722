package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fomalhaut/cclogs/internal/ingest"
	"github.com/fomalhaut/cclogs/internal/observability"
	"github.com/fomalhaut/cclogs/internal/query"
)

// apiError is the JSON body emitted by every error response.
type apiError struct {
	Message string `json:"message"`
}

// classify maps a pipeline error to an HTTP status and a message. Parse,
// validation, and lowering errors are surfaced verbatim; store failures are
// never surfaced verbatim to clients.
func classify(err error) (status int, message, kind string) {
	var qerr *query.Error
	if errors.As(err, &qerr) {
		switch qerr.Kind {
		case query.KindParse:
			return http.StatusBadRequest, qerr.Message, "parse"
		case query.KindValidation:
			return http.StatusBadRequest, qerr.Message, "validation"
		case query.KindComplexity:
			return http.StatusBadRequest, qerr.Message, "complexity"
		case query.KindPredicate:
			return http.StatusBadRequest, qerr.Message, "predicate"
		case query.KindControlArg:
			return http.StatusBadRequest, qerr.Message, "control_arg"
		}
	}

	if errors.Is(err, ingest.ErrImportRunning) {
		return http.StatusBadRequest, err.Error(), "concurrency"
	}

	if errors.Is(err, errNotFound) {
		return http.StatusNotFound, err.Error(), "not_found"
	}

	return http.StatusInternalServerError, "Database error", "store"
}

var errNotFound = errors.New("not found")

// writeJSONError writes the classified error as a JSON body and records it
// on the given metrics under operation.
func writeJSONError(ctx context.Context, w http.ResponseWriter, metrics *observability.Metrics, operation string, err error) {
	status, message, kind := classify(err)
	metrics.RecordError(ctx, operation, kind)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(apiError{Message: message})
}

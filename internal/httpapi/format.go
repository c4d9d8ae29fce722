package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/fomalhaut/cclogs/internal/store"
)

// formatOf reads the "format" query parameter, defaulting to JSON.
func formatOf(r *http.Request) string {
	f := r.URL.Query().Get("format")
	if f == "" {
		return "json"
	}
	return f
}

// writeMessages renders rows as either a plaintext transcript or a JSON
// array, according to format.
func writeMessages(w http.ResponseWriter, format string, rows []store.MessageRow) {
	if format == "plaintext" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		for _, row := range rows {
			fmt.Fprintf(w, "[%s] <%s> %s\n", row.Timestamp.UTC().Format("15:04:05"), row.Author, row.Body)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if rows == nil {
		rows = []store.MessageRow{}
	}
	_ = enc.Encode(rows)
}

// writeJSON writes v as a JSON response body with a 200 status.
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fomalhaut/cclogs/internal/store"
)

func TestFormatOfDefaultsToJSON(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/logs/latest", nil)
	assert.Equal(t, "json", formatOf(r))

	r = httptest.NewRequest(http.MethodGet, "/logs/latest?format=plaintext", nil)
	assert.Equal(t, "plaintext", formatOf(r))
}

func TestWriteMessagesPlaintext(t *testing.T) {
	rows := []store.MessageRow{
		{Offset: 0, Author: "alice", Body: "hi", Timestamp: time.Date(2024, 1, 1, 10, 30, 0, 0, time.UTC)},
	}
	w := httptest.NewRecorder()
	writeMessages(w, "plaintext", rows)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[10:30:00] <alice> hi\n", w.Body.String())
}

func TestWriteMessagesJSON(t *testing.T) {
	rows := []store.MessageRow{
		{Offset: 0, Author: "alice", Body: "hi", Timestamp: time.Date(2024, 1, 1, 10, 30, 0, 0, time.UTC)},
	}
	w := httptest.NewRecorder()
	writeMessages(w, "json", rows)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"author":"alice"`)
}

func TestWriteMessagesEmptyJSONIsArrayNotNull(t *testing.T) {
	w := httptest.NewRecorder()
	writeMessages(w, "json", nil)
	assert.Equal(t, "[]\n", w.Body.String())
}

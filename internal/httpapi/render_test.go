package httpapi

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fomalhaut/cclogs/internal/store"
)

func TestDefaultRendererRenderDay(t *testing.T) {
	r := NewDefaultRenderer()
	w := httptest.NewRecorder()
	rows := []store.MessageRow{{Author: "alice", Body: "hi", Timestamp: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)}}

	require.NoError(t, r.RenderDay(w, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), rows))
	assert.Contains(t, w.Body.String(), "2024-01-01")
	assert.Contains(t, w.Body.String(), "alice")
}

func TestDefaultRendererRenderSearch(t *testing.T) {
	r := NewDefaultRenderer()
	w := httptest.NewRecorder()
	rows := []store.MessageRow{{Author: "bob", Body: "world", Timestamp: time.Now()}}

	require.NoError(t, r.RenderSearch(w, "author:bob", rows))
	assert.Contains(t, w.Body.String(), "author:bob")
	assert.Contains(t, w.Body.String(), "world")
}

func TestDefaultRendererRenderError(t *testing.T) {
	r := NewDefaultRenderer()
	w := httptest.NewRecorder()

	require.NoError(t, r.RenderError(w, 400, "Malformed query"))
	assert.Equal(t, 400, w.Code)
	assert.Contains(t, w.Body.String(), "Malformed query")
}

// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package log

import (
	"bufio"
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddleware_LogsRoutePatternAndStatus(t *testing.T) {
	var buf bytes.Buffer
	Configure(Config{Level: "debug", Output: &buf, Service: "test"})
	t.Cleanup(func() { Configure(Config{}) })

	r := chi.NewRouter()
	r.Use(Middleware())
	r.Get("/convert/{format}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("abc"))
	})

	req := httptest.NewRequest(http.MethodGet, "/convert/mp4", nil)
	req = req.WithContext(ContextWithRequestID(req.Context(), "rid-42"))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var entry map[string]any
	sc := bufio.NewScanner(&buf)
	for sc.Scan() {
		var e map[string]any
		require.NoError(t, json.Unmarshal(sc.Bytes(), &e))
		if e[FieldEvent] == "http.request" {
			entry = e
		}
	}
	require.NotNil(t, entry, "access log line missing")

	assert.Equal(t, "/convert/{format}", entry[FieldRoute])
	assert.EqualValues(t, http.StatusTeapot, entry[FieldStatus])
	assert.EqualValues(t, 3, entry[FieldBytes])
	assert.Equal(t, "rid-42", entry[FieldRequestID])
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "test", entry["service"])
}

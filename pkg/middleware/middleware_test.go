package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func TestDemoModeBlocksWrites(t *testing.T) {
	h := DemoMode(true)(http.HandlerFunc(okHandler))

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/api/visitors", http.StatusNoContent},
		{http.MethodPost, "/api/visitors", http.StatusForbidden},
		{http.MethodPut, "/api/visitors/1/checkout", http.StatusForbidden},
		{http.MethodDelete, "/api/visitors/1", http.StatusForbidden},
		{http.MethodPatch, "/api/admin/1", http.StatusForbidden},
		{http.MethodPost, "/api/auth/login", http.StatusNoContent},
		{http.MethodPost, "/api/auth/logout/", http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusForbidden {
				assert.Contains(t, rec.Body.String(), "DEMO_MODE")
			}
		})
	}
}

func TestDemoModeDisabledPassesThrough(t *testing.T) {
	h := DemoMode(false)(http.HandlerFunc(okHandler))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/visitors", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRequestIDPropagates(t *testing.T) {
	h := RequestID(http.HandlerFunc(okHandler))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc")
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc", rec.Header().Get("X-Request-ID"))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Len(t, rec.Header().Get("X-Request-ID"), 36)
}

func TestHealth(t *testing.T) {
	h := Health(http.HandlerFunc(okHandler))

	for _, path := range []string{"/healthz", "/api/health"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"status":"ok"`)
	}
}

func TestMetricsRecordsRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Metrics)
	r.Get("/api/visitors/{id}", okHandler)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/visitors/42", nil))
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `vms_http_requests_total{method="GET",route="/api/visitors/{id}",status="204"}`), body)
}

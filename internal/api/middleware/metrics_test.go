package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsMiddleware(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/api/tasks/{id}/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.Handle("/metrics", m.Handler())

	for _, path := range []string{"/api/tasks/1/", "/api/tasks/2/"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	text := string(body)
	assert.Contains(t, text, `http_requests_total{method="GET",route="/api/tasks/{id}/",status="404"} 2`)
	assert.Contains(t, text, `http_request_duration_seconds_count{method="GET",route="/api/tasks/{id}/"} 2`)
	assert.Contains(t, text, "http_in_flight_requests")
}

func TestNormalizeRoute(t *testing.T) {
	assert.Equal(t, "/api/tasks/{id}/", normalizeRoute("/api/tasks/17/"))
	assert.Equal(t, "/api/tasks/statistics/", normalizeRoute("/api/tasks/statistics/"))
}

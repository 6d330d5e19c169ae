package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apiMiddleware "github.com/taskboard/taskboard/internal/api/middleware"
	"github.com/taskboard/taskboard/internal/config"
	"github.com/taskboard/taskboard/internal/domain"
	"github.com/taskboard/taskboard/internal/mocks"
	"github.com/taskboard/taskboard/internal/platform/cache"
)

const testAPIKey = "test-key"

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Port:            8080,
			LogLevel:        "info",
			HSTS:            true,
			ShutdownTimeout: time.Second,
		},
		Database:  config.DatabaseConfig{URL: "postgres://localhost/taskboard"},
		Auth:      config.AuthConfig{APIKey: testAPIKey},
		RateLimit: config.RateLimitConfig{Enabled: true, Requests: 3, Window: time.Minute, Backend: "memory"},
	}
}

func newTestApp(t *testing.T, svc *mocks.MockTaskService) *application {
	t.Helper()
	cfg := testConfig()
	apiKey, err := apiMiddleware.NewAPIKeyMiddleware(cfg.Auth)
	require.NoError(t, err)

	return &application{
		config:      cfg,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		taskService: svc,
		apiKey:      apiKey,
		limiter:     apiMiddleware.NewMemoryLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window),
		metrics:     apiMiddleware.NewMetrics(prometheus.NewRegistry()),
	}
}

func serve(h http.Handler, method, target, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	if key != "" {
		req.Header.Set(apiMiddleware.APIKeyHeader, key)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouterHealth(t *testing.T) {
	router := newTestApp(t, &mocks.MockTaskService{}).setupRouter()

	rec := serve(router, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, apiMiddleware.HSTSValue, rec.Header().Get("Strict-Transport-Security"))
	assert.NotEmpty(t, rec.Header().Get(apiMiddleware.TraceIDHeader))
}

func TestRouterRequiresAPIKey(t *testing.T) {
	router := newTestApp(t, &mocks.MockTaskService{}).setupRouter()

	rec := serve(router, http.MethodGet, "/api/tasks/", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = serve(router, http.MethodGet, "/api/tasks/", "wrong")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRouterListTasks(t *testing.T) {
	svc := &mocks.MockTaskService{
		Tasks: []domain.Task{{ID: 1, Title: "Write docs", Status: domain.StatusInProgress, Priority: domain.PriorityHigh}},
	}
	router := newTestApp(t, svc).setupRouter()

	rec := serve(router, http.MethodGet, "/api/tasks/?status=IN_PROGRESS", testAPIKey)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Count   int           `json:"count"`
		Results []domain.Task `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Count)
	require.Len(t, body.Results, 1)
	assert.Equal(t, "Write docs", body.Results[0].Title)
	assert.Equal(t, "3", rec.Header().Get("X-RateLimit-Limit"))

	require.Len(t, svc.ListFilters, 1)
	require.NotNil(t, svc.ListFilters[0].Status)
	assert.Equal(t, domain.StatusInProgress, *svc.ListFilters[0].Status)
}

func TestRouterRateLimit(t *testing.T) {
	router := newTestApp(t, &mocks.MockTaskService{}).setupRouter()

	for i := 0; i < 3; i++ {
		rec := serve(router, http.MethodGet, "/api/tasks/statistics/", testAPIKey)
		require.Equal(t, http.StatusOK, rec.Code, "request %d", i)
	}

	rec := serve(router, http.MethodGet, "/api/tasks/statistics/", testAPIKey)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	// Health checks are not throttled.
	assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/health", "").Code)
}

func TestRouterMetrics(t *testing.T) {
	router := newTestApp(t, &mocks.MockTaskService{}).setupRouter()

	serve(router, http.MethodGet, "/api/tasks/statistics/", testAPIKey)
	rec := serve(router, http.MethodGet, "/metrics", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "http_requests_total"))
}

func TestNewApplication(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("without redis", func(t *testing.T) {
		app, err := newApplication(testConfig(), logger, db, nil)
		require.NoError(t, err)

		assert.IsType(t, &apiMiddleware.MemoryLimiter{}, app.limiter)
		assert.NotNil(t, app.taskService)
		assert.NotNil(t, app.tracerProvider)
	})

	t.Run("redis cache and limiter", func(t *testing.T) {
		mr := miniredis.RunT(t)
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { _ = client.Close() })

		cfg := testConfig()
		cfg.Redis.URL = "redis://" + mr.Addr()
		cfg.Cache.TTL = time.Minute
		cfg.RateLimit.Backend = "redis"

		app, err := newApplication(cfg, logger, db, client)
		require.NoError(t, err)

		assert.IsType(t, &cache.TaskCache{}, app.taskStore)
		assert.IsType(t, &apiMiddleware.RedisLimiter{}, app.limiter)
	})

	t.Run("redis limiter without client", func(t *testing.T) {
		cfg := testConfig()
		cfg.RateLimit.Backend = "redis"

		_, err := newApplication(cfg, logger, db, nil)
		assert.Error(t, err)
	})

	t.Run("rate limiting disabled", func(t *testing.T) {
		cfg := testConfig()
		cfg.RateLimit.Enabled = false

		app, err := newApplication(cfg, logger, db, nil)
		require.NoError(t, err)
		assert.Nil(t, app.limiter)
	})

	t.Run("missing api key", func(t *testing.T) {
		cfg := testConfig()
		cfg.Auth = config.AuthConfig{}

		_, err := newApplication(cfg, logger, db, nil)
		assert.ErrorIs(t, err, apiMiddleware.ErrNoAPIKey)
	})
}

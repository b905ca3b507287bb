package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stemsi/exstem-planner/internal/config"
	"github.com/stemsi/exstem-planner/internal/handler"
	"github.com/stemsi/exstem-planner/internal/metrics"
	"github.com/stemsi/exstem-planner/internal/middleware"
	"github.com/stemsi/exstem-planner/internal/model"
	"github.com/stemsi/exstem-planner/internal/sampling"
)

type countingCounter struct{ hits map[string]int64 }

func (c *countingCounter) Incr(_ context.Context, key string, _ time.Duration) (int64, error) {
	c.hits[key]++
	return c.hits[key], nil
}

type stubCatalog struct{}

func (stubCatalog) ListModules(context.Context, string) ([]model.Module, error) {
	return []model.Module{{Key: "A"}}, nil
}

func (stubCatalog) ListChapters(context.Context, string) ([]model.Chapter, error) {
	return []model.Chapter{}, nil
}

type stubPlanner struct{}

func (stubPlanner) Preview(_ context.Context, _ sampling.Configuration, seed int64) (*model.PlanResponse, error) {
	return &model.PlanResponse{Plan: sampling.Plan{Seed: seed, Status: sampling.StatusSatisfied}}, nil
}

func (stubPlanner) PlanForConfiguration(_ context.Context, id string, seed int64) (*model.PlanResponse, error) {
	return &model.PlanResponse{ConfigurationID: id, Plan: sampling.Plan{Seed: seed, Status: sampling.StatusSatisfied}}, nil
}

func (stubPlanner) ListPersisted(context.Context, string, int) ([]model.PlanRecord, error) {
	return []model.PlanRecord{}, nil
}

func testRouter(t *testing.T, rate int) http.Handler {
	t.Helper()
	log := zerolog.Nop()
	reg := prometheus.NewRegistry()
	metrics.NewPlannerMetrics(reg).CacheMiss()

	handlers := &Handlers{
		Catalog: handler.NewCatalogHandler(stubCatalog{}, log),
		Plan:    handler.NewPlanHandler(stubPlanner{}, log),
		// The routes below are not exercised here.
		Question:      handler.NewQuestionHandler(nil, log),
		Configuration: handler.NewConfigurationHandler(nil, log),
	}
	limiter := middleware.NewRateLimiter(&countingCounter{hits: map[string]int64{}}, rate, time.Minute, log)
	return SetupRouter(handlers, limiter, reg, &config.Config{GinMode: "test"})
}

func get(r http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestHealthAndMetrics(t *testing.T) {
	r := testRouter(t, 10)

	w := get(r, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = get(r, "/metrics")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `planner_cache_lookups_total{result="miss"} 1`)
}

func TestCatalogIsCacheable(t *testing.T) {
	r := testRouter(t, 10)

	w := get(r, "/api/v1/formations/F-1/modules")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "private, max-age=300", w.Header().Get("Cache-Control"))
}

func TestPlanRoutesAreRateLimited(t *testing.T) {
	r := testRouter(t, 2)
	path := "/api/v1/configurations/0192a7c4-5b7e-7cc0-8000-000000000001/plans?seed=1"

	for range 2 {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, path, nil))
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, path, nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "RATE_LIMIT_EXCEEDED")

	// Listing persisted plans does not count against the limit.
	w = get(r, "/api/v1/configurations/0192a7c4-5b7e-7cc0-8000-000000000001/plans")
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	body := strings.NewReader(`{"configuration":{"name":"x","total_questions":1},"seed":1}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/plans/preview", body)
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusTooManyRequests, w.Code, "preview shares the plan budget")
}

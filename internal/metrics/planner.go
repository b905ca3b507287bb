// Package metrics exposes Prometheus instruments for the planner.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/stemsi/exstem-planner/internal/sampling"
)

// PlannerMetrics records planning outcomes, cache effectiveness and
// persistence throughput.
type PlannerMetrics struct {
	plans          *prometheus.CounterVec
	planDuration   prometheus.Histogram
	shortfall      prometheus.Counter
	cacheLookups   *prometheus.CounterVec
	persistedPlans *prometheus.CounterVec
}

// NewPlannerMetrics creates the planner instruments and registers them on reg.
func NewPlannerMetrics(reg prometheus.Registerer) *PlannerMetrics {
	factory := promauto.With(reg)
	return &PlannerMetrics{
		plans: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "planner_plans_total",
				Help: "Plans drawn, by resulting status.",
			},
			[]string{"status"},
		),
		planDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "planner_plan_duration_seconds",
				Help:    "Time spent loading questions and drawing a plan.",
				Buckets: prometheus.DefBuckets,
			},
		),
		shortfall: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "planner_shortfall_questions_total",
				Help: "Questions requested but not available in the pool.",
			},
		),
		cacheLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "planner_cache_lookups_total",
				Help: "Plan cache lookups, by result.",
			},
			[]string{"result"},
		),
		persistedPlans: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "planner_persisted_plans_total",
				Help: "Plans written by the persistence worker, by result.",
			},
			[]string{"result"},
		),
	}
}

// ObservePlan records one planning run.
func (m *PlannerMetrics) ObservePlan(plan sampling.Plan, took time.Duration) {
	m.plans.WithLabelValues(string(plan.Status)).Inc()
	m.planDuration.Observe(took.Seconds())

	missing := 0
	for _, s := range plan.Shortfalls {
		missing += s.Requested - s.Supplied
	}
	if missing > 0 {
		m.shortfall.Add(float64(missing))
	}
}

// CacheHit records a plan served from the cache.
func (m *PlannerMetrics) CacheHit() { m.cacheLookups.WithLabelValues("hit").Inc() }

// CacheMiss records a lookup that had to draw a new plan.
func (m *PlannerMetrics) CacheMiss() { m.cacheLookups.WithLabelValues("miss").Inc() }

// Persisted records n plans written to Postgres.
func (m *PlannerMetrics) Persisted(n int) {
	m.persistedPlans.WithLabelValues("ok").Add(float64(n))
}

// Requeued records n plans pushed back onto the queue after a failed write.
func (m *PlannerMetrics) Requeued(n int) {
	m.persistedPlans.WithLabelValues("requeued").Add(float64(n))
}

// Dropped records n plans discarded without being written.
func (m *PlannerMetrics) Dropped(n int) {
	m.persistedPlans.WithLabelValues("dropped").Add(float64(n))
}

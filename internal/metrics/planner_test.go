package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/stemsi/exstem-planner/internal/sampling"
)

func TestObservePlan(t *testing.T) {
	m := NewPlannerMetrics(prometheus.NewRegistry())

	m.ObservePlan(sampling.Plan{Status: sampling.StatusSatisfied}, 10*time.Millisecond)
	m.ObservePlan(sampling.Plan{
		Status: sampling.StatusPartiallySatisfied,
		Shortfalls: []sampling.BucketReport{
			{Bucket: "easy", Requested: 10, Supplied: 3},
			{Bucket: "hard", Requested: 2, Supplied: 1},
		},
	}, 20*time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.plans.WithLabelValues("SATISFIED")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.plans.WithLabelValues("PARTIALLY_SATISFIED")))
	assert.Equal(t, 8.0, testutil.ToFloat64(m.shortfall))
	assert.Equal(t, 1, testutil.CollectAndCount(m.planDuration))
}

func TestCacheAndPersistenceCounters(t *testing.T) {
	m := NewPlannerMetrics(prometheus.NewRegistry())

	m.CacheHit()
	m.CacheMiss()
	m.CacheMiss()
	m.Persisted(5)
	m.Requeued(2)
	m.Dropped(1)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheLookups.WithLabelValues("hit")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.cacheLookups.WithLabelValues("miss")))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.persistedPlans.WithLabelValues("ok")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.persistedPlans.WithLabelValues("requeued")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.persistedPlans.WithLabelValues("dropped")))
}

func TestRegistersOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewPlannerMetrics(reg)
	assert.Panics(t, func() { NewPlannerMetrics(reg) })
}

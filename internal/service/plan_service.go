package service

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-planner/internal/cache"
	"github.com/stemsi/exstem-planner/internal/metrics"
	"github.com/stemsi/exstem-planner/internal/model"
	"github.com/stemsi/exstem-planner/internal/sampling"
)

// PlanStore reads plans persisted by the plan worker.
type PlanStore interface {
	ListByConfiguration(ctx context.Context, configurationID string, limit int) ([]model.PlanRecord, error)
}

// PlanService draws question sets for configurations.
type PlanService struct {
	configs   *ConfigurationService
	catalog   OwnerKeySource
	questions *QuestionService
	plans     PlanStore
	cache     cache.PlanCache
	metrics   *metrics.PlannerMetrics
	log       zerolog.Logger
}

// NewPlanService creates a new PlanService.
func NewPlanService(
	configs *ConfigurationService,
	catalog OwnerKeySource,
	questions *QuestionService,
	plans PlanStore,
	planCache cache.PlanCache,
	m *metrics.PlannerMetrics,
	log zerolog.Logger,
) *PlanService {
	return &PlanService{
		configs:   configs,
		catalog:   catalog,
		questions: questions,
		plans:     plans,
		cache:     planCache,
		metrics:   m,
		log:       log.With().Str("component", "plan_service").Logger(),
	}
}

// Preview draws a plan for a configuration that has not been saved. Nothing
// is cached or persisted.
func (s *PlanService) Preview(ctx context.Context, cfg sampling.Configuration, seed int64) (*model.PlanResponse, error) {
	start := time.Now()
	pool, err := s.loadPool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	plan, err := s.draw(cfg, pool, seed, start)
	if err != nil {
		return nil, err
	}
	return &model.PlanResponse{Plan: plan, Supplied: plan.Supplied()}, nil
}

// PlanForConfiguration draws the plan of a saved configuration for seed. A
// cached plan is served while both the configuration version and the question
// pool are unchanged; other plans are cached and queued for persistence
// unless they failed.
func (s *PlanService) PlanForConfiguration(ctx context.Context, id string, seed int64) (*model.PlanResponse, error) {
	cfg, err := s.configs.Load(ctx, id)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	pool, err := s.loadPool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	fingerprint := pool.Fingerprint()

	cached, err := s.cache.Get(ctx, cfg.ID, seed)
	if err != nil {
		s.log.Warn().Err(err).Str("configuration_id", cfg.ID).Msg("Plan cache lookup failed")
	}
	if cached != nil {
		if cached.ConfigurationVersion == cfg.Version && cached.PoolFingerprint == fingerprint {
			s.metrics.CacheHit()
			return &model.PlanResponse{
				ConfigurationID:      cfg.ID,
				ConfigurationVersion: cfg.Version,
				Plan:                 cached.Plan(),
				Supplied:             len(cached.QuestionIDs),
				Cached:               true,
			}, nil
		}
		// The configuration was saved or its questions changed since it was
		// cached: every seed of this configuration is stale.
		s.log.Debug().
			Str("configuration_id", cfg.ID).
			Int("cached_version", cached.ConfigurationVersion).
			Int("version", cfg.Version).
			Bool("pool_changed", cached.PoolFingerprint != fingerprint).
			Msg("Dropping stale cached plans")
		if err := s.cache.Invalidate(ctx, cfg.ID); err != nil {
			s.log.Warn().Err(err).Str("configuration_id", cfg.ID).Msg("Plan cache invalidation failed")
		}
	}
	s.metrics.CacheMiss()

	plan, err := s.draw(cfg, pool, seed, start)
	if err != nil {
		return nil, err
	}

	if plan.Status != sampling.StatusFailed {
		rec := model.NewPlanRecord(cfg.ID, cfg.Version, fingerprint, plan)
		if err := s.cache.Store(ctx, rec); err != nil {
			return nil, fmt.Errorf("store plan: %w", err)
		}
	}

	return &model.PlanResponse{
		ConfigurationID:      cfg.ID,
		ConfigurationVersion: cfg.Version,
		Plan:                 plan,
		Supplied:             plan.Supplied(),
	}, nil
}

// ListPersisted retrieves the latest plans written for a configuration.
func (s *PlanService) ListPersisted(ctx context.Context, id string, limit int) ([]model.PlanRecord, error) {
	if _, err := s.configs.Load(ctx, id); err != nil {
		return nil, err
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	plans, err := s.plans.ListByConfiguration(ctx, id, limit)
	if err != nil {
		return nil, err
	}
	if plans == nil {
		plans = []model.PlanRecord{}
	}
	return plans, nil
}

// loadPool fetches the questions cfg draws from.
func (s *PlanService) loadPool(ctx context.Context, cfg sampling.Configuration) (*sampling.Pool, error) {
	ownerKeys, err := s.poolOwners(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return s.questions.LoadPool(ctx, ownerKeys)
}

func (s *PlanService) draw(cfg sampling.Configuration, pool *sampling.Pool, seed int64, start time.Time) (sampling.Plan, error) {
	plan, err := sampling.NewPlan(cfg, pool, seed)
	s.metrics.ObservePlan(plan, time.Since(start))
	if err != nil {
		return plan, err
	}

	s.log.Debug().
		Str("configuration_id", cfg.ID).
		Int64("seed", seed).
		Str("status", string(plan.Status)).
		Int("requested", plan.Requested).
		Int("supplied", plan.Supplied()).
		Msg("Plan drawn")
	return plan, nil
}

// poolOwners picks the owners whose questions form the pool: the keys of
// the owner distribution, or every owner of the configuration's scope.
func (s *PlanService) poolOwners(ctx context.Context, cfg sampling.Configuration) ([]string, error) {
	if len(cfg.OwnerDistribution) > 0 {
		return cfg.OwnerDistribution.Keys(), nil
	}

	keys, err := s.catalog.OwnerKeys(ctx, cfg.Scope)
	if errors.Is(err, ErrMissingScope) || errors.Is(err, ErrUnknownScope) {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
	}
	if err != nil {
		return nil, err
	}
	return slices.Sorted(maps.Keys(keys)), nil
}

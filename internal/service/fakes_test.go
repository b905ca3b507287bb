package service

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/stemsi/exstem-planner/internal/model"
	"github.com/stemsi/exstem-planner/internal/repository"
	"github.com/stemsi/exstem-planner/internal/sampling"
)

type memoryConfigurationStore struct {
	mu      sync.Mutex
	configs map[string]sampling.Configuration
}

func newMemoryConfigurationStore() *memoryConfigurationStore {
	return &memoryConfigurationStore{configs: make(map[string]sampling.Configuration)}
}

func (m *memoryConfigurationStore) Create(_ context.Context, cfg sampling.Configuration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cfg.Version = 1
	m.configs[cfg.ID] = cfg
	return nil
}

func (m *memoryConfigurationStore) Update(_ context.Context, cfg sampling.Configuration) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.configs[cfg.ID]
	if !ok {
		return 0, repository.ErrNotFound
	}
	if stored.Version != cfg.Version {
		return 0, repository.ErrVersionConflict
	}
	cfg.Version++
	m.configs[cfg.ID] = cfg
	return cfg.Version, nil
}

func (m *memoryConfigurationStore) Get(_ context.Context, id string) (sampling.Configuration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cfg, ok := m.configs[id]
	if !ok {
		return sampling.Configuration{}, repository.ErrNotFound
	}
	return cfg, nil
}

func (m *memoryConfigurationStore) List(_ context.Context, limit, offset int) ([]model.ConfigurationSummary, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.ConfigurationSummary
	for _, cfg := range m.configs {
		out = append(out, model.ConfigurationSummary{ID: cfg.ID, Name: cfg.Name, Version: cfg.Version})
	}
	slices.SortFunc(out, func(a, b model.ConfigurationSummary) int { return strings.Compare(a.ID, b.ID) })
	total := len(out)
	if offset >= total {
		return nil, total, nil
	}
	return out[offset:min(offset+limit, total)], total, nil
}

func (m *memoryConfigurationStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.configs[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.configs, id)
	return nil
}

type memoryCatalogStore struct {
	modules  map[string][]model.Module
	chapters map[string][]model.Chapter
}

func (m *memoryCatalogStore) ListModules(_ context.Context, formationID string) ([]model.Module, error) {
	return m.modules[formationID], nil
}

func (m *memoryCatalogStore) ListChapters(_ context.Context, certificationID string) ([]model.Chapter, error) {
	return m.chapters[certificationID], nil
}

type memoryQuestionStore struct {
	mu      sync.Mutex
	byOwner map[string][]model.Question
	failOn  string
}

func newMemoryQuestionStore() *memoryQuestionStore {
	return &memoryQuestionStore{byOwner: make(map[string][]model.Question)}
}

func (m *memoryQuestionStore) ListByOwner(_ context.Context, ownerKey string) ([]model.Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ownerKey == m.failOn {
		return nil, fmt.Errorf("connection reset")
	}
	return slices.Clone(m.byOwner[ownerKey]), nil
}

func (m *memoryQuestionStore) Create(_ context.Context, q *model.Question) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	q.ID = uuid.New()
	m.byOwner[q.OwnerKey] = append(m.byOwner[q.OwnerKey], *q)
	return nil
}

func (m *memoryQuestionStore) ReplaceAll(_ context.Context, ownerKey string, questions []model.Question) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byOwner[ownerKey] = slices.Clone(questions)
	return nil
}

// seed adds n questions of difficulty d to owner.
func (m *memoryQuestionStore) seed(owner string, d sampling.Difficulty, n int) {
	for i := range n {
		m.byOwner[owner] = append(m.byOwner[owner], model.Question{
			ID:           uuid.New(),
			OwnerKey:     owner,
			QuestionText: fmt.Sprintf("%s %s #%d", owner, d, i),
			Difficulty:   d,
			Points:       1,
		})
	}
}

type memoryPlanStore struct {
	records []model.PlanRecord
}

func (m *memoryPlanStore) ListByConfiguration(_ context.Context, configurationID string, limit int) ([]model.PlanRecord, error) {
	var out []model.PlanRecord
	for _, r := range m.records {
		if r.ConfigurationID == configurationID && len(out) < limit {
			out = append(out, r)
		}
	}
	return out, nil
}

type memoryPlanCache struct {
	entries     map[string]model.PlanRecord
	queued      []model.PlanRecord
	invalidated []string
}

func newMemoryPlanCache() *memoryPlanCache {
	return &memoryPlanCache{entries: make(map[string]model.PlanRecord)}
}

func cacheKey(id string, seed int64) string { return fmt.Sprintf("%s:%d", id, seed) }

func (m *memoryPlanCache) Get(_ context.Context, id string, seed int64) (*model.PlanRecord, error) {
	rec, ok := m.entries[cacheKey(id, seed)]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (m *memoryPlanCache) Store(_ context.Context, rec model.PlanRecord) error {
	m.entries[cacheKey(rec.ConfigurationID, rec.Seed)] = rec
	m.queued = append(m.queued, rec)
	return nil
}

func (m *memoryPlanCache) Invalidate(_ context.Context, id string) error {
	m.invalidated = append(m.invalidated, id)
	for k := range m.entries {
		if strings.HasPrefix(k, id+":") {
			delete(m.entries, k)
		}
	}
	return nil
}

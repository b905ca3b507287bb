package service

import (
	"context"
	"testing"

	govalidator "github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stemsi/exstem-planner/internal/model"
	"github.com/stemsi/exstem-planner/internal/sampling"
)

func testCatalog() *CatalogService {
	return NewCatalogService(&memoryCatalogStore{
		modules: map[string][]model.Module{
			"F-1": {{Key: "A", FormationID: "F-1"}, {Key: "B", FormationID: "F-1"}},
		},
		chapters: map[string][]model.Chapter{
			"C-1": {{Key: "ch-1", CertificationID: "C-1"}},
		},
	}, zerolog.Nop())
}

func validConfiguration() sampling.Configuration {
	return sampling.Configuration{
		Name:                   "Midterm",
		TotalQuestions:         20,
		DifficultyDistribution: sampling.DistributionMap{"easy": 50, "medium": 30, "hard": 20},
		OwnerDistribution:      sampling.DistributionMap{"A": 70, "B": 30},
		PassingScore:           60,
		Scope:                  sampling.Scope{Kind: sampling.ScopeFormation, ID: "F-1"},
	}
}

func TestConfigurationServiceSaveCreates(t *testing.T) {
	store := newMemoryConfigurationStore()
	svc := NewConfigurationService(store, testCatalog(), zerolog.Nop())

	id, err := svc.Save(context.Background(), validConfiguration())
	require.NoError(t, err)
	require.NotEmpty(t, id)

	loaded, err := svc.Load(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.Version)
	assert.Equal(t, 20, loaded.TotalQuestions)
}

func TestConfigurationServiceSaveRejects(t *testing.T) {
	limit := 0

	tests := []struct {
		name    string
		mutate  func(*sampling.Configuration)
		wantErr []error
	}{
		{
			name:    "zero total",
			mutate:  func(c *sampling.Configuration) { c.TotalQuestions = 0 },
			wantErr: []error{ErrInvalidConfiguration},
		},
		{
			name:    "passing score above 100",
			mutate:  func(c *sampling.Configuration) { c.PassingScore = 101 },
			wantErr: []error{ErrInvalidConfiguration},
		},
		{
			name:    "zero time limit",
			mutate:  func(c *sampling.Configuration) { c.TimeLimitMinutes = &limit },
			wantErr: []error{ErrInvalidConfiguration},
		},
		{
			name: "difficulty sum of 99",
			mutate: func(c *sampling.Configuration) {
				c.DifficultyDistribution = sampling.DistributionMap{"easy": 40, "medium": 35, "hard": 24}
			},
			wantErr: []error{ErrInvalidConfiguration, sampling.ErrDistributionNotComplete},
		},
		{
			name: "unknown difficulty",
			mutate: func(c *sampling.Configuration) {
				c.DifficultyDistribution = sampling.DistributionMap{"easy": 50, "expert": 50}
			},
			wantErr: []error{ErrInvalidConfiguration, sampling.ErrUnknownBucket},
		},
		{
			name: "owner outside the formation",
			mutate: func(c *sampling.Configuration) {
				c.OwnerDistribution = sampling.DistributionMap{"A": 70, "Z": 30}
			},
			wantErr: []error{ErrInvalidConfiguration, sampling.ErrUnknownBucket},
		},
		{
			name:    "owner distribution without scope",
			mutate:  func(c *sampling.Configuration) { c.Scope = sampling.Scope{} },
			wantErr: []error{ErrInvalidConfiguration, ErrMissingScope},
		},
		{
			name:    "unknown scope kind",
			mutate:  func(c *sampling.Configuration) { c.Scope.Kind = "course" },
			wantErr: []error{ErrInvalidConfiguration},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemoryConfigurationStore()
			svc := NewConfigurationService(store, testCatalog(), zerolog.Nop())

			cfg := validConfiguration()
			tt.mutate(&cfg)

			_, err := svc.Save(context.Background(), cfg)
			require.Error(t, err)
			for _, want := range tt.wantErr {
				assert.ErrorIs(t, err, want)
			}
			assert.Empty(t, store.configs, "nothing is persisted")
		})
	}
}

func TestConfigurationServiceFieldErrorsSurvive(t *testing.T) {
	svc := NewConfigurationService(newMemoryConfigurationStore(), testCatalog(), zerolog.Nop())
	cfg := validConfiguration()
	cfg.TotalQuestions = 0

	_, err := svc.Save(context.Background(), cfg)

	var ve govalidator.ValidationErrors
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "total_questions", ve[0].Field())
}

func TestConfigurationServiceUpdate(t *testing.T) {
	ctx := context.Background()
	store := newMemoryConfigurationStore()
	svc := NewConfigurationService(store, testCatalog(), zerolog.Nop())

	id, err := svc.Save(ctx, validConfiguration())
	require.NoError(t, err)

	cfg, err := svc.Load(ctx, id)
	require.NoError(t, err)
	cfg.TotalQuestions = 25

	_, err = svc.Save(ctx, cfg)
	require.NoError(t, err)

	// cfg still carries version 1, which is now stale.
	_, err = svc.Save(ctx, cfg)
	assert.ErrorIs(t, err, ErrConfigurationConflict)

	cfg.ID = "does-not-exist"
	_, err = svc.Save(ctx, cfg)
	assert.ErrorIs(t, err, ErrConfigurationNotFound)
}

func TestConfigurationServiceLoadMissing(t *testing.T) {
	svc := NewConfigurationService(newMemoryConfigurationStore(), nil, zerolog.Nop())

	_, err := svc.Load(context.Background(), "cfg-404")
	require.ErrorIs(t, err, ErrConfigurationNotFound)
	assert.Contains(t, err.Error(), "cfg-404")
}

func TestConfigurationServiceWithoutOwnerSource(t *testing.T) {
	svc := NewConfigurationService(newMemoryConfigurationStore(), nil, zerolog.Nop())

	cfg := validConfiguration()
	cfg.Scope = sampling.Scope{}
	_, err := svc.Save(context.Background(), cfg)
	require.NoError(t, err, "owner keys are taken from the distribution itself")

	cfg.OwnerDistribution = sampling.DistributionMap{"A": 70, "B": 20}
	_, err = svc.Save(context.Background(), cfg)
	assert.ErrorIs(t, err, sampling.ErrDistributionNotComplete)
}

func TestConfigurationServiceListAndDelete(t *testing.T) {
	ctx := context.Background()
	svc := NewConfigurationService(newMemoryConfigurationStore(), testCatalog(), zerolog.Nop())

	for range 3 {
		_, err := svc.Save(ctx, validConfiguration())
		require.NoError(t, err)
	}

	items, page, err := svc.List(ctx, 1, 2)
	require.NoError(t, err)
	assert.Len(t, items, 2)
	assert.Equal(t, 3, page.TotalItems)
	assert.Equal(t, 2, page.TotalPages)

	require.NoError(t, svc.Delete(ctx, items[0].ID))
	assert.ErrorIs(t, svc.Delete(ctx, items[0].ID), ErrConfigurationNotFound)

	items, _, err = svc.List(ctx, 5, 10)
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestCatalogOwnerKeys(t *testing.T) {
	catalog := testCatalog()
	ctx := context.Background()

	keys, err := catalog.OwnerKeys(ctx, sampling.Scope{Kind: sampling.ScopeFormation, ID: "F-1"})
	require.NoError(t, err)
	assert.Equal(t, map[string]struct{}{"A": {}, "B": {}}, keys)

	keys, err = catalog.OwnerKeys(ctx, sampling.Scope{Kind: sampling.ScopeCertification, ID: "C-1"})
	require.NoError(t, err)
	assert.Equal(t, map[string]struct{}{"ch-1": {}}, keys)

	_, err = catalog.OwnerKeys(ctx, sampling.Scope{})
	assert.ErrorIs(t, err, ErrMissingScope)

	modules, err := catalog.ListModules(ctx, "unknown")
	require.NoError(t, err)
	assert.NotNil(t, modules)
}

package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-planner/internal/model"
	"github.com/stemsi/exstem-planner/internal/repository"
	"github.com/stemsi/exstem-planner/internal/response"
	"github.com/stemsi/exstem-planner/internal/sampling"
	"github.com/stemsi/exstem-planner/internal/validator"
)

// Domain Errors
var (
	ErrInvalidConfiguration  = errors.New("invalid configuration")
	ErrConfigurationNotFound = errors.New("configuration not found")
	ErrConfigurationConflict = errors.New("configuration was modified concurrently")
)

// ConfigurationStore persists sampling configurations.
type ConfigurationStore interface {
	Create(ctx context.Context, cfg sampling.Configuration) error
	Update(ctx context.Context, cfg sampling.Configuration) (int, error)
	Get(ctx context.Context, id string) (sampling.Configuration, error)
	List(ctx context.Context, limit, offset int) ([]model.ConfigurationSummary, int, error)
	Delete(ctx context.Context, id string) error
}

// OwnerKeySource resolves the module or chapter keys a scope allows.
type OwnerKeySource interface {
	OwnerKeys(ctx context.Context, scope sampling.Scope) (map[string]struct{}, error)
}

// ConfigurationService validates sampling configurations before they reach the store.
type ConfigurationService struct {
	store  ConfigurationStore
	owners OwnerKeySource
	log    zerolog.Logger
}

// NewConfigurationService creates a new ConfigurationService. With a nil
// owners source, owner distributions are only checked for range and sum.
func NewConfigurationService(store ConfigurationStore, owners OwnerKeySource, log zerolog.Logger) *ConfigurationService {
	return &ConfigurationService{
		store:  store,
		owners: owners,
		log:    log.With().Str("component", "configuration_service").Logger(),
	}
}

// Validate runs the range checks and both distribution checks on cfg.
func (s *ConfigurationService) Validate(ctx context.Context, cfg sampling.Configuration) error {
	if err := validator.Struct(cfg); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
	}
	if err := sampling.Validate(cfg.DifficultyDistribution, sampling.DifficultyKeys()); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
	}
	if len(cfg.OwnerDistribution) == 0 {
		return nil
	}

	known, err := s.ownerKeys(ctx, cfg)
	if err != nil {
		return err
	}
	if err := sampling.Validate(cfg.OwnerDistribution, known); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
	}
	return nil
}

func (s *ConfigurationService) ownerKeys(ctx context.Context, cfg sampling.Configuration) (map[string]struct{}, error) {
	if s.owners == nil {
		known := make(map[string]struct{}, len(cfg.OwnerDistribution))
		for k := range cfg.OwnerDistribution {
			known[k] = struct{}{}
		}
		return known, nil
	}

	known, err := s.owners.OwnerKeys(ctx, cfg.Scope)
	if errors.Is(err, ErrMissingScope) || errors.Is(err, ErrUnknownScope) {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
	}
	return known, err
}

// Save validates cfg and stores it. A configuration without an id is created
// with a fresh one; otherwise cfg.Version must match the stored version.
// It returns the configuration id.
func (s *ConfigurationService) Save(ctx context.Context, cfg sampling.Configuration) (string, error) {
	if err := s.Validate(ctx, cfg); err != nil {
		return "", err
	}

	if cfg.ID == "" {
		cfg.ID = uuid.NewString()
		cfg.Version = 1
		if err := s.store.Create(ctx, cfg); err != nil {
			return "", err
		}
		s.log.Info().Str("configuration_id", cfg.ID).Msg("Configuration created")
		return cfg.ID, nil
	}

	version, err := s.store.Update(ctx, cfg)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return "", fmt.Errorf("%w: %s", ErrConfigurationNotFound, cfg.ID)
	case errors.Is(err, repository.ErrVersionConflict):
		return "", fmt.Errorf("%w: %s at version %d", ErrConfigurationConflict, cfg.ID, cfg.Version)
	case err != nil:
		return "", err
	}

	s.log.Info().
		Str("configuration_id", cfg.ID).
		Int("version", version).
		Msg("Configuration updated")
	return cfg.ID, nil
}

// Load retrieves a stored configuration. A missing id is an error, never a default.
func (s *ConfigurationService) Load(ctx context.Context, id string) (sampling.Configuration, error) {
	cfg, err := s.store.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return sampling.Configuration{}, fmt.Errorf("%w: %s", ErrConfigurationNotFound, id)
	}
	return cfg, err
}

// List retrieves configuration summaries with pagination.
func (s *ConfigurationService) List(ctx context.Context, page, perPage int) ([]model.ConfigurationSummary, *response.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}
	if perPage > 100 {
		perPage = 100
	}

	items, total, err := s.store.List(ctx, perPage, (page-1)*perPage)
	if err != nil {
		return nil, nil, err
	}
	if items == nil {
		items = []model.ConfigurationSummary{}
	}

	return items, response.NewPagination(page, perPage, total), nil
}

// Delete removes a configuration.
func (s *ConfigurationService) Delete(ctx context.Context, id string) error {
	err := s.store.Delete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrConfigurationNotFound, id)
	}
	return err
}

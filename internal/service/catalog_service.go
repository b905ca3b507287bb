package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-planner/internal/model"
	"github.com/stemsi/exstem-planner/internal/sampling"
)

var (
	ErrMissingScope = errors.New("owner distribution requires a formation or certification scope")
	ErrUnknownScope = errors.New("unknown scope kind")
)

// CatalogStore reads formation modules and certification chapters.
type CatalogStore interface {
	ListModules(ctx context.Context, formationID string) ([]model.Module, error)
	ListChapters(ctx context.Context, certificationID string) ([]model.Chapter, error)
}

type CatalogService struct {
	store CatalogStore
	log   zerolog.Logger
}

func NewCatalogService(store CatalogStore, log zerolog.Logger) *CatalogService {
	return &CatalogService{
		store: store,
		log:   log.With().Str("component", "catalog_service").Logger(),
	}
}

func (s *CatalogService) ListModules(ctx context.Context, formationID string) ([]model.Module, error) {
	modules, err := s.store.ListModules(ctx, formationID)
	if modules == nil && err == nil {
		modules = []model.Module{}
	}
	return modules, err
}

func (s *CatalogService) ListChapters(ctx context.Context, certificationID string) ([]model.Chapter, error) {
	chapters, err := s.store.ListChapters(ctx, certificationID)
	if chapters == nil && err == nil {
		chapters = []model.Chapter{}
	}
	return chapters, err
}

// OwnerKeys returns the module keys of a formation or the chapter keys of a
// certification.
func (s *CatalogService) OwnerKeys(ctx context.Context, scope sampling.Scope) (map[string]struct{}, error) {
	keys := make(map[string]struct{})

	switch scope.Kind {
	case sampling.ScopeFormation:
		modules, err := s.store.ListModules(ctx, scope.ID)
		if err != nil {
			return nil, err
		}
		for _, m := range modules {
			keys[m.Key] = struct{}{}
		}
	case sampling.ScopeCertification:
		chapters, err := s.store.ListChapters(ctx, scope.ID)
		if err != nil {
			return nil, err
		}
		for _, ch := range chapters {
			keys[ch.Key] = struct{}{}
		}
	case "":
		return nil, ErrMissingScope
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownScope, scope.Kind)
	}

	return keys, nil
}

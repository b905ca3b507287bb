package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/stemsi/exstem-planner/internal/model"
	"github.com/stemsi/exstem-planner/internal/sampling"
)

// questionFetchLimit bounds concurrent per-owner queries.
const questionFetchLimit = 4

// QuestionStore reads and writes the questions of modules and chapters.
type QuestionStore interface {
	ListByOwner(ctx context.Context, ownerKey string) ([]model.Question, error)
	Create(ctx context.Context, q *model.Question) error
	ReplaceAll(ctx context.Context, ownerKey string, questions []model.Question) error
}

// QuestionService handles question business logic.
type QuestionService struct {
	store QuestionStore
	log   zerolog.Logger
}

// NewQuestionService creates a new QuestionService.
func NewQuestionService(store QuestionStore, log zerolog.Logger) *QuestionService {
	return &QuestionService{
		store: store,
		log:   log.With().Str("component", "question_service").Logger(),
	}
}

// ListByOwner retrieves all questions of a module or chapter.
func (s *QuestionService) ListByOwner(ctx context.Context, ownerKey string) ([]model.Question, error) {
	questions, err := s.store.ListByOwner(ctx, ownerKey)
	if err != nil {
		return nil, err
	}
	if questions == nil {
		questions = []model.Question{}
	}
	return questions, nil
}

// ListByOwners fetches the questions of several owners concurrently and
// returns them grouped in the order of ownerKeys.
func (s *QuestionService) ListByOwners(ctx context.Context, ownerKeys []string) ([]model.Question, error) {
	results := make([][]model.Question, len(ownerKeys))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(questionFetchLimit)
	for i, key := range ownerKeys {
		g.Go(func() error {
			questions, err := s.store.ListByOwner(gctx, key)
			if err != nil {
				return fmt.Errorf("list questions of %q: %w", key, err)
			}
			results[i] = questions
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []model.Question
	for _, qs := range results {
		all = append(all, qs...)
	}
	return all, nil
}

// LoadPool builds a question pool from the questions of ownerKeys.
func (s *QuestionService) LoadPool(ctx context.Context, ownerKeys []string) (*sampling.Pool, error) {
	questions, err := s.ListByOwners(ctx, ownerKeys)
	if err != nil {
		return nil, err
	}

	items := make([]sampling.Question, len(questions))
	for i, q := range questions {
		items[i] = q.Sampling()
	}
	return sampling.NewPool(items)
}

// Create adds a question to a module or chapter.
func (s *QuestionService) Create(ctx context.Context, question *model.Question) error {
	if err := checkQuestions(*question); err != nil {
		return err
	}
	return s.store.Create(ctx, question)
}

// ReplaceAll replaces every question of a module or chapter.
func (s *QuestionService) ReplaceAll(ctx context.Context, ownerKey string, questions []model.Question) error {
	for i := range questions {
		// Time-ordered ids keep the pool in insertion order.
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		questions[i].ID = id
		questions[i].OwnerKey = ownerKey
	}
	if err := checkQuestions(questions...); err != nil {
		return err
	}

	if err := s.store.ReplaceAll(ctx, ownerKey, questions); err != nil {
		return err
	}
	s.log.Info().
		Str("owner_key", ownerKey).
		Int("count", len(questions)).
		Msg("Questions replaced")
	return nil
}

// checkQuestions runs the pool's own checks so bad rows never reach the store.
func checkQuestions(questions ...model.Question) error {
	items := make([]sampling.Question, len(questions))
	for i, q := range questions {
		items[i] = q.Sampling()
	}
	_, err := sampling.NewPool(items)
	return err
}

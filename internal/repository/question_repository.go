package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/exstem-planner/internal/model"
)

// QuestionRepository handles question data access.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

// ListByOwner retrieves all questions of a module or chapter in insertion order.
func (r *QuestionRepository) ListByOwner(ctx context.Context, ownerKey string) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, owner_key, question_text, difficulty, points, created_at
		 FROM questions WHERE owner_key = $1
		 ORDER BY created_at, id`, ownerKey,
	)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.ID, &q.OwnerKey, &q.QuestionText, &q.Difficulty, &q.Points, &q.CreatedAt); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// Create inserts a new question.
func (r *QuestionRepository) Create(ctx context.Context, q *model.Question) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO questions (owner_key, question_text, difficulty, points)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		q.OwnerKey, q.QuestionText, q.Difficulty, q.Points,
	).Scan(&q.ID, &q.CreatedAt)
}

// ReplaceAll deletes every question of ownerKey and inserts questions in one
// transaction.
func (r *QuestionRepository) ReplaceAll(ctx context.Context, ownerKey string, questions []model.Question) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin replace questions: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM questions WHERE owner_key = $1`, ownerKey); err != nil {
		return fmt.Errorf("delete questions: %w", err)
	}

	if len(questions) > 0 {
		_, err = tx.CopyFrom(ctx,
			pgx.Identifier{"questions"},
			[]string{"id", "owner_key", "question_text", "difficulty", "points"},
			pgx.CopyFromSlice(len(questions), func(i int) ([]any, error) {
				q := questions[i]
				return []any{q.ID, ownerKey, q.QuestionText, string(q.Difficulty), q.Points}, nil
			}),
		)
		if err != nil {
			return fmt.Errorf("copy questions: %w", err)
		}
	}

	return tx.Commit(ctx)
}

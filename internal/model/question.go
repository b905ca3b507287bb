package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/stemsi/exstem-planner/internal/sampling"
)

// Question is a stored question belonging to one module or chapter.
type Question struct {
	ID           uuid.UUID           `json:"id"`
	OwnerKey     string              `json:"owner_key"`
	QuestionText string              `json:"question_text"`
	Difficulty   sampling.Difficulty `json:"difficulty"`
	Points       int                 `json:"points"`
	CreatedAt    time.Time           `json:"created_at"`
}

// Sampling returns the view of q the planner works with.
func (q Question) Sampling() sampling.Question {
	return sampling.Question{
		ID:         q.ID.String(),
		Difficulty: q.Difficulty,
		OwnerKey:   q.OwnerKey,
		Points:     q.Points,
	}
}

// AddQuestionRequest is the payload for adding a question to a module or chapter.
type AddQuestionRequest struct {
	QuestionText string `json:"question_text" binding:"required,min=1,max=2000"`
	Difficulty   string `json:"difficulty" binding:"required,oneof=easy medium hard"`
	Points       int    `json:"points" binding:"required,min=1,max=100"`
}

// ToQuestion builds a new question for ownerKey.
func (r AddQuestionRequest) ToQuestion(ownerKey string) Question {
	return Question{
		OwnerKey:     ownerKey,
		QuestionText: r.QuestionText,
		Difficulty:   sampling.Difficulty(r.Difficulty),
		Points:       r.Points,
	}
}

// ReplaceQuestionsRequest is the payload for bulk replacing questions.
type ReplaceQuestionsRequest struct {
	Questions []AddQuestionRequest `json:"questions" binding:"dive"`
}

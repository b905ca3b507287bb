package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-planner/internal/model"
	"github.com/stemsi/exstem-planner/internal/response"
	"github.com/stemsi/exstem-planner/internal/validator"
)

// maxOwnerKeyLength matches the owner_key column.
const maxOwnerKeyLength = 64

// QuestionManager reads and writes the questions of one module or chapter.
type QuestionManager interface {
	ListByOwner(ctx context.Context, ownerKey string) ([]model.Question, error)
	Create(ctx context.Context, question *model.Question) error
	ReplaceAll(ctx context.Context, ownerKey string, questions []model.Question) error
}

// QuestionHandler handles question bank endpoints.
type QuestionHandler struct {
	questions QuestionManager
	log       zerolog.Logger
}

// NewQuestionHandler creates a new QuestionHandler.
func NewQuestionHandler(questions QuestionManager, log zerolog.Logger) *QuestionHandler {
	return &QuestionHandler{
		questions: questions,
		log:       log.With().Str("component", "question_handler").Logger(),
	}
}

// ownerKey reads the :owner_key path parameter, failing the request when it
// is unusable.
func ownerKey(c *gin.Context) (string, bool) {
	key := c.Param("owner_key")
	if key == "" || len(key) > maxOwnerKeyLength {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return "", false
	}
	return key, true
}

// ListQuestions godoc
// GET /api/v1/owners/:owner_key/questions
// Lists the questions of a module or chapter in insertion order.
func (h *QuestionHandler) ListQuestions(c *gin.Context) {
	key, ok := ownerKey(c)
	if !ok {
		return
	}

	questions, err := h.questions.ListByOwner(c.Request.Context(), key)
	if err != nil {
		failWithError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"questions": questions})
}

// AddQuestion godoc
// POST /api/v1/owners/:owner_key/questions
func (h *QuestionHandler) AddQuestion(c *gin.Context) {
	key, ok := ownerKey(c)
	if !ok {
		return
	}

	var req model.AddQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	question := req.ToQuestion(key)
	if err := h.questions.Create(c.Request.Context(), &question); err != nil {
		failWithError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"question": question})
}

// ReplaceQuestions godoc
// PUT /api/v1/owners/:owner_key/questions
// Bulk replaces all questions of a module or chapter.
func (h *QuestionHandler) ReplaceQuestions(c *gin.Context) {
	key, ok := ownerKey(c)
	if !ok {
		return
	}

	var req model.ReplaceQuestionsRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	questions := make([]model.Question, len(req.Questions))
	for i, q := range req.Questions {
		questions[i] = q.ToQuestion(key)
	}

	if err := h.questions.ReplaceAll(c.Request.Context(), key, questions); err != nil {
		failWithError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "questions replaced successfully", "count": len(questions)})
}

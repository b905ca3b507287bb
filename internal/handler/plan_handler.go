package handler

import (
	"context"
	"fmt"
	"math/rand/v2"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-planner/internal/model"
	"github.com/stemsi/exstem-planner/internal/response"
	"github.com/stemsi/exstem-planner/internal/sampling"
	"github.com/stemsi/exstem-planner/internal/validator"
)

// Planner draws question sets.
type Planner interface {
	Preview(ctx context.Context, cfg sampling.Configuration, seed int64) (*model.PlanResponse, error)
	PlanForConfiguration(ctx context.Context, id string, seed int64) (*model.PlanResponse, error)
	ListPersisted(ctx context.Context, id string, limit int) ([]model.PlanRecord, error)
}

// PlanHandler handles plan endpoints.
type PlanHandler struct {
	planner Planner
	log     zerolog.Logger
}

// NewPlanHandler creates a new PlanHandler.
func NewPlanHandler(planner Planner, log zerolog.Logger) *PlanHandler {
	return &PlanHandler{
		planner: planner,
		log:     log.With().Str("component", "plan_handler").Logger(),
	}
}

// CreatePlan godoc
// POST /api/v1/configurations/:id/plans?seed=N
// Draws the question set of a saved configuration. Without a seed a random
// one is chosen and returned so the draw can be repeated.
func (h *PlanHandler) CreatePlan(c *gin.Context) {
	id, ok := configurationID(c)
	if !ok {
		return
	}

	seed := rand.Int64()
	if raw := c.Query("seed"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation,
				map[string]string{"seed": "seed must be a 64-bit integer"})
			return
		}
		seed = parsed
	}

	plan, err := h.planner.PlanForConfiguration(c.Request.Context(), id, seed)
	if err != nil {
		failWithError(c, h.log, err)
		return
	}
	h.respond(c, plan)
}

// PreviewPlan godoc
// POST /api/v1/plans/preview
// Draws a plan for an unsaved configuration. Nothing is cached or stored.
func (h *PlanHandler) PreviewPlan(c *gin.Context) {
	var req model.PreviewPlanRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	plan, err := h.planner.Preview(c.Request.Context(), req.Configuration.ToConfiguration(""), req.Seed)
	if err != nil {
		failWithError(c, h.log, err)
		return
	}
	h.respond(c, plan)
}

// ListPlans godoc
// GET /api/v1/configurations/:id/plans
// Lists the most recently persisted plans of a configuration.
func (h *PlanHandler) ListPlans(c *gin.Context) {
	id, ok := configurationID(c)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	plans, err := h.planner.ListPersisted(c.Request.Context(), id, limit)
	if err != nil {
		failWithError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"plans": plans})
}

func (h *PlanHandler) respond(c *gin.Context, plan *model.PlanResponse) {
	if plan.Status == sampling.StatusFailed {
		fields := make(map[string]string, len(plan.Shortfalls))
		for _, s := range plan.Shortfalls {
			fields[s.Bucket] = fmt.Sprintf("requested %d, supplied %d", s.Requested, s.Supplied)
		}
		response.FailWithFields(c, http.StatusUnprocessableEntity, response.ErrPlanFailed, fields)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"plan": plan})
}

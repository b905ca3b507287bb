package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-planner/internal/model"
	"github.com/stemsi/exstem-planner/internal/response"
	"github.com/stemsi/exstem-planner/internal/sampling"
	"github.com/stemsi/exstem-planner/internal/validator"
)

// ConfigurationManager validates and stores sampling configurations.
type ConfigurationManager interface {
	Save(ctx context.Context, cfg sampling.Configuration) (string, error)
	Load(ctx context.Context, id string) (sampling.Configuration, error)
	List(ctx context.Context, page, perPage int) ([]model.ConfigurationSummary, *response.Pagination, error)
	Delete(ctx context.Context, id string) error
}

// ConfigurationHandler handles sampling configuration endpoints.
type ConfigurationHandler struct {
	configs ConfigurationManager
	log     zerolog.Logger
}

// NewConfigurationHandler creates a new ConfigurationHandler.
func NewConfigurationHandler(configs ConfigurationManager, log zerolog.Logger) *ConfigurationHandler {
	return &ConfigurationHandler{
		configs: configs,
		log:     log.With().Str("component", "configuration_handler").Logger(),
	}
}

// configurationID reads and checks the :id path parameter.
func configurationID(c *gin.Context) (string, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return "", false
	}
	return id.String(), true
}

// ListConfigurations godoc
// GET /api/v1/configurations
func (h *ConfigurationHandler) ListConfigurations(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "10"))

	items, pagination, err := h.configs.List(c.Request.Context(), page, perPage)
	if err != nil {
		failWithError(c, h.log, err)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"configurations": items}, pagination)
}

// GetConfiguration godoc
// GET /api/v1/configurations/:id
func (h *ConfigurationHandler) GetConfiguration(c *gin.Context) {
	id, ok := configurationID(c)
	if !ok {
		return
	}

	cfg, err := h.configs.Load(c.Request.Context(), id)
	if err != nil {
		failWithError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"configuration": cfg})
}

// CreateConfiguration godoc
// POST /api/v1/configurations
func (h *ConfigurationHandler) CreateConfiguration(c *gin.Context) {
	var req model.SaveConfigurationRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	h.save(c, http.StatusCreated, req.ToConfiguration(""))
}

// UpdateConfiguration godoc
// PUT /api/v1/configurations/:id
// The payload must carry the version it was loaded at.
func (h *ConfigurationHandler) UpdateConfiguration(c *gin.Context) {
	id, ok := configurationID(c)
	if !ok {
		return
	}

	var req model.SaveConfigurationRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	if req.Version < 1 {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation,
			map[string]string{"version": "version is required when updating a configuration"})
		return
	}

	h.save(c, http.StatusOK, req.ToConfiguration(id))
}

func (h *ConfigurationHandler) save(c *gin.Context, status int, cfg sampling.Configuration) {
	ctx := c.Request.Context()

	id, err := h.configs.Save(ctx, cfg)
	if err != nil {
		failWithError(c, h.log, err)
		return
	}

	saved, err := h.configs.Load(ctx, id)
	if err != nil {
		failWithError(c, h.log, err)
		return
	}

	response.Success(c, status, gin.H{"configuration": saved})
}

// DeleteConfiguration godoc
// DELETE /api/v1/configurations/:id
func (h *ConfigurationHandler) DeleteConfiguration(c *gin.Context) {
	id, ok := configurationID(c)
	if !ok {
		return
	}

	if err := h.configs.Delete(c.Request.Context(), id); err != nil {
		failWithError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "configuration deleted successfully"})
}

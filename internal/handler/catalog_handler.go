package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-planner/internal/model"
	"github.com/stemsi/exstem-planner/internal/response"
)

// CatalogReader lists the modules and chapters that own questions.
type CatalogReader interface {
	ListModules(ctx context.Context, formationID string) ([]model.Module, error)
	ListChapters(ctx context.Context, certificationID string) ([]model.Chapter, error)
}

type CatalogHandler struct {
	catalog CatalogReader
	log     zerolog.Logger
}

func NewCatalogHandler(catalog CatalogReader, log zerolog.Logger) *CatalogHandler {
	return &CatalogHandler{
		catalog: catalog,
		log:     log.With().Str("component", "catalog_handler").Logger(),
	}
}

// ListModules godoc
// GET /api/v1/formations/:id/modules
func (h *CatalogHandler) ListModules(c *gin.Context) {
	modules, err := h.catalog.ListModules(c.Request.Context(), c.Param("id"))
	if err != nil {
		failWithError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"modules": modules})
}

// ListChapters godoc
// GET /api/v1/certifications/:id/chapters
func (h *CatalogHandler) ListChapters(c *gin.Context) {
	chapters, err := h.catalog.ListChapters(c.Request.Context(), c.Param("id"))
	if err != nil {
		failWithError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"chapters": chapters})
}

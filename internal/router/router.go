package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stemsi/exstem-planner/internal/config"
	"github.com/stemsi/exstem-planner/internal/handler"
	"github.com/stemsi/exstem-planner/internal/middleware"
	"github.com/stemsi/exstem-planner/internal/response"
)

// catalogMaxAge is how long clients may cache module and chapter lists.
const catalogMaxAge = 300

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Catalog       *handler.CatalogHandler
	Question      *handler.QuestionHandler
	Configuration *handler.ConfigurationHandler
	Plan          *handler.PlanHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
// planLimiter guards the endpoints that draw plans; gatherer backs /metrics.
func SetupRouter(
	handlers *Handlers,
	planLimiter *middleware.RateLimiter,
	gatherer prometheus.Gatherer,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	api := router.Group("/api/v1")
	api.Use(middleware.Brotli())

	// ─── Catalog ───────────────────────────────────────────────────────
	catalog := api.Group("")
	catalog.Use(middleware.CacheControl(catalogMaxAge))
	{
		catalog.GET("/formations/:id/modules", handlers.Catalog.ListModules)
		catalog.GET("/certifications/:id/chapters", handlers.Catalog.ListChapters)
	}

	// ─── Question Bank ─────────────────────────────────────────────────
	questions := api.Group("/owners/:owner_key/questions")
	questions.Use(middleware.NoStore())
	{
		questions.GET("", handlers.Question.ListQuestions)
		questions.POST("", handlers.Question.AddQuestion)
		questions.PUT("", handlers.Question.ReplaceQuestions)
	}

	// ─── Configurations ────────────────────────────────────────────────
	configurations := api.Group("/configurations")
	configurations.Use(middleware.NoStore())
	{
		configurations.GET("", handlers.Configuration.ListConfigurations)
		configurations.POST("", handlers.Configuration.CreateConfiguration)
		configurations.GET("/:id", handlers.Configuration.GetConfiguration)
		configurations.PUT("/:id", handlers.Configuration.UpdateConfiguration)
		configurations.DELETE("/:id", handlers.Configuration.DeleteConfiguration)

		configurations.GET("/:id/plans", handlers.Plan.ListPlans)
		configurations.POST("/:id/plans", planLimiter.Middleware(), handlers.Plan.CreatePlan)
	}

	// ─── Plans ─────────────────────────────────────────────────────────
	plans := api.Group("/plans")
	plans.Use(middleware.NoStore(), planLimiter.Middleware())
	{
		plans.POST("/preview", handlers.Plan.PreviewPlan)
	}

	return router
}

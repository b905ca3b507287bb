package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-planner/internal/cache"
	"github.com/stemsi/exstem-planner/internal/config"
	"github.com/stemsi/exstem-planner/internal/database"
	"github.com/stemsi/exstem-planner/internal/handler"
	"github.com/stemsi/exstem-planner/internal/logger"
	"github.com/stemsi/exstem-planner/internal/metrics"
	"github.com/stemsi/exstem-planner/internal/middleware"
	"github.com/stemsi/exstem-planner/internal/repository"
	"github.com/stemsi/exstem-planner/internal/router"
	"github.com/stemsi/exstem-planner/internal/service"
	"github.com/stemsi/exstem-planner/internal/validator"
	"github.com/stemsi/exstem-planner/internal/worker"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Dur("plan_cache_ttl", cfg.PlanCacheTTL).
		Int("plan_rate_limit", cfg.PlanRateLimit).
		Msg("Starting ExStem Planner")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Metrics ───────────────────────────────────────────────────────
	plannerMetrics := metrics.NewPlannerMetrics(prometheus.DefaultRegisterer)

	// ─── Initialize Repositories ───────────────────────────────────────
	catalogRepo := repository.NewCatalogRepository(pool)
	questionRepo := repository.NewQuestionRepository(pool)
	configRepo := repository.NewConfigurationRepository(pool)
	planRepo := repository.NewPlanRepository(pool)

	// ─── Initialize Services ──────────────────────────────────────────
	catalogService := service.NewCatalogService(catalogRepo, log)
	questionService := service.NewQuestionService(questionRepo, log)
	configService := service.NewConfigurationService(configRepo, catalogService, log)
	planService := service.NewPlanService(
		configService,
		catalogService,
		questionService,
		planRepo,
		cache.NewPlanCache(rdb, cfg.PlanCacheTTL),
		plannerMetrics,
		log,
	)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Catalog:       handler.NewCatalogHandler(catalogService, log),
		Question:      handler.NewQuestionHandler(questionService, log),
		Configuration: handler.NewConfigurationHandler(configService, log),
		Plan:          handler.NewPlanHandler(planService, log),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())
	var workers sync.WaitGroup

	persistWorker := worker.NewPlanPersistWorker(pool, rdb, plannerMetrics, log)
	workers.Go(func() { persistWorker.Start(workerCtx) })

	// ─── Setup Router ──────────────────────────────────────────────────
	planLimiter := middleware.NewRateLimiter(middleware.NewRedisCounter(rdb), cfg.PlanRateLimit, time.Minute, log)
	r := router.SetupRouter(handlers, planLimiter, prometheus.DefaultGatherer, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop the persistence worker; it flushes its pending batch first.
	workerCancel()
	workers.Wait()

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}

package main

import (
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/sigasig-engine/internal/engine"
	"github.com/noah-isme/sigasig-engine/internal/handler"
	"github.com/noah-isme/sigasig-engine/internal/middleware"
	"github.com/noah-isme/sigasig-engine/internal/repository"
	"github.com/noah-isme/sigasig-engine/internal/service"
	rediscache "github.com/noah-isme/sigasig-engine/pkg/cache"
	"github.com/noah-isme/sigasig-engine/pkg/config"
	"github.com/noah-isme/sigasig-engine/pkg/logger"
	corsmiddleware "github.com/noah-isme/sigasig-engine/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sigasig-engine/pkg/middleware/requestid"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	coordinator := engine.NewCoordinator(engine.Config{
		ComplexityThreshold: cfg.Scheduler.ComplexityThreshold,
		SolverPath:          cfg.Solver.Path,
		SolverTimeout:       cfg.Solver.Timeout,
		SolverGap:           cfg.Solver.Gap,
		Deadline:            cfg.Scheduler.Deadline,
		CacheTTL:            cfg.Cache.TTL,
		CacheMaxEntries:     cfg.Cache.MaxEntries,
		SubjectWeights:      cfg.Scheduler.SubjectWeights,
		AllowUnqualified:    cfg.Scheduler.AllowUnqualified,
	}, logr)

	metricsSvc := service.NewMetricsService()

	var cacheRepo service.RemoteCacheRepository
	if cfg.Cache.RedisEnabled {
		client, err := rediscache.NewRedis(cfg.Redis)
		if err != nil {
			// The in-memory cache still serves; shared caching is best effort.
			logr.Sugar().Warnw("redis unavailable, shared cache disabled", "error", err)
		} else {
			repo := repository.NewCacheRepository(client, logr)
			defer repo.Close() //nolint:errcheck
			cacheRepo = repo
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, cfg.Cache.TTL, logr, cacheRepo != nil)

	scheduleSvc := service.NewScheduleService(
		coordinator,
		cacheSvc,
		metricsSvc,
		validator.New(),
		logr,
		service.ScheduleServiceConfig{
			DefaultMaxPerDay:  cfg.Scheduler.DefaultMaxPerDay,
			DefaultMaxPerWeek: cfg.Scheduler.DefaultMaxPerWeek,
		},
	)

	scheduleHandler := handler.NewScheduleHandler(scheduleSvc)
	cacheHandler := handler.NewCacheHandler(scheduleSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc, cfg.Solver.Path)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	api := r.Group(cfg.APIPrefix)
	{
		api.POST("/schedule/generate", scheduleHandler.Generate)
		api.GET("/schedule/progress/:jobId", scheduleHandler.Progress)
		api.GET("/schedule/cache", cacheHandler.Status)
		api.DELETE("/schedule/cache", cacheHandler.Clear)

		if cfg.Export.Enabled {
			exportSvc := service.NewExportService(scheduleSvc, nil, nil, logr)
			exportHandler := handler.NewExportHandler(exportSvc)
			api.GET("/schedule/export/:fingerprint", exportHandler.Timetable)
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting",
		"addr", addr,
		"env", cfg.Env,
		"solver", cfg.Solver.Path,
		"complexityThreshold", cfg.Scheduler.ComplexityThreshold,
	)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}

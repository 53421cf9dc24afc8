package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/maestoso/conservatory-api/api/swagger"
	"github.com/maestoso/conservatory-api/internal/handler"
	"github.com/maestoso/conservatory-api/internal/middleware"
	"github.com/maestoso/conservatory-api/internal/models"
	"github.com/maestoso/conservatory-api/internal/repository"
	"github.com/maestoso/conservatory-api/internal/service"
	"github.com/maestoso/conservatory-api/pkg/cache"
	"github.com/maestoso/conservatory-api/pkg/config"
	"github.com/maestoso/conservatory-api/pkg/database"
	"github.com/maestoso/conservatory-api/pkg/jobs"
	"github.com/maestoso/conservatory-api/pkg/logger"
	corsmiddleware "github.com/maestoso/conservatory-api/pkg/middleware/cors"
	reqidmiddleware "github.com/maestoso/conservatory-api/pkg/middleware/requestid"
)

// @title Conservatory Scheduling API
// @version 1.0.0
// @description Lesson scheduling and instructor/student relationship management
// @BasePath /api/v1
// @schemes http

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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	location, err := time.LoadLocation(cfg.Scheduling.Timezone)
	if err != nil {
		logr.Sugar().Fatalw("invalid scheduling timezone", "timezone", cfg.Scheduling.Timezone, "error", err)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	if cfg.Database.RunMigrations {
		if err := database.Migrate(ctx, db); err != nil {
			logr.Sugar().Fatalw("failed to run migrations", "error", err)
		}
	}

	metricsService := service.NewMetricsService()

	var cacheRepo *repository.CacheRepository
	if cfg.Cache.Enabled {
		client, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, schedule cache disabled", "error", err)
		} else {
			cacheRepo = repository.NewCacheRepository(client, logr)
			defer cacheRepo.Close() //nolint:errcheck
		}
	}
	var cacheService *service.CacheService
	if cacheRepo != nil {
		cacheService = service.NewCacheService(cacheRepo, metricsService, cfg.Cache.ScheduleTTL, logr, true)
	} else {
		cacheService = service.NewCacheService(nil, metricsService, cfg.Cache.ScheduleTTL, logr, false)
	}

	auditRepo := repository.NewAuditRepository(db)
	var auditQueue *jobs.Queue
	if cfg.Audit.Enabled {
		auditQueue = jobs.NewQueue("audit", func(ctx context.Context, job jobs.Job) error {
			entry, ok := job.Payload.(*models.AuditLog)
			if !ok {
				return fmt.Errorf("unexpected audit payload %T", job.Payload)
			}
			return auditRepo.Create(ctx, entry)
		}, jobs.QueueConfig{
			Workers:    cfg.Audit.Workers,
			BufferSize: cfg.Audit.QueueSize,
			MaxRetries: cfg.Audit.Retries,
			Logger:     logr,
		})
		auditQueue.Start(ctx)
		defer auditQueue.Stop()
	}

	instructorRepo := repository.NewInstructorRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	blockRepo := repository.NewTimeBlockRepository(db)
	assignedRepo := repository.NewAssignedLessonRepository(db)
	mirrorRepo := repository.NewTeacherAssignmentRepository(db)
	lessonRepo := repository.NewLessonRepository(db)

	validate := validator.New()

	relationshipService := service.NewRelationshipService(
		db, assignedRepo, mirrorRepo, blockRepo, instructorRepo, studentRepo,
		cacheService, metricsService, location, logr,
	)
	conflictService := service.NewConflictService(lessonRepo, metricsService, location, validate, logr)
	assignmentService := service.NewAssignmentService(
		instructorRepo, studentRepo, blockRepo, assignedRepo, relationshipService,
		metricsService, validate, logr,
	)
	lessonService := service.NewLessonService(lessonRepo, conflictService, metricsService, location, validate, logr)
	blockService := service.NewTimeBlockService(
		instructorRepo, blockRepo, assignedRepo, relationshipService, cacheService,
		service.TimeBlockConfig{
			MinSpanMinutes: cfg.Scheduling.MinBlockMinutes,
			MaxSpanMinutes: cfg.Scheduling.MaxBlockMinutes,
		},
		validate, logr,
	)
	instructorService := service.NewInstructorService(
		instructorRepo, blockRepo, assignedRepo, relationshipService, cacheService, validate, logr,
	)
	studentService := service.NewStudentService(
		studentRepo, mirrorRepo, assignedRepo, relationshipService, cacheService, validate, logr,
	)
	exportService := service.NewExportService(instructorService, studentRepo, logr)
	auditService := service.NewAuditService(auditRepo, logr)

	instructorHandler := handler.NewInstructorHandler(instructorService, blockService, exportService)
	studentHandler := handler.NewStudentHandler(studentService)
	blockHandler := handler.NewTimeBlockHandler(blockService)
	assignmentHandler := handler.NewAssignmentHandler(assignmentService)
	lessonHandler := handler.NewLessonHandler(lessonService, conflictService)
	auditHandler := handler.NewAuditHandler(auditService)

	audit := func(action, resource string) gin.HandlerFunc {
		if auditQueue == nil {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.Audit(auditQueue, action, resource)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Actor())
	r.Use(middleware.Metrics(metricsService))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsService.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		instructors := api.Group("/instructors")
		{
			instructors.GET("", instructorHandler.List)
			instructors.POST("", instructorHandler.Create)
			instructors.GET("/:id", instructorHandler.Get)
			instructors.PUT("/:id", instructorHandler.Update)
			instructors.DELETE("/:id", audit(models.AuditActionDeactivate, "instructor"), instructorHandler.Deactivate)
			instructors.GET("/:id/schedule", instructorHandler.Schedule)
			instructors.GET("/:id/schedule/export", instructorHandler.ExportSchedule)
			instructors.GET("/:id/blocks", instructorHandler.ListBlocks)
			instructors.POST("/:id/blocks", audit(models.AuditActionBlockCreate, "time_block"), instructorHandler.CreateBlock)
		}

		students := api.Group("/students")
		{
			students.GET("", studentHandler.List)
			students.POST("", studentHandler.Create)
			students.GET("/:id", studentHandler.Get)
			students.PUT("/:id", studentHandler.Update)
			students.DELETE("/:id", audit(models.AuditActionDeactivate, "student"), studentHandler.Deactivate)
			students.GET("/:id/assignments", studentHandler.Assignments)
		}

		blocks := api.Group("/blocks")
		{
			blocks.PUT("/:id", audit(models.AuditActionBlockUpdate, "time_block"), blockHandler.Update)
			blocks.PUT("/:id/exclusions", audit(models.AuditActionBlockUpdate, "time_block"), blockHandler.UpdateExclusions)
			blocks.DELETE("/:id", audit(models.AuditActionBlockRelease, "time_block"), blockHandler.Release)
		}

		assignments := api.Group("/assignments")
		{
			assignments.POST("", audit(models.AuditActionAssign, "assignment"), assignmentHandler.Assign)
			assignments.DELETE("", audit(models.AuditActionRemove, "assignment"), assignmentHandler.Remove)
		}

		lessons := api.Group("/lessons")
		{
			lessons.GET("", lessonHandler.List)
			lessons.POST("", audit(models.AuditActionLessonCreate, "lesson"), lessonHandler.Create)
			lessons.POST("/series", audit(models.AuditActionSeriesCreate, "lesson"), lessonHandler.CreateSeries)
			lessons.POST("/conflicts", lessonHandler.Check)
			lessons.POST("/series/conflicts", lessonHandler.CheckSeries)
			lessons.DELETE("/:id", audit(models.AuditActionLessonCancel, "lesson"), lessonHandler.Cancel)
		}

		api.GET("/audit", auditHandler.List)
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Errorw("failed to shutdown server", "error", err)
		}
	}()

	logr.Sugar().Infow("server starting", "addr", server.Addr, "env", cfg.Env)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}

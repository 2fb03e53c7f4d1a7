package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/evalboard/evalboard-api/api/swagger"
	"github.com/evalboard/evalboard-api/internal/handler"
	"github.com/evalboard/evalboard-api/internal/middleware"
	"github.com/evalboard/evalboard-api/internal/models"
	"github.com/evalboard/evalboard-api/internal/repository"
	"github.com/evalboard/evalboard-api/internal/service"
	"github.com/evalboard/evalboard-api/internal/sheets"
	"github.com/evalboard/evalboard-api/pkg/cache"
	"github.com/evalboard/evalboard-api/pkg/config"
	"github.com/evalboard/evalboard-api/pkg/database"
	"github.com/evalboard/evalboard-api/pkg/jobs"
	"github.com/evalboard/evalboard-api/pkg/logger"
	corsmiddleware "github.com/evalboard/evalboard-api/pkg/middleware/cors"
	reqidmiddleware "github.com/evalboard/evalboard-api/pkg/middleware/requestid"
	"github.com/evalboard/evalboard-api/pkg/storage"
)

// @title Evalboard API
// @version 1.0.0
// @description Survey reporting backend: sheet sync, statistics, exports
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// repositories
	userRepo := repository.NewUserRepository(db)
	responseRepo := repository.NewResponseRepository(db)
	syncRepo := repository.NewSyncRepository(db)
	exportRepo := repository.NewExportRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	// services
	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Reports.CacheTTL, logr, cfg.Reports.CacheEnabled)

	authSvc := service.NewAuthService(userRepo, nil, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "evalboard-api",
		SingleSession:      false,
	})
	userSvc := service.NewUserService(userRepo, nil, logr)

	var source sheets.RowSource
	if cfg.Sheets.SourceFile != "" {
		source = sheets.NewFileSource(cfg.Sheets.SourceFile)
	} else {
		source = sheets.NewGoogleSource(cfg.Sheets)
	}

	parser := service.NewSheetParser(logr)
	syncSvc := service.NewSyncService(responseRepo, syncRepo, userRepo, source, parser, cacheSvc, metricsSvc, cfg.Sync, logr)

	enrollmentSvc := service.NewEnrollmentService(cfg.Enrollment.FilePath, logr)
	reportSvc := service.NewReportService(responseRepo, enrollmentSvc, cacheSvc, metricsSvc, cfg.Reports.CacheTTL, logr)
	commentSvc := service.NewCommentService(responseRepo, userRepo, cacheSvc, logr)
	diagnosticsSvc := service.NewDiagnosticsService(responseRepo, metricsSvc, logr)

	// export pipeline
	var exportSvc *service.ExportService
	var exportQueue *jobs.Queue
	if cfg.Exports.Enabled {
		store, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
		if err != nil {
			logr.Sugar().Fatalw("failed to init export storage", "error", err)
		}
		signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)

		var worker *service.ExportWorker
		exportQueue = jobs.NewQueue("exports", func(ctx context.Context, job jobs.Job) error {
			return worker.Handle(ctx, job)
		}, jobs.QueueConfig{
			Workers:    cfg.Exports.WorkerConcurrency,
			MaxRetries: cfg.Exports.WorkerRetries,
			Logger:     logr,
		})

		exportSvc = service.NewExportService(exportRepo, reportSvc, exportQueue, store, signer, service.ExportServiceConfig{
			APIPrefix:       cfg.APIPrefix,
			ResultTTL:       cfg.Exports.SignedURLTTL,
			CleanupInterval: cfg.Exports.CleanupInterval,
			MaxRetries:      cfg.Exports.WorkerRetries,
		}, logr)
		worker = service.NewExportWorker(exportRepo, exportSvc, cfg.Exports.WorkerRetries, logr)

		exportQueue.Start(rootCtx)
		exportSvc.RecoverPendingJobs(rootCtx)
		exportSvc.StartCleanup(rootCtx)
	}

	// handlers
	authHandler := handler.NewAuthHandler(authSvc)
	userHandler := handler.NewUserHandler(userSvc)
	syncHandler := handler.NewSyncHandler(syncSvc)
	reportHandler := handler.NewReportHandler(reportSvc)
	commentHandler := handler.NewCommentHandler(commentSvc)
	diagnosticsHandler := handler.NewDiagnosticsHandler(diagnosticsSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)

		authed := auth.Group("", middleware.JWT(authSvc))
		authed.POST("/logout", authHandler.Logout)
		authed.POST("/change-password", authHandler.ChangePassword)
		authed.GET("/me", authHandler.Me)
	}

	users := api.Group("/users", middleware.JWT(authSvc))
	{
		users.GET("", middleware.RequireRoles(models.RoleAdmin), userHandler.List)
		users.GET("/:id", middleware.RBAC(string(models.RoleAdmin), "SELF"), userHandler.Get)
		users.POST("", middleware.RequireRoles(models.RoleAdmin), userHandler.Create)
		users.PUT("/:id", middleware.RequireRoles(models.RoleAdmin), userHandler.Update)
		users.DELETE("/:id", middleware.RequireRoles(models.RoleAdmin), userHandler.Delete)
	}

	sync := api.Group("/sync", middleware.JWT(authSvc), middleware.RequireRoles(models.RoleAdmin))
	{
		sync.POST("", syncHandler.Trigger)
		sync.GET("/history", syncHandler.History)
		sync.GET("/status", syncHandler.Status)
	}

	reports := api.Group("/reports", middleware.JWT(authSvc))
	{
		reports.GET("", reportHandler.Get)
		reports.GET("/modules", reportHandler.Modules)
		reports.GET("/editions", reportHandler.Editions)
	}

	comments := api.Group("/comments", middleware.JWT(authSvc))
	{
		comments.POST("/delete", middleware.RequireRoles(models.RoleAdmin, models.RoleTeacher), commentHandler.Delete)
	}

	admin := api.Group("/admin", middleware.JWT(authSvc), middleware.RequireRoles(models.RoleAdmin))
	{
		admin.GET("/diagnostics", diagnosticsHandler.Coverage)
		admin.GET("/metrics", diagnosticsHandler.SystemMetrics)
	}

	if exportSvc != nil {
		exportHandler := handler.NewExportHandler(exportSvc)
		exports := api.Group("/exports")
		{
			// the download token carries its own authentication
			exports.GET("/download/:token", exportHandler.Download)

			authed := exports.Group("", middleware.JWT(authSvc))
			authed.POST("", middleware.Audit(userRepo, models.AuditActionExportCreate, "export_jobs"), exportHandler.Create)
			authed.GET("/:id", exportHandler.Status)
		}
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-rootCtx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Warnw("graceful shutdown failed", "error", err)
	}
	if exportQueue != nil {
		exportQueue.Stop()
	}
}

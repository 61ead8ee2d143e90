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
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/talentio/admission-api/api/swagger"
	"github.com/talentio/admission-api/internal/handler"
	"github.com/talentio/admission-api/internal/middleware"
	"github.com/talentio/admission-api/internal/models"
	"github.com/talentio/admission-api/internal/repository"
	"github.com/talentio/admission-api/internal/service"
	"github.com/talentio/admission-api/pkg/cache"
	"github.com/talentio/admission-api/pkg/config"
	"github.com/talentio/admission-api/pkg/database"
	"github.com/talentio/admission-api/pkg/erp"
	"github.com/talentio/admission-api/pkg/export"
	"github.com/talentio/admission-api/pkg/jobs"
	"github.com/talentio/admission-api/pkg/logger"
	corsmiddleware "github.com/talentio/admission-api/pkg/middleware/cors"
	reqidmiddleware "github.com/talentio/admission-api/pkg/middleware/requestid"
	"github.com/talentio/admission-api/pkg/storage"
)

// @title Talentio Admission API
// @version 1.0.0
// @description Candidate review, documents, selection processes and admission
// @BasePath /
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
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}
	defer redisClient.Close()

	docStorage, err := storage.NewLocalStorage(cfg.Documents.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init document storage", "error", err)
	}
	exportStorage, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init export storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Documents.SignedURLSecret, cfg.Documents.SignedURLTTL)

	profileRepo := repository.NewProfileRepository(db)
	documentRepo := repository.NewDocumentRepository(db)
	processRepo := repository.NewProcessRepository(db)
	admissionRepo := repository.NewAdmissionRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	erpClient := erp.NewClient(cfg.ERP.BaseURL, cfg.ERP.Timeout)
	metricsSvc := service.NewMetricsService()

	reviewSvc := service.NewReviewService(profileRepo, auditRepo, cacheRepo, nil, logr)
	documentSvc := service.NewDocumentService(documentRepo, profileRepo, auditRepo, cacheRepo, signer, nil, logr)
	processSvc := service.NewProcessService(processRepo, profileRepo, auditRepo, nil, logr)
	evaluationSvc := service.NewEvaluationService(processRepo, auditRepo, cacheRepo, cfg.Evaluation.MinRating, cfg.Evaluation.MaxRating, nil, logr)

	var admissionSvc *service.AdmissionService
	dispatchQueue := jobs.NewQueue(service.JobTypeERPDispatch, func(ctx context.Context, job jobs.Job) error {
		return admissionSvc.HandleDispatchJob(ctx, job)
	}, jobs.QueueConfig{
		Workers:    cfg.ERP.WorkerConcurrency,
		MaxRetries: cfg.ERP.WorkerRetries,
		RetryDelay: cfg.ERP.RetryDelay,
		Logger:     logr,
	})
	admissionSvc = service.NewAdmissionService(admissionRepo, profileRepo, processRepo, documentRepo, erpClient, dispatchQueue, auditRepo, nil, logr)

	overviewTTL := cfg.Overview.CacheTTL
	if !cfg.Overview.CacheEnabled {
		overviewTTL = 0
	}
	progressionSvc := service.NewProgressionService(reviewSvc, documentSvc, evaluationSvc, profileRepo, documentRepo, processRepo, cacheRepo, overviewTTL, metricsSvc, logr)

	var exportSvc *service.ExportService
	if cfg.Exports.Enabled {
		exportSvc = service.NewExportService(admissionRepo, profileRepo, exportStorage, export.NewCSVExporter(), export.NewPDFExporter(), signer, logr)
	}

	authSvc := service.NewAuthService(cfg.JWT.Secret, logr)

	queueCtx, queueCancel := context.WithCancel(context.Background())
	dispatchQueue.Start(queueCtx)

	reviewHandler := handler.NewReviewHandler(progressionSvc)
	documentHandler := handler.NewDocumentHandler(documentSvc, progressionSvc)
	processHandler := handler.NewProcessHandler(processSvc)
	evaluationHandler := handler.NewEvaluationHandler(evaluationSvc, progressionSvc)
	admissionHandler := handler.NewAdmissionHandler(admissionSvc, exportSvc)
	progressionHandler := handler.NewProgressionHandler(progressionSvc)
	fileHandler := handler.NewFileHandler(signer, docStorage)
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
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)
	r.GET("/files/:token", middleware.OptionalJWT(authSvc), fileHandler.Download)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(authSvc))

	staff := middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin, models.RoleReviewer)
	admins := middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin)

	candidates := api.Group("/candidates")
	{
		candidates.GET("", staff, reviewHandler.List)
		candidates.GET("/:id", staff, reviewHandler.Get)
		candidates.GET("/:id/overview", staff, progressionHandler.Overview)
		candidates.GET("/:id/review-progress", staff, reviewHandler.Progress)
		candidates.POST("/:id/request-changes", staff, reviewHandler.RequestChanges)
		candidates.POST("/:id/sections/:key/resolve", middleware.RBAC("SELF", string(models.RoleSuperAdmin), string(models.RoleAdmin), string(models.RoleReviewer)), reviewHandler.ResolveSection)
		candidates.POST("/:id/approve", admins, reviewHandler.Approve)
		candidates.POST("/:id/reject", admins, reviewHandler.Reject)
		candidates.POST("/:id/documents", middleware.RBAC("SELF", string(models.RoleSuperAdmin), string(models.RoleAdmin), string(models.RoleReviewer)), documentHandler.Upload)
		candidates.GET("/:id/documents/summary", staff, documentHandler.Summary)
		candidates.POST("/:id/admission", admins, admissionHandler.Create)
	}

	documentTypes := api.Group("/document-types")
	{
		documentTypes.GET("", staff, documentHandler.ListTypes)
		documentTypes.POST("", admins, documentHandler.CreateType)
		documentTypes.DELETE("/:id", admins, documentHandler.DeactivateType)
	}

	documents := api.Group("/documents")
	{
		documents.POST("/:id/review", staff, documentHandler.Review)
		documents.GET("/:id/download-url", staff, documentHandler.DownloadURL)
	}
	api.GET("/document-cohorts/:cohort", staff, documentHandler.CohortQueue)

	processes := api.Group("/processes")
	{
		processes.GET("", staff, processHandler.List)
		processes.POST("", admins, processHandler.Create)
		processes.GET("/:id", staff, processHandler.Get)
		processes.PATCH("/:id/status", admins, processHandler.UpdateStatus)
		processes.POST("/:id/candidates", admins, processHandler.AddCandidate)
	}

	candidateProcesses := api.Group("/candidate-processes")
	{
		candidateProcesses.POST("/:id/start", admins, processHandler.Start)
		candidateProcesses.POST("/:id/withdraw", admins, processHandler.Withdraw)
		candidateProcesses.POST("/:id/evaluate", staff, evaluationHandler.Evaluate)
		candidateProcesses.GET("/:id/history", staff, evaluationHandler.History)
	}

	admissions := api.Group("/admissions")
	{
		admissions.GET("", admins, admissionHandler.ListFinalized)
		admissions.GET("/:id", admins, admissionHandler.Get)
		admissions.POST("/:id/finalize", admins, admissionHandler.Finalize)
		admissions.POST("/:id/resend", admins, admissionHandler.Resend)
		admissions.POST("/export", admins, middleware.Audit(auditRepo, "EXPORT", "admission_roster"), admissionHandler.ExportRoster)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logr.Sugar().Infow("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("server shutdown failed", "error", err)
	}
	queueCancel()
	dispatchQueue.Stop()
}

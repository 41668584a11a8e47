package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hvvlab/memeboard/internal/annotation"
	"github.com/hvvlab/memeboard/internal/api"
	"github.com/hvvlab/memeboard/internal/config"
	"github.com/hvvlab/memeboard/internal/logger"
	"github.com/hvvlab/memeboard/internal/repository"
	"github.com/hvvlab/memeboard/internal/service"
	"github.com/hvvlab/memeboard/internal/storage"
)

func main() {
	// Initialize logger from environment
	appLogger := logger.NewDefault()
	logger.SetDefaultLogger(appLogger)
	defer logger.Sync()

	// Load configuration
	// Support CONFIG_PATH environment variable for production deployments
	configPath := os.Getenv("CONFIG_PATH")
	cfg, err := config.Load(configPath)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load config")
	}

	if cfg.Annotation.BaseURL == "" {
		// Not fatal: annotation endpoints report the missing URL per request
		appLogger.Warn("ANNOTATION_API_URL is not set; annotation operations will be rejected")
	}

	// Initialize database
	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize database")
	}

	// Initialize repositories
	memeRepo := repository.NewMemeRepository(db)
	runRepo := repository.NewRunRepository(db)

	// Initialize object storage for uploads
	objectStorage, err := storage.NewS3Storage(&storage.Config{
		Endpoint:  cfg.Storage.Endpoint,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		UseSSL:    cfg.Storage.UseSSL,
		Bucket:    cfg.Storage.Bucket,
		Region:    cfg.Storage.Region,
		PublicURL: cfg.Storage.PublicURL,
	})
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize storage")
	}

	ctx := context.Background()
	if err := objectStorage.EnsureBucket(ctx); err != nil {
		appLogger.WithError(err).Fatal("Failed to ensure storage bucket")
	}

	// Annotation service client
	annotator := annotation.NewClient(&annotation.Config{
		BaseURL:        cfg.Annotation.BaseURL,
		RequestTimeout: cfg.Annotation.RequestTimeout,
	})

	// Shared in-memory collection, hydrated from the store
	workspace := service.NewWorkspace()
	memes, err := memeRepo.List(ctx)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load memes")
	}
	workspace.Load(memes)
	appLogger.WithField("count", len(memes)).Info("Workspace loaded")

	// Initialize services
	editor := service.NewEditorService(memeRepo, annotator, workspace, appLogger)
	batch := service.NewBatchService(memeRepo, annotator, runRepo, workspace, appLogger)
	uploads := service.NewUploadService(memeRepo, objectStorage, workspace, appLogger, &service.UploadConfig{
		MaxFileSizeMB: cfg.Upload.MaxFileSizeMB,
		MaxFiles:      cfg.Upload.MaxFiles,
	})

	// Setup router
	router := api.SetupRouter(editor, batch, uploads, memeRepo, runRepo, cfg)

	// Create HTTP server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		appLogger.WithFields(logger.Fields{
			"port": cfg.Server.Port,
			"mode": cfg.Server.Mode,
		}).Info("Starting API server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.WithError(err).Fatal("Server forced to shutdown")
	}

	appLogger.Info("Server exited")
}

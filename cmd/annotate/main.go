package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/hvvlab/memeboard/internal/annotation"
	"github.com/hvvlab/memeboard/internal/config"
	"github.com/hvvlab/memeboard/internal/domain"
	"github.com/hvvlab/memeboard/internal/logger"
	"github.com/hvvlab/memeboard/internal/repository"
	"github.com/hvvlab/memeboard/internal/service"
)

// Batch runner: drives the annotation service over the store without the API
// server, one meme at a time, and prints the final tally.
func main() {
	appLogger := logger.New(&logger.Config{
		Level:       "info",
		Format:      "text",
		ServiceName: "memeboard-annotate",
	})
	logger.SetDefaultLogger(appLogger)

	operation := flag.String("op", "annotate", "Batch operation to run: annotate or context")
	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load config")
	}

	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize database")
	}

	memeRepo := repository.NewMemeRepository(db)
	runRepo := repository.NewRunRepository(db)

	annotator := annotation.NewClient(&annotation.Config{
		BaseURL:        cfg.Annotation.BaseURL,
		RequestTimeout: cfg.Annotation.RequestTimeout,
	})

	ctx := context.Background()

	// One-shot runner: only the scope status matters, so load just those
	// memes instead of the whole table.
	var scopeStatus domain.AnnotationStatus
	switch *operation {
	case "annotate":
		scopeStatus = domain.StatusUploaded
	case "context":
		scopeStatus = domain.StatusHalfAnnotated
	default:
		appLogger.Fatalf("Unknown operation %q (want annotate or context)", *operation)
	}

	workspace := service.NewWorkspace()
	memes, err := memeRepo.ListByStatus(ctx, scopeStatus, 0, 0)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load memes")
	}
	workspace.Load(memes)

	batch := service.NewBatchService(memeRepo, annotator, runRepo, workspace, appLogger)

	var result *service.BatchResult
	switch *operation {
	case "annotate":
		result, err = batch.AnnotateAll(ctx)
	case "context":
		result, err = batch.GenerateContextForAll(ctx)
	}

	switch {
	case errors.Is(err, service.ErrEmptyScope):
		fmt.Println("Nothing to process: no memes match the batch scope")
	case errors.Is(err, annotation.ErrNotConfigured):
		appLogger.Error("ANNOTATION_API_URL is not set")
		os.Exit(1)
	case err != nil:
		appLogger.WithError(err).Fatal("Batch run failed")
	default:
		fmt.Printf("Batch %s completed: %d successful, %d failed (of %d)\n",
			result.Operation, result.SuccessCount, result.FailureCount, result.Total)
	}
}

package api

import (
	"github.com/gin-gonic/gin"
	"github.com/hvvlab/memeboard/internal/api/handler"
	"github.com/hvvlab/memeboard/internal/api/middleware"
	"github.com/hvvlab/memeboard/internal/config"
	"github.com/hvvlab/memeboard/internal/repository"
	"github.com/hvvlab/memeboard/internal/service"
)

// SetupRouter configures the Gin router with all routes
func SetupRouter(
	editor *service.EditorService,
	batch *service.BatchService,
	uploads *service.UploadService,
	memeRepo *repository.MemeRepository,
	runRepo *repository.RunRepository,
	cfg *config.Config,
) *gin.Engine {
	// Set Gin mode
	switch cfg.Server.Mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()

	// Add middleware
	r.Use(gin.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins:  cfg.Server.CORS.AllowedOrigins,
		AllowAllOrigins: cfg.Server.CORS.AllowAllOrigins,
	}))

	// Create handlers
	healthHandler := handler.NewHealthHandler()
	memeHandler := handler.NewMemeHandler(editor, memeRepo)
	annotationHandler := handler.NewAnnotationHandler(editor)
	batchHandler := handler.NewBatchHandler(batch, runRepo)
	uploadHandler := handler.NewUploadHandler(uploads)
	statsHandler := handler.NewStatsHandler(memeRepo)

	// Health check
	r.GET("/health", healthHandler.Health)

	// Flat update endpoints kept for front-end compatibility
	r.POST("/api/memes/update-ocr", memeHandler.UpdateOCR)
	r.POST("/api/memes/update-context", memeHandler.UpdateContext)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		// Memes
		v1.GET("/memes", memeHandler.ListMemes)
		v1.POST("/memes/refresh", memeHandler.Refresh)
		v1.GET("/memes/:id", memeHandler.GetMeme)
		v1.POST("/memes/:id/select", memeHandler.SelectMeme)
		v1.POST("/memes/:id/explanation", memeHandler.UpdateExplanation)
		v1.POST("/memes/:id/roles", memeHandler.AddRole)
		v1.DELETE("/memes/:id/roles", memeHandler.RemoveRole)

		// Single-meme inference
		v1.POST("/memes/:id/annotate", annotationHandler.Annotate)
		v1.POST("/memes/:id/context", annotationHandler.GenerateContext)

		// Batch annotation
		v1.POST("/annotation/annotate-all", batchHandler.AnnotateAll)
		v1.POST("/annotation/generate-context-all", batchHandler.GenerateContextForAll)
		v1.GET("/annotation/progress", batchHandler.Progress)
		v1.GET("/annotation/runs", batchHandler.ListRuns)

		// Upload
		v1.POST("/upload/memes", uploadHandler.UploadMemes)

		// Stats
		v1.GET("/stats", statsHandler.GetStats)
	}

	return r
}

package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/hvvlab/memeboard/internal/repository"
	"github.com/hvvlab/memeboard/internal/service"
)

// BatchHandler handles the bulk annotation endpoints.
type BatchHandler struct {
	batch *service.BatchService
	runs  *repository.RunRepository
}

// NewBatchHandler creates a new batch handler.
// Parameters:
//   - batch: batch annotation orchestrator.
//   - runs: run audit repository; may be nil if run history is not exposed.
// Returns:
//   - *BatchHandler: initialized handler.
func NewBatchHandler(batch *service.BatchService, runs *repository.RunRepository) *BatchHandler {
	return &BatchHandler{batch: batch, runs: runs}
}

// AnnotateAll handles POST /api/v1/annotation/annotate-all. The request
// blocks until the batch completes; the response carries the final tally. An
// empty scope is a 200 with a "nothing to process" notice and zero counts.
func (h *BatchHandler) AnnotateAll(c *gin.Context) {
	result, err := h.batch.AnnotateAll(c.Request.Context())
	if err != nil {
		h.writeBatchError(c, err, "No memes with 'uploaded' status found to annotate")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": fmt.Sprintf("Batch annotation completed: %d successful, %d failed",
			result.SuccessCount, result.FailureCount),
		"result": result,
	})
}

// GenerateContextForAll handles POST /api/v1/annotation/generate-context-all.
func (h *BatchHandler) GenerateContextForAll(c *gin.Context) {
	result, err := h.batch.GenerateContextForAll(c.Request.Context())
	if err != nil {
		h.writeBatchError(c, err, "No memes with 'half_annotated' status found to generate context for")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": fmt.Sprintf("Batch context generation completed: %d successful, %d failed",
			result.SuccessCount, result.FailureCount),
		"result": result,
	})
}

// Progress handles GET /api/v1/annotation/progress. (0, 0) means idle.
func (h *BatchHandler) Progress(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"active":   h.batch.Active(),
		"progress": h.batch.Progress(),
	})
}

// ListRuns handles GET /api/v1/annotation/runs.
func (h *BatchHandler) ListRuns(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	runs, err := h.runs.ListRecent(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to list runs: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs, "total": len(runs)})
}

// writeBatchError keeps the empty-scope case a successful, informational
// response; everything else goes through the shared error mapping.
func (h *BatchHandler) writeBatchError(c *gin.Context, err error, emptyNotice string) {
	if errors.Is(err, service.ErrEmptyScope) {
		c.JSON(http.StatusOK, gin.H{
			"message": emptyNotice,
			"result":  service.BatchResult{},
		})
		return
	}
	writeError(c, err)
}

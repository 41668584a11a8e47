package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hvvlab/memeboard/internal/domain"
	"github.com/hvvlab/memeboard/internal/repository"
)

// StatsHandler reports annotation progress counts across the store.
type StatsHandler struct {
	memeRepo *repository.MemeRepository
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(memeRepo *repository.MemeRepository) *StatsHandler {
	return &StatsHandler{memeRepo: memeRepo}
}

// GetStats handles GET /api/v1/stats.
func (h *StatsHandler) GetStats(c *gin.Context) {
	ctx := c.Request.Context()

	counts := gin.H{}
	total := int64(0)
	for _, status := range []domain.AnnotationStatus{
		domain.StatusUploaded,
		domain.StatusHalfAnnotated,
		domain.StatusFullyAnnotated,
	} {
		count, err := h.memeRepo.CountByStatus(ctx, status)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to count memes: " + err.Error()})
			return
		}
		counts[string(status)] = count
		total += count
	}

	c.JSON(http.StatusOK, gin.H{
		"total":     total,
		"by_status": counts,
	})
}

package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hvvlab/memeboard/internal/service"
)

// AnnotationHandler handles single-meme inferred annotation endpoints.
type AnnotationHandler struct {
	editor *service.EditorService
}

// NewAnnotationHandler creates a new annotation handler.
// Parameters:
//   - editor: single-meme annotation controller.
// Returns:
//   - *AnnotationHandler: initialized handler.
func NewAnnotationHandler(editor *service.EditorService) *AnnotationHandler {
	return &AnnotationHandler{editor: editor}
}

// Annotate handles POST /api/v1/memes/:id/annotate. On success the response
// is the meme with the merged annotation fields.
func (h *AnnotationHandler) Annotate(c *gin.Context) {
	meme, err := h.editor.Annotate(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, meme)
}

// GenerateContext handles POST /api/v1/memes/:id/context. On success the
// meme's context is set and its status is fully_annotated.
func (h *AnnotationHandler) GenerateContext(c *gin.Context) {
	meme, err := h.editor.GenerateContext(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, meme)
}

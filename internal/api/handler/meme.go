package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/hvvlab/memeboard/internal/domain"
	"github.com/hvvlab/memeboard/internal/service"
)

// MemeSearcher is the persistent lookup behind paginated listings.
// *repository.MemeRepository satisfies it.
type MemeSearcher interface {
	Search(ctx context.Context, search string, status domain.AnnotationStatus, limit, offset int) ([]domain.AnnotatedMeme, error)
}

// MemeHandler handles meme listing, selection, and manual field edits.
type MemeHandler struct {
	editor *service.EditorService
	store  MemeSearcher
}

// NewMemeHandler creates a new meme handler.
// Parameters:
//   - editor: single-meme annotation controller.
//   - store: persistent lookup for paginated listings.
// Returns:
//   - *MemeHandler: initialized handler.
func NewMemeHandler(editor *service.EditorService, store MemeSearcher) *MemeHandler {
	return &MemeHandler{editor: editor, store: store}
}

// ListMemes handles GET /api/v1/memes.
// Optional query parameters: search (file name substring), status
// (exact annotation status or "all"), limit and offset. Without pagination
// the in-memory collection answers; with limit or offset set the store is
// queried directly so pages stay stable across sessions.
func (h *MemeHandler) ListMemes(c *gin.Context) {
	search := c.Query("search")
	status := c.DefaultQuery("status", "all")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	selected, _ := h.editor.Workspace().Selected()

	if limit > 0 || offset > 0 {
		statusFilter := domain.AnnotationStatus(status)
		if status == "all" {
			statusFilter = ""
		}
		memes, err := h.store.Search(c.Request.Context(), search, statusFilter, limit, offset)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to list memes: " + err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"memes":       memes,
			"total":       len(memes),
			"limit":       limit,
			"offset":      offset,
			"selected_id": selected.ID,
		})
		return
	}

	memes := h.editor.Workspace().Filter(search, status)
	c.JSON(http.StatusOK, gin.H{
		"memes":       memes,
		"total":       len(memes),
		"selected_id": selected.ID,
	})
}

// GetMeme handles GET /api/v1/memes/:id.
func (h *MemeHandler) GetMeme(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Meme ID is required"})
		return
	}

	if meme, ok := h.editor.Workspace().Get(id); ok {
		c.JSON(http.StatusOK, meme)
		return
	}
	c.JSON(http.StatusNotFound, gin.H{"message": "Meme not found"})
}

// SelectMeme handles POST /api/v1/memes/:id/select.
func (h *MemeHandler) SelectMeme(c *gin.Context) {
	id := c.Param("id")
	if !h.editor.Workspace().Select(id) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Meme not found"})
		return
	}
	meme, _ := h.editor.Workspace().Get(id)
	c.JSON(http.StatusOK, meme)
}

// Refresh handles POST /api/v1/memes/refresh: a full re-sync of the
// in-memory collection from the store.
func (h *MemeHandler) Refresh(c *gin.Context) {
	if err := h.editor.Refresh(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to reload memes: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"total": h.editor.Workspace().Len(),
	})
}

type updateOCRRequest struct {
	MemeID  string `json:"memeId" binding:"required"`
	OCRText string `json:"ocrText"`
}

// UpdateOCR handles POST /api/memes/update-ocr.
func (h *MemeHandler) UpdateOCR(c *gin.Context) {
	var req updateOCRRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request: " + err.Error()})
		return
	}

	if err := h.editor.UpdateOCRText(c.Request.Context(), req.MemeID, req.OCRText); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "OCR text updated successfully"})
}

type updateContextRequest struct {
	MemeID  string `json:"memeId" binding:"required"`
	Context string `json:"context"`
}

// UpdateContext handles POST /api/memes/update-context.
func (h *MemeHandler) UpdateContext(c *gin.Context) {
	var req updateContextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request: " + err.Error()})
		return
	}

	if err := h.editor.UpdateContext(c.Request.Context(), req.MemeID, req.Context); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Context updated successfully"})
}

type updateExplanationRequest struct {
	Explanation string `json:"explanation"`
}

// UpdateExplanation handles POST /api/v1/memes/:id/explanation.
func (h *MemeHandler) UpdateExplanation(c *gin.Context) {
	var req updateExplanationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request: " + err.Error()})
		return
	}

	if err := h.editor.UpdateExplanation(c.Request.Context(), c.Param("id"), req.Explanation); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Explanation updated successfully"})
}

type roleRequest struct {
	Kind  string `json:"kind" binding:"required"`
	Value string `json:"value"`
}

// AddRole handles POST /api/v1/memes/:id/roles.
func (h *MemeHandler) AddRole(c *gin.Context) {
	var req roleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request: " + err.Error()})
		return
	}

	if err := h.editor.AddRole(c.Request.Context(), c.Param("id"), domain.RoleKind(req.Kind), req.Value); err != nil {
		writeError(c, err)
		return
	}

	meme, _ := h.editor.Workspace().Get(c.Param("id"))
	c.JSON(http.StatusOK, meme)
}

// RemoveRole handles DELETE /api/v1/memes/:id/roles.
func (h *MemeHandler) RemoveRole(c *gin.Context) {
	var req roleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request: " + err.Error()})
		return
	}

	if err := h.editor.RemoveRole(c.Request.Context(), c.Param("id"), domain.RoleKind(req.Kind), req.Value); err != nil {
		writeError(c, err)
		return
	}

	meme, _ := h.editor.Workspace().Get(c.Param("id"))
	c.JSON(http.StatusOK, meme)
}

package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hvvlab/memeboard/internal/service"
)

// UploadHandler handles meme image uploads.
type UploadHandler struct {
	uploads *service.UploadService
}

// NewUploadHandler creates a new upload handler.
// Parameters:
//   - uploads: upload ingestion service.
// Returns:
//   - *UploadHandler: initialized handler.
func NewUploadHandler(uploads *service.UploadService) *UploadHandler {
	return &UploadHandler{uploads: uploads}
}

// UploadMemes handles POST /api/v1/upload/memes. The request is a multipart
// form with one or more "files" parts; each file is processed independently.
func (h *UploadHandler) UploadMemes(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid multipart form: " + err.Error()})
		return
	}

	fileHeaders := form.File["files"]
	if len(fileHeaders) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "No files provided"})
		return
	}

	files := make([]service.UploadFile, 0, len(fileHeaders))
	for _, fh := range fileHeaders {
		f, err := fh.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Failed to read file " + fh.Filename + ": " + err.Error()})
			return
		}
		content, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Failed to read file " + fh.Filename + ": " + err.Error()})
			return
		}
		files = append(files, service.UploadFile{Name: fh.Filename, Content: content})
	}

	report, err := h.uploads.UploadBatch(c.Request.Context(), files)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, report)
}

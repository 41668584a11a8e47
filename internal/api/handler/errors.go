package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hvvlab/memeboard/internal/annotation"
	"github.com/hvvlab/memeboard/internal/service"
)

// writeError maps service errors onto the HTTP error taxonomy:
// configuration errors are 503, preconditions 422, validation 400, unknown
// memes 404, a busy batch 409, and everything else (transport, store) 502.
func writeError(c *gin.Context, err error) {
	status := http.StatusBadGateway
	switch {
	case errors.Is(err, annotation.ErrNotConfigured):
		status = http.StatusServiceUnavailable
	case errors.Is(err, service.ErrMissingURL):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrEmptyRoleName), errors.Is(err, service.ErrUnknownRoleKind):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrMemeNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrBatchBusy):
		status = http.StatusConflict
	}
	c.JSON(status, gin.H{"message": err.Error()})
}

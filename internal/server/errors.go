package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/agenthands/meddesert/internal/auth"
	"github.com/agenthands/meddesert/internal/core/workflow"
	"github.com/agenthands/meddesert/internal/store"
)

var errGraphUnavailable = errors.New("report graph is not configured")

// respondError maps known errors to their status codes. Anything else is logged
// and answered with a generic 500 carrying msg.
func (s *Server) respondError(c *gin.Context, err error, msg string) {
	switch {
	case errors.Is(err, workflow.ErrBusy):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, workflow.ErrReportNotFound), errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, auth.ErrInvalidToken):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, workflow.ErrEmptyMessage), errors.Is(err, store.ErrInvalidTheme):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, errGraphUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		s.Logger.WithError(err).WithField("path", c.FullPath()).Error(msg)
		c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
	}
}

package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/yourusername/cinequiz/internal/pkg/errors"
)

// handleSessionError обрабатывает ошибки сервисов и отправляет соответствующий HTTP ответ
func handleSessionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrValidation), errors.Is(err, apperrors.ErrEmptyPool):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrRateLimited), errors.Is(err, apperrors.ErrGateClosed):
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":      "Catalog is temporarily unavailable",
			"error_type": "catalog_unavailable",
		})
	default:
		log.Printf("ERROR: Internal server error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

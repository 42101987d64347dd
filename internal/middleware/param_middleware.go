package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yourusername/cinequiz/internal/domain/entity"
)

// Ключи контекста Gin
const (
	SessionIDKey   = "sessionID"
	PromptGroupKey = "promptGroup"
)

// ExtractSessionID создает middleware для извлечения и валидации UUID сессии из URL.
// paramName - имя параметра в URL (например, "id").
func ExtractSessionID(paramName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param(paramName))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Invalid %s", paramName)})
			return
		}
		c.Set(SessionIDKey, id.String())
		c.Next()
	}
}

// ExtractPromptGroup создает middleware для извлечения группы вопросов ("movies" / "tv_shows")
func ExtractPromptGroup(paramName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		group, err := entity.ParsePromptGroup(c.Param(paramName))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.Set(PromptGroupKey, group)
		c.Next()
	}
}

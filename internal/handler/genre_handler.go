package handler

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/cinequiz/internal/catalog"
	"github.com/yourusername/cinequiz/internal/domain/entity"
	"github.com/yourusername/cinequiz/internal/domain/repository"
	"github.com/yourusername/cinequiz/internal/middleware"
)

// genresCacheTTL - списки жанров каталога меняются редко
const genresCacheTTL = 24 * time.Hour

// GenreSource - источник списков жанров (клиент каталога)
type GenreSource interface {
	Genres(ctx context.Context, group entity.PromptGroup) ([]catalog.Genre, error)
}

// GenreHandler отдаёт жанры для фильтров, кешируя их в Redis
type GenreHandler struct {
	source GenreSource
	cache  repository.CacheRepository
}

// NewGenreHandler создает новый обработчик жанров. cache может быть nil.
func NewGenreHandler(source GenreSource, cache repository.CacheRepository) *GenreHandler {
	return &GenreHandler{source: source, cache: cache}
}

// GetGenres возвращает жанры группы
// GET /api/genres/:group
func (h *GenreHandler) GetGenres(c *gin.Context) {
	group := c.MustGet(middleware.PromptGroupKey).(entity.PromptGroup)
	key := fmt.Sprintf("genres:%s", group)

	if h.cache != nil {
		var cached []catalog.Genre
		if err := h.cache.GetJSON(key, &cached); err == nil {
			c.JSON(http.StatusOK, gin.H{"group": group, "genres": cached})
			return
		}
	}

	genres, err := h.source.Genres(c.Request.Context(), group)
	if err != nil {
		handleSessionError(c, err)
		return
	}

	if h.cache != nil {
		if err := h.cache.SetJSON(key, genres, genresCacheTTL); err != nil {
			log.Printf("[GenreHandler] Не удалось закешировать жанры %s: %v", group, err)
		}
	}
	c.JSON(http.StatusOK, gin.H{"group": group, "genres": genres})
}

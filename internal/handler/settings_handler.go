package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/cinequiz/internal/domain/entity"
	"github.com/yourusername/cinequiz/internal/handler/dto"
	apperrors "github.com/yourusername/cinequiz/internal/pkg/errors"
	"github.com/yourusername/cinequiz/internal/service/session"
)

// SettingsHandler обрабатывает запросы настроек игрока
type SettingsHandler struct {
	sessions *session.Manager
}

// NewSettingsHandler создает новый обработчик настроек
func NewSettingsHandler(sessions *session.Manager) *SettingsHandler {
	return &SettingsHandler{sessions: sessions}
}

// UpdateSettingsRequest представляет частичное обновление настроек
type UpdateSettingsRequest struct {
	ActiveGroup *string `json:"active_group"`
	MovieGenres *[]int  `json:"movie_genres"`
	TVGenres    *[]int  `json:"tv_genres"`
	PromptCount *int    `json:"prompt_count"`
}

// GetSettings возвращает настройки игрока
// GET /api/players/:playerID/settings
func (h *SettingsHandler) GetSettings(c *gin.Context) {
	settings, err := h.sessions.GetSettings(c.Param("playerID"))
	if err != nil {
		handleSessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSettingsResponse(settings))
}

// UpdateSettings сохраняет настройки игрока
// PUT /api/players/:playerID/settings
func (h *SettingsHandler) UpdateSettings(c *gin.Context) {
	var req UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	update := session.SettingsUpdate{
		MovieGenres: req.MovieGenres,
		TVGenres:    req.TVGenres,
		PromptCount: req.PromptCount,
	}
	if req.ActiveGroup != nil {
		group, err := entity.ParsePromptGroup(*req.ActiveGroup)
		if err != nil {
			handleSessionError(c, fmt.Errorf("%w: %v", apperrors.ErrValidation, err))
			return
		}
		update.ActiveGroup = &group
	}

	settings, err := h.sessions.UpdateSettings(c.Param("playerID"), update)
	if err != nil {
		handleSessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSettingsResponse(settings))
}

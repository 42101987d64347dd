package handler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/cinequiz/internal/domain/entity"
	"github.com/yourusername/cinequiz/internal/handler/dto"
	"github.com/yourusername/cinequiz/internal/middleware"
	apperrors "github.com/yourusername/cinequiz/internal/pkg/errors"
	"github.com/yourusername/cinequiz/internal/service/session"
)

// SessionHandler обрабатывает запросы игровых сессий
type SessionHandler struct {
	sessions *session.Manager
}

// NewSessionHandler создает новый обработчик сессий
func NewSessionHandler(sessions *session.Manager) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// CreateSessionRequest представляет запрос на создание сессии
type CreateSessionRequest struct {
	PlayerID string `json:"player_id" binding:"required,max=64"`
}

// LoadPromptsRequest представляет запрос на загрузку вопросов.
// Отсутствующие genres - сохранённый фильтр игрока, [] - без фильтра.
type LoadPromptsRequest struct {
	Genres *[]int `json:"genres"`
	Count  int    `json:"count" binding:"omitempty,min=1,max=50"`
}

// ResetPromptsRequest представляет запрос на сброс кеша группы
type ResetPromptsRequest struct {
	Group              string `json:"group"`
	ResetFailureCounts bool   `json:"reset_failure_counts"`
}

// UpdateGroupRequest представляет запрос на смену активной группы
type UpdateGroupRequest struct {
	Group string `json:"group" binding:"required"`
}

// AnswerRequest представляет ответ игрока на текущий вопрос
type AnswerRequest struct {
	PromptID string `json:"prompt_id" binding:"required"`
	Option   *int   `json:"option" binding:"required"`
}

// CreateSession открывает новую игровую сессию
// POST /api/sessions
func (h *SessionHandler) CreateSession(c *gin.Context) {
	var req CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s, err := h.sessions.Create(req.PlayerID)
	if err != nil {
		handleSessionError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.SessionResponse{
		ID:          s.ID,
		PlayerID:    s.PlayerID,
		ActiveGroup: s.Controller.ActiveGroup(),
		CreatedAt:   s.CreatedAt,
	})
}

// GetState возвращает текущее состояние экрана вопросов
// GET /api/sessions/:id/state
func (h *SessionHandler) GetState(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, stateResponse(s, s.Controller.State()))
}

// LoadPrompts запускает фоновую загрузку вопросов.
// С ?wait=true отвечает только после завершения загрузки.
// POST /api/sessions/:id/load
func (h *SessionHandler) LoadPrompts(c *gin.Context) {
	var req LoadPromptsRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	var genres []int
	if req.Genres != nil {
		genres = append([]int{}, (*req.Genres)...)
	}

	id := c.GetString(middleware.SessionIDKey)
	done, err := h.sessions.StartLoading(id, genres, req.Count)
	if err != nil {
		handleSessionError(c, err)
		return
	}

	s, ok := h.session(c)
	if !ok {
		return
	}

	if c.Query("wait") != "true" {
		c.JSON(http.StatusAccepted, stateResponse(s, s.Controller.State()))
		return
	}

	select {
	case err := <-done:
		if err != nil && !errors.Is(err, context.Canceled) {
			handleSessionError(c, err)
			return
		}
		c.JSON(http.StatusOK, stateResponse(s, s.Controller.State()))
	case <-c.Request.Context().Done():
		log.Printf("[SessionHandler] Клиент ушёл, не дождавшись загрузки сессии %s", id)
	}
}

// NextPrompt продвигает сессию к следующему вопросу
// POST /api/sessions/:id/next
func (h *SessionHandler) NextPrompt(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, stateResponse(s, s.Controller.NextPrompt()))
}

// Answer проверяет ответ на показанный вопрос
// POST /api/sessions/:id/answer
func (h *SessionHandler) Answer(c *gin.Context) {
	var req AnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s, ok := h.session(c)
	if !ok {
		return
	}

	state := s.Controller.State()
	if state.Kind != entity.PromptStateReady || state.Prompt.ID != req.PromptID {
		handleSessionError(c, fmt.Errorf("%w: prompt %s is not on screen", apperrors.ErrConflict, req.PromptID))
		return
	}
	prompt := state.Prompt
	if !prompt.IsValidOption(*req.Option) {
		handleSessionError(c, fmt.Errorf("%w: option %d is out of range", apperrors.ErrValidation, *req.Option))
		return
	}

	c.JSON(http.StatusOK, dto.AnswerResponse{
		PromptID:      prompt.ID,
		Correct:       prompt.IsCorrect(*req.Option),
		CorrectOption: prompt.CorrectOption,
		CorrectAnswer: prompt.CorrectAnswer(),
	})
}

// CancelPrompts отменяет загрузку; готовые вопросы остаются доступны
// POST /api/sessions/:id/cancel
func (h *SessionHandler) CancelPrompts(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	s.Controller.CancelPrompts()
	c.JSON(http.StatusOK, stateResponse(s, s.Controller.State()))
}

// ResetPrompts очищает кеш группы (по умолчанию активной)
// POST /api/sessions/:id/reset
func (h *SessionHandler) ResetPrompts(c *gin.Context) {
	var req ResetPromptsRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	s, ok := h.session(c)
	if !ok {
		return
	}

	group := s.Controller.ActiveGroup()
	if req.Group != "" {
		parsed, err := entity.ParsePromptGroup(req.Group)
		if err != nil {
			handleSessionError(c, fmt.Errorf("%w: %v", apperrors.ErrValidation, err))
			return
		}
		group = parsed
	}

	if err := s.Controller.ResetPrompts(group, req.ResetFailureCounts); err != nil {
		handleSessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, stateResponse(s, s.Controller.State()))
}

// UpdateGroup переключает активную группу вопросов
// PUT /api/sessions/:id/group
func (h *SessionHandler) UpdateGroup(c *gin.Context) {
	var req UpdateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	group, err := entity.ParsePromptGroup(req.Group)
	if err != nil {
		handleSessionError(c, fmt.Errorf("%w: %v", apperrors.ErrValidation, err))
		return
	}

	id := c.GetString(middleware.SessionIDKey)
	if err := h.sessions.UpdateGroup(id, group); err != nil {
		handleSessionError(c, err)
		return
	}

	s, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, stateResponse(s, s.Controller.State()))
}

// DeleteSession закрывает сессию
// DELETE /api/sessions/:id
func (h *SessionHandler) DeleteSession(c *gin.Context) {
	if err := h.sessions.Close(c.GetString(middleware.SessionIDKey)); err != nil {
		handleSessionError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// session достаёт сессию по ID из контекста; при ошибке ответ уже отправлен
func (h *SessionHandler) session(c *gin.Context) (*session.Session, bool) {
	s, err := h.sessions.Get(c.GetString(middleware.SessionIDKey))
	if err != nil {
		handleSessionError(c, err)
		return nil, false
	}
	return s, true
}

// stateResponse дополняет состояние счётчиками активной группы
func stateResponse(s *session.Session, state entity.PromptState) *dto.StateResponse {
	active := s.Controller.ActiveGroup()
	return dto.NewStateResponse(state, active, s.Controller.Remaining(), s.Controller.CachedCount(active))
}

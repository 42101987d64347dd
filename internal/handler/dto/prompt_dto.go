package dto

import (
	"time"

	"github.com/yourusername/cinequiz/internal/domain/entity"
	"github.com/yourusername/cinequiz/internal/handler/helper"
)

// PromptResponse представляет вопрос в формате для ответа клиенту (без правильного ответа)
type PromptResponse struct {
	ID        string                `json:"id"`
	Group     entity.PromptGroup    `json:"group"`
	UseCase   string                `json:"use_case"`
	Text      string                `json:"text"`
	Options   []helper.PromptOption `json:"options"`
	ImageURL  string                `json:"image_url,omitempty"`
	CreatedAt time.Time             `json:"created_at"`
}

// StateResponse представляет состояние экрана вопросов
type StateResponse struct {
	State       entity.PromptStateKind `json:"state"`
	Prompt      *PromptResponse        `json:"prompt,omitempty"`
	ActiveGroup entity.PromptGroup     `json:"active_group"`
	Remaining   int                    `json:"remaining"`
	Cached      int                    `json:"cached"`
}

// SessionResponse представляет созданную сессию
type SessionResponse struct {
	ID          string             `json:"id"`
	PlayerID    string             `json:"player_id"`
	ActiveGroup entity.PromptGroup `json:"active_group"`
	CreatedAt   time.Time          `json:"created_at"`
}

// SettingsResponse представляет настройки игрока
type SettingsResponse struct {
	PlayerID    string             `json:"player_id"`
	ActiveGroup entity.PromptGroup `json:"active_group"`
	MovieGenres []int              `json:"movie_genres"`
	TVGenres    []int              `json:"tv_genres"`
	PromptCount int                `json:"prompt_count"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

// AnswerResponse представляет результат проверки ответа
type AnswerResponse struct {
	PromptID      string `json:"prompt_id"`
	Correct       bool   `json:"correct"`
	CorrectOption int    `json:"correct_option"`
	CorrectAnswer string `json:"correct_answer"`
}

// UseCaseStatResponse - счётчик неудач одного сценария
type UseCaseStatResponse struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// StatsResponse представляет статистику селектора сценариев группы
type StatsResponse struct {
	Group    entity.PromptGroup    `json:"group"`
	Cached   int                   `json:"cached"`
	UseCases []UseCaseStatResponse `json:"use_cases"`
	Recent   map[string]int        `json:"recent"`
}

// NewPromptResponse создает DTO для вопроса
func NewPromptResponse(p *entity.Prompt) *PromptResponse {
	if p == nil {
		return nil
	}
	return &PromptResponse{
		ID:        p.ID,
		Group:     p.Group,
		UseCase:   p.UseCase,
		Text:      p.Text,
		Options:   helper.ConvertOptionsToObjects(p.Options),
		ImageURL:  p.ImageURL,
		CreatedAt: p.CreatedAt,
	}
}

// NewStateResponse создает DTO состояния
func NewStateResponse(state entity.PromptState, activeGroup entity.PromptGroup, remaining, cached int) *StateResponse {
	return &StateResponse{
		State:       state.Kind,
		Prompt:      NewPromptResponse(state.Prompt),
		ActiveGroup: activeGroup,
		Remaining:   remaining,
		Cached:      cached,
	}
}

// NewSettingsResponse создает DTO настроек
func NewSettingsResponse(s *entity.PlayerSettings) *SettingsResponse {
	return &SettingsResponse{
		PlayerID:    s.PlayerID,
		ActiveGroup: s.ActiveGroup,
		MovieGenres: helper.Int64sToInts(s.MovieGenres),
		TVGenres:    helper.Int64sToInts(s.TVGenres),
		PromptCount: s.PromptCount,
		UpdatedAt:   s.UpdatedAt,
	}
}

package entity

import (
	"time"

	"github.com/lib/pq"
)

// DefaultPromptCount - сколько вопросов загружается за один раунд игры по умолчанию
const DefaultPromptCount = 7

// PlayerSettings хранит настройки игрока, которые переживают перезапуск сервиса
type PlayerSettings struct {
	ID          uint          `gorm:"primaryKey" json:"id"`
	PlayerID    string        `gorm:"size:64;not null;uniqueIndex" json:"player_id"`
	ActiveGroup PromptGroup   `gorm:"size:20;not null;default:'movies'" json:"active_group"`
	MovieGenres pq.Int64Array `gorm:"type:integer[]" json:"movie_genres"`
	TVGenres    pq.Int64Array `gorm:"type:integer[]" json:"tv_genres"`
	PromptCount int           `gorm:"not null;default:7" json:"prompt_count"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (PlayerSettings) TableName() string {
	return "player_settings"
}

// NewDefaultPlayerSettings возвращает настройки по умолчанию для нового игрока
func NewDefaultPlayerSettings(playerID string) *PlayerSettings {
	return &PlayerSettings{
		PlayerID:    playerID,
		ActiveGroup: PromptGroupMovies,
		PromptCount: DefaultPromptCount,
	}
}

// GenresFor возвращает фильтр жанров для группы (nil - без фильтра)
func (s *PlayerSettings) GenresFor(group PromptGroup) []int {
	var src pq.Int64Array
	switch group {
	case PromptGroupMovies:
		src = s.MovieGenres
	case PromptGroupTVShows:
		src = s.TVGenres
	}
	if len(src) == 0 {
		return nil
	}
	genres := make([]int, 0, len(src))
	for _, g := range src {
		genres = append(genres, int(g))
	}
	return genres
}

// SetGenresFor сохраняет фильтр жанров для группы
func (s *PlayerSettings) SetGenresFor(group PromptGroup, genres []int) {
	arr := make(pq.Int64Array, 0, len(genres))
	for _, g := range genres {
		arr = append(arr, int64(g))
	}
	switch group {
	case PromptGroupMovies:
		s.MovieGenres = arr
	case PromptGroupTVShows:
		s.TVGenres = arr
	}
}

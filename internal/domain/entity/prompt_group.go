package entity

import (
	"fmt"
	"strings"
)

// PromptGroup - независимый раздел сценариев и кеша (фильмы или сериалы)
type PromptGroup string

// Константы групп вопросов
const (
	PromptGroupMovies  PromptGroup = "movies"
	PromptGroupTVShows PromptGroup = "tv_shows"
)

// AllPromptGroups возвращает все группы в стабильном порядке
func AllPromptGroups() []PromptGroup {
	return []PromptGroup{PromptGroupMovies, PromptGroupTVShows}
}

// IsValid проверяет, что группа известна
func (g PromptGroup) IsValid() bool {
	return g == PromptGroupMovies || g == PromptGroupTVShows
}

// String реализует fmt.Stringer
func (g PromptGroup) String() string {
	return string(g)
}

// ParsePromptGroup разбирает группу из строки запроса ("movies", "tv", "tv_shows")
func ParsePromptGroup(s string) (PromptGroup, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "movies", "movie":
		return PromptGroupMovies, nil
	case "tv_shows", "tv", "tvshows", "tv-shows":
		return PromptGroupTVShows, nil
	default:
		return "", fmt.Errorf("unknown prompt group %q", s)
	}
}

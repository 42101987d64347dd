package catalog

import "strconv"

// Page - страница результатов discover
type Page[T any] struct {
	Page         int `json:"page"`
	Results      []T `json:"results"`
	TotalPages   int `json:"total_pages"`
	TotalResults int `json:"total_results"`
}

// Movie - фильм из discover/movie
type Movie struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Overview    string  `json:"overview"`
	ReleaseDate string  `json:"release_date"`
	PosterPath  string  `json:"poster_path"`
	GenreIDs    []int   `json:"genre_ids"`
	Popularity  float64 `json:"popularity"`
}

// ReleaseYear возвращает год выхода (0, если дата неизвестна)
func (m Movie) ReleaseYear() int {
	return yearOf(m.ReleaseDate)
}

// TVShow - сериал из discover/tv
type TVShow struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	Overview     string  `json:"overview"`
	FirstAirDate string  `json:"first_air_date"`
	PosterPath   string  `json:"poster_path"`
	GenreIDs     []int   `json:"genre_ids"`
	Popularity   float64 `json:"popularity"`
}

// FirstAirYear возвращает год премьеры (0, если дата неизвестна)
func (s TVShow) FirstAirYear() int {
	return yearOf(s.FirstAirDate)
}

// CastMember - актёр в титрах
type CastMember struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Character   string `json:"character"`
	Order       int    `json:"order"`
	ProfilePath string `json:"profile_path"`
}

// Credits - титры фильма
type Credits struct {
	ID   int64        `json:"id"`
	Cast []CastMember `json:"cast"`
}

// Genre - жанр каталога
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type genreList struct {
	Genres []Genre `json:"genres"`
}

// apiStatus - тело ошибки TMDB
type apiStatus struct {
	StatusCode    int    `json:"status_code"`
	StatusMessage string `json:"status_message"`
}

// DiscoverParams - параметры discover-запроса
type DiscoverParams struct {
	Page int
	// Genres объединяются через "|" (любой из жанров)
	Genres       []int
	SortBy       string
	MinVoteCount int
}

func yearOf(date string) int {
	if len(date) < 4 {
		return 0
	}
	year, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0
	}
	return year
}

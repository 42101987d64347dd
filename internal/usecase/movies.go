package usecase

import (
	"context"
	"fmt"
	"strconv"

	"github.com/yourusername/cinequiz/internal/catalog"
	"github.com/yourusername/cinequiz/internal/domain/entity"
)

// Имена сценариев группы "фильмы"
const (
	NameMovieReleaseYear   = "movie_release_year"
	NameMovieOverviewTitle = "movie_overview_title"
	NameMovieLeadActor     = "movie_lead_actor"
)

// discoverMovies возвращает ещё не показанные фильмы случайной страницы
func (b *base) discoverMovies(ctx context.Context, includeGenres []int, keep func(catalog.Movie) bool) ([]catalog.Movie, error) {
	page, err := b.catalog.DiscoverMovies(ctx, b.discoverParams(includeGenres))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", b.name, err)
	}
	return freshMovies(page.Results, b.recent.Movies(), keep), nil
}

// MovieReleaseYear - "В каком году вышел фильм X?"
type MovieReleaseYear struct {
	base
}

// Invoke строит вопрос о годе выхода фильма
func (u *MovieReleaseYear) Invoke(ctx context.Context, includeGenres []int) (*entity.Prompt, error) {
	movies, err := u.discoverMovies(ctx, includeGenres, func(m catalog.Movie) bool {
		return m.Title != "" && m.ReleaseYear() > 0
	})
	if err != nil {
		return nil, err
	}
	if len(movies) == 0 {
		return nil, nil
	}

	movie := movies[u.rng.IntN(len(movies))]
	year := movie.ReleaseYear()
	distractors := u.yearDistractors(year)
	if len(distractors) < optionsCount-1 {
		return nil, errNotEnoughData
	}

	u.recent.Movies().Insert(movie.ID)
	return u.newPrompt(
		entity.PromptGroupMovies,
		fmt.Sprintf("In what year was %q released?", movie.Title),
		strconv.Itoa(year), distractors, movie.ID, movie.PosterPath,
	), nil
}

// MovieOverviewTitle - "Какой фильм описан так: ...?"
type MovieOverviewTitle struct {
	base
}

// Invoke строит вопрос "угадай фильм по описанию"
func (u *MovieOverviewTitle) Invoke(ctx context.Context, includeGenres []int) (*entity.Prompt, error) {
	page, err := u.catalog.DiscoverMovies(ctx, u.discoverParams(includeGenres))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", u.name, err)
	}

	candidates := freshMovies(page.Results, u.recent.Movies(), func(m catalog.Movie) bool {
		return m.Title != "" && m.Overview != ""
	})
	if len(candidates) == 0 {
		return nil, nil
	}
	movie := candidates[u.rng.IntN(len(candidates))]

	// Неверные варианты берутся со всей страницы, в том числе из недавних
	titles := make([]string, 0, len(page.Results))
	for _, m := range page.Results {
		titles = append(titles, m.Title)
	}
	distractors := u.pickDistinct(titles, movie.Title, optionsCount-1)
	if len(distractors) < optionsCount-1 {
		return nil, errNotEnoughData
	}

	u.recent.Movies().Insert(movie.ID)
	return u.newPrompt(
		entity.PromptGroupMovies,
		"Which movie is this? "+redactTitle(movie.Overview, movie.Title),
		movie.Title, distractors, movie.ID, "",
	), nil
}

// MovieLeadActor - "Кто сыграл главную роль в фильме X?"
type MovieLeadActor struct {
	base
}

// Invoke строит вопрос о главном актёре фильма
func (u *MovieLeadActor) Invoke(ctx context.Context, includeGenres []int) (*entity.Prompt, error) {
	movies, err := u.discoverMovies(ctx, includeGenres, func(m catalog.Movie) bool {
		return m.Title != ""
	})
	if err != nil {
		return nil, err
	}
	if len(movies) == 0 {
		return nil, nil
	}
	movie := movies[u.rng.IntN(len(movies))]

	credits, err := u.catalog.MovieCredits(ctx, movie.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", u.name, err)
	}

	lead, rest, ok := splitLead(credits.Cast)
	if !ok || u.recent.People().Contains(lead.ID) {
		return nil, nil
	}

	names := make([]string, 0, len(rest))
	for _, c := range rest {
		names = append(names, c.Name)
	}
	distractors := u.pickDistinct(names, lead.Name, optionsCount-1)
	if len(distractors) < optionsCount-1 {
		return nil, errNotEnoughData
	}

	u.recent.Movies().Insert(movie.ID)
	u.recent.People().Insert(lead.ID)
	return u.newPrompt(
		entity.PromptGroupMovies,
		fmt.Sprintf("Who plays the lead role in %q?", movie.Title),
		lead.Name, distractors, movie.ID, movie.PosterPath,
	), nil
}

// splitLead отделяет актёра с наименьшим order от остального состава
func splitLead(cast []catalog.CastMember) (catalog.CastMember, []catalog.CastMember, bool) {
	if len(cast) == 0 {
		return catalog.CastMember{}, nil, false
	}
	leadIdx := 0
	for i, c := range cast {
		if c.Order < cast[leadIdx].Order {
			leadIdx = i
		}
	}
	rest := make([]catalog.CastMember, 0, len(cast)-1)
	rest = append(rest, cast[:leadIdx]...)
	rest = append(rest, cast[leadIdx+1:]...)
	return cast[leadIdx], rest, cast[leadIdx].Name != ""
}

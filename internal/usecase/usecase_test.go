package usecase

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/cinequiz/internal/catalog"
	"github.com/yourusername/cinequiz/internal/domain/entity"
	apperrors "github.com/yourusername/cinequiz/internal/pkg/errors"
	"github.com/yourusername/cinequiz/internal/service/recent"
)

// ============================================================================
// Моки
// ============================================================================

// MockCatalog реализует Catalog
type MockCatalog struct {
	mock.Mock
}

func (m *MockCatalog) DiscoverMovies(ctx context.Context, params catalog.DiscoverParams) (*catalog.Page[catalog.Movie], error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Page[catalog.Movie]), args.Error(1)
}

func (m *MockCatalog) DiscoverTV(ctx context.Context, params catalog.DiscoverParams) (*catalog.Page[catalog.TVShow], error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Page[catalog.TVShow]), args.Error(1)
}

func (m *MockCatalog) MovieCredits(ctx context.Context, movieID int64) (*catalog.Credits, error) {
	args := m.Called(ctx, movieID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Credits), args.Error(1)
}

func (m *MockCatalog) ImageURL(path string) string {
	if path == "" {
		return ""
	}
	return "https://img.test" + path
}

var testNow = time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

func newTestDeps(cat Catalog) *Deps {
	return &Deps{
		Catalog: cat,
		Recent:  recent.NewMemory("test", 10, nil),
		MaxPage: 1,
		Rand:    rand.New(rand.NewPCG(1, 2)),
		Now:     func() time.Time { return testNow },
	}
}

func movie(id int64, title, date string) catalog.Movie {
	return catalog.Movie{ID: id, Title: title, ReleaseDate: date, Overview: "In " + title + " a hero rises.", PosterPath: "/p" + fmt.Sprint(id) + ".jpg"}
}

func moviePage(movies ...catalog.Movie) *catalog.Page[catalog.Movie] {
	return &catalog.Page[catalog.Movie]{Page: 1, TotalPages: 1, Results: movies}
}

// assertWellFormed проверяет общие свойства вопроса
func assertWellFormed(t *testing.T, p *entity.Prompt, group entity.PromptGroup, useCase string) {
	t.Helper()
	require.NotNil(t, p)
	assert.Equal(t, group, p.Group)
	assert.Equal(t, useCase, p.UseCase)
	assert.NotEmpty(t, p.ID)
	assert.Len(t, p.Options, optionsCount)
	assert.True(t, p.IsValidOption(p.CorrectOption))

	seen := make(map[string]struct{})
	for _, o := range p.Options {
		_, dup := seen[o]
		assert.False(t, dup, "вариант %q повторяется", o)
		seen[o] = struct{}{}
	}
}

// ============================================================================
// Тесты для сценариев фильмов
// ============================================================================

// TestMovieReleaseYear - вопрос о годе выхода, фильм запоминается как недавний
func TestMovieReleaseYear(t *testing.T) {
	cat := new(MockCatalog)
	cat.On("DiscoverMovies", mock.Anything, catalog.DiscoverParams{Page: 1, Genres: []int{28}, MinVoteCount: 50}).
		Return(moviePage(movie(603, "The Matrix", "1999-03-31")), nil)
	deps := newTestDeps(cat)
	uc := &MovieReleaseYear{base: newBase(NameMovieReleaseYear, deps, newLockedRand(deps.Rand))}

	p, err := uc.Invoke(context.Background(), []int{28})
	require.NoError(t, err)

	assertWellFormed(t, p, entity.PromptGroupMovies, NameMovieReleaseYear)
	assert.Equal(t, "1999", p.CorrectAnswer())
	assert.Contains(t, p.Text, "The Matrix")
	assert.Equal(t, "https://img.test/p603.jpg", p.ImageURL)
	assert.Equal(t, testNow, p.CreatedAt)
	assert.True(t, deps.Recent.Movies().Contains(603))
	cat.AssertExpectations(t)
}

// TestMovieReleaseYear_SkipsRecent - недавно показанный фильм не используется
func TestMovieReleaseYear_SkipsRecent(t *testing.T) {
	cat := new(MockCatalog)
	cat.On("DiscoverMovies", mock.Anything, mock.Anything).Return(moviePage(movie(603, "The Matrix", "1999-03-31")), nil)
	deps := newTestDeps(cat)
	deps.Recent.Movies().Insert(603)
	uc := &MovieReleaseYear{base: newBase(NameMovieReleaseYear, deps, newLockedRand(deps.Rand))}

	p, err := uc.Invoke(context.Background(), nil)

	assert.NoError(t, err)
	assert.Nil(t, p)
}

// TestMovieReleaseYear_CatalogError - ошибка каталога (в том числе закрытый гейт) пробрасывается
func TestMovieReleaseYear_CatalogError(t *testing.T) {
	cat := new(MockCatalog)
	cat.On("DiscoverMovies", mock.Anything, mock.Anything).Return(nil, apperrors.ErrGateClosed)
	deps := newTestDeps(cat)
	uc := &MovieReleaseYear{base: newBase(NameMovieReleaseYear, deps, newLockedRand(deps.Rand))}

	p, err := uc.Invoke(context.Background(), nil)

	assert.Nil(t, p)
	assert.ErrorIs(t, err, apperrors.ErrGateClosed)
}

// TestMovieOverviewTitle - название в описании скрыто, неверные варианты с той же страницы
func TestMovieOverviewTitle(t *testing.T) {
	cat := new(MockCatalog)
	cat.On("DiscoverMovies", mock.Anything, mock.Anything).Return(moviePage(
		movie(1, "Alien", "1979-05-25"),
		movie(2, "Heat", "1995-12-15"),
		movie(3, "Fargo", "1996-03-08"),
		movie(4, "Se7en", "1995-09-22"),
	), nil)
	deps := newTestDeps(cat)
	uc := &MovieOverviewTitle{base: newBase(NameMovieOverviewTitle, deps, newLockedRand(deps.Rand))}

	p, err := uc.Invoke(context.Background(), nil)
	require.NoError(t, err)

	assertWellFormed(t, p, entity.PromptGroupMovies, NameMovieOverviewTitle)
	assert.ElementsMatch(t, []string{"Alien", "Heat", "Fargo", "Se7en"}, p.Options)
	assert.NotContains(t, p.Text, p.CorrectAnswer())
	assert.Contains(t, p.Text, "_____")
	assert.True(t, deps.Recent.Movies().Contains(p.SubjectID))
}

// TestMovieOverviewTitle_NotEnoughTitles - меньше четырёх названий - неудача сценария
func TestMovieOverviewTitle_NotEnoughTitles(t *testing.T) {
	cat := new(MockCatalog)
	cat.On("DiscoverMovies", mock.Anything, mock.Anything).Return(moviePage(
		movie(1, "Alien", "1979-05-25"),
		movie(2, "Heat", "1995-12-15"),
	), nil)
	deps := newTestDeps(cat)
	uc := &MovieOverviewTitle{base: newBase(NameMovieOverviewTitle, deps, newLockedRand(deps.Rand))}

	p, err := uc.Invoke(context.Background(), nil)

	assert.Nil(t, p)
	assert.ErrorIs(t, err, errNotEnoughData)
	assert.Equal(t, 0, deps.Recent.Movies().Len(), "неудачный вопрос не запоминается")
}

// TestMovieLeadActor - главный актёр определяется по минимальному order
func TestMovieLeadActor(t *testing.T) {
	cat := new(MockCatalog)
	cat.On("DiscoverMovies", mock.Anything, mock.Anything).Return(moviePage(movie(603, "The Matrix", "1999-03-31")), nil)
	cat.On("MovieCredits", mock.Anything, int64(603)).Return(&catalog.Credits{ID: 603, Cast: []catalog.CastMember{
		{ID: 2, Name: "Laurence Fishburne", Order: 1},
		{ID: 1, Name: "Keanu Reeves", Order: 0},
		{ID: 3, Name: "Carrie-Anne Moss", Order: 2},
		{ID: 4, Name: "Hugo Weaving", Order: 3},
	}}, nil)
	deps := newTestDeps(cat)
	uc := &MovieLeadActor{base: newBase(NameMovieLeadActor, deps, newLockedRand(deps.Rand))}

	p, err := uc.Invoke(context.Background(), nil)
	require.NoError(t, err)

	assertWellFormed(t, p, entity.PromptGroupMovies, NameMovieLeadActor)
	assert.Equal(t, "Keanu Reeves", p.CorrectAnswer())
	assert.True(t, deps.Recent.People().Contains(1))
	assert.True(t, deps.Recent.Movies().Contains(603))
}

// TestMovieLeadActor_RecentLead - недавно показанный актёр не повторяется
func TestMovieLeadActor_RecentLead(t *testing.T) {
	cat := new(MockCatalog)
	cat.On("DiscoverMovies", mock.Anything, mock.Anything).Return(moviePage(movie(603, "The Matrix", "1999-03-31")), nil)
	cat.On("MovieCredits", mock.Anything, int64(603)).Return(&catalog.Credits{Cast: []catalog.CastMember{
		{ID: 1, Name: "Keanu Reeves", Order: 0},
	}}, nil)
	deps := newTestDeps(cat)
	deps.Recent.People().Insert(1)
	uc := &MovieLeadActor{base: newBase(NameMovieLeadActor, deps, newLockedRand(deps.Rand))}

	p, err := uc.Invoke(context.Background(), nil)

	assert.NoError(t, err)
	assert.Nil(t, p)
}

// ============================================================================
// Тесты для сценариев сериалов
// ============================================================================

// TestTVFirstAirYear - вопрос о годе премьеры сериала
func TestTVFirstAirYear(t *testing.T) {
	cat := new(MockCatalog)
	cat.On("DiscoverTV", mock.Anything, mock.Anything).Return(&catalog.Page[catalog.TVShow]{Results: []catalog.TVShow{
		{ID: 1396, Name: "Breaking Bad", FirstAirDate: "2008-01-20", Overview: "A chemistry teacher..."},
	}}, nil)
	deps := newTestDeps(cat)
	uc := &TVFirstAirYear{base: newBase(NameTVFirstAirYear, deps, newLockedRand(deps.Rand))}

	p, err := uc.Invoke(context.Background(), nil)
	require.NoError(t, err)

	assertWellFormed(t, p, entity.PromptGroupTVShows, NameTVFirstAirYear)
	assert.Equal(t, "2008", p.CorrectAnswer())
	assert.True(t, deps.Recent.TVShows().Contains(1396))
}

// TestTVOverviewTitle - угадать сериал по описанию
func TestTVOverviewTitle(t *testing.T) {
	shows := []catalog.TVShow{
		{ID: 1, Name: "Dark", Overview: "In Dark, a missing child..."},
		{ID: 2, Name: "Lost", Overview: "Survivors of a crash..."},
		{ID: 3, Name: "Fargo", Overview: "A small town..."},
		{ID: 4, Name: "Severance", Overview: "Office workers..."},
	}
	cat := new(MockCatalog)
	cat.On("DiscoverTV", mock.Anything, mock.Anything).Return(&catalog.Page[catalog.TVShow]{Results: shows}, nil)
	deps := newTestDeps(cat)
	uc := &TVOverviewTitle{base: newBase(NameTVOverviewTitle, deps, newLockedRand(deps.Rand))}

	p, err := uc.Invoke(context.Background(), nil)
	require.NoError(t, err)

	assertWellFormed(t, p, entity.PromptGroupTVShows, NameTVOverviewTitle)
	assert.False(t, strings.Contains(strings.ToLower(p.Text), strings.ToLower(p.CorrectAnswer())))
}

// ============================================================================
// Тесты для вспомогательных функций и реестра
// ============================================================================

// TestYearDistractors - соседние годы без правильного и без будущего дальше чем на 2 года
func TestYearDistractors(t *testing.T) {
	deps := newTestDeps(new(MockCatalog))
	b := newBase("test", deps, newLockedRand(deps.Rand))

	distractors := b.yearDistractors(2027)

	assert.Len(t, distractors, optionsCount-1)
	for _, y := range distractors {
		assert.NotEqual(t, "2027", y)
		assert.LessOrEqual(t, y, "2028")
	}
}

// TestRedactTitle - название скрывается без учёта регистра
func TestRedactTitle(t *testing.T) {
	assert.Equal(t, "In _____, Neo wakes up. _____ is everywhere.", redactTitle("In The Matrix, Neo wakes up. the matrix is everywhere.", "The Matrix"))
	assert.Equal(t, "plain", redactTitle("plain", ""))
}

// TestForGroup - реестр собирает пулы сценариев по группам
func TestForGroup(t *testing.T) {
	deps := newTestDeps(new(MockCatalog))

	movies, err := ForGroup(entity.PromptGroupMovies, deps)
	require.NoError(t, err)
	names := make([]string, 0, len(movies))
	for _, uc := range movies {
		names = append(names, uc.Name())
	}
	assert.Equal(t, []string{NameMovieReleaseYear, NameMovieOverviewTitle, NameMovieLeadActor}, names)

	all, err := All(deps)
	require.NoError(t, err)
	assert.Len(t, all[entity.PromptGroupTVShows], 2)

	_, err = ForGroup("anime", deps)
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = ForGroup(entity.PromptGroupMovies, &Deps{})
	assert.Error(t, err)
}

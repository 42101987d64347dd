package usecase

import (
	"context"
	"fmt"
	"strconv"

	"github.com/yourusername/cinequiz/internal/catalog"
	"github.com/yourusername/cinequiz/internal/domain/entity"
)

// Имена сценариев группы "сериалы"
const (
	NameTVFirstAirYear  = "tv_first_air_year"
	NameTVOverviewTitle = "tv_overview_title"
)

// TVFirstAirYear - "В каком году вышел первый сезон сериала X?"
type TVFirstAirYear struct {
	base
}

// Invoke строит вопрос о годе премьеры сериала
func (u *TVFirstAirYear) Invoke(ctx context.Context, includeGenres []int) (*entity.Prompt, error) {
	page, err := u.catalog.DiscoverTV(ctx, u.discoverParams(includeGenres))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", u.name, err)
	}

	shows := freshShows(page.Results, u.recent.TVShows(), func(s catalog.TVShow) bool {
		return s.Name != "" && s.FirstAirYear() > 0
	})
	if len(shows) == 0 {
		return nil, nil
	}

	show := shows[u.rng.IntN(len(shows))]
	year := show.FirstAirYear()
	distractors := u.yearDistractors(year)
	if len(distractors) < optionsCount-1 {
		return nil, errNotEnoughData
	}

	u.recent.TVShows().Insert(show.ID)
	return u.newPrompt(
		entity.PromptGroupTVShows,
		fmt.Sprintf("In what year did %q first air?", show.Name),
		strconv.Itoa(year), distractors, show.ID, show.PosterPath,
	), nil
}

// TVOverviewTitle - "Какой сериал описан так: ...?"
type TVOverviewTitle struct {
	base
}

// Invoke строит вопрос "угадай сериал по описанию"
func (u *TVOverviewTitle) Invoke(ctx context.Context, includeGenres []int) (*entity.Prompt, error) {
	page, err := u.catalog.DiscoverTV(ctx, u.discoverParams(includeGenres))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", u.name, err)
	}

	candidates := freshShows(page.Results, u.recent.TVShows(), func(s catalog.TVShow) bool {
		return s.Name != "" && s.Overview != ""
	})
	if len(candidates) == 0 {
		return nil, nil
	}
	show := candidates[u.rng.IntN(len(candidates))]

	names := make([]string, 0, len(page.Results))
	for _, s := range page.Results {
		names = append(names, s.Name)
	}
	distractors := u.pickDistinct(names, show.Name, optionsCount-1)
	if len(distractors) < optionsCount-1 {
		return nil, errNotEnoughData
	}

	u.recent.TVShows().Insert(show.ID)
	return u.newPrompt(
		entity.PromptGroupTVShows,
		"Which TV show is this? "+redactTitle(show.Overview, show.Name),
		show.Name, distractors, show.ID, "",
	), nil
}

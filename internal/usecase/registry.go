package usecase

import (
	"fmt"

	"github.com/yourusername/cinequiz/internal/domain/entity"
	apperrors "github.com/yourusername/cinequiz/internal/pkg/errors"
	"github.com/yourusername/cinequiz/internal/service/promptmanager"
)

// ForGroup собирает пул сценариев группы
func ForGroup(group entity.PromptGroup, deps *Deps) ([]promptmanager.UseCase, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	rng := newLockedRand(deps.Rand)

	switch group {
	case entity.PromptGroupMovies:
		return []promptmanager.UseCase{
			&MovieReleaseYear{base: newBase(NameMovieReleaseYear, deps, rng)},
			&MovieOverviewTitle{base: newBase(NameMovieOverviewTitle, deps, rng)},
			&MovieLeadActor{base: newBase(NameMovieLeadActor, deps, rng)},
		}, nil
	case entity.PromptGroupTVShows:
		return []promptmanager.UseCase{
			&TVFirstAirYear{base: newBase(NameTVFirstAirYear, deps, rng)},
			&TVOverviewTitle{base: newBase(NameTVOverviewTitle, deps, rng)},
		}, nil
	default:
		return nil, fmt.Errorf("%w: unknown prompt group %q", apperrors.ErrValidation, group)
	}
}

// All собирает пулы сценариев для всех групп
func All(deps *Deps) (map[entity.PromptGroup][]promptmanager.UseCase, error) {
	out := make(map[entity.PromptGroup][]promptmanager.UseCase, len(entity.AllPromptGroups()))
	for _, group := range entity.AllPromptGroups() {
		useCases, err := ForGroup(group, deps)
		if err != nil {
			return nil, err
		}
		out[group] = useCases
	}
	return out, nil
}

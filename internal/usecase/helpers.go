package usecase

import (
	"regexp"
	"strconv"

	"github.com/google/uuid"

	"github.com/yourusername/cinequiz/internal/catalog"
	"github.com/yourusername/cinequiz/internal/domain/entity"
	"github.com/yourusername/cinequiz/internal/service/recent"
)

// redactTitle прячет название в описании, чтобы вопрос не подсказывал ответ
func redactTitle(overview, title string) string {
	if title == "" {
		return overview
	}
	re, err := regexp.Compile(`(?i)` + regexp.QuoteMeta(title))
	if err != nil {
		return overview
	}
	return re.ReplaceAllString(overview, "_____")
}

// yearDistractors подбирает соседние годы; результат не содержит правильный год
func (b *base) yearDistractors(year int) []string {
	candidates := make([]string, 0, 8)
	for _, offset := range []int{-4, -3, -2, -1, 1, 2, 3, 4} {
		y := year + offset
		if y < 1888 || y > b.now().Year()+2 {
			continue
		}
		candidates = append(candidates, strconv.Itoa(y))
	}
	return b.pickDistinct(candidates, strconv.Itoa(year), optionsCount-1)
}

// freshMovies отбирает фильмы, которые ещё не показывались
func freshMovies(movies []catalog.Movie, set *recent.RecentSet, keep func(catalog.Movie) bool) []catalog.Movie {
	out := make([]catalog.Movie, 0, len(movies))
	for _, m := range movies {
		if set.Contains(m.ID) || !keep(m) {
			continue
		}
		out = append(out, m)
	}
	return out
}

// freshShows отбирает сериалы, которые ещё не показывались
func freshShows(shows []catalog.TVShow, set *recent.RecentSet, keep func(catalog.TVShow) bool) []catalog.TVShow {
	out := make([]catalog.TVShow, 0, len(shows))
	for _, s := range shows {
		if set.Contains(s.ID) || !keep(s) {
			continue
		}
		out = append(out, s)
	}
	return out
}

// newPrompt собирает вопрос с перемешанными вариантами
func (b *base) newPrompt(group entity.PromptGroup, text, correct string, distractors []string, subjectID int64, imagePath string) *entity.Prompt {
	options, correctIdx := b.shuffleOptions(correct, distractors)
	return &entity.Prompt{
		ID:            uuid.NewString(),
		Group:         group,
		UseCase:       b.name,
		Text:          text,
		Options:       options,
		CorrectOption: correctIdx,
		ImageURL:      b.catalog.ImageURL(imagePath),
		SubjectID:     subjectID,
		CreatedAt:     b.now(),
	}
}

package promptmanager

import (
	"context"

	"github.com/yourusername/cinequiz/internal/domain/entity"
)

// Константы для значений по умолчанию
const (
	DefaultMaxParallel   = 2 // Параллельных слотов в раунде, когда на экране уже есть вопрос
	DefaultAttemptFactor = 2 // Бюджет попыток = AttemptFactor * count
)

// Config содержит настройки конвейера загрузки вопросов
type Config struct {
	// CacheCapacity - ёмкость кеша готовых вопросов на группу
	CacheCapacity int

	// MaxParallel - максимум одновременных вызовов сценариев в одном раунде
	MaxParallel int

	// AttemptFactor - множитель бюджета попыток: loop идёт, пока attempts < AttemptFactor*count
	AttemptFactor int

	// Seed - зерно генератора для воспроизводимых прогонов (0 - случайное)
	Seed uint64
}

// DefaultConfig возвращает конфигурацию по умолчанию
func DefaultConfig() *Config {
	return &Config{
		CacheCapacity: DefaultCacheCapacity,
		MaxParallel:   DefaultMaxParallel,
		AttemptFactor: DefaultAttemptFactor,
	}
}

// UseCase - стратегия построения одного вопроса викторины.
// Для ядра это непрозрачная возможность: вернуть вопрос, nil или ошибку.
// Реализации должны быть сравнимыми (обычно указатели), т.к. используются как ключи.
type UseCase interface {
	Name() string
	Invoke(ctx context.Context, includeGenres []int) (*entity.Prompt, error)
}

// RecentResetter очищает память недавно показанных элементов.
// Вызывается, когда загрузка сдалась, не получив ни одного вопроса.
type RecentResetter interface {
	Reset()
}

// Dependencies содержит зависимости PromptLoadController
type Dependencies struct {
	// UseCases - пул сценариев для каждой группы
	UseCases map[entity.PromptGroup][]UseCase
	Recent   RecentResetter
	Config   *Config
}

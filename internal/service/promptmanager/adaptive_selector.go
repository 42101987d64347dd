package promptmanager

import (
	"errors"
	"log"
	"math/rand/v2"
	"sync"

	apperrors "github.com/yourusername/cinequiz/internal/pkg/errors"
)

// AdaptiveSelector выбирает сценарии через FairSampler и постепенно
// "приглушает" те, что недавно падали: чем выше счёт неудач, тем чаще
// выбранный кандидат пропускается.
type AdaptiveSelector[T comparable] struct {
	sampler *FairSampler[T]

	mu     sync.Mutex
	scores map[T]int
	// intN возвращает равномерное целое в [0, n). Подменяется в тестах.
	intN func(n int) int
}

// NewAdaptiveSelector создаёт селектор поверх сэмплера.
// rng может быть nil - тогда используется генератор с случайным зерном.
func NewAdaptiveSelector[T comparable](sampler *FairSampler[T], rng *rand.Rand) *AdaptiveSelector[T] {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &AdaptiveSelector[T]{
		sampler: sampler,
		scores:  make(map[T]int),
		intN:    rng.IntN,
	}
}

// Pick возвращает следующего кандидата или false, если выбирать нечего
// либо кандидат пропущен из-за счёта неудач.
//
// Для счёта s > 0 бросается случайное число в [0, s]; ненулевое значение -
// пропуск (вероятность s/(s+1)). Пропущенный кандидат остаётся израсходованным
// в текущем цикле сэмплера.
func (s *AdaptiveSelector[T]) Pick() (T, bool) {
	var zero T

	candidate, err := s.sampler.Draw()
	if err != nil {
		// Пустой пул - это "выбирать нечего", а не фатальная ошибка
		if !errors.Is(err, apperrors.ErrEmptyPool) {
			log.Printf("[AdaptiveSelector] Unexpected sampler error: %v", err)
		}
		return zero, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	score := s.scores[candidate]
	if score > 0 && s.intN(score+1) != 0 {
		return zero, false
	}
	return candidate, true
}

// Failed увеличивает счёт неудач кандидата на 1
func (s *AdaptiveSelector[T]) Failed(candidate T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scores[candidate]++
}

// Succeeded уменьшает счёт неудач на 2, не опускаясь ниже нуля
func (s *AdaptiveSelector[T]) Succeeded(candidate T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scores[candidate] = max(0, s.scores[candidate]-2)
}

// Reset обнуляет все счета неудач. Позиция цикла сэмплера не меняется.
func (s *AdaptiveSelector[T]) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scores = make(map[T]int)
}

// Score возвращает текущий счёт неудач кандидата (отсутствующий - 0)
func (s *AdaptiveSelector[T]) Score(candidate T) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scores[candidate]
}

// Scores возвращает копию карты счетов
func (s *AdaptiveSelector[T]) Scores() map[T]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[T]int, len(s.scores))
	for k, v := range s.scores {
		out[k] = v
	}
	return out
}

// Add возвращает кандидата в ротацию
func (s *AdaptiveSelector[T]) Add(candidate T) {
	s.sampler.Add(candidate)
}

// Remove убирает кандидата из ротации; его счёт сохраняется
func (s *AdaptiveSelector[T]) Remove(candidate T) {
	s.sampler.Remove(candidate)
}

// IsEmpty возвращает true, если в пуле нет кандидатов
func (s *AdaptiveSelector[T]) IsEmpty() bool {
	return s.sampler.IsEmpty()
}

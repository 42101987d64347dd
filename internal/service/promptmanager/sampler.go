package promptmanager

import (
	"math/rand/v2"
	"sync"

	apperrors "github.com/yourusername/cinequiz/internal/pkg/errors"
)

// FairSampler выбирает кандидатов случайно, но без повторов внутри цикла:
// каждый живой кандидат выпадает ровно один раз, прежде чем кто-то выпадет повторно.
//
// Живое множество = remaining ∪ drawn. Цикл перезапускается лениво - только когда
// Draw видит пустой remaining, а не сразу после последней выборки.
type FairSampler[T comparable] struct {
	mu        sync.Mutex
	rng       *rand.Rand
	remaining []T
	drawn     []T
}

// NewFairSampler создаёт сэмплер с начальным набором кандидатов.
// rng может быть nil - тогда используется генератор с случайным зерном.
func NewFairSampler[T comparable](rng *rand.Rand, items ...T) *FairSampler[T] {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	remaining := make([]T, len(items))
	copy(remaining, items)
	return &FairSampler[T]{
		rng:       rng,
		remaining: remaining,
	}
}

// Draw возвращает случайного кандидата из ещё не выбранных в текущем цикле.
// Пустой сэмплер - ErrEmptyPool.
func (s *FairSampler[T]) Draw() (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var zero T
	if len(s.remaining) == 0 && len(s.drawn) == 0 {
		return zero, apperrors.ErrEmptyPool
	}

	// Цикл исчерпан - переносим всё из drawn обратно в remaining
	if len(s.remaining) == 0 {
		s.remaining, s.drawn = s.drawn, s.remaining[:0]
	}

	idx := s.rng.IntN(len(s.remaining))
	item := s.remaining[idx]

	last := len(s.remaining) - 1
	s.remaining[idx] = s.remaining[last]
	s.remaining = s.remaining[:last]
	s.drawn = append(s.drawn, item)

	return item, nil
}

// Remove удаляет одно вхождение кандидата из того множества, где он сейчас лежит.
// Отсутствующий кандидат - не ошибка.
func (s *FairSampler[T]) Remove(item T) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if removeOne(&s.remaining, item) {
		return
	}
	removeOne(&s.drawn, item)
}

// Add добавляет кандидата в remaining: он доступен сразу, даже посреди цикла
func (s *FairSampler[T]) Add(item T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.remaining = append(s.remaining, item)
}

// IsEmpty возвращает true, если живых кандидатов нет
func (s *FairSampler[T]) IsEmpty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.remaining) == 0 && len(s.drawn) == 0
}

// Len возвращает количество живых кандидатов
func (s *FairSampler[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.remaining) + len(s.drawn)
}

// RemainingInCycle возвращает, сколько кандидатов ещё не выпало в текущем цикле
func (s *FairSampler[T]) RemainingInCycle() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.remaining)
}

func removeOne[T comparable](set *[]T, item T) bool {
	items := *set
	for i := range items {
		if items[i] == item {
			last := len(items) - 1
			items[i] = items[last]
			*set = items[:last]
			return true
		}
	}
	return false
}

package promptmanager

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// alwaysRoll подменяет бросок селектора фиксированной функцией
func alwaysRoll[T comparable](s *AdaptiveSelector[T], roll func(n int) int) *AdaptiveSelector[T] {
	s.intN = roll
	return s
}

// ============================================================================
// Тесты для счетов неудач
// ============================================================================

// TestAdaptiveSelector_ScorePath - fail, fail, fail, success, success → 1, 2, 3, 1, 0
func TestAdaptiveSelector_ScorePath(t *testing.T) {
	s := NewAdaptiveSelector(NewFairSampler(seededRand(1), "x"), seededRand(2))

	var path []int
	s.Failed("x")
	path = append(path, s.Score("x"))
	s.Failed("x")
	path = append(path, s.Score("x"))
	s.Failed("x")
	path = append(path, s.Score("x"))
	s.Succeeded("x")
	path = append(path, s.Score("x"))
	s.Succeeded("x")
	path = append(path, s.Score("x"))

	assert.Equal(t, []int{1, 2, 3, 1, 0}, path)
}

// TestAdaptiveSelector_SucceededNeverNegative - успех при нулевом счёте оставляет 0
func TestAdaptiveSelector_SucceededNeverNegative(t *testing.T) {
	s := NewAdaptiveSelector(NewFairSampler(seededRand(1), "x"), seededRand(2))

	s.Succeeded("x")
	s.Succeeded("x")
	assert.Equal(t, 0, s.Score("x"))
}

// TestAdaptiveSelector_Reset - Reset обнуляет счета, но не позицию цикла сэмплера
func TestAdaptiveSelector_Reset(t *testing.T) {
	sampler := NewFairSampler(seededRand(1), "a", "b", "c")
	s := NewAdaptiveSelector(sampler, seededRand(2))
	s.Failed("a")
	s.Failed("b")
	s.Failed("b")

	_, err := sampler.Draw()
	require.NoError(t, err)

	s.Reset()

	assert.Empty(t, s.Scores())
	assert.Equal(t, 2, sampler.RemainingInCycle(), "Reset не должен трогать цикл сэмплера")
}

// ============================================================================
// Тесты для Pick
// ============================================================================

// TestAdaptiveSelector_ZeroScoreNeverSkipped - кандидат с нулевым счётом выдаётся всегда,
// даже если бросок всегда "неудачный"
func TestAdaptiveSelector_ZeroScoreNeverSkipped(t *testing.T) {
	s := alwaysRoll(
		NewAdaptiveSelector(NewFairSampler(seededRand(1), "a", "b"), nil),
		func(n int) int { return n - 1 },
	)

	for i := 0; i < 10; i++ {
		_, ok := s.Pick()
		assert.True(t, ok, "pick %d не должен пропускаться", i)
	}
}

// TestAdaptiveSelector_SkipConsumesCandidate - пропущенный кандидат израсходован в текущем цикле
func TestAdaptiveSelector_SkipConsumesCandidate(t *testing.T) {
	sampler := NewFairSampler(seededRand(1), "bad")
	s := alwaysRoll(NewAdaptiveSelector(sampler, nil), func(n int) int { return n - 1 })
	s.Failed("bad")

	_, ok := s.Pick()
	assert.False(t, ok, "при броске != 0 кандидат со счётом > 0 пропускается")
	assert.Equal(t, 0, sampler.RemainingInCycle(), "пропуск расходует кандидата")
	assert.Equal(t, 1, sampler.Len())
}

// TestAdaptiveSelector_ZeroRollPicksFailedCandidate - бросок 0 выдаёт кандидата несмотря на счёт
func TestAdaptiveSelector_ZeroRollPicksFailedCandidate(t *testing.T) {
	s := alwaysRoll(
		NewAdaptiveSelector(NewFairSampler(seededRand(1), "bad"), nil),
		func(int) int { return 0 },
	)
	s.Failed("bad")
	s.Failed("bad")

	got, ok := s.Pick()
	assert.True(t, ok)
	assert.Equal(t, "bad", got)
}

// TestAdaptiveSelector_RollRange - бросок делается в диапазоне [0, score]
func TestAdaptiveSelector_RollRange(t *testing.T) {
	var seen []int
	s := alwaysRoll(
		NewAdaptiveSelector(NewFairSampler(seededRand(1), "x"), nil),
		func(n int) int { seen = append(seen, n); return 0 },
	)
	s.Failed("x")
	s.Failed("x")
	s.Failed("x")

	_, ok := s.Pick()
	require.True(t, ok)
	assert.Equal(t, []int{4}, seen, "для счёта 3 бросается intN(4)")
}

// TestAdaptiveSelector_EmptyPool - пустой пул возвращает false без паники
func TestAdaptiveSelector_EmptyPool(t *testing.T) {
	s := NewAdaptiveSelector(NewFairSampler[string](seededRand(1)), seededRand(2))

	_, ok := s.Pick()
	assert.False(t, ok)
	assert.True(t, s.IsEmpty())
}

// TestAdaptiveSelector_RemoveKeepsScore - удалённый кандидат сохраняет счёт и может вернуться
func TestAdaptiveSelector_RemoveKeepsScore(t *testing.T) {
	s := NewAdaptiveSelector(NewFairSampler(seededRand(1), "a"), seededRand(2))
	s.Failed("a")

	s.Remove("a")
	assert.True(t, s.IsEmpty())
	assert.Equal(t, 1, s.Score("a"))

	s.Add("a")
	assert.False(t, s.IsEmpty())
}

// ============================================================================
// Конкурентный доступ (запускать с -race)
// ============================================================================

// TestAdaptiveSelector_ConcurrentScores - параллельные Pick/Failed/Succeeded не теряют обновлений
func TestAdaptiveSelector_ConcurrentScores(t *testing.T) {
	s := NewAdaptiveSelector(NewFairSampler(seededRand(5), "a", "b"), seededRand(6))

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				s.Failed("a")
				s.Pick()
				_ = s.Scores()
			}
		}()
	}
	wg.Wait()
	require.Equal(t, 400, s.Score("a"))

	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 10; i++ {
				s.Succeeded("a")
				s.Pick()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 240, s.Score("a"))
	assert.Equal(t, 0, s.Score("b"))
}

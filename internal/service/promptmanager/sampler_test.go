package promptmanager

import (
	"math/rand/v2"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/yourusername/cinequiz/internal/pkg/errors"
)

func seededRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed+1))
}

// drawN вытягивает n элементов, падая на первой ошибке
func drawN[T comparable](t *testing.T, s *FairSampler[T], n int) []T {
	t.Helper()
	out := make([]T, 0, n)
	for i := 0; i < n; i++ {
		item, err := s.Draw()
		require.NoError(t, err)
		out = append(out, item)
	}
	return out
}

// ============================================================================
// Тесты для FairSampler.Draw
// ============================================================================

// TestFairSampler_EachItemOncePerCycle - в каждом цикле каждый кандидат выпадает ровно один раз
func TestFairSampler_EachItemOncePerCycle(t *testing.T) {
	s := NewFairSampler(seededRand(42), "a", "b", "c", "d")

	for cycle := 0; cycle < 5; cycle++ {
		drawn := drawN(t, s, 4)
		assert.ElementsMatch(t, []string{"a", "b", "c", "d"}, drawn, "цикл %d должен содержать всех кандидатов", cycle)
	}
}

// TestFairSampler_EmptyPool - пустой сэмплер возвращает ErrEmptyPool
func TestFairSampler_EmptyPool(t *testing.T) {
	s := NewFairSampler[int](seededRand(1))

	_, err := s.Draw()
	assert.ErrorIs(t, err, apperrors.ErrEmptyPool)
	assert.True(t, s.IsEmpty())
}

// TestFairSampler_SingleItem - единственный кандидат выпадает каждый раз
func TestFairSampler_SingleItem(t *testing.T) {
	s := NewFairSampler(seededRand(7), 99)

	assert.Equal(t, []int{99, 99, 99}, drawN(t, s, 3))
}

// TestFairSampler_LazyRefill - цикл перезапускается только при следующем Draw
func TestFairSampler_LazyRefill(t *testing.T) {
	s := NewFairSampler(seededRand(3), 1, 2, 3)

	drawN(t, s, 3)
	assert.Equal(t, 0, s.RemainingInCycle(), "после полного цикла remaining пуст до следующего Draw")
	assert.Equal(t, 3, s.Len())

	drawN(t, s, 1)
	assert.Equal(t, 2, s.RemainingInCycle())
}

// TestFairSampler_SameSeedSameOrder - одинаковое зерно даёт одинаковую последовательность
func TestFairSampler_SameSeedSameOrder(t *testing.T) {
	a := NewFairSampler(seededRand(11), 1, 2, 3, 4, 5)
	b := NewFairSampler(seededRand(11), 1, 2, 3, 4, 5)

	assert.Equal(t, drawN(t, a, 15), drawN(t, b, 15))
}

// ============================================================================
// Тесты для FairSampler.Remove / Add
// ============================================================================

// TestFairSampler_RemoveFromRemaining - удалённый до выборки кандидат больше не выпадает
func TestFairSampler_RemoveFromRemaining(t *testing.T) {
	s := NewFairSampler(seededRand(5), "a", "b", "c")
	s.Remove("b")

	for cycle := 0; cycle < 3; cycle++ {
		assert.ElementsMatch(t, []string{"a", "c"}, drawN(t, s, 2))
	}
}

// TestFairSampler_RemoveDrawn - удаление уже выбранного кандидата исключает его из следующих циклов
func TestFairSampler_RemoveDrawn(t *testing.T) {
	s := NewFairSampler(seededRand(9), "a", "b", "c")

	first, err := s.Draw()
	require.NoError(t, err)
	s.Remove(first)

	rest := drawN(t, s, 2)
	assert.NotContains(t, rest, first)

	for cycle := 0; cycle < 3; cycle++ {
		assert.NotContains(t, drawN(t, s, 2), first)
	}
	assert.Equal(t, 2, s.Len())
}

// TestFairSampler_RemoveAbsent - удаление отсутствующего кандидата ничего не меняет
func TestFairSampler_RemoveAbsent(t *testing.T) {
	s := NewFairSampler(seededRand(2), 1, 2)
	s.Remove(100)

	assert.Equal(t, 2, s.Len())
	assert.ElementsMatch(t, []int{1, 2}, drawN(t, s, 2))
}

// TestFairSampler_RemoveLast - удаление последнего кандидата делает пул пустым
func TestFairSampler_RemoveLast(t *testing.T) {
	s := NewFairSampler(seededRand(2), 1)
	drawN(t, s, 1)
	s.Remove(1)

	_, err := s.Draw()
	assert.ErrorIs(t, err, apperrors.ErrEmptyPool)
}

// TestFairSampler_AddMidCycle - добавленный посреди цикла кандидат доступен в этом же цикле
func TestFairSampler_AddMidCycle(t *testing.T) {
	s := NewFairSampler(seededRand(4), "a", "b")
	first, err := s.Draw()
	require.NoError(t, err)

	s.Add("z")
	rest := drawN(t, s, 2)

	assert.ElementsMatch(t, []string{"a", "b", "z"}, append(rest, first))
	assert.Equal(t, 0, s.RemainingInCycle())
}

// ============================================================================
// Конкурентный доступ (запускать с -race)
// ============================================================================

// TestFairSampler_ConcurrentDrawAddRemove - параллельные Draw/Add/Remove не теряют кандидатов
// и не ломают цикл
func TestFairSampler_ConcurrentDrawAddRemove(t *testing.T) {
	s := NewFairSampler(seededRand(7), 1, 2, 3, 4)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(own int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				s.Add(own)
				_, err := s.Draw()
				assert.NoError(t, err)
				s.Remove(own)
				_ = s.Len()
			}
		}(100 + g)
	}
	wg.Wait()

	require.Equal(t, 4, s.Len(), "временные кандидаты удалены, базовые на месте")

	// Дочитываем текущий цикл, следующий должен содержать всех базовых ровно по разу
	drawN(t, s, s.RemainingInCycle())
	assert.ElementsMatch(t, []int{1, 2, 3, 4}, drawN(t, s, 4))
}

package recent

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// Моки
// ============================================================================

// MockRecentRepo реализует repository.RecentItemsRepository
type MockRecentRepo struct {
	mock.Mock
}

func (m *MockRecentRepo) Load(setName string) ([]int64, error) {
	args := m.Called(setName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

func (m *MockRecentRepo) Append(setName string, id int64, capacity int) error {
	args := m.Called(setName, id, capacity)
	return args.Error(0)
}

func (m *MockRecentRepo) Clear(setName string) error {
	args := m.Called(setName)
	return args.Error(0)
}

// ============================================================================
// Тесты для RecentSet
// ============================================================================

// TestRecentSet_EvictsOldest - при переполнении вытесняется самый старый элемент
func TestRecentSet_EvictsOldest(t *testing.T) {
	s := NewRecentSet("movies", 3, nil)
	for _, id := range []int64{1, 2, 3, 4} {
		s.Insert(id)
	}

	assert.False(t, s.Contains(1))
	assert.True(t, s.Contains(4))
	assert.Equal(t, []int64{2, 3, 4}, s.Snapshot())
}

// TestRecentSet_ReinsertKeepsOrder - повторная вставка не освежает элемент
func TestRecentSet_ReinsertKeepsOrder(t *testing.T) {
	s := NewRecentSet("movies", 3, nil)
	s.Insert(1)
	s.Insert(2)
	s.Insert(1)
	s.Insert(3)
	s.Insert(4)

	assert.Equal(t, []int64{2, 3, 4}, s.Snapshot())
}

// TestRecentSet_Clear - после Clear набор пуст
func TestRecentSet_Clear(t *testing.T) {
	s := NewRecentSet("movies", 3, nil)
	s.Insert(10)
	s.Clear()

	assert.Equal(t, 0, s.Len())
	assert.False(t, s.Contains(10))
}

// TestRecentSet_PersistsThroughRepo - вставка и очистка дублируются в хранилище
func TestRecentSet_PersistsThroughRepo(t *testing.T) {
	repo := new(MockRecentRepo)
	repo.On("Append", "p1:movies", int64(7), 5).Return(nil).Once()
	repo.On("Clear", "p1:movies").Return(nil).Once()

	s := NewRecentSet("p1:movies", 5, repo)
	s.Insert(7)
	s.Insert(7)
	s.Clear()

	repo.AssertExpectations(t)
}

// TestRecentSet_RepoErrorIsNotFatal - ошибка хранилища не мешает работе в памяти
func TestRecentSet_RepoErrorIsNotFatal(t *testing.T) {
	repo := new(MockRecentRepo)
	repo.On("Append", "movies", int64(1), DefaultCapacity).Return(errors.New("redis down"))

	s := NewRecentSet("movies", 0, repo)
	s.Insert(1)

	assert.True(t, s.Contains(1))
}

// TestRecentSet_Restore - восстановление обрезает сохранённый список до ёмкости
func TestRecentSet_Restore(t *testing.T) {
	repo := new(MockRecentRepo)
	repo.On("Load", "movies").Return([]int64{1, 2, 2, 3, 4}, nil)

	s := NewRecentSet("movies", 3, repo)
	require.NoError(t, s.Restore())

	assert.Equal(t, []int64{2, 3, 4}, s.Snapshot())
}

// ============================================================================
// Тесты для Memory
// ============================================================================

// TestMemory_ResetClearsAllSets - Reset очищает все созданные наборы
func TestMemory_ResetClearsAllSets(t *testing.T) {
	m := NewMemory("player-1", 10, nil)
	m.Movies().Insert(1)
	m.TVShows().Insert(2)
	m.People().Insert(3)

	m.Reset()

	assert.Equal(t, map[string]int{SetMovies: 0, SetPeople: 0, SetTVShows: 0}, m.Sizes())
}

// TestMemory_NamespacedKeys - ключ хранилища включает пространство имён игрока
func TestMemory_NamespacedKeys(t *testing.T) {
	m := NewMemory("player-1", 10, nil)
	assert.Equal(t, "player-1:movies", m.Movies().Name())
	assert.Same(t, m.Movies(), m.Named(SetMovies))

	assert.Equal(t, "people", NewMemory("", 10, nil).People().Name())
}

// TestMemory_RestoreReportsFirstError - ошибка восстановления одного набора не мешает остальным
func TestMemory_RestoreReportsFirstError(t *testing.T) {
	repo := new(MockRecentRepo)
	repo.On("Load", "p:movies").Return(nil, errors.New("boom"))
	repo.On("Load", "p:tv_shows").Return([]int64{5}, nil)

	m := NewMemory("p", 10, repo)
	err := m.Restore(SetMovies, SetTVShows)

	assert.Error(t, err)
	assert.True(t, m.TVShows().Contains(5))
	repo.AssertExpectations(t)
}

package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/cinequiz/internal/domain/entity"
	apperrors "github.com/yourusername/cinequiz/internal/pkg/errors"
	"github.com/yourusername/cinequiz/internal/service/promptmanager"
	"github.com/yourusername/cinequiz/internal/service/recent"
)

// ============================================================================
// Моки
// ============================================================================

// MockSettingsRepository реализует repository.SettingsRepository
type MockSettingsRepository struct {
	mock.Mock
}

func (m *MockSettingsRepository) GetByPlayerID(playerID string) (*entity.PlayerSettings, error) {
	args := m.Called(playerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.PlayerSettings), args.Error(1)
}

func (m *MockSettingsRepository) Create(settings *entity.PlayerSettings) error {
	return m.Called(settings).Error(0)
}

func (m *MockSettingsRepository) Update(settings *entity.PlayerSettings) error {
	return m.Called(settings).Error(0)
}

func (m *MockSettingsRepository) Upsert(settings *entity.PlayerSettings) error {
	return m.Called(settings).Error(0)
}

// recordingUseCase всегда успешен и запоминает переданные жанры
type recordingUseCase struct {
	mu     sync.Mutex
	genres [][]int
}

func (r *recordingUseCase) Name() string { return "recording" }

func (r *recordingUseCase) Invoke(_ context.Context, genres []int) (*entity.Prompt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.genres = append(r.genres, genres)
	return &entity.Prompt{ID: "p", Text: "?", Options: []string{"a", "b"}}, nil
}

func (r *recordingUseCase) lastGenres() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.genres) == 0 {
		return nil
	}
	return r.genres[len(r.genres)-1]
}

// newTestManager собирает менеджер, чьи контроллеры используют один recordingUseCase для обеих групп
func newTestManager(repo *MockSettingsRepository) (*Manager, *recordingUseCase) {
	uc := &recordingUseCase{}
	factory := func(memory *recent.Memory) (*promptmanager.PromptLoadController, error) {
		return promptmanager.NewPromptLoadController(&promptmanager.Dependencies{
			UseCases: map[entity.PromptGroup][]promptmanager.UseCase{
				entity.PromptGroupMovies:  {uc},
				entity.PromptGroupTVShows: {uc},
			},
			Recent: memory,
			Config: &promptmanager.Config{Seed: 42},
		})
	}
	m := NewManager(Config{IdleTimeout: time.Minute, RecentCapacity: 10}, repo, nil, factory)
	return m, uc
}

func waitLoad(t *testing.T, done <-chan error) {
	t.Helper()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("loading did not finish")
	}
}

// ============================================================================
// Create / Get / Close
// ============================================================================

func TestManager_Create_NewPlayerGetsDefaults(t *testing.T) {
	repo := new(MockSettingsRepository)
	repo.On("GetByPlayerID", "p1").Return(nil, apperrors.ErrNotFound)
	repo.On("Create", mock.MatchedBy(func(s *entity.PlayerSettings) bool {
		return s.PlayerID == "p1" && s.ActiveGroup == entity.PromptGroupMovies
	})).Return(nil)

	m, _ := newTestManager(repo)
	s, err := m.Create("p1")
	require.NoError(t, err)

	assert.NotEmpty(t, s.ID)
	assert.Equal(t, entity.PromptGroupMovies, s.Controller.ActiveGroup())
	assert.Equal(t, entity.DefaultPromptCount, s.Settings().PromptCount)
	assert.Equal(t, 1, m.Count())
	repo.AssertExpectations(t)
}

func TestManager_Create_UsesSavedGroup(t *testing.T) {
	repo := new(MockSettingsRepository)
	saved := entity.NewDefaultPlayerSettings("p1")
	saved.ActiveGroup = entity.PromptGroupTVShows
	repo.On("GetByPlayerID", "p1").Return(saved, nil)

	m, _ := newTestManager(repo)
	s, err := m.Create("p1")
	require.NoError(t, err)

	assert.Equal(t, entity.PromptGroupTVShows, s.Controller.ActiveGroup())
	repo.AssertNotCalled(t, "Create", mock.Anything)
}

func TestManager_Create_ConcurrentCreateReadsExisting(t *testing.T) {
	repo := new(MockSettingsRepository)
	existing := entity.NewDefaultPlayerSettings("p1")
	existing.PromptCount = 3
	repo.On("GetByPlayerID", "p1").Return(nil, apperrors.ErrNotFound).Once()
	repo.On("Create", mock.Anything).Return(apperrors.ErrConflict)
	repo.On("GetByPlayerID", "p1").Return(existing, nil).Once()

	m, _ := newTestManager(repo)
	s, err := m.Create("p1")
	require.NoError(t, err)
	assert.Equal(t, 3, s.Settings().PromptCount)
}

func TestManager_Create_StorageErrorFallsBackToDefaults(t *testing.T) {
	repo := new(MockSettingsRepository)
	repo.On("GetByPlayerID", "p1").Return(nil, errors.New("connection refused"))

	m, _ := newTestManager(repo)
	s, err := m.Create("p1")
	require.NoError(t, err)
	assert.Equal(t, entity.PromptGroupMovies, s.Settings().ActiveGroup)
}

func TestManager_Create_EmptyPlayerID(t *testing.T) {
	m, _ := newTestManager(new(MockSettingsRepository))
	_, err := m.Create("")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestManager_GetAndClose(t *testing.T) {
	repo := new(MockSettingsRepository)
	repo.On("GetByPlayerID", "p1").Return(entity.NewDefaultPlayerSettings("p1"), nil)

	m, _ := newTestManager(repo)
	s, err := m.Create("p1")
	require.NoError(t, err)

	got, err := m.Get(s.ID)
	require.NoError(t, err)
	assert.Same(t, s, got)

	require.NoError(t, m.Close(s.ID))
	_, err = m.Get(s.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.ErrorIs(t, m.Close(s.ID), apperrors.ErrNotFound)
}

// ============================================================================
// Загрузка
// ============================================================================

func TestManager_StartLoading_UsesSavedGenresAndCount(t *testing.T) {
	repo := new(MockSettingsRepository)
	saved := entity.NewDefaultPlayerSettings("p1")
	saved.SetGenresFor(entity.PromptGroupMovies, []int{28, 35})
	saved.PromptCount = 3
	repo.On("GetByPlayerID", "p1").Return(saved, nil)

	m, uc := newTestManager(repo)
	s, err := m.Create("p1")
	require.NoError(t, err)

	done, err := m.StartLoading(s.ID, nil, 0)
	require.NoError(t, err)
	waitLoad(t, done)

	assert.Equal(t, []int{28, 35}, uc.lastGenres())
	assert.Equal(t, entity.PromptStateReady, s.Controller.State().Kind)
	assert.Equal(t, 2, s.Controller.CachedCount(entity.PromptGroupMovies), "first prompt is on screen")
}

func TestManager_StartLoading_ExplicitArgumentsWin(t *testing.T) {
	repo := new(MockSettingsRepository)
	saved := entity.NewDefaultPlayerSettings("p1")
	saved.SetGenresFor(entity.PromptGroupMovies, []int{28})
	repo.On("GetByPlayerID", "p1").Return(saved, nil)

	m, uc := newTestManager(repo)
	s, err := m.Create("p1")
	require.NoError(t, err)

	done, err := m.StartLoading(s.ID, []int{}, 2)
	require.NoError(t, err)
	waitLoad(t, done)

	assert.Empty(t, uc.lastGenres())
	assert.Equal(t, 1, s.Controller.CachedCount(entity.PromptGroupMovies))
}

func TestManager_StartLoading_Validation(t *testing.T) {
	repo := new(MockSettingsRepository)
	repo.On("GetByPlayerID", "p1").Return(entity.NewDefaultPlayerSettings("p1"), nil)

	m, _ := newTestManager(repo)
	s, err := m.Create("p1")
	require.NoError(t, err)

	_, err = m.StartLoading(s.ID, nil, maxPromptCount+1)
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = m.StartLoading("missing", nil, 1)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

// ============================================================================
// Настройки
// ============================================================================

func TestManager_UpdateSettings(t *testing.T) {
	repo := new(MockSettingsRepository)
	repo.On("GetByPlayerID", "p1").Return(entity.NewDefaultPlayerSettings("p1"), nil)
	repo.On("Upsert", mock.Anything).Return(nil)

	m, _ := newTestManager(repo)
	s, err := m.Create("p1")
	require.NoError(t, err)

	count := 5
	genres := []int{18}
	updated, err := m.UpdateSettings("p1", SettingsUpdate{PromptCount: &count, TVGenres: &genres})
	require.NoError(t, err)

	assert.Equal(t, 5, updated.PromptCount)
	assert.Equal(t, []int{18}, updated.GenresFor(entity.PromptGroupTVShows))
	assert.Equal(t, 5, s.Settings().PromptCount, "live session must see new settings")
	repo.AssertCalled(t, "Upsert", mock.Anything)
}

func TestManager_UpdateSettings_Validation(t *testing.T) {
	badGroup := entity.PromptGroup("music")
	zero := 0
	badGenres := []int{-1}

	tests := []struct {
		name   string
		update SettingsUpdate
	}{
		{"unknown group", SettingsUpdate{ActiveGroup: &badGroup}},
		{"zero count", SettingsUpdate{PromptCount: &zero}},
		{"negative genre", SettingsUpdate{MovieGenres: &badGenres}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockSettingsRepository)
			m, _ := newTestManager(repo)

			_, err := m.UpdateSettings("p1", tt.update)
			assert.ErrorIs(t, err, apperrors.ErrValidation)
			repo.AssertNotCalled(t, "Upsert", mock.Anything)
		})
	}
}

func TestManager_UpdateGroup_PersistsChoice(t *testing.T) {
	repo := new(MockSettingsRepository)
	repo.On("GetByPlayerID", "p1").Return(entity.NewDefaultPlayerSettings("p1"), nil)
	repo.On("Upsert", mock.MatchedBy(func(s *entity.PlayerSettings) bool {
		return s.ActiveGroup == entity.PromptGroupTVShows
	})).Return(nil)

	m, _ := newTestManager(repo)
	s, err := m.Create("p1")
	require.NoError(t, err)

	require.NoError(t, m.UpdateGroup(s.ID, entity.PromptGroupTVShows))
	assert.Equal(t, entity.PromptGroupTVShows, s.Controller.ActiveGroup())
	repo.AssertExpectations(t)
}

// ============================================================================
// Очистка простаивающих сессий
// ============================================================================

func TestManager_Sweep_ClosesIdleSessions(t *testing.T) {
	repo := new(MockSettingsRepository)
	repo.On("GetByPlayerID", mock.Anything).Return(entity.NewDefaultPlayerSettings("p"), nil)

	m, _ := newTestManager(repo)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	idle, err := m.Create("idle")
	require.NoError(t, err)

	now = now.Add(50 * time.Second)
	active, err := m.Create("active")
	require.NoError(t, err)

	now = now.Add(20 * time.Second)
	assert.Equal(t, 1, m.sweep())

	_, err = m.Get(idle.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	_, err = m.Get(active.ID)
	assert.NoError(t, err)
}

func TestManager_OnCloseHook(t *testing.T) {
	repo := new(MockSettingsRepository)
	repo.On("GetByPlayerID", "p1").Return(entity.NewDefaultPlayerSettings("p1"), nil)

	m, _ := newTestManager(repo)
	var closed []string
	m.OnClose(func(id string) { closed = append(closed, id) })

	s, err := m.Create("p1")
	require.NoError(t, err)
	require.NoError(t, m.Close(s.ID))

	assert.Equal(t, []string{s.ID}, closed)
}

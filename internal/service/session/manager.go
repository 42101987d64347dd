package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/cinequiz/internal/domain/entity"
	"github.com/yourusername/cinequiz/internal/domain/repository"
	apperrors "github.com/yourusername/cinequiz/internal/pkg/errors"
	"github.com/yourusername/cinequiz/internal/service/recent"
)

// maxPromptCount - верхняя граница вопросов за одну загрузку
const maxPromptCount = 50

// Config содержит настройки менеджера сессий
type Config struct {
	IdleTimeout     time.Duration
	JanitorInterval time.Duration
	DefaultCount    int
	RecentCapacity  int
}

// SettingsUpdate - частичное обновление настроек игрока (nil - не менять)
type SettingsUpdate struct {
	ActiveGroup *entity.PromptGroup
	MovieGenres *[]int
	TVGenres    *[]int
	PromptCount *int
}

// Manager владеет игровыми сессиями и их загрузчиками вопросов
type Manager struct {
	config     Config
	settings   repository.SettingsRepository
	recentRepo repository.RecentItemsRepository
	factory    ControllerFactory
	now        func() time.Time

	sessions sync.Map // map[string]*Session

	hooksMu sync.RWMutex
	onClose []func(sessionID string)
}

// NewManager создает менеджер сессий. recentRepo может быть nil.
func NewManager(cfg Config, settings repository.SettingsRepository, recentRepo repository.RecentItemsRepository, factory ControllerFactory) *Manager {
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = 30 * time.Minute
	}
	if cfg.JanitorInterval <= 0 {
		cfg.JanitorInterval = time.Minute
	}
	if cfg.DefaultCount <= 0 {
		cfg.DefaultCount = entity.DefaultPromptCount
	}
	return &Manager{
		config:     cfg,
		settings:   settings,
		recentRepo: recentRepo,
		factory:    factory,
		now:        time.Now,
	}
}

// Create открывает новую сессию игрока
func (m *Manager) Create(playerID string) (*Session, error) {
	if playerID == "" {
		return nil, fmt.Errorf("%w: player id is required", apperrors.ErrValidation)
	}

	settings := m.loadOrCreateSettings(playerID)

	memory := recent.NewMemory(playerID, m.config.RecentCapacity, m.recentRepo)
	if err := memory.Restore(recent.SetMovies, recent.SetTVShows, recent.SetPeople); err != nil {
		log.Printf("[SessionManager] Память недавних элементов игрока %s восстановлена частично: %v", playerID, err)
	}

	controller, err := m.factory(memory)
	if err != nil {
		return nil, fmt.Errorf("create prompt controller: %w", err)
	}
	if settings.ActiveGroup.IsValid() {
		if err := controller.UpdatePromptGroup(settings.ActiveGroup); err != nil {
			log.Printf("[SessionManager] Не удалось выбрать группу %s: %v", settings.ActiveGroup, err)
		}
	}

	now := m.now()
	s := &Session{
		ID:         uuid.NewString(),
		PlayerID:   playerID,
		Controller: controller,
		Recent:     memory,
		CreatedAt:  now,
		settings:   *settings,
	}
	s.Touch(now)
	m.sessions.Store(s.ID, s)

	log.Printf("[SessionManager] Сессия %s создана для игрока %s (group=%s)", s.ID, playerID, controller.ActiveGroup())
	return s, nil
}

// loadOrCreateSettings читает настройки игрока; отсутствующие создаются со значениями по умолчанию.
// Ошибки хранилища не мешают игре: используются умолчания.
func (m *Manager) loadOrCreateSettings(playerID string) *entity.PlayerSettings {
	settings, err := m.settings.GetByPlayerID(playerID)
	if err == nil {
		return settings
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		log.Printf("[SessionManager] Ошибка чтения настроек игрока %s: %v. Используются умолчания.", playerID, err)
		return m.defaultSettings(playerID)
	}

	settings = m.defaultSettings(playerID)
	if err := m.settings.Create(settings); err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			// Параллельная сессия того же игрока успела создать настройки
			if existing, getErr := m.settings.GetByPlayerID(playerID); getErr == nil {
				return existing
			}
		}
		log.Printf("[SessionManager] Не удалось сохранить настройки игрока %s: %v", playerID, err)
	}
	return settings
}

func (m *Manager) defaultSettings(playerID string) *entity.PlayerSettings {
	settings := entity.NewDefaultPlayerSettings(playerID)
	settings.PromptCount = m.config.DefaultCount
	return settings
}

// Get возвращает сессию и отмечает активность
func (m *Manager) Get(id string) (*Session, error) {
	value, ok := m.sessions.Load(id)
	if !ok {
		return nil, fmt.Errorf("%w: session %s", apperrors.ErrNotFound, id)
	}
	s := value.(*Session)
	s.Touch(m.now())
	return s, nil
}

// Close закрывает сессию и отменяет её загрузки
func (m *Manager) Close(id string) error {
	value, ok := m.sessions.LoadAndDelete(id)
	if !ok {
		return fmt.Errorf("%w: session %s", apperrors.ErrNotFound, id)
	}
	value.(*Session).Controller.Close()

	m.hooksMu.RLock()
	hooks := m.onClose
	m.hooksMu.RUnlock()
	for _, hook := range hooks {
		hook(id)
	}

	log.Printf("[SessionManager] Сессия %s закрыта", id)
	return nil
}

// OnClose регистрирует функцию, вызываемую после закрытия каждой сессии
func (m *Manager) OnClose(hook func(sessionID string)) {
	m.hooksMu.Lock()
	defer m.hooksMu.Unlock()
	m.onClose = append(m.onClose, hook)
}

// CloseAll закрывает все сессии (при остановке сервиса)
func (m *Manager) CloseAll() {
	m.sessions.Range(func(key, _ interface{}) bool {
		_ = m.Close(key.(string))
		return true
	})
}

// Count возвращает количество открытых сессий
func (m *Manager) Count() int {
	n := 0
	m.sessions.Range(func(_, _ interface{}) bool {
		n++
		return true
	})
	return n
}

// StartLoading запускает фоновую загрузку. genres == nil - сохранённый фильтр активной группы,
// count <= 0 - сохранённое количество.
func (m *Manager) StartLoading(id string, genres []int, count int) (<-chan error, error) {
	s, err := m.Get(id)
	if err != nil {
		return nil, err
	}
	if count > maxPromptCount {
		return nil, fmt.Errorf("%w: count must be at most %d", apperrors.ErrValidation, maxPromptCount)
	}

	settings := s.Settings()
	if genres == nil {
		genres = settings.GenresFor(s.Controller.ActiveGroup())
	}
	if count <= 0 {
		count = settings.PromptCount
	}
	if count <= 0 {
		count = m.config.DefaultCount
	}

	log.Printf("[SessionManager] Сессия %s: загрузка %d вопросов (group=%s, genres=%v)", id, count, s.Controller.ActiveGroup(), genres)
	return s.Controller.StartLoading(genres, count), nil
}

// UpdateGroup переключает активную группу сессии и запоминает выбор игрока
func (m *Manager) UpdateGroup(id string, group entity.PromptGroup) error {
	s, err := m.Get(id)
	if err != nil {
		return err
	}
	if err := s.Controller.UpdatePromptGroup(group); err != nil {
		return err
	}

	if _, err := m.UpdateSettings(s.PlayerID, SettingsUpdate{ActiveGroup: &group}); err != nil {
		log.Printf("[SessionManager] Не удалось сохранить группу %s для игрока %s: %v", group, s.PlayerID, err)
	}
	return nil
}

// GetSettings возвращает настройки игрока (умолчания, если он ещё не играл)
func (m *Manager) GetSettings(playerID string) (*entity.PlayerSettings, error) {
	if playerID == "" {
		return nil, fmt.Errorf("%w: player id is required", apperrors.ErrValidation)
	}
	settings, err := m.settings.GetByPlayerID(playerID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return m.defaultSettings(playerID), nil
	}
	return settings, err
}

// UpdateSettings применяет частичное обновление, сохраняет его и раздаёт открытым сессиям игрока
func (m *Manager) UpdateSettings(playerID string, update SettingsUpdate) (*entity.PlayerSettings, error) {
	if err := validateUpdate(update); err != nil {
		return nil, err
	}

	settings, err := m.GetSettings(playerID)
	if err != nil {
		return nil, err
	}

	if update.ActiveGroup != nil {
		settings.ActiveGroup = *update.ActiveGroup
	}
	if update.MovieGenres != nil {
		settings.SetGenresFor(entity.PromptGroupMovies, *update.MovieGenres)
	}
	if update.TVGenres != nil {
		settings.SetGenresFor(entity.PromptGroupTVShows, *update.TVGenres)
	}
	if update.PromptCount != nil {
		settings.PromptCount = *update.PromptCount
	}
	settings.UpdatedAt = m.now()

	if err := m.settings.Upsert(settings); err != nil {
		return nil, fmt.Errorf("save settings for player %s: %w", playerID, err)
	}

	m.sessions.Range(func(_, value interface{}) bool {
		s := value.(*Session)
		if s.PlayerID == playerID {
			s.setSettings(*settings)
		}
		return true
	})
	return settings, nil
}

func validateUpdate(update SettingsUpdate) error {
	if update.ActiveGroup != nil && !update.ActiveGroup.IsValid() {
		return fmt.Errorf("%w: unknown prompt group %q", apperrors.ErrValidation, *update.ActiveGroup)
	}
	if update.PromptCount != nil && (*update.PromptCount < 1 || *update.PromptCount > maxPromptCount) {
		return fmt.Errorf("%w: prompt count must be between 1 and %d", apperrors.ErrValidation, maxPromptCount)
	}
	for _, genres := range []*[]int{update.MovieGenres, update.TVGenres} {
		if genres == nil {
			continue
		}
		for _, g := range *genres {
			if g <= 0 {
				return fmt.Errorf("%w: invalid genre id %d", apperrors.ErrValidation, g)
			}
		}
	}
	return nil
}

// RunJanitor периодически закрывает простаивающие сессии, пока ctx не отменён
func (m *Manager) RunJanitor(ctx context.Context) {
	ticker := time.NewTicker(m.config.JanitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if closed := m.sweep(); closed > 0 {
				log.Printf("[SessionManager] Закрыто простаивающих сессий: %d", closed)
			}
		}
	}
}

// sweep закрывает сессии без активности дольше IdleTimeout
func (m *Manager) sweep() int {
	cutoff := m.now().Add(-m.config.IdleTimeout)
	closed := 0
	m.sessions.Range(func(key, value interface{}) bool {
		if value.(*Session).LastSeen().Before(cutoff) {
			if m.Close(key.(string)) == nil {
				closed++
			}
		}
		return true
	})
	return closed
}

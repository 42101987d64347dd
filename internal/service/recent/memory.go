package recent

import (
	"fmt"
	"log"
	"sort"
	"sync"

	"github.com/yourusername/cinequiz/internal/domain/repository"
)

// Имена наборов недавно показанных элементов
const (
	SetMovies  = "movies"
	SetTVShows = "tv_shows"
	SetPeople  = "people"
)

// Memory - именованные наборы недавно показанных элементов одного игрока.
// Сценарии вопросов избегают элементов из этих наборов.
type Memory struct {
	namespace string
	capacity  int
	repo      repository.RecentItemsRepository

	mu   sync.Mutex
	sets map[string]*RecentSet
}

// NewMemory создаёт память с общим префиксом ключей (обычно id игрока).
// repo может быть nil.
func NewMemory(namespace string, capacity int, repo repository.RecentItemsRepository) *Memory {
	return &Memory{
		namespace: namespace,
		capacity:  capacity,
		repo:      repo,
		sets:      make(map[string]*RecentSet),
	}
}

// Named возвращает набор по имени, создавая его при первом обращении
func (m *Memory) Named(name string) *RecentSet {
	m.mu.Lock()
	defer m.mu.Unlock()

	if set, ok := m.sets[name]; ok {
		return set
	}
	set := NewRecentSet(m.storageKey(name), m.capacity, m.repo)
	m.sets[name] = set
	return set
}

// Movies, TVShows и People - наборы, которыми пользуются сценарии
func (m *Memory) Movies() *RecentSet  { return m.Named(SetMovies) }
func (m *Memory) TVShows() *RecentSet { return m.Named(SetTVShows) }
func (m *Memory) People() *RecentSet  { return m.Named(SetPeople) }

// Reset очищает все наборы. Вызывается загрузчиком, когда он не смог получить ни одного вопроса.
func (m *Memory) Reset() {
	m.mu.Lock()
	sets := make([]*RecentSet, 0, len(m.sets))
	for _, set := range m.sets {
		sets = append(sets, set)
	}
	m.mu.Unlock()

	for _, set := range sets {
		set.Clear()
	}
	log.Printf("[RecentItems] Память %q сброшена (%d наборов)", m.namespace, len(sets))
}

// Restore загружает наборы из хранилища. Ошибки не фатальны: набор остаётся пустым.
func (m *Memory) Restore(names ...string) error {
	var firstErr error
	for _, name := range names {
		if err := m.Named(name).Restore(); err != nil {
			log.Printf("[RecentItems] Не удалось восстановить набор %s: %v", name, err)
			if firstErr == nil {
				firstErr = fmt.Errorf("restore recent set %s: %w", name, err)
			}
		}
	}
	return firstErr
}

// Sizes возвращает размеры наборов по именам
func (m *Memory) Sizes() map[string]int {
	m.mu.Lock()
	names := make([]string, 0, len(m.sets))
	for name := range m.sets {
		names = append(names, name)
	}
	m.mu.Unlock()

	sort.Strings(names)
	out := make(map[string]int, len(names))
	for _, name := range names {
		out[name] = m.Named(name).Len()
	}
	return out
}

func (m *Memory) storageKey(name string) string {
	if m.namespace == "" {
		return name
	}
	return m.namespace + ":" + name
}

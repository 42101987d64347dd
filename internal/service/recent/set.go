package recent

import (
	"log"
	"sync"

	"github.com/yourusername/cinequiz/internal/domain/repository"
)

// DefaultCapacity - сколько последних элементов помнит один набор
const DefaultCapacity = 50

// RecentSet - ограниченное множество с порядком вставки.
// При переполнении вытесняется самый старый элемент.
type RecentSet struct {
	mu       sync.Mutex
	name     string
	capacity int
	order    []int64
	index    map[int64]struct{}

	// repo может быть nil - тогда набор живёт только в памяти
	repo repository.RecentItemsRepository
}

// NewRecentSet создаёт пустой набор
func NewRecentSet(name string, capacity int, repo repository.RecentItemsRepository) *RecentSet {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &RecentSet{
		name:     name,
		capacity: capacity,
		order:    make([]int64, 0, capacity),
		index:    make(map[int64]struct{}, capacity),
		repo:     repo,
	}
}

// Name возвращает имя набора (оно же ключ хранилища)
func (s *RecentSet) Name() string {
	return s.name
}

// Contains проверяет, показывался ли элемент недавно
func (s *RecentSet) Contains(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.index[id]
	return ok
}

// Insert добавляет элемент, вытесняя самый старый при переполнении.
// Повторная вставка не меняет порядок.
func (s *RecentSet) Insert(id int64) {
	s.mu.Lock()
	if _, ok := s.index[id]; ok {
		s.mu.Unlock()
		return
	}
	s.insertLocked(id)
	s.mu.Unlock()

	if s.repo != nil {
		if err := s.repo.Append(s.name, id, s.capacity); err != nil {
			log.Printf("[RecentItems] Ошибка сохранения элемента %d в набор %s: %v", id, s.name, err)
		}
	}
}

func (s *RecentSet) insertLocked(id int64) {
	if len(s.order) >= s.capacity {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.index, oldest)
	}
	s.order = append(s.order, id)
	s.index[id] = struct{}{}
}

// Clear забывает все элементы набора
func (s *RecentSet) Clear() {
	s.mu.Lock()
	s.order = make([]int64, 0, s.capacity)
	s.index = make(map[int64]struct{}, s.capacity)
	s.mu.Unlock()

	if s.repo != nil {
		if err := s.repo.Clear(s.name); err != nil {
			log.Printf("[RecentItems] Ошибка очистки набора %s: %v", s.name, err)
		}
	}
}

// Snapshot возвращает копию элементов от старых к новым
func (s *RecentSet) Snapshot() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]int64, len(s.order))
	copy(out, s.order)
	return out
}

// Len возвращает количество запомненных элементов
func (s *RecentSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order)
}

// Restore заменяет содержимое набора сохранённым в хранилище
func (s *RecentSet) Restore() error {
	if s.repo == nil {
		return nil
	}
	ids, err := s.repo.Load(s.name)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.order = make([]int64, 0, s.capacity)
	s.index = make(map[int64]struct{}, s.capacity)
	for _, id := range ids {
		if _, ok := s.index[id]; ok {
			continue
		}
		s.insertLocked(id)
	}
	return nil
}

package promptmanager

import (
	"sync"

	"github.com/yourusername/cinequiz/internal/domain/entity"
)

// DefaultCacheCapacity - сколько готовых вопросов держится про запас на группу
const DefaultCacheCapacity = 7

// PromptCache - ограниченная потокобезопасная FIFO-очередь готовых вопросов.
// Вопросы выдаются строго в порядке добавления.
type PromptCache struct {
	mu       sync.Mutex
	items    []*entity.Prompt
	capacity int

	// space получает сигнал каждый раз, когда в кеше освобождается место
	space chan struct{}
}

// NewPromptCache создаёт кеш заданной ёмкости
func NewPromptCache(capacity int) *PromptCache {
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}
	return &PromptCache{
		items:    make([]*entity.Prompt, 0, capacity),
		capacity: capacity,
		space:    make(chan struct{}, 1),
	}
}

// Add кладёт вопрос в конец очереди. Возвращает false, если кеш полон.
func (c *PromptCache) Add(p *entity.Prompt) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.items) >= c.capacity {
		return false
	}
	c.items = append(c.items, p)
	return true
}

// RemoveFirst извлекает вопрос из головы очереди
func (c *PromptCache) RemoveFirst() (*entity.Prompt, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.items) == 0 {
		return nil, false
	}
	p := c.items[0]
	c.items[0] = nil
	c.items = c.items[1:]
	c.signalSpace()
	return p, true
}

// IsEmpty возвращает true, если готовых вопросов нет
func (c *PromptCache) IsEmpty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items) == 0
}

// Len возвращает количество готовых вопросов
func (c *PromptCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Free возвращает количество свободных мест
func (c *PromptCache) Free() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.capacity - len(c.items)
}

// Capacity возвращает ёмкость кеша
func (c *PromptCache) Capacity() int {
	return c.capacity
}

// Clear очищает кеш
func (c *PromptCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make([]*entity.Prompt, 0, c.capacity)
	c.signalSpace()
}

// SpaceAvailable возвращает канал, в который приходит сигнал после освобождения места.
// Сигналы не накапливаются: после получения нужно заново проверить Free().
func (c *PromptCache) SpaceAvailable() <-chan struct{} {
	return c.space
}

// signalSpace вызывается под c.mu
func (c *PromptCache) signalSpace() {
	select {
	case c.space <- struct{}{}:
	default:
	}
}

package promptmanager

import (
	"sync"

	"github.com/yourusername/cinequiz/internal/domain/entity"
)

// StateHolder хранит текущее PromptState и рассылает изменения подписчикам.
// Подписчик всегда получает последнее состояние: промежуточные значения
// могут схлопываться, если он не успевает читать.
type StateHolder struct {
	mu     sync.RWMutex
	state  entity.PromptState
	subs   map[int]chan entity.PromptState
	nextID int
}

// NewStateHolder создаёт хранилище в состоянии NONE
func NewStateHolder() *StateHolder {
	return &StateHolder{
		state: entity.NoneState(),
		subs:  make(map[int]chan entity.PromptState),
	}
}

// Get возвращает текущее состояние
func (h *StateHolder) Get() entity.PromptState {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.state
}

// Set устанавливает новое состояние и уведомляет подписчиков
func (h *StateHolder) Set(state entity.PromptState) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.state = state
	for _, ch := range h.subs {
		publishLatest(ch, state)
	}
}

// Subscribe возвращает канал состояний (сразу содержит текущее) и функцию отписки
func (h *StateHolder) Subscribe() (<-chan entity.PromptState, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextID
	h.nextID++
	ch := make(chan entity.PromptState, 1)
	ch <- h.state
	h.subs[id] = ch

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subs, id)
			close(ch)
		})
	}
	return ch, unsubscribe
}

// publishLatest кладёт состояние в буфер размера 1, вытесняя непрочитанное
func publishLatest(ch chan entity.PromptState, state entity.PromptState) {
	for {
		select {
		case ch <- state:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

package websocket

import (
	"log"
	"sync"
)

// Hub хранит активные соединения, сгруппированные по игровым сессиям
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]map[*Client]struct{}
}

// NewHub создает пустой хаб
func NewHub() *Hub {
	return &Hub{sessions: make(map[string]map[*Client]struct{})}
}

// Register добавляет клиента
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.sessions[c.SessionID]
	if !ok {
		clients = make(map[*Client]struct{})
		h.sessions[c.SessionID] = clients
	}
	clients[c] = struct{}{}
	activeConnections.Inc()
	log.Printf("[WSHub] Клиент %s подключен к сессии %s", c.ConnectionID, c.SessionID)
}

// Unregister удаляет клиента и закрывает его канал отправки
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	clients, ok := h.sessions[c.SessionID]
	if ok {
		if _, present := clients[c]; present {
			delete(clients, c)
			activeConnections.Dec()
			if len(clients) == 0 {
				delete(h.sessions, c.SessionID)
			}
		} else {
			ok = false
		}
	}
	h.mu.Unlock()

	if ok {
		c.CloseSend()
		log.Printf("[WSHub] Клиент %s отключен от сессии %s", c.ConnectionID, c.SessionID)
	}
}

// SendJSONToSession отправляет событие всем соединениям сессии. Возвращает число адресатов.
func (h *Hub) SendJSONToSession(sessionID string, v interface{}) int {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.sessions[sessionID]))
	for c := range h.sessions[sessionID] {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	sent := 0
	for _, c := range clients {
		if err := c.SendJSON(v); err == nil {
			sent++
		}
	}
	return sent
}

// CloseSession отключает все соединения сессии (сессия закрыта)
func (h *Hub) CloseSession(sessionID string) {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.sessions[sessionID]))
	for c := range h.sessions[sessionID] {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		h.Unregister(c)
	}
}

// ClientCount возвращает количество подключенных клиентов
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, clients := range h.sessions {
		n += len(clients)
	}
	return n
}

// SessionClientCount возвращает количество соединений одной сессии
func (h *Hub) SessionClientCount(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[sessionID])
}

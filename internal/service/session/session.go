package session

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/yourusername/cinequiz/internal/domain/entity"
	"github.com/yourusername/cinequiz/internal/service/promptmanager"
	"github.com/yourusername/cinequiz/internal/service/recent"
)

// Session - игровая сессия одного игрока: свой загрузчик вопросов и своя память недавних элементов
type Session struct {
	ID         string
	PlayerID   string
	Controller *promptmanager.PromptLoadController
	Recent     *recent.Memory
	CreatedAt  time.Time

	lastSeen atomic.Int64 // unix nano

	mu       sync.RWMutex
	settings entity.PlayerSettings
}

// Touch отмечает активность клиента
func (s *Session) Touch(now time.Time) {
	s.lastSeen.Store(now.UnixNano())
}

// LastSeen возвращает время последней активности
func (s *Session) LastSeen() time.Time {
	return time.Unix(0, s.lastSeen.Load())
}

// Settings возвращает копию настроек, с которыми работает сессия
func (s *Session) Settings() entity.PlayerSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

func (s *Session) setSettings(settings entity.PlayerSettings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = settings
}

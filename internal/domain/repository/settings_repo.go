package repository

import (
	"github.com/yourusername/cinequiz/internal/domain/entity"
)

// SettingsRepository определяет методы для работы с настройками игроков
type SettingsRepository interface {
	GetByPlayerID(playerID string) (*entity.PlayerSettings, error)
	Create(settings *entity.PlayerSettings) error
	Update(settings *entity.PlayerSettings) error
	// Upsert создаёт настройки или обновляет существующие по PlayerID
	Upsert(settings *entity.PlayerSettings) error
}

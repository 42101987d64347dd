package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yourusername/cinequiz/internal/domain/entity"
	apperrors "github.com/yourusername/cinequiz/internal/pkg/errors"
)

// SettingsRepo реализует repository.SettingsRepository
type SettingsRepo struct {
	db *gorm.DB
}

// NewSettingsRepo создает новый репозиторий настроек игроков
func NewSettingsRepo(db *gorm.DB) *SettingsRepo {
	return &SettingsRepo{db: db}
}

// GetByPlayerID возвращает настройки игрока
func (r *SettingsRepo) GetByPlayerID(playerID string) (*entity.PlayerSettings, error) {
	var settings entity.PlayerSettings
	err := r.db.Where("player_id = ?", playerID).First(&settings).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &settings, nil
}

// Create создает настройки игрока; повторное создание - ErrConflict
func (r *SettingsRepo) Create(settings *entity.PlayerSettings) error {
	if err := r.db.Create(settings).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: settings for player %s already exist", apperrors.ErrConflict, settings.PlayerID)
		}
		return fmt.Errorf("create settings for player %s: %w", settings.PlayerID, err)
	}
	return nil
}

// Update сохраняет изменения настроек
func (r *SettingsRepo) Update(settings *entity.PlayerSettings) error {
	result := r.db.Model(&entity.PlayerSettings{}).
		Where("player_id = ?", settings.PlayerID).
		Updates(map[string]interface{}{
			"active_group": settings.ActiveGroup,
			"movie_genres": settings.MovieGenres,
			"tv_genres":    settings.TVGenres,
			"prompt_count": settings.PromptCount,
		})
	if result.Error != nil {
		return fmt.Errorf("update settings for player %s: %w", settings.PlayerID, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// Upsert создаёт настройки или обновляет существующие одним запросом (ON CONFLICT (player_id))
func (r *SettingsRepo) Upsert(settings *entity.PlayerSettings) error {
	err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "player_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"active_group", "movie_genres", "tv_genres", "prompt_count", "updated_at"}),
	}).Create(settings).Error
	if err != nil {
		return fmt.Errorf("upsert settings for player %s: %w", settings.PlayerID, err)
	}
	return nil
}

// isUniqueViolation проверяет Postgres unique violation (23505) для pgconn и lib/pq драйверов
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return true
	}
	return false
}

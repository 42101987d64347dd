package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

// RecentRepo реализует repository.RecentItemsRepository поверх списков Redis.
// Новые элементы добавляются в хвост, список обрезается до ёмкости с головы.
type RecentRepo struct {
	client redis.UniversalClient
	prefix string
	// ttl - сколько живёт набор без обновлений (0 - бессрочно)
	ttl time.Duration
}

// NewRecentRepo создает репозиторий недавно показанных элементов
func NewRecentRepo(client redis.UniversalClient, prefix string, ttl time.Duration) (*RecentRepo, error) {
	if client == nil {
		return nil, fmt.Errorf("Redis client cannot be nil for RecentRepo")
	}
	return &RecentRepo{client: client, prefix: prefix, ttl: ttl}, nil
}

func (r *RecentRepo) key(setName string) string {
	return r.prefix + "recent:" + setName
}

// Load возвращает элементы набора от старых к новым
func (r *RecentRepo) Load(setName string) ([]int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	raw, err := r.client.LRange(ctx, r.key(setName), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("load recent set %s: %w", setName, err)
	}

	ids := make([]int64, 0, len(raw))
	for _, v := range raw {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			// Битые значения пропускаем, набор - лишь подсказка для сценариев
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Append добавляет элемент и обрезает список до capacity последних
func (r *RecentRepo) Append(setName string, id int64, capacity int) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	key := r.key(setName)
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, key, id)
		if capacity > 0 {
			pipe.LTrim(ctx, key, int64(-capacity), -1)
		}
		if r.ttl > 0 {
			pipe.Expire(ctx, key, r.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("append to recent set %s: %w", setName, err)
	}
	return nil
}

// Clear удаляет набор
func (r *RecentRepo) Clear(setName string) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	return r.client.Del(ctx, r.key(setName)).Err()
}

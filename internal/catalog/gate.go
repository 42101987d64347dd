package catalog

import (
	"errors"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/yourusername/cinequiz/internal/domain/repository"
	apperrors "github.com/yourusername/cinequiz/internal/pkg/errors"
)

// DefaultBackoff - пауза после 429, если сервер не прислал Retry-After
const DefaultBackoff = 120 * time.Second

// gateDeadlineKey - ключ общего для всех инстансов дедлайна в Redis
const gateDeadlineKey = "catalog:gate:deadline"

// RequestGate хранит единственный дедлайн "не ходить в каталог до T".
// Его проверяет каждый запрос к каталогу до отправки.
type RequestGate struct {
	mu         sync.RWMutex
	deadline   time.Time
	fixedDelay time.Duration
	now        func() time.Time

	// store может быть nil - тогда дедлайн живёт только в памяти процесса
	store repository.CacheRepository
}

// NewRequestGate создаёт открытый гейт
func NewRequestGate(fixedDelay time.Duration, store repository.CacheRepository) *RequestGate {
	if fixedDelay <= 0 {
		fixedDelay = DefaultBackoff
	}
	return &RequestGate{
		fixedDelay: fixedDelay,
		now:        time.Now,
		store:      store,
	}
}

// Allowed возвращает true, если текущее время строго позже дедлайна
func (g *RequestGate) Allowed() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.now().After(g.deadline)
}

// Deadline возвращает текущий дедлайн (нулевое время - гейт ни разу не закрывался)
func (g *RequestGate) Deadline() time.Time {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.deadline
}

// OnRateLimited закрывает гейт до retryAfter, а если его нет - на fixedDelay от текущего момента
func (g *RequestGate) OnRateLimited(retryAfter *time.Time) {
	g.mu.Lock()
	now := g.now()
	if retryAfter != nil {
		g.deadline = *retryAfter
	} else {
		g.deadline = now.Add(g.fixedDelay)
	}
	deadline := g.deadline
	g.mu.Unlock()

	recordGateClosed()
	log.Printf("[RequestGate] Catalog rate limited, requests blocked until %s", deadline.Format(time.RFC3339))

	g.persist(deadline, now)
}

// OnError разбирает ошибку запроса: 429 (или код 25 в теле ответа) закрывает гейт,
// остальные ошибки игнорируются
func (g *RequestGate) OnError(err error) {
	if err == nil {
		return
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		if httpErr.IsRateLimited() {
			g.OnRateLimited(httpErr.RetryAfter)
		}
		return
	}

	if errors.Is(err, apperrors.ErrRateLimited) {
		g.OnRateLimited(nil)
	}
}

// Restore подхватывает дедлайн, сохранённый другим инстансом. Ошибки хранилища не фатальны.
func (g *RequestGate) Restore() {
	if g.store == nil {
		return
	}

	raw, err := g.store.Get(gateDeadlineKey)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			log.Printf("[RequestGate] Не удалось прочитать дедлайн из кеша: %v", err)
		}
		return
	}

	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		// Битое значение удаляем, иначе его будет читать каждый инстанс при старте
		log.Printf("[RequestGate] Некорректный дедлайн в кеше %q: %v", raw, err)
		if err := g.store.Delete(gateDeadlineKey); err != nil {
			log.Printf("[RequestGate] Не удалось удалить некорректный дедлайн: %v", err)
		}
		return
	}

	stored := time.UnixMilli(ms)
	g.mu.Lock()
	defer g.mu.Unlock()
	if stored.After(g.deadline) {
		g.deadline = stored
		log.Printf("[RequestGate] Restored deadline %s from cache", stored.Format(time.RFC3339))
	}
}

// persist сохраняет дедлайн с TTL до его истечения
func (g *RequestGate) persist(deadline, now time.Time) {
	if g.store == nil {
		return
	}
	ttl := deadline.Sub(now)
	if ttl <= 0 {
		return
	}
	if err := g.store.Set(gateDeadlineKey, strconv.FormatInt(deadline.UnixMilli(), 10), ttl); err != nil {
		log.Printf("[RequestGate] Не удалось сохранить дедлайн в кеш: %v", err)
	}
}

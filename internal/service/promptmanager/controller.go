package promptmanager

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand/v2"
	"runtime/debug"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/yourusername/cinequiz/internal/domain/entity"
	apperrors "github.com/yourusername/cinequiz/internal/pkg/errors"
)

// groupPipeline - селектор сценариев и кеш одной группы вопросов
type groupPipeline struct {
	group    entity.PromptGroup
	selector *AdaptiveSelector[UseCase]
	cache    *PromptCache
}

// slotOutcome - результат одного слота раунда. useCase == nil означает,
// что селектор ничего не выдал (пустой пул или пропуск).
type slotOutcome struct {
	useCase UseCase
	prompt  *entity.Prompt
	err     error
}

// UseCaseStat - счёт неудач сценария для статистики
type UseCaseStat struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// PromptLoadController управляет загрузкой вопросов: решает, сколько слотов
// запускать в раунде, ведёт бюджет попыток, наполняет кеш и двигает PromptState.
type PromptLoadController struct {
	config *Config
	deps   *Dependencies
	groups map[entity.PromptGroup]*groupPipeline
	state  *StateHolder

	// mu защищает active, remaining, generation и согласованные переходы состояния
	mu        sync.Mutex
	active    entity.PromptGroup
	remaining int
	// generation увеличивается при каждой новой загрузке, сбросе и отмене;
	// раунд старой загрузки не может зафиксировать свои результаты
	generation uint64
	// changed закрывается и пересоздаётся при каждом увеличении generation
	changed chan struct{}

	// Управляемая загрузка (StartLoading / CancelPrompts)
	loadMu     sync.Mutex
	loadCancel context.CancelFunc

	baseCtx    context.Context
	baseCancel context.CancelFunc
}

// NewPromptLoadController создаёт контроллер с независимыми селекторами и кешами для каждой группы
func NewPromptLoadController(deps *Dependencies) (*PromptLoadController, error) {
	if deps == nil {
		return nil, fmt.Errorf("%w: dependencies are required", apperrors.ErrValidation)
	}
	cfg := deps.Config
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.CacheCapacity <= 0 {
		cfg.CacheCapacity = DefaultCacheCapacity
	}
	if cfg.MaxParallel <= 0 {
		cfg.MaxParallel = DefaultMaxParallel
	}
	if cfg.AttemptFactor <= 0 {
		cfg.AttemptFactor = DefaultAttemptFactor
	}

	var seed *rand.Rand
	if cfg.Seed != 0 {
		seed = rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))
	}

	groups := make(map[entity.PromptGroup]*groupPipeline)
	for _, group := range entity.AllPromptGroups() {
		useCases := deps.UseCases[group]
		sampler := NewFairSampler[UseCase](childRand(seed), useCases...)
		groups[group] = &groupPipeline{
			group:    group,
			selector: NewAdaptiveSelector(sampler, childRand(seed)),
			cache:    NewPromptCache(cfg.CacheCapacity),
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &PromptLoadController{
		config:     cfg,
		deps:       deps,
		groups:     groups,
		state:      NewStateHolder(),
		active:     entity.PromptGroupMovies,
		changed:    make(chan struct{}),
		baseCtx:    ctx,
		baseCancel: cancel,
	}, nil
}

// childRand выдаёт детерминированный генератор, если задано зерно, иначе nil
func childRand(parent *rand.Rand) *rand.Rand {
	if parent == nil {
		return nil
	}
	return rand.New(rand.NewPCG(parent.Uint64(), parent.Uint64()))
}

// LoadPrompts загружает count вопросов для активной группы.
// Блокируется до завершения; отмена ctx бросает текущий раунд без частичных записей.
func (c *PromptLoadController) LoadPrompts(ctx context.Context, includeGenres []int, count int) error {
	c.mu.Lock()
	gen := c.bumpGenerationLocked()
	pipe := c.groups[c.active]
	if count <= 0 {
		c.remaining = 0
		c.mu.Unlock()
		return nil
	}
	c.remaining = count
	c.mu.Unlock()

	budget := c.config.AttemptFactor * count
	attempts, produced := 0, 0

	log.Printf("[PromptLoader] Group %s: loading %d prompts (budget=%d, genres=%v)", pipe.group, count, budget, includeGenres)

	for {
		c.mu.Lock()
		if gen != c.generation {
			c.mu.Unlock()
			log.Printf("[PromptLoader] Group %s: load superseded after %d attempts", pipe.group, attempts)
			return nil
		}
		remaining := c.remaining
		displayed := c.state.Get()
		c.mu.Unlock()

		if remaining <= 0 || attempts >= budget {
			break
		}

		// Пока на экране пусто - по одному слоту, чтобы быстрее показать хоть что-то
		slots := 1
		if displayed.Kind != entity.PromptStateNone {
			slots = min(c.config.MaxParallel, remaining)
		}

		free, err := c.waitForSpace(ctx, gen, pipe)
		switch {
		case errors.Is(err, errSuperseded):
			log.Printf("[PromptLoader] Group %s: load superseded while waiting for cache space", pipe.group)
			return nil
		case errors.Is(err, errNoConsumer):
			c.finishLoad(gen)
			log.Printf("[PromptLoader] Group %s: cache is full and state is %s, load stopped with %d prompts", pipe.group, displayed.Kind, produced)
			return nil
		case err != nil:
			c.finishLoad(gen)
			log.Printf("[PromptLoader] Group %s: load cancelled while waiting for cache space: %v", pipe.group, err)
			return err
		}
		slots = min(slots, free)

		outcomes := c.runRound(ctx, pipe, includeGenres, slots)

		if err := ctx.Err(); err != nil {
			c.finishLoad(gen)
			log.Printf("[PromptLoader] Group %s: round abandoned: %v", pipe.group, err)
			return err
		}

		added, ok := c.commitRound(gen, pipe, outcomes)
		if !ok {
			log.Printf("[PromptLoader] Group %s: load superseded, round of %d slots discarded", pipe.group, slots)
			return nil
		}
		attempts += slots
		produced += added
	}

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		return nil
	}
	c.remaining = 0
	exhausted := produced == 0
	c.mu.Unlock()

	if !exhausted {
		log.Printf("[PromptLoader] Group %s: load finished, produced=%d attempts=%d", pipe.group, produced, attempts)
		return nil
	}

	// Ни одного вопроса за весь бюджет: чистим память недавних элементов,
	// чтобы повторная попытка не упиралась в "всё уже показывали"
	if c.deps.Recent != nil {
		c.deps.Recent.Reset()
	}

	c.mu.Lock()
	if gen == c.generation {
		c.state.Set(entity.ErrorState())
	}
	c.mu.Unlock()

	recordLoadError(pipe.group.String())
	log.Printf("[PromptLoader] Group %s: gave up after %d attempts with zero prompts", pipe.group, attempts)
	return nil
}

// runRound выбирает сценарии последовательно (для воспроизводимости) и вызывает их параллельно
func (c *PromptLoadController) runRound(ctx context.Context, pipe *groupPipeline, includeGenres []int, slots int) []slotOutcome {
	outcomes := make([]slotOutcome, slots)
	for i := range outcomes {
		if uc, ok := pipe.selector.Pick(); ok {
			outcomes[i].useCase = uc
		}
	}

	var g errgroup.Group
	for i := range outcomes {
		if outcomes[i].useCase == nil {
			continue
		}
		g.Go(func() error {
			prompt, err := invokeSafely(ctx, outcomes[i].useCase, includeGenres)
			outcomes[i].prompt = prompt
			outcomes[i].err = err
			return nil // ошибки сценариев не фатальны для раунда
		})
	}
	_ = g.Wait()

	return outcomes
}

// commitRound применяет результаты раунда: счета, кеш, remaining и переход NONE → READY.
// Возвращает false, если загрузку уже заменили или сбросили.
func (c *PromptLoadController) commitRound(gen uint64, pipe *groupPipeline, outcomes []slotOutcome) (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation {
		return 0, false
	}

	group := pipe.group.String()
	added := 0
	for _, o := range outcomes {
		switch {
		case o.useCase == nil:
			recordAttempt(group, "", outcomeSkipped)
		case o.err != nil || o.prompt == nil:
			pipe.selector.Failed(o.useCase)
			recordAttempt(group, o.useCase.Name(), outcomeFailure)
			if o.err != nil {
				log.Printf("[PromptLoader] Use case %s failed: %v", o.useCase.Name(), o.err)
			}
		default:
			pipe.selector.Succeeded(o.useCase)
			recordAttempt(group, o.useCase.Name(), outcomeSuccess)
			if o.prompt.Group == "" {
				o.prompt.Group = pipe.group
			}
			if !pipe.cache.Add(o.prompt) {
				log.Printf("[PromptLoader] WARNING: cache for group %s is full, prompt from %s dropped", pipe.group, o.useCase.Name())
				continue
			}
			added++
		}
	}

	c.remaining = max(0, c.remaining-added)

	// После FINISHED новая загрузка снова показывает вопрос; ERROR держится до сброса
	if kind := c.state.Get().Kind; added > 0 && (kind == entity.PromptStateNone || kind == entity.PromptStateFinished) {
		if p, ok := pipe.cache.RemoveFirst(); ok {
			c.state.Set(entity.ReadyState(p))
		}
	}

	recordRound(group, len(outcomes))
	return added, true
}

// NextPrompt выдаёт следующий вопрос из кеша активной группы.
// ERROR остаётся до явного ResetPrompts.
func (c *PromptLoadController) NextPrompt() entity.PromptState {
	c.mu.Lock()
	defer c.mu.Unlock()

	current := c.state.Get()
	if current.Kind == entity.PromptStateError {
		return current
	}

	pipe := c.groups[c.active]
	switch p, ok := pipe.cache.RemoveFirst(); {
	case ok:
		c.state.Set(entity.ReadyState(p))
	case c.remaining > 0:
		c.state.Set(entity.NoneState())
	default:
		c.state.Set(entity.FinishedState())
	}
	return c.state.Get()
}

// ResetPrompts возвращает состояние в NONE, обнуляет remaining и очищает кеш группы.
// resetFailureCounts дополнительно обнуляет счета неудач селектора группы.
func (c *PromptLoadController) ResetPrompts(group entity.PromptGroup, resetFailureCounts bool) error {
	pipe, ok := c.groups[group]
	if !ok {
		return fmt.Errorf("%w: unknown prompt group %q", apperrors.ErrValidation, group)
	}

	c.mu.Lock()
	c.bumpGenerationLocked()
	c.remaining = 0
	c.state.Set(entity.NoneState())
	pipe.cache.Clear()
	if resetFailureCounts {
		pipe.selector.Reset()
	}
	c.mu.Unlock()

	c.cancelManagedLoad()

	log.Printf("[PromptLoader] Group %s: prompts reset (failure counts reset: %t)", group, resetFailureCounts)
	return nil
}

// UpdatePromptGroup переключает активную группу. Загрузка для прежней группы останавливается.
func (c *PromptLoadController) UpdatePromptGroup(group entity.PromptGroup) error {
	if _, ok := c.groups[group]; !ok {
		return fmt.Errorf("%w: unknown prompt group %q", apperrors.ErrValidation, group)
	}

	c.mu.Lock()
	if c.active == group {
		c.mu.Unlock()
		return nil
	}
	previous := c.active
	c.active = group
	c.bumpGenerationLocked()
	c.remaining = 0
	c.mu.Unlock()

	c.cancelManagedLoad()
	log.Printf("[PromptLoader] Active group switched %s -> %s", previous, group)
	return nil
}

// StartLoading запускает LoadPrompts в фоне, предварительно отменив прежнюю загрузку.
// Возвращаемый канал получает результат LoadPrompts.
func (c *PromptLoadController) StartLoading(includeGenres []int, count int) <-chan error {
	c.loadMu.Lock()
	if c.loadCancel != nil {
		c.loadCancel()
	}
	ctx, cancel := context.WithCancel(c.baseCtx)
	c.loadCancel = cancel
	c.loadMu.Unlock()

	done := make(chan error, 1)
	go func() {
		defer cancel()
		done <- c.LoadPrompts(ctx, includeGenres, count)
		close(done)
	}()
	return done
}

// CancelPrompts отменяет фоновую загрузку. Уже готовые вопросы остаются в кеше,
// remaining обнуляется, чтобы клиент мог дочитать кеш до FINISHED.
func (c *PromptLoadController) CancelPrompts() {
	c.mu.Lock()
	c.bumpGenerationLocked()
	c.remaining = 0
	c.mu.Unlock()

	c.cancelManagedLoad()
	log.Printf("[PromptLoader] Loading cancelled")
}

func (c *PromptLoadController) cancelManagedLoad() {
	c.loadMu.Lock()
	defer c.loadMu.Unlock()
	if c.loadCancel != nil {
		c.loadCancel()
		c.loadCancel = nil
	}
}

// Close отменяет все загрузки контроллера
func (c *PromptLoadController) Close() {
	c.CancelPrompts()
	c.baseCancel()
}

// State возвращает текущее состояние
func (c *PromptLoadController) State() entity.PromptState {
	return c.state.Get()
}

// Subscribe подписывает на изменения состояния
func (c *PromptLoadController) Subscribe() (<-chan entity.PromptState, func()) {
	return c.state.Subscribe()
}

// ActiveGroup возвращает активную группу
func (c *PromptLoadController) ActiveGroup() entity.PromptGroup {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// Remaining возвращает, сколько вопросов ещё ожидается от текущей загрузки
func (c *PromptLoadController) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

// CachedCount возвращает количество готовых вопросов в кеше группы
func (c *PromptLoadController) CachedCount(group entity.PromptGroup) int {
	pipe, ok := c.groups[group]
	if !ok {
		return 0
	}
	return pipe.cache.Len()
}

// SelectorStats возвращает счета неудач всех сценариев группы, отсортированные по имени
func (c *PromptLoadController) SelectorStats(group entity.PromptGroup) ([]UseCaseStat, error) {
	pipe, ok := c.groups[group]
	if !ok {
		return nil, fmt.Errorf("%w: unknown prompt group %q", apperrors.ErrValidation, group)
	}

	scores := pipe.selector.Scores()
	stats := make([]UseCaseStat, 0, len(c.deps.UseCases[group]))
	for _, uc := range c.deps.UseCases[group] {
		stats = append(stats, UseCaseStat{Name: uc.Name(), Score: scores[uc]})
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Name < stats[j].Name })
	return stats, nil
}

var (
	// errSuperseded - загрузку сменила другая загрузка, сброс или отмена
	errSuperseded = errors.New("load superseded")
	// errNoConsumer - кеш полон, а на экране FINISHED или ERROR: разбирать кеш некому
	errNoConsumer = errors.New("cache is full and nobody consumes it")
)

// bumpGenerationLocked вытесняет текущую загрузку и будит её ожидание. Вызывается под c.mu.
func (c *PromptLoadController) bumpGenerationLocked() uint64 {
	c.generation++
	close(c.changed)
	c.changed = make(chan struct{})
	return c.generation
}

// finishLoad обнуляет remaining, если загрузка gen всё ещё текущая
func (c *PromptLoadController) finishLoad(gen uint64) {
	c.mu.Lock()
	if gen == c.generation {
		c.remaining = 0
	}
	c.mu.Unlock()
}

// waitForSpace ждёт свободного места в кеше группы (обратное давление на загрузчик).
// Место проверяется под c.mu вместе с generation, поэтому вытесненная загрузка
// не начнёт новый раунд.
func (c *PromptLoadController) waitForSpace(ctx context.Context, gen uint64, pipe *groupPipeline) (int, error) {
	for {
		c.mu.Lock()
		if gen != c.generation {
			c.mu.Unlock()
			return 0, errSuperseded
		}
		changed := c.changed
		free := pipe.cache.Free()
		kind := c.state.Get().Kind
		c.mu.Unlock()

		if free > 0 {
			return free, nil
		}
		if kind == entity.PromptStateFinished || kind == entity.PromptStateError {
			return 0, errNoConsumer
		}

		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-changed:
		case <-pipe.cache.SpaceAvailable():
		}
	}
}

// invokeSafely вызывает сценарий, превращая панику в ошибку
func invokeSafely(ctx context.Context, uc UseCase, includeGenres []int) (prompt *entity.Prompt, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[PromptLoader] PANIC recovered in use case %s: %v\nStack trace:\n%s", uc.Name(), r, string(debug.Stack()))
			prompt = nil
			err = fmt.Errorf("panic recovered: %v", r)
		}
	}()
	return uc.Invoke(ctx, includeGenres)
}

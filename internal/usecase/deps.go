package usecase

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/yourusername/cinequiz/internal/catalog"
	"github.com/yourusername/cinequiz/internal/service/recent"
)

// optionsCount - сколько вариантов ответа в каждом вопросе
const optionsCount = 4

// errNotEnoughData - каталог вернул слишком мало данных для вопроса.
// Для загрузчика это обычная неудача сценария.
var errNotEnoughData = errors.New("not enough catalog data to build a prompt")

// Catalog - часть клиента каталога, которой пользуются сценарии
type Catalog interface {
	DiscoverMovies(ctx context.Context, params catalog.DiscoverParams) (*catalog.Page[catalog.Movie], error)
	DiscoverTV(ctx context.Context, params catalog.DiscoverParams) (*catalog.Page[catalog.TVShow], error)
	MovieCredits(ctx context.Context, movieID int64) (*catalog.Credits, error)
	ImageURL(path string) string
}

// Deps содержит зависимости сценариев
type Deps struct {
	Catalog Catalog
	Recent  *recent.Memory
	// MaxPage - верхняя граница случайной страницы discover
	MaxPage int
	// Rand может быть nil - тогда генератор со случайным зерном
	Rand *rand.Rand
	Now  func() time.Time
}

func (d *Deps) validate() error {
	if d == nil || d.Catalog == nil {
		return fmt.Errorf("use case dependencies: catalog is required")
	}
	if d.Recent == nil {
		return fmt.Errorf("use case dependencies: recent memory is required")
	}
	return nil
}

// lockedRand - генератор, безопасный для параллельных слотов одного раунда
type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

func newLockedRand(r *rand.Rand) *lockedRand {
	if r == nil {
		r = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &lockedRand{r: r}
}

func (l *lockedRand) IntN(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.IntN(n)
}

func (l *lockedRand) Shuffle(n int, swap func(i, j int)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.r.Shuffle(n, swap)
}

// base - общее для всех сценариев
type base struct {
	name    string
	catalog Catalog
	recent  *recent.Memory
	maxPage int
	rng     *lockedRand
	now     func() time.Time
}

func newBase(name string, deps *Deps, rng *lockedRand) base {
	maxPage := deps.MaxPage
	if maxPage < 1 {
		maxPage = 1
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return base{
		name:    name,
		catalog: deps.Catalog,
		recent:  deps.Recent,
		maxPage: maxPage,
		rng:     rng,
		now:     now,
	}
}

// Name возвращает имя сценария (метки метрик, логи, статистика)
func (b *base) Name() string {
	return b.name
}

func (b *base) randomPage() int {
	return 1 + b.rng.IntN(b.maxPage)
}

func (b *base) discoverParams(includeGenres []int) catalog.DiscoverParams {
	return catalog.DiscoverParams{
		Page:         b.randomPage(),
		Genres:       includeGenres,
		MinVoteCount: 50,
	}
}

// shuffleOptions перемешивает варианты и возвращает индекс правильного
func (b *base) shuffleOptions(correct string, distractors []string) ([]string, int) {
	options := make([]string, 0, 1+len(distractors))
	options = append(options, correct)
	options = append(options, distractors...)
	b.rng.Shuffle(len(options), func(i, j int) {
		options[i], options[j] = options[j], options[i]
	})
	for i, o := range options {
		if o == correct {
			return options, i
		}
	}
	return options, 0
}

// pickDistinct выбирает до n различных значений, отличных от exclude
func (b *base) pickDistinct(values []string, exclude string, n int) []string {
	pool := make([]string, 0, len(values))
	seen := map[string]struct{}{exclude: {}}
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		pool = append(pool, v)
	}
	b.rng.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})
	if len(pool) > n {
		pool = pool[:n]
	}
	return pool
}

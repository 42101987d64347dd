package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/yourusername/cinequiz/internal/domain/entity"
	apperrors "github.com/yourusername/cinequiz/internal/pkg/errors"
)

// maxBodySize ограничивает чтение ответа каталога
const maxBodySize = 4 << 20

// Config содержит настройки клиента каталога
type Config struct {
	BaseURL      string
	ImageBaseURL string
	APIKey       string
	BearerToken  string
	Language     string
	Timeout      time.Duration

	// RequestsPerSecond и Burst задают собственный темп клиента
	RequestsPerSecond float64
	Burst             int
}

// Client - клиент TMDB v3. Каждый запрос сначала проверяет RequestGate,
// затем ждёт свою очередь в rate.Limiter.
type Client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
	gate    *RequestGate
	now     func() time.Time
}

// NewClient создаёт клиент каталога
func NewClient(cfg Config, gate *RequestGate) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("%w: catalog base url is required", apperrors.ErrValidation)
	}
	if cfg.APIKey == "" && cfg.BearerToken == "" {
		return nil, fmt.Errorf("%w: catalog credentials are required", apperrors.ErrValidation)
	}
	if gate == nil {
		return nil, fmt.Errorf("%w: request gate is required", apperrors.ErrValidation)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(limit, burst),
		gate:    gate,
		now:     time.Now,
	}, nil
}

// Gate возвращает гейт клиента
func (c *Client) Gate() *RequestGate {
	return c.gate
}

// DiscoverMovies возвращает страницу фильмов с фильтром по жанрам
func (c *Client) DiscoverMovies(ctx context.Context, params DiscoverParams) (*Page[Movie], error) {
	var page Page[Movie]
	if err := c.get(ctx, "discover_movie", "/discover/movie", discoverQuery(params), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// DiscoverTV возвращает страницу сериалов с фильтром по жанрам
func (c *Client) DiscoverTV(ctx context.Context, params DiscoverParams) (*Page[TVShow], error) {
	var page Page[TVShow]
	if err := c.get(ctx, "discover_tv", "/discover/tv", discoverQuery(params), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// MovieCredits возвращает титры фильма
func (c *Client) MovieCredits(ctx context.Context, movieID int64) (*Credits, error) {
	var credits Credits
	path := "/movie/" + strconv.FormatInt(movieID, 10) + "/credits"
	if err := c.get(ctx, "movie_credits", path, nil, &credits); err != nil {
		return nil, err
	}
	return &credits, nil
}

// Genres возвращает список жанров группы
func (c *Client) Genres(ctx context.Context, group entity.PromptGroup) ([]Genre, error) {
	var path string
	switch group {
	case entity.PromptGroupMovies:
		path = "/genre/movie/list"
	case entity.PromptGroupTVShows:
		path = "/genre/tv/list"
	default:
		return nil, fmt.Errorf("%w: unknown prompt group %q", apperrors.ErrValidation, group)
	}

	var list genreList
	if err := c.get(ctx, "genres", path, nil, &list); err != nil {
		return nil, err
	}
	return list.Genres, nil
}

// ImageURL собирает полный адрес картинки по относительному пути
func (c *Client) ImageURL(path string) string {
	if path == "" || c.cfg.ImageBaseURL == "" {
		return ""
	}
	return strings.TrimRight(c.cfg.ImageBaseURL, "/") + "/" + strings.TrimLeft(path, "/")
}

func discoverQuery(params DiscoverParams) url.Values {
	q := url.Values{}
	page := params.Page
	if page < 1 {
		page = 1
	}
	q.Set("page", strconv.Itoa(page))

	sortBy := params.SortBy
	if sortBy == "" {
		sortBy = "popularity.desc"
	}
	q.Set("sort_by", sortBy)

	if len(params.Genres) > 0 {
		ids := make([]string, 0, len(params.Genres))
		for _, g := range params.Genres {
			ids = append(ids, strconv.Itoa(g))
		}
		q.Set("with_genres", strings.Join(ids, "|"))
	}
	if params.MinVoteCount > 0 {
		q.Set("vote_count.gte", strconv.Itoa(params.MinVoteCount))
	}
	q.Set("include_adult", "false")
	return q
}

// get выполняет GET-запрос к каталогу и декодирует JSON в dest
func (c *Client) get(ctx context.Context, endpoint, path string, query url.Values, dest interface{}) error {
	if !c.gate.Allowed() {
		recordRequest(endpoint, "gate_closed", 0)
		return fmt.Errorf("%s: %w", endpoint, apperrors.ErrGateClosed)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("catalog limiter wait: %w", err)
	}

	if query == nil {
		query = url.Values{}
	}
	if c.cfg.Language != "" {
		query.Set("language", c.cfg.Language)
	}
	if c.cfg.BearerToken == "" {
		query.Set("api_key", c.cfg.APIKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return fmt.Errorf("build catalog request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.cfg.BearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.BearerToken)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		recordRequest(endpoint, "transport_error", time.Since(start).Seconds())
		c.gate.OnError(err)
		return fmt.Errorf("catalog request %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		recordRequest(endpoint, "transport_error", time.Since(start).Seconds())
		return fmt.Errorf("read catalog response %s: %w", endpoint, err)
	}

	if resp.StatusCode != http.StatusOK {
		httpErr := &HTTPError{
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"), c.now()),
		}
		var status apiStatus
		if json.Unmarshal(body, &status) == nil {
			httpErr.APIStatusCode = status.StatusCode
			httpErr.Message = status.StatusMessage
		}
		if httpErr.Message == "" {
			httpErr.Message = http.StatusText(resp.StatusCode)
		}

		recordRequest(endpoint, "http_"+strconv.Itoa(resp.StatusCode), time.Since(start).Seconds())
		if httpErr.IsRateLimited() {
			log.Printf("[CatalogClient] %s rate limited (status=%d, api_status=%d)", endpoint, resp.StatusCode, httpErr.APIStatusCode)
		}
		c.gate.OnError(httpErr)
		return httpErr
	}

	if err := json.Unmarshal(body, dest); err != nil {
		recordRequest(endpoint, "decode_error", time.Since(start).Seconds())
		return fmt.Errorf("decode catalog response %s: %w", endpoint, err)
	}

	recordRequest(endpoint, "ok", time.Since(start).Seconds())
	return nil
}

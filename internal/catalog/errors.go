package catalog

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/yourusername/cinequiz/internal/pkg/errors"
)

// statusRequestLimit - код TMDB "Your request count is over the allowed limit"
const statusRequestLimit = 25

// HTTPError - неуспешный ответ каталога
type HTTPError struct {
	StatusCode int
	// APIStatusCode - status_code из тела ответа TMDB (0, если тела нет)
	APIStatusCode int
	Message       string
	// RetryAfter - момент, до которого сервер просит не обращаться (nil, если не указан)
	RetryAfter *time.Time
}

func (e *HTTPError) Error() string {
	if e.APIStatusCode != 0 {
		return fmt.Sprintf("catalog responded %d (api status %d): %s", e.StatusCode, e.APIStatusCode, e.Message)
	}
	return fmt.Sprintf("catalog responded %d: %s", e.StatusCode, e.Message)
}

// IsRateLimited возвращает true для 429 и для кода 25 в теле ответа
func (e *HTTPError) IsRateLimited() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.APIStatusCode == statusRequestLimit
}

// Unwrap связывает ошибку с общими ошибками приложения
func (e *HTTPError) Unwrap() error {
	switch {
	case e.IsRateLimited():
		return apperrors.ErrRateLimited
	case e.StatusCode == http.StatusNotFound:
		return apperrors.ErrNotFound
	default:
		return nil
	}
}

// parseRetryAfter разбирает Retry-After: число секунд или HTTP-дата
func parseRetryAfter(value string, now time.Time) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds < 0 {
			return nil
		}
		at := now.Add(time.Duration(seconds) * time.Second)
		return &at
	}
	if at, err := http.ParseTime(value); err == nil {
		return &at
	}
	return nil
}

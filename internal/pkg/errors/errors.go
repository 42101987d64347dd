package errors

import "errors"

// Общие ошибки приложения
var (
	// ErrNotFound используется, когда запись или ресурс не найдены.
	ErrNotFound = errors.New("record not found")

	// ErrValidation используется для ошибок валидации входных данных.
	ErrValidation = errors.New("validation failed")

	// ErrConflict используется для конфликтов состояния (например, повторное создание настроек игрока).
	ErrConflict = errors.New("resource state conflict")

	// ErrEmptyPool возвращается при выборке из пустого пула кандидатов.
	// Это не "цикл закончился", а именно отсутствие живых кандидатов.
	ErrEmptyPool = errors.New("candidate pool is empty")

	// ErrGateClosed возвращается, когда запрос к каталогу не выполнялся,
	// потому что upstream ещё не разрешил новые запросы после 429.
	ErrGateClosed = errors.New("catalog requests are throttled")

	// ErrRateLimited используется для ответов 429 от каталога.
	ErrRateLimited = errors.New("too many requests")
)

package websocket

// Команды клиента
const (
	// PROMPT_NEXT просит следующий вопрос
	PROMPT_NEXT = "prompt:next"

	// PROMPT_LOAD запускает загрузку вопросов
	PROMPT_LOAD = "prompt:load"

	// PROMPT_CANCEL отменяет загрузку
	PROMPT_CANCEL = "prompt:cancel"

	// PROMPT_RESET сбрасывает кеш группы
	PROMPT_RESET = "prompt:reset"

	// PROMPT_GROUP переключает активную группу
	PROMPT_GROUP = "prompt:group"
)

// События сервера
const (
	// PROMPT_STATE сообщает новое состояние экрана вопросов
	PROMPT_STATE = "prompt:state"

	// PROMPT_LOADED сообщает, что загрузка завершилась
	PROMPT_LOADED = "prompt:loaded"

	// SERVER_ERROR сообщает об ошибке обработки команды
	SERVER_ERROR = "server:error"
)

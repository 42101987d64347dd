package entity

// PromptStateKind - тег состояния экрана вопросов
type PromptStateKind string

// Константы состояний
const (
	PromptStateNone     PromptStateKind = "none"
	PromptStateReady    PromptStateKind = "ready"
	PromptStateFinished PromptStateKind = "finished"
	PromptStateError    PromptStateKind = "error"
)

// PromptState описывает, что сейчас должен показывать клиент.
// Prompt заполнен только для PromptStateReady.
type PromptState struct {
	Kind   PromptStateKind `json:"kind"`
	Prompt *Prompt         `json:"prompt,omitempty"`
}

// NoneState - вопросов пока нет, но они ещё ожидаются
func NoneState() PromptState {
	return PromptState{Kind: PromptStateNone}
}

// ReadyState - вопрос готов к показу
func ReadyState(p *Prompt) PromptState {
	return PromptState{Kind: PromptStateReady, Prompt: p}
}

// FinishedState - все запрошенные вопросы показаны
func FinishedState() PromptState {
	return PromptState{Kind: PromptStateFinished}
}

// ErrorState - загрузка исчерпала бюджет попыток, не получив ни одного вопроса
func ErrorState() PromptState {
	return PromptState{Kind: PromptStateError}
}

// IsTerminal возвращает true для FINISHED и ERROR
func (s PromptState) IsTerminal() bool {
	return s.Kind == PromptStateFinished || s.Kind == PromptStateError
}

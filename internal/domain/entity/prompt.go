package entity

import (
	"time"
)

// Prompt представляет готовый к показу вопрос викторины, собранный из данных каталога
type Prompt struct {
	ID            string      `json:"id"`
	Group         PromptGroup `json:"group"`
	UseCase       string      `json:"use_case"` // Имя сценария, который построил вопрос
	Text          string      `json:"text"`
	Options       []string    `json:"options"`
	CorrectOption int         `json:"-"` // Скрыто от клиента до ответа
	ImageURL      string      `json:"image_url,omitempty"`
	SubjectID     int64       `json:"subject_id"` // ID фильма/сериала/персоны в каталоге
	CreatedAt     time.Time   `json:"created_at"`
}

// IsCorrect проверяет, является ли выбранный вариант правильным
func (p *Prompt) IsCorrect(selectedOption int) bool {
	return selectedOption == p.CorrectOption
}

// OptionsCount возвращает количество вариантов ответа
func (p *Prompt) OptionsCount() int {
	return len(p.Options)
}

// IsValidOption проверяет, является ли выбранный вариант допустимым
func (p *Prompt) IsValidOption(selectedOption int) bool {
	return selectedOption >= 0 && selectedOption < len(p.Options)
}

// CorrectAnswer возвращает текст правильного варианта
func (p *Prompt) CorrectAnswer() string {
	if !p.IsValidOption(p.CorrectOption) {
		return ""
	}
	return p.Options[p.CorrectOption]
}

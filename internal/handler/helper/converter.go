package helper

// PromptOption представляет вариант ответа для фронтенда
type PromptOption struct {
	ID   int    `json:"id"`
	Text string `json:"text"`
}

// ConvertOptionsToObjects преобразует массив строк в массив объектов с id и text
// ID использует 0-based индексацию для совместимости с CorrectOption
func ConvertOptionsToObjects(options []string) []PromptOption {
	converted := make([]PromptOption, len(options))
	for i, opt := range options {
		if opt == "" {
			opt = "(пустой вариант)"
		}
		converted[i] = PromptOption{ID: i, Text: opt}
	}
	return converted
}

// Int64sToInts переводит жанры из формата хранения в формат API
func Int64sToInts(values []int64) []int {
	if values == nil {
		return []int{}
	}
	out := make([]int, len(values))
	for i, v := range values {
		out[i] = int(v)
	}
	return out
}

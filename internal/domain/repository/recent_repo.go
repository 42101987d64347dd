package repository

// RecentItemsRepository хранит списки недавно показанных элементов каталога,
// чтобы память о них переживала перезапуск сервиса.
// Порядок элементов - от самого старого к самому новому.
type RecentItemsRepository interface {
	Load(setName string) ([]int64, error)
	Append(setName string, id int64, capacity int) error
	Clear(setName string) error
}

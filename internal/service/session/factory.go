package session

import (
	"math/rand/v2"

	"github.com/yourusername/cinequiz/internal/service/promptmanager"
	"github.com/yourusername/cinequiz/internal/service/recent"
	"github.com/yourusername/cinequiz/internal/usecase"
)

// ControllerFactory собирает загрузчик вопросов поверх памяти недавних элементов игрока
type ControllerFactory func(memory *recent.Memory) (*promptmanager.PromptLoadController, error)

// NewControllerFactory возвращает фабрику, которая связывает сценарии каталога с загрузчиком
func NewControllerFactory(catalog usecase.Catalog, promptCfg promptmanager.Config, maxPage int) ControllerFactory {
	return func(memory *recent.Memory) (*promptmanager.PromptLoadController, error) {
		var rng *rand.Rand
		if promptCfg.Seed != 0 {
			rng = rand.New(rand.NewPCG(promptCfg.Seed, promptCfg.Seed+1))
		}

		useCases, err := usecase.All(&usecase.Deps{
			Catalog: catalog,
			Recent:  memory,
			MaxPage: maxPage,
			Rand:    rng,
		})
		if err != nil {
			return nil, err
		}

		cfg := promptCfg
		return promptmanager.NewPromptLoadController(&promptmanager.Dependencies{
			UseCases: useCases,
			Recent:   memory,
			Config:   &cfg,
		})
	}
}

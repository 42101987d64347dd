package promptmanager

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Исходы одного слота раунда загрузки
const (
	outcomeSuccess = "success"
	outcomeFailure = "failure"
	outcomeSkipped = "skipped"
)

var (
	// attemptsTotal считает попытки по сценариям и исходам
	attemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cinequiz",
			Name:      "prompt_attempts_total",
			Help:      "Total number of prompt attempts by use case and outcome",
		},
		[]string{"group", "use_case", "outcome"},
	)

	// roundsTotal считает завершённые раунды загрузки
	roundsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cinequiz",
			Name:      "prompt_rounds_total",
			Help:      "Total number of committed load rounds",
		},
		[]string{"group"},
	)

	// roundSize - распределение числа слотов в раунде
	roundSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "cinequiz",
			Name:      "prompt_round_size",
			Help:      "Distribution of parallel slots per load round",
			Buckets:   []float64{1, 2, 3, 4, 8},
		},
		[]string{"group"},
	)

	// loadErrorsTotal считает загрузки, закончившиеся состоянием ERROR
	loadErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cinequiz",
			Name:      "prompt_load_errors_total",
			Help:      "Total number of loads that exhausted the attempt budget without a prompt",
		},
		[]string{"group"},
	)
)

// recordAttempt записывает исход одного слота
func recordAttempt(group, useCase, outcome string) {
	attemptsTotal.WithLabelValues(group, useCase, outcome).Inc()
}

// recordRound записывает зафиксированный раунд
func recordRound(group string, slots int) {
	roundsTotal.WithLabelValues(group).Inc()
	roundSize.WithLabelValues(group).Observe(float64(slots))
}

// recordLoadError записывает загрузку, закончившуюся ERROR
func recordLoadError(group string) {
	loadErrorsTotal.WithLabelValues(group).Inc()
}

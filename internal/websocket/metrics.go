package websocket

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Направления сообщений
const (
	directionIn  = "in"
	directionOut = "out"
)

var (
	// activeConnections - текущее количество активных подключений
	activeConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "cinequiz",
		Name:      "ws_active_connections",
		Help:      "Number of active WebSocket connections",
	})

	// messagesTotal считает сообщения по направлению и типу
	messagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cinequiz",
			Name:      "ws_messages_total",
			Help:      "Total number of WebSocket messages by direction and type",
		},
		[]string{"direction", "type"},
	)
)

func recordMessage(direction, messageType string) {
	messagesTotal.WithLabelValues(direction, messageType).Inc()
}

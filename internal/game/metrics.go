package game

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics — показатели симуляции. Все методы безопасны для nil:
// в тестах менеджер работает без метрик.
type Metrics struct {
	ticks        prometheus.Counter
	tickDuration prometheus.Histogram
	entities     prometheus.Gauge
	players      prometheus.Gauge
	rooms        prometheus.Gauge
}

func NewMetrics() *Metrics {
	m := &Metrics{
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "game_ticks_total",
			Help: "Количество прошедших тиков симуляции",
		}),
		tickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "game_tick_duration_seconds",
			Help:    "Длительность одного тика симуляции",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 12),
		}),
		entities: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "game_entities",
			Help: "Живые сущности в мире",
		}),
		players: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "game_players",
			Help: "Подключённые игроки",
		}),
		rooms: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "game_rooms",
			Help: "Комнаты, включая лобби",
		}),
	}
	prometheus.MustRegister(m.ticks, m.tickDuration, m.entities, m.players, m.rooms)
	return m
}

func (m *Metrics) observeTick(d time.Duration) {
	if m == nil {
		return
	}
	m.ticks.Inc()
	m.tickDuration.Observe(d.Seconds())
}

func (m *Metrics) setPopulation(entities, players, rooms int) {
	if m == nil {
		return
	}
	m.entities.Set(float64(entities))
	m.players.Set(float64(players))
	m.rooms.Set(float64(rooms))
}

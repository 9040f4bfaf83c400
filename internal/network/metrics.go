package network

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics — счётчики сетевой подсистемы для Prometheus.
//
// * net_packets_received_total{transport} — counter
// * net_packets_sent_total{transport} — counter
// * net_send_errors_total{transport} — counter
// * net_frames_dropped_total{reason} — counter (bad_magic, size, unbound)
// * net_active_sessions — gauge
type Metrics struct {
	PacketsReceived *prometheus.CounterVec
	PacketsSent     *prometheus.CounterVec
	SendErrors      *prometheus.CounterVec
	FramesDropped   *prometheus.CounterVec
	ActiveSessions  prometheus.Gauge
}

// NewMetrics создаёт метрики и регистрирует их в дефолтном регистре
func NewMetrics() *Metrics {
	m := &Metrics{
		PacketsReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "net",
			Name:      "packets_received_total",
			Help:      "Число принятых пакетов.",
		}, []string{"transport"}),
		PacketsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "net",
			Name:      "packets_sent_total",
			Help:      "Число отправленных пакетов.",
		}, []string{"transport"}),
		SendErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "net",
			Name:      "send_errors_total",
			Help:      "Число ошибок отправки.",
		}, []string{"transport"}),
		FramesDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "net",
			Name:      "frames_dropped_total",
			Help:      "Число отброшенных кадров по причинам.",
		}, []string{"reason"}),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "net",
			Name:      "active_sessions",
			Help:      "Текущее число подключённых сессий.",
		}),
	}

	prometheus.MustRegister(
		m.PacketsReceived, m.PacketsSent, m.SendErrors,
		m.FramesDropped, m.ActiveSessions,
	)
	return m
}

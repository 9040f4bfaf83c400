package eventbus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// MetricsExporter мостит Stats шины в prometheus: раз в секунду
// снимает счётчики и досыпает дельту. Сами метрики отдаёт REST
// эндпоинт /metrics вместе с остальными метриками сервера.
type MetricsExporter struct {
	bus  EventBus
	quit chan struct{}
	done chan struct{}

	published prometheus.Counter
	consumed  prometheus.Counter
	dropped   prometheus.Counter
	inflight  prometheus.Gauge
}

// NewMetricsExporter регистрирует метрики и запускает цикл обновления.
func NewMetricsExporter(bus EventBus) *MetricsExporter {
	me := &MetricsExporter{
		bus:  bus,
		quit: make(chan struct{}),
		done: make(chan struct{}),
		published: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "airtrap",
			Subsystem: "eventbus",
			Name:      "events_published_total",
			Help:      "Опубликованные игровые события.",
		}),
		consumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "airtrap",
			Subsystem: "eventbus",
			Name:      "events_consumed_total",
			Help:      "События, доставленные подписчикам.",
		}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "airtrap",
			Subsystem: "eventbus",
			Name:      "events_dropped_total",
			Help:      "События, отброшенные при переполнении буфера.",
		}),
		inflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "airtrap",
			Subsystem: "eventbus",
			Name:      "events_inflight",
			Help:      "События в очереди, ещё не доставленные.",
		}),
	}

	prometheus.MustRegister(me.published, me.consumed, me.dropped, me.inflight)
	go me.loop()
	return me
}

// Stop останавливает цикл обновления и дожидается его завершения.
func (m *MetricsExporter) Stop() {
	close(m.quit)
	<-m.done
}

func (m *MetricsExporter) loop() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	defer close(m.done)

	// Counter растёт только вперёд, поэтому прибавляем дельты от
	// прошлого снимка Stats.
	var prev Stats

	for {
		select {
		case <-ticker.C:
			stats := m.bus.Metrics()

			if d := stats.Published - prev.Published; d > 0 {
				m.published.Add(float64(d))
			}
			if d := stats.Consumed - prev.Consumed; d > 0 {
				m.consumed.Add(float64(d))
			}
			if d := stats.Dropped - prev.Dropped; d > 0 {
				m.dropped.Add(float64(d))
			}
			m.inflight.Set(float64(stats.InFlight))

			prev = stats
		case <-m.quit:
			return
		}
	}
}

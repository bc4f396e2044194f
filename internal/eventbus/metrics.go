package eventbus

import (
	"github.com/prometheus/client_golang/prometheus"
)

// RegisterMetrics публикует счётчики шины в Prometheus.
// Значения читаются из bus.Metrics() в момент сбора, фоновый цикл не нужен.
func RegisterMetrics(reg prometheus.Registerer, bus EventBus) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	counter := func(name, help string, pick func(Stats) uint64) prometheus.Collector {
		return prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: "roadmap",
			Subsystem: "eventbus",
			Name:      name,
			Help:      help,
		}, func() float64 { return float64(pick(bus.Metrics())) })
	}

	collectors := []prometheus.Collector{
		counter("messages_published_total", "Общее число опубликованных сообщений.",
			func(s Stats) uint64 { return s.Published }),
		counter("messages_consumed_total", "Общее число доставленных сообщений подписчикам.",
			func(s Stats) uint64 { return s.Consumed }),
		counter("messages_dropped_total", "Сообщений, отброшенных из-за ограничения back-pressure.",
			func(s Stats) uint64 { return s.Dropped }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "roadmap",
			Subsystem: "eventbus",
			Name:      "messages_inflight",
			Help:      "Количество сообщений в очереди (не доставленных).",
		}, func() float64 { return float64(bus.Metrics().InFlight) }),
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Исходы скана для метки outcome
const (
	OutcomeCompleted  = "completed"
	OutcomeLimit      = "limit_reached"
	OutcomeNotStarted = "not_started"
	OutcomeError      = "error"
)

// ScanMetrics инкапсулирует Prometheus-метрики сканера и хранилища карты.
// Nil-экземпляр безопасен: все методы ничего не делают.
type ScanMetrics struct {
	scans          *prometheus.CounterVec
	iterations     prometheus.Counter
	blocksRecorded prometheus.Counter
	cutoffMarkers  prometheus.Counter
	duration       prometheus.Histogram
	flushes        *prometheus.CounterVec
	chunks         prometheus.Gauge
	blocks         prometheus.Gauge
	markers        prometheus.Gauge
}

// NewScanMetrics создаёт метрики и регистрирует их в reg.
// Если reg == nil, используется глобальный регистр Prometheus.
func NewScanMetrics(reg prometheus.Registerer) *ScanMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &ScanMetrics{
		scans: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "roadmap",
			Name:      "scans_total",
			Help:      "Общее число сканов по исходу.",
		}, []string{"outcome"}),
		iterations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "roadmap",
			Name:      "scan_iterations_total",
			Help:      "Обработанные позиции очереди во всех сканах.",
		}),
		blocksRecorded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "roadmap",
			Name:      "blocks_recorded_total",
			Help:      "Записи поверхности, добавленные или обновлённые сканами.",
		}),
		cutoffMarkers: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "roadmap",
			Name:      "cutoff_markers_total",
			Help:      "Маркеры обрыва, созданные на границе радиуса скана.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "roadmap",
			Name:      "scan_duration_seconds",
			Help:      "Длительность одного скана.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10},
		}),
		flushes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "roadmap",
			Name:      "flushes_total",
			Help:      "Синхронизации карты с хранилищем по режиму и результату.",
		}, []string{"mode", "result"}),
		chunks: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "roadmap",
			Name:      "chunks",
			Help:      "Количество чанков в памяти.",
		}),
		blocks: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "roadmap",
			Name:      "blocks",
			Help:      "Количество записей поверхности в памяти.",
		}),
		markers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "roadmap",
			Name:      "markers",
			Help:      "Количество маркеров.",
		}),
	}

	reg.MustRegister(m.scans, m.iterations, m.blocksRecorded, m.cutoffMarkers,
		m.duration, m.flushes, m.chunks, m.blocks, m.markers)
	return m
}

// ObserveScan фиксирует итог одного скана
func (m *ScanMetrics) ObserveScan(outcome string, iterations, recorded, cutoffs int, d time.Duration) {
	if m == nil {
		return
	}
	m.scans.WithLabelValues(outcome).Inc()
	m.iterations.Add(float64(iterations))
	m.blocksRecorded.Add(float64(recorded))
	m.cutoffMarkers.Add(float64(cutoffs))
	m.duration.Observe(d.Seconds())
}

// ObserveFlush фиксирует синхронизацию с хранилищем
func (m *ScanMetrics) ObserveFlush(force bool, err error) {
	if m == nil {
		return
	}
	mode := "incremental"
	if force {
		mode = "force"
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.flushes.WithLabelValues(mode, result).Inc()
}

// SetRoadmapSize обновляет размеры карты
func (m *ScanMetrics) SetRoadmapSize(chunks, blocks, markers int) {
	if m == nil {
		return
	}
	m.chunks.Set(float64(chunks))
	m.blocks.Set(float64(blocks))
	m.markers.Set(float64(markers))
}

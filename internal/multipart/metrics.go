package multipart

import "github.com/prometheus/client_golang/prometheus"

// Metrics считает операции с частями в Prometheus. Nil-значение допустимо.
type Metrics struct {
	placements  *prometheus.CounterVec
	rejections  *prometheus.CounterVec
	removals    prometheus.Counter
	conversions prometheus.Counter
	reentrant   *prometheus.CounterVec
}

// NewMetrics создаёт метрики и регистрирует их в reg (nil – глобальный регистр)
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		placements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "multipart",
			Name:      "placements_total",
			Help:      "Принятые размещения частей по режиму (commit/simulate).",
		}, []string{"mode"}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "multipart",
			Name:      "rejections_total",
			Help:      "Отклонённые размещения по причине.",
		}, []string{"reason"}),
		removals: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "multipart",
			Name:      "removals_total",
			Help:      "Удалённые из контейнеров части.",
		}),
		conversions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "multipart",
			Name:      "conversions_total",
			Help:      "Обычные клетки, превращённые в контейнеры.",
		}),
		reentrant: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "multipart",
			Name:      "reentrant_queries_total",
			Help:      "Повторные входы в запрос к той же клетке.",
		}, []string{"kind"}),
	}
	reg.MustRegister(m.placements, m.rejections, m.removals, m.conversions, m.reentrant)
	return m
}

func (m *Metrics) placed(simulate bool) {
	if m == nil {
		return
	}
	mode := "commit"
	if simulate {
		mode = "simulate"
	}
	m.placements.WithLabelValues(mode).Inc()
}

func (m *Metrics) rejected(err error) {
	if m == nil {
		return
	}
	m.rejections.WithLabelValues(reasonOf(err)).Inc()
}

func (m *Metrics) removal() {
	if m != nil {
		m.removals.Inc()
	}
}

func (m *Metrics) conversion() {
	if m != nil {
		m.conversions.Inc()
	}
}

func (m *Metrics) refused(kind string, n int) {
	if m != nil && n > 0 {
		m.reentrant.WithLabelValues(kind).Add(float64(n))
	}
}

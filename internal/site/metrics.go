package site

import (
	"github.com/prometheus/client_golang/prometheus"

	"Zaiqa/internal/page"
)

// CartMetrics counts cart activity. A nil *CartMetrics records nothing.
type CartMetrics struct {
	Mutations       *prometheus.CounterVec
	Checkouts       *prometheus.CounterVec
	StorageDegraded prometheus.Counter
	Reservations    prometheus.Counter
}

func NewCartMetrics(reg prometheus.Registerer) *CartMetrics {
	m := &CartMetrics{
		Mutations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "zaiqa_cart_mutations_total",
				Help: "Cart mutations by operation",
			},
			[]string{"op"},
		),
		Checkouts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "zaiqa_checkouts_total",
				Help: "Checkout attempts by outcome",
			},
			[]string{"outcome"},
		),
		StorageDegraded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "zaiqa_cart_storage_degraded_total",
			Help: "Pages whose cart fell back to memory-only",
		}),
		Reservations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "zaiqa_reservations_total",
			Help: "Reservation hand-offs built",
		}),
	}

	reg.MustRegister(m.Mutations, m.Checkouts, m.StorageDegraded, m.Reservations)
	return m
}

func RegisterPageGauge(reg prometheus.Registerer, pages *page.Registry) {
	reg.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "zaiqa_live_pages",
			Help: "Pages currently held in memory",
		},
		func() float64 { return float64(pages.Len()) },
	))
}

func (m *CartMetrics) mutation(op string) {
	if m != nil {
		m.Mutations.WithLabelValues(op).Inc()
	}
}

func (m *CartMetrics) checkout(outcome string) {
	if m != nil {
		m.Checkouts.WithLabelValues(outcome).Inc()
	}
}

func (m *CartMetrics) reservation() {
	if m != nil {
		m.Reservations.Inc()
	}
}

func (m *CartMetrics) Degraded(error) {
	if m != nil {
		m.StorageDegraded.Inc()
	}
}

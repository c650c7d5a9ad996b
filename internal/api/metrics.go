package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instruments for the deposit endpoint.
type Metrics struct {
	notifications *prometheus.CounterVec
	duration      prometheus.Histogram
}

// NewMetrics registers the deposit endpoint instruments on the given
// registerer. Tests pass a fresh registry so registrations never collide.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		notifications: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ezpg_deposit_notifications_total",
			Help: "Deposit notifications processed, labelled by result code.",
		}, []string{"result_code"}),
		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "ezpg_deposit_request_duration_seconds",
			Help:    "Wall-clock duration of deposit notification requests.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) observe(resultCode string, seconds float64) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(resultCode).Inc()
	m.duration.Observe(seconds)
}

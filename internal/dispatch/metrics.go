package dispatch

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts fan-out activity for the /metrics endpoint.
type Metrics struct {
	Dispatches prometheus.Counter
	Delivered  prometheus.Counter
	Failed     prometheus.Counter
}

// NewMetrics registers the dispatcher counters on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		Dispatches: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "signalbot_dispatches_total",
			Help: "Number of alert fan-out operations performed.",
		}),
		Delivered: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "signalbot_deliveries_total",
			Help: "Number of per-recipient deliveries that succeeded.",
		}),
		Failed: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "signalbot_delivery_failures_total",
			Help: "Number of per-recipient deliveries that failed.",
		}),
	}
}

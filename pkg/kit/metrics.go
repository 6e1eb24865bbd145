package kit

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	labelService = "service"
	labelOp      = "op"
	labelResult  = "result"

	ResultOK   = "ok"
	ResultMiss = "miss"
)

// Metrics counts and times catalog operations. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	Ops     *prometheus.CounterVec
	Latency *prometheus.HistogramVec
	Live    prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Ops: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_ops_total",
				Help: "Total catalog operations",
			},
			[]string{labelService, labelOp, labelResult},
		),
		Latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "catalog_op_duration_seconds",
				Help:    "Catalog operation latency",
				Buckets: prometheus.ExponentialBuckets(1e-6, 4, 10),
			},
			[]string{labelService, labelOp},
		),
		Live: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "catalog_live_products",
				Help: "Products that still have a strong owner",
			},
		),
	}

	reg.MustRegister(m.Ops, m.Latency, m.Live)
	return m
}

// Track starts timing op and returns the function that finishes it with
// the given result.
func (m *Metrics) Track(service, op string) func(result string) {
	if m == nil {
		return func(string) {}
	}

	start := time.Now()
	return func(result string) {
		m.Latency.WithLabelValues(service, op).
			Observe(time.Since(start).Seconds())

		m.Ops.WithLabelValues(service, op, result).
			Inc()
	}
}

func (m *Metrics) ProductCreated() {
	if m != nil {
		m.Live.Inc()
	}
}

func (m *Metrics) ProductDropped() {
	if m != nil {
		m.Live.Dec()
	}
}

// Package metrics registers the prometheus instruments exposed on
// /metrics.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the application's prometheus instruments.
type Metrics struct {
	// Hold acquire outcomes (result: acquired, conflict, released, busy).
	HoldAttempts *prometheus.CounterVec

	// Reservation flow outcomes (outcome: confirmed, cancelled,
	// payment_failed, expired, lost_race, error).
	ReservationsTotal *prometheus.CounterVec

	// Holds transitioned to EXPIRED by the sweeper or the commit path.
	ExpiredHoldsSwept prometheus.Counter

	// HTTP request totals and latency.
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// New registers the instruments on the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry registers the instruments on the given registry;
// tests pass their own registry to avoid duplicate registration.
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HoldAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "seat_hold_attempts_total",
				Help: "Seat hold operations by result",
			},
			[]string{"result"},
		),
		ReservationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reservations_total",
				Help: "Reservation flow outcomes",
			},
			[]string{"outcome"},
		),
		ExpiredHoldsSwept: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "expired_holds_swept_total",
				Help: "Holds transitioned to EXPIRED",
			},
		),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),
	}
	reg.MustRegister(
		m.HoldAttempts,
		m.ReservationsTotal,
		m.ExpiredHoldsSwept,
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
	)
	return m
}

package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	registry *prometheus.Registry

	DrawsTotal         *prometheus.CounterVec
	DrawDuration       *prometheus.HistogramVec
	SessionResetsTotal prometheus.Counter
	DeckSize           prometheus.Gauge
}

// NewMetrics creates and registers all metrics on a fresh registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,

		DrawsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tarot_draws_total",
				Help: "Total number of draw requests by spread and outcome",
			},
			[]string{"spread", "status"},
		),
		DrawDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tarot_draw_duration_seconds",
				Help:    "Duration of draw requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"spread"},
		),
		SessionResetsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "tarot_session_resets_total",
				Help: "Total number of session seen-set resets",
			},
		),
		DeckSize: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "tarot_deck_size",
				Help: "Number of cards in the loaded deck",
			},
		),
	}

	registry.MustRegister(
		m.DrawsTotal,
		m.DrawDuration,
		m.SessionResetsTotal,
		m.DeckSize,
	)

	return m
}

// Handler returns an HTTP handler for the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// Registry returns the Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Package metrics exposes pricing run metrics on a private Prometheus registry.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/light-bringer/dynprice-service/internal/app/pricing/domain"
	"github.com/light-bringer/dynprice-service/internal/app/pricing/usecases/evaluate_catalog"
)

// Collector implements evaluate_catalog.Recorder.
type Collector struct {
	registry        *prometheus.Registry
	runs            *prometheus.CounterVec
	runDuration     *prometheus.HistogramVec
	products        *prometheus.CounterVec
	productDuration prometheus.Histogram
	lastSuccess     *prometheus.GaugeVec
}

// NewCollector registers the pricing metrics on a fresh registry.
func NewCollector() *Collector {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Collector{
		registry: registry,
		runs: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pricing_runs_total",
			Help: "Catalog evaluation runs by final status",
		}, []string{"catalog_id", "status"}),
		runDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pricing_run_duration_seconds",
			Help:    "Wall time of catalog evaluation runs",
			Buckets: []float64{1, 5, 15, 30, 60, 300, 900, 1800},
		}, []string{"catalog_id"}),
		products: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pricing_products_evaluated_total",
			Help: "Products evaluated by outcome",
		}, []string{"catalog_id", "outcome"}),
		productDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "pricing_product_duration_seconds",
			Help:    "Time to fetch, evaluate and persist one product",
			Buckets: prometheus.DefBuckets,
		}),
		lastSuccess: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "pricing_last_completed_run_timestamp_seconds",
			Help: "Unix time of the last completed run",
		}, []string{"catalog_id"}),
	}
}

// ProductEvaluated records one product's outcome.
func (c *Collector) ProductEvaluated(catalogID string, outcome domain.Outcome, d time.Duration) {
	c.products.WithLabelValues(catalogID, string(outcome)).Inc()
	c.productDuration.Observe(d.Seconds())
}

// RunFinished records a run's final status.
func (c *Collector) RunFinished(catalogID, status string, d time.Duration) {
	c.runs.WithLabelValues(catalogID, status).Inc()
	if status == evaluate_catalog.RunCompleted {
		c.runDuration.WithLabelValues(catalogID).Observe(d.Seconds())
		c.lastSuccess.WithLabelValues(catalogID).SetToCurrentTime()
	}
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

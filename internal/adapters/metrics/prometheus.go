// Package metrics provides Prometheus metrics collection.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector implements the MetricsCollector port using Prometheus. It
// registers on its own registry so that several collectors can coexist
// and the metrics can be written to a textfile for the node exporter.
type Collector struct {
	registry          *prometheus.Registry
	transformPoints   *prometheus.CounterVec
	transformDuration *prometheus.HistogramVec
	cacheLookups      *prometheus.CounterVec
	catalogSize       prometheus.Gauge
	fileOperations    *prometheus.CounterVec
	fileDuration      *prometheus.HistogramVec
}

// NewCollector creates a new Prometheus metrics collector.
func NewCollector(namespace string) *Collector {
	if namespace == "" {
		namespace = "gauss"
	}

	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Collector{
		registry: registry,

		transformPoints: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "transformed_points_total",
				Help:      "Total number of transformed points",
			},
			[]string{"pair", "status"},
		),

		transformDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "transform_duration_seconds",
				Help:      "Bulk transform duration in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
			},
			[]string{"pair"},
		),

		cacheLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "transform_cache_lookups_total",
				Help:      "Total number of transform cache lookups",
			},
			[]string{"result"},
		),

		catalogSize: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "catalog_systems",
				Help:      "Number of coordinate reference systems in the catalog",
			},
		),

		fileOperations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "file_operations_total",
				Help:      "Total number of file operations",
			},
			[]string{"operation", "status"},
		),

		fileDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "file_duration_seconds",
				Help:      "File operation duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// IncTransformCount increments the transformed points counter.
func (c *Collector) IncTransformCount(pair string, points int, success bool) {
	c.transformPoints.WithLabelValues(pair, statusLabel(success)).Add(float64(points))
}

// ObserveTransformDuration records bulk transform duration.
func (c *Collector) ObserveTransformDuration(pair string, duration time.Duration) {
	c.transformDuration.WithLabelValues(pair).Observe(duration.Seconds())
}

// IncCacheLookup counts a transform cache hit or miss.
func (c *Collector) IncCacheLookup(hit bool) {
	result := "hit"
	if !hit {
		result = "miss"
	}
	c.cacheLookups.WithLabelValues(result).Inc()
}

// SetCatalogSize sets the number of catalog systems.
func (c *Collector) SetCatalogSize(count int) {
	c.catalogSize.Set(float64(count))
}

// IncFileOperations increments the file operation counter.
func (c *Collector) IncFileOperations(operation string, success bool) {
	c.fileOperations.WithLabelValues(operation, statusLabel(success)).Inc()
}

// ObserveFileDuration records file operation duration.
func (c *Collector) ObserveFileDuration(operation string, duration time.Duration) {
	c.fileDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// Gatherer returns the registry of the collector.
func (c *Collector) Gatherer() prometheus.Gatherer {
	return c.registry
}

// WriteToTextfile writes the metrics in the text exposition format. The
// file is written atomically.
func (c *Collector) WriteToTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return fmt.Errorf("writing metrics to %s: %w", path, err)
	}
	return nil
}

func statusLabel(success bool) string {
	if success {
		return "success"
	}
	return "error"
}

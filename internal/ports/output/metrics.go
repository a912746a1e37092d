package output

import "time"

// MetricsCollector defines the secondary port for metrics collection.
type MetricsCollector interface {
	// IncTransformCount increments the transformed points counter for a
	// source→target pair.
	IncTransformCount(pair string, points int, success bool)

	// ObserveTransformDuration records the duration of a bulk transform.
	ObserveTransformDuration(pair string, duration time.Duration)

	// IncCacheLookup counts transform cache hits and misses.
	IncCacheLookup(hit bool)

	// SetCatalogSize sets the number of coordinate systems in the catalog.
	SetCatalogSize(count int)

	// IncFileOperations increments the file operation counter.
	IncFileOperations(operation string, success bool)

	// ObserveFileDuration records file operation duration.
	ObserveFileDuration(operation string, duration time.Duration)
}

// NoOpMetrics is a no-op implementation of MetricsCollector.
type NoOpMetrics struct{}

// IncTransformCount implements MetricsCollector.
func (n *NoOpMetrics) IncTransformCount(_ string, _ int, _ bool) {}

// ObserveTransformDuration implements MetricsCollector.
func (n *NoOpMetrics) ObserveTransformDuration(_ string, _ time.Duration) {}

// IncCacheLookup implements MetricsCollector.
func (n *NoOpMetrics) IncCacheLookup(_ bool) {}

// SetCatalogSize implements MetricsCollector.
func (n *NoOpMetrics) SetCatalogSize(_ int) {}

// IncFileOperations implements MetricsCollector.
func (n *NoOpMetrics) IncFileOperations(_ string, _ bool) {}

// ObserveFileDuration implements MetricsCollector.
func (n *NoOpMetrics) ObserveFileDuration(_ string, _ time.Duration) {}

package application

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/jobrunner/gauss/internal/domain"
)

// mockMetrics implements output.MetricsCollector for testing.
type mockMetrics struct {
	mu          sync.Mutex
	points      map[string]int // pair/status → points
	cacheHits   int
	cacheMisses int
	catalogSize int
	fileOps     map[string]int // operation/status → count
}

func newMockMetrics() *mockMetrics {
	return &mockMetrics{
		points:  make(map[string]int),
		fileOps: make(map[string]int),
	}
}

func (m *mockMetrics) IncTransformCount(pair string, points int, success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.points[pair+"/"+status(success)] += points
}

func (m *mockMetrics) ObserveTransformDuration(_ string, _ time.Duration) {}

func (m *mockMetrics) IncCacheLookup(hit bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if hit {
		m.cacheHits++
	} else {
		m.cacheMisses++
	}
}

func (m *mockMetrics) SetCatalogSize(count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.catalogSize = count
}

func (m *mockMetrics) IncFileOperations(operation string, success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fileOps[operation+"/"+status(success)]++
}

func (m *mockMetrics) ObserveFileDuration(_ string, _ time.Duration) {}

func (m *mockMetrics) transformed(pair string, success bool) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.points[pair+"/"+status(success)]
}

func status(success bool) string {
	if success {
		return "success"
	}
	return "error"
}

// mockDefinitionSource implements output.DefinitionSource for testing.
type mockDefinitionSource struct {
	location string
	defs     []domain.CRSDefinition
	err      error
}

func (m *mockDefinitionSource) Load(_ context.Context) ([]domain.CRSDefinition, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.defs, nil
}

func (m *mockDefinitionSource) Location() string {
	return m.location
}

// mockSpatialRefReader implements output.SpatialRefReader for testing.
type mockSpatialRefReader struct {
	rows []domain.SpatialRefSys
	err  error
}

func (m *mockSpatialRefReader) ReadSpatialRefSys(_ context.Context, _ string) ([]domain.SpatialRefSys, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.rows, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestCatalog creates a catalog with the default engine policy.
func newTestCatalog(t *testing.T, metrics *mockMetrics) *Catalog {
	t.Helper()
	return newTestCatalogWith(t, DefaultFactoryConfig(), metrics)
}

func newTestCatalogWith(t *testing.T, cfg FactoryConfig, metrics *mockMetrics) *Catalog {
	t.Helper()
	factory := NewFactory(nil, cfg, metrics, testLogger())
	catalog, err := NewCatalog(factory, metrics, testLogger())
	if err != nil {
		t.Fatalf("NewCatalog() error: %v", err)
	}
	return catalog
}

// latLonWGS84 is WGS 84 with latitude first.
var latLonWGS84 = domain.CRSDefinition{
	Code:  900001,
	Name:  "WGS 84 (lat/lon)",
	Kind:  domain.KindGeographic,
	Datum: wgs84Datum,
	Axes: []domain.AxisDefinition{
		{Name: "Lat", Direction: "north"},
		{Name: "Lon", Direction: "east"},
	},
}

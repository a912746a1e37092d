package application

import (
	"errors"
	"math"
	"testing"

	"github.com/jobrunner/gauss/internal/crs/operation"
	"github.com/jobrunner/gauss/internal/crs/transform"
	"github.com/jobrunner/gauss/internal/domain"
)

func near(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestFactoryIdentity(t *testing.T) {
	catalog := newTestCatalog(t, newMockMetrics())

	for _, code := range []int{4326, 3857, 4978, 5703} {
		ct, err := catalog.Transformation(code, code)
		if err != nil {
			t.Fatalf("Transformation(%d, %d) error: %v", code, code, err)
		}
		if !ct.MathTransform().IsIdentity() {
			t.Errorf("Transformation(%d, %d) = %s, want identity", code, code, ct.MathTransform())
		}
		if ct.Type() != operation.Conversion {
			t.Errorf("Transformation(%d, %d).Type() = %s, want %s", code, code, ct.Type(), operation.Conversion)
		}
		if _, ok := ct.Accuracy(); ok {
			t.Errorf("Transformation(%d, %d).Accuracy() known, want unknown", code, code)
		}
	}
}

func TestFactoryProjections(t *testing.T) {
	catalog := newTestCatalog(t, newMockMetrics())

	tests := []struct {
		name   string
		target int
		want   []float64
	}{
		{"pseudo mercator", 3857, []float64{1491681.1766298658, 6891041.723891583}},
		{"world mercator", 3395, []float64{1491681.1766298658, 6857119.68539909}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ct, err := catalog.Transformation(4326, tt.target)
			if err != nil {
				t.Fatalf("Transformation() error: %v", err)
			}
			got, err := ct.Transform([]float64{13.4, 52.5})
			if err != nil {
				t.Fatalf("Transform() error: %v", err)
			}
			for i := range tt.want {
				if !near(got[i], tt.want[i], 1e-6) {
					t.Errorf("Transform()[%d] = %.6f, want %.6f", i, got[i], tt.want[i])
				}
			}
			if ct.Type() != operation.Conversion {
				t.Errorf("Type() = %s, want %s", ct.Type(), operation.Conversion)
			}
		})
	}
}

func TestFactoryAxisOrder(t *testing.T) {
	catalog := newTestCatalog(t, newMockMetrics())
	if err := catalog.Replace("test", []domain.CRSDefinition{latLonWGS84}); err != nil {
		t.Fatalf("Replace() error: %v", err)
	}

	ct, err := catalog.Transformation(latLonWGS84.Code, 3395)
	if err != nil {
		t.Fatalf("Transformation() error: %v", err)
	}
	got, err := ct.Transform([]float64{52.5, 13.4})
	if err != nil {
		t.Fatalf("Transform() error: %v", err)
	}
	want := []float64{1491681.1766298658, 6857119.68539909}
	for i := range want {
		if math.Abs(got[i]-want[i])/want[i] > 1e-6 {
			t.Errorf("Transform()[%d] = %.3f, want %.3f", i, got[i], want[i])
		}
	}

	swap, err := catalog.Transformation(latLonWGS84.Code, 4326)
	if err != nil {
		t.Fatalf("Transformation() error: %v", err)
	}
	got, err = swap.Transform([]float64{52.5, 13.4})
	if err != nil {
		t.Fatalf("Transform() error: %v", err)
	}
	if !near(got[0], 13.4, 1e-12) || !near(got[1], 52.5, 1e-12) {
		t.Errorf("Transform() = %v, want [13.4 52.5]", got)
	}
}

func TestFactoryRoundTrip(t *testing.T) {
	catalog := newTestCatalog(t, newMockMetrics())

	tests := []struct {
		name   string
		source int
		target int
		point  []float64
	}{
		{"utm 32", 4326, 32632, []float64{9.5, 48.7}},
		{"etrs89 utm 33", 4258, 25833, []float64{13.4, 52.5}},
		{"gauss kruger", 4326, 31467, []float64{8.7, 50.1}},
		{"lambert 93", 4326, 2154, []float64{2.35, 48.85}},
		{"ups north", 4326, 32661, []float64{45, 85}},
		{"geocentric", 4979, 4978, []float64{13.4, 52.5, 100}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ct, err := catalog.Transformation(tt.source, tt.target)
			if err != nil {
				t.Fatalf("Transformation() error: %v", err)
			}
			inv, err := ct.Inverse()
			if err != nil {
				t.Fatalf("Inverse() error: %v", err)
			}
			mid, err := ct.Transform(tt.point)
			if err != nil {
				t.Fatalf("Transform() error: %v", err)
			}
			got, err := inv.Transform(mid)
			if err != nil {
				t.Fatalf("inverse Transform() error: %v", err)
			}
			for i := range tt.point {
				tol := 1e-7
				if i == 2 {
					tol = 1e-3
				}
				if !near(got[i], tt.point[i], tol) {
					t.Errorf("round trip[%d] = %.10f, want %.10f", i, got[i], tt.point[i])
				}
			}
		})
	}
}

func TestFactoryGeocentric(t *testing.T) {
	catalog := newTestCatalog(t, newMockMetrics())

	ct, err := catalog.Transformation(4979, 4978)
	if err != nil {
		t.Fatalf("Transformation() error: %v", err)
	}
	got, err := ct.Transform([]float64{13.4, 52.5, 100})
	if err != nil {
		t.Fatalf("Transform() error: %v", err)
	}
	want := []float64{3785100.7450369773, 901738.1925538161, 5036943.920166229}
	for i := range want {
		if !near(got[i], want[i], 1e-4) {
			t.Errorf("Transform()[%d] = %.4f, want %.4f", i, got[i], want[i])
		}
	}
}

func TestFactoryDatumShift(t *testing.T) {
	tests := []struct {
		name         string
		method       transform.Method
		source       int
		target       int
		wantType     operation.Type
		wantAccuracy float64
	}{
		{"bursa wolf", transform.BursaWolfMethod, 4326, 4314, operation.Transformation, 1},
		{"bursa wolf projected", transform.BursaWolfMethod, 4326, 31467, operation.ConversionAndTransformation, 1},
		{"molodensky", transform.AbridgedMolodensky, 4326, 4267, operation.Transformation, 5},
		{"molodensky falls back for seven parameters", transform.AbridgedMolodensky, 4326, 4314, operation.Transformation, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultFactoryConfig()
			cfg.DatumShift = tt.method
			catalog := newTestCatalogWith(t, cfg, newMockMetrics())

			ct, err := catalog.Transformation(tt.source, tt.target)
			if err != nil {
				t.Fatalf("Transformation() error: %v", err)
			}
			if ct.Type() != tt.wantType {
				t.Errorf("Type() = %s, want %s", ct.Type(), tt.wantType)
			}
			acc, ok := ct.Accuracy()
			if !ok || acc != tt.wantAccuracy {
				t.Errorf("Accuracy() = %v, %v, want %v, true", acc, ok, tt.wantAccuracy)
			}

			// A datum shift moves points by metres to hundreds of metres.
			got, err := ct.Transform([]float64{10, 50})
			if err != nil {
				t.Fatalf("Transform() error: %v", err)
			}
			if tt.target == 31467 {
				return
			}
			d := math.Hypot(got[0]-10, got[1]-50)
			if d < 1e-6 || d > 1e-2 {
				t.Errorf("shift = %g°, want between 1e-6° and 1e-2°", d)
			}
		})
	}
}

func TestFactoryDimensionReduction(t *testing.T) {
	t.Run("refused by default", func(t *testing.T) {
		catalog := newTestCatalog(t, newMockMetrics())
		_, err := catalog.Transformation(4979, 4326)
		if !errors.Is(err, domain.CantReduceToTwoDimensions) {
			t.Errorf("Transformation(4979, 4326) error = %v, want %v", err, domain.CantReduceToTwoDimensions)
		}
		_, err = catalog.Transformation(9518, 3857)
		if !errors.Is(err, domain.CantReduceToTwoDimensions) {
			t.Errorf("Transformation(9518, 3857) error = %v, want %v", err, domain.CantReduceToTwoDimensions)
		}
	})

	t.Run("allowed", func(t *testing.T) {
		cfg := DefaultFactoryConfig()
		cfg.AllowDimensionReduction = true
		catalog := newTestCatalogWith(t, cfg, newMockMetrics())

		ct, err := catalog.Transformation(4979, 4326)
		if err != nil {
			t.Fatalf("Transformation() error: %v", err)
		}
		got, err := ct.Transform([]float64{13.4, 52.5, 250})
		if err != nil {
			t.Fatalf("Transform() error: %v", err)
		}
		if len(got) != 2 || !near(got[0], 13.4, 1e-12) || !near(got[1], 52.5, 1e-12) {
			t.Errorf("Transform() = %v, want [13.4 52.5]", got)
		}
	})

	t.Run("lift to 3D", func(t *testing.T) {
		catalog := newTestCatalog(t, newMockMetrics())
		ct, err := catalog.Transformation(4326, 4979)
		if err != nil {
			t.Fatalf("Transformation() error: %v", err)
		}
		got, err := ct.Transform([]float64{13.4, 52.5})
		if err != nil {
			t.Fatalf("Transform() error: %v", err)
		}
		if len(got) != 3 || got[2] != 0 {
			t.Errorf("Transform() = %v, want zero height", got)
		}
	})
}

func TestFactoryNoPath(t *testing.T) {
	catalog := newTestCatalog(t, newMockMetrics())

	_, err := catalog.Transformation(4326, 5703)
	if !errors.Is(err, domain.NoTransformationPath) {
		t.Errorf("Transformation(4326, 5703) error = %v, want %v", err, domain.NoTransformationPath)
	}
	if !errors.Is(err, domain.ErrUnsupported) {
		t.Errorf("Transformation(4326, 5703) error = %v, want category %v", err, domain.ErrUnsupported)
	}
}

func TestFactoryCompound(t *testing.T) {
	catalog := newTestCatalog(t, newMockMetrics())

	ct, err := catalog.Transformation(9518, 9518)
	if err != nil {
		t.Fatalf("Transformation() error: %v", err)
	}
	if ct.Source().Dimension() != 3 {
		t.Errorf("Source().Dimension() = %d, want 3", ct.Source().Dimension())
	}
}

func TestFactoryCache(t *testing.T) {
	metrics := newMockMetrics()
	catalog := newTestCatalog(t, metrics)
	factory := catalog.factory

	first, err := catalog.Transformation(4326, 3857)
	if err != nil {
		t.Fatalf("Transformation() error: %v", err)
	}
	second, err := catalog.Transformation(4326, 3857)
	if err != nil {
		t.Fatalf("Transformation() error: %v", err)
	}

	if first.MathTransform() != second.MathTransform() {
		t.Error("cached transformation returned a different transform")
	}
	if metrics.cacheHits != 1 || metrics.cacheMisses != 1 {
		t.Errorf("cache lookups = %d hits, %d misses, want 1, 1", metrics.cacheHits, metrics.cacheMisses)
	}
	if factory.CacheSize() != 1 {
		t.Errorf("CacheSize() = %d, want 1", factory.CacheSize())
	}

	factory.ClearCache()
	if factory.CacheSize() != 0 {
		t.Errorf("CacheSize() after ClearCache() = %d, want 0", factory.CacheSize())
	}
}

func TestFactoryCacheDisabled(t *testing.T) {
	cfg := DefaultFactoryConfig()
	cfg.CacheEnabled = false
	metrics := newMockMetrics()
	catalog := newTestCatalogWith(t, cfg, metrics)

	for i := 0; i < 2; i++ {
		if _, err := catalog.Transformation(4326, 3857); err != nil {
			t.Fatalf("Transformation() error: %v", err)
		}
	}
	if catalog.factory.CacheSize() != 0 {
		t.Errorf("CacheSize() = %d, want 0", catalog.factory.CacheSize())
	}
	if metrics.cacheHits+metrics.cacheMisses != 0 {
		t.Errorf("cache lookups = %d, want 0", metrics.cacheHits+metrics.cacheMisses)
	}
}

func TestFactoryNilSystem(t *testing.T) {
	factory := NewFactory(nil, DefaultFactoryConfig(), newMockMetrics(), testLogger())
	_, err := factory.CreateFromCoordinateSystems(nil, nil)
	if !errors.Is(err, domain.IllegalArgument) {
		t.Errorf("CreateFromCoordinateSystems(nil, nil) error = %v, want %v", err, domain.IllegalArgument)
	}
}

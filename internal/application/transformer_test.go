package application

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/jobrunner/gauss/internal/domain"
	"github.com/jobrunner/gauss/internal/ports/output"
)

var _ output.CoordinateTransformer = (*Transformer)(nil)

func TestTransformerTransform(t *testing.T) {
	metrics := newMockMetrics()
	transformer := NewTransformer(newTestCatalog(t, metrics), metrics, testLogger())
	ctx := context.Background()

	tests := []struct {
		name    string
		coord   domain.Coordinate
		target  int
		want    domain.Coordinate
		tol     float64
		wantErr error
	}{
		{
			name:   "same srid",
			coord:  domain.Coordinate{X: 13.4, Y: 52.5, SRID: 4326},
			target: 4326,
			want:   domain.Coordinate{X: 13.4, Y: 52.5, SRID: 4326},
		},
		{
			name:   "web mercator",
			coord:  domain.Coordinate{X: 13.4, Y: 52.5, SRID: 4326},
			target: 3857,
			want:   domain.Coordinate{X: 1491681.1766298658, Y: 6891041.723891583, SRID: 3857},
			tol:    1e-6,
		},
		{
			name:   "geocentric with height",
			coord:  domain.Coordinate{X: 13.4, Y: 52.5, Z: 100, SRID: 4979},
			target: 4978,
			want:   domain.Coordinate{X: 3785100.7450369773, Y: 901738.1925538161, Z: 5036943.920166229, SRID: 4978},
			tol:    1e-4,
		},
		{
			name:    "not finite",
			coord:   domain.Coordinate{X: math.NaN(), Y: 52.5, SRID: 4326},
			target:  3857,
			wantErr: domain.NonFiniteCoordinate,
		},
		{
			name:    "unknown target",
			coord:   domain.Coordinate{X: 13.4, Y: 52.5, SRID: 4326},
			target:  12345,
			wantErr: domain.ErrUnknownCRS,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := transformer.Transform(ctx, tt.coord, tt.target)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Transform() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Transform() error: %v", err)
			}
			if got.SRID != tt.want.SRID {
				t.Errorf("Transform().SRID = %d, want %d", got.SRID, tt.want.SRID)
			}
			if !near(got.X, tt.want.X, tt.tol) || !near(got.Y, tt.want.Y, tt.tol) || !near(got.Z, tt.want.Z, tt.tol) {
				t.Errorf("Transform() = %v, want %v", got, tt.want)
			}
		})
	}

	if n := metrics.transformed("4326:3857", true); n != 1 {
		t.Errorf("transformed points 4326:3857 = %d, want 1", n)
	}
}

func TestTransformerIsSupported(t *testing.T) {
	transformer := NewTransformer(newTestCatalog(t, newMockMetrics()), newMockMetrics(), testLogger())

	tests := []struct {
		source, target int
		want           bool
	}{
		{4326, 3857, true},
		{4326, 31467, true},
		{4326, 12345, false},
		{4326, 5703, false},
	}

	for _, tt := range tests {
		if got := transformer.IsSupported(tt.source, tt.target); got != tt.want {
			t.Errorf("IsSupported(%d, %d) = %v, want %v", tt.source, tt.target, got, tt.want)
		}
	}
}

func TestTransformerTransformPoints(t *testing.T) {
	metrics := newMockMetrics()
	transformer := NewTransformer(newTestCatalog(t, metrics), metrics, testLogger())

	got, err := transformer.TransformPoints(context.Background(), 4326, 3857, []float64{0, 0, 13.4, 52.5})
	if err != nil {
		t.Fatalf("TransformPoints() error: %v", err)
	}
	want := []float64{0, 0, 1491681.1766298658, 6891041.723891583}
	if len(got) != len(want) {
		t.Fatalf("len(TransformPoints()) = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if !near(got[i], want[i], 1e-6) {
			t.Errorf("TransformPoints()[%d] = %.6f, want %.6f", i, got[i], want[i])
		}
	}
	if n := metrics.transformed("4326:3857", true); n != 2 {
		t.Errorf("transformed points = %d, want 2", n)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := transformer.TransformPoints(ctx, 4326, 3857, want); !errors.Is(err, context.Canceled) {
		t.Errorf("TransformPoints() with canceled context error = %v, want %v", err, context.Canceled)
	}
}

func TestTransformerDistance(t *testing.T) {
	metrics := newMockMetrics()
	transformer := NewTransformer(newTestCatalog(t, metrics), metrics, testLogger())
	ctx := context.Background()
	degree := 6378137 * math.Pi / 180

	tests := []struct {
		name    string
		a, b    domain.Coordinate
		want    float64
		wantAz  float64
		wantErr error
	}{
		{
			name:   "geographic",
			a:      domain.NewWGS84Coordinate(0, 0),
			b:      domain.NewWGS84Coordinate(1, 0),
			want:   degree,
			wantAz: 90,
		},
		{
			name:   "mixed systems",
			a:      domain.NewWGS84Coordinate(0, 0),
			b:      domain.Coordinate{X: degree, Y: 0, SRID: 3857},
			want:   degree,
			wantAz: 90,
		},
		{
			name:    "antipodes",
			a:       domain.NewWGS84Coordinate(10, 0),
			b:       domain.NewWGS84Coordinate(-170, 0),
			wantErr: domain.AntipodeLatitudes,
		},
		{
			name:    "unknown system",
			a:       domain.NewWGS84Coordinate(0, 0),
			b:       domain.Coordinate{X: 1, Y: 1, SRID: 12345},
			wantErr: domain.ErrUnknownCRS,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, az, err := transformer.Distance(ctx, tt.a, tt.b)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Distance() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Distance() error = %v", err)
			}
			if math.Abs(got-tt.want) > 1e-3 {
				t.Errorf("Distance() = %v, want %v", got, tt.want)
			}
			if math.Abs(az-tt.wantAz) > 1e-6 {
				t.Errorf("Distance() azimuth = %v, want %v", az, tt.wantAz)
			}
		})
	}
}

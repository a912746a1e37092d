package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jobrunner/gauss/internal/crs/datum"
	"github.com/jobrunner/gauss/internal/crs/operation"
	"github.com/jobrunner/gauss/internal/domain"
	"github.com/jobrunner/gauss/internal/ports/output"
)

// Transformer transforms coordinates between catalog codes.
type Transformer struct {
	catalog  *Catalog
	geodesic *datum.Geodesic
	metrics  output.MetricsCollector
	logger   *slog.Logger
}

// NewTransformer creates a new catalog-backed transformer.
func NewTransformer(catalog *Catalog, metrics output.MetricsCollector, logger *slog.Logger) *Transformer {
	return &Transformer{
		catalog:  catalog,
		geodesic: datum.NewGeodesic(datum.WGS84),
		metrics:  metrics,
		logger:   logger,
	}
}

// Transformation returns the operation between two codes.
func (t *Transformer) Transformation(source, target int) (*operation.CoordinateTransformation, error) {
	return t.catalog.Transformation(source, target)
}

// Transform transforms a coordinate to the target SRID. Heights are read
// from and written to Z when the systems are three-dimensional.
func (t *Transformer) Transform(_ context.Context, coord domain.Coordinate, targetSRID int) (domain.Coordinate, error) {
	if coord.SRID == targetSRID {
		return coord, nil
	}
	if !coord.IsFinite() {
		return domain.Coordinate{}, domain.NewError(domain.NonFiniteCoordinate, coord.WKT())
	}

	ct, err := t.catalog.Transformation(coord.SRID, targetSRID)
	if err != nil {
		return domain.Coordinate{}, err
	}

	out, err := ct.Transform(coord.Ordinates(ct.Source().Dimension()))
	t.metrics.IncTransformCount(pairLabel(coord.SRID, targetSRID), 1, err == nil)
	if err != nil {
		return domain.Coordinate{}, fmt.Errorf("transforming %s: %w", coord, err)
	}
	return domain.CoordinateFromOrdinates(out, targetSRID), nil
}

// IsSupported checks if a transformation path exists.
func (t *Transformer) IsSupported(sourceSRID, targetSRID int) bool {
	_, err := t.catalog.Transformation(sourceSRID, targetSRID)
	return err == nil
}

// TransformPoints transforms a packed array of points between two codes.
func (t *Transformer) TransformPoints(ctx context.Context, source, target int, points []float64) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ct, err := t.catalog.Transformation(source, target)
	if err != nil {
		return nil, err
	}

	pair := pairLabel(source, target)
	start := time.Now()
	out, err := ct.TransformPoints(points)
	t.metrics.ObserveTransformDuration(pair, time.Since(start))

	n := 0
	if dim := ct.Source().Dimension(); dim > 0 {
		n = len(points) / dim
	}
	t.metrics.IncTransformCount(pair, n, err == nil)
	if err != nil {
		t.logger.Debug("bulk transform failed", "pair", pair, "points", n, "error", err)
	}
	return out, err
}

func pairLabel(source, target int) string {
	return fmt.Sprintf("%d:%d", source, target)
}

// Distance returns the geodesic distance in metres between two coordinates
// and the forward azimuth at a. Both points are brought to WGS84 first, so
// they may be given in any catalog system.
func (t *Transformer) Distance(ctx context.Context, a, b domain.Coordinate) (distance, azimuth float64, err error) {
	ga, err := t.Transform(ctx, a, domain.SRIDWGS84)
	if err != nil {
		return 0, 0, err
	}
	gb, err := t.Transform(ctx, b, domain.SRIDWGS84)
	if err != nil {
		return 0, 0, err
	}
	distance, azimuth, _, err = t.geodesic.Inverse(ga.X, ga.Y, gb.X, gb.Y)
	if err != nil {
		return 0, 0, fmt.Errorf("distance %s to %s: %w", a, b, err)
	}
	return distance, azimuth, nil
}

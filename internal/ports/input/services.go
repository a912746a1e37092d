// Package input defines the primary/driving ports of the application.
package input

import (
	"context"
	"io"

	"github.com/jobrunner/gauss/internal/crs/operation"
	"github.com/jobrunner/gauss/internal/domain"
)

// TransformService defines the primary port for point transformations.
type TransformService interface {
	// Transformation returns the operation between two catalog codes.
	Transformation(source, target int) (*operation.CoordinateTransformation, error)

	// TransformPoints transforms a packed array of points between two
	// catalog codes.
	TransformPoints(ctx context.Context, source, target int, points []float64) ([]float64, error)

	// Distance returns the geodesic distance in metres between two
	// coordinates and the forward azimuth at the first.
	Distance(ctx context.Context, a, b domain.Coordinate) (distance, azimuth float64, err error)
}

// ReprojectService defines the primary port for GeoJSON reprojection.
type ReprojectService interface {
	// Reproject reads a GeoJSON feature collection from r, reprojects every
	// geometry from source to target and writes the result to w.
	Reproject(ctx context.Context, r io.Reader, w io.Writer, source, target int) (*domain.ReprojectReport, error)

	// ReprojectFile reprojects a GeoJSON file into the output directory.
	ReprojectFile(ctx context.Context, path string, source, target int) (*domain.ReprojectReport, error)
}

// CatalogService defines the primary port for the CRS catalog.
type CatalogService interface {
	// List returns all known coordinate reference systems ordered by code.
	List() []domain.CatalogEntry

	// Entry returns a single catalog entry.
	Entry(code int) (domain.CatalogEntry, error)

	// Definition returns the definition a catalog entry was built from.
	Definition(code int) (domain.CRSDefinition, error)
}

// SpatialRefService defines the primary port for inspecting the spatial
// reference systems of a GeoPackage.
type SpatialRefService interface {
	// Inspect returns the status of every spatial reference system
	// declared by the GeoPackage at path.
	Inspect(ctx context.Context, path string) ([]domain.SRSStatus, error)
}

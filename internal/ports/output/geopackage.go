// Package output defines the secondary/driven ports of the application.
package output

import (
	"context"

	"github.com/jobrunner/gauss/internal/domain"
)

// SpatialRefReader defines the secondary port for reading the spatial
// reference systems declared by a GeoPackage.
type SpatialRefReader interface {
	// ReadSpatialRefSys returns the rows of gpkg_spatial_ref_sys.
	ReadSpatialRefSys(ctx context.Context, path string) ([]domain.SpatialRefSys, error)
}

// DefinitionSource defines the secondary port for CRS definition files.
type DefinitionSource interface {
	// Load reads all definitions of the source.
	Load(ctx context.Context) ([]domain.CRSDefinition, error)

	// Location returns a description of where definitions come from.
	Location() string
}

// CoordinateTransformer defines the secondary port for coordinate transformations.
type CoordinateTransformer interface {
	// Transform transforms a coordinate from one SRID to another.
	Transform(ctx context.Context, coord domain.Coordinate, targetSRID int) (domain.Coordinate, error)

	// IsSupported checks if a transformation is supported.
	IsSupported(sourceSRID, targetSRID int) bool
}

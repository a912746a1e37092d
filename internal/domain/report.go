package domain

import "fmt"

// Origins of catalog entries.
const (
	OriginBuiltin = "builtin"
)

// CatalogEntry summarizes a coordinate reference system known to the
// catalog.
type CatalogEntry struct {
	Code      int    // CRS code
	Name      string // Display name
	Kind      string // One of the Kind* constants
	Dimension int    // Number of ordinates
	Origin    string // "builtin" or the definition file it came from
}

// ReprojectReport is the outcome of reprojecting a feature collection.
type ReprojectReport struct {
	Features int            // Number of features read
	Failed   int            // Number of features that could not be reprojected
	Errors   []FeatureError // Per-feature errors, in feature order
	Extent   Extent         // Bounding box of the reprojected features
}

// OK returns true if every feature was reprojected.
func (r *ReprojectReport) OK() bool {
	return r.Failed == 0
}

// FeatureError records why a single feature could not be reprojected.
type FeatureError struct {
	Index int   // Position in the collection
	ID    any   // Feature ID, if present
	Err   error // Underlying error
}

// Error implements the error interface.
func (e FeatureError) Error() string {
	if e.ID != nil {
		return fmt.Sprintf("feature %d (id %v): %v", e.Index, e.ID, e.Err)
	}
	return fmt.Sprintf("feature %d: %v", e.Index, e.Err)
}

// Unwrap returns the underlying error.
func (e FeatureError) Unwrap() error {
	return e.Err
}

// SRSStatus tells whether a spatial reference system of a GeoPackage can
// be used with the catalog.
type SRSStatus struct {
	SpatialRefSys
	Code      int    // Catalog code, 0 if the row names none
	Supported bool   // The catalog knows the code
	Reason    string // Why the row is not supported
}

// Package geopackage reads the spatial reference systems of GeoPackage
// files.
package geopackage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3" // sqlite3 driver

	"github.com/jobrunner/gauss/internal/domain"
)

// Reader implements the SpatialRefReader port.
type Reader struct{}

// NewReader creates a new GeoPackage SRS reader.
func NewReader() *Reader {
	return &Reader{}
}

// ReadSpatialRefSys returns the rows of gpkg_spatial_ref_sys ordered by
// srs_id. The file is opened read-only.
func (r *Reader) ReadSpatialRefSys(ctx context.Context, path string) ([]domain.SpatialRefSys, error) {
	db, err := openDB(ctx, path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, `
		SELECT srs_name, srs_id, organization, organization_coordsys_id, definition, description
		FROM gpkg_spatial_ref_sys
		ORDER BY srs_id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying gpkg_spatial_ref_sys: %w", err)
	}
	defer rows.Close()

	var result []domain.SpatialRefSys
	for rows.Next() {
		var (
			srs         domain.SpatialRefSys
			description sql.NullString
		)
		if err := rows.Scan(&srs.Name, &srs.ID, &srs.Organization, &srs.OrganizationID, &srs.Definition, &description); err != nil {
			return nil, fmt.Errorf("scanning spatial reference system: %w", err)
		}
		srs.Description = description.String
		result = append(result, srs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading spatial reference systems: %w", err)
	}
	return result, nil
}

// openDB opens a GeoPackage read-only. A missing file is an error rather
// than a new empty database.
func openDB(ctx context.Context, path string) (*sql.DB, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	dsn := fmt.Sprintf("file:%s?mode=ro", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}

	// Test connection
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// DerivePackageID derives a package ID from the file name.
func DerivePackageID(path string) string {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	return strings.TrimSuffix(base, ext)
}

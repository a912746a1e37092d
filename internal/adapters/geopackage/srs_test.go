package geopackage

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/jobrunner/gauss/internal/domain"
)

func TestDerivePackageID(t *testing.T) {
	tests := []struct {
		name string
		path string
		want string
	}{
		{
			name: "simple filename",
			path: "/data/test.gpkg",
			want: "test",
		},
		{
			name: "nested path",
			path: "/var/data/geopackages/germany.gpkg",
			want: "germany",
		},
		{
			name: "relative path",
			path: "data/test.gpkg",
			want: "test",
		},
		{
			name: "filename only",
			path: "test.gpkg",
			want: "test",
		},
		{
			name: "different extension",
			path: "/data/test.sqlite",
			want: "test",
		},
		{
			name: "no extension",
			path: "/data/testfile",
			want: "testfile",
		},
		{
			name: "multiple dots",
			path: "/data/test.backup.gpkg",
			want: "test.backup",
		},
		{
			name: "with spaces",
			path: "/data/my package.gpkg",
			want: "my package",
		},
		{
			name: "empty path",
			path: "",
			want: "",
		},
		{
			name: "just extension",
			path: ".gpkg",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DerivePackageID(tt.path); got != tt.want {
				t.Errorf("DerivePackageID(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func createGeoPackage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "germany.gpkg")
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("sql.Open() error: %v", err)
	}
	defer db.Close()

	stmts := []string{
		`CREATE TABLE gpkg_spatial_ref_sys (
			srs_name TEXT NOT NULL,
			srs_id INTEGER PRIMARY KEY,
			organization TEXT NOT NULL,
			organization_coordsys_id INTEGER NOT NULL,
			definition TEXT NOT NULL,
			description TEXT
		)`,
		`INSERT INTO gpkg_spatial_ref_sys VALUES ('Undefined cartesian SRS', -1, 'NONE', -1, 'undefined', 'undefined cartesian coordinate reference system')`,
		`INSERT INTO gpkg_spatial_ref_sys VALUES ('Undefined geographic SRS', 0, 'NONE', 0, 'undefined', NULL)`,
		`INSERT INTO gpkg_spatial_ref_sys VALUES ('ETRS89 / UTM zone 32N', 25832, 'EPSG', 25832, 'PROJCS["ETRS89 / UTM zone 32N"]', NULL)`,
		`INSERT INTO gpkg_spatial_ref_sys VALUES ('WGS 84 geodetic', 4326, 'EPSG', 4326, 'GEOGCS["WGS 84"]', 'longitude/latitude')`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("Exec() error: %v", err)
		}
	}
	return path
}

func TestReadSpatialRefSys(t *testing.T) {
	path := createGeoPackage(t)

	rows, err := NewReader().ReadSpatialRefSys(context.Background(), path)
	if err != nil {
		t.Fatalf("ReadSpatialRefSys() error: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("ReadSpatialRefSys() returned %d rows, want 4", len(rows))
	}

	tests := []struct {
		name     string
		index    int
		wantID   int
		wantEPSG int
		wantOK   bool
	}{
		{"undefined cartesian", 0, domain.SRSUndefinedCartesian, 0, false},
		{"undefined geographic", 1, domain.SRSUndefinedGeographic, 0, false},
		{"wgs84", 2, 4326, 4326, true},
		{"utm", 3, 25832, 25832, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := rows[tt.index]
			if row.ID != tt.wantID {
				t.Errorf("ID = %d, want %d", row.ID, tt.wantID)
			}
			code, ok := row.EPSGCode()
			if code != tt.wantEPSG || ok != tt.wantOK {
				t.Errorf("EPSGCode() = %d, %v, want %d, %v", code, ok, tt.wantEPSG, tt.wantOK)
			}
		})
	}

	if rows[2].Description != "longitude/latitude" {
		t.Errorf("Description = %q, want longitude/latitude", rows[2].Description)
	}
	if rows[1].Description != "" {
		t.Errorf("Description = %q, want empty for NULL", rows[1].Description)
	}
}

func TestReadSpatialRefSysErrors(t *testing.T) {
	r := NewReader()

	if _, err := r.ReadSpatialRefSys(context.Background(), filepath.Join(t.TempDir(), "missing.gpkg")); err == nil {
		t.Error("ReadSpatialRefSys() of a missing file should fail")
	}

	path := filepath.Join(t.TempDir(), "empty.gpkg")
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec("CREATE TABLE other (id INTEGER)"); err != nil {
		t.Fatal(err)
	}
	_ = db.Close()

	if _, err := r.ReadSpatialRefSys(context.Background(), path); err == nil {
		t.Error("ReadSpatialRefSys() without gpkg_spatial_ref_sys should fail")
	}
}

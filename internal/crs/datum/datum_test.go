package datum

import (
	"errors"
	"math"
	"testing"

	"github.com/jobrunner/gauss/internal/crs/units"
	"github.com/jobrunner/gauss/internal/domain"
)

func TestNewEllipsoid(t *testing.T) {
	tests := []struct {
		name    string
		a, ivf  float64
		wantB   float64
		wantErr bool
	}{
		{name: "WGS 84", a: 6378137, ivf: 298.257223563, wantB: 6356752.314245},
		{name: "sphere from zero ivf", a: 6370997, ivf: 0, wantB: 6370997},
		{name: "sphere from inf ivf", a: 6370997, ivf: math.Inf(1), wantB: 6370997},
		{name: "negative axis", a: -1, ivf: 300, wantErr: true},
		{name: "ivf below one", a: 6378137, ivf: 0.5, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := NewEllipsoid(tt.name, tt.a, tt.ivf)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewEllipsoid() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, domain.ParameterOutOfRange) {
					t.Errorf("NewEllipsoid() error = %v, want ParameterOutOfRange", err)
				}
				return
			}
			if math.Abs(e.SemiMinorAxis()-tt.wantB) > 1e-6 {
				t.Errorf("SemiMinorAxis() = %v, want %v", e.SemiMinorAxis(), tt.wantB)
			}
		})
	}
}

func TestEllipsoidDerived(t *testing.T) {
	if got := WGS84.EccentricitySquared(); math.Abs(got-0.00669437999014) > 1e-14 {
		t.Errorf("WGS84.EccentricitySquared() = %v", got)
	}
	if Clarke1866.IsIvfDefinitive() {
		t.Error("Clarke1866 should be defined by its axes")
	}
	if got := Clarke1866.InverseFlattening(); math.Abs(got-294.978698214) > 1e-6 {
		t.Errorf("Clarke1866.InverseFlattening() = %v", got)
	}
	sphere, _ := NewSphere("sphere", 6371000)
	if !sphere.IsSphere() || sphere.Eccentricity() != 0 {
		t.Errorf("sphere: IsSphere() = %v, Eccentricity() = %v", sphere.IsSphere(), sphere.Eccentricity())
	}
}

func TestEllipsoidEqual(t *testing.T) {
	renamed, _ := NewEllipsoid("other name", 6378137, 298.257223563)
	if !WGS84.Equal(renamed) {
		t.Error("ellipsoids with identical axes should be equal regardless of name")
	}
	if WGS84.Equal(Bessel1841) {
		t.Error("WGS84 should not equal Bessel 1841")
	}
	if WGS84.Key() != renamed.Key() {
		t.Errorf("Key() = %q and %q, want identical", WGS84.Key(), renamed.Key())
	}
}

func TestBursaWolfMatrix(t *testing.T) {
	// WGS 72 to WGS 84, position vector transformation.
	bw := BursaWolf{DZ: 4.5, EZ: 0.554, PPM: 0.219}
	got, err := bw.Matrix().MulVec([]float64{3657660.66, 255768.55, 5201382.11, 1})
	if err != nil {
		t.Fatalf("MulVec() error: %v", err)
	}
	want := []float64{3657660.78, 255778.43, 5201387.75}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 0.01 {
			t.Errorf("ordinate %d = %.3f, want %.2f", i, got[i], want[i])
		}
	}
}

func TestBursaWolfEquality(t *testing.T) {
	a, err := NewBursaWolf([]float64{598.1, 73.7, 418.2, 0.202, 0.045, -2.455, 6.7})
	if err != nil {
		t.Fatalf("NewBursaWolf() error: %v", err)
	}
	b := BursaWolf{PPM: 6.7, EZ: -2.455, EY: 0.045, EX: 0.202, DZ: 418.2, DY: 73.7, DX: 598.1}
	if !a.Equal(b) || a.Key() != b.Key() {
		t.Errorf("parameter sets built in different order should be equal: %q vs %q", a.Key(), b.Key())
	}
	c := b
	c.PPM += 1e-6
	if a.Equal(c) {
		t.Error("parameter sets differing by 1e-6 ppm should differ")
	}
	if (BursaWolf{DX: math.Copysign(0, -1)}).Key() != (BursaWolf{}).Key() {
		t.Error("negative zero should produce the same key as zero")
	}
	if _, err := NewBursaWolf([]float64{1, 2}); !errors.Is(err, domain.IllegalArgument) {
		t.Errorf("NewBursaWolf() with 2 values error = %v", err)
	}
	if !(BursaWolf{DX: 1, DY: 2, DZ: 3}).IsTranslationOnly() || a.IsTranslationOnly() {
		t.Error("IsTranslationOnly() misclassified")
	}
}

func TestHorizontalDatumEqual(t *testing.T) {
	bw := BursaWolf{DX: 582, DY: 105, DZ: 414, EX: -1.04, EY: -0.35, EZ: 3.08, PPM: 8.3}
	d1 := NewHorizontalDatum("DHDN", Classic, Bessel1841, &bw)
	d2 := NewHorizontalDatum("Deutsches Hauptdreiecksnetz", Other, Bessel1841, &bw)
	d3 := NewHorizontalDatum("DHDN", Classic, Bessel1841, nil)

	if !d1.Equal(d2) {
		t.Error("datums with identical definitions should be equal")
	}
	if d1.Equal(d3) {
		t.Error("datum with parameters should differ from datum without")
	}
	bw.DX = 0
	if got, _ := d1.ToWGS84(); got.DX != 582 {
		t.Error("datum should copy its Bursa-Wolf parameters")
	}
}

func TestPrimeMeridian(t *testing.T) {
	if got := Paris.GreenwichLongitude(); math.Abs(got-2.33722917) > 1e-8 {
		t.Errorf("Paris.GreenwichLongitude() = %v", got)
	}
	if _, err := NewPrimeMeridian("bad", 1, units.Metre); !errors.Is(err, domain.NonAngularUnit) {
		t.Errorf("NewPrimeMeridian() with metre error = %v", err)
	}
	if _, err := NewPrimeMeridian("bad", 200, units.Degree); !errors.Is(err, domain.LongitudeOutOfRange) {
		t.Errorf("NewPrimeMeridian(200°) error = %v", err)
	}
}

func TestGeodesic(t *testing.T) {
	g := NewGeodesic(WGS84)

	dist, azi, _, err := g.Inverse(0, 0, 1, 0)
	if err != nil {
		t.Fatalf("Inverse() error: %v", err)
	}
	if want := WGS84.SemiMajorAxis() * math.Pi / 180; math.Abs(dist-want) > 1e-6 {
		t.Errorf("equatorial distance = %v, want %v", dist, want)
	}
	if math.Abs(azi-90) > 1e-9 {
		t.Errorf("azimuth = %v, want 90", azi)
	}

	lon, lat, err := g.Direct(0, 0, 90, dist)
	if err != nil {
		t.Fatalf("Direct() error: %v", err)
	}
	if math.Abs(lon-1) > 1e-9 || math.Abs(lat) > 1e-9 {
		t.Errorf("Direct() = (%v, %v), want (1, 0)", lon, lat)
	}

	tests := []struct {
		name                   string
		lon1, lat1, lon2, lat2 float64
	}{
		{name: "equator", lon1: 10, lat1: 0, lon2: -170, lat2: 0},
		{name: "mid latitude", lon1: 8.15, lat1: 53.2, lon2: -171.85, lat2: -53.2},
		{name: "poles", lon1: 0, lat1: 90, lon2: 45, lat2: -90},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, _, err := g.Inverse(tt.lon1, tt.lat1, tt.lon2, tt.lat2)
			if !errors.Is(err, domain.AntipodeLatitudes) {
				t.Errorf("Inverse() error = %v, want AntipodeLatitudes", err)
			}
		})
	}

	if _, _, _, err := g.Inverse(0, 91, 0, 0); !errors.Is(err, domain.LatitudeOutOfRange) {
		t.Errorf("Inverse() with latitude 91 error = %v", err)
	}
}

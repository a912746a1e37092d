package transform

import (
	"errors"
	"math"
	"testing"

	"github.com/paulmach/orb"

	"github.com/jobrunner/gauss/internal/crs/datum"
	"github.com/jobrunner/gauss/internal/crs/matrix"
	"github.com/jobrunner/gauss/internal/crs/projection"
	"github.com/jobrunner/gauss/internal/domain"
)

func mercator(t *testing.T) *Projection {
	t.Helper()
	p, err := projection.NewBuilder("merc", projection.Mercator1SP).
		Set(projection.CentralMeridian, 0).
		Build(projection.Default())
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	pr, err := projection.Default().Projector(p, datum.WGS84, projection.DefaultOptions())
	if err != nil {
		t.Fatalf("Projector() error: %v", err)
	}
	return NewProjection(pr)
}

func affine(t *testing.T, rows, cols int, data ...float64) *Affine {
	t.Helper()
	a, err := NewAffine(matrix.New(rows, cols, data))
	if err != nil {
		t.Fatalf("NewAffine() error: %v", err)
	}
	return a
}

// swapScale swaps the two axes and scales the first.
func swapScale(t *testing.T) *Affine {
	return affine(t, 3, 3,
		0, 2, 0,
		1, 0, 0,
		0, 0, 1)
}

func shift(t *testing.T, dx, dy float64) *Affine {
	return affine(t, 3, 3,
		1, 0, dx,
		0, 1, dy,
		0, 0, 1)
}

func near(a, b []float64, tol float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if math.Abs(a[i]-b[i]) > tol*math.Max(1, math.Abs(b[i])) {
			return false
		}
	}
	return true
}

func mustTransform(t *testing.T, mt MathTransform, p []float64) []float64 {
	t.Helper()
	out, err := mt.Transform(p)
	if err != nil {
		t.Fatalf("%s.Transform(%v) error: %v", mt, p, err)
	}
	return out
}

func mustConcat(t *testing.T, ts ...MathTransform) MathTransform {
	t.Helper()
	c, err := Concatenate(ts...)
	if err != nil {
		t.Fatalf("Concatenate() error: %v", err)
	}
	return c
}

func TestConcatenateAppliesInOrder(t *testing.T) {
	a, b := shift(t, 1, 2), swapScale(t)
	c := mustConcat(t, a, b)

	p := []float64{10, 20}
	want := mustTransform(t, b, mustTransform(t, a, p))
	if got := mustTransform(t, c, p); !near(got, want, 0) {
		t.Errorf("concat(A, B)(p) = %v, want B(A(p)) = %v", got, want)
	}
	if _, ok := c.(*Affine); !ok {
		t.Errorf("adjacent affine steps should merge, got %s", c)
	}

	reversed := mustTransform(t, mustConcat(t, b, a), p)
	if near(reversed, want, 0) {
		t.Error("concatenation should not be commutative for these transforms")
	}
}

func TestConcatenateAssociative(t *testing.T) {
	a, b, c := shift(t, 1, 0.5), mercator(t), shift(t, -100, 250)
	left := mustConcat(t, mustConcat(t, a, b), c)
	right := mustConcat(t, a, mustConcat(t, b, c))

	for _, p := range [][]float64{{0, 0}, {10, 45}, {-120.5, -33.25}} {
		l := mustTransform(t, left, p)
		r := mustTransform(t, right, p)
		if !near(l, r, 1e-12) {
			t.Errorf("associativity at %v: %v != %v", p, l, r)
		}
	}
	if left.String() != right.String() {
		t.Errorf("flattened chains differ: %s vs %s", left, right)
	}
}

func TestConcatenateDimensions(t *testing.T) {
	geo := NewGeocentric(datum.WGS84, true, projection.Options{})
	_, err := Concatenate(mercator(t), geo)
	if !errors.Is(err, domain.IllegalMismatchedDimension) {
		t.Errorf("Concatenate() error = %v, want IllegalMismatchedDimension", err)
	}

	id, err := Concatenate(NewIdentity(2), NewIdentity(2))
	if err != nil || !id.IsIdentity() || id.SourceDimensions() != 2 {
		t.Errorf("Concatenate(identities) = %v, %v, want identity", id, err)
	}

	a := shift(t, 3, 4)
	inv, _ := a.Inverse()
	cancel := mustConcat(t, a, inv)
	if !cancel.IsIdentity() {
		t.Errorf("Concatenate(A, A⁻¹) = %s, want identity", cancel)
	}

	if _, err := Concatenate(); err == nil {
		t.Error("Concatenate() without transforms should fail")
	}
}

func TestInverse(t *testing.T) {
	merc := mercator(t)
	chain := mustConcat(t, shift(t, 1, 1), merc, swapScale(t))

	inv, err := chain.Inverse()
	if err != nil {
		t.Fatalf("Inverse() error: %v", err)
	}
	back, err := inv.Inverse()
	if err != nil || back != chain {
		t.Errorf("Inverse().Inverse() = %p, want %p", back, chain)
	}

	mi, _ := merc.Inverse()
	if mi.Kind() != KindInverse {
		t.Errorf("projection inverse kind = %v, want Inverse", mi.Kind())
	}
	if again, _ := merc.Inverse(); again != mi {
		t.Error("projection inverse should be created once")
	}
	if back, _ := mi.Inverse(); back != MathTransform(merc) {
		t.Error("inverse of the inverse wrapper should return the projection")
	}

	for _, p := range [][]float64{{0, 0}, {12.5, 47.25}, {-170, -60}, {179, 80}} {
		q := mustTransform(t, inv, mustTransform(t, chain, p))
		if !near(q, p, 1e-9) {
			t.Errorf("round trip %v -> %v", p, q)
		}
	}
}

func TestSingularAffine(t *testing.T) {
	singular := affine(t, 3, 3,
		1, 2, 0,
		2, 4, 0,
		0, 0, 1)

	if _, err := singular.Inverse(); !errors.Is(err, domain.NonInvertibleTransform) {
		t.Errorf("Inverse() error = %v, want NonInvertibleTransform", err)
	}
	if _, err := singular.Inverse(); !errors.Is(err, domain.MatrixNotRegular) {
		t.Errorf("Inverse() error = %v, want cause MatrixNotRegular", err)
	}

	chain := mustConcat(t, mercator(t), singular)
	inv, err := chain.Inverse()
	if !errors.Is(err, domain.NonInvertibleTransform) || inv != nil {
		t.Errorf("Inverse() = %v, %v, want nil and NonInvertibleTransform", inv, err)
	}

	reduce := affine(t, 3, 4,
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 0, 1)
	if _, err := reduce.Inverse(); !errors.Is(err, domain.NonInvertibleTransform) {
		t.Errorf("Inverse() of a 3→2 affine error = %v, want NonInvertibleTransform", err)
	}
}

func TestNewAffineRejectsProjective(t *testing.T) {
	_, err := NewAffine(matrix.New(3, 3, []float64{
		1, 0, 0,
		0, 1, 0,
		0.5, 0, 1,
	}))
	if !errors.Is(err, domain.NotAnAffineTransform) {
		t.Errorf("NewAffine() error = %v, want NotAnAffineTransform", err)
	}
}

func TestIdentityIsExact(t *testing.T) {
	id := NewIdentity(3)
	for _, p := range [][]float64{{1e-300, -0.0, 1e300}, {math.Pi, math.E, math.Sqrt2}} {
		got := mustTransform(t, id, p)
		for i := range p {
			if got[i] != p[i] {
				t.Errorf("Identity(%v) = %v", p, got)
			}
		}
	}
}

func TestPassThrough(t *testing.T) {
	pt, err := NewPassThrough(0, mercator(t), 1)
	if err != nil {
		t.Fatalf("NewPassThrough() error: %v", err)
	}
	if pt.SourceDimensions() != 3 || pt.TargetDimensions() != 3 {
		t.Errorf("dimensions = %d→%d, want 3→3", pt.SourceDimensions(), pt.TargetDimensions())
	}

	got := mustTransform(t, pt, []float64{10, 0, 123.5})
	want := datum.WGS84.SemiMajorAxis() * 10 * math.Pi / 180
	if math.Abs(got[0]-want) > 1e-6 || got[1] != 0 || got[2] != 123.5 {
		t.Errorf("PassThrough() = %v, want (%v, 0, 123.5)", got, want)
	}

	d, err := pt.Derivative([]float64{10, 0, 123.5})
	if err != nil {
		t.Fatalf("Derivative() error: %v", err)
	}
	if d.Rows() != 3 || d.Cols() != 3 || d.At(2, 2) != 1 || d.At(0, 2) != 0 {
		t.Errorf("Derivative() = %v", d)
	}
	if math.Abs(d.At(0, 0)-datum.WGS84.SemiMajorAxis()*math.Pi/180) > 1e-3 {
		t.Errorf("dx/dlon = %v, want a·π/180", d.At(0, 0))
	}

	inv, err := pt.Inverse()
	if err != nil {
		t.Fatalf("Inverse() error: %v", err)
	}
	back := mustTransform(t, inv, got)
	if !near(back, []float64{10, 0, 123.5}, 1e-9) {
		t.Errorf("PassThrough round trip = %v", back)
	}

	same, _ := NewPassThrough(0, mercator(t), 0)
	if same.Kind() != KindProjection {
		t.Errorf("empty pass-through should return the sub-transform, got %s", same)
	}
}

func TestDerivative(t *testing.T) {
	a := swapScale(t)
	d, err := a.Derivative([]float64{5, 6})
	if err != nil {
		t.Fatalf("Derivative() error: %v", err)
	}
	want := matrix.New(2, 2, []float64{0, 2, 1, 0})
	if !d.Equal(want, 0) {
		t.Errorf("Derivative() = %v, want %v", d, want)
	}

	chain := mustConcat(t, mercator(t), NewIdentity(2), shift(t, 10, 10))
	d, err = chain.Derivative([]float64{0, 0})
	if err != nil {
		t.Fatalf("Derivative() error: %v", err)
	}
	// At the equator the northing scale is reduced by 1-e².
	k := datum.WGS84.SemiMajorAxis() * math.Pi / 180
	kn := k * (1 - datum.WGS84.EccentricitySquared())
	if math.Abs(d.At(0, 0)-k) > 1e-3 || math.Abs(d.At(1, 1)-kn) > 1e-3 || math.Abs(d.At(0, 1)) > 1e-6 {
		t.Errorf("Derivative() at origin = %v, want diag(%v, %v)", d, k, kn)
	}

	if _, err := a.Derivative([]float64{1}); !errors.Is(err, domain.MismatchedDimension) {
		t.Errorf("Derivative() error = %v, want MismatchedDimension", err)
	}
}

func TestTransformPoints(t *testing.T) {
	chain := mustConcat(t, mercator(t), shift(t, 1, 1))
	pts := []float64{0, 0, 10, 0, -10, 45}
	got, err := chain.TransformPoints(pts)
	if err != nil {
		t.Fatalf("TransformPoints() error: %v", err)
	}
	for i := 0; i < 3; i++ {
		one := mustTransform(t, chain, pts[2*i:2*i+2])
		if !near(got[2*i:2*i+2], one, 0) {
			t.Errorf("point %d: bulk %v != single %v", i, got[2*i:2*i+2], one)
		}
	}

	if _, err := chain.TransformPoints([]float64{1, 2, 3}); !errors.Is(err, domain.MismatchedDimension) {
		t.Errorf("TransformPoints() error = %v, want MismatchedDimension", err)
	}
	if _, err := chain.TransformPoints([]float64{0, 0, 0, 90}); !errors.Is(err, domain.PoleProjection) {
		t.Errorf("TransformPoints() error = %v, want PoleProjection", err)
	}
}

func TestNaNPropagates(t *testing.T) {
	chain := mustConcat(t, mercator(t), shift(t, 1, 1))
	got, err := chain.Transform([]float64{math.NaN(), 10})
	if err != nil {
		t.Fatalf("Transform() error: %v", err)
	}
	if !math.IsNaN(got[0]) || !math.IsNaN(got[1]) {
		t.Errorf("Transform(NaN) = %v, want NaN", got)
	}
}

func TestGeocentric(t *testing.T) {
	g := NewGeocentric(datum.WGS84, true, projection.Options{})
	lon := 2 + 7.0/60 + 46.38/3600
	lat := 53 + 48.0/60 + 33.82/3600

	got := mustTransform(t, g, []float64{lon, lat, 73})
	want := []float64{3771793.968, 140253.342, 5124304.349}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-3 {
			t.Errorf("Geocentric() = %v, want %v", got, want)
			break
		}
	}

	inv, _ := g.Inverse()
	back := mustTransform(t, inv, got)
	if math.Abs(back[0]-lon) > 1e-10 || math.Abs(back[1]-lat) > 1e-10 || math.Abs(back[2]-73) > 1e-4 {
		t.Errorf("inverse = %v, want (%v, %v, 73)", back, lon, lat)
	}

	pole := mustTransform(t, inv, []float64{0, 0, datum.WGS84.SemiMinorAxis() + 10})
	if pole[1] != 90 || math.Abs(pole[2]-10) > 1e-6 {
		t.Errorf("inverse at the pole = %v, want (0, 90, 10)", pole)
	}

	flat := NewGeocentric(datum.WGS84, false, projection.Options{})
	onSurface := mustTransform(t, flat, []float64{lon, lat})
	full := mustTransform(t, g, []float64{lon, lat, 0})
	if !near(onSurface, full, 1e-9) {
		t.Errorf("2D Geocentric() = %v, want %v", onSurface, full)
	}
	flatInv, _ := flat.Inverse()
	if back := mustTransform(t, flatInv, onSurface); len(back) != 2 || !near(back, []float64{lon, lat}, 1e-10) {
		t.Errorf("2D inverse = %v, want (%v, %v)", back, lon, lat)
	}

	stuck := NewGeocentric(datum.WGS84, true, projection.Options{Tolerance: 1e-300, MaxIterations: 1})
	stuckInv, _ := stuck.Inverse()
	if _, err := stuckInv.Transform(got); !errors.Is(err, domain.NoConvergence) {
		t.Errorf("inverse error = %v, want NoConvergence", err)
	}
}

func TestBursaWolfShift(t *testing.T) {
	bw := datum.BursaWolf{DZ: 4.5, EZ: 0.554, PPM: 0.219}
	wgs72 := datum.NewHorizontalDatum("WGS 72", datum.Geocentric, datum.WGS72, &bw)

	shift, err := NewDatumShift(wgs72, datum.WGS84Datum)
	if err != nil {
		t.Fatalf("NewDatumShift() error: %v", err)
	}
	src := []float64{3657660.66, 255768.55, 5201382.11}
	got := mustTransform(t, shift, src)
	want := []float64{3657660.78, 255778.43, 5201387.75}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 0.01 {
			t.Errorf("shift() = %v, want %v", got, want)
			break
		}
	}

	back, err := NewDatumShift(datum.WGS84Datum, wgs72)
	if err != nil {
		t.Fatalf("NewDatumShift() error: %v", err)
	}
	if rt := mustTransform(t, back, got); !near(rt, src, 1e-12) {
		t.Errorf("round trip = %v, want %v", rt, src)
	}

	same, err := NewDatumShift(wgs72, wgs72)
	if err != nil || !same.IsIdentity() {
		t.Errorf("NewDatumShift(same) = %v, %v, want identity", same, err)
	}

	unknown := datum.NewHorizontalDatum("unknown", datum.Classic, datum.Bessel1841, nil)
	if _, err := NewDatumShift(unknown, datum.WGS84Datum); !errors.Is(err, domain.BursaWolfParametersRequired) {
		t.Errorf("NewDatumShift() error = %v, want BursaWolfParametersRequired", err)
	}

	if m := NewBursaWolf(datum.BursaWolf{DX: 1, DY: 2, DZ: 3}).Method(); m != GeocentricTranslation {
		t.Errorf("translation-only method = %v, want GeocentricTranslation", m)
	}
}

func TestAbridgedMolodensky(t *testing.T) {
	m, err := NewAbridgedMolodensky(datum.WGS84, datum.International1924,
		datum.BursaWolf{DX: 84.87, DY: 96.49, DZ: 116.95}, true)
	if err != nil {
		t.Fatalf("NewAbridgedMolodensky() error: %v", err)
	}
	lon := 2 + 7.0/60 + 46.38/3600
	lat := 53 + 48.0/60 + 33.82/3600

	got := mustTransform(t, m, []float64{lon, lat, 73})
	wantLon := 2 + 7.0/60 + 51.477/3600
	wantLat := 53 + 48.0/60 + 36.565/3600
	if math.Abs(got[0]-wantLon) > 1e-5 || math.Abs(got[1]-wantLat) > 1e-5 || math.Abs(got[2]-28.02) > 0.1 {
		t.Errorf("Molodensky() = %v, want (%v, %v, 28.02)", got, wantLon, wantLat)
	}

	inv, err := m.Inverse()
	if err != nil {
		t.Fatalf("Inverse() error: %v", err)
	}
	back := mustTransform(t, inv, got)
	if math.Abs(back[0]-lon) > 1e-6 || math.Abs(back[1]-lat) > 1e-6 || math.Abs(back[2]-73) > 0.05 {
		t.Errorf("inverse = %v, want (%v, %v, 73)", back, lon, lat)
	}
	if again, _ := inv.Inverse(); again != MathTransform(m) {
		t.Error("Inverse().Inverse() should return the original shift")
	}

	if _, err := NewAbridgedMolodensky(datum.WGS84, datum.Bessel1841, datum.BursaWolf{DX: 1, EX: 0.3}, true); !errors.Is(err, domain.IllegalArgument) {
		t.Errorf("NewAbridgedMolodensky() error = %v, want IllegalArgument", err)
	}
}

func TestGeometry(t *testing.T) {
	merc := mercator(t)
	k := datum.WGS84.SemiMajorAxis() * math.Pi / 180

	poly := orb.Polygon{orb.Ring{{0, 0}, {10, 0}, {10, 0}, {0, 0}}}
	got, err := Geometry(merc, poly)
	if err != nil {
		t.Fatalf("Geometry() error: %v", err)
	}
	ring := got.(orb.Polygon)[0]
	if math.Abs(ring[1][0]-10*k) > 1e-6 || ring[1][1] != 0 {
		t.Errorf("Geometry() ring = %v", ring)
	}

	coll := orb.Collection{orb.Point{10, 0}, orb.LineString{{0, 0}, {-10, 0}}}
	got, err = Geometry(merc, coll)
	if err != nil {
		t.Fatalf("Geometry() error: %v", err)
	}
	pt := got.(orb.Collection)[0].(orb.Point)
	if math.Abs(pt[0]-10*k) > 1e-6 {
		t.Errorf("Geometry() point = %v", pt)
	}

	b, err := Geometry(merc, orb.Bound{Min: orb.Point{-10, 0}, Max: orb.Point{10, 0}})
	if err != nil {
		t.Fatalf("Geometry() error: %v", err)
	}
	if bound := b.(orb.Bound); math.Abs(bound.Max[0]-10*k) > 1e-6 || math.Abs(bound.Min[0]+10*k) > 1e-6 {
		t.Errorf("Geometry() bound = %v", bound)
	}

	if _, err := Geometry(merc, orb.LineString{{0, 0}, {0, 90}}); !errors.Is(err, domain.PoleProjection) {
		t.Errorf("Geometry() error = %v, want PoleProjection", err)
	}
	if _, err := Geometry(NewGeocentric(datum.WGS84, true, projection.Options{}), orb.Point{1, 2}); !errors.Is(err, domain.MismatchedDimension) {
		t.Errorf("Geometry() error = %v, want MismatchedDimension", err)
	}
}

// Package units provides units of measure and angle primitives used by the
// coordinate system model.
package units

import (
	"math"
	"strings"

	"github.com/jobrunner/gauss/internal/domain"
)

// Kind is the quantity a unit measures.
type Kind int

// Unit kinds.
const (
	Angular Kind = iota + 1
	Linear
	Scale
)

func (k Kind) String() string {
	switch k {
	case Angular:
		return "angular"
	case Linear:
		return "linear"
	case Scale:
		return "scale"
	default:
		return "unknown"
	}
}

// Unit is a unit of measure. ToBase converts one unit to the base unit of
// its kind (radian, metre or unity).
type Unit struct {
	Name   string
	Kind   Kind
	ToBase float64
}

// Predefined units.
var (
	Radian      = Unit{Name: "radian", Kind: Angular, ToBase: 1}
	Degree      = Unit{Name: "degree", Kind: Angular, ToBase: math.Pi / 180}
	Grad        = Unit{Name: "grad", Kind: Angular, ToBase: math.Pi / 200}
	ArcSecond   = Unit{Name: "arc-second", Kind: Angular, ToBase: math.Pi / (180 * 3600)}
	Microradian = Unit{Name: "microradian", Kind: Angular, ToBase: 1e-6}

	Metre        = Unit{Name: "metre", Kind: Linear, ToBase: 1}
	Kilometre    = Unit{Name: "kilometre", Kind: Linear, ToBase: 1000}
	Foot         = Unit{Name: "foot", Kind: Linear, ToBase: 0.3048}
	USSurveyFoot = Unit{Name: "US survey foot", Kind: Linear, ToBase: 1200.0 / 3937.0}

	Unity           = Unit{Name: "unity", Kind: Scale, ToBase: 1}
	PartsPerMillion = Unit{Name: "parts per million", Kind: Scale, ToBase: 1e-6}
)

var byName = func() map[string]Unit {
	aliases := []struct {
		unit  Unit
		names []string
	}{
		{Radian, []string{"radian", "rad"}},
		{Degree, []string{"degree", "degrees", "deg"}},
		{Grad, []string{"grad", "gon"}},
		{ArcSecond, []string{"arc-second", "arcsec"}},
		{Microradian, []string{"microradian"}},
		{Metre, []string{"metre", "meter", "m"}},
		{Kilometre, []string{"kilometre", "kilometer", "km"}},
		{Foot, []string{"foot", "ft"}},
		{USSurveyFoot, []string{"us survey foot", "us-ft", "ftus"}},
		{Unity, []string{"unity"}},
		{PartsPerMillion, []string{"parts per million", "ppm"}},
	}
	m := make(map[string]Unit)
	for _, a := range aliases {
		for _, n := range a.names {
			m[n] = a.unit
		}
	}
	return m
}()

// ByName looks up a predefined unit by name or common abbreviation.
func ByName(name string) (Unit, bool) {
	u, ok := byName[strings.ToLower(strings.TrimSpace(name))]
	return u, ok
}

// Equal reports whether both units have the same kind and scale.
func (u Unit) Equal(o Unit) bool {
	if u.Kind != o.Kind {
		return false
	}
	return math.Abs(u.ToBase-o.ToBase) <= 1e-15*math.Max(math.Abs(u.ToBase), math.Abs(o.ToBase))
}

// FactorTo returns the multiplier converting values in u to values in target.
func (u Unit) FactorTo(target Unit) (float64, error) {
	if u.Kind != target.Kind {
		return 0, domain.NewError(domain.IllegalArgument, "unit", u.Name+" -> "+target.Name)
	}
	return u.ToBase / target.ToBase, nil
}

// Convert converts v from u to target.
func (u Unit) Convert(v float64, target Unit) (float64, error) {
	f, err := u.FactorTo(target)
	if err != nil {
		return 0, err
	}
	return v * f, nil
}

// RequireAngular fails with NonAngularUnit unless u is angular.
func RequireAngular(u Unit) error {
	if u.Kind != Angular || u.ToBase <= 0 {
		return domain.NewError(domain.NonAngularUnit, u.Name)
	}
	return nil
}

// RequireLinear fails with NonLinearUnit unless u is linear.
func RequireLinear(u Unit) error {
	if u.Kind != Linear || u.ToBase <= 0 {
		return domain.NewError(domain.NonLinearUnit, u.Name)
	}
	return nil
}

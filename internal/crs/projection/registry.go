// Package projection implements map projections: validated parameter sets,
// a registry from classification name to formulas, and the forward and
// inverse formulas themselves.
package projection

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/jobrunner/gauss/internal/crs/datum"
	"github.com/jobrunner/gauss/internal/crs/units"
	"github.com/jobrunner/gauss/internal/domain"
)

// Options controls the iterative parts of the formulas.
type Options struct {
	Tolerance     float64 // Convergence tolerance in radians
	MaxIterations int     // Iteration cap before NoConvergence
}

// DefaultOptions returns the default iteration policy.
func DefaultOptions() Options {
	return Options{Tolerance: 1e-11, MaxIterations: 15}
}

func (o Options) normalized() Options {
	d := DefaultOptions()
	if !(o.Tolerance > 0) {
		o.Tolerance = d.Tolerance
	}
	if o.MaxIterations <= 0 {
		o.MaxIterations = d.MaxIterations
	}
	return o
}

// Formula is the core of a projection. Angles are in radians with the
// longitude already relative to the central meridian and wrapped to
// (-π, π]; projected values are in metres without false origin.
type Formula interface {
	Forward(lam, phi float64) (x, y float64, err error)
	Inverse(x, y float64) (lam, phi float64, err error)
}

// FormulaFunc builds a formula for a parameter set on an ellipsoid.
type FormulaFunc func(p Parameters, e datum.Ellipsoid, o Options) (Formula, error)

// Provider registers one projection classification.
type Provider struct {
	Classification string
	Aliases        []string
	Parameters     []ParameterDescriptor
	Check          func(p Parameters) error // Optional cross-parameter validation
	New            FormulaFunc
}

// Registry maps classification names and aliases to providers. It is
// immutable after construction and safe for concurrent use.
type Registry struct {
	providers map[string]*Provider
	names     []string
}

// NewRegistry creates a registry from the given providers.
func NewRegistry(providers ...Provider) (*Registry, error) {
	r := &Registry{providers: make(map[string]*Provider)}
	for i := range providers {
		p := providers[i]
		if p.Classification == "" || p.New == nil {
			return nil, fmt.Errorf("projection provider %d is incomplete", i)
		}
		for _, name := range append([]string{p.Classification}, p.Aliases...) {
			key := registryKey(name)
			if _, dup := r.providers[key]; dup {
				return nil, fmt.Errorf("projection %q registered twice", name)
			}
			r.providers[key] = &p
		}
		r.names = append(r.names, p.Classification)
	}
	sort.Strings(r.names)
	return r, nil
}

func registryKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

var defaultRegistry = func() *Registry {
	r, err := NewRegistry(builtinProviders()...)
	if err != nil {
		panic(err)
	}
	return r
}()

// Default returns the registry of built-in projections.
func Default() *Registry {
	return defaultRegistry
}

// Lookup returns the provider for a classification name or alias.
func (r *Registry) Lookup(classification string) (*Provider, error) {
	if p, ok := r.providers[registryKey(classification)]; ok {
		return p, nil
	}
	return nil, domain.NewError(domain.NoTransformForClassification, classification)
}

// Classifications returns the canonical names of all registered projections.
func (r *Registry) Classifications() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Projector binds a projection to an ellipsoid. It works in degrees on the
// geographic side and metres on the projected side.
func (r *Registry) Projector(p Projection, e datum.Ellipsoid, o Options) (*Projector, error) {
	provider, err := r.Lookup(p.Classification())
	if err != nil {
		return nil, err
	}
	values := p.values()
	f, err := provider.New(values, e, o.normalized())
	if err != nil {
		return nil, err
	}
	return &Projector{
		projection: p,
		ellipsoid:  e,
		formula:    f,
		lon0:       units.ToRadians(values[CentralMeridian]),
		fe:         values[FalseEasting],
		fn:         values[FalseNorthing],
	}, nil
}

// Projector evaluates a projection on a specific ellipsoid. It is
// immutable and safe for concurrent use.
type Projector struct {
	projection Projection
	ellipsoid  datum.Ellipsoid
	formula    Formula
	lon0       float64
	fe, fn     float64
}

// Projection returns the projected definition.
func (p *Projector) Projection() Projection { return p.projection }

// Ellipsoid returns the ellipsoid the projector works on.
func (p *Projector) Ellipsoid() datum.Ellipsoid { return p.ellipsoid }

// Forward projects longitude and latitude in degrees to easting and
// northing in metres. NaN input propagates to NaN output.
func (p *Projector) Forward(lon, lat float64) (x, y float64, err error) {
	if math.IsNaN(lon) || math.IsNaN(lat) {
		return math.NaN(), math.NaN(), nil
	}
	if err := units.CheckLatitude(lat); err != nil {
		return 0, 0, err
	}
	if math.IsInf(lon, 0) {
		return 0, 0, domain.NewError(domain.AngleOverflow, lon)
	}
	lam := units.NormalizeLongitudeRadians(units.ToRadians(lon) - p.lon0)
	x, y, err = p.formula.Forward(lam, units.ToRadians(lat))
	if err != nil {
		return 0, 0, err
	}
	return x + p.fe, y + p.fn, nil
}

// Inverse converts easting and northing in metres back to longitude and
// latitude in degrees, longitude wrapped to (-180, 180].
func (p *Projector) Inverse(x, y float64) (lon, lat float64, err error) {
	if math.IsNaN(x) || math.IsNaN(y) {
		return math.NaN(), math.NaN(), nil
	}
	if math.IsInf(x, 0) || math.IsInf(y, 0) {
		return 0, 0, domain.NewError(domain.NonFiniteCoordinate, []float64{x, y})
	}
	lam, phi, err := p.formula.Inverse(x-p.fe, y-p.fn)
	if err != nil {
		return 0, 0, err
	}
	lon = units.ToDegrees(units.NormalizeLongitudeRadians(lam + p.lon0))
	return lon, units.ToDegrees(phi), nil
}

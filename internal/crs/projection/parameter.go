package projection

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/jobrunner/gauss/internal/domain"
)

// Well-known parameter names.
const (
	CentralMeridian   = "central_meridian"
	LatitudeOfOrigin  = "latitude_of_origin"
	ScaleFactor       = "scale_factor"
	FalseEasting      = "false_easting"
	FalseNorthing     = "false_northing"
	StandardParallel1 = "standard_parallel_1"
	StandardParallel2 = "standard_parallel_2"
)

// ParameterKind drives range validation of a parameter value.
type ParameterKind int

// Parameter kinds.
const (
	Length ParameterKind = iota
	Latitude
	Longitude
	ScaleKind
)

// ParameterDescriptor declares one parameter accepted by a projection.
type ParameterDescriptor struct {
	Name     string
	Kind     ParameterKind
	Default  float64
	Required bool
}

// validate checks v against the range implied by the descriptor kind.
func (d ParameterDescriptor) validate(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return domain.NewError(domain.ParameterOutOfRange, d.Name, v)
	}
	switch d.Kind {
	case Latitude:
		if v < -90 || v > 90 {
			return domain.WrapError(domain.LatitudeOutOfRange, fmt.Errorf("parameter %q", d.Name), v)
		}
	case Longitude:
		if v < -180 || v > 180 {
			return domain.WrapError(domain.LongitudeOutOfRange, fmt.Errorf("parameter %q", d.Name), v)
		}
	case ScaleKind:
		if v <= 0 {
			return domain.NewError(domain.ParameterOutOfRange, d.Name, v)
		}
	}
	return nil
}

// Parameter is a named numeric projection parameter. Angles are in
// degrees, lengths in metres.
type Parameter struct {
	Name  string
	Value float64
}

// Parameters is the resolved parameter set handed to a formula.
type Parameters map[string]float64

// Projection is a validated map projection: a classification naming the
// formulas plus the complete parameter set, defaults included.
type Projection struct {
	name           string
	classification string
	params         []Parameter
}

// Name returns the projection name.
func (p Projection) Name() string { return p.name }

// Classification returns the canonical classification name.
func (p Projection) Classification() string { return p.classification }

// Parameters returns a copy of the parameter list in declaration order.
func (p Projection) Parameters() []Parameter {
	out := make([]Parameter, len(p.params))
	copy(out, p.params)
	return out
}

// Value returns the value of the named parameter.
func (p Projection) Value(name string) (float64, bool) {
	for _, param := range p.params {
		if param.Name == name {
			return param.Value, true
		}
	}
	return 0, false
}

func (p Projection) values() Parameters {
	m := make(Parameters, len(p.params))
	for _, param := range p.params {
		m[param.Name] = param.Value
	}
	return m
}

// Equal compares classification and parameter values. Names are not
// compared.
func (p Projection) Equal(o Projection) bool {
	if p.classification != o.classification || len(p.params) != len(o.params) {
		return false
	}
	for i := range p.params {
		if p.params[i].Name != o.params[i].Name || math.Abs(p.params[i].Value-o.params[i].Value) > 1e-12 {
			return false
		}
	}
	return true
}

// Key returns a canonical string of the defining parameters.
func (p Projection) Key() string {
	var b strings.Builder
	b.WriteString(p.classification)
	b.WriteString("(")
	for i, param := range p.params {
		if i > 0 {
			b.WriteString(",")
		}
		fmt.Fprintf(&b, "%s=%.12g", param.Name, param.Value)
	}
	b.WriteString(")")
	return b.String()
}

func (p Projection) String() string {
	return fmt.Sprintf("%s [%s]", p.name, p.Key())
}

// Builder collects projection parameters. It is a value type: every Set
// returns a new Builder and leaves the receiver unchanged, so partially
// configured builders can be shared and extended safely.
type Builder struct {
	name           string
	classification string
	values         map[string]float64
}

// NewBuilder starts a projection of the given classification.
func NewBuilder(name, classification string) Builder {
	return Builder{name: name, classification: classification}
}

// Set returns a builder with the named parameter set to v.
func (b Builder) Set(name string, v float64) Builder {
	values := make(map[string]float64, len(b.values)+1)
	for k, x := range b.values {
		values[k] = x
	}
	values[strings.ToLower(strings.TrimSpace(name))] = v
	b.values = values
	return b
}

// SetAll returns a builder with all given parameters set.
func (b Builder) SetAll(params map[string]float64) Builder {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b = b.Set(k, params[k])
	}
	return b
}

// Build validates the parameters against the registry's provider for the
// classification and returns the finished projection. It fails with
// NoTransformForClassification, UnknownParameter, MissingParameter or a
// range error naming the offending parameter.
func (b Builder) Build(reg *Registry) (Projection, error) {
	provider, err := reg.Lookup(b.classification)
	if err != nil {
		return Projection{}, err
	}

	known := make(map[string]bool, len(provider.Parameters))
	for _, d := range provider.Parameters {
		known[d.Name] = true
	}
	unknown := make([]string, 0)
	for name := range b.values {
		if !known[name] {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return Projection{}, domain.NewError(domain.UnknownParameter, unknown[0], provider.Classification)
	}

	params := make([]Parameter, 0, len(provider.Parameters))
	for _, d := range provider.Parameters {
		v, ok := b.values[d.Name]
		if !ok {
			if d.Required {
				return Projection{}, domain.NewError(domain.MissingParameter, d.Name)
			}
			v = d.Default
		}
		if err := d.validate(v); err != nil {
			return Projection{}, err
		}
		params = append(params, Parameter{Name: d.Name, Value: v})
	}

	p := Projection{name: b.name, classification: provider.Classification, params: params}
	if provider.Check != nil {
		if err := provider.Check(p.values()); err != nil {
			return Projection{}, err
		}
	}
	return p, nil
}

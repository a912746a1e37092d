// Package application contains the application services.
package application

import (
	"log/slog"
	"sync"

	"github.com/jobrunner/gauss/internal/crs/cs"
	"github.com/jobrunner/gauss/internal/crs/datum"
	"github.com/jobrunner/gauss/internal/crs/operation"
	"github.com/jobrunner/gauss/internal/crs/projection"
	"github.com/jobrunner/gauss/internal/crs/transform"
	"github.com/jobrunner/gauss/internal/crs/units"
	"github.com/jobrunner/gauss/internal/domain"
	"github.com/jobrunner/gauss/internal/ports/output"
)

// FactoryConfig holds the engine policy of a Factory.
type FactoryConfig struct {
	Options                 projection.Options // Iteration policy of projections and geocentric inverse
	DatumShift              transform.Method   // BursaWolfMethod or AbridgedMolodensky
	CacheEnabled            bool               // Cache transforms by structural key
	AllowDimensionReduction bool               // Allow dropping heights from 3D sources
}

// DefaultFactoryConfig returns the default engine policy.
func DefaultFactoryConfig() FactoryConfig {
	return FactoryConfig{
		Options:      projection.DefaultOptions(),
		DatumShift:   transform.BursaWolfMethod,
		CacheEnabled: true,
	}
}

// Factory creates coordinate systems, projections and the transformations
// between coordinate systems. It is safe for concurrent use.
type Factory struct {
	registry *projection.Registry
	cfg      FactoryConfig
	metrics  output.MetricsCollector
	logger   *slog.Logger

	mu    sync.RWMutex
	cache map[string]cachedPath
}

// cachedPath is the structural part of a transformation. Source and target
// systems are attached per call so that names follow the caller.
type cachedPath struct {
	transform transform.MathTransform
	typ       operation.Type
	accuracy  float64
}

// NewFactory creates a new factory. A nil registry selects the built-in
// projections.
func NewFactory(
	registry *projection.Registry,
	cfg FactoryConfig,
	metrics output.MetricsCollector,
	logger *slog.Logger,
) *Factory {
	if registry == nil {
		registry = projection.Default()
	}
	return &Factory{
		registry: registry,
		cfg:      cfg,
		metrics:  metrics,
		logger:   logger,
		cache:    make(map[string]cachedPath),
	}
}

// Registry returns the projection registry of the factory.
func (f *Factory) Registry() *projection.Registry {
	return f.registry
}

// CreateGeographicCoordinateSystem creates a two-dimensional geographic
// system.
func (f *Factory) CreateGeographicCoordinateSystem(
	name string,
	angularUnit units.Unit,
	d datum.HorizontalDatum,
	pm datum.PrimeMeridian,
	axis0, axis1 cs.AxisInfo,
) (*cs.Geographic, error) {
	return cs.NewGeographic(name, angularUnit, d, pm, axis0, axis1)
}

// CreateProjectedCoordinateSystem creates a projected system. The
// projection is instantiated on the base ellipsoid once so that formula
// level failures surface here and not on first use.
func (f *Factory) CreateProjectedCoordinateSystem(
	name string,
	base *cs.Geographic,
	p projection.Projection,
	linearUnit units.Unit,
	axis0, axis1 cs.AxisInfo,
) (*cs.Projected, error) {
	pcs, err := cs.NewProjected(name, base, p, linearUnit, axis0, axis1)
	if err != nil {
		return nil, err
	}
	if _, err := f.registry.Projector(p, base.Datum().Ellipsoid(), f.cfg.Options); err != nil {
		return nil, err
	}
	return pcs, nil
}

// CreateProjection builds and validates a projection of the given
// classification from a parameter list.
func (f *Factory) CreateProjection(name, classification string, params []projection.Parameter) (projection.Projection, error) {
	b := projection.NewBuilder(name, classification)
	for _, p := range params {
		b = b.Set(p.Name, p.Value)
	}
	return b.Build(f.registry)
}

// CreateFromCoordinateSystems returns the transformation from source to
// target. Path selection is deterministic: equal inputs always produce the
// same chain of steps.
func (f *Factory) CreateFromCoordinateSystems(source, target cs.CoordinateSystem) (*operation.CoordinateTransformation, error) {
	if source == nil || target == nil {
		return nil, domain.NewError(domain.IllegalArgument, "coordinate system", nil)
	}

	key := source.Key() + "→" + target.Key()
	if f.cfg.CacheEnabled {
		f.mu.RLock()
		cached, ok := f.cache[key]
		f.mu.RUnlock()
		f.metrics.IncCacheLookup(ok)
		if ok {
			return operation.New(source, target, cached.transform, cached.typ, cached.accuracy)
		}
	}

	path, err := f.createPath(source, target)
	if err != nil {
		f.logger.Debug("no transformation path",
			"source", source.Name(),
			"target", target.Name(),
			"error", err,
		)
		return nil, err
	}

	f.logger.Debug("transformation path",
		"source", source.Name(),
		"target", target.Name(),
		"type", path.typ.String(),
		"steps", path.transform.String(),
	)

	if f.cfg.CacheEnabled {
		f.mu.Lock()
		f.cache[key] = path
		f.mu.Unlock()
	}
	return operation.New(source, target, path.transform, path.typ, path.accuracy)
}

// CacheSize returns the number of cached transformation paths.
func (f *Factory) CacheSize() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.cache)
}

// ClearCache drops all cached transformation paths.
func (f *Factory) ClearCache() {
	f.mu.Lock()
	f.cache = make(map[string]cachedPath)
	f.mu.Unlock()
}

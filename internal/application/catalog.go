package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/jobrunner/gauss/internal/crs/cs"
	"github.com/jobrunner/gauss/internal/crs/operation"
	"github.com/jobrunner/gauss/internal/domain"
	"github.com/jobrunner/gauss/internal/ports/output"
)

// Catalog maps CRS codes to coordinate systems. Definitions are grouped in
// layers by origin; the built-in layer comes first and later layers
// override codes of earlier ones.
type Catalog struct {
	mu      sync.RWMutex
	layers  map[string][]domain.CRSDefinition
	origins []string
	entries map[int]*catalogEntry
	factory *Factory
	metrics output.MetricsCollector
	logger  *slog.Logger
}

type catalogEntry struct {
	System     cs.CoordinateSystem
	Definition domain.CRSDefinition
	Origin     string
}

// NewCatalog creates a catalog seeded with the built-in definitions.
func NewCatalog(factory *Factory, metrics output.MetricsCollector, logger *slog.Logger) (*Catalog, error) {
	c := &Catalog{
		layers:  make(map[string][]domain.CRSDefinition),
		entries: make(map[int]*catalogEntry),
		factory: factory,
		metrics: metrics,
		logger:  logger,
	}
	if err := c.Replace(domain.OriginBuiltin, BuiltinDefinitions()); err != nil {
		return nil, fmt.Errorf("building built-in catalog: %w", err)
	}
	return c, nil
}

// Load reads a definition source and replaces the layer of its location.
func (c *Catalog) Load(ctx context.Context, src output.DefinitionSource) error {
	defs, err := src.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading definitions from %s: %w", src.Location(), err)
	}
	return c.Replace(src.Location(), defs)
}

// Replace sets the definitions of an origin and rebuilds the catalog.
// Definitions that cannot be built are skipped; their errors are returned
// joined, and the rest of the catalog stays usable.
func (c *Catalog) Replace(origin string, defs []domain.CRSDefinition) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.layers[origin]; !ok {
		c.origins = append(c.origins, origin)
	}
	c.layers[origin] = defs
	return c.rebuild()
}

// Remove drops the definitions of an origin. The built-in layer cannot be
// removed.
func (c *Catalog) Remove(origin string) error {
	if origin == domain.OriginBuiltin {
		return domain.NewError(domain.IllegalArgument, "origin", origin)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.layers[origin]; !ok {
		return nil
	}
	delete(c.layers, origin)
	for i, o := range c.origins {
		if o == origin {
			c.origins = append(c.origins[:i], c.origins[i+1:]...)
			break
		}
	}
	return c.rebuild()
}

// rebuild recreates all entries from the layers. Caller holds the lock.
func (c *Catalog) rebuild() error {
	merged := make(map[int]domain.CRSDefinition)
	originOf := make(map[int]string)
	for _, origin := range c.origins {
		for _, def := range c.layers[origin] {
			if prev, ok := originOf[def.Code]; ok {
				c.logger.Debug("crs definition overridden",
					"code", def.Code,
					"origin", origin,
					"previous", prev,
				)
			}
			merged[def.Code] = def
			originOf[def.Code] = origin
		}
	}

	codes := make([]int, 0, len(merged))
	for code := range merged {
		codes = append(codes, code)
	}
	sort.Ints(codes)

	r := newResolver(c.factory, merged)
	entries := make(map[int]*catalogEntry, len(codes))
	var errs []error
	for _, code := range codes {
		system, err := r.resolve(code)
		if err != nil {
			c.logger.Warn("skipping crs definition",
				"code", code,
				"origin", originOf[code],
				"error", err,
			)
			errs = append(errs, err)
			continue
		}
		entries[code] = &catalogEntry{
			System:     system,
			Definition: merged[code],
			Origin:     originOf[code],
		}
	}

	c.entries = entries
	c.metrics.SetCatalogSize(len(entries))
	c.logger.Debug("catalog rebuilt", "systems", len(entries), "failed", len(errs))
	return errors.Join(errs...)
}

// Lookup returns the coordinate system of a code.
func (c *Catalog) Lookup(code int) (cs.CoordinateSystem, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[code]
	if !ok {
		return nil, fmt.Errorf("%w: %d", domain.ErrUnknownCRS, code)
	}
	return entry.System, nil
}

// Contains returns true if the catalog knows the code.
func (c *Catalog) Contains(code int) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.entries[code]
	return ok
}

// Entry returns the catalog entry of a code.
func (c *Catalog) Entry(code int) (domain.CatalogEntry, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[code]
	if !ok {
		return domain.CatalogEntry{}, fmt.Errorf("%w: %d", domain.ErrUnknownCRS, code)
	}
	return entry.summary(code), nil
}

// Definition returns the definition a code was built from.
func (c *Catalog) Definition(code int) (domain.CRSDefinition, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[code]
	if !ok {
		return domain.CRSDefinition{}, fmt.Errorf("%w: %d", domain.ErrUnknownCRS, code)
	}
	return entry.Definition, nil
}

// List returns all entries ordered by code.
func (c *Catalog) List() []domain.CatalogEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	list := make([]domain.CatalogEntry, 0, len(c.entries))
	for code, entry := range c.entries {
		list = append(list, entry.summary(code))
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Code < list[j].Code })
	return list
}

// Size returns the number of coordinate systems.
func (c *Catalog) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Transformation returns the operation between two codes.
func (c *Catalog) Transformation(source, target int) (*operation.CoordinateTransformation, error) {
	src, err := c.Lookup(source)
	if err != nil {
		return nil, err
	}
	tgt, err := c.Lookup(target)
	if err != nil {
		return nil, err
	}
	return c.factory.CreateFromCoordinateSystems(src, tgt)
}

func (e *catalogEntry) summary(code int) domain.CatalogEntry {
	return domain.CatalogEntry{
		Code:      code,
		Name:      e.System.Name(),
		Kind:      e.Definition.Kind,
		Dimension: e.System.Dimension(),
		Origin:    e.Origin,
	}
}

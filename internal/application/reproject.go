package application

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"golang.org/x/sync/errgroup"

	"github.com/jobrunner/gauss/internal/crs/transform"
	"github.com/jobrunner/gauss/internal/domain"
	"github.com/jobrunner/gauss/internal/ports/output"
)

// DefaultWorkers is the number of features reprojected in parallel when no
// worker count is configured.
const DefaultWorkers = 4

// ReprojectConfig holds the reprojection service configuration.
type ReprojectConfig struct {
	Workers   int    // Features reprojected in parallel
	OutputDir string // Directory ReprojectFile writes to
}

// ReprojectService reprojects GeoJSON feature collections between catalog
// codes.
type ReprojectService struct {
	catalog *Catalog
	config  ReprojectConfig
	metrics output.MetricsCollector
	logger  *slog.Logger
}

// NewReprojectService creates a new reprojection service.
func NewReprojectService(
	catalog *Catalog,
	config ReprojectConfig,
	metrics output.MetricsCollector,
	logger *slog.Logger,
) *ReprojectService {
	if config.Workers <= 0 {
		config.Workers = DefaultWorkers
	}
	return &ReprojectService{
		catalog: catalog,
		config:  config,
		metrics: metrics,
		logger:  logger,
	}
}

// Reproject reads a feature collection from r and writes the reprojected
// collection to w. A source code of 0 takes the code from the collection's
// "crs" member, or EPSG:4326 when there is none. Features that fail are
// left out of the output and listed in the report.
func (s *ReprojectService) Reproject(ctx context.Context, r io.Reader, w io.Writer, source, target int) (*domain.ReprojectReport, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading feature collection: %w", err)
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("decoding feature collection: %w", err)
	}

	if source == 0 {
		source = collectionCRS(fc)
	}
	report, err := s.ReprojectCollection(ctx, fc, source, target)
	if err != nil {
		return nil, err
	}

	out, err := fc.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("encoding feature collection: %w", err)
	}
	if _, err := w.Write(out); err != nil {
		return nil, fmt.Errorf("writing feature collection: %w", err)
	}
	return report, nil
}

// ReprojectCollection reprojects the features of fc in place.
func (s *ReprojectService) ReprojectCollection(ctx context.Context, fc *geojson.FeatureCollection, source, target int) (*domain.ReprojectReport, error) {
	ct, err := s.catalog.Transformation(source, target)
	if err != nil {
		return nil, err
	}
	mt := ct.MathTransform()
	if mt.SourceDimensions() != 2 || mt.TargetDimensions() != 2 {
		return nil, domain.NewError(domain.MismatchedDimension, ct.String(), mt.SourceDimensions(), 2)
	}
	pair := pairLabel(source, target)

	start := time.Now()
	geometries := make([]orb.Geometry, len(fc.Features))
	failures := make([]error, len(fc.Features))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.Workers)
	for i, f := range fc.Features {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			geometries[i], failures[i] = reprojectGeometry(mt, f.Geometry)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &domain.ReprojectReport{Features: len(fc.Features), Extent: domain.NewExtent(target)}
	kept := fc.Features[:0]
	for i, f := range fc.Features {
		if failures[i] != nil {
			report.Failed++
			report.Errors = append(report.Errors, domain.FeatureError{Index: i, ID: f.ID, Err: failures[i]})
			continue
		}
		f.Geometry = geometries[i]
		if f.Geometry != nil {
			bound := f.Geometry.Bound()
			report.Extent.Extend(bound.Min.X(), bound.Min.Y())
			report.Extent.Extend(bound.Max.X(), bound.Max.Y())
			if f.BBox != nil {
				f.BBox = geojson.NewBBox(bound)
			}
		}
		kept = append(kept, f)
	}
	fc.Features = kept
	fc.BBox = nil
	setCollectionCRS(fc, target)

	s.metrics.ObserveTransformDuration(pair, time.Since(start))
	s.metrics.IncTransformCount(pair, report.Features-report.Failed, true)
	if report.Failed > 0 {
		s.metrics.IncTransformCount(pair, report.Failed, false)
		s.logger.Warn("features not reprojected",
			"source", source,
			"target", target,
			"failed", report.Failed,
			"features", report.Features,
		)
	}
	return report, nil
}

// ReprojectFile reprojects a GeoJSON file into the output directory under
// the same name. The output is written to a temporary file first and
// renamed when complete.
func (s *ReprojectService) ReprojectFile(ctx context.Context, path string, source, target int) (*domain.ReprojectReport, error) {
	start := time.Now()
	report, err := s.reprojectFile(ctx, path, source, target)
	s.metrics.IncFileOperations("reproject", err == nil)
	s.metrics.ObserveFileDuration("reproject", time.Since(start))
	if err != nil {
		s.logger.Error("reprojecting file failed", "path", path, "error", err)
		return nil, err
	}
	s.logger.Info("file reprojected",
		"path", path,
		"features", report.Features,
		"failed", report.Failed,
		"duration", time.Since(start),
	)
	return report, nil
}

func (s *ReprojectService) reprojectFile(ctx context.Context, path string, source, target int) (*domain.ReprojectReport, error) {
	if s.config.OutputDir == "" {
		return nil, &domain.ConfigError{Field: "batch.outbox", Message: "output directory is not set"}
	}
	in, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var buf bytes.Buffer
	report, err := s.Reproject(ctx, bytes.NewReader(in), &buf, source, target)
	if err != nil {
		return nil, fmt.Errorf("reprojecting %s: %w", path, err)
	}

	if err := os.MkdirAll(s.config.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	dst := filepath.Join(s.config.OutputDir, filepath.Base(path))
	tmp := dst + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return nil, fmt.Errorf("writing %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, dst); err != nil {
		_ = os.Remove(tmp)
		return nil, fmt.Errorf("renaming %s: %w", tmp, err)
	}
	return report, nil
}

func reprojectGeometry(mt transform.MathTransform, g orb.Geometry) (orb.Geometry, error) {
	if g == nil {
		return nil, nil
	}
	out, err := transform.Geometry(mt, g)
	if err != nil {
		return nil, err
	}
	if !finiteGeometry(out) {
		return nil, domain.NewError(domain.NonFiniteCoordinate, out.GeoJSONType())
	}
	return out, nil
}

func finiteGeometry(g orb.Geometry) bool {
	switch v := g.(type) {
	case orb.Point:
		return finitePoints(v)
	case orb.MultiPoint:
		return finitePoints(v...)
	case orb.LineString:
		return finitePoints(v...)
	case orb.Ring:
		return finitePoints(v...)
	case orb.MultiLineString:
		for _, ls := range v {
			if !finitePoints(ls...) {
				return false
			}
		}
	case orb.Polygon:
		for _, r := range v {
			if !finitePoints(r...) {
				return false
			}
		}
	case orb.MultiPolygon:
		for _, p := range v {
			if !finiteGeometry(p) {
				return false
			}
		}
	case orb.Collection:
		for _, m := range v {
			if !finiteGeometry(m) {
				return false
			}
		}
	case orb.Bound:
		return finitePoints(v.Min, v.Max)
	}
	return true
}

func finitePoints(pts ...orb.Point) bool {
	for _, p := range pts {
		for _, v := range p {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return false
			}
		}
	}
	return true
}

// collectionCRS returns the EPSG code named by the legacy "crs" member of
// a feature collection, or 4326.
func collectionCRS(fc *geojson.FeatureCollection) int {
	member, ok := fc.ExtraMembers["crs"].(map[string]interface{})
	if !ok {
		return domain.SRIDWGS84
	}
	props, ok := member["properties"].(map[string]interface{})
	if !ok {
		return domain.SRIDWGS84
	}
	name, _ := props["name"].(string)
	if code, ok := parseCRSName(name); ok {
		return code
	}
	return domain.SRIDWGS84
}

// parseCRSName parses "EPSG:3857", "urn:ogc:def:crs:EPSG::3857" and the
// OGC CRS84 name.
func parseCRSName(name string) (int, bool) {
	name = strings.TrimSpace(name)
	if strings.HasSuffix(name, "CRS84") {
		return domain.SRIDWGS84, true
	}
	i := strings.LastIndex(name, ":")
	if i < 0 || !strings.Contains(strings.ToUpper(name), "EPSG") {
		return 0, false
	}
	code, err := strconv.Atoi(name[i+1:])
	if err != nil || code <= 0 {
		return 0, false
	}
	return code, true
}

// setCollectionCRS names the target system in the "crs" member. WGS 84
// output carries no member.
func setCollectionCRS(fc *geojson.FeatureCollection, code int) {
	if code == domain.SRIDWGS84 {
		delete(fc.ExtraMembers, "crs")
		return
	}
	if fc.ExtraMembers == nil {
		fc.ExtraMembers = geojson.Properties{}
	}
	fc.ExtraMembers["crs"] = map[string]interface{}{
		"type": "name",
		"properties": map[string]interface{}{
			"name": fmt.Sprintf("urn:ogc:def:crs:EPSG::%d", code),
		},
	}
}

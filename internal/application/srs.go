package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jobrunner/gauss/internal/domain"
	"github.com/jobrunner/gauss/internal/ports/output"
)

// SpatialRefService resolves the spatial reference systems of GeoPackage
// files against the catalog.
type SpatialRefService struct {
	reader  output.SpatialRefReader
	catalog *Catalog
	logger  *slog.Logger
}

// NewSpatialRefService creates a new spatial reference service.
func NewSpatialRefService(reader output.SpatialRefReader, catalog *Catalog, logger *slog.Logger) *SpatialRefService {
	return &SpatialRefService{
		reader:  reader,
		catalog: catalog,
		logger:  logger,
	}
}

// Inspect returns the status of every spatial reference system declared by
// the GeoPackage at path.
func (s *SpatialRefService) Inspect(ctx context.Context, path string) ([]domain.SRSStatus, error) {
	rows, err := s.reader.ReadSpatialRefSys(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("reading spatial reference systems of %s: %w", path, err)
	}

	result := make([]domain.SRSStatus, 0, len(rows))
	for _, row := range rows {
		result = append(result, s.status(row))
	}

	s.logger.Debug("inspected geopackage", "path", path, "systems", len(result))
	return result, nil
}

func (s *SpatialRefService) status(row domain.SpatialRefSys) domain.SRSStatus {
	st := domain.SRSStatus{SpatialRefSys: row}

	switch row.ID {
	case domain.SRSUndefinedCartesian:
		st.Reason = "undefined cartesian system"
		return st
	case domain.SRSUndefinedGeographic:
		st.Reason = "undefined geographic system"
		return st
	}

	code, ok := row.EPSGCode()
	if !ok {
		st.Reason = fmt.Sprintf("organization %q is not EPSG", row.Organization)
		return st
	}
	st.Code = code
	if !s.catalog.Contains(code) {
		st.Reason = "code not in catalog"
		return st
	}
	st.Supported = true
	return st
}

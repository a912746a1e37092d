package application

import "github.com/jobrunner/gauss/internal/ports/input"

var (
	_ input.TransformService  = (*Transformer)(nil)
	_ input.ReprojectService  = (*ReprojectService)(nil)
	_ input.CatalogService    = (*Catalog)(nil)
	_ input.SpatialRefService = (*SpatialRefService)(nil)
)

// Package app provides application initialization and wiring.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jobrunner/gauss/internal/adapters/definitions"
	"github.com/jobrunner/gauss/internal/adapters/geopackage"
	"github.com/jobrunner/gauss/internal/adapters/metrics"
	"github.com/jobrunner/gauss/internal/adapters/watcher"
	"github.com/jobrunner/gauss/internal/application"
	"github.com/jobrunner/gauss/internal/config"
	"github.com/jobrunner/gauss/internal/crs/projection"
	"github.com/jobrunner/gauss/internal/crs/transform"
	"github.com/jobrunner/gauss/internal/ports/output"
)

// App holds all application components.
type App struct {
	Config      *config.Config
	Logger      *slog.Logger
	Metrics     *metrics.Collector
	Factory     *application.Factory
	Catalog     *application.Catalog
	Definitions *definitions.File
	Transformer *application.Transformer
	Reproject   *application.ReprojectService
	Console     *application.Console
	SpatialRefs *application.SpatialRefService
	Inbox       *application.InboxService

	catalogWatcher *watcher.Watcher
	inboxWatcher   *watcher.Watcher
}

// New creates and initializes a new application.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	// Initialize metrics
	if cfg.Metrics.Enabled || cfg.Metrics.Textfile != "" {
		app.Metrics = metrics.NewCollector("gauss")
	}

	var metricsCollector output.MetricsCollector
	if app.Metrics != nil {
		metricsCollector = app.Metrics
	} else {
		metricsCollector = &output.NoOpMetrics{}
	}

	// Initialize factory
	app.Factory = application.NewFactory(nil, factoryConfig(cfg.Engine), metricsCollector, logger)

	// Initialize catalog
	catalog, err := application.NewCatalog(app.Factory, metricsCollector, logger)
	if err != nil {
		return nil, fmt.Errorf("initializing catalog: %w", err)
	}
	app.Catalog = catalog

	if cfg.Catalog.Path != "" {
		app.Definitions = definitions.NewFile(cfg.Catalog.Path)
		if err := app.loadDefinitions(ctx); err != nil {
			return nil, err
		}
	}

	// Initialize services
	app.Transformer = application.NewTransformer(app.Catalog, metricsCollector, logger)
	app.Reproject = application.NewReprojectService(
		app.Catalog,
		application.ReprojectConfig{
			Workers:   cfg.Batch.Workers,
			OutputDir: cfg.Batch.Outbox,
		},
		metricsCollector,
		logger,
	)
	app.Console = application.NewConsole(app.Catalog, metricsCollector, logger)
	app.SpatialRefs = application.NewSpatialRefService(geopackage.NewReader(), app.Catalog, logger)

	// Initialize file watcher for catalog hot-reload
	if cfg.Catalog.Watch && app.Definitions != nil {
		w, err := watcher.New(
			watcher.Config{
				Paths:      []string{filepath.Dir(cfg.Catalog.Path)},
				Extensions: []string{filepath.Ext(cfg.Catalog.Path)},
				Debounce:   cfg.Batch.Debounce,
			},
			app.handleCatalogEvent,
			logger,
		)
		if err != nil {
			logger.Warn("failed to initialize catalog watcher", "error", err)
		} else {
			app.catalogWatcher = w
		}
	}

	return app, nil
}

// factoryConfig maps the engine configuration to the factory policy.
func factoryConfig(cfg config.EngineConfig) application.FactoryConfig {
	fc := application.FactoryConfig{
		Options: projection.Options{
			Tolerance:     cfg.Tolerance,
			MaxIterations: cfg.MaxIterations,
		},
		DatumShift:              transform.BursaWolfMethod,
		CacheEnabled:            cfg.CacheEnabled,
		AllowDimensionReduction: cfg.AllowDimensionReduction,
	}
	if cfg.DatumShift == config.DatumShiftMolodensky {
		fc.DatumShift = transform.AbridgedMolodensky
	}
	return fc
}

// Start starts the long running components.
func (a *App) Start(ctx context.Context) error {
	if a.catalogWatcher != nil {
		if err := a.catalogWatcher.Start(ctx); err != nil {
			a.Logger.Warn("failed to start catalog watcher", "error", err)
		}
	}
	return nil
}

// Watch reprojects the files of the inbox from source to target and keeps
// watching it for new files until ctx is done.
func (a *App) Watch(ctx context.Context, source, target int) error {
	if a.Config.Batch.Inbox == "" {
		return fmt.Errorf("watching inbox: batch.inbox is not set")
	}
	if _, err := a.Catalog.Transformation(source, target); err != nil {
		return err
	}

	if err := os.MkdirAll(a.Config.Batch.Inbox, 0o755); err != nil {
		return fmt.Errorf("creating inbox: %w", err)
	}

	a.Inbox = application.NewInboxService(a.Reproject, a.Config.Batch.Inbox, source, target, a.Logger)

	w, err := watcher.New(
		watcher.Config{
			Paths:      []string{a.Config.Batch.Inbox},
			Extensions: []string{".geojson", ".json"},
			Debounce:   a.Config.Batch.Debounce,
		},
		a.handleInboxEvent,
		a.Logger,
	)
	if err != nil {
		return fmt.Errorf("initializing inbox watcher: %w", err)
	}
	a.inboxWatcher = w

	a.Inbox.Start(ctx)
	if err := w.Start(ctx); err != nil {
		return fmt.Errorf("starting inbox watcher: %w", err)
	}
	return nil
}

// Shutdown stops the watchers and writes the metrics textfile.
func (a *App) Shutdown(_ context.Context) error {
	a.Logger.Info("shutting down application")

	// Stop watchers
	if a.catalogWatcher != nil {
		_ = a.catalogWatcher.Stop()
	}
	if a.inboxWatcher != nil {
		_ = a.inboxWatcher.Stop()
	}
	if a.Inbox != nil {
		a.Inbox.Wait()
		stats := a.Inbox.Stats()
		a.Logger.Info("inbox stopped",
			"processed", stats.Processed,
			"failed", stats.Failed,
			"features", stats.Features,
		)
	}

	// Export metrics
	if a.Metrics != nil && a.Config.Metrics.Textfile != "" {
		if err := a.Metrics.WriteToTextfile(a.Config.Metrics.Textfile); err != nil {
			a.Logger.Error("failed to write metrics", "error", err)
			return err
		}
		a.Logger.Debug("metrics written", "path", a.Config.Metrics.Textfile)
	}

	return nil
}

// loadDefinitions reads the definition file into the catalog. Definitions
// that fail to build are logged by the catalog and skipped.
func (a *App) loadDefinitions(ctx context.Context) error {
	defs, err := a.Definitions.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading catalog: %w", err)
	}
	if err := a.Catalog.Replace(a.Definitions.Location(), defs); err != nil {
		a.Logger.Warn("catalog definitions skipped", "path", a.Definitions.Location(), "error", err)
	}
	a.Logger.Info("catalog loaded", "path", a.Definitions.Location(), "definitions", len(defs), "systems", a.Catalog.Size())
	return nil
}

// handleCatalogEvent reloads the catalog when its definition file changes.
func (a *App) handleCatalogEvent(ctx context.Context, event watcher.Event) error {
	if !samePath(event.Path, a.Definitions.Location()) {
		return nil
	}
	a.Logger.Info("file event", "path", event.Path, "operation", event.Operation.String())

	switch event.Operation {
	case watcher.OpCreate, watcher.OpModify:
		if err := a.loadDefinitions(ctx); err != nil {
			a.Logger.Warn("failed to reload catalog, keeping previous definitions", "error", err)
			return err
		}

	case watcher.OpDelete:
		if err := a.Catalog.Remove(a.Definitions.Location()); err != nil {
			return err
		}
		a.Logger.Info("catalog definitions removed", "path", event.Path, "systems", a.Catalog.Size())
	}

	// Cached paths may refer to replaced systems
	a.Factory.ClearCache()
	return nil
}

// handleInboxEvent reprojects files created or modified in the inbox.
func (a *App) handleInboxEvent(ctx context.Context, event watcher.Event) error {
	a.Logger.Debug("file event", "path", event.Path, "operation", event.Operation.String())

	switch event.Operation {
	case watcher.OpCreate, watcher.OpModify:
		return a.Inbox.Process(ctx, event.Path)
	}
	return nil
}

func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}

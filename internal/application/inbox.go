package application

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// InboxStats counts the files handled by an inbox.
type InboxStats struct {
	Processed   int       `json:"processed"`
	Failed      int       `json:"failed"`
	Features    int       `json:"features"`
	LastFileAt  time.Time `json:"last_file_at,omitempty"`
	LastFileErr string    `json:"last_file_error,omitempty"`
}

// InboxService reprojects GeoJSON files dropped into an inbox directory.
type InboxService struct {
	reproject *ReprojectService
	dir       string
	source    int
	target    int
	logger    *slog.Logger

	// Lifecycle management
	wg sync.WaitGroup

	// Serializes file processing
	processMu sync.Mutex

	stats   InboxStats
	statsMu sync.RWMutex
}

// NewInboxService creates a new inbox service.
func NewInboxService(reproject *ReprojectService, dir string, source, target int, logger *slog.Logger) *InboxService {
	return &InboxService{
		reproject: reproject,
		dir:       dir,
		source:    source,
		target:    target,
		logger:    logger,
	}
}

// Start reprojects the files already present in the inbox in the
// background.
func (s *InboxService) Start(ctx context.Context) {
	s.logger.Info("starting inbox", "dir", s.dir, "source", s.source, "target", s.target)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.scan(ctx)
	}()
}

// Wait blocks until the initial scan has finished.
func (s *InboxService) Wait() {
	s.wg.Wait()
}

// scan processes existing inbox files in name order.
func (s *InboxService) scan(ctx context.Context) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		s.logger.Error("reading inbox failed", "dir", s.dir, "error", err)
		return
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && IsGeoJSONFile(e.Name()) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		if ctx.Err() != nil {
			s.logger.Info("inbox scan stopped: context canceled")
			return
		}
		_ = s.Process(ctx, filepath.Join(s.dir, name))
	}
}

// Process reprojects a single inbox file. Files that are not GeoJSON or no
// longer exist are ignored.
func (s *InboxService) Process(ctx context.Context, path string) error {
	if !IsGeoJSONFile(path) {
		return nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		s.logger.Debug("inbox file vanished", "path", path)
		return nil
	}

	// Prevent concurrent processing
	s.processMu.Lock()
	defer s.processMu.Unlock()

	report, err := s.reproject.ReprojectFile(ctx, path, s.source, s.target)

	s.statsMu.Lock()
	defer s.statsMu.Unlock()
	s.stats.LastFileAt = time.Now()
	if err != nil {
		s.stats.Failed++
		s.stats.LastFileErr = err.Error()
		return err
	}
	s.stats.Processed++
	s.stats.Features += report.Features - report.Failed
	s.stats.LastFileErr = ""
	return nil
}

// Stats returns the inbox counters.
func (s *InboxService) Stats() InboxStats {
	s.statsMu.RLock()
	defer s.statsMu.RUnlock()
	return s.stats
}

// Dir returns the inbox directory.
func (s *InboxService) Dir() string {
	return s.dir
}

// IsGeoJSONFile checks if the path names a GeoJSON file.
func IsGeoJSONFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".geojson" || ext == ".json"
}

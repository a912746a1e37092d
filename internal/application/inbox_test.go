package application

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestInboxStart(t *testing.T) {
	dir := t.TempDir()
	inbox := filepath.Join(dir, "inbox")
	outbox := filepath.Join(dir, "outbox")
	if err := os.MkdirAll(inbox, 0o755); err != nil {
		t.Fatalf("MkdirAll() error: %v", err)
	}

	files := map[string]string{
		"a.geojson": testCollection,
		"b.json":    "not json",
		"notes.txt": "ignored",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(inbox, name), []byte(content), 0o644); err != nil {
			t.Fatalf("WriteFile() error: %v", err)
		}
	}

	metrics := newMockMetrics()
	service := NewInboxService(newTestReprojectService(t, metrics, outbox), inbox, 4326, 3857, testLogger())
	service.Start(context.Background())
	service.Wait()

	stats := service.Stats()
	if stats.Processed != 1 || stats.Failed != 1 {
		t.Errorf("Stats() = %+v, want 1 processed and 1 failed", stats)
	}
	if stats.Features != 2 {
		t.Errorf("Stats().Features = %d, want 2", stats.Features)
	}
	if stats.LastFileAt.IsZero() {
		t.Error("Stats().LastFileAt is zero")
	}

	if _, err := os.Stat(filepath.Join(outbox, "a.geojson")); err != nil {
		t.Errorf("output of a.geojson: %v", err)
	}
	if _, err := os.Stat(filepath.Join(outbox, "notes.txt")); !os.IsNotExist(err) {
		t.Errorf("notes.txt was processed: %v", err)
	}
}

func TestInboxProcessIgnoresFiles(t *testing.T) {
	dir := t.TempDir()
	service := NewInboxService(newTestReprojectService(t, newMockMetrics(), dir), dir, 4326, 3857, testLogger())

	tests := []struct {
		name string
		path string
	}{
		{"not geojson", filepath.Join(dir, "data.csv")},
		{"vanished", filepath.Join(dir, "gone.geojson")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := service.Process(context.Background(), tt.path); err != nil {
				t.Errorf("Process(%q) error = %v, want nil", tt.path, err)
			}
		})
	}

	if stats := service.Stats(); stats.Processed != 0 || stats.Failed != 0 {
		t.Errorf("Stats() = %+v, want nothing processed", stats)
	}
	if service.Dir() != dir {
		t.Errorf("Dir() = %q, want %q", service.Dir(), dir)
	}
}

func TestIsGeoJSONFile(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"a.geojson", true},
		{"/in/A.GEOJSON", true},
		{"b.json", true},
		{"c.geojson.tmp", false},
		{"d.gpkg", false},
		{"geojson", false},
	}

	for _, tt := range tests {
		if got := IsGeoJSONFile(tt.path); got != tt.want {
			t.Errorf("IsGeoJSONFile(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

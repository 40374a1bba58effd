package healthcheck

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/l3aro/go-spygen/internal/config"
	"github.com/l3aro/go-spygen/pkg/cache"
	"github.com/l3aro/go-spygen/pkg/types"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	rtl := filepath.Join(dir, "rtl")
	if err := os.MkdirAll(rtl, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(rtl, "top.sv"), []byte("module top;\nendmodule\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := config.DefaultConfig()
	cfg.RTLPath = rtl
	cfg.OutputDir = dir
	cfg.CacheDir = filepath.Join(dir, "cache")
	return cfg
}

func TestCheckWithNilConfig(t *testing.T) {
	_, err := Check(nil, "", "")
	if err == nil {
		t.Error("Expected error for nil config, got nil")
	}
}

func TestCheckReady(t *testing.T) {
	cfg := testConfig(t)

	result, err := Check(cfg, "", "")
	if err != nil {
		t.Fatalf("Check() failed: %v", err)
	}

	if result.RTL.Status != StatusReady {
		t.Errorf("RTL.Status = %q, want %q (%s)", result.RTL.Status, StatusReady, result.RTL.Error)
	}
	if result.RTL.Detail != "1 source files" {
		t.Errorf("RTL.Detail = %q", result.RTL.Detail)
	}
	if result.Template.Status != StatusReady {
		t.Errorf("Template.Status = %q, want %q", result.Template.Status, StatusReady)
	}
	if result.Cache.Status != StatusMissing {
		t.Errorf("Cache.Status = %q, want %q", result.Cache.Status, StatusMissing)
	}
	if result.Output.Status != StatusReady {
		t.Errorf("Output.Status = %q, want %q", result.Output.Status, StatusReady)
	}
	if result.HasErrors() {
		t.Error("HasErrors() = true, want false")
	}
}

func TestCheckPersistedCache(t *testing.T) {
	cfg := testConfig(t)

	rc := cache.NewRecordCache(cache.RecordCacheOptions{Dir: cfg.CacheDir, MaxEntries: 8})
	if err := rc.Set("k", []types.ModuleRecord{{Name: "top"}}); err != nil {
		t.Fatal(err)
	}
	if err := rc.Save(); err != nil {
		t.Fatal(err)
	}

	result, err := Check(cfg, "", "")
	if err != nil {
		t.Fatalf("Check() failed: %v", err)
	}
	if result.Cache.Status != StatusReady || result.Cache.Detail != "1 entries" {
		t.Errorf("Cache = %+v, want ready with 1 entries", result.Cache)
	}

	if err := os.WriteFile(rc.Path(), []byte("not msgpack"), 0644); err != nil {
		t.Fatal(err)
	}
	result, _ = Check(cfg, "", "")
	if result.Cache.Status != StatusError {
		t.Errorf("Cache.Status = %q for a corrupt file, want %q", result.Cache.Status, StatusError)
	}

	cfg.CacheEnabled = false
	result, _ = Check(cfg, "", "")
	if result.Cache.Status != StatusDisabled {
		t.Errorf("Cache.Status = %q, want %q", result.Cache.Status, StatusDisabled)
	}
}

func TestCheckErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(cfg *config.Config)
		item   func(r *HealthCheckResult) ItemStatus
	}{
		{
			name:   "missing rtl",
			mutate: func(cfg *config.Config) { cfg.RTLPath = filepath.Join(cfg.OutputDir, "nope") },
			item:   func(r *HealthCheckResult) ItemStatus { return r.RTL },
		},
		{
			name:   "no sources",
			mutate: func(cfg *config.Config) { cfg.Extensions = []string{".vhd"} },
			item:   func(r *HealthCheckResult) ItemStatus { return r.RTL },
		},
		{
			name:   "bad template",
			mutate: func(cfg *config.Config) { cfg.Template = filepath.Join(cfg.OutputDir, "missing.tmpl") },
			item:   func(r *HealthCheckResult) ItemStatus { return r.Template },
		},
		{
			name:   "output is a file",
			mutate: func(cfg *config.Config) { cfg.OutputDir = filepath.Join(cfg.RTLPath, "top.sv") },
			item:   func(r *HealthCheckResult) ItemStatus { return r.Output },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			tt.mutate(cfg)

			result, err := Check(cfg, "", "")
			if err != nil {
				t.Fatalf("Check() failed: %v", err)
			}
			if got := tt.item(result); got.Status != StatusError || got.Error == "" {
				t.Errorf("status = %+v, want an error", got)
			}
			if !result.HasErrors() {
				t.Error("HasErrors() = false, want true")
			}
		})
	}
}

func TestCheckOutputDirMissing(t *testing.T) {
	got := checkOutputDir(filepath.Join(t.TempDir(), "later"))
	if got.Status != StatusMissing {
		t.Errorf("Status = %q, want %q", got.Status, StatusMissing)
	}
}

func TestScopeFromPath(t *testing.T) {
	t.Setenv("HOME", "/home/dev")

	tests := []struct {
		name     string
		path     string
		expected string
	}{
		{"empty path", "", ""},
		{"global path", "/home/dev/.spygen/config.yaml", "global"},
		{"project path", "/project/.spygen/config.yaml", "project"},
		{"relative path", ".spygen/config.yaml", "project"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := scopeFromPath(tt.path)
			if result != tt.expected {
				t.Errorf("scopeFromPath(%q) = %q, want %q", tt.path, result, tt.expected)
			}
		})
	}
}

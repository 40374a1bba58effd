package healthcheck

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/l3aro/go-spygen/internal/config"
	"github.com/l3aro/go-spygen/internal/scanner"
	"github.com/l3aro/go-spygen/pkg/cache"
	"github.com/l3aro/go-spygen/pkg/render"
)

// Check statuses.
const (
	StatusReady    = "ready"
	StatusMissing  = "missing" // created on first use
	StatusDisabled = "disabled"
	StatusError    = "error"
)

// ItemStatus represents the health of one configured resource.
type ItemStatus struct {
	Path   string
	Status string
	Detail string
	Error  string
}

// HealthCheckResult contains the full health check output for display.
type HealthCheckResult struct {
	SavedPath      string
	SavedScope     string // "global" or "project"
	EffectivePath  string
	EffectiveScope string
	RTL            ItemStatus
	Template       ItemStatus
	Cache          ItemStatus
	Output         ItemStatus
}

// HasErrors reports whether any check failed.
func (r *HealthCheckResult) HasErrors() bool {
	for _, s := range []ItemStatus{r.RTL, r.Template, r.Cache, r.Output} {
		if s.Status == StatusError {
			return true
		}
	}
	return false
}

// Check performs a health check against the given config.
// savedPath is where the user saved config (may be empty outside init).
// effectivePath is the config file actually in use.
func Check(cfg *config.Config, savedPath string, effectivePath string) (*HealthCheckResult, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	return &HealthCheckResult{
		SavedPath:      savedPath,
		SavedScope:     scopeFromPath(savedPath),
		EffectivePath:  effectivePath,
		EffectiveScope: scopeFromPath(effectivePath),
		RTL:            checkRTL(cfg),
		Template:       checkTemplate(cfg.Template),
		Cache:          checkCache(cfg),
		Output:         checkOutputDir(cfg.OutputDir),
	}, nil
}

// scopeFromPath determines "global" or "project" scope from a config file path.
// Returns empty string if path is empty.
func scopeFromPath(path string) string {
	if path == "" {
		return ""
	}
	if global := config.GlobalConfigFilePath(); global != "" {
		if strings.HasPrefix(path, filepath.Dir(global)) {
			return "global"
		}
	}
	return "project"
}

// checkRTL scans the RTL directory and counts the source files it would read.
func checkRTL(cfg *config.Config) ItemStatus {
	status := ItemStatus{Path: cfg.RTLPath}

	opts := scanner.DefaultOptions()
	opts.Extensions = cfg.Extensions
	files, err := scanner.ScanWithOptions(cfg.RTLPath, opts)
	if err != nil {
		status.Status = StatusError
		status.Error = err.Error()
		return status
	}
	if len(files) == 0 {
		status.Status = StatusError
		status.Error = fmt.Sprintf("no files with extensions %s", strings.Join(cfg.Extensions, ", "))
		return status
	}

	status.Status = StatusReady
	status.Detail = fmt.Sprintf("%d source files", len(files))
	return status
}

// checkTemplate parses the custom template, if any.
func checkTemplate(path string) ItemStatus {
	if path == "" {
		return ItemStatus{Status: StatusReady, Detail: "built-in " + render.DefaultTemplateName}
	}

	status := ItemStatus{Path: path}
	g, err := render.New(render.Options{})
	if err == nil {
		err = g.LoadTemplate(path)
	}
	if err != nil {
		status.Status = StatusError
		status.Error = err.Error()
		return status
	}
	status.Status = StatusReady
	return status
}

// checkCache loads the persisted extraction cache to make sure it is readable.
func checkCache(cfg *config.Config) ItemStatus {
	if !cfg.CacheEnabled {
		return ItemStatus{Status: StatusDisabled}
	}

	rc := cache.NewRecordCache(cache.RecordCacheOptions{Dir: cfg.CacheDir, MaxEntries: cfg.CacheMaxEntries})
	status := ItemStatus{Path: rc.Path()}

	if _, err := os.Stat(rc.Path()); os.IsNotExist(err) {
		status.Status = StatusMissing
		return status
	}
	if err := rc.Load(); err != nil {
		status.Status = StatusError
		status.Error = err.Error()
		return status
	}

	status.Status = StatusReady
	status.Detail = fmt.Sprintf("%d entries", rc.Len())
	return status
}

// checkOutputDir verifies the output directory is a directory, or can be created.
func checkOutputDir(dir string) ItemStatus {
	status := ItemStatus{Path: dir}

	info, err := os.Stat(dir)
	switch {
	case err == nil && info.IsDir():
		status.Status = StatusReady
	case err == nil:
		status.Status = StatusError
		status.Error = "not a directory"
	case os.IsNotExist(err):
		status.Status = StatusMissing
	default:
		status.Status = StatusError
		status.Error = err.Error()
	}
	return status
}

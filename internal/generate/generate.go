// Package generate runs the spygen pipeline: scan the RTL tree, extract and
// validate module records, build the instance graph, resolve the top module,
// flatten the hierarchy, resolve name conflicts and render the interface.
package generate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/google/uuid"

	"github.com/l3aro/go-spygen/internal/config"
	"github.com/l3aro/go-spygen/internal/log"
	"github.com/l3aro/go-spygen/internal/scanner"
	"github.com/l3aro/go-spygen/pkg/cache"
	"github.com/l3aro/go-spygen/pkg/extractor"
	"github.com/l3aro/go-spygen/pkg/hierarchy"
	"github.com/l3aro/go-spygen/pkg/registry"
	"github.com/l3aro/go-spygen/pkg/render"
	"github.com/l3aro/go-spygen/pkg/types"
	"github.com/l3aro/go-spygen/pkg/validate"
)

// ErrNoModules is returned when the RTL tree yields no usable module.
var ErrNoModules = errors.New("no modules found")

// Stage names used in diagnostics.
const (
	StageScan      = "scan"
	StageExtract   = "extract"
	StageValidate  = "validate"
	StageRegistry  = "registry"
	StageHierarchy = "hierarchy"
)

// Diagnostic is a recoverable problem. The affected file, module or subtree
// is left out and the run continues.
type Diagnostic struct {
	Stage   string `json:"stage" yaml:"stage"`
	File    string `json:"file,omitempty" yaml:"file,omitempty"`
	Module  string `json:"module,omitempty" yaml:"module,omitempty"`
	Message string `json:"message" yaml:"message"`
}

func (d Diagnostic) String() string {
	switch {
	case d.File != "" && d.Module != "":
		return fmt.Sprintf("[%s] %s: %s: %s", d.Stage, d.File, d.Module, d.Message)
	case d.File != "":
		return fmt.Sprintf("[%s] %s: %s", d.Stage, d.File, d.Message)
	case d.Module != "":
		return fmt.Sprintf("[%s] %s: %s", d.Stage, d.Module, d.Message)
	}
	return fmt.Sprintf("[%s] %s", d.Stage, d.Message)
}

// Design is the discovered module set with its instance graph.
type Design struct {
	Registry    *registry.Registry
	Graph       hierarchy.GraphStats
	Files       int
	Diagnostics []Diagnostic
	Cache       cache.Stats
}

// Result is the output of a full run.
type Result struct {
	RunID     string
	Design    *Design
	Top       *types.ModuleRecord
	Ports     []types.PortSignal
	Registers []types.RegisterSignal

	// Combined lists ports before registers. PortCount is the number of
	// leading port entries.
	Combined  []types.Signal
	PortCount int

	Diagnostics []Diagnostic
}

// Pipeline wires the stages together. It is configured once and may run
// several times.
type Pipeline struct {
	cfg        *config.Config
	logger     *log.DefaultLogger
	scanner    *scanner.Scanner
	extractors *extractor.LanguageRegistry
	validator  *validate.Validator
	renderer   *render.Generator
	cache      *cache.RecordCache
	workers    int
}

// New creates a pipeline for cfg. A nil logger discards output.
func New(cfg *config.Config, logger *log.DefaultLogger) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if logger == nil {
		logger = log.Nop()
	}

	validator, err := validate.New(validate.WithRegisterSuffix(cfg.RegisterSuffix))
	if err != nil {
		return nil, fmt.Errorf("loading module contract: %w", err)
	}

	renderer, err := render.New(render.Options{
		Testbench:   cfg.Testbench,
		TopInstance: cfg.TopInstance,
		RootToken:   cfg.RootToken,
	})
	if err != nil {
		return nil, err
	}
	if cfg.Template != "" {
		if err := renderer.LoadTemplate(cfg.Template); err != nil {
			return nil, err
		}
	}

	scanOpts := scanner.DefaultOptions()
	scanOpts.Extensions = cfg.Extensions

	p := &Pipeline{
		cfg:        cfg,
		logger:     logger,
		scanner:    scanner.New(scanOpts),
		extractors: extractor.NewLanguageRegistry(extractor.WithRegisterSuffix(cfg.RegisterSuffix)),
		validator:  validator,
		renderer:   renderer,
		workers:    runtime.NumCPU(),
	}
	// configured extensions beyond the built-in ones are read as SystemVerilog
	for _, ext := range cfg.Extensions {
		if !p.extractors.IsSupported(ext) {
			p.extractors.RegisterExtensions(extractor.SystemVerilog, ext)
		}
	}
	logger.Debug("extractor extensions", "extensions", p.extractors.GetSupportedExtensions())

	if cfg.CacheEnabled {
		p.cache = cache.NewRecordCache(cache.RecordCacheOptions{
			Dir:        cfg.CacheDir,
			MaxEntries: cfg.CacheMaxEntries,
		})
	}
	return p, nil
}

// ClearCache drops every cached extraction result, in memory and on disk.
func (p *Pipeline) ClearCache() error {
	if p.cache == nil {
		return nil
	}
	p.cache.Clear()
	if err := p.cache.Save(); err != nil {
		return fmt.Errorf("clearing extraction cache: %w", err)
	}
	p.logger.Info("cleared extraction cache", "path", p.cache.Path())
	return nil
}

// Discover scans the RTL tree and returns the registered modules with their
// instance edges.
func (p *Pipeline) Discover(ctx context.Context) (*Design, error) {
	return p.discover(ctx, p.logger)
}

func (p *Pipeline) discover(ctx context.Context, logger *log.DefaultLogger) (*Design, error) {
	files, err := p.scanner.Scan(p.cfg.RTLPath)
	if err != nil {
		return nil, err
	}
	logger.Debug("scanned rtl tree", "path", p.cfg.RTLPath, "files", len(files))

	design := &Design{Registry: registry.New(), Files: len(files)}

	if p.cache != nil {
		if err := p.cache.Load(); err != nil {
			logger.Warn("ignoring unreadable extraction cache", "path", p.cache.Path(), "error", err)
		}
	}

	extracted := p.extractAll(ctx, files)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	live := make(map[string]bool, len(files))
	for i, f := range files {
		res := extracted[i]
		if res.key != "" {
			live[res.key] = true
		}
		for _, err := range splitErrors(res.err) {
			design.Diagnostics = append(design.Diagnostics, extractDiagnostic(f.Path, err))
		}
		for _, rec := range res.records {
			if err := p.validator.Validate(rec); err != nil {
				design.Diagnostics = append(design.Diagnostics, Diagnostic{
					Stage: StageValidate, File: rec.File, Module: rec.Name, Message: err.Error(),
				})
				continue
			}
			if err := design.Registry.Add(rec); err != nil {
				design.Diagnostics = append(design.Diagnostics, Diagnostic{
					Stage: StageRegistry, File: rec.File, Module: rec.Name, Message: err.Error(),
				})
			}
		}
	}

	if p.cache != nil {
		design.Cache = p.cache.Stats()
		if stale := p.cache.Retain(live); stale > 0 {
			logger.Debug("dropped stale cache entries", "entries", stale)
		}
		if err := p.cache.Save(); err != nil {
			logger.Warn("failed to persist extraction cache", "path", p.cache.Path(), "error", err)
		}
		logger.Debug("extraction cache",
			"hits", design.Cache.HitCount,
			"misses", design.Cache.MissCount,
			"hit_rate", p.cache.HitRate(),
		)
	}

	if design.Registry.Len() == 0 {
		return nil, fmt.Errorf("%w under %s", ErrNoModules, p.cfg.RTLPath)
	}

	design.Graph = hierarchy.BuildInstanceGraph(design.Registry)
	logger.Debug("built instance graph", "modules", design.Registry.Len(), "edges", design.Graph.Edges)

	return design, nil
}

// Run executes the full pipeline up to the resolved signal inventory.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	runID := uuid.NewString()
	logger := p.logger.With("run_id", runID)
	logger.Info("starting run", "rtl_path", p.cfg.RTLPath, "mode", string(p.cfg.Mode))

	design, err := p.discover(ctx, logger)
	if err != nil {
		return nil, err
	}
	res := &Result{RunID: runID, Design: design}
	res.Diagnostics = append(res.Diagnostics, design.Diagnostics...)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	top, err := hierarchy.ResolveTop(design.Registry, p.cfg.TopModule)
	if err != nil {
		return nil, err
	}
	res.Top = top
	if p.cfg.TopModule != "" && top.Name != p.cfg.TopModule {
		res.Diagnostics = append(res.Diagnostics, Diagnostic{
			Stage:   StageHierarchy,
			Module:  top.Name,
			Message: fmt.Sprintf("top module %q not found, inferred %s", p.cfg.TopModule, top.Name),
		})
	}
	logger.Info("resolved top module", "top", top.Name, "override", p.cfg.TopModule != "")

	flat, err := hierarchy.Flatten(design.Registry, top, p.cfg.RootToken)
	if err != nil {
		return nil, err
	}
	for _, d := range flat.Diagnostics {
		res.Diagnostics = append(res.Diagnostics, Diagnostic{
			Stage: StageHierarchy, Module: d.Parent, Message: d.String(),
		})
	}

	if p.cfg.Mode.IncludesPorts() {
		res.Ports = hierarchy.ResolvePorts(p.cfg.RootToken, flat.Ports)
	}
	if p.cfg.Mode.IncludesRegisters() {
		res.Registers = hierarchy.ResolveRegisters(p.cfg.RootToken, flat.Registers)
		res.Registers = hierarchy.SeparateRegisters(top, res.Ports, res.Registers)
	}
	res.Combined, res.PortCount = types.Combine(res.Ports, res.Registers)

	for _, d := range res.Diagnostics {
		logger.Warn(d.Message, "stage", d.Stage, "file", d.File, "module", d.Module)
	}
	logger.Info("run complete",
		"files", design.Files,
		"modules", design.Registry.Len(),
		"ports", len(res.Ports),
		"registers", len(res.Registers),
		"diagnostics", len(res.Diagnostics),
	)

	return res, nil
}

// Render writes the generated interface for res to w.
func (p *Pipeline) Render(w io.Writer, res *Result) error {
	return p.renderer.Render(w, render.Input{
		Top:       res.Top,
		Signals:   res.Combined,
		PortCount: res.PortCount,
	})
}

// WriteFile renders res into <output_dir>/<top>_spy_if.sv and returns the path.
func (p *Pipeline) WriteFile(res *Result) (string, error) {
	if err := os.MkdirAll(p.cfg.OutputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory %s: %w", p.cfg.OutputDir, err)
	}

	path := filepath.Join(p.cfg.OutputDir, render.FileName(res.Top.Name))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}

	if err := p.Render(f, res); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}

	p.logger.Info("wrote spy interface", "path", path)
	return path, nil
}

type extraction struct {
	records []types.ModuleRecord
	key     string // cache key, empty when the cache is off or the file unreadable
	err     error
}

// extractAll extracts every file with a bounded number of workers. Results
// keep the scan order.
func (p *Pipeline) extractAll(ctx context.Context, files []scanner.FileInfo) []extraction {
	results := make([]extraction, len(files))
	sem := make(chan struct{}, max(p.workers, 1))

	var wg sync.WaitGroup
	for i, f := range files {
		wg.Add(1)
		go func(i int, f scanner.FileInfo) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				results[i].err = ctx.Err()
				return
			}

			results[i].records, results[i].key, results[i].err = p.extractFile(f)
		}(i, f)
	}
	wg.Wait()

	return results
}

// extractFile returns the records of one file, from the cache when its
// content is unchanged. Files with syntax errors are not cached.
func (p *Pipeline) extractFile(f scanner.FileInfo) ([]types.ModuleRecord, string, error) {
	ex, err := p.extractors.GetExtractor(f.FullPath)
	if err != nil {
		return nil, "", err
	}

	src, err := os.ReadFile(f.FullPath)
	if err != nil {
		return nil, "", fmt.Errorf("reading file: %w", err)
	}

	var key string
	if p.cache != nil {
		key = cache.Key(f.Path, src, p.cfg.RegisterSuffix)
		if records, ok := p.cache.Get(key); ok {
			return records, key, nil
		}
	}

	records, err := ex.ExtractSource(f.Path, src)
	if err == nil && p.cache != nil {
		if cerr := p.cache.Set(key, records); cerr != nil {
			p.logger.Debug("not caching records", "file", f.Path, "error", cerr)
		}
	}
	return records, key, err
}

// splitErrors flattens an errors.Join result.
func splitErrors(err error) []error {
	if err == nil {
		return nil
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		return joined.Unwrap()
	}
	return []error{err}
}

func extractDiagnostic(file string, err error) Diagnostic {
	d := Diagnostic{Stage: StageExtract, File: file, Message: err.Error()}
	var syntaxErr *extractor.SyntaxError
	if errors.As(err, &syntaxErr) {
		d.Module = syntaxErr.Module
		d.Message = syntaxErr.Msg
		d.File = fmt.Sprintf("%s:%d", syntaxErr.File, syntaxErr.Line)
	}
	return d
}

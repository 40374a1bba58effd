package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/l3aro/go-spygen/pkg/types"
)

// DirName is the per-user and per-project configuration directory.
const DirName = ".spygen"

// Config holds all configuration for spygen
type Config struct {
	// RTLPath is the directory scanned for HDL sources
	RTLPath string `yaml:"rtl_path" env:"SPYGEN_RTL_PATH"`

	// Extensions lists the file extensions treated as HDL sources
	Extensions []string `yaml:"extensions" env:"SPYGEN_EXTENSIONS"`

	// TopModule forces the top module instead of inferring it
	TopModule string `yaml:"top_module" env:"SPYGEN_TOP_MODULE"`

	// Bind target of the generated interface: <testbench>.<top_instance>
	TopInstance string `yaml:"top_instance" env:"SPYGEN_TOP_INSTANCE"`
	Testbench   string `yaml:"testbench" env:"SPYGEN_TESTBENCH"`

	// RootToken prefixes every hierarchical path
	RootToken string `yaml:"root_token" env:"SPYGEN_ROOT_TOKEN"`

	// RegisterSuffix marks a declaration as a spied register
	RegisterSuffix string `yaml:"register_suffix" env:"SPYGEN_REGISTER_SUFFIX"`

	// Mode selects ports, registers or both
	Mode types.Mode `yaml:"mode" env:"SPYGEN_MODE"`

	// Output
	OutputDir string `yaml:"output_dir" env:"SPYGEN_OUTPUT_DIR"`
	Template  string `yaml:"template" env:"SPYGEN_TEMPLATE"`

	// Extraction cache
	CacheEnabled    bool   `yaml:"cache_enabled" env:"SPYGEN_CACHE_ENABLED"`
	CacheDir        string `yaml:"cache_dir" env:"SPYGEN_CACHE_DIR"`
	CacheMaxEntries int    `yaml:"cache_max_entries" env:"SPYGEN_CACHE_MAX_ENTRIES"`

	// Logging
	Verbose bool `yaml:"verbose" env:"SPYGEN_VERBOSE"`
	LogJSON bool `yaml:"log_json" env:"SPYGEN_LOG_JSON"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		RTLPath:         "./rtl",
		Extensions:      []string{".sv", ".svh", ".v"},
		TopModule:       "",
		TopInstance:     "i_dut",
		Testbench:       "tb_top",
		RootToken:       "`DUT_PATH",
		RegisterSuffix:  "_s",
		Mode:            types.ModeBoth,
		OutputDir:       ".",
		Template:        "",
		CacheEnabled:    true,
		CacheDir:        filepath.Join(DirName, "cache"),
		CacheMaxEntries: 4096,
		Verbose:         false,
		LogJSON:         false,
	}
}

// GlobalConfigFilePath returns the global config file path (~/.spygen/config.yaml)
func GlobalConfigFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, DirName, "config.yaml")
}

// ProjectConfigFilePath returns the project-level config file path (./.spygen/config.yaml)
func ProjectConfigFilePath() string {
	return filepath.Join(DirName, "config.yaml")
}

// Load reads the global config, then the project config, then environment
// variables. Later sources override earlier ones.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	// 1. Load global config (~/.spygen/config.yaml)
	if path := GlobalConfigFilePath(); path != "" {
		if err := mergeFile(cfg, path); err != nil {
			return nil, err
		}
	}

	// 2. Load project-level config (./.spygen/config.yaml) - overrides global
	if err := mergeFile(cfg, ProjectConfigFilePath()); err != nil {
		return nil, err
	}

	// 3. Override with environment variables
	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// mergeFile unmarshals path over cfg. A missing file is skipped.
func mergeFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	if data, err := os.ReadFile(path); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the configuration to a YAML file at the given path.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", path, err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to the config
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SPYGEN_RTL_PATH"); v != "" {
		cfg.RTLPath = v
	}
	if v := os.Getenv("SPYGEN_EXTENSIONS"); v != "" {
		cfg.Extensions = splitList(v)
	}
	if v := os.Getenv("SPYGEN_TOP_MODULE"); v != "" {
		cfg.TopModule = v
	}
	if v := os.Getenv("SPYGEN_TOP_INSTANCE"); v != "" {
		cfg.TopInstance = v
	}
	if v := os.Getenv("SPYGEN_TESTBENCH"); v != "" {
		cfg.Testbench = v
	}
	if v := os.Getenv("SPYGEN_ROOT_TOKEN"); v != "" {
		cfg.RootToken = v
	}
	if v := os.Getenv("SPYGEN_REGISTER_SUFFIX"); v != "" {
		cfg.RegisterSuffix = v
	}
	if v := os.Getenv("SPYGEN_MODE"); v != "" {
		cfg.Mode = types.Mode(strings.ToLower(v))
	}
	if v := os.Getenv("SPYGEN_OUTPUT_DIR"); v != "" {
		cfg.OutputDir = v
	}
	if v := os.Getenv("SPYGEN_TEMPLATE"); v != "" {
		cfg.Template = v
	}
	if v := os.Getenv("SPYGEN_CACHE_ENABLED"); v != "" {
		cfg.CacheEnabled = parseBool(v)
	}
	if v := os.Getenv("SPYGEN_CACHE_DIR"); v != "" {
		cfg.CacheDir = v
	}
	if v := os.Getenv("SPYGEN_CACHE_MAX_ENTRIES"); v != "" {
		if i := parseInt(v); i > 0 {
			cfg.CacheMaxEntries = i
		}
	}
	if v := os.Getenv("SPYGEN_VERBOSE"); v != "" {
		cfg.Verbose = parseBool(v)
	}
	if v := os.Getenv("SPYGEN_LOG_JSON"); v != "" {
		cfg.LogJSON = parseBool(v)
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.RTLPath == "" {
		return fmt.Errorf("rtl_path must not be empty")
	}
	if len(c.Extensions) == 0 {
		return fmt.Errorf("extensions must list at least one file extension")
	}
	for _, ext := range c.Extensions {
		if !strings.HasPrefix(ext, ".") || len(ext) < 2 {
			return fmt.Errorf("invalid extension %q: must start with a dot", ext)
		}
	}
	if c.RootToken == "" {
		return fmt.Errorf("root_token must not be empty")
	}
	if c.RegisterSuffix == "" {
		return fmt.Errorf("register_suffix must not be empty")
	}
	if !c.Mode.Valid() {
		return fmt.Errorf("invalid mode: %s (must be 'ports', 'registers' or 'both')", c.Mode)
	}
	if c.CacheMaxEntries < 0 {
		return fmt.Errorf("cache_max_entries must be non-negative")
	}
	return nil
}

// splitList splits a comma separated list, dropping empty items.
func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// parseBool accepts the usual spellings of true; anything else is false.
func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

// parseInt parses a string to int, returning 0 on error
func parseInt(s string) int {
	var i int
	if _, err := fmt.Sscanf(s, "%d", &i); err != nil {
		return 0
	}
	return i
}

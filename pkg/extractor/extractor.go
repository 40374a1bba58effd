// Package extractor turns HDL source files into module records.
package extractor

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/l3aro/go-spygen/pkg/types"
)

// Extractor defines the interface for language-specific module extractors.
type Extractor interface {
	// Extract parses a source file and returns every module it defines.
	Extract(file string) ([]types.ModuleRecord, error)
	// ExtractSource is Extract for content that is already in memory.
	ExtractSource(file string, src []byte) ([]types.ModuleRecord, error)
}

// Language represents a supported hardware description language.
type Language string

const (
	// SystemVerilog language support
	SystemVerilog Language = "systemverilog"
	// Verilog is handled by the SystemVerilog extractor
	Verilog Language = "verilog"
)

// LanguageRegistry maps file extensions to their corresponding extractors.
type LanguageRegistry struct {
	extractors map[Language]Extractor
	extensions map[string]Language
}

// NewLanguageRegistry creates a new language registry with default language
// mappings. The options configure the built-in SystemVerilog extractor.
func NewLanguageRegistry(opts ...Option) *LanguageRegistry {
	registry := &LanguageRegistry{
		extractors: make(map[Language]Extractor),
		extensions: make(map[string]Language),
	}

	sv := NewSystemVerilogExtractor(opts...)
	registry.RegisterLanguage(SystemVerilog, []string{".sv", ".svh"}, sv)
	registry.RegisterLanguage(Verilog, []string{".v", ".vh"}, sv)

	return registry
}

// RegisterLanguage registers a language and its extensions with the registry.
func (r *LanguageRegistry) RegisterLanguage(lang Language, extensions []string, extractor Extractor) {
	r.extractors[lang] = extractor
	r.RegisterExtensions(lang, extensions...)
}

// RegisterExtensions maps additional extensions to an already known language.
func (r *LanguageRegistry) RegisterExtensions(lang Language, extensions ...string) {
	for _, ext := range extensions {
		r.extensions[strings.ToLower(ext)] = lang
	}
}

// GetExtractor returns the extractor for a given file path based on its extension.
func (r *LanguageRegistry) GetExtractor(filePath string) (Extractor, error) {
	lang, err := r.GetLanguage(filePath)
	if err != nil {
		return nil, err
	}

	extractor, ok := r.extractors[lang]
	if !ok {
		return nil, fmt.Errorf("no extractor registered for language: %s", lang)
	}

	return extractor, nil
}

// GetLanguage returns the language identifier for a given file path.
func (r *LanguageRegistry) GetLanguage(filePath string) (Language, error) {
	ext := strings.ToLower(filepath.Ext(filePath))
	if ext == "" {
		return "", fmt.Errorf("file has no extension: %s", filePath)
	}

	lang, ok := r.extensions[ext]
	if !ok {
		return "", fmt.Errorf("unsupported file extension: %s", ext)
	}

	return lang, nil
}

// IsSupported checks if a file extension is supported.
func (r *LanguageRegistry) IsSupported(filePath string) bool {
	_, err := r.GetLanguage(filePath)
	return err == nil
}

// GetSupportedExtensions returns all registered file extensions, sorted.
func (r *LanguageRegistry) GetSupportedExtensions() []string {
	extensions := make([]string, 0, len(r.extensions))
	for ext := range r.extensions {
		extensions = append(extensions, ext)
	}
	sort.Strings(extensions)
	return extensions
}

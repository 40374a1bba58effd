// Package scanner walks an RTL tree and returns the HDL source files in it.
// It respects .spygenignore files with gitignore-style patterns and detects
// the hardware description language from the file extension.
package scanner

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// IgnoreFileName is the default ignore file looked up in every directory.
const IgnoreFileName = ".spygenignore"

// ErrNotDirectory is returned when the scan root is not a directory.
var ErrNotDirectory = errors.New("not a directory")

// FileInfo represents information about a discovered file.
type FileInfo struct {
	Path     string // Relative path from root, slash separated
	FullPath string // Absolute path
	Language string // Detected language from extension
	Size     int64  // File size in bytes
}

// Options configures the scanner behavior.
type Options struct {
	SkipHidden      bool     // Skip hidden files and directories (starting with .)
	FollowSymlinks  bool     // Follow file symlinks that stay within root
	Extensions      []string // Only return these extensions; empty returns every file
	DefaultExcludes []string // Directory names never descended into
	IgnoreFileName  string   // Name of the ignore file
}

// DefaultOptions returns scanner options with sensible defaults.
func DefaultOptions() Options {
	return Options{
		SkipHidden:     true,
		FollowSymlinks: false,
		Extensions:     []string{".sv", ".svh", ".v"},
		IgnoreFileName: IgnoreFileName,
		DefaultExcludes: []string{
			".git",
			".svn",
			".hg",
			"work",      // Questa/ModelSim library
			"xcelium.d", // Xcelium
			"INCA_libs",
			"csrc", // VCS
			"simv.daidir",
			"obj_dir", // Verilator
			"sim_build",
			"node_modules",
		},
	}
}

// Scanner provides file tree scanning capabilities.
type Scanner struct {
	opts Options
	exts map[string]bool
}

// New creates a new Scanner with the given options.
func New(opts Options) *Scanner {
	s := &Scanner{opts: opts}
	if len(opts.Extensions) > 0 {
		s.exts = make(map[string]bool, len(opts.Extensions))
		for _, ext := range opts.Extensions {
			s.exts[strings.ToLower(ext)] = true
		}
	}
	return s
}

// Scan recursively scans the directory at root and returns the matching
// files in lexical path order.
func (s *Scanner) Scan(root string) ([]FileInfo, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("getting absolute path: %w", err)
	}

	st, err := os.Stat(absRoot)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", root, err)
	}
	if !st.IsDir() {
		return nil, fmt.Errorf("scanning %s: %w", root, ErrNotDirectory)
	}

	var ignores IgnoreList
	if err := s.loadIgnoreFile(&ignores, absRoot, ""); err != nil {
		return nil, fmt.Errorf("loading ignore patterns: %w", err)
	}

	var files []FileInfo

	err = filepath.Walk(absRoot, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			// Unreadable entries are skipped
			return nil
		}

		relPath, err := filepath.Rel(absRoot, path)
		if err != nil || relPath == "." {
			return nil
		}
		rel := filepath.ToSlash(relPath)

		if s.opts.SkipHidden && strings.HasPrefix(info.Name(), ".") {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if info.IsDir() {
			if s.isDefaultExcluded(info.Name()) || ignores.Ignored(rel, true) {
				return filepath.SkipDir
			}
			// Nested ignore files apply below their own directory.
			_ = s.loadIgnoreFile(&ignores, path, rel)
			return nil
		}

		if ignores.Ignored(rel, false) || !s.wanted(path) {
			return nil
		}

		if info.Mode()&os.ModeSymlink != 0 {
			target, ok := s.resolveSymlink(absRoot, path)
			if !ok {
				return nil
			}
			info = target
		}

		files = append(files, FileInfo{
			Path:     rel,
			FullPath: path,
			Language: DetectLanguage(filepath.Ext(path)),
			Size:     info.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking directory: %w", err)
	}

	return files, nil
}

func (s *Scanner) wanted(path string) bool {
	if s.exts == nil {
		return true
	}
	return s.exts[strings.ToLower(filepath.Ext(path))]
}

// resolveSymlink follows a file symlink whose target stays inside root.
func (s *Scanner) resolveSymlink(root, path string) (os.FileInfo, bool) {
	if !s.opts.FollowSymlinks {
		return nil, false
	}
	linked, err := filepath.EvalSymlinks(path)
	if err != nil {
		return nil, false
	}
	realAbs, err := filepath.Abs(linked)
	if err != nil {
		return nil, false
	}
	if !strings.HasPrefix(realAbs, root+string(filepath.Separator)) {
		return nil, false
	}
	info, err := os.Stat(realAbs)
	if err != nil || info.IsDir() {
		return nil, false
	}
	return info, true
}

// isDefaultExcluded checks if the name matches default exclusion patterns.
func (s *Scanner) isDefaultExcluded(name string) bool {
	for _, exclude := range s.opts.DefaultExcludes {
		if strings.EqualFold(name, exclude) {
			return true
		}
	}
	return false
}

// loadIgnoreFile adds the patterns of dir's ignore file to list. rel is the
// directory relative to the scan root.
func (s *Scanner) loadIgnoreFile(list *IgnoreList, dir, rel string) error {
	if s.opts.IgnoreFileName == "" {
		return nil
	}
	file, err := os.Open(filepath.Join(dir, s.opts.IgnoreFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer file.Close()

	sc := bufio.NewScanner(file)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		list.Add(rel, ParseIgnorePattern(line))
	}
	return sc.Err()
}

// Scan is a convenience function that scans a directory with default options.
func Scan(root string) ([]FileInfo, error) {
	return New(DefaultOptions()).Scan(root)
}

// ScanWithOptions scans a directory with custom options.
func ScanWithOptions(root string, opts Options) ([]FileInfo, error) {
	return New(opts).Scan(root)
}

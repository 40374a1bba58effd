package scanner

import (
	"path"
	"strings"
)

// IgnorePattern is one line of a .spygenignore file, with gitignore semantics:
//
//	!pat   re-includes what an earlier pattern excluded
//	pat/   matches directories only
//	/pat   and any pattern with an inner slash is anchored to the ignore file's directory
//	**     matches any number of path segments
type IgnorePattern struct {
	raw      string
	negate   bool
	dirOnly  bool
	anchored bool
	segments []string
}

// ParseIgnorePattern parses a gitignore-style pattern string.
func ParseIgnorePattern(line string) IgnorePattern {
	p := IgnorePattern{raw: line}

	if strings.HasPrefix(line, "!") {
		p.negate = true
		line = line[1:]
	}
	if strings.HasSuffix(line, "/") {
		p.dirOnly = true
		line = strings.TrimSuffix(line, "/")
	}
	if strings.HasPrefix(line, "/") {
		p.anchored = true
		line = line[1:]
	} else if strings.Contains(line, "/") && !strings.HasPrefix(line, "**/") {
		p.anchored = true
	}

	p.segments = strings.Split(line, "/")
	return p
}

// String returns the pattern as written.
func (p IgnorePattern) String() string { return p.raw }

// IsNegation returns true if this pattern is a negation pattern.
func (p IgnorePattern) IsNegation() bool { return p.negate }

// Match reports whether the slash separated relative path matches. Negation
// is not applied here; see IgnoreList.
func (p IgnorePattern) Match(rel string, isDir bool) bool {
	if p.dirOnly && !isDir {
		return false
	}

	segs := strings.Split(rel, "/")
	if p.anchored {
		return matchSegments(p.segments, segs)
	}
	for i := range segs {
		if matchSegments(p.segments, segs[i:]) {
			return true
		}
	}
	return false
}

func matchSegments(pattern, segs []string) bool {
	if len(pattern) == 0 {
		return len(segs) == 0
	}

	if pattern[0] == "**" {
		if len(pattern) == 1 {
			return true
		}
		for i := 0; i <= len(segs); i++ {
			if matchSegments(pattern[1:], segs[i:]) {
				return true
			}
		}
		return false
	}

	if len(segs) == 0 {
		return false
	}
	if ok, err := path.Match(pattern[0], segs[0]); err != nil || !ok {
		return false
	}
	return matchSegments(pattern[1:], segs[1:])
}

type ignoreRule struct {
	base    string // directory of the ignore file, relative to the scan root
	pattern IgnorePattern
}

// IgnoreList holds the patterns collected while walking. Patterns from a
// nested ignore file only apply below the directory that contains it.
type IgnoreList struct {
	rules []ignoreRule
}

// Add appends patterns read from the ignore file in dir ("" for the root).
func (l *IgnoreList) Add(dir string, patterns ...IgnorePattern) {
	for _, p := range patterns {
		l.rules = append(l.rules, ignoreRule{base: dir, pattern: p})
	}
}

// Len returns the number of patterns.
func (l *IgnoreList) Len() int { return len(l.rules) }

// Ignored reports whether rel should be skipped. The last matching pattern
// wins, so a negation can re-include a path.
func (l *IgnoreList) Ignored(rel string, isDir bool) bool {
	ignored := false
	for _, r := range l.rules {
		sub := rel
		if r.base != "" {
			var ok bool
			if sub, ok = strings.CutPrefix(rel, r.base+"/"); !ok {
				continue
			}
		}
		if r.pattern.Match(sub, isDir) {
			ignored = !r.pattern.negate
		}
	}
	return ignored
}

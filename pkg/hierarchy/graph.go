// Package hierarchy builds the module instantiation graph, resolves the top
// module, flattens the tree into qualified signal paths, and resolves name
// collisions between the flattened signals.
package hierarchy

import (
	"regexp"
	"sort"
	"strings"

	"github.com/l3aro/go-spygen/pkg/registry"
	"github.com/l3aro/go-spygen/pkg/types"
)

// GraphStats summarizes a graph build.
type GraphStats struct {
	Edges     int
	PerModule map[string]int
}

// BuildInstanceGraph scans every module body for instantiations of known
// modules and records them as edges, in textual order.
//
// The module-name set is taken from the whole registry before any body is
// scanned, so forward references across files resolve. Self instantiation is
// recorded as-is; Flatten rejects it.
func BuildInstanceGraph(reg *registry.Registry) GraphStats {
	stats := GraphStats{PerModule: make(map[string]int)}

	pattern := instancePattern(reg.Names())
	for _, m := range reg.Modules() {
		m.Instances = nil
		if pattern != nil {
			m.Instances = findInstances(m.Body, pattern)
		}
		stats.PerModule[m.Name] = len(m.Instances)
		stats.Edges += len(m.Instances)
	}

	return stats
}

// instancePattern matches any of the given module names as a whole word.
func instancePattern(names []string) *regexp.Regexp {
	if len(names) == 0 {
		return nil
	}

	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = regexp.QuoteMeta(n)
	}
	// longest first so alternation never stops at a shorter prefix
	sort.SliceStable(quoted, func(i, j int) bool { return len(quoted[i]) > len(quoted[j]) })

	return regexp.MustCompile(`\b(` + strings.Join(quoted, "|") + `)\b`)
}

// findInstances returns every "<module> [#(...)] <alias> [range] (" occurrence in body.
func findInstances(body string, pattern *regexp.Regexp) []types.InstanceEdge {
	var edges []types.InstanceEdge

	for _, loc := range pattern.FindAllStringSubmatchIndex(body, -1) {
		module := body[loc[2]:loc[3]]
		pos := skipSpace(body, loc[1])

		if pos < len(body) && body[pos] == '#' {
			pos = skipSpace(body, pos+1)
			end, ok := skipBalanced(body, pos, '(', ')')
			if !ok {
				continue
			}
			pos = skipSpace(body, end)
		}

		alias, end := readIdent(body, pos)
		if alias == "" {
			continue
		}
		pos = skipSpace(body, end)

		if pos < len(body) && body[pos] == '[' {
			end, ok := skipBalanced(body, pos, '[', ']')
			if !ok {
				continue
			}
			pos = skipSpace(body, end)
		}

		if pos < len(body) && body[pos] == '(' {
			edges = append(edges, types.InstanceEdge{Module: module, Alias: alias})
		}
	}

	return edges
}

func skipSpace(s string, pos int) int {
	for pos < len(s) && isSpace(s[pos]) {
		pos++
	}
	return pos
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\f' || b == '\v'
}

// skipBalanced returns the index just past the bracket closing the one at pos.
func skipBalanced(s string, pos int, open, close byte) (int, bool) {
	if pos >= len(s) || s[pos] != open {
		return pos, false
	}
	depth := 0
	for i := pos; i < len(s); i++ {
		switch s[i] {
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return i + 1, true
			}
		}
	}
	return pos, false
}

func readIdent(s string, pos int) (string, int) {
	start := pos
	for pos < len(s) && isIdentByte(s[pos], pos == start) {
		pos++
	}
	return s[start:pos], pos
}

func isIdentByte(b byte, first bool) bool {
	switch {
	case b == '_', b >= 'a' && b <= 'z', b >= 'A' && b <= 'Z':
		return true
	case b >= '0' && b <= '9', b == '$':
		return !first
	}
	return false
}

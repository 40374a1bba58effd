package extractor

import (
	"regexp"
	"strings"
)

var (
	// modulePattern finds a module header keyword and its name. endmodule is
	// excluded by the leading word boundary.
	modulePattern = regexp.MustCompile(`\b(?:module|macromodule)\s+(?:(?:static|automatic)\s+)?([A-Za-z_][A-Za-z0-9_$]*)`)

	endmodulePattern = regexp.MustCompile(`\bendmodule\b`)

	// registerPattern matches `logic|<name>_t [signed] [w]... a, b [n];`.
	// Group 1 type, 2 signing, 3 packed dimensions, 4 declarator list.
	registerPattern = regexp.MustCompile(
		`\b((?:[A-Za-z_][A-Za-z0-9_]*::)?[A-Za-z_][A-Za-z0-9_]*_t|logic)\b` +
			`(\s+(?:signed|unsigned))?` +
			`((?:\s*\[[^\]]*\])*)` +
			`\s*([A-Za-z_][A-Za-z0-9_$]*(?:\s*\[[^\]]*\])*(?:\s*,\s*[A-Za-z_][A-Za-z0-9_$]*(?:\s*\[[^\]]*\])*)*)\s*;`)

	// bodyPortPattern matches non-ANSI port declarations in a module body.
	bodyPortPattern = regexp.MustCompile(`\b(?:input|output|inout)\b[^;]*;`)

	identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_$]*$`)
)

// keywords that make a following `logic x_s;` something other than a register.
var declarationKeywords = map[string]bool{
	"input":      true,
	"output":     true,
	"inout":      true,
	"ref":        true,
	"parameter":  true,
	"localparam": true,
	"typedef":    true,
}

func isIdentifier(s string) bool {
	return identPattern.MatchString(s)
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9') || c == '$'
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v'
}

func skipSpace(s string, i int) int {
	for i < len(s) && isSpace(s[i]) {
		i++
	}
	return i
}

// hasWordAt reports whether word starts at s[i] and is not followed by an
// identifier character.
func hasWordAt(s string, i int, word string) bool {
	if !strings.HasPrefix(s[i:], word) {
		return false
	}
	end := i + len(word)
	return end == len(s) || !isIdentChar(s[end])
}

// matchClose returns the index of the bracket closing the one at s[open],
// or -1 when the input ends first.
func matchClose(s string, open int) int {
	var closer byte
	switch s[open] {
	case '(':
		closer = ')'
	case '[':
		closer = ']'
	case '{':
		closer = '}'
	default:
		return -1
	}

	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case s[open]:
			depth++
		case closer:
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// splitTopLevel splits s on sep, ignoring separators nested in any bracket.
func splitTopLevel(s string, sep byte) []string {
	var parts []string
	depth := 0
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			if depth > 0 {
				depth--
			}
		case sep:
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, s[start:])
}

// cutTopLevel is strings.Cut that ignores sep inside brackets.
func cutTopLevel(s string, sep byte) (before, after string, found bool) {
	parts := splitTopLevel(s, sep)
	if len(parts) == 1 {
		return s, "", false
	}
	return parts[0], s[len(parts[0])+1:], true
}

type token struct {
	text    string
	bracket bool
}

// tokenize splits a declaration into words and bracketed dimensions.
// Package scopes (pkg::name) and interface modports (bus.master) stay in one
// word. Any other punctuation becomes a single-character token.
func tokenize(s string) []token {
	var toks []token
	i := 0
	for {
		i = skipSpace(s, i)
		if i >= len(s) {
			return toks
		}

		switch c := s[i]; {
		case c == '[':
			end := matchClose(s, i)
			if end < 0 {
				end = len(s) - 1
			}
			toks = append(toks, token{text: normalizeSpace(s[i : end+1]), bracket: true})
			i = end + 1
		case isIdentChar(c):
			start := i
			for i < len(s) {
				if isIdentChar(s[i]) || s[i] == '.' || s[i] == '\'' {
					i++
					continue
				}
				if s[i] == ':' && i+1 < len(s) && s[i+1] == ':' {
					i += 2
					continue
				}
				break
			}
			toks = append(toks, token{text: s[start:i]})
		default:
			toks = append(toks, token{text: string(c)})
			i++
		}
	}
}

// declType splits the tokens in front of a declared name into its type
// words and its packed dimensions.
func declType(head []token) (typ, width string) {
	var words, dims []string
	for _, t := range head {
		if t.bracket {
			dims = append(dims, t.text)
		} else {
			words = append(words, t.text)
		}
	}
	return strings.Join(words, " "), strings.Join(dims, "")
}

// lastWord returns the index of the last non-bracket token, or -1.
func lastWord(toks []token) int {
	for i := len(toks) - 1; i >= 0; i-- {
		if !toks[i].bracket {
			return i
		}
	}
	return -1
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// trailingWord returns the identifier that ends s, ignoring trailing space.
func trailingWord(s string) string {
	end := len(s)
	for end > 0 && isSpace(s[end-1]) {
		end--
	}
	start := end
	for start > 0 && isIdentChar(s[start-1]) {
		start--
	}
	return s[start:end]
}

package extractor

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/l3aro/go-spygen/pkg/types"
)

// DefaultRegisterSuffix marks internal state worth spying on.
const DefaultRegisterSuffix = "_s"

// SyntaxError reports a module that could not be delimited in a source file.
// Other modules of the same file are still extracted.
type SyntaxError struct {
	File   string
	Line   int
	Module string
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s:%d: module %s: %s", e.File, e.Line, e.Module, e.Msg)
}

// SystemVerilogExtractor implements the Extractor interface for SystemVerilog
// and Verilog sources. It recognizes module headers with ANSI parameter and
// port lists, non-ANSI port declarations in the body, and register
// declarations whose name carries the configured suffix.
type SystemVerilogExtractor struct {
	registerSuffix string
}

// Option configures a SystemVerilogExtractor.
type Option func(*SystemVerilogExtractor)

// WithRegisterSuffix sets the name suffix that marks a declaration as a register.
func WithRegisterSuffix(suffix string) Option {
	return func(e *SystemVerilogExtractor) {
		e.registerSuffix = suffix
	}
}

// NewSystemVerilogExtractor creates a new extractor.
func NewSystemVerilogExtractor(opts ...Option) *SystemVerilogExtractor {
	e := &SystemVerilogExtractor{registerSuffix: DefaultRegisterSuffix}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Language returns the language identifier for SystemVerilog.
func (e *SystemVerilogExtractor) Language() Language {
	return SystemVerilog
}

// FileExtensions returns the file extensions handled by default.
func (e *SystemVerilogExtractor) FileExtensions() []string {
	return []string{".sv", ".svh", ".v", ".vh"}
}

// Extract reads a source file and returns one record per module it defines.
func (e *SystemVerilogExtractor) Extract(filePath string) ([]types.ModuleRecord, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("reading file %s: %w", filePath, err)
	}
	return e.ExtractSource(filePath, content)
}

// ExtractSource extracts modules from already loaded source text. When some
// modules are malformed the well-formed ones are returned together with a
// joined error of *SyntaxError values.
func (e *SystemVerilogExtractor) ExtractSource(filePath string, src []byte) ([]types.ModuleRecord, error) {
	stripped := StripComments(string(src))
	masked := maskSource(string(src))

	var (
		records []types.ModuleRecord
		errs    []error
	)

	pos := 0
	for pos < len(masked) {
		loc := modulePattern.FindStringSubmatchIndex(masked[pos:])
		if loc == nil {
			break
		}
		start := pos + loc[0]
		name := masked[pos+loc[2] : pos+loc[3]]
		line := 1 + strings.Count(masked[:start], "\n")

		rec, next, err := e.parseModule(masked, stripped, pos+loc[1])
		if err != nil {
			errs = append(errs, &SyntaxError{File: filePath, Line: line, Module: name, Msg: err.Error()})
			pos = max(next, pos+loc[1])
			continue
		}

		rec.Name = name
		rec.File = filePath
		rec.Line = line
		records = append(records, rec)
		pos = next
	}

	return records, errors.Join(errs...)
}

// parseModule parses a module starting right after its name. It returns the
// record and the offset following endmodule.
func (e *SystemVerilogExtractor) parseModule(masked, stripped string, p int) (types.ModuleRecord, int, error) {
	var (
		rec                 types.ModuleRecord
		paramList, portList string
	)

	p = skipSpace(masked, p)
	for p < len(masked) && hasWordAt(masked, p, "import") {
		semi := strings.IndexByte(masked[p:], ';')
		if semi < 0 {
			return rec, p, errors.New("unterminated import in header")
		}
		p = skipSpace(masked, p+semi+1)
	}

	if p < len(masked) && masked[p] == '#' {
		p = skipSpace(masked, p+1)
		if p >= len(masked) || masked[p] != '(' {
			return rec, p, errors.New("expected '(' after '#'")
		}
		end := matchClose(masked, p)
		if end < 0 {
			return rec, p, errors.New("unbalanced parameter list")
		}
		paramList = stripped[p+1 : end]
		p = skipSpace(masked, end+1)
	}

	if p < len(masked) && masked[p] == '(' {
		end := matchClose(masked, p)
		if end < 0 {
			return rec, p, errors.New("unbalanced port list")
		}
		portList = stripped[p+1 : end]
		p = skipSpace(masked, end+1)
	}

	if p >= len(masked) || masked[p] != ';' {
		return rec, p, errors.New("expected ';' after module header")
	}
	bodyStart := p + 1

	endLoc := endmodulePattern.FindStringIndex(masked[bodyStart:])
	if endLoc == nil {
		return rec, p, errors.New("missing endmodule")
	}
	body := masked[bodyStart : bodyStart+endLoc[0]]

	rec.Parameters = parseParameters(paramList)
	rec.Ports = parsePorts(portList)
	if len(rec.Ports) == 0 && strings.TrimSpace(portList) != "" {
		for _, decl := range bodyPortPattern.FindAllString(body, -1) {
			rec.Ports = append(rec.Ports, parsePorts(strings.TrimSuffix(decl, ";"))...)
		}
	}
	rec.Registers = e.parseRegisters(body)
	rec.Body = body

	return rec, bodyStart + endLoc[1], nil
}

// parseParameters parses the inside of a #( ... ) list. Items without their
// own type inherit the previous one: `parameter int A = 1, B = 2`.
func parseParameters(list string) []types.Parameter {
	if strings.TrimSpace(list) == "" {
		return nil
	}

	var (
		params []types.Parameter
		typ    string
	)
	for _, item := range splitTopLevel(list, ',') {
		lhs, def, _ := cutTopLevel(item, '=')
		toks := tokenize(lhs)
		keyword := false
		if len(toks) > 0 && (toks[0].text == "parameter" || toks[0].text == "localparam") {
			toks = toks[1:]
			keyword = true
			typ = ""
		}

		i := lastWord(toks)
		if i < 0 || !isIdentifier(toks[i].text) {
			continue
		}
		head := toks[:i]
		if keyword || len(head) > 0 {
			t, w := declType(head)
			typ = strings.TrimSpace(t + " " + w)
		}

		params = append(params, types.Parameter{
			Name:    toks[i].text,
			Type:    typ,
			Default: normalizeSpace(def),
		})
	}
	return params
}

// parsePorts parses an ANSI port list, or the text of one non-ANSI port
// declaration. Direction, type and width carry over to following names until
// a new direction or type appears. Names without any direction and interface
// ports are skipped.
func parsePorts(list string) []types.Port {
	var (
		ports []types.Port
		dir   types.Direction
		typ   string
		width string
	)

	for _, item := range splitTopLevel(list, ',') {
		decl, _, _ := cutTopLevel(item, '=')
		toks := tokenize(decl)
		if len(toks) == 0 {
			continue
		}

		explicit := false
		if d := types.Direction(toks[0].text); !toks[0].bracket && d.Valid() {
			dir = d
			explicit = true
			toks = toks[1:]
			typ, width = "", ""
		}

		i := lastWord(toks)
		if i < 0 {
			continue
		}
		name := toks[i].text
		head := toks[:i]

		if !explicit && isInterfacePort(head) {
			dir = ""
			continue
		}
		if explicit || len(head) > 0 {
			typ, width = declType(head)
		}

		if dir == "" || !isIdentifier(name) {
			continue
		}
		ports = append(ports, types.Port{Direction: dir, Type: typ, Width: width, Name: name})
	}
	return ports
}

func isInterfacePort(head []token) bool {
	for _, t := range head {
		if !t.bracket && (t.text == "interface" || strings.Contains(t.text, ".")) {
			return true
		}
	}
	return false
}

// parseRegisters finds `logic` and `*_t` declarations in a module body and
// keeps the declared names that carry the register suffix.
func (e *SystemVerilogExtractor) parseRegisters(body string) []types.Register {
	var regs []types.Register

	for _, m := range registerPattern.FindAllStringSubmatchIndex(body, -1) {
		if declarationKeywords[trailingWord(body[:m[0]])] {
			continue
		}

		typ := body[m[2]:m[3]]
		if m[4] >= 0 {
			typ += " " + strings.TrimSpace(body[m[4]:m[5]])
		}
		_, width := declType(tokenize(body[m[6]:m[7]]))

		for _, decl := range splitTopLevel(body[m[8]:m[9]], ',') {
			toks := tokenize(decl)
			if len(toks) == 0 || toks[0].bracket {
				continue
			}
			name := toks[0].text
			if !strings.HasSuffix(name, e.registerSuffix) {
				continue
			}
			regs = append(regs, types.Register{Type: typ, Width: width, Name: name})
		}
	}
	return regs
}

// Package render provides template-based generation of the spy interface.
package render

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"text/template"

	"github.com/l3aro/go-spygen/pkg/types"
)

//go:embed templates/spy_if.sv.tmpl
var defaultTemplate string

// DefaultTemplateName is the name of the embedded template.
const DefaultTemplateName = "spy_if.sv.tmpl"

// ErrNoTop is returned when Render is called without a top module.
var ErrNoTop = errors.New("no top module to render")

// Options configures the bind target of the generated interface.
type Options struct {
	Testbench   string
	TopInstance string
	RootToken   string // stripped from paths in register comments
}

// Generator executes a template against the resolved signal inventory.
type Generator struct {
	opts     Options
	template *template.Template
}

// New creates a Generator using the embedded default template.
func New(opts Options) (*Generator, error) {
	tmpl, err := template.New(DefaultTemplateName).
		Funcs(templateFuncs()).
		Parse(defaultTemplate)
	if err != nil {
		return nil, fmt.Errorf("parsing default template: %w", err)
	}
	return &Generator{opts: opts, template: tmpl}, nil
}

// LoadTemplate replaces the template with the one at path.
func (g *Generator) LoadTemplate(path string) error {
	tmpl, err := template.New(filepath.Base(path)).
		Funcs(templateFuncs()).
		ParseFiles(path)
	if err != nil {
		return fmt.Errorf("loading template: %w", err)
	}
	g.template = tmpl
	return nil
}

// Input is what the pipeline hands to the renderer. Signals lists ports
// first; PortCount is the number of leading port entries.
type Input struct {
	Top       *types.ModuleRecord
	Signals   []types.Signal
	PortCount int
}

// Data represents data passed to templates.
type Data struct {
	Name        string            // Interface name, <top>_spy_if
	Module      string            // Top module name
	Parameters  []types.Parameter // Top module parameters, in declaration order
	Inputs      []string          // Aligned input declarations, one per top port
	Sections    []Section         // Spied signals grouped by owner
	Signals     []types.Signal    // The raw combined inventory
	PortCount   int
	Testbench   string
	TopInstance string
	BindTarget  string // <testbench>.<top_instance>
}

// Section is a run of signals of one category owned by one module.
type Section struct {
	Title   string
	Owner   string
	Kind    types.SignalKind
	Divider bool // first register section after the ports
	Lines   []Line
}

// Line is one spied signal.
type Line struct {
	Name    string
	Decl    string // aligned "type width name"
	Path    string
	Comment string // set for registers
}

// InterfaceName returns the name of the interface generated for top.
func InterfaceName(top string) string { return top + "_spy_if" }

// FileName returns the name of the file generated for top.
func FileName(top string) string { return InterfaceName(top) + ".sv" }

// Render executes the template for in and writes the result to w.
func (g *Generator) Render(w io.Writer, in Input) error {
	if in.Top == nil {
		return ErrNoTop
	}
	if in.PortCount < 0 || in.PortCount > len(in.Signals) {
		return fmt.Errorf("port count %d out of range for %d signals", in.PortCount, len(in.Signals))
	}

	if err := g.template.Execute(w, g.data(in)); err != nil {
		return fmt.Errorf("executing template: %w", err)
	}
	return nil
}

func (g *Generator) data(in Input) Data {
	d := Data{
		Name:        InterfaceName(in.Top.Name),
		Module:      in.Top.Name,
		Parameters:  in.Top.Parameters,
		Signals:     in.Signals,
		PortCount:   in.PortCount,
		Testbench:   g.opts.Testbench,
		TopInstance: g.opts.TopInstance,
		BindTarget:  bindTarget(g.opts),
	}

	inputs := make([]Decl, len(in.Top.Ports))
	for i, p := range in.Top.Ports {
		inputs[i] = Decl{Type: declType(p.Type), Width: p.Width, Name: p.Name}
	}
	d.Inputs = Align(inputs, "input ")

	decls := make([]Decl, len(in.Signals))
	for i, s := range in.Signals {
		decls[i] = Decl{Type: declType(s.Type), Width: s.Width, Name: s.Name}
	}
	aligned := Align(decls, "")

	for i, s := range in.Signals {
		kind := types.KindPort
		if i >= in.PortCount {
			kind = types.KindRegister
		}

		last := len(d.Sections) - 1
		if last < 0 || d.Sections[last].Owner != s.Owner || d.Sections[last].Kind != kind {
			d.Sections = append(d.Sections, Section{
				Title:   fmt.Sprintf("%s %ss", s.Owner, kind),
				Owner:   s.Owner,
				Kind:    kind,
				Divider: i == in.PortCount && i > 0,
			})
			last++
		}

		line := Line{Name: s.Name, Decl: aligned[i], Path: s.Path}
		if kind == types.KindRegister {
			line.Comment = types.RelativePath(g.opts.RootToken, s.Path)
		}
		d.Sections[last].Lines = append(d.Sections[last].Lines, line)
	}

	return d
}

func bindTarget(opts Options) string {
	if opts.Testbench == "" {
		return opts.TopInstance
	}
	if opts.TopInstance == "" {
		return opts.Testbench
	}
	return opts.Testbench + types.PathSeparator + opts.TopInstance
}

// declType defaults an untyped declaration to logic.
func declType(t string) string {
	if t == "" {
		return "logic"
	}
	return t
}

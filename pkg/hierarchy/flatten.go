package hierarchy

import (
	"sort"

	"github.com/l3aro/go-spygen/pkg/registry"
	"github.com/l3aro/go-spygen/pkg/types"
)

// Flattened holds the signal inventory of a design, sorted by owner module.
type Flattened struct {
	Ports       []types.PortSignal
	Registers   []types.RegisterSignal
	Diagnostics []Diagnostic
}

// visitor receives the events of one depth-first expansion.
type visitor interface {
	// enter is called for each expanded module before its instances.
	enter(m *types.ModuleRecord, alias, path string)
	// leave is called after every instance of m has been visited.
	leave(m *types.ModuleRecord)
	// unresolved is called for an instance of a module missing from the registry.
	unresolved(parent *types.ModuleRecord, inst types.InstanceEdge, path string)
}

// expander walks the tree from one root. expanding holds the modules on the
// active recursion path; chain mirrors it in order for error reporting.
type expander struct {
	reg       *registry.Registry
	expanding map[string]bool
	chain     []string
	v         visitor
}

func expand(reg *registry.Registry, top *types.ModuleRecord, rootToken string, v visitor) error {
	e := &expander{reg: reg, expanding: make(map[string]bool), v: v}
	return e.walk(top, "", rootToken)
}

func (e *expander) walk(m *types.ModuleRecord, alias, path string) error {
	e.expanding[m.Name] = true
	e.chain = append(e.chain, m.Name)
	defer func() {
		delete(e.expanding, m.Name)
		e.chain = e.chain[:len(e.chain)-1]
	}()

	e.v.enter(m, alias, path)

	for _, inst := range m.Instances {
		childPath := types.JoinPath(path, inst.Alias)

		if e.expanding[inst.Module] {
			return &CycleError{Chain: append(append([]string{}, e.chain...), inst.Module)}
		}

		child, ok := e.reg.Get(inst.Module)
		if !ok {
			e.v.unresolved(m, inst, childPath)
			continue
		}

		if err := e.walk(child, inst.Alias, childPath); err != nil {
			return err
		}
	}

	e.v.leave(m)
	return nil
}

// Flatten walks the instantiation tree depth-first from top and returns every
// port and register at every level, each with its qualified path.
//
// Instances of unknown modules are skipped with a diagnostic. Revisiting a
// module already being expanded returns a *CycleError and no partial output.
func Flatten(reg *registry.Registry, top *types.ModuleRecord, rootToken string) (*Flattened, error) {
	f := &flattener{out: &Flattened{}}
	if err := expand(reg, top, rootToken, f); err != nil {
		return nil, err
	}

	SortPortsByOwner(f.out.Ports)
	SortRegistersByOwner(f.out.Registers)
	return f.out, nil
}

// flattener collects the signals of every expanded module.
type flattener struct {
	out *Flattened
}

func (f *flattener) enter(m *types.ModuleRecord, _, path string) {
	for _, r := range m.Registers {
		f.out.Registers = append(f.out.Registers, types.RegisterSignal{
			Register: r,
			Path:     types.JoinPath(path, r.Name),
			Owner:    m.Name,
		})
	}
	for _, p := range m.Ports {
		f.out.Ports = append(f.out.Ports, types.PortSignal{
			Port:  p,
			Path:  types.JoinPath(path, p.Name),
			Owner: m.Name,
		})
	}
}

func (f *flattener) leave(*types.ModuleRecord) {}

func (f *flattener) unresolved(parent *types.ModuleRecord, inst types.InstanceEdge, path string) {
	f.out.Diagnostics = append(f.out.Diagnostics, Diagnostic{
		Kind:   UnresolvedInstance,
		Parent: parent.Name,
		Module: inst.Module,
		Alias:  inst.Alias,
		Path:   path,
	})
}

// SortPortsByOwner stably orders ports by owner module name.
func SortPortsByOwner(ports []types.PortSignal) {
	sort.SliceStable(ports, func(i, j int) bool { return ports[i].Owner < ports[j].Owner })
}

// SortRegistersByOwner stably orders registers by owner module name.
func SortRegistersByOwner(regs []types.RegisterSignal) {
	sort.SliceStable(regs, func(i, j int) bool { return regs[i].Owner < regs[j].Owner })
}

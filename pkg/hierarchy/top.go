package hierarchy

import (
	"github.com/l3aro/go-spygen/pkg/registry"
	"github.com/l3aro/go-spygen/pkg/types"
)

// ResolveTop returns the single module that roots the instantiation tree.
//
// An override that names a registered module wins unconditionally. An
// unknown override is ignored and the top is inferred: a lone module is the
// top, otherwise the unique module that instantiates something and is never
// instantiated itself. Callers compare the result with the override to
// report the miss.
func ResolveTop(reg *registry.Registry, override string) (*types.ModuleRecord, error) {
	if override != "" {
		if m, ok := reg.Get(override); ok {
			return m, nil
		}
	}

	modules := reg.Modules()
	if len(modules) == 1 {
		return modules[0], nil
	}

	candidates := PotentialTops(reg)
	switch len(candidates) {
	case 1:
		return candidates[0], nil
	case 0:
		return nil, &TopModuleNotFoundError{Override: override, Modules: reg.Names()}
	default:
		names := make([]string, len(candidates))
		for i, c := range candidates {
			names[i] = c.Name
		}
		return nil, &AmbiguousTopModuleError{Candidates: names}
	}
}

// PotentialTops returns modules with at least one instance that no module
// instantiates, in lexical order.
func PotentialTops(reg *registry.Registry) []*types.ModuleRecord {
	instantiated := make(map[string]bool)
	for _, m := range reg.Modules() {
		for _, inst := range m.Instances {
			instantiated[inst.Module] = true
		}
	}

	var tops []*types.ModuleRecord
	for _, m := range reg.Modules() {
		if len(m.Instances) > 0 && !instantiated[m.Name] {
			tops = append(tops, m)
		}
	}
	return tops
}

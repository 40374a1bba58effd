package hierarchy

import (
	"fmt"

	"github.com/l3aro/go-spygen/pkg/types"
)

// ResolveRegisters renames registers whose local name occurs more than once
// to a name derived from their qualified path. Registers are never dropped.
func ResolveRegisters(rootToken string, regs []types.RegisterSignal) []types.RegisterSignal {
	counts := make(map[string]int, len(regs))
	for _, r := range regs {
		counts[r.Register.Name]++
	}

	out := make([]types.RegisterSignal, len(regs))
	copy(out, regs)
	for i := range out {
		if counts[out[i].Register.Name] > 1 {
			out[i].Register.Name = types.FlatName(rootToken, out[i].Path)
		}
	}

	uniqueNames(len(out),
		func(i int) string { return out[i].Register.Name },
		func(i int, name string) { out[i].Register.Name = name },
		nil)

	SortRegistersByOwner(out)
	return out
}

// ResolvePorts selects which flattened ports are exposed and under which name.
//
// Ports of the top module itself (depth 1) are never exposed. They are
// already on the generated interface, so their names are reserved too.
// Within a group of equally named ports, outputs win and every output below
// the top is kept under its path-derived name. A group without outputs is
// represented by its member with the shortest path, ties going to the
// lexically smallest path.
func ResolvePorts(rootToken string, ports []types.PortSignal) []types.PortSignal {
	groups := make(map[string][]int, len(ports))
	var order []string
	for i, p := range ports {
		if _, ok := groups[p.Port.Name]; !ok {
			order = append(order, p.Port.Name)
		}
		groups[p.Port.Name] = append(groups[p.Port.Name], i)
	}

	keep := make([]bool, len(ports))
	rename := make([]bool, len(ports))

	for _, name := range order {
		members := groups[name]

		if len(members) == 1 {
			i := members[0]
			keep[i] = types.PathDepth(rootToken, ports[i].Path) > 1
			continue
		}

		if hasOutput(ports, members) {
			for _, i := range members {
				if ports[i].Port.Direction != types.Output {
					continue
				}
				if types.PathDepth(rootToken, ports[i].Path) == 1 {
					continue
				}
				keep[i] = true
				rename[i] = true
			}
			continue
		}

		best := members[0]
		for _, i := range members[1:] {
			if shorterPath(ports[i].Path, ports[best].Path) {
				best = i
			}
		}
		keep[best] = types.PathDepth(rootToken, ports[best].Path) > 1
	}

	var reserved []string
	for _, p := range ports {
		if types.PathDepth(rootToken, p.Path) == 1 {
			reserved = append(reserved, p.Port.Name)
		}
	}

	var out []types.PortSignal
	for i, p := range ports {
		if !keep[i] {
			continue
		}
		if rename[i] {
			p.Port.Name = types.FlatName(rootToken, p.Path)
		}
		out = append(out, p)
	}

	uniqueNames(len(out),
		func(i int) string { return out[i].Port.Name },
		func(i int, name string) { out[i].Port.Name = name },
		reserved)

	SortPortsByOwner(out)
	return out
}

func hasOutput(ports []types.PortSignal, members []int) bool {
	for _, i := range members {
		if ports[i].Port.Direction == types.Output {
			return true
		}
	}
	return false
}

// shorterPath orders by length, then lexically.
func shorterPath(a, b string) bool {
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}

// SeparateRegisters renames registers whose name is already declared on the
// generated interface, either as a port of top or as a spied port. Registers
// keep their order.
func SeparateRegisters(top *types.ModuleRecord, ports []types.PortSignal, regs []types.RegisterSignal) []types.RegisterSignal {
	var reserved []string
	if top != nil {
		for _, p := range top.Ports {
			reserved = append(reserved, p.Name)
		}
	}
	for _, p := range ports {
		reserved = append(reserved, p.Port.Name)
	}

	out := make([]types.RegisterSignal, len(regs))
	copy(out, regs)
	uniqueNames(len(out),
		func(i int) string { return out[i].Register.Name },
		func(i int, name string) { out[i].Register.Name = name },
		reserved)
	return out
}

// uniqueNames suffixes later duplicates with _2, _3, ... so no two entries
// share a name and no entry takes a reserved name. A path-derived name can
// still collide with a literal name that happens to spell the same path.
func uniqueNames(n int, get func(int) string, set func(int, string), reserved []string) {
	used := make(map[string]bool, n+len(reserved))
	taken := make(map[string]bool, n+len(reserved))
	for _, name := range reserved {
		used[name] = true
		taken[name] = true
	}
	for i := 0; i < n; i++ {
		used[get(i)] = true
	}

	for i := 0; i < n; i++ {
		name := get(i)
		if !taken[name] {
			taken[name] = true
			continue
		}
		for k := 2; ; k++ {
			candidate := fmt.Sprintf("%s_%d", name, k)
			if !used[candidate] {
				set(i, candidate)
				used[candidate] = true
				taken[candidate] = true
				break
			}
		}
	}
}

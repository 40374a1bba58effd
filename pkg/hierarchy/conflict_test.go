package hierarchy

import (
	"math/rand"
	"testing"

	"github.com/l3aro/go-spygen/pkg/registry"
	"github.com/l3aro/go-spygen/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func regNames(regs []types.RegisterSignal) []string {
	out := make([]string, len(regs))
	for i, r := range regs {
		out[i] = r.Register.Name
	}
	return out
}

func portNames(ports []types.PortSignal) []string {
	out := make([]string, len(ports))
	for i, p := range ports {
		out[i] = p.Port.Name
	}
	return out
}

func assertUnique(t *testing.T, names []string) {
	t.Helper()
	seen := make(map[string]bool)
	for _, n := range names {
		assert.False(t, seen[n], "duplicate name %s", n)
		seen[n] = true
	}
}

func flattenTop(t *testing.T, reg *registry.Registry) *Flattened {
	t.Helper()
	top, err := ResolveTop(reg, "")
	require.NoError(t, err)
	flat, err := Flatten(reg, top, testRoot)
	require.NoError(t, err)
	return flat
}

func TestResolveRegistersRenamesDuplicates(t *testing.T) {
	reg := newRegistry(t,
		types.ModuleRecord{
			Name:      "top",
			Registers: []types.Register{{Type: "logic", Name: "state_s"}},
			Body:      "child c1 (); child c2 ();",
		},
		types.ModuleRecord{Name: "child", Registers: []types.Register{{Type: "logic", Width: "[3:0]", Name: "cnt_s"}}},
	)
	flat := flattenTop(t, reg)

	resolved := ResolveRegisters(testRoot, flat.Registers)

	assert.Equal(t, []string{"c1_cnt_s", "c2_cnt_s", "state_s"}, regNames(resolved))
	assert.Equal(t, "[3:0]", resolved[0].Register.Width)
	assert.Equal(t, "`DUT_PATH.c1.cnt_s", resolved[0].Path, "path is kept")
	assertUnique(t, regNames(resolved))

	// input is not modified
	assert.Equal(t, "cnt_s", flat.Registers[0].Register.Name)
}

func TestResolveRegistersIdempotent(t *testing.T) {
	in := []types.RegisterSignal{
		{Register: types.Register{Name: "a_s"}, Path: "R.u0.a_s", Owner: "m"},
		{Register: types.Register{Name: "a_s"}, Path: "R.u1.a_s", Owner: "m"},
		{Register: types.Register{Name: "b_s"}, Path: "R.b_s", Owner: "top"},
	}

	once := ResolveRegisters("R", in)
	twice := ResolveRegisters("R", once)
	assert.Equal(t, once, twice)
}

func TestResolveRegistersCollisionWithLiteralName(t *testing.T) {
	in := []types.RegisterSignal{
		{Register: types.Register{Name: "u0_a_s"}, Path: "R.u0_a_s", Owner: "top"},
		{Register: types.Register{Name: "a_s"}, Path: "R.u0.a_s", Owner: "x"},
		{Register: types.Register{Name: "a_s"}, Path: "R.u1.a_s", Owner: "x"},
	}

	out := ResolveRegisters("R", in)
	assert.Len(t, out, 3, "registers are never dropped")
	assertUnique(t, regNames(out))
	assert.Equal(t, []string{"u0_a_s", "u0_a_s_2", "u1_a_s"}, regNames(out))
}

func TestResolvePortsOutputGroup(t *testing.T) {
	reg := newRegistry(t,
		types.ModuleRecord{
			Name: "top",
			Ports: []types.Port{
				{Direction: types.Input, Type: "logic", Name: "clk"},
				{Direction: types.Output, Type: "logic", Name: "done"},
			},
			Body: "child c1 (.*); child c2 (.*);",
		},
		types.ModuleRecord{
			Name: "child",
			Ports: []types.Port{
				{Direction: types.Input, Type: "logic", Name: "clk"},
				{Direction: types.Output, Type: "logic", Name: "done"},
			},
		},
	)
	flat := flattenTop(t, reg)

	resolved := ResolvePorts(testRoot, flat.Ports)

	// clk: all inputs, shortest path is the top's own port which is never spied on
	// done: outputs below the top are renamed, the top's own output is skipped
	assert.Equal(t, []string{"c1_done", "c2_done"}, portNames(resolved))
	assert.Equal(t, []string{"`DUT_PATH.c1.done", "`DUT_PATH.c2.done"}, portPaths(resolved))
}

func TestResolvePortsTwoInstancesWithoutTopPort(t *testing.T) {
	reg := newRegistry(t,
		types.ModuleRecord{Name: "top", Body: "child c1 (.*); child c2 (.*);"},
		types.ModuleRecord{Name: "child", Ports: []types.Port{{Direction: types.Output, Type: "logic", Name: "done"}}},
	)
	flat := flattenTop(t, reg)

	resolved := ResolvePorts(testRoot, flat.Ports)
	assert.Equal(t, []string{"c1_done", "c2_done"}, portNames(resolved))
}

func TestResolvePortsAvoidTopPortNames(t *testing.T) {
	reg := newRegistry(t,
		types.ModuleRecord{
			Name: "top",
			Ports: []types.Port{
				{Direction: types.Output, Type: "logic", Name: "done"},
				{Direction: types.Input, Type: "logic", Name: "c1_done"},
			},
			Body: "child c1 (); child c2 ();",
		},
		types.ModuleRecord{Name: "child", Ports: []types.Port{{Direction: types.Output, Type: "logic", Name: "done"}}},
	)
	flat := flattenTop(t, reg)

	resolved := ResolvePorts(testRoot, flat.Ports)

	names := portNames(resolved)
	assert.ElementsMatch(t, []string{"c1_done_2", "c2_done"}, names)
	assert.NotContains(t, names, "c1_done", "c1_done is a port of the top")
	assertUnique(t, names)
}

func TestSeparateRegisters(t *testing.T) {
	top := &types.ModuleRecord{
		Name:  "top",
		Ports: []types.Port{{Direction: types.Input, Type: "logic", Name: "clk_s"}},
	}
	ports := []types.PortSignal{
		{Port: types.Port{Direction: types.Output, Name: "c1_done_s"}, Path: "R.c1.done_s", Owner: "child"},
	}
	regs := []types.RegisterSignal{
		{Register: types.Register{Name: "clk_s"}, Path: "R.u_a.clk_s", Owner: "a"},
		{Register: types.Register{Name: "c1_done_s"}, Path: "R.c1_done_s", Owner: "top"},
		{Register: types.Register{Name: "state_s"}, Path: "R.state_s", Owner: "top"},
	}

	out := SeparateRegisters(top, ports, regs)

	assert.Equal(t, []string{"clk_s_2", "c1_done_s_2", "state_s"}, regNames(out))
	assert.Equal(t, "R.u_a.clk_s", out[0].Path, "path is kept")
	assert.Equal(t, "clk_s", regs[0].Register.Name, "input is not modified")
	assertUnique(t, append(portNames(ports), regNames(out)...))
}

func TestResolvePortsSingleton(t *testing.T) {
	in := []types.PortSignal{
		{Port: types.Port{Direction: types.Input, Name: "rst_n"}, Path: "R.rst_n", Owner: "top"},
		{Port: types.Port{Direction: types.Output, Name: "valid"}, Path: "R.u_core.valid", Owner: "core"},
	}

	out := ResolvePorts("R", in)
	require.Len(t, out, 1)
	assert.Equal(t, "valid", out[0].Port.Name, "singletons keep their name")
}

func TestResolvePortsMixedDirectionsPreferOutputs(t *testing.T) {
	in := []types.PortSignal{
		{Port: types.Port{Direction: types.Input, Name: "data"}, Path: "R.u_sink.data", Owner: "sink"},
		{Port: types.Port{Direction: types.Output, Name: "data"}, Path: "R.u_src.data", Owner: "src"},
		{Port: types.Port{Direction: types.Inout, Name: "data"}, Path: "R.u_pad.data", Owner: "pad"},
	}

	out := ResolvePorts("R", in)
	require.Len(t, out, 1)
	assert.Equal(t, "u_src_data", out[0].Port.Name)
	assert.Equal(t, types.Output, out[0].Port.Direction)
}

func TestResolvePortsInputGroupShortestPath(t *testing.T) {
	in := []types.PortSignal{
		{Port: types.Port{Direction: types.Input, Name: "en"}, Path: "R.u_a.u_deep.en", Owner: "leaf"},
		{Port: types.Port{Direction: types.Input, Name: "en"}, Path: "R.u_a.en", Owner: "mid"},
		{Port: types.Port{Direction: types.Inout, Name: "en"}, Path: "R.u_bb.u_deep.en", Owner: "leaf"},
	}

	out := ResolvePorts("R", in)
	require.Len(t, out, 1)
	assert.Equal(t, "en", out[0].Port.Name, "representative keeps its name")
	assert.Equal(t, "R.u_a.en", out[0].Path)
}

func TestResolvePortsInputTieBreakIsLexical(t *testing.T) {
	a := types.PortSignal{Port: types.Port{Direction: types.Input, Name: "en"}, Path: "R.c2.en", Owner: "child"}
	b := types.PortSignal{Port: types.Port{Direction: types.Input, Name: "en"}, Path: "R.c1.en", Owner: "child"}

	for _, in := range [][]types.PortSignal{{a, b}, {b, a}} {
		out := ResolvePorts("R", in)
		require.Len(t, out, 1)
		assert.Equal(t, "R.c1.en", out[0].Path)
	}
}

func TestResolvePortsIdempotent(t *testing.T) {
	in := []types.PortSignal{
		{Port: types.Port{Direction: types.Output, Name: "q"}, Path: "R.q", Owner: "top"},
		{Port: types.Port{Direction: types.Output, Name: "q"}, Path: "R.u0.q", Owner: "ff"},
		{Port: types.Port{Direction: types.Output, Name: "q"}, Path: "R.u1.q", Owner: "ff"},
		{Port: types.Port{Direction: types.Input, Name: "d"}, Path: "R.u0.d", Owner: "ff"},
		{Port: types.Port{Direction: types.Input, Name: "d"}, Path: "R.u1.d", Owner: "ff"},
	}

	once := ResolvePorts("R", in)
	twice := ResolvePorts("R", once)
	assert.Equal(t, once, twice)
	assertUnique(t, portNames(once))
}

func TestResolvedOutputIndependentOfRecordOrder(t *testing.T) {
	records := []types.ModuleRecord{
		{
			Name:  "top",
			Ports: []types.Port{{Direction: types.Output, Type: "logic", Name: "done"}},
			Body:  "ctrl u_ctrl (.*); dp u_dp0 (.*); dp u_dp1 (.*);",
		},
		{
			Name:      "ctrl",
			Ports:     []types.Port{{Direction: types.Output, Type: "logic", Name: "done"}},
			Registers: []types.Register{{Type: "state_t", Name: "state_s"}},
		},
		{
			Name:      "dp",
			Ports:     []types.Port{{Direction: types.Input, Type: "logic", Name: "start"}},
			Registers: []types.Register{{Type: "logic", Width: "[7:0]", Name: "acc_s"}, {Type: "logic", Name: "state_s"}},
		},
	}

	run := func(recs []types.ModuleRecord) ([]types.PortSignal, []types.RegisterSignal) {
		reg := newRegistry(t, recs...)
		flat := flattenTop(t, reg)
		return ResolvePorts(testRoot, flat.Ports), ResolveRegisters(testRoot, flat.Registers)
	}

	wantPorts, wantRegs := run(records)

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 5; i++ {
		shuffled := append([]types.ModuleRecord{}, records...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })

		gotPorts, gotRegs := run(shuffled)
		assert.Equal(t, wantPorts, gotPorts)
		assert.Equal(t, wantRegs, gotRegs)
	}

	assert.Equal(t, []string{"u_ctrl_done", "start"}, portNames(wantPorts))
	assert.Equal(t, []string{
		"u_ctrl_state_s", "u_dp0_acc_s", "u_dp0_state_s", "u_dp1_acc_s", "u_dp1_state_s",
	}, regNames(wantRegs))
}

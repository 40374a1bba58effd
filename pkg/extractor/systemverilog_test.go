package extractor

import (
	"errors"
	"strings"
	"testing"

	"github.com/l3aro/go-spygen/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func extract(t *testing.T, src string, opts ...Option) []types.ModuleRecord {
	t.Helper()
	records, err := NewSystemVerilogExtractor(opts...).ExtractSource("test.sv", []byte(src))
	require.NoError(t, err)
	return records
}

func moduleNames(records []types.ModuleRecord) []string {
	names := make([]string, len(records))
	for i, r := range records {
		names[i] = r.Name
	}
	return names
}

func TestSystemVerilogExtractorFullModule(t *testing.T) {
	src := `
module fifo #(
  parameter type T = logic [7:0],
  parameter int DEPTH = 16,
  WIDTH = $clog2(DEPTH)
) (
  input  logic         clk,
  input  logic         rst_n,
  input  T             wdata, // write data
  output logic [7:0]   rdata, level,
  inout  wire          pad
);
  logic [3:0] wptr_s, rptr_s;
  logic       full;
  state_t     state_s;
  my_pkg::mode_t mode_s;
  logic signed [7:0] acc_s;

  output_stage u_out (.d(rdata));
endmodule
`
	records := extract(t, src)
	require.Len(t, records, 1)
	m := records[0]

	assert.Equal(t, "fifo", m.Name)
	assert.Equal(t, "test.sv", m.File)
	assert.Equal(t, 2, m.Line)

	assert.Equal(t, []types.Parameter{
		{Name: "T", Type: "type", Default: "logic [7:0]"},
		{Name: "DEPTH", Type: "int", Default: "16"},
		{Name: "WIDTH", Type: "int", Default: "$clog2(DEPTH)"},
	}, m.Parameters)

	assert.Equal(t, []types.Port{
		{Direction: types.Input, Type: "logic", Name: "clk"},
		{Direction: types.Input, Type: "logic", Name: "rst_n"},
		{Direction: types.Input, Type: "T", Name: "wdata"},
		{Direction: types.Output, Type: "logic", Width: "[7:0]", Name: "rdata"},
		{Direction: types.Output, Type: "logic", Width: "[7:0]", Name: "level"},
		{Direction: types.Inout, Type: "wire", Name: "pad"},
	}, m.Ports)

	assert.Equal(t, []types.Register{
		{Type: "logic", Width: "[3:0]", Name: "wptr_s"},
		{Type: "logic", Width: "[3:0]", Name: "rptr_s"},
		{Type: "state_t", Name: "state_s"},
		{Type: "my_pkg::mode_t", Name: "mode_s"},
		{Type: "logic signed", Width: "[7:0]", Name: "acc_s"},
	}, m.Registers)

	assert.Contains(t, m.Body, "output_stage u_out (.d(rdata));")
	assert.NotContains(t, m.Body, "endmodule")
	assert.Empty(t, m.Instances, "edges are built by the hierarchy package")
}

func TestSystemVerilogExtractorSeveralModules(t *testing.T) {
	src := "// module fake (input a);\n" +
		"`timescale 1ns/1ps\n" +
		"\n" +
		"module a (input logic clk);\n" +
		"  b u_b (.clk(clk));\n" +
		"endmodule : a\n" +
		"\n" +
		"module b (input logic clk);\n" +
		"endmodule\n"

	records := extract(t, src)
	assert.Equal(t, []string{"a", "b"}, moduleNames(records))
	assert.Equal(t, 4, records[0].Line)
	assert.Equal(t, 8, records[1].Line)
	assert.Contains(t, records[0].Body, "b u_b")
}

func TestSystemVerilogExtractorHeaderVariants(t *testing.T) {
	tests := []struct {
		name      string
		src       string
		wantPorts []string
		wantParam []string
	}{
		{
			name: "no ports",
			src:  "module top;\nendmodule",
		},
		{
			name:      "empty port list",
			src:       "module top #(parameter N = 2) ();\nendmodule",
			wantParam: []string{"N"},
		},
		{
			name:      "package import in header",
			src:       "module top import cfg_pkg::*; #(parameter W = 1) (input logic [W-1:0] d);\nendmodule",
			wantPorts: []string{"d"},
			wantParam: []string{"W"},
		},
		{
			name:      "interface ports are skipped",
			src:       "module top (axi_if.slave bus, input logic clk, output logic done);\nendmodule",
			wantPorts: []string{"clk", "done"},
		},
		{
			name:      "default port value",
			src:       "module top (input logic en = 1'b1, output logic q);\nendmodule",
			wantPorts: []string{"en", "q"},
		},
		{
			name:      "unpacked port dimension",
			src:       "module top (input logic [7:0] mem [4], output logic ok);\nendmodule",
			wantPorts: []string{"mem", "ok"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := extract(t, tt.src)
			require.Len(t, records, 1)

			var ports, params []string
			for _, p := range records[0].Ports {
				ports = append(ports, p.Name)
			}
			for _, p := range records[0].Parameters {
				params = append(params, p.Name)
			}
			assert.Equal(t, tt.wantPorts, ports)
			assert.Equal(t, tt.wantParam, params)
		})
	}
}

func TestSystemVerilogExtractorNonANSIPorts(t *testing.T) {
	src := `
module legacy (clk, data, q_s);
  input clk;
  input [7:0] data;
  output logic [7:0] q_s;
  logic busy_s;
endmodule
`
	records := extract(t, src)
	require.Len(t, records, 1)

	assert.Equal(t, []types.Port{
		{Direction: types.Input, Name: "clk"},
		{Direction: types.Input, Width: "[7:0]", Name: "data"},
		{Direction: types.Output, Type: "logic", Width: "[7:0]", Name: "q_s"},
	}, records[0].Ports)
	assert.Equal(t, []types.Register{{Type: "logic", Name: "busy_s"}}, records[0].Registers,
		"port declarations are not registers")
}

func TestSystemVerilogExtractorRegisters(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []string
	}{
		{"single", "logic a_s;", []string{"a_s"}},
		{"list keeps suffixed names", "logic [1:0] a, b_s, c_s;", []string{"b_s", "c_s"}},
		{"unpacked dimension", "logic [7:0] mem_s [0:3];", []string{"mem_s"}},
		{"typedef type", "typedef enum logic [1:0] {IDLE, RUN} st_t;\n st_t st_s, st_next;", []string{"st_s"}},
		{"line comment", "logic a_s; // logic b_s;", []string{"a_s"}},
		{"block comment", "/* logic c_s; */ logic d_s;", []string{"d_s"}},
		{"no suffix", "logic valid;", nil},
		{"not a declaration", "assign x_s = y;", nil},
		{"initializer", "logic z_s = 1'b0;", nil},
		{"prefix is not a type", "my_logic q_s;", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := extract(t, "module m;\n"+tt.body+"\nendmodule\n")
			require.Len(t, records, 1)

			var got []string
			for _, r := range records[0].Registers {
				got = append(got, r.Name)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSystemVerilogExtractorCustomSuffix(t *testing.T) {
	records := extract(t, "module m;\n logic a_s, b_reg;\nendmodule", WithRegisterSuffix("_reg"))
	require.Len(t, records, 1)
	assert.Equal(t, []types.Register{{Type: "logic", Name: "b_reg"}}, records[0].Registers)
}

func TestSystemVerilogExtractorStringLiterals(t *testing.T) {
	src := `module top;
  initial $display("module fake (x); endmodule child u_c (");
  logic dbg_s;
endmodule
`
	records := extract(t, src)
	require.Len(t, records, 1)
	assert.Equal(t, "top", records[0].Name)
	assert.NotContains(t, records[0].Body, "fake")
	assert.NotContains(t, records[0].Body, "u_c")
	assert.Equal(t, []types.Register{{Type: "logic", Name: "dbg_s"}}, records[0].Registers)
}

func TestSystemVerilogExtractorMalformed(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		wantGood []string
		wantBad  string
		wantLine int
	}{
		{
			name:     "unbalanced port list",
			src:      "module good (input logic a);\nendmodule\nmodule bad (input logic a;\n",
			wantGood: []string{"good"},
			wantBad:  "bad",
			wantLine: 3,
		},
		{
			name:     "missing endmodule",
			src:      "module open_ended;\n  logic x_s;\n",
			wantBad:  "open_ended",
			wantLine: 1,
		},
		{
			name:     "junk after header",
			src:      "module broken (input logic a) junk;\nendmodule\nmodule ok;\nendmodule\n",
			wantGood: []string{"ok"},
			wantBad:  "broken",
			wantLine: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := NewSystemVerilogExtractor().ExtractSource("bad.sv", []byte(tt.src))
			require.Error(t, err)

			var syntaxErr *SyntaxError
			require.True(t, errors.As(err, &syntaxErr))
			assert.Equal(t, tt.wantBad, syntaxErr.Module)
			assert.Equal(t, tt.wantLine, syntaxErr.Line)
			assert.Equal(t, "bad.sv", syntaxErr.File)

			if tt.wantGood == nil {
				assert.Empty(t, records)
			} else {
				assert.Equal(t, tt.wantGood, moduleNames(records))
			}
		})
	}
}

func TestStripComments(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"line comment", "a // c\nb", "a     \nb"},
		{"block comment keeps newlines", "a /* x\ny */ b", "a     \n     b"},
		{"markers in strings", `$display("//not /* a comment"); // real`, `$display("//not /* a comment");`},
		{"escaped quote", `s = "a\"//b"; // c`, `s = "a\"//b";`},
		{"no comments", "logic a_s;", "logic a_s;"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := StripComments(tt.in)
			assert.Len(t, got, len(tt.in), "length is preserved")
			assert.Equal(t, tt.want, strings.TrimRight(got, " "))
		})
	}
}

func TestMaskSource(t *testing.T) {
	got := maskSource(`x = "abc"; // note` + "\ny")
	assert.Equal(t, `x = "   ";`+strings.Repeat(" ", 8)+"\ny", got)
}

package render

import (
	"strings"
	"text/template"

	"github.com/l3aro/go-spygen/pkg/types"
)

// templateFuncs returns custom template functions.
func templateFuncs() template.FuncMap {
	return template.FuncMap{
		// Declarations
		"paramDecl": paramDecl,
		"overrides": overrides,
		"align":     Align,
		"divider":   func() string { return strings.Repeat("-", 72) },

		// String manipulation
		"lower":   strings.ToLower,
		"upper":   strings.ToUpper,
		"join":    strings.Join,
		"replace": strings.ReplaceAll,

		// Misc
		"notLast": func(i, length int) bool { return i < length-1 },
	}
}

// Decl is a declaration to be column aligned.
type Decl struct {
	Type  string
	Width string
	Name  string
}

// Align renders decls as "<prefix><type> <width> <name>" with the names
// starting in the same column.
func Align(decls []Decl, prefix string) []string {
	heads := make([]string, len(decls))
	column := 0
	for i, d := range decls {
		head := d.Type
		if d.Width != "" {
			head += " " + d.Width
		}
		heads[i] = head
		column = max(column, len(head))
	}

	out := make([]string, len(decls))
	for i, d := range decls {
		out[i] = prefix + heads[i] + strings.Repeat(" ", column-len(heads[i])+1) + d.Name
	}
	return out
}

// paramDecl renders a parameter as it appears in a #( ) list.
func paramDecl(p types.Parameter) string {
	var b strings.Builder
	if p.Type != "" {
		b.WriteString(p.Type)
		b.WriteByte(' ')
	}
	b.WriteString(p.Name)
	if p.Default != "" {
		b.WriteString(" = ")
		b.WriteString(p.Default)
	}
	return b.String()
}

// overrides renders .P(P) for every parameter.
func overrides(params []types.Parameter) string {
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = "." + p.Name + "(" + p.Name + ")"
	}
	return strings.Join(parts, ", ")
}

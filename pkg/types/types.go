// Package types defines the core data structures for the module hierarchy.
// It includes module records, port and register declarations, instance edges,
// and the flattened signal records produced by hierarchy traversal.
package types

import "strings"

// Direction represents a port direction
type Direction string

const (
	Input  Direction = "input"
	Output Direction = "output"
	Inout  Direction = "inout"
)

// Valid reports whether d is one of the known port directions.
func (d Direction) Valid() bool {
	switch d {
	case Input, Output, Inout:
		return true
	}
	return false
}

// Mode selects which flattened signal categories are produced.
type Mode string

const (
	ModePorts     Mode = "ports"
	ModeRegisters Mode = "registers"
	ModeBoth      Mode = "both"
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	switch m {
	case ModePorts, ModeRegisters, ModeBoth:
		return true
	}
	return false
}

// IncludesPorts reports whether ports are produced in this mode.
func (m Mode) IncludesPorts() bool { return m == ModePorts || m == ModeBoth }

// IncludesRegisters reports whether registers are produced in this mode.
func (m Mode) IncludesRegisters() bool { return m == ModeRegisters || m == ModeBoth }

// Parameter represents a module parameter. Order within a module is significant.
type Parameter struct {
	Name    string `json:"name" yaml:"name" msgpack:"name"`
	Type    string `json:"type,omitempty" yaml:"type,omitempty" msgpack:"type"`
	Default string `json:"default,omitempty" yaml:"default,omitempty" msgpack:"default"`
}

// Declaration is implemented by both signal declaration variants.
type Declaration interface {
	DeclName() string
	DeclType() string
	DeclWidth() string
}

// Port represents a port declaration in a module header
type Port struct {
	Direction Direction `json:"direction" yaml:"direction" msgpack:"direction"`
	Type      string    `json:"type,omitempty" yaml:"type,omitempty" msgpack:"type"`
	Width     string    `json:"width,omitempty" yaml:"width,omitempty" msgpack:"width"`
	Name      string    `json:"name" yaml:"name" msgpack:"name"`
}

func (p Port) DeclName() string  { return p.Name }
func (p Port) DeclType() string  { return p.Type }
func (p Port) DeclWidth() string { return p.Width }

// Register represents internal state matching the register naming convention
type Register struct {
	Type  string `json:"type" yaml:"type" msgpack:"type"`
	Width string `json:"width,omitempty" yaml:"width,omitempty" msgpack:"width"`
	Name  string `json:"name" yaml:"name" msgpack:"name"`
}

func (r Register) DeclName() string  { return r.Name }
func (r Register) DeclType() string  { return r.Type }
func (r Register) DeclWidth() string { return r.Width }

// InstanceEdge is a directed parent -> child edge labelled by the instance alias.
type InstanceEdge struct {
	Module string `json:"module" yaml:"module" msgpack:"module"`
	Alias  string `json:"alias" yaml:"alias" msgpack:"alias"`
}

// ModuleRecord contains all extracted information about a module
type ModuleRecord struct {
	Name       string         `json:"name" yaml:"name" msgpack:"name"`
	Parameters []Parameter    `json:"parameters" yaml:"parameters" msgpack:"parameters"`
	Ports      []Port         `json:"ports" yaml:"ports" msgpack:"ports"`
	Registers  []Register     `json:"registers" yaml:"registers" msgpack:"registers"`
	Instances  []InstanceEdge `json:"instances" yaml:"instances" msgpack:"instances"`
	Body       string         `json:"-" yaml:"-" msgpack:"body"`
	File       string         `json:"file,omitempty" yaml:"file,omitempty" msgpack:"file"`
	Line       int            `json:"line,omitempty" yaml:"line,omitempty" msgpack:"line"`
}

// PortSignal is a flattened port occurrence.
type PortSignal struct {
	Port  Port   `json:"port"`
	Path  string `json:"path"`
	Owner string `json:"owner"`
}

// RegisterSignal is a flattened register occurrence.
type RegisterSignal struct {
	Register Register `json:"register"`
	Path     string   `json:"path"`
	Owner    string   `json:"owner"`
}

// Name returns the exposed (possibly renamed) signal name.
func (s PortSignal) Name() string { return s.Port.Name }

// Name returns the exposed (possibly renamed) signal name.
func (s RegisterSignal) Name() string { return s.Register.Name }

// PathSeparator joins instance aliases in a qualified path.
const PathSeparator = "."

// JoinPath appends segment to prefix with the path separator.
func JoinPath(prefix, segment string) string {
	return prefix + PathSeparator + segment
}

// RelativePath strips the root token and its separator from path.
// Paths not rooted at root are returned unchanged.
func RelativePath(root, path string) string {
	if strings.HasPrefix(path, root+PathSeparator) {
		return path[len(root)+len(PathSeparator):]
	}
	return path
}

// PathDepth returns the number of segments of path below root.
func PathDepth(root, path string) int {
	rel := RelativePath(root, path)
	if rel == "" {
		return 0
	}
	return strings.Count(rel, PathSeparator) + 1
}

// FlatName derives a flat identifier from a qualified path: the root token is
// stripped and separators become underscores.
func FlatName(root, path string) string {
	return strings.ReplaceAll(RelativePath(root, path), PathSeparator, "_")
}

// SignalKind distinguishes the two flattened signal categories.
type SignalKind string

const (
	KindPort     SignalKind = "port"
	KindRegister SignalKind = "register"
)

// Signal is the category-independent view of a flattened signal, used for the
// combined ports-then-registers inventory.
type Signal struct {
	Kind      SignalKind `json:"kind" yaml:"kind"`
	Direction Direction  `json:"direction,omitempty" yaml:"direction,omitempty"`
	Type      string     `json:"type,omitempty" yaml:"type,omitempty"`
	Width     string     `json:"width,omitempty" yaml:"width,omitempty"`
	Name      string     `json:"name" yaml:"name"`
	Path      string     `json:"path" yaml:"path"`
	Owner     string     `json:"owner" yaml:"owner"`
}

// Signal returns the combined view of a port occurrence.
func (s PortSignal) Signal() Signal {
	return Signal{
		Kind:      KindPort,
		Direction: s.Port.Direction,
		Type:      s.Port.Type,
		Width:     s.Port.Width,
		Name:      s.Port.Name,
		Path:      s.Path,
		Owner:     s.Owner,
	}
}

// Signal returns the combined view of a register occurrence.
func (s RegisterSignal) Signal() Signal {
	return Signal{
		Kind:  KindRegister,
		Type:  s.Register.Type,
		Width: s.Register.Width,
		Name:  s.Register.Name,
		Path:  s.Path,
		Owner: s.Owner,
	}
}

// Combine lists ports before registers and returns the number of leading
// port entries.
func Combine(ports []PortSignal, registers []RegisterSignal) ([]Signal, int) {
	out := make([]Signal, 0, len(ports)+len(registers))
	for _, p := range ports {
		out = append(out, p.Signal())
	}
	for _, r := range registers {
		out = append(out, r.Signal())
	}
	return out, len(ports)
}

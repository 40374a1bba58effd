// Package registry provides the indexed collection of module records.
//
// The registry is the single owner of every ModuleRecord. Graph building,
// top resolution and flattening look modules up by name through it and never
// keep their own copies.
package registry

import (
	"errors"
	"fmt"
	"sort"

	"github.com/l3aro/go-spygen/pkg/types"
)

// ErrDuplicateModule is returned when a module name is registered twice.
var ErrDuplicateModule = errors.New("duplicate module")

// Registry maps module names to their records.
type Registry struct {
	modules map[string]*types.ModuleRecord
	names   []string // sorted
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		modules: make(map[string]*types.ModuleRecord),
	}
}

// FromRecords builds a registry from records, returning the first duplicate error.
func FromRecords(records []types.ModuleRecord) (*Registry, error) {
	reg := New()
	for i := range records {
		if err := reg.Add(records[i]); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// Add stores a copy of rec. The first definition of a name wins.
func (r *Registry) Add(rec types.ModuleRecord) error {
	if existing, ok := r.modules[rec.Name]; ok {
		return fmt.Errorf("%w: %s (defined in %s, redefined in %s)",
			ErrDuplicateModule, rec.Name, existing.File, rec.File)
	}

	m := rec
	r.modules[m.Name] = &m

	i := sort.SearchStrings(r.names, m.Name)
	r.names = append(r.names, "")
	copy(r.names[i+1:], r.names[i:])
	r.names[i] = m.Name
	return nil
}

// Get returns the module with the given name.
func (r *Registry) Get(name string) (*types.ModuleRecord, bool) {
	m, ok := r.modules[name]
	return m, ok
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.modules[name]
	return ok
}

// Names returns all module names in lexical order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Modules returns all modules in lexical name order.
func (r *Registry) Modules() []*types.ModuleRecord {
	out := make([]*types.ModuleRecord, 0, len(r.names))
	for _, name := range r.names {
		out = append(out, r.modules[name])
	}
	return out
}

// Len returns the number of registered modules.
func (r *Registry) Len() int {
	return len(r.names)
}

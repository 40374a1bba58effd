package hierarchy

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrTopModuleNotFound is returned when no root can be inferred.
	ErrTopModuleNotFound = errors.New("top module not found")
	// ErrAmbiguousTopModule is returned when several modules qualify as root.
	ErrAmbiguousTopModule = errors.New("ambiguous top module")
	// ErrCycleDetected is returned when the instantiation tree revisits a module on the active path.
	ErrCycleDetected = errors.New("instantiation cycle detected")
)

// TopModuleNotFoundError lists every known module to help choose an override.
type TopModuleNotFoundError struct {
	Override string
	Modules  []string
}

func (e *TopModuleNotFoundError) Error() string {
	if e.Override != "" {
		return fmt.Sprintf("%s: %q is not a known module and no top could be inferred (modules: %s)",
			ErrTopModuleNotFound, e.Override, strings.Join(e.Modules, ", "))
	}
	return fmt.Sprintf("%s: specify it explicitly (modules: %s)",
		ErrTopModuleNotFound, strings.Join(e.Modules, ", "))
}

func (e *TopModuleNotFoundError) Unwrap() error { return ErrTopModuleNotFound }

// AmbiguousTopModuleError lists the competing root candidates.
type AmbiguousTopModuleError struct {
	Candidates []string
}

func (e *AmbiguousTopModuleError) Error() string {
	return fmt.Sprintf("%s: more than one potential top module detected: %s; specify it explicitly",
		ErrAmbiguousTopModule, strings.Join(e.Candidates, ", "))
}

func (e *AmbiguousTopModuleError) Unwrap() error { return ErrAmbiguousTopModule }

// CycleError carries the module chain that closes the cycle.
type CycleError struct {
	Chain []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("%s: %s", ErrCycleDetected, strings.Join(e.Chain, " -> "))
}

func (e *CycleError) Unwrap() error { return ErrCycleDetected }

// DiagnosticKind classifies recoverable problems found while walking the hierarchy.
type DiagnosticKind string

const (
	// UnresolvedInstance marks an instance whose module is not in the registry.
	UnresolvedInstance DiagnosticKind = "unresolved_instance"
)

// Diagnostic is a non-fatal finding. The affected subtree is left out of the output.
type Diagnostic struct {
	Kind   DiagnosticKind `json:"kind"`
	Parent string         `json:"parent"`
	Module string         `json:"module"`
	Alias  string         `json:"alias"`
	Path   string         `json:"path"`
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: module %q not found for instance %s in %s", d.Kind, d.Module, d.Path, d.Parent)
}

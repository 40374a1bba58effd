// Package validate checks extracted module records against an embedded CUE
// contract before they enter the registry. A record that breaks the contract
// is a malformed module: the pipeline reports it and leaves it out.
package validate

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"

	"github.com/l3aro/go-spygen/pkg/types"
)

//go:embed module.cue
var schemaFS embed.FS

// ErrMalformedModule is wrapped by every *MalformedModuleError.
var ErrMalformedModule = errors.New("malformed module")

// MalformedModuleError lists every contract violation of one record.
type MalformedModuleError struct {
	Module   string
	File     string
	Problems []string
}

func (e *MalformedModuleError) Error() string {
	where := e.Module
	if e.File != "" {
		where = fmt.Sprintf("%s (%s)", e.Module, e.File)
	}
	return fmt.Sprintf("malformed module %s: %s", where, strings.Join(e.Problems, "; "))
}

func (e *MalformedModuleError) Unwrap() error { return ErrMalformedModule }

// Validator validates module records against the CUE schema.
type Validator struct {
	ctx    *cue.Context
	module cue.Value
}

// Option configures a Validator.
type Option func(*options)

type options struct {
	registerSuffix string
}

// WithRegisterSuffix requires register names to end with suffix.
func WithRegisterSuffix(suffix string) Option {
	return func(o *options) { o.registerSuffix = suffix }
}

// New creates a new Validator with the embedded CUE schema.
func New(opts ...Option) (*Validator, error) {
	o := options{registerSuffix: "_s"}
	for _, opt := range opts {
		opt(&o)
	}

	schemaBytes, err := schemaFS.ReadFile("module.cue")
	if err != nil {
		return nil, fmt.Errorf("loading embedded schema: %w", err)
	}

	pattern := regexp.QuoteMeta(o.registerSuffix) + "$"
	src := fmt.Sprintf("%s\n#RegisterPattern: %s\n", schemaBytes, strconv.Quote(pattern))

	ctx := cuecontext.New()
	schema := ctx.CompileString(src)
	if schema.Err() != nil {
		return nil, fmt.Errorf("compiling schema: %w", schema.Err())
	}

	module := schema.LookupPath(cue.ParsePath("#Module"))
	if module.Err() != nil {
		return nil, fmt.Errorf("looking up #Module definition: %w", module.Err())
	}

	return &Validator{ctx: ctx, module: module}, nil
}

// Validate returns nil when rec satisfies the contract, or a
// *MalformedModuleError describing every violation.
func (v *Validator) Validate(rec types.ModuleRecord) error {
	problems := v.schemaProblems(rec)
	problems = append(problems, duplicateDeclarations(rec)...)
	if len(problems) == 0 {
		return nil
	}
	return &MalformedModuleError{Module: rec.Name, File: rec.File, Problems: problems}
}

func (v *Validator) schemaProblems(rec types.ModuleRecord) []string {
	jsonBytes, err := json.Marshal(rec)
	if err != nil {
		return []string{fmt.Sprintf("marshal error: %v", err)}
	}

	data := v.ctx.CompileBytes(jsonBytes)
	if data.Err() != nil {
		return []string{fmt.Sprintf("compile error: %v", data.Err())}
	}

	err = v.module.Unify(data).Validate(cue.Concrete(true))
	if err == nil {
		return nil
	}

	var problems []string
	for _, e := range cueerrors.Errors(err) {
		problems = append(problems, e.Error())
	}
	return problems
}

// duplicateDeclarations reports port and register names declared twice.
func duplicateDeclarations(rec types.ModuleRecord) []string {
	var problems []string
	seen := make(map[string]bool, len(rec.Ports)+len(rec.Registers))
	check := func(kind, name string) {
		if seen[name] {
			problems = append(problems, fmt.Sprintf("%s %s declared more than once", kind, name))
		}
		seen[name] = true
	}

	for _, p := range rec.Ports {
		check("port", p.Name)
	}
	for _, r := range rec.Registers {
		check("register", r.Name)
	}
	return problems
}

// Package inspect statically verifies shape/implementation conformance
// over go/types, without compiling or running the checked code. It replays
// the same compatibility algebra as pkg/vbind, so `vbind check` and a
// runtime Bind agree on every pair.
package inspect

import (
	"fmt"
	"go/token"
	"go/types"
	"strings"

	"golang.org/x/tools/go/packages"

	"github.com/funvibe/vbind/internal/schema"
	"github.com/funvibe/vbind/pkg/vbind"
)

// vbindPkgPath identifies the runtime package whose marker types declare
// shapes in checked source.
const vbindPkgPath = "github.com/funvibe/vbind/pkg/vbind"

// Field names a shape struct must declare, mirroring the runtime validator.
const (
	selfFieldName  = "Self"
	tableFieldName = "Methods"
)

// Pair names one conformance check: both sides are fully qualified type
// names (import/path.Type).
type Pair struct {
	Shape string
	Impl  string
}

// Finding is one static diagnostic, carrying the same code vocabulary as
// the runtime verdicts plus a source position.
type Finding struct {
	Code     vbind.ErrorCode
	Shape    string
	Impl     string
	Slot     string
	Param    int
	Expected string
	Actual   string
	Pos      token.Position
}

// Message renders the finding the way runtime verdicts render, prefixed
// with the shape's declaration position.
func (f *Finding) Message() string {
	var b strings.Builder
	if f.Pos.IsValid() {
		fmt.Fprintf(&b, "%s: ", f.Pos)
	}
	b.WriteString(string(f.Code))
	if f.Shape != "" {
		fmt.Fprintf(&b, ": shape %s", f.Shape)
	}
	if f.Impl != "" {
		fmt.Fprintf(&b, ": implementation %s", f.Impl)
	}
	if f.Slot != "" {
		fmt.Fprintf(&b, ": slot %s", f.Slot)
	}
	if f.Param >= 0 {
		fmt.Fprintf(&b, ": parameter %d", f.Param)
	}
	if f.Expected != "" {
		fmt.Fprintf(&b, ": expected %s", f.Expected)
	}
	if f.Actual != "" {
		fmt.Fprintf(&b, ", got %s", f.Actual)
	}
	return b.String()
}

// Result is the outcome of one checked pair. A nil Finding means the pair
// conforms.
type Result struct {
	Pair    Pair
	Finding *Finding
}

// Inspector resolves qualified type names against a set of loaded packages.
type Inspector struct {
	fset *token.FileSet
	pkgs map[string]*packages.Package
}

const loadMode = packages.NeedName |
	packages.NeedFiles |
	packages.NeedImports |
	packages.NeedDeps |
	packages.NeedTypes |
	packages.NeedTypesInfo |
	packages.NeedSyntax

// Load loads every package referenced by the pairs, rooted at dir.
func Load(dir string, pairs []Pair) (*Inspector, error) {
	seen := make(map[string]bool)
	var patterns []string
	for _, p := range pairs {
		for _, side := range []string{p.Shape, p.Impl} {
			pkgPath, _, err := schema.SplitQualified(side)
			if err != nil {
				return nil, err
			}
			if !seen[pkgPath] {
				seen[pkgPath] = true
				patterns = append(patterns, pkgPath)
			}
		}
	}
	if len(patterns) == 0 {
		return nil, fmt.Errorf("no packages to load")
	}

	fset := token.NewFileSet()
	cfg := &packages.Config{Mode: loadMode, Dir: dir, Fset: fset}
	loaded, err := packages.Load(cfg, patterns...)
	if err != nil {
		return nil, fmt.Errorf("loading packages: %w", err)
	}
	in := &Inspector{fset: fset, pkgs: make(map[string]*packages.Package)}
	for _, pkg := range loaded {
		if len(pkg.Errors) > 0 {
			return nil, fmt.Errorf("package %s: %v", pkg.PkgPath, pkg.Errors[0])
		}
		in.pkgs[pkg.PkgPath] = pkg
	}
	return in, nil
}

// CheckAll runs every pair in order, stopping each pair at its first
// violation but never stopping the run.
func (in *Inspector) CheckAll(pairs []Pair) ([]Result, error) {
	results := make([]Result, 0, len(pairs))
	for _, p := range pairs {
		f, err := in.Check(p)
		if err != nil {
			return nil, err
		}
		results = append(results, Result{Pair: p, Finding: f})
	}
	return results, nil
}

// Check verifies one pair, returning nil when it conforms. Resolution
// failures (unknown package or type) are errors, not findings.
func (in *Inspector) Check(p Pair) (*Finding, error) {
	shapeT, pos, err := in.lookup(p.Shape)
	if err != nil {
		return nil, err
	}
	implT, _, err := in.lookup(p.Impl)
	if err != nil {
		return nil, err
	}
	decl, f := parseShape(shapeT, pos)
	if f != nil {
		return f, nil
	}
	return checkImplements(decl, implT), nil
}

func (in *Inspector) lookup(qualified string) (*types.Named, token.Position, error) {
	pkgPath, typeName, err := schema.SplitQualified(qualified)
	if err != nil {
		return nil, token.Position{}, err
	}
	pkg, ok := in.pkgs[pkgPath]
	if !ok {
		return nil, token.Position{}, fmt.Errorf("package %s was not loaded", pkgPath)
	}
	obj := pkg.Types.Scope().Lookup(typeName)
	if obj == nil {
		return nil, token.Position{}, fmt.Errorf("type %s not found in package %s", typeName, pkgPath)
	}
	named, ok := obj.Type().(*types.Named)
	if !ok {
		return nil, token.Position{}, fmt.Errorf("%s is not a named type", qualified)
	}
	return named, in.fset.Position(obj.Pos()), nil
}

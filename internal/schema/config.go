// Package schema implements the vbind.yaml configuration surface.
//
// A vbind.yaml file declares interface shapes to generate Go code for and
// shape/implementation pairs to check statically:
//
//	package: shapes
//	shapes:
//	  - name: Adder
//	    self: mut
//	    methods:
//	      - name: Add
//	        params: [int]
//	        results: [int]
//	      - name: Sub
//	        optional: true
//	        params: [int]
//	        results: [int]
//	checks:
//	  - shape: example.com/app/shapes.Adder
//	    impl: example.com/app/counter.Counter
package schema

import (
	"fmt"
	"os"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"
)

// Config is the top-level vbind.yaml configuration.
type Config struct {
	// Package is the Go package name for generated shape declarations.
	// Required when Shapes is non-empty.
	Package string `yaml:"package,omitempty"`

	// Output is the generated file path, relative to the config file.
	// Defaults to "shapes_gen.go".
	Output string `yaml:"output,omitempty"`

	// Imports lists extra import paths the generated shape code needs
	// (for parameter or result types from other packages).
	Imports []string `yaml:"imports,omitempty"`

	// Shapes declares the interface shapes to generate.
	Shapes []ShapeSpec `yaml:"shapes,omitempty"`

	// Checks lists shape/implementation pairs for static conformance
	// checking with `vbind check`.
	Checks []CheckSpec `yaml:"checks,omitempty"`
}

// ShapeSpec declares one interface shape.
type ShapeSpec struct {
	// Name is the generated Go type name (exported).
	Name string `yaml:"name"`

	// Self is the self-pointer mutability: "mut" (default) or "const".
	Self string `yaml:"self,omitempty"`

	// Methods lists the method-table slots, in table order.
	Methods []MethodSpec `yaml:"methods"`
}

// MethodSpec declares one slot of a shape's method table.
type MethodSpec struct {
	// Name is the slot name (exported Go identifier).
	Name string `yaml:"name"`

	// Optional marks the slot as optional: implementations may omit it.
	Optional bool `yaml:"optional,omitempty"`

	// Self overrides the slot's self-pointer kind ("mut" or "const").
	// Defaults to the shape's Self. A const shape cannot declare a mut
	// slot.
	Self string `yaml:"self,omitempty"`

	// Params lists the Go types of the parameters after the self-pointer.
	Params []string `yaml:"params,omitempty"`

	// Results lists the Go result types.
	Results []string `yaml:"results,omitempty"`
}

// CheckSpec names one conformance check: both sides are fully qualified
// type names, import path and type separated by the last dot.
type CheckSpec struct {
	Shape string `yaml:"shape"`
	Impl  string `yaml:"impl"`
}

// Self-pointer kinds accepted in vbind.yaml.
const (
	SelfMut   = "mut"
	SelfConst = "const"
)

// Load reads and validates a vbind.yaml file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes and validates vbind.yaml contents.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Output == "" {
		cfg.Output = "shapes_gen.go"
	}
	return &cfg, nil
}

// Validate checks the configuration against the same structural rules the
// runtime validator enforces on shape types, so a generated shape always
// passes ValidateShape.
func (c *Config) Validate() error {
	if len(c.Shapes) == 0 && len(c.Checks) == 0 {
		return fmt.Errorf("config declares neither shapes nor checks")
	}
	if len(c.Shapes) > 0 && c.Package == "" {
		return fmt.Errorf("package is required when shapes are declared")
	}
	seen := make(map[string]bool)
	for i, s := range c.Shapes {
		if err := s.validate(); err != nil {
			return fmt.Errorf("shapes[%d]: %w", i, err)
		}
		if seen[s.Name] {
			return fmt.Errorf("shapes[%d]: duplicate shape name %q", i, s.Name)
		}
		seen[s.Name] = true
	}
	for i, ch := range c.Checks {
		if err := ch.validate(); err != nil {
			return fmt.Errorf("checks[%d]: %w", i, err)
		}
	}
	return nil
}

func (s *ShapeSpec) validate() error {
	if !isExportedIdent(s.Name) {
		return fmt.Errorf("shape name %q is not an exported Go identifier", s.Name)
	}
	if err := validSelf(s.Self); err != nil {
		return fmt.Errorf("shape %s: %w", s.Name, err)
	}
	if len(s.Methods) == 0 {
		return fmt.Errorf("shape %s: method table is empty", s.Name)
	}
	slots := make(map[string]bool)
	for i, m := range s.Methods {
		if !isExportedIdent(m.Name) {
			return fmt.Errorf("shape %s: methods[%d]: slot name %q is not an exported Go identifier", s.Name, i, m.Name)
		}
		if slots[m.Name] {
			return fmt.Errorf("shape %s: duplicate slot %q", s.Name, m.Name)
		}
		slots[m.Name] = true
		if err := validSelf(m.Self); err != nil {
			return fmt.Errorf("shape %s: slot %s: %w", s.Name, m.Name, err)
		}
		// Mutation must not be reachable through a read-only shape.
		if s.SelfKind() == SelfConst && m.SelfKind(s.SelfKind()) == SelfMut {
			return fmt.Errorf("shape %s: slot %s: mut self-pointer on a const shape", s.Name, m.Name)
		}
		for j, p := range m.Params {
			if strings.TrimSpace(p) == "" {
				return fmt.Errorf("shape %s: slot %s: params[%d] is empty", s.Name, m.Name, j)
			}
		}
		for j, r := range m.Results {
			if strings.TrimSpace(r) == "" {
				return fmt.Errorf("shape %s: slot %s: results[%d] is empty", s.Name, m.Name, j)
			}
		}
	}
	return nil
}

func (ch *CheckSpec) validate() error {
	for _, side := range []struct{ field, value string }{
		{"shape", ch.Shape},
		{"impl", ch.Impl},
	} {
		if _, _, err := SplitQualified(side.value); err != nil {
			return fmt.Errorf("%s: %w", side.field, err)
		}
	}
	return nil
}

// SelfKind returns the shape's self-pointer kind, defaulting to mut.
func (s *ShapeSpec) SelfKind() string {
	if s.Self == SelfConst {
		return SelfConst
	}
	return SelfMut
}

// SelfKind returns the slot's self-pointer kind, defaulting to the
// enclosing shape's kind.
func (m *MethodSpec) SelfKind(shapeDefault string) string {
	switch m.Self {
	case SelfMut, SelfConst:
		return m.Self
	default:
		return shapeDefault
	}
}

// SplitQualified splits "import/path.Type" at the last dot into the
// package path and the type name.
func SplitQualified(name string) (pkgPath, typeName string, err error) {
	i := strings.LastIndex(name, ".")
	if i <= 0 || i == len(name)-1 {
		return "", "", fmt.Errorf("%q is not a qualified type name (want import/path.Type)", name)
	}
	return name[:i], name[i+1:], nil
}

func validSelf(s string) error {
	switch s {
	case "", SelfMut, SelfConst:
		return nil
	default:
		return fmt.Errorf("self must be %q or %q, got %q", SelfMut, SelfConst, s)
	}
}

func isExportedIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if i == 0 {
			if !unicode.IsUpper(r) {
				return false
			}
			continue
		}
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			return false
		}
	}
	return true
}

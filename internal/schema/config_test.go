package schema

import (
	"strings"
	"testing"
)

const validConfig = `
package: shapes
shapes:
  - name: Adder
    self: mut
    methods:
      - name: Add
        params: [int]
        results: [int]
      - name: Sub
        optional: true
        params: [int]
        results: [int]
checks:
  - shape: example.com/app/shapes.Adder
    impl: example.com/app/counter.Counter
`

func TestParse_Valid(t *testing.T) {
	cfg, err := Parse([]byte(validConfig))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if cfg.Package != "shapes" {
		t.Errorf("Package = %q, want shapes", cfg.Package)
	}
	if cfg.Output != "shapes_gen.go" {
		t.Errorf("Output = %q, want default shapes_gen.go", cfg.Output)
	}
	if len(cfg.Shapes) != 1 || len(cfg.Shapes[0].Methods) != 2 {
		t.Fatalf("unexpected shapes: %+v", cfg.Shapes)
	}
	if !cfg.Shapes[0].Methods[1].Optional {
		t.Errorf("Sub slot should be optional")
	}
	if len(cfg.Checks) != 1 {
		t.Fatalf("unexpected checks: %+v", cfg.Checks)
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			"empty config",
			"package: shapes\n",
			"neither shapes nor checks",
		},
		{
			"missing package",
			"shapes:\n  - name: A\n    methods:\n      - name: Do\n",
			"package is required",
		},
		{
			"unexported shape name",
			"package: p\nshapes:\n  - name: adder\n    methods:\n      - name: Do\n",
			"not an exported Go identifier",
		},
		{
			"empty method table",
			"package: p\nshapes:\n  - name: Adder\n    methods: []\n",
			"method table is empty",
		},
		{
			"bad self kind",
			"package: p\nshapes:\n  - name: Adder\n    self: frozen\n    methods:\n      - name: Do\n",
			"self must be",
		},
		{
			"mut slot on const shape",
			"package: p\nshapes:\n  - name: Viewer\n    self: const\n    methods:\n      - name: Do\n        self: mut\n",
			"mut self-pointer on a const shape",
		},
		{
			"duplicate slot",
			"package: p\nshapes:\n  - name: Adder\n    methods:\n      - name: Do\n      - name: Do\n",
			"duplicate slot",
		},
		{
			"unqualified check",
			"checks:\n  - shape: Adder\n    impl: example.com/app.Counter\n",
			"not a qualified type name",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil {
				t.Fatalf("expected error containing %q, got nil", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestSplitQualified(t *testing.T) {
	pkg, typ, err := SplitQualified("example.com/app/shapes.Adder")
	if err != nil {
		t.Fatalf("SplitQualified failed: %v", err)
	}
	if pkg != "example.com/app/shapes" || typ != "Adder" {
		t.Errorf("SplitQualified = (%q, %q), want (example.com/app/shapes, Adder)", pkg, typ)
	}

	for _, bad := range []string{"Adder", "pkg.", ".Adder", ""} {
		if _, _, err := SplitQualified(bad); err == nil {
			t.Errorf("SplitQualified(%q) should fail", bad)
		}
	}
}

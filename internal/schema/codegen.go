package schema

import (
	"bytes"
	"fmt"
	"go/format"
	"strings"
	"text/template"
)

// vbindImportPath is the runtime package the generated shapes depend on.
const vbindImportPath = "github.com/funvibe/vbind/pkg/vbind"

// Generate produces the Go source file declaring every shape in cfg.
// Output is gofmt-formatted and deterministic: shapes and slots appear in
// declaration order.
func Generate(cfg *Config) ([]byte, error) {
	if len(cfg.Shapes) == 0 {
		return nil, fmt.Errorf("config declares no shapes")
	}
	ctx := &fileContext{
		Package:   cfg.Package,
		Imports:   cfg.Imports,
		VbindPath: vbindImportPath,
	}
	for i := range cfg.Shapes {
		ctx.Shapes = append(ctx.Shapes, shapeContextFor(&cfg.Shapes[i]))
	}

	var buf bytes.Buffer
	if err := fileTemplate.Execute(&buf, ctx); err != nil {
		return nil, fmt.Errorf("rendering shape code: %w", err)
	}
	src, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("formatting generated code: %w", err)
	}
	return src, nil
}

type fileContext struct {
	Package   string
	Imports   []string
	VbindPath string
	Shapes    []shapeContext
}

type shapeContext struct {
	Name  string
	Self  string // "Mut" or "Const"
	Slots []slotContext
}

type slotContext struct {
	Name string
	Type string
}

func shapeContextFor(s *ShapeSpec) shapeContext {
	sc := shapeContext{Name: s.Name, Self: handleTypeName(s.SelfKind())}
	for i := range s.Methods {
		m := &s.Methods[i]
		sc.Slots = append(sc.Slots, slotContext{
			Name: m.Name,
			Type: slotTypeFor(m, s.SelfKind()),
		})
	}
	return sc
}

// slotTypeFor renders the Go type of one method-table field.
func slotTypeFor(m *MethodSpec, shapeSelf string) string {
	params := append([]string{"vbind." + handleTypeName(m.SelfKind(shapeSelf))}, m.Params...)
	fn := "func(" + strings.Join(params, ", ") + ")"
	switch len(m.Results) {
	case 0:
	case 1:
		fn += " " + m.Results[0]
	default:
		fn += " (" + strings.Join(m.Results, ", ") + ")"
	}
	if m.Optional {
		return "vbind.Option[" + fn + "]"
	}
	return fn
}

func handleTypeName(kind string) string {
	if kind == SelfConst {
		return "Const"
	}
	return "Mut"
}

var fileTemplate = template.Must(template.New("shapes").Parse(`// Code generated by vbind gen. DO NOT EDIT.

package {{.Package}}

import (
{{- range .Imports}}
	{{printf "%q" .}}
{{- end}}
	vbind {{printf "%q" .VbindPath}}
)
{{range .Shapes}}
// {{.Name}} is an interface shape declared in vbind.yaml.
type {{.Name}} struct {
	Self    vbind.{{.Self}}
	Methods struct {
{{- range .Slots}}
		{{.Name}} {{.Type}}
{{- end}}
	}
}
{{end}}`))

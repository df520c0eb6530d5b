package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fsnotify/fsnotify"
)

const genConfig = `package: shapes
output: shapes_gen.go
shapes:
  - name: Adder
    self: mut
    methods:
      - name: Add
        params: [int]
        results: [int]
`

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := Run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun_UnknownCommand(t *testing.T) {
	code, _, stderr := runCLI(t, "frobnicate")
	if code != 2 {
		t.Fatalf("exit code = %d, want 2", code)
	}
	if !strings.Contains(stderr, `unknown command "frobnicate"`) {
		t.Fatalf("stderr = %q, want unknown command message", stderr)
	}
}

func TestRun_NoArgs(t *testing.T) {
	code, _, stderr := runCLI(t)
	if code != 2 {
		t.Fatalf("exit code = %d, want 2", code)
	}
	if !strings.Contains(stderr, "usage: vbind") {
		t.Fatalf("stderr = %q, want usage", stderr)
	}
}

func TestRun_Help(t *testing.T) {
	code, stdout, _ := runCLI(t, "help")
	if code != 0 {
		t.Fatalf("exit code = %d, want 0", code)
	}
	if !strings.Contains(stdout, "check") || !strings.Contains(stdout, "gen") {
		t.Fatalf("stdout = %q, want command list", stdout)
	}
}

func TestGen_WritesOutput(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "vbind.yaml")
	if err := os.WriteFile(cfgPath, []byte(genConfig), 0o644); err != nil {
		t.Fatal(err)
	}

	code, stdout, stderr := runCLI(t, "gen", "-config", cfgPath)
	if code != 0 {
		t.Fatalf("exit code = %d, stderr = %q", code, stderr)
	}
	if !strings.Contains(stdout, "1 shapes") {
		t.Fatalf("stdout = %q, want shape count", stdout)
	}

	src, err := os.ReadFile(filepath.Join(dir, "shapes_gen.go"))
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"package shapes", "type Adder struct", "vbind.Mut"} {
		if !strings.Contains(string(src), want) {
			t.Errorf("generated file missing %q", want)
		}
	}
}

func TestGen_MissingConfig(t *testing.T) {
	code, _, stderr := runCLI(t, "gen", "-config", filepath.Join(t.TempDir(), "absent.yaml"))
	if code != 2 {
		t.Fatalf("exit code = %d, want 2 (stderr %q)", code, stderr)
	}
}

func TestCheck_NoChecksConfigured(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "vbind.yaml")
	if err := os.WriteFile(cfgPath, []byte(genConfig), 0o644); err != nil {
		t.Fatal(err)
	}

	code, _, stderr := runCLI(t, "check", "-config", cfgPath, "-dir", dir, "-no-history")
	if code != 2 {
		t.Fatalf("exit code = %d, want 2", code)
	}
	if !strings.Contains(stderr, "declares no checks") {
		t.Fatalf("stderr = %q, want no-checks error", stderr)
	}
}

func TestHistory_EmptyStore(t *testing.T) {
	code, stdout, stderr := runCLI(t, "history", "-dir", t.TempDir())
	if code != 0 {
		t.Fatalf("exit code = %d, stderr = %q", code, stderr)
	}
	if !strings.Contains(stdout, "no recorded runs") {
		t.Fatalf("stdout = %q, want empty-store message", stdout)
	}
}

func TestPalette_NonTerminal(t *testing.T) {
	p := newPalette(&bytes.Buffer{})
	if p.green != "" || p.red != "" || p.reset != "" {
		t.Fatalf("palette for non-file writer = %+v, want empty", p)
	}
}

func TestRelevant(t *testing.T) {
	cases := []struct {
		ev   fsnotify.Event
		want bool
	}{
		{fsnotify.Event{Name: "pkg/types.go", Op: fsnotify.Write}, true},
		{fsnotify.Event{Name: "vbind.yaml", Op: fsnotify.Create}, true},
		{fsnotify.Event{Name: "pkg/types.go", Op: fsnotify.Chmod}, false},
		{fsnotify.Event{Name: ".types.go.swp", Op: fsnotify.Write}, false},
		{fsnotify.Event{Name: "notes.txt", Op: fsnotify.Write}, false},
		{fsnotify.Event{Name: "newdir", Op: fsnotify.Create}, true},
	}
	for _, tc := range cases {
		if got := relevant(tc.ev); got != tc.want {
			t.Errorf("relevant(%s %s) = %v, want %v", tc.ev.Op, tc.ev.Name, got, tc.want)
		}
	}
}

// Package cli implements the vbind command line: static conformance
// checking, shape code generation, watch mode and run history.
package cli

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/funvibe/vbind/internal/history"
	"github.com/funvibe/vbind/internal/inspect"
	"github.com/funvibe/vbind/internal/schema"
)

// Run executes the vbind command line and returns the process exit code.
func Run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		usage(stderr)
		return 2
	}
	switch args[0] {
	case "check":
		return runCheck(args[1:], stdout, stderr)
	case "gen":
		return runGen(args[1:], stdout, stderr)
	case "watch":
		return runWatch(args[1:], stdout, stderr)
	case "history":
		return runHistory(args[1:], stdout, stderr)
	case "help", "-h", "--help":
		usage(stdout)
		return 0
	}
	fmt.Fprintf(stderr, "vbind: unknown command %q\n\n", args[0])
	usage(stderr)
	return 2
}

func usage(w io.Writer) {
	fmt.Fprint(w, `usage: vbind <command> [flags]

commands:
  check     statically verify the shape/implementation pairs in vbind.yaml
  gen       generate shape declarations from vbind.yaml
  watch     re-run check whenever Go or yaml sources change
  history   list recent check runs
  help      show this message
`)
}

func runCheck(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "vbind.yaml", "path to the vbind.yaml config")
	dir := fs.String("dir", ".", "directory packages are loaded from")
	noHistory := fs.Bool("no-history", false, "do not record the run under .vbind/")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	code, err := checkOnce(*configPath, *dir, *noHistory, stdout, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "vbind: %v\n", err)
		return 2
	}
	return code
}

// checkOnce runs every configured pair once. Exit code 0 means every pair
// conforms, 1 means at least one finding.
func checkOnce(configPath, dir string, noHistory bool, stdout, stderr io.Writer) (int, error) {
	cfg, err := schema.Load(configPath)
	if err != nil {
		return 0, err
	}
	if len(cfg.Checks) == 0 {
		return 0, fmt.Errorf("%s declares no checks", configPath)
	}
	pairs := make([]inspect.Pair, len(cfg.Checks))
	for i, c := range cfg.Checks {
		pairs[i] = inspect.Pair{Shape: c.Shape, Impl: c.Impl}
	}

	in, err := inspect.Load(dir, pairs)
	if err != nil {
		return 0, err
	}
	results, err := in.CheckAll(pairs)
	if err != nil {
		return 0, err
	}

	colors := newPalette(stdout)
	run := history.Run{Started: time.Now(), Dir: dir, Checked: len(results)}
	for _, r := range results {
		if r.Finding == nil {
			fmt.Fprintf(stdout, "%sok%s    %s <- %s\n", colors.green, colors.reset, r.Pair.Shape, r.Pair.Impl)
			continue
		}
		run.Failed++
		run.Findings = append(run.Findings, history.Finding{
			Shape:  r.Pair.Shape,
			Impl:   r.Pair.Impl,
			Code:   string(r.Finding.Code),
			Detail: r.Finding.Message(),
		})
		fmt.Fprintf(stdout, "%sFAIL%s  %s <- %s\n      %s\n", colors.red, colors.reset, r.Pair.Shape, r.Pair.Impl, r.Finding.Message())
	}
	fmt.Fprintf(stdout, "checked %d pairs, %d failed\n", run.Checked, run.Failed)

	if !noHistory {
		if err := recordRun(dir, run); err != nil {
			// History is best effort; a failed write must not mask the verdicts.
			fmt.Fprintf(stderr, "vbind: recording history: %v\n", err)
		}
	}
	if run.Failed > 0 {
		return 1, nil
	}
	return 0, nil
}

func recordRun(dir string, run history.Run) error {
	store, err := history.Open(dir)
	if err != nil {
		return err
	}
	defer store.Close()
	_, err = store.Record(run)
	return err
}

func runGen(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("gen", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "vbind.yaml", "path to the vbind.yaml config")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	cfg, err := schema.Load(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "vbind: %v\n", err)
		return 2
	}
	src, err := schema.Generate(cfg)
	if err != nil {
		fmt.Fprintf(stderr, "vbind: %v\n", err)
		return 2
	}
	out := cfg.Output
	if !filepath.IsAbs(out) {
		out = filepath.Join(filepath.Dir(*configPath), out)
	}
	if err := os.WriteFile(out, src, 0o644); err != nil {
		fmt.Fprintf(stderr, "vbind: writing %s: %v\n", out, err)
		return 2
	}
	fmt.Fprintf(stdout, "generated %s (%d shapes)\n", out, len(cfg.Shapes))
	return 0
}

func runHistory(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	fs.SetOutput(stderr)
	dir := fs.String("dir", ".", "directory holding .vbind/history.db")
	limit := fs.Int("n", 10, "number of runs to list")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	store, err := history.Open(*dir)
	if err != nil {
		fmt.Fprintf(stderr, "vbind: %v\n", err)
		return 2
	}
	defer store.Close()

	runs, err := store.Recent(*limit)
	if err != nil {
		fmt.Fprintf(stderr, "vbind: %v\n", err)
		return 2
	}
	if len(runs) == 0 {
		fmt.Fprintln(stdout, "no recorded runs")
		return 0
	}
	colors := newPalette(stdout)
	for _, r := range runs {
		status := colors.green + "ok" + colors.reset
		if r.Failed > 0 {
			status = colors.red + "FAIL" + colors.reset
		}
		fmt.Fprintf(stdout, "%s  %s  %s  %d/%d failed\n",
			r.Started.Format("2006-01-02 15:04:05"), r.ID, status, r.Failed, r.Checked)
		for _, f := range r.Findings {
			fmt.Fprintf(stdout, "      %s\n", f.Detail)
		}
	}
	return 0
}

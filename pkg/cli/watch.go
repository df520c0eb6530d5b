package cli

import (
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchDebounce coalesces editor save bursts into a single re-check.
const watchDebounce = 300 * time.Millisecond

func runWatch(args []string, stdout, stderr io.Writer) int {
	fl := flag.NewFlagSet("watch", flag.ContinueOnError)
	fl.SetOutput(stderr)
	configPath := fl.String("config", "vbind.yaml", "path to the vbind.yaml config")
	dir := fl.String("dir", ".", "directory packages are loaded from")
	noHistory := fl.Bool("no-history", false, "do not record runs under .vbind/")
	if err := fl.Parse(args); err != nil {
		return 2
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		fmt.Fprintf(stderr, "vbind: %v\n", err)
		return 2
	}
	defer watcher.Close()

	if err := addTree(watcher, *dir); err != nil {
		fmt.Fprintf(stderr, "vbind: %v\n", err)
		return 2
	}

	check := func() {
		if _, err := checkOnce(*configPath, *dir, *noHistory, stdout, stderr); err != nil {
			fmt.Fprintf(stderr, "vbind: %v\n", err)
		}
	}
	check()

	var timer *time.Timer
	pending := make(chan struct{}, 1)
	for {
		select {
		case ev, ok := <-watcher.Events:
			if !ok {
				return 0
			}
			if !relevant(ev) {
				continue
			}
			// New directories need watches of their own.
			if ev.Op.Has(fsnotify.Create) {
				if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
					_ = addTree(watcher, ev.Name)
				}
			}
			if timer == nil {
				timer = time.AfterFunc(watchDebounce, func() { pending <- struct{}{} })
			} else {
				timer.Reset(watchDebounce)
			}
		case <-pending:
			timer = nil
			check()
		case err, ok := <-watcher.Errors:
			if !ok {
				return 0
			}
			fmt.Fprintf(stderr, "vbind: watch: %v\n", err)
		}
	}
}

// relevant reports whether a filesystem event can change a verdict.
func relevant(ev fsnotify.Event) bool {
	if !ev.Op.Has(fsnotify.Create) && !ev.Op.Has(fsnotify.Write) &&
		!ev.Op.Has(fsnotify.Remove) && !ev.Op.Has(fsnotify.Rename) {
		return false
	}
	base := filepath.Base(ev.Name)
	if strings.HasPrefix(base, ".") {
		return false
	}
	ext := filepath.Ext(base)
	return ext == ".go" || ext == ".yaml" || ext == ".yml" || ext == ""
}

// addTree registers root and every directory below it, skipping hidden
// directories, vendor trees and the history database.
func addTree(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return err
		}
		name := d.Name()
		if path != root && (strings.HasPrefix(name, ".") || name == "vendor" || name == "testdata") {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}

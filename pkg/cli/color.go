package cli

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

// palette holds the ANSI sequences used for verdict output. All fields are
// empty when the destination is not a terminal.
type palette struct {
	green string
	red   string
	reset string
}

func newPalette(w io.Writer) palette {
	f, ok := w.(*os.File)
	if !ok {
		return palette{}
	}
	fd := f.Fd()
	if !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd) {
		return palette{}
	}
	return palette{
		green: "\x1b[32m",
		red:   "\x1b[31m",
		reset: "\x1b[0m",
	}
}

package output

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

// IsTerminal reports whether w is a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// IsInteractive reports whether r is a terminal a person can type into.
// The run command uses it to decide whether the repl prompt is shown.
func IsInteractive(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// SupportsColors checks if the environment allows colored output.
func SupportsColors() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if os.Getenv("FORCE_COLOR") != "" {
		return true
	}
	term := os.Getenv("TERM")
	return term != "" && term != "dumb"
}

// SchemeFor picks the color scheme for w.
func SchemeFor(w io.Writer, noColor bool) *ColorScheme {
	if noColor || !SupportsColors() {
		return NoColorScheme()
	}
	if os.Getenv("FORCE_COLOR") != "" {
		return ForcedColorScheme()
	}
	if !IsTerminal(w) {
		return NoColorScheme()
	}
	return ForcedColorScheme()
}

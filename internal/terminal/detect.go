// Package terminal provides terminal detection utilities.
package terminal

import (
	"io"
	"os"

	"golang.org/x/term"
)

// isTerminalFn is swapped in tests.
var isTerminalFn = term.IsTerminal

// IsTerminal reports whether w is an *os.File attached to a terminal.
// Buffers, pipes and redirected files report false.
func IsTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok || file == nil {
		return false
	}
	return isTerminalFn(int(file.Fd()))
}

//go:build !windows

package doctor

import (
	"os"

	"golang.org/x/term"
)

var saved *term.State

// SaveTerminal records the terminal state so a later run can restore it if
// a hotkey grab left it raw.
func SaveTerminal() {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return
	}
	if st, err := term.GetState(fd); err == nil {
		saved = st
	}
}

func resetTerminal() {
	if saved != nil {
		term.Restore(int(os.Stdin.Fd()), saved)
	}
}

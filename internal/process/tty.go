package process

import (
	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

// FileTTY is a TTY backed by a file descriptor, normally stdin.
type FileTTY struct {
	Fd int
}

// StdinTTY returns the TTY for file descriptor 0.
func StdinTTY() *FileTTY { return &FileTTY{Fd: 0} }

// Detach gives up the controlling terminal (TIOCNOTTY).
func (t *FileTTY) Detach() error {
	return unix.IoctlSetInt(t.Fd, unix.TIOCNOTTY, 0)
}

// IsTerminal reports whether the descriptor refers to a terminal.
func (t *FileTTY) IsTerminal() bool {
	return term.IsTerminal(t.Fd)
}

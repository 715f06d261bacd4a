package process

import (
	"golang.org/x/sys/unix"
)

// Signaler delivers signals. pid follows kill(2) conventions: a negative
// value addresses a process group.
type Signaler interface {
	Signal(pid, sig int) error
}

// KillSignaler delivers signals with kill(2).
type KillSignaler struct{}

// Signal sends sig to pid.
func (KillSignaler) Signal(pid, sig int) error {
	return unix.Kill(pid, unix.Signal(sig))
}

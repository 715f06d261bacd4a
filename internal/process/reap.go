package process

import (
	"golang.org/x/sys/unix"
)

// exitSignalOffset is added to the signal number of a killed process to
// form its exit code, as shells do.
const exitSignalOffset = 128

// Exit describes one reaped descendant.
type Exit struct {
	Pid      int
	Code     int // exit status, or 128+signal
	Signaled bool
	Signal   int
}

// ExitFromStatus converts a wait status into an Exit.
func ExitFromStatus(pid int, ws unix.WaitStatus) Exit {
	if ws.Signaled() {
		sig := int(ws.Signal())
		return Exit{Pid: pid, Code: exitSignalOffset + sig, Signaled: true, Signal: sig}
	}
	return Exit{Pid: pid, Code: ws.ExitStatus()}
}

// Reaper collects terminated descendants.
type Reaper interface {
	// Drain reaps every descendant whose exit is currently reportable,
	// without blocking, and returns them in the order collected.
	Drain() ([]Exit, error)
}

// WaitFunc is the signature of a non-blocking wait for any child.
type WaitFunc func(ws *unix.WaitStatus) (int, error)

// WaitReaper drains with wait4(-1, WNOHANG).
type WaitReaper struct {
	wait WaitFunc
}

// NewWaitReaper returns a reaper backed by wait4.
func NewWaitReaper() *WaitReaper {
	return &WaitReaper{wait: wait4Any}
}

func wait4Any(ws *unix.WaitStatus) (int, error) {
	return unix.Wait4(-1, ws, unix.WNOHANG, nil)
}

// Drain loops until no further child is reportable. A single signal may
// stand for several exits, so it never stops after the first one.
func (r *WaitReaper) Drain() ([]Exit, error) {
	var exits []Exit
	for {
		var ws unix.WaitStatus
		pid, err := r.wait(&ws)
		switch {
		case err == unix.EINTR:
			continue
		case err == unix.ECHILD:
			return exits, nil
		case err != nil:
			return exits, err
		case pid <= 0:
			return exits, nil
		}
		exits = append(exits, ExitFromStatus(pid, ws))
	}
}

package process

import (
	"golang.org/x/sys/unix"
)

// SetSubreaper marks the current process as child subreaper, so orphaned
// descendants are reparented to it rather than to PID 1.
func SetSubreaper() error {
	return unix.Prctl(unix.PR_SET_CHILD_SUBREAPER, 1, 0, 0, 0)
}

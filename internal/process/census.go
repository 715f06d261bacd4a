package process

import "errors"

// ErrCensusUnavailable is returned where the host offers no way to list
// processes.
var ErrCensusUnavailable = errors.New("process census unavailable")

// Census takes a best-effort snapshot of whether any descendant remains.
type Census interface {
	Remaining() (bool, error)
}

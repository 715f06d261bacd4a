package supervisor

import (
	"errors"
	"fmt"
	"slices"
)

// ErrInvalidTransition is returned for a state change the supervisor does
// not allow. It indicates a bug, not an operational failure.
var ErrInvalidTransition = errors.New("invalid state transition")

// State is the supervisor lifecycle state.
type State int

const (
	Running    State = iota // RUNNING: managed child alive
	Bereaved                // BEREAVED: child exited, waiting for descendants
	Terminated              // TERMINATED: the process is about to exit
)

var stateNames = [...]string{"RUNNING", "BEREAVED", "TERMINATED"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("UNKNOWN(%d)", s)
}

// validTransitions defines allowed state transitions. Terminated has no
// way out: one supervisor serves exactly one invocation.
var validTransitions = map[State][]State{
	Running:  {Bereaved, Terminated},
	Bereaved: {Terminated},
}

// canTransition reports whether from -> to is allowed.
func canTransition(from, to State) bool {
	return slices.Contains(validTransitions[from], to)
}

// Liveness of the managed child.
type Liveness int

const (
	Alive Liveness = iota
	Exited
)

func (l Liveness) String() string {
	if l == Alive {
		return "alive"
	}
	return "exited"
}

// ManagedChild is the single top-level process the supervisor launched.
type ManagedChild struct {
	Pid      int // 0 when the program never started
	Liveness Liveness
	Code     int // valid once Exited
}

// Alive reports whether the child has not been reaped yet.
func (c *ManagedChild) Alive() bool { return c.Liveness == Alive }

// markExited records the child's final status. Exited is terminal.
func (c *ManagedChild) markExited(code int) {
	c.Liveness = Exited
	c.Code = code
}

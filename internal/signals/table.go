// Package signals translates received signal numbers into supervisor
// actions: forward (possibly rewritten), suppress, or run a command.
package signals

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

// MaxSignal is the highest signal number the table covers. SIGRTMAX is not
// a constant, so the table is sized for the common Linux value.
const MaxSignal = 64

// ErrSignalRange is returned for directives naming a signal outside the
// accepted range.
var ErrSignalRange = errors.New("signal number out of range")

// Kind identifies what the supervisor does with a received signal.
type Kind int

const (
	Forward    Kind = iota // deliver Action.Signal to the child target
	Suppress               // drop the signal
	RunCommand             // run Action.Command instead of forwarding
)

var kindNames = [...]string{"forward", "suppress", "run"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Action is the result of a table lookup.
type Action struct {
	Kind    Kind
	Signal  int
	Command string
}

func (a Action) String() string {
	switch a.Kind {
	case Forward:
		return fmt.Sprintf("forward(%d)", a.Signal)
	case Suppress:
		return "suppress"
	case RunCommand:
		return fmt.Sprintf("run(%q)", a.Command)
	}
	return a.Kind.String()
}

// Rewrite maps a received signal to the one that is forwarded. From 0 sets
// every signal; To 0 suppresses.
type Rewrite struct {
	From int
	To   int
}

// Directive runs Command when Signal is received.
type Directive struct {
	Signal  int
	Command string
}

// Table is an immutable signal translation table. It is built once at
// startup and only read afterwards.
type Table struct {
	actions    [MaxSignal + 1]Action
	overridden [MaxSignal + 1]bool
}

type tableOptions struct {
	jobControlStop bool
}

// Option configures table construction.
type Option func(*tableOptions)

// WithJobControlStop rewrites SIGTSTP, SIGTTIN and SIGTTOU to SIGSTOP unless
// a rewrite or action already covers them. Used when the child runs in its
// own session, where these signals would otherwise be ignored by orphaned
// process groups.
func WithJobControlStop() Option {
	return func(o *tableOptions) { o.jobControlStop = true }
}

// JobControlSignals are the terminal stop signals that also suspend the
// supervisor after being handled.
var JobControlSignals = []int{int(unix.SIGTSTP), int(unix.SIGTTIN), int(unix.SIGTTOU)}

// IsJobControl reports whether sig is one of JobControlSignals.
func IsJobControl(sig int) bool {
	for _, s := range JobControlSignals {
		if s == sig {
			return true
		}
	}
	return false
}

// NewTable builds a table from rewrites and actions. Rewrites apply in
// order; actions apply after all rewrites and take precedence over them.
func NewTable(rewrites []Rewrite, actions []Directive, opts ...Option) (*Table, error) {
	var o tableOptions
	for _, opt := range opts {
		opt(&o)
	}

	t := &Table{}
	for i := range t.actions {
		t.actions[i] = Action{Kind: Forward, Signal: i}
	}

	for _, rw := range rewrites {
		if rw.From < 0 || rw.From > MaxSignal {
			return nil, fmt.Errorf("rewrite %d:%d: from %w (0-%d)", rw.From, rw.To, ErrSignalRange, MaxSignal)
		}
		if rw.To < 0 || rw.To > MaxSignal {
			return nil, fmt.Errorf("rewrite %d:%d: to %w (0-%d)", rw.From, rw.To, ErrSignalRange, MaxSignal)
		}
		act := Action{Kind: Forward, Signal: rw.To}
		if rw.To == 0 {
			act = Action{Kind: Suppress}
		}
		if rw.From == 0 {
			for i := range t.actions {
				t.actions[i] = act
				t.overridden[i] = true
			}
			continue
		}
		t.actions[rw.From] = act
		t.overridden[rw.From] = true
	}

	for _, d := range actions {
		if d.Signal < 1 || d.Signal > MaxSignal {
			return nil, fmt.Errorf("action for signal %d: %w (1-%d)", d.Signal, ErrSignalRange, MaxSignal)
		}
		t.actions[d.Signal] = Action{Kind: RunCommand, Command: d.Command}
		t.overridden[d.Signal] = true
	}

	if o.jobControlStop {
		for _, s := range JobControlSignals {
			if !t.overridden[s] {
				t.actions[s] = Action{Kind: Forward, Signal: int(unix.SIGSTOP)}
			}
		}
	}

	return t, nil
}

// Lookup returns the action for sig. Signals outside 1..MaxSignal are
// forwarded unchanged.
func (t *Table) Lookup(sig int) Action {
	if sig < 1 || sig > MaxSignal {
		return Action{Kind: Forward, Signal: sig}
	}
	return t.actions[sig]
}

// Overridden reports whether a rewrite or action directive covers sig.
func (t *Table) Overridden(sig int) bool {
	if sig < 0 || sig > MaxSignal {
		return false
	}
	return t.overridden[sig]
}

package config

import (
	"fmt"
	"strings"

	"github.com/kahiteam/hale/internal/signals"
)

// ParseRewrite parses a "from:to" directive. Either side may be a number
// or a signal name; 0 is allowed on both sides.
func ParseRewrite(s string) (signals.Rewrite, error) {
	from, to, ok := strings.Cut(s, ":")
	if !ok {
		return signals.Rewrite{}, fmt.Errorf("rewrite %q: want <from>:<to>", s)
	}
	f, err := parseSignal(from, 0)
	if err != nil {
		return signals.Rewrite{}, fmt.Errorf("rewrite %q: %w", s, err)
	}
	r, err := parseSignal(to, 0)
	if err != nil {
		return signals.Rewrite{}, fmt.Errorf("rewrite %q: %w", s, err)
	}
	return signals.Rewrite{From: f, To: r}, nil
}

// ParseAction parses a "signal:command" directive. The command is
// everything after the first colon and is passed to the shell verbatim.
func ParseAction(s string) (signals.Directive, error) {
	sig, command, ok := strings.Cut(s, ":")
	if !ok {
		return signals.Directive{}, fmt.Errorf("action %q: want <signal>:<command>", s)
	}
	n, err := parseSignal(sig, 1)
	if err != nil {
		return signals.Directive{}, fmt.Errorf("action %q: %w", s, err)
	}
	return signals.Directive{Signal: n, Command: command}, nil
}

func parseSignal(s string, lowest int) (int, error) {
	n, err := signals.Parse(s)
	if err != nil {
		return 0, err
	}
	if n < lowest || n > signals.MaxSignal {
		return 0, fmt.Errorf("%w: %d not in [%d, %d]", signals.ErrSignalRange, n, lowest, signals.MaxSignal)
	}
	return n, nil
}

// Directives parses every rewrite and action in order.
func (c *Config) Directives() ([]signals.Rewrite, []signals.Directive, error) {
	rewrites := make([]signals.Rewrite, 0, len(c.Rewrite))
	for _, s := range c.Rewrite {
		r, err := ParseRewrite(s)
		if err != nil {
			return nil, nil, err
		}
		rewrites = append(rewrites, r)
	}
	actions := make([]signals.Directive, 0, len(c.Action))
	for _, s := range c.Action {
		a, err := ParseAction(s)
		if err != nil {
			return nil, nil, err
		}
		actions = append(actions, a)
	}
	return rewrites, actions, nil
}

// BuildTable builds the signal translation table. In group mode the
// job-control signals default to SIGSTOP.
func (c *Config) BuildTable() (*signals.Table, error) {
	rewrites, actions, err := c.Directives()
	if err != nil {
		return nil, err
	}
	var opts []signals.Option
	if c.GroupMode() {
		opts = append(opts, signals.WithJobControlStop())
	}
	return signals.NewTable(rewrites, actions, opts...)
}

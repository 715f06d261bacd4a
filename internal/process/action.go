package process

import (
	"log/slog"
)

// DefaultShell interprets action commands when none is configured.
const DefaultShell = "/bin/sh"

// ActionRunner launches configured commands in response to signals. The
// helper processes are not tracked: they are reaped like any other
// descendant.
type ActionRunner struct {
	shell   string
	spawner Spawner
	logger  *slog.Logger
}

// NewActionRunner creates a runner that starts commands as
// `shell -c command`.
func NewActionRunner(shell string, spawner Spawner, logger *slog.Logger) *ActionRunner {
	if shell == "" {
		shell = DefaultShell
	}
	return &ActionRunner{
		shell:   shell,
		spawner: spawner,
		logger:  logger,
	}
}

// Shell returns the interpreter used for commands.
func (r *ActionRunner) Shell() string { return r.shell }

// Run starts command and returns the helper's pid without waiting for it.
// The helper stays in the supervisor's session.
func (r *ActionRunner) Run(command string) (int, error) {
	pid, err := r.spawner.Spawn(SpawnConfig{
		Command: r.shell,
		Args:    []string{"-c", command},
	})
	if err != nil {
		return 0, err
	}
	r.logger.Debug("action started", "pid", pid, "command", command)
	return pid, nil
}

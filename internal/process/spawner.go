// Package process creates, signals and reaps the supervisor's children.
package process

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"syscall"
)

// ErrForkFailed is returned when the process could not be duplicated at
// all, as opposed to the new image failing to start.
var ErrForkFailed = errors.New("fork failed")

// LaunchError reports that the child was created but the requested program
// could not replace its image (missing binary, permission denied, ...).
type LaunchError struct {
	Command string
	Err     error
}

func (e *LaunchError) Error() string { return fmt.Sprintf("%s: %v", e.Command, e.Err) }
func (e *LaunchError) Unwrap() error { return e.Err }

// SpawnConfig holds the parameters needed to spawn a child process.
type SpawnConfig struct {
	Command     string               // absolute path or $PATH-resolved binary
	Args        []string             // command arguments (not including argv[0])
	Env         []string             // environment (nil = inherit)
	Stdin       io.Reader            // nil = supervisor's stdin
	Stdout      io.Writer            // nil = supervisor's stdout
	Stderr      io.Writer            // nil = supervisor's stderr
	SysProcAttr *syscall.SysProcAttr // session/terminal setup run before exec
}

// Spawner creates child processes and returns their pid. Implementations
// include ExecSpawner (real) and MockSpawner (testing).
type Spawner interface {
	Spawn(cfg SpawnConfig) (int, error)
}

// ExecSpawner spawns real OS processes via os/exec. The spawned process is
// released immediately: its exit status is collected by the reaper, never
// by os/exec.
type ExecSpawner struct{}

// Spawn starts a child process with the given config.
func (s *ExecSpawner) Spawn(cfg SpawnConfig) (int, error) {
	cmd := exec.Command(cfg.Command, cfg.Args...)
	cmd.Env = cfg.Env
	cmd.SysProcAttr = cfg.SysProcAttr

	cmd.Stdin = cfg.Stdin
	if cmd.Stdin == nil {
		cmd.Stdin = os.Stdin
	}
	cmd.Stdout = cfg.Stdout
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	cmd.Stderr = cfg.Stderr
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}

	if err := cmd.Start(); err != nil {
		return 0, classifyStartError(cfg.Command, err)
	}

	pid := cmd.Process.Pid
	_ = cmd.Process.Release()
	return pid, nil
}

// classifyStartError separates duplication failures from image
// replacement failures.
func classifyStartError(command string, err error) error {
	if errors.Is(err, syscall.EAGAIN) || errors.Is(err, syscall.ENOMEM) {
		return fmt.Errorf("%w: %s: %w", ErrForkFailed, command, err)
	}
	return &LaunchError{Command: command, Err: err}
}

// MockSpawner is a test double for Spawner.
type MockSpawner struct {
	SpawnFn    func(cfg SpawnConfig) (int, error)
	SpawnCalls []SpawnConfig
}

// Spawn records the call and delegates to SpawnFn.
func (m *MockSpawner) Spawn(cfg SpawnConfig) (int, error) {
	m.SpawnCalls = append(m.SpawnCalls, cfg)
	if m.SpawnFn != nil {
		return m.SpawnFn(cfg)
	}
	return 1000 + len(m.SpawnCalls), nil
}

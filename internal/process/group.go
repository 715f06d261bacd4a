package process

import (
	"errors"
	"log/slog"
	"syscall"
)

// TTY is the supervisor's view of its controlling terminal.
type TTY interface {
	Detach() error
	IsTerminal() bool
}

// GroupController decides how the child is placed into sessions and
// process groups, and which pid signals are delivered to.
//
// In group mode the supervisor gives up its controlling terminal, and the
// child starts a new session (and so a new process group led by itself)
// and takes the terminal over. Signals then go to the whole group.
type GroupController struct {
	groupMode bool
	tty       TTY
	logger    *slog.Logger
}

// NewGroupController creates a controller. tty may be nil in single-child
// mode.
func NewGroupController(groupMode bool, tty TTY, logger *slog.Logger) *GroupController {
	return &GroupController{
		groupMode: groupMode,
		tty:       tty,
		logger:    logger,
	}
}

// GroupMode reports whether signals target the child's process group.
func (g *GroupController) GroupMode() bool { return g.groupMode }

// DetachTerminal releases the supervisor's controlling terminal so the
// child's new session can acquire it. Failure is expected when there is no
// terminal and is only logged.
func (g *GroupController) DetachTerminal() {
	if !g.groupMode || g.tty == nil {
		return
	}
	if err := g.tty.Detach(); err != nil {
		g.logger.Debug("unable to detach from controlling tty", "error", err)
	}
}

// SessionAttr returns the attributes applied in the child between fork and
// exec. Nil means the child stays in the supervisor's session.
func (g *GroupController) SessionAttr() *syscall.SysProcAttr {
	if !g.groupMode {
		return nil
	}
	attr := &syscall.SysProcAttr{Setsid: true}
	if g.tty != nil && g.tty.IsTerminal() {
		attr.Setctty = true
		attr.Ctty = 0 // stdin in the child
	}
	return attr
}

// Target returns the pid argument for kill(2): the negated group id in
// group mode, the bare pid otherwise.
func (g *GroupController) Target(childPid int) int {
	if g.groupMode {
		return -childPid
	}
	return childPid
}

// Spawn starts the managed child with the session attributes applied. If
// acquiring the terminal is what failed, the child is started again without
// it: a missing terminal must not prevent the workload from running.
func (g *GroupController) Spawn(sp Spawner, cfg SpawnConfig) (int, error) {
	attr := g.SessionAttr()
	cfg.SysProcAttr = attr

	pid, err := sp.Spawn(cfg)
	if err == nil || attr == nil || !attr.Setctty || !isTerminalError(err) {
		if err == nil && attr != nil {
			g.logger.Debug("setsid complete", "pid", pid, "ctty", attr.Setctty)
		}
		return pid, err
	}

	g.logger.Debug("unable to attach to controlling tty", "error", err)
	retry := *attr
	retry.Setctty = false
	retry.Ctty = 0
	cfg.SysProcAttr = &retry
	return sp.Spawn(cfg)
}

func isTerminalError(err error) bool {
	var le *LaunchError
	if !errors.As(err, &le) {
		return false
	}
	for _, errno := range []syscall.Errno{syscall.ENOTTY, syscall.EPERM, syscall.EINVAL, syscall.EIO} {
		if errors.Is(err, errno) {
			return true
		}
	}
	return false
}

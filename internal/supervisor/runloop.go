package supervisor

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"golang.org/x/sys/unix"

	"github.com/kahiteam/hale/internal/events"
	"github.com/kahiteam/hale/internal/logging"
	"github.com/kahiteam/hale/internal/process"
	"github.com/kahiteam/hale/internal/signals"
)

// DefaultHeartbeat bounds every wait so reaping makes progress even if a
// SIGCHLD is lost.
const DefaultHeartbeat = time.Second

// LaunchFailureCode is the exit status recorded when the requested program
// cannot be started. It lets operators tell a broken image apart from a
// workload that ran and failed.
const LaunchFailureCode = 2

// Supervisor is the PID-1 run loop. It is single-threaded: all state is
// owned by the goroutine calling Run.
type Supervisor struct {
	command   string
	args      []string
	table     *signals.Table
	group     *process.GroupController
	survive   bool
	subreaper bool
	self      int
	heartbeat time.Duration

	spawner  process.Spawner
	actions  *process.ActionRunner
	reaper   process.Reaper
	census   process.Census
	signaler process.Signaler
	waiter   SignalWaiter
	bus      *events.Bus
	logger   *slog.Logger

	state State
	child ManagedChild
}

// SupervisorConfig configures the supervisor. Table, Group and Logger are
// required; the remaining collaborators default to the real OS
// implementations.
type SupervisorConfig struct {
	Command          string
	Args             []string
	Table            *signals.Table
	Group            *process.GroupController
	SurviveBereaving bool
	Shell            string
	Subreaper        bool // become child subreaper when not PID 1
	Bus              *events.Bus
	Logger           *slog.Logger

	Spawner   process.Spawner
	Reaper    process.Reaper
	Census    process.Census
	Signaler  process.Signaler
	Waiter    SignalWaiter
	Heartbeat time.Duration
	Self      int // pid the supervisor stops on job-control signals
}

// New creates a supervisor.
func New(cfg SupervisorConfig) *Supervisor {
	s := &Supervisor{
		command:   cfg.Command,
		args:      cfg.Args,
		table:     cfg.Table,
		group:     cfg.Group,
		survive:   cfg.SurviveBereaving,
		subreaper: cfg.Subreaper,
		self:      cfg.Self,
		heartbeat: cfg.Heartbeat,
		spawner:   cfg.Spawner,
		reaper:    cfg.Reaper,
		census:    cfg.Census,
		signaler:  cfg.Signaler,
		waiter:    cfg.Waiter,
		bus:       cfg.Bus,
		logger:    cfg.Logger,
		state:     Running,
	}
	if s.spawner == nil {
		s.spawner = &process.ExecSpawner{}
	}
	if s.reaper == nil {
		s.reaper = process.NewWaitReaper()
	}
	if s.census == nil {
		s.census = process.NewCensus()
	}
	if s.signaler == nil {
		s.signaler = process.KillSignaler{}
	}
	if s.heartbeat == 0 {
		s.heartbeat = DefaultHeartbeat
	}
	if s.self == 0 {
		s.self = os.Getpid()
	}
	s.actions = process.NewActionRunner(cfg.Shell, s.spawner, s.logger)
	return s
}

// State returns the current lifecycle state.
func (s *Supervisor) State() State { return s.state }

// Child returns the managed child record.
func (s *Supervisor) Child() ManagedChild { return s.child }

// Run spawns the managed child and processes signals until the supervisor
// must exit. It returns the process exit code; a non-nil error always comes
// with code 1 or a launch failure code and describes a supervisor fault.
func (s *Supervisor) Run() (int, error) {
	if s.waiter == nil {
		q := NewSignalQueue()
		defer q.Stop()
		s.waiter = q
	}

	s.group.DetachTerminal()
	if s.subreaper && s.self != 1 {
		if err := process.SetSubreaper(); err != nil {
			s.logger.Debug("unable to become child subreaper", "error", err)
		}
	}

	s.logOverrides()
	if code, done, err := s.start(); done {
		return code, err
	}

	for {
		ev, err := s.waiter.WaitNext(s.heartbeat)
		if err != nil {
			return 1, fmt.Errorf("wait for signal: %w", err)
		}

		sig := ev.Signal
		if ev.Timeout {
			// Treat silence like SIGCHLD so a lost notification cannot
			// strand a zombie or a bereaved supervisor.
			s.logger.Debug("heartbeat")
			s.publish(events.Heartbeat, nil)
			sig = int(unix.SIGCHLD)
		} else {
			s.logger.Debug("received signal", "signal", signals.Name(sig))
			s.publish(events.SignalReceived, map[string]string{"signal": signals.Name(sig)})
		}

		if code, done, err := s.dispatch(sig); done {
			return code, err
		}
	}
}

// start launches the managed child. A program that cannot be launched is
// recorded as having exited with LaunchFailureCode.
func (s *Supervisor) start() (int, bool, error) {
	pid, err := s.group.Spawn(s.spawner, process.SpawnConfig{
		Command: s.command,
		Args:    s.args,
	})
	if err == nil {
		s.child = ManagedChild{Pid: pid, Liveness: Alive}
		s.logger.Debug("child spawned", "pid", pid, "command", s.command)
		s.logger = logging.WithFields(s.logger, "child", pid)
		s.publish(events.ChildStarted, map[string]string{
			"pid":     strconv.Itoa(pid),
			"command": s.command,
		})
		s.publish(events.SupervisorStateRunning, nil)
		return 0, false, nil
	}

	if errors.Is(err, process.ErrForkFailed) {
		return 1, true, fmt.Errorf("unable to fork: %w", err)
	}

	s.logger.Error("unable to launch program", "command", s.command, "error", err)
	s.publish(events.ChildLaunchFailed, map[string]string{
		"command": s.command,
		"error":   err.Error(),
	})
	s.child = ManagedChild{Liveness: Alive}
	return s.childExited(LaunchFailureCode)
}

// logOverrides reports every signal covered by a rewrite or action
// directive.
func (s *Supervisor) logOverrides() {
	for sig := 1; sig <= signals.MaxSignal; sig++ {
		if s.table.Overridden(sig) {
			s.logger.Debug("signal override", "signal", signals.Name(sig), "action", s.table.Lookup(sig).String())
		}
	}
}

func (s *Supervisor) dispatch(sig int) (int, bool, error) {
	if sig == int(unix.SIGCHLD) {
		return s.handleChildStateChange()
	}
	return s.handleSignal(sig)
}

// handleChildStateChange reaps every reportable descendant and applies the
// exit rules for the managed child.
func (s *Supervisor) handleChildStateChange() (int, bool, error) {
	exits, err := s.reaper.Drain()
	if err != nil {
		s.logger.Warn("reaping descendants failed", "error", err)
	}

	for _, e := range exits {
		if e.Signaled {
			s.logger.Debug("process terminated by signal", "pid", e.Pid, "signal", signals.Name(e.Signal))
		} else {
			s.logger.Debug("process exited", "pid", e.Pid, "status", e.Code)
		}

		if s.child.Alive() && s.child.Pid > 0 && e.Pid == s.child.Pid {
			if code, done, err := s.childExited(e.Code); done {
				return code, true, err
			}
			continue
		}

		s.publish(events.DescendantReaped, map[string]string{
			"pid":  strconv.Itoa(e.Pid),
			"code": strconv.Itoa(e.Code),
		})
	}

	if s.state == Bereaved {
		return s.checkRemaining()
	}
	return 0, false, nil
}

// childExited records the managed child's exit and either finishes the
// supervisor or keeps it alive for remaining descendants.
func (s *Supervisor) childExited(code int) (int, bool, error) {
	s.child.markExited(code)
	s.publish(events.ChildExited, map[string]string{
		"pid":  strconv.Itoa(s.child.Pid),
		"code": strconv.Itoa(code),
	})

	if s.survive {
		if err := s.transition(Bereaved); err != nil {
			return 1, true, err
		}
		s.logger.Debug("child exited; staying alive for remaining descendants", "status", code)
		return 0, false, nil
	}

	s.terminateGroup()
	if err := s.transition(Terminated); err != nil {
		return 1, true, err
	}
	s.logger.Debug("child exited; goodbye", "status", code)
	return code, true, nil
}

// terminateGroup asks whatever is left of the child's group to exit. The
// configured translation for SIGTERM applies, but no action helper is
// launched on the way out.
func (s *Supervisor) terminateGroup() {
	if !s.group.GroupMode() {
		return
	}
	term := int(unix.SIGTERM)
	act := s.table.Lookup(term)
	switch act.Kind {
	case signals.Suppress:
		return
	case signals.Forward:
		s.forward(term, act.Signal)
	default:
		s.forward(term, term)
	}
}

// checkRemaining exits once the census sees no process besides the
// supervisor. A failed census is retried on the next heartbeat.
func (s *Supervisor) checkRemaining() (int, bool, error) {
	remaining, err := s.census.Remaining()
	if err != nil {
		s.logger.Debug("process census failed", "error", err)
		return 0, false, nil
	}
	s.logger.Debug("process census", "remaining", remaining)
	if remaining {
		return 0, false, nil
	}

	if err := s.transition(Terminated); err != nil {
		return 1, true, err
	}
	s.logger.Debug("no process left; exiting")
	return 0, true, nil
}

// handleSignal applies the translation table to a non-SIGCHLD signal.
func (s *Supervisor) handleSignal(sig int) (int, bool, error) {
	act := s.table.Lookup(sig)
	switch act.Kind {
	case signals.Suppress:
		s.logger.Debug("not forwarding signal (ignored)", "signal", signals.Name(sig))
		s.publish(events.SignalSuppressed, map[string]string{"signal": signals.Name(sig)})
	case signals.RunCommand:
		if err := s.runAction(sig, act.Command); err != nil {
			return 1, true, err
		}
	case signals.Forward:
		if act.Signal != sig {
			s.logger.Debug("translating signal", "from", signals.Name(sig), "to", signals.Name(act.Signal))
		}
		s.forward(sig, act.Signal)
	}

	if signals.IsJobControl(sig) {
		// Stop alongside the child; SIGCONT resumes both.
		s.logger.Debug("suspending self due to TTY signal", "signal", signals.Name(sig))
		if err := s.signaler.Signal(s.self, int(unix.SIGSTOP)); err != nil {
			s.logger.Warn("unable to suspend self", "error", err)
		}
	}
	return 0, false, nil
}

// runAction starts the configured command for sig. Only a failure to fork
// is fatal; a command that cannot launch is reported and ignored.
func (s *Supervisor) runAction(sig int, command string) error {
	pid, err := s.actions.Run(command)
	if err != nil {
		if errors.Is(err, process.ErrForkFailed) {
			return fmt.Errorf("unable to fork for %s action: %w", signals.Name(sig), err)
		}
		s.logger.Error("could not run action",
			"signal", signals.Name(sig),
			"shell", s.actions.Shell(),
			"command", command,
			"error", err,
		)
		s.publish(events.ActionFailed, map[string]string{
			"signal":  signals.Name(sig),
			"command": command,
		})
		return nil
	}
	s.publish(events.ActionStarted, map[string]string{
		"signal":  signals.Name(sig),
		"command": command,
		"pid":     strconv.Itoa(pid),
	})
	return nil
}

// forward delivers sig, translated from received, to the child target.
func (s *Supervisor) forward(received, sig int) {
	if s.child.Pid <= 0 {
		s.logger.Debug("no child to forward signal to", "signal", signals.Name(sig))
		return
	}
	if !s.group.GroupMode() && !s.child.Alive() {
		// The pid may already belong to an unrelated process.
		s.logger.Debug("child already reaped; not forwarding", "signal", signals.Name(sig))
		return
	}

	target := s.group.Target(s.child.Pid)
	if err := s.signaler.Signal(target, sig); err != nil {
		if errors.Is(err, unix.ESRCH) {
			s.logger.Debug("no process to forward signal to", "signal", signals.Name(sig), "target", target)
		} else {
			s.logger.Warn("unable to forward signal", "signal", signals.Name(sig), "target", target, "error", err)
		}
		return
	}

	s.logger.Debug("forwarded signal", "signal", signals.Name(sig), "target", target)
	s.publish(events.SignalForwarded, map[string]string{
		"signal":   signals.Name(sig),
		"received": signals.Name(received),
	})
}

func (s *Supervisor) transition(to State) error {
	if !canTransition(s.state, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.state, to)
	}
	from := s.state
	s.state = to
	s.logger.Debug("state change", "from", from.String(), "to", to.String())

	switch to {
	case Bereaved:
		s.publish(events.SupervisorStateBereaved, nil)
	case Terminated:
		s.publish(events.SupervisorStateTerminated, map[string]string{
			"code": strconv.Itoa(s.child.Code),
		})
	}
	return nil
}

func (s *Supervisor) publish(t events.EventType, data map[string]string) {
	if s.bus.SubscriberCount(t) == 0 {
		return
	}
	if data == nil {
		data = map[string]string{}
	}
	s.bus.Publish(events.Event{Type: t, Data: data})
}

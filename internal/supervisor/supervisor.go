// Package supervisor runs the PID-1 event loop: it waits for signals,
// forwards or translates them, reaps descendants and decides when the
// process exits.
package supervisor

import (
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kahiteam/hale/internal/signals"
)

var (
	// ErrInvalidTimeout is returned by WaitNext for a non-positive timeout.
	ErrInvalidTimeout = errors.New("invalid wait timeout")
	// ErrWaiterClosed is returned by WaitNext once the waiter is stopped.
	ErrWaiterClosed = errors.New("signal waiter closed")
)

// SignalEvent is the outcome of one wait: a signal, or a timeout with
// nothing pending.
type SignalEvent struct {
	Signal  int
	Timeout bool
}

// SignalWaiter blocks for the next signal. Repeated deliveries of the same
// signal may be coalesced into one event.
type SignalWaiter interface {
	WaitNext(timeout time.Duration) (SignalEvent, error)
	Stop()
}

// uncatchable lists signals that are never routed to the loop: KILL and
// STOP cannot be caught, synchronous faults belong to the runtime, and URG
// is used by the runtime for goroutine preemption.
// An operator-sent SIGURG is therefore not forwarded to the child.
var uncatchable = map[syscall.Signal]bool{
	syscall.SIGKILL: true,
	syscall.SIGSTOP: true,
	syscall.SIGILL:  true,
	syscall.SIGTRAP: true,
	syscall.SIGABRT: true,
	syscall.SIGBUS:  true,
	syscall.SIGFPE:  true,
	syscall.SIGSEGV: true,
	syscall.SIGSYS:  true,
	syscall.SIGURG:  true,
}

// Catchable returns every signal 1..signals.MaxSignal the loop listens for.
func Catchable() []os.Signal {
	sigs := make([]os.Signal, 0, signals.MaxSignal)
	for i := 1; i <= signals.MaxSignal; i++ {
		s := syscall.Signal(i)
		if uncatchable[s] {
			continue
		}
		sigs = append(sigs, s)
	}
	return sigs
}

// SignalQueue captures OS signals for the main loop. Registering a signal
// with the runtime also overrides its default disposition, which is what
// makes job-control signals observable instead of stopping the supervisor.
type SignalQueue struct {
	ch      chan os.Signal
	stopped bool
}

// NewSignalQueue registers for every catchable signal with a buffer of 64.
func NewSignalQueue() *SignalQueue {
	ch := make(chan os.Signal, signals.MaxSignal)
	signal.Notify(ch, Catchable()...)
	return &SignalQueue{ch: ch}
}

// WaitNext blocks until a signal arrives or timeout elapses.
func (sq *SignalQueue) WaitNext(timeout time.Duration) (SignalEvent, error) {
	if timeout <= 0 {
		return SignalEvent{}, ErrInvalidTimeout
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case sig, ok := <-sq.ch:
		if !ok {
			return SignalEvent{}, ErrWaiterClosed
		}
		s, ok := sig.(syscall.Signal)
		if !ok {
			return SignalEvent{}, errors.New("unexpected signal type " + sig.String())
		}
		return SignalEvent{Signal: int(s)}, nil
	case <-timer.C:
		return SignalEvent{Timeout: true}, nil
	}
}

// Stop deregisters signal notifications and closes the channel.
func (sq *SignalQueue) Stop() {
	if sq.stopped {
		return
	}
	sq.stopped = true
	signal.Stop(sq.ch)
	close(sq.ch)
}

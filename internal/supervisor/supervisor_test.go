package supervisor

import (
	"errors"
	"os"
	"syscall"
	"testing"
	"time"

	"golang.org/x/sys/unix"
)

func TestCatchable(t *testing.T) {
	sigs := Catchable()
	seen := make(map[os.Signal]bool, len(sigs))
	for _, s := range sigs {
		seen[s] = true
	}

	for _, s := range []syscall.Signal{syscall.SIGKILL, syscall.SIGSTOP, syscall.SIGSEGV, syscall.SIGURG} {
		if seen[s] {
			t.Errorf("Catchable() includes %v", s)
		}
	}
	for _, s := range []syscall.Signal{syscall.SIGTERM, syscall.SIGCHLD, syscall.SIGTSTP, syscall.SIGHUP, syscall.Signal(34), syscall.Signal(64)} {
		if !seen[s] {
			t.Errorf("Catchable() missing %v", s)
		}
	}
	if want := 64 - len(uncatchable); len(sigs) != want {
		t.Fatalf("len(Catchable()) = %d, want %d", len(sigs), want)
	}
}

func TestWaitNextInvalidTimeout(t *testing.T) {
	sq := &SignalQueue{ch: make(chan os.Signal, 1)}
	for _, d := range []time.Duration{0, -time.Second} {
		if _, err := sq.WaitNext(d); !errors.Is(err, ErrInvalidTimeout) {
			t.Errorf("WaitNext(%v) err = %v, want ErrInvalidTimeout", d, err)
		}
	}
}

func TestWaitNextTimeout(t *testing.T) {
	sq := &SignalQueue{ch: make(chan os.Signal, 1)}
	start := time.Now()
	ev, err := sq.WaitNext(20 * time.Millisecond)
	if err != nil {
		t.Fatalf("WaitNext: %v", err)
	}
	if !ev.Timeout {
		t.Fatalf("event = %+v, want timeout", ev)
	}
	if elapsed := time.Since(start); elapsed < 20*time.Millisecond {
		t.Fatalf("returned after %v, before the timeout", elapsed)
	}
}

func TestWaitNextPending(t *testing.T) {
	sq := &SignalQueue{ch: make(chan os.Signal, 1)}
	sq.ch <- syscall.SIGHUP
	ev, err := sq.WaitNext(time.Second)
	if err != nil {
		t.Fatalf("WaitNext: %v", err)
	}
	if ev.Timeout || ev.Signal != int(syscall.SIGHUP) {
		t.Fatalf("event = %+v, want SIGHUP", ev)
	}
}

func TestSignalQueueStop(t *testing.T) {
	sq := NewSignalQueue()
	sq.Stop()
	sq.Stop() // idempotent

	if _, err := sq.WaitNext(time.Second); !errors.Is(err, ErrWaiterClosed) {
		t.Fatalf("WaitNext after Stop err = %v, want ErrWaiterClosed", err)
	}
}

func TestSignalQueueDelivers(t *testing.T) {
	sq := NewSignalQueue()
	defer sq.Stop()

	if err := unix.Kill(os.Getpid(), unix.SIGUSR1); err != nil {
		t.Fatalf("kill: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		ev, err := sq.WaitNext(time.Second)
		if err != nil {
			t.Fatalf("WaitNext: %v", err)
		}
		if ev.Signal == int(unix.SIGUSR1) {
			return
		}
	}
	t.Fatal("SIGUSR1 was not delivered")
}

func TestSignalQueueBufferSize(t *testing.T) {
	sq := NewSignalQueue()
	defer sq.Stop()

	if cap(sq.ch) != 64 {
		t.Fatalf("buffer size = %d, want 64", cap(sq.ch))
	}
}

func TestStateString(t *testing.T) {
	tests := []struct {
		s    State
		want string
	}{
		{Running, "RUNNING"},
		{Bereaved, "BEREAVED"},
		{Terminated, "TERMINATED"},
		{State(9), "UNKNOWN(9)"},
	}
	for _, tt := range tests {
		if got := tt.s.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to State
		want     bool
	}{
		{Running, Bereaved, true},
		{Running, Terminated, true},
		{Bereaved, Terminated, true},
		{Bereaved, Running, false},
		{Terminated, Running, false},
		{Terminated, Bereaved, false},
		{Running, Running, false},
	}
	for _, tt := range tests {
		if got := canTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("canTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestManagedChildMarkExited(t *testing.T) {
	c := ManagedChild{Pid: 12}
	if !c.Alive() {
		t.Fatal("new child should be alive")
	}
	c.markExited(143)
	if c.Alive() || c.Code != 143 {
		t.Fatalf("child = %+v, want exited with 143", c)
	}
	if c.Liveness.String() != "exited" {
		t.Fatalf("Liveness = %q, want exited", c.Liveness)
	}
}

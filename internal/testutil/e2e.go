//go:build e2e

package testutil

import (
	"bytes"
	"errors"
	"os/exec"
	"sync"
	"syscall"
	"testing"
	"time"
)

// DefaultE2ETimeout is the maximum time a single hale run may take.
const DefaultE2ETimeout = 30 * time.Second

// HaleProcess is a running hale binary.
type HaleProcess struct {
	Cmd *exec.Cmd

	mu     sync.Mutex
	stdout bytes.Buffer
	stderr bytes.Buffer
	done   chan struct{}
	err    error
}

// StartHale runs binary with args and extra environment entries. The
// process is killed when the test ends.
func StartHale(t *testing.T, binary string, env []string, args ...string) *HaleProcess {
	t.Helper()

	p := &HaleProcess{done: make(chan struct{})}
	cmd := exec.Command(binary, args...)
	cmd.Env = append(cmd.Environ(), env...)
	cmd.Stdout = lockedWriter{&p.mu, &p.stdout}
	cmd.Stderr = lockedWriter{&p.mu, &p.stderr}
	p.Cmd = cmd

	if err := cmd.Start(); err != nil {
		t.Fatalf("cannot start hale: %v", err)
	}
	go func() {
		p.err = cmd.Wait()
		close(p.done)
	}()

	t.Cleanup(func() {
		select {
		case <-p.done:
		default:
			_ = cmd.Process.Kill()
			<-p.done
		}
	})
	return p
}

// Signal delivers sig to the hale process.
func (p *HaleProcess) Signal(t *testing.T, sig syscall.Signal) {
	t.Helper()
	if err := p.Cmd.Process.Signal(sig); err != nil {
		t.Fatalf("signal %v: %v", sig, err)
	}
}

// Wait blocks until hale exits and returns its exit code.
func (p *HaleProcess) Wait(t *testing.T, timeout time.Duration) int {
	t.Helper()
	select {
	case <-p.done:
	case <-time.After(timeout):
		t.Fatalf("hale did not exit within %v; stderr:\n%s", timeout, p.Stderr())
	}

	var exitErr *exec.ExitError
	if errors.As(p.err, &exitErr) {
		return exitErr.ExitCode()
	}
	if p.err != nil {
		t.Fatalf("wait: %v", p.err)
	}
	return 0
}

// Exited reports whether hale has exited.
func (p *HaleProcess) Exited() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// Stdout returns everything written to stdout so far.
func (p *HaleProcess) Stdout() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stdout.String()
}

// Stderr returns everything written to stderr so far.
func (p *HaleProcess) Stderr() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stderr.String()
}

type lockedWriter struct {
	mu  *sync.Mutex
	buf *bytes.Buffer
}

func (w lockedWriter) Write(b []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.Write(b)
}

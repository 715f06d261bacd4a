package process

import (
	"errors"
	"testing"
)

func TestActionRunnerUsesShell(t *testing.T) {
	m := &MockSpawner{}
	r := NewActionRunner("/bin/bash", m, testLogger())

	pid, err := r.Run("echo hi")
	if err != nil {
		t.Fatal(err)
	}
	if pid != 1001 {
		t.Fatalf("pid = %d, want 1001", pid)
	}
	call := m.SpawnCalls[0]
	if call.Command != "/bin/bash" {
		t.Fatalf("command = %q, want /bin/bash", call.Command)
	}
	if len(call.Args) != 2 || call.Args[0] != "-c" || call.Args[1] != "echo hi" {
		t.Fatalf("args = %q", call.Args)
	}
	if call.SysProcAttr != nil {
		t.Fatal("actions must stay in the supervisor's session")
	}
}

func TestActionRunnerDefaultShell(t *testing.T) {
	r := NewActionRunner("", &MockSpawner{}, testLogger())
	if r.Shell() != DefaultShell {
		t.Fatalf("shell = %q, want %q", r.Shell(), DefaultShell)
	}
}

func TestActionRunnerPropagatesError(t *testing.T) {
	boom := &LaunchError{Command: "/bin/sh", Err: errors.New("boom")}
	m := &MockSpawner{SpawnFn: func(SpawnConfig) (int, error) { return 0, boom }}
	r := NewActionRunner("", m, testLogger())
	if _, err := r.Run("true"); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
}

func TestActionRunnerRealCommand(t *testing.T) {
	r := NewActionRunner("", &ExecSpawner{}, testLogger())
	pid, err := r.Run("exit 4")
	if err != nil {
		t.Fatal(err)
	}
	if ws := waitPid(t, pid); ws.ExitStatus() != 4 {
		t.Fatalf("exit status = %d, want 4", ws.ExitStatus())
	}
}

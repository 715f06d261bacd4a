//go:build e2e

package testutil

import (
	"strings"
	"testing"
	"time"
)

func TestStartHaleCapturesOutput(t *testing.T) {
	p := StartHale(t, "/bin/sh", []string{"GREETING=hi"}, "-c", `echo "$GREETING"; echo oops >&2; exit 3`)
	if code := p.Wait(t, 5*time.Second); code != 3 {
		t.Fatalf("exit code = %d, want 3", code)
	}
	if !p.Exited() {
		t.Fatal("Exited() = false after Wait")
	}
	if strings.TrimSpace(p.Stdout()) != "hi" {
		t.Errorf("stdout = %q, want hi", p.Stdout())
	}
	if strings.TrimSpace(p.Stderr()) != "oops" {
		t.Errorf("stderr = %q, want oops", p.Stderr())
	}
}

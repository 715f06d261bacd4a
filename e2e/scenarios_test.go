//go:build e2e

package e2e

import (
	"io"
	"net/http"
	"runtime"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/kahiteam/hale/internal/testutil"
)

func TestChildExitCodePropagates(t *testing.T) {
	code, _ := runHale(t, "sh", "-c", "exit 7")
	if code != 7 {
		t.Fatalf("exit code = %d, want 7", code)
	}
}

func TestTerminationSignalForwarded(t *testing.T) {
	p := startHale(t, "sh", "-c", loopScript("true"))
	waitForStdout(t, p, "ready")

	p.Signal(t, syscall.SIGTERM)
	if code := p.Wait(t, 10*time.Second); code != 128+int(syscall.SIGTERM) {
		t.Fatalf("exit code = %d, want %d", code, 128+int(syscall.SIGTERM))
	}
}

func TestSingleChildMode(t *testing.T) {
	p := startHale(t, "--single-child", "sh", "-c", loopScript("true"))
	waitForStdout(t, p, "ready")

	p.Signal(t, syscall.SIGTERM)
	if code := p.Wait(t, 10*time.Second); code != 143 {
		t.Fatalf("exit code = %d, want 143", code)
	}
}

func TestRewriteToZeroSuppresses(t *testing.T) {
	p := startHale(t, "-r", "2:0", "sh", "-c", loopScript(`trap "echo got-int" INT`))
	waitForStdout(t, p, "ready")

	p.Signal(t, syscall.SIGINT)
	time.Sleep(500 * time.Millisecond)
	if p.Exited() {
		t.Fatal("hale exited after a suppressed signal")
	}
	if strings.Contains(p.Stdout(), "got-int") {
		t.Fatal("child observed a suppressed signal")
	}

	p.Signal(t, syscall.SIGTERM)
	p.Wait(t, 10*time.Second)
}

func TestRewriteTranslates(t *testing.T) {
	p := startHale(t, "-r", "TERM:USR1", "sh", "-c", loopScript(`trap "echo got-usr1; exit 5" USR1`))
	waitForStdout(t, p, "ready")

	p.Signal(t, syscall.SIGTERM)
	if code := p.Wait(t, 10*time.Second); code != 5 {
		t.Fatalf("exit code = %d, want 5", code)
	}
	if !strings.Contains(p.Stdout(), "got-usr1") {
		t.Fatalf("stdout = %q, want got-usr1", p.Stdout())
	}
}

func TestActionRunsInsteadOfForwarding(t *testing.T) {
	p := startHale(t, "-a", "2:echo hi", "sh", "-c", loopScript(`trap "echo got-int" INT`))
	waitForStdout(t, p, "ready")

	p.Signal(t, syscall.SIGINT)
	waitForStdout(t, p, "hi")
	if strings.Contains(p.Stdout(), "got-int") {
		t.Fatal("child observed a signal bound to an action")
	}
	if p.Exited() {
		t.Fatal("hale exited after running an action")
	}

	p.Signal(t, syscall.SIGTERM)
	p.Wait(t, 10*time.Second)
}

func TestLaunchFailureExitsTwo(t *testing.T) {
	code, p := runHale(t, "/nonexistent/program")
	if code != 2 {
		t.Fatalf("exit code = %d, want 2", code)
	}
	if !strings.Contains(p.Stderr(), "unable to launch program") {
		t.Fatalf("stderr = %q", p.Stderr())
	}
}

func TestMissingCommandExitsOne(t *testing.T) {
	code, p := runHale(t)
	if code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
	if !strings.Contains(p.Stderr(), "no command given") {
		t.Fatalf("stderr = %q", p.Stderr())
	}
}

func TestSurviveBereavingWaitsForDescendants(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("process census needs /proc")
	}
	start := time.Now()
	code, _ := runHale(t, "-b", "sh", "-c", "sleep 2 & exit 3")
	if code != 0 {
		t.Fatalf("exit code = %d, want 0", code)
	}
	if elapsed := time.Since(start); elapsed < 1500*time.Millisecond {
		t.Fatalf("hale exited after %v, before its orphan", elapsed)
	}
}

func TestOrphansAreReaped(t *testing.T) {
	// The subshell exits at once, leaving its sleep to hale.
	code, p := runHale(t, "-v", "sh", "-c", "(sleep 0.2 &); sleep 1; exit 4")
	if code != 4 {
		t.Fatalf("exit code = %d, want 4", code)
	}
	// One line for the orphan, one for the child.
	if runtime.GOOS == "linux" && strings.Count(p.Stderr(), "process exited") < 2 {
		t.Fatalf("stderr = %q, want a reaped descendant", p.Stderr())
	}
}

func TestEnvironmentDisablesGroupMode(t *testing.T) {
	p := testutil.StartHale(t, haleBinary, []string{"HALE_CONFIG=", "DUMB_INIT_SETSID=0", "DUMB_INIT_DEBUG=1"},
		"sh", "-c", "exit 0")
	if code := p.Wait(t, 10*time.Second); code != 0 {
		t.Fatalf("exit code = %d, want 0", code)
	}
	if strings.Contains(p.Stderr(), "setsid complete") {
		t.Fatal("child was placed in a new session despite SETSID=0")
	}
	if !strings.Contains(p.Stderr(), "level=DEBUG") {
		t.Fatal("DEBUG=1 did not enable debug output")
	}
}

func TestConfigFile(t *testing.T) {
	path := testutil.WriteConfig(t, `
rewrite = ["TERM:USR1"]
log_format = "json"
verbose = true
`)
	p := startHale(t, "--config", path, "sh", "-c", loopScript(`trap "exit 6" USR1`))
	waitForStdout(t, p, "ready")

	p.Signal(t, syscall.SIGTERM)
	if code := p.Wait(t, 10*time.Second); code != 6 {
		t.Fatalf("exit code = %d, want 6", code)
	}
	if !strings.Contains(p.Stderr(), `"component":"hale"`) {
		t.Fatalf("stderr = %q, want JSON logs", p.Stderr())
	}
}

func TestMetricsEndpoint(t *testing.T) {
	addr := testutil.FreeTCPAddr(t)
	p := startHale(t, "--metrics-listen", addr, "sh", "-c", loopScript("true"))
	waitForStdout(t, p, "ready")

	var body string
	testutil.WaitFor(t, func() bool {
		resp, err := http.Get("http://" + addr + "/metrics")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		b, _ := io.ReadAll(resp.Body)
		body = string(b)
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second)

	for _, want := range []string{"hale_info", `hale_supervisor_state{state="running"} 1`} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics missing %q", want)
		}
	}

	p.Signal(t, syscall.SIGTERM)
	p.Wait(t, 10*time.Second)
}

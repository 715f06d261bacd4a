package signals

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

// Parse converts "15", "TERM" or "SIGTERM" (any case) to a signal number.
// Numbers are returned as-is so range checks stay with the caller; names
// must be known to the host.
func Parse(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty signal")
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}

	name := strings.ToUpper(s)
	if !strings.HasPrefix(name, "SIG") {
		name = "SIG" + name
	}
	if n := unix.SignalNum(name); n != 0 {
		return int(n), nil
	}
	return 0, fmt.Errorf("unknown signal %q", s)
}

// Name returns the conventional name of sig, or SIG<n> when the host has
// none (real-time signals).
func Name(sig int) string {
	if sig > 0 {
		if n := unix.SignalName(unix.Signal(sig)); n != "" {
			return n
		}
	}
	return "SIG" + strconv.Itoa(sig)
}

package process

import (
	"fmt"
	"os"

	"github.com/prometheus/procfs"
)

// ProcCensus answers "does anything besides the supervisor remain?" from
// the proc filesystem. The answer is a snapshot and may be stale by the
// time it is used.
type ProcCensus struct {
	mountPoint string
	self       int
}

// NewCensus returns a census over /proc for the current process.
func NewCensus() Census {
	return &ProcCensus{mountPoint: procfs.DefaultMountPoint, self: os.Getpid()}
}

// NewProcCensus returns a census over the given proc mount, as seen by the
// process self.
func NewProcCensus(mountPoint string, self int) *ProcCensus {
	return &ProcCensus{mountPoint: mountPoint, self: self}
}

// Remaining reports whether a process other than the supervisor is
// visible. As PID 1 every visible process counts, matching what an init
// can observe. Otherwise only processes whose parent chain leads back to
// the supervisor count, so unrelated processes in a shared pid namespace
// do not keep it alive.
func (c *ProcCensus) Remaining() (bool, error) {
	fs, err := procfs.NewFS(c.mountPoint)
	if err != nil {
		return false, fmt.Errorf("cannot open %s: %w", c.mountPoint, err)
	}
	procs, err := fs.AllProcs()
	if err != nil {
		return false, fmt.Errorf("cannot list processes in %s: %w", c.mountPoint, err)
	}

	if c.self == 1 {
		for _, p := range procs {
			if p.PID != c.self {
				return true, nil
			}
		}
		return false, nil
	}

	parents := make(map[int]int, len(procs))
	for _, p := range procs {
		stat, err := p.Stat()
		if err != nil {
			// Exited between listing and reading.
			continue
		}
		parents[p.PID] = stat.PPID
	}

	for pid := range parents {
		if pid != c.self && descendsFrom(pid, c.self, parents) {
			return true, nil
		}
	}
	return false, nil
}

func descendsFrom(pid, ancestor int, parents map[int]int) bool {
	cur := pid
	for i := 0; i <= len(parents); i++ {
		ppid, ok := parents[cur]
		if !ok || ppid <= 0 {
			return false
		}
		if ppid == ancestor {
			return true
		}
		cur = ppid
	}
	return false
}

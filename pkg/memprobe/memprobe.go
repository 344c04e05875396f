// Package memprobe samples the benchmark process's resident memory. Window
// metrics record the detectors' own accounting plus the process RSS, so a
// run's memory trajectory can be compared across machines.
package memprobe

import (
	"fmt"
	"os"

	"github.com/shirou/gopsutil/v4/process"
)

// ResourceError reports that a resource measurement could not be taken.
// Measurement failures never abort a run; callers downgrade them to warnings
// and record the sample as unavailable.
type ResourceError struct {
	Probe string
	Err   error
}

func (e *ResourceError) Error() string {
	return fmt.Sprintf("resource probe %s failed: %v", e.Probe, e.Err)
}

func (e *ResourceError) Unwrap() error { return e.Err }

// Probe measures the current process's memory.
type Probe struct {
	proc *process.Process
}

// New creates a probe bound to the current process.
func New() (*Probe, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, &ResourceError{Probe: "rss", Err: err}
	}
	return &Probe{proc: proc}, nil
}

// RSS returns the process's resident set size in bytes.
func (p *Probe) RSS() (uint64, error) {
	info, err := p.proc.MemoryInfo()
	if err != nil {
		return 0, &ResourceError{Probe: "rss", Err: err}
	}
	return info.RSS, nil
}

package engine

import (
	"github.com/shirou/gopsutil/v3/process"
)

// Health is a point-in-time sample of the engine process.
type Health struct {
	Running    bool
	PID        int
	CPUPercent float64
	RSSBytes   uint64
}

// Health samples the running engine's CPU and memory. Sampling failures
// degrade to a zeroed sample rather than an error; the UI shows dashes.
func (r *Runner) Health() Health {
	pid := r.Pid()
	if pid == 0 {
		return Health{}
	}
	h := Health{Running: true, PID: pid}

	proc, err := process.NewProcess(int32(pid))
	if err != nil {
		return h
	}
	if cpu, err := proc.CPUPercent(); err == nil {
		h.CPUPercent = cpu
	}
	if mem, err := proc.MemoryInfo(); err == nil && mem != nil {
		h.RSSBytes = mem.RSS
	}
	return h
}

// Package memory reads process and system memory figures for progress
// output.
package memory

import (
	"fmt"
	"os"

	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/process"
)

// Probe caches the resident set size of one process together with the
// system-wide available, free and total memory. Figures only change when
// Refresh is called.
//
// A Probe is not safe for concurrent use.
type Probe struct {
	pid int

	resident   uint64
	residentOK bool

	available uint64
	free      uint64
	total     uint64
}

// NewProbe returns a probe tracking the current process.
func NewProbe() *Probe {
	return NewProbeForPID(os.Getpid())
}

// NewProbeForPID returns a probe tracking the process with the given pid.
func NewProbeForPID(pid int) *Probe {
	return &Probe{pid: pid}
}

// PID returns the process tracked by the probe.
func (p *Probe) PID() int {
	return p.pid
}

// Refresh re-reads memory figures. A process that can no longer be resolved
// is not an error: its resident size becomes unavailable. A failure to read
// system memory is returned and the previous system figures are kept.
func (p *Probe) Refresh() error {
	p.residentOK = false
	if proc, err := process.NewProcess(int32(p.pid)); err == nil {
		if info, err := proc.MemoryInfo(); err == nil {
			p.resident = info.RSS
			p.residentOK = true
		}
	}

	vm, err := mem.VirtualMemory()
	if err != nil {
		return fmt.Errorf("unable to read system memory: %w", err)
	}
	p.available = vm.Available
	p.free = vm.Free
	p.total = vm.Total
	return nil
}

// ResidentBytes returns the resident set size of pid as of the last refresh.
// The second result is false if pid is not the tracked process or it could
// not be resolved.
func (p *Probe) ResidentBytes(pid int) (uint64, bool) {
	if pid != p.pid || !p.residentOK {
		return 0, false
	}
	return p.resident, true
}

func (p *Probe) AvailableBytes() uint64 { return p.available }

func (p *Probe) FreeBytes() uint64 { return p.free }

func (p *Probe) TotalBytes() uint64 { return p.total }

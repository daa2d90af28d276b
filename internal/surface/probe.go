package surface

import "github.com/shirou/gopsutil/v3/mem"

// MemoryProbe reports system memory usage as a percentage.
type MemoryProbe interface {
	UsedPercent() (float64, error)
}

// SystemProbe reads virtual memory usage from the operating system.
type SystemProbe struct{}

func (SystemProbe) UsedPercent() (float64, error) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return 0, err
	}
	return vm.UsedPercent, nil
}

// ProbeFunc adapts a function to MemoryProbe.
type ProbeFunc func() (float64, error)

func (f ProbeFunc) UsedPercent() (float64, error) { return f() }

package internal

import (
	"fmt"
	"os"
	"time"

	"github.com/shirou/gopsutil/process"
)

// ProcessStats builds a StatsProvider reporting RSS, CPU and OS status of
// the current process for the debug inspector.
func ProcessStats() StatsProvider {
	p, err := process.NewProcess(int32(os.Getpid()))
	return func() map[string]any {
		stats := map[string]any{
			"Time": time.Now().Format(time.RFC822),
			"PID":  os.Getpid(),
		}
		if err != nil || p == nil {
			return stats
		}
		if memInfo, err := p.MemoryInfo(); err == nil {
			stats["RSS"] = fmt.Sprintf("%.1f MiB", float64(memInfo.RSS)/(1024*1024))
		}
		if cpuPercent, err := p.CPUPercent(); err == nil {
			stats["CPU"] = fmt.Sprintf("%.1f%%", cpuPercent)
		}
		if status, err := p.Status(); err == nil {
			stats["Status"] = status
		}
		return stats
	}
}

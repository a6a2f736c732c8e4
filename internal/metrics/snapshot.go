package metrics

import (
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/mem"
	gopsprocess "github.com/shirou/gopsutil/v3/process"
)

// Snapshot is the payload for get_performance_metrics: process resource
// usage plus the tool-call counters already held by Metrics.
type Snapshot struct {
	CPUPercent     float64   `json:"cpu_percent"`
	MemoryRSSMB    float64   `json:"memory_rss_mb"`
	MemoryTotalMB  float64   `json:"memory_total_mb"`
	GoroutineCount int       `json:"goroutine_count"`
	UptimeSeconds  float64   `json:"uptime_seconds"`
	CollectedAt    time.Time `json:"collected_at"`
}

var startedAt = time.Now()

// Collect samples current process CPU and memory usage via gopsutil.
// Returns a zero-valued Snapshot's resource fields if a sample cannot be
// taken (e.g. unsupported platform) rather than failing the whole
// operation — performance metrics are a diagnostic nicety, not a
// correctness-critical path.
func Collect() Snapshot {
	snap := Snapshot{
		CollectedAt:    time.Now().UTC(),
		UptimeSeconds:  time.Since(startedAt).Seconds(),
		GoroutineCount: runtime.NumGoroutine(),
	}

	proc, err := gopsprocess.NewProcess(int32(os.Getpid()))
	if err == nil {
		if pct, cpuErr := proc.CPUPercent(); cpuErr == nil {
			snap.CPUPercent = pct
		}
		if memInfo, memErr := proc.MemoryInfo(); memErr == nil && memInfo != nil {
			snap.MemoryRSSMB = float64(memInfo.RSS) / (1024 * 1024)
		}
	}

	if vm, err := mem.VirtualMemory(); err == nil {
		snap.MemoryTotalMB = float64(vm.Total) / (1024 * 1024)
	}

	return snap
}

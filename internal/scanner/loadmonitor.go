package scanner

import (
	"context"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"

	"github.com/ferrite-media/ferrite/internal/logger"
)

// LoadMonitor samples host CPU and memory usage to scale back probe
// concurrency under load, a simplified form of the teacher's adaptive
// throttler generalized from scan-job-specific scaling to a single
// concurrency multiplier.
type LoadMonitor struct {
	sampleInterval time.Duration
}

// NewLoadMonitor constructs a LoadMonitor sampling at the given interval.
// A non-positive interval disables sampling (EffectiveConcurrency becomes
// an identity function), useful for tests.
func NewLoadMonitor(sampleInterval time.Duration) *LoadMonitor {
	return &LoadMonitor{sampleInterval: sampleInterval}
}

// EffectiveConcurrency scales max down when the host is under heavy CPU or
// memory pressure, never below 1. Sampling failures are logged and treated
// as "no scaling" rather than aborting the scan.
func (m *LoadMonitor) EffectiveConcurrency(ctx context.Context, max int) int {
	if m == nil || m.sampleInterval <= 0 || max <= 1 {
		return max
	}

	sampleCtx, cancel := context.WithTimeout(ctx, m.sampleInterval)
	defer cancel()

	percents, err := cpu.PercentWithContext(sampleCtx, 0, false)
	if err != nil || len(percents) == 0 {
		logger.Warn("cpu load sample failed", []logger.Field{logger.Err("cause", err)})
		return max
	}
	cpuPct := percents[0]

	vm, err := mem.VirtualMemoryWithContext(sampleCtx)
	if err != nil {
		logger.Warn("memory load sample failed", []logger.Field{logger.Err("cause", err)})
		return max
	}

	switch {
	case cpuPct > 90 || vm.UsedPercent > 95:
		return 1
	case cpuPct > 75 || vm.UsedPercent > 85:
		half := max / 2
		if half < 1 {
			half = 1
		}
		return half
	default:
		return max
	}
}

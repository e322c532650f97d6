package infrastructure

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// SystemMetrics records a snapshot of Go runtime resources at the end of a run
type SystemMetrics struct {
	goRoutines      metric.Int64Gauge
	memoryAllocated metric.Int64Gauge
	memorySystem    metric.Int64Gauge
	gcCount         metric.Int64Gauge
	runUptime       metric.Float64Gauge
}

// SystemStats is one runtime snapshot
type SystemStats struct {
	Goroutines      int
	MemoryAllocated uint64
	MemorySystem    uint64
	GCCount         uint32
	Uptime          time.Duration
}

// NewSystemMetrics creates the runtime gauges
func NewSystemMetrics(meter metric.Meter) (*SystemMetrics, error) {
	goRoutines, err := meter.Int64Gauge(
		"system_goroutines",
		metric.WithDescription("Number of active goroutines"),
	)
	if err != nil {
		return nil, err
	}

	memoryAllocated, err := meter.Int64Gauge(
		"system_memory_allocated",
		metric.WithDescription("Heap bytes allocated by the Go runtime"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	memorySystem, err := meter.Int64Gauge(
		"system_memory_system",
		metric.WithDescription("Bytes obtained from the OS by the Go runtime"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	gcCount, err := meter.Int64Gauge(
		"system_gc_cycles",
		metric.WithDescription("Completed GC cycles"),
	)
	if err != nil {
		return nil, err
	}

	runUptime, err := meter.Float64Gauge(
		"system_run_uptime",
		metric.WithDescription("Seconds since the run started"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &SystemMetrics{
		goRoutines:      goRoutines,
		memoryAllocated: memoryAllocated,
		memorySystem:    memorySystem,
		gcCount:         gcCount,
		runUptime:       runUptime,
	}, nil
}

// Collect reads the runtime statistics and records them on the gauges
func (sm *SystemMetrics) Collect(ctx context.Context, startTime time.Time) *SystemStats {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	stats := &SystemStats{
		Goroutines:      runtime.NumGoroutine(),
		MemoryAllocated: m.Alloc,
		MemorySystem:    m.Sys,
		GCCount:         m.NumGC,
		Uptime:          time.Since(startTime),
	}

	sm.goRoutines.Record(ctx, int64(stats.Goroutines))
	sm.memoryAllocated.Record(ctx, int64(stats.MemoryAllocated))
	sm.memorySystem.Record(ctx, int64(stats.MemorySystem))
	sm.gcCount.Record(ctx, int64(stats.GCCount))
	sm.runUptime.Record(ctx, stats.Uptime.Seconds())

	return stats
}

// LogValue renders the snapshot as a log group
func (stats *SystemStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("goroutines", stats.Goroutines),
		slog.Uint64("memory_allocated_bytes", stats.MemoryAllocated),
		slog.Uint64("memory_system_bytes", stats.MemorySystem),
		slog.Uint64("gc_cycles", uint64(stats.GCCount)),
		slog.Duration("uptime", stats.Uptime),
	)
}

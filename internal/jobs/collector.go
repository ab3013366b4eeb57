package jobs

import (
	"log/slog"
	"runtime"
	"time"

	"velura/internal/metrics"
)

// RuntimeCollectorJob samples process runtime statistics into the metric
// store so alert rules and the dashboard can observe them.
type RuntimeCollectorJob struct {
	store     *metrics.Store
	logger    *slog.Logger
	startedAt time.Time
}

func NewRuntimeCollectorJob(store *metrics.Store, logger *slog.Logger) *RuntimeCollectorJob {
	return &RuntimeCollectorJob{
		store:     store,
		logger:    logger,
		startedAt: time.Now(),
	}
}

// Run records one sample of each runtime metric.
func (j *RuntimeCollectorJob) Run() error {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	j.store.Record("runtime_heap_alloc_bytes", float64(mem.HeapAlloc), nil)
	j.store.Record("runtime_heap_sys_bytes", float64(mem.HeapSys), nil)
	j.store.Record("runtime_goroutines", float64(runtime.NumGoroutine()), nil)
	j.store.Record("runtime_gc_pause_ms", float64(mem.PauseTotalNs)/float64(time.Millisecond), nil)
	j.store.Record("runtime_uptime_seconds", time.Since(j.startedAt).Seconds(), nil)

	j.logger.Debug("Collected runtime metrics",
		slog.Uint64("heap_alloc", mem.HeapAlloc),
		slog.Int("goroutines", runtime.NumGoroutine()))

	return nil
}

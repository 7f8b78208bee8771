// Package debug logs runtime metrics while a long capture run is active.
// Started only when config.Debug is true.
package debug

import (
	"context"
	"log/slog"
	"runtime"
	"runtime/metrics"
	"time"

	"github.com/dustin/go-humanize"
)

// RuntimeSample is one reading of the process runtime counters.
type RuntimeSample struct {
	Goroutines uint64
	HeapAlloc  uint64
	HeapInuse  uint64
	StackInuse uint64
	NumGC      uint32
}

// ReadRuntime samples goroutine count and heap/stack usage.
func ReadRuntime() RuntimeSample {
	samples := []metrics.Sample{{Name: "/sched/goroutines:goroutines"}}
	metrics.Read(samples)
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	s := RuntimeSample{
		HeapAlloc:  ms.HeapAlloc,
		HeapInuse:  ms.HeapInuse,
		StackInuse: ms.StackInuse,
		NumGC:      ms.NumGC,
	}
	if samples[0].Value.Kind() == metrics.KindUint64 {
		s.Goroutines = samples[0].Value.Uint64()
	}
	return s
}

// LogRuntime writes one sample at info level with human-readable sizes.
func LogRuntime(logger *slog.Logger, s RuntimeSample) {
	logger.Info("runtime",
		slog.Uint64("goroutines", s.Goroutines),
		slog.String("heap_alloc", humanize.Bytes(s.HeapAlloc)),
		slog.String("heap_inuse", humanize.Bytes(s.HeapInuse)),
		slog.String("stack_inuse", humanize.Bytes(s.StackInuse)),
		slog.Uint64("num_gc", uint64(s.NumGC)),
	)
}

// StartRuntimeLogger logs a runtime sample every interval until ctx is done.
func StartRuntimeLogger(ctx context.Context, interval time.Duration, logger *slog.Logger) {
	if interval <= 0 {
		interval = time.Second
	}
	if logger == nil {
		return
	}

	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				LogRuntime(logger, ReadRuntime())
			}
		}
	}()
}

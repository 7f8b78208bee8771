package debug

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestReadRuntime(t *testing.T) {
	s := ReadRuntime()
	if s.Goroutines == 0 {
		t.Fatalf("expected at least one goroutine")
	}
	if s.HeapAlloc == 0 {
		t.Fatalf("expected non-zero heap")
	}
}

func TestLogRuntime_HumanSizes(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	LogRuntime(logger, RuntimeSample{Goroutines: 3, HeapAlloc: 2_500_000})

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("decode log: %v", err)
	}
	if rec["msg"] != "runtime" {
		t.Fatalf("unexpected msg %v", rec["msg"])
	}
	if rec["heap_alloc"] != "2.5 MB" {
		t.Fatalf("heap_alloc = %v", rec["heap_alloc"])
	}
	if rec["goroutines"] != float64(3) {
		t.Fatalf("goroutines = %v", rec["goroutines"])
	}
}

func TestStartRuntimeLogger_StopsWithContext(t *testing.T) {
	buf := &syncBuffer{}
	logger := slog.New(slog.NewJSONHandler(buf, nil))
	ctx, cancel := context.WithCancel(context.Background())
	StartRuntimeLogger(ctx, 5*time.Millisecond, logger)

	deadline := time.Now().Add(2 * time.Second)
	for !strings.Contains(buf.String(), `"msg":"runtime"`) {
		if time.Now().After(deadline) {
			cancel()
			t.Fatalf("no runtime sample logged")
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
}

package nj

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// TraceID identifies an in-flight trace returned by Tracer.StartTrace.
type TraceID int

type traceRecord struct {
	task     string
	start    time.Time
	duration time.Duration
}

// Tracer records named phase timings across a pipeline run. It is always
// an explicit object, never a process-wide singleton: callers that want
// tracing construct one with NewTracer and pass it in via WithTracer, and a
// nil *Tracer is a valid no-op.
type Tracer struct {
	mu      sync.Mutex
	traces  []traceRecord
	started bool
}

// NewTracer returns an empty Tracer ready to record.
func NewTracer() *Tracer {
	return &Tracer{}
}

// StartTrace begins timing task and returns an id to pass to FinishTrace.
// Safe to call on a nil Tracer (returns -1, ignored by FinishTrace).
func (t *Tracer) StartTrace(task string) TraceID {
	if t == nil {
		return -1
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.traces = append(t.traces, traceRecord{task: task, start: time.Now()})
	if !t.started {
		t.started = true
	}
	return TraceID(len(t.traces) - 1)
}

// FinishTrace records the duration since the matching StartTrace call. A
// negative id (from a nil Tracer) is silently ignored.
func (t *Tracer) FinishTrace(id TraceID) {
	if t == nil || id < 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if int(id) >= len(t.traces) {
		return
	}
	t.traces[id].duration = time.Since(t.traces[id].start)
}

// Export writes the recorded traces to w as CSV: task, start offset in
// nanoseconds (relative to the first recorded start), duration in
// nanoseconds. An empty or nil Tracer writes nothing at all, not even a
// header.
func (t *Tracer) Export(w io.Writer) error {
	if t == nil {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.traces) == 0 {
		return nil
	}
	if _, err := io.WriteString(w, "task,start_ns,duration_ns\n"); err != nil {
		return err
	}
	first := t.traces[0].start
	for _, tr := range t.traces {
		_, err := fmt.Fprintf(w, "%s,%d,%d\n", tr.task, tr.start.Sub(first).Nanoseconds(), tr.duration.Nanoseconds())
		if err != nil {
			return err
		}
	}
	return nil
}

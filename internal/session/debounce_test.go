package session

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestDebouncerCoalescesBurst(t *testing.T) {
	d := NewDebouncer(30 * time.Millisecond)
	defer d.Stop()

	var runs atomic.Int32
	var last atomic.Int32
	for i := 1; i <= 5; i++ {
		i := int32(i)
		d.Schedule(func() {
			runs.Add(1)
			last.Store(i)
		})
		time.Sleep(5 * time.Millisecond)
	}

	deadline := time.Now().Add(time.Second)
	for runs.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	// A quiet stretch to catch any stale timers firing late.
	time.Sleep(60 * time.Millisecond)

	if got := runs.Load(); got != 1 {
		t.Errorf("burst produced %d runs, want 1", got)
	}
	if got := last.Load(); got != 5 {
		t.Errorf("ran function %d, want the last scheduled (5)", got)
	}
}

func TestDebouncerFlushRunsImmediately(t *testing.T) {
	d := NewDebouncer(time.Hour)
	defer d.Stop()

	ran := false
	d.Schedule(func() { ran = true })
	if !d.Pending() {
		t.Fatal("expected a pending run")
	}

	d.Flush()
	if !ran {
		t.Error("Flush did not run the pending function")
	}
	if d.Pending() {
		t.Error("Flush left a pending run behind")
	}

	// Flushing with nothing pending is a no-op.
	d.Flush()
}

func TestDebouncerStopDropsPending(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)

	var runs atomic.Int32
	d.Schedule(func() { runs.Add(1) })
	d.Stop()

	time.Sleep(60 * time.Millisecond)
	if got := runs.Load(); got != 0 {
		t.Errorf("stopped debouncer still ran %d times", got)
	}
}

func TestDebouncerRescheduleAfterFlush(t *testing.T) {
	d := NewDebouncer(10 * time.Millisecond)
	defer d.Stop()

	var runs atomic.Int32
	d.Schedule(func() { runs.Add(1) })
	d.Flush()

	d.Schedule(func() { runs.Add(1) })
	deadline := time.Now().Add(time.Second)
	for runs.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if got := runs.Load(); got != 2 {
		t.Errorf("got %d runs, want 2", got)
	}
}

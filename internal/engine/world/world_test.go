package world

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Faultbox/ga-engine/internal/engine/frame"
)

// counter submits one draw call per update and tracks peak concurrency.
type counter struct {
	active  *atomic.Int32
	peak    *atomic.Int32
	updates atomic.Int32
	closed  atomic.Int32
	frames  sync.Map
}

func (p *counter) Update(params *frame.Params) {
	n := p.active.Add(1)
	for {
		old := p.peak.Load()
		if n <= old || p.peak.CompareAndSwap(old, n) {
			break
		}
	}
	time.Sleep(time.Millisecond)
	p.frames.Store(params.Frame, true)
	params.StaticDrawCalls.Append(frame.DrawCall{Name: "counter"})
	p.updates.Add(1)
	p.active.Add(-1)
}

func (p *counter) Close() { p.closed.Add(1) }

func populate(w *World, n int) []*counter {
	var active, peak atomic.Int32
	counters := make([]*counter, n)
	for i := range counters {
		counters[i] = &counter{active: &active, peak: &peak}
		w.Spawn("counter").AddComponent(counters[i])
	}
	return counters
}

func TestTickUpdatesEveryEntity(t *testing.T) {
	w := New(4)
	counters := populate(w, 10)

	for i := 0; i < 3; i++ {
		params, err := w.Tick(context.Background(), 16*time.Millisecond)
		if err != nil {
			t.Fatalf("Tick() error = %v", err)
		}
		if params.Frame != uint64(i+1) {
			t.Errorf("frame = %d, want %d", params.Frame, i+1)
		}
		if params.StaticDrawCalls != w.DrawList() {
			t.Error("params should carry the world draw list")
		}
	}

	if got := w.DrawList().Len(); got != 30 {
		t.Errorf("draw list has %d calls, want 30", got)
	}
	for i, p := range counters {
		if p.updates.Load() != 3 {
			t.Errorf("counter %d updated %d times", i, p.updates.Load())
		}
	}
}

func TestTickRespectsWorkerLimit(t *testing.T) {
	w := New(2)
	counters := populate(w, 8)

	if _, err := w.Tick(context.Background(), time.Millisecond); err != nil {
		t.Fatal(err)
	}
	if peak := counters[0].peak.Load(); peak > 2 {
		t.Errorf("peak concurrency = %d, want <= 2", peak)
	}
}

func TestTickCanceled(t *testing.T) {
	w := New(1)
	counters := populate(w, 3)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := w.Tick(ctx, time.Millisecond)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Tick() error = %v, want context.Canceled", err)
	}
	for _, p := range counters {
		if p.updates.Load() != 0 {
			t.Error("canceled tick should not update entities")
		}
	}
}

func TestNewClampsWorkers(t *testing.T) {
	if w := New(0); w.workers != 1 {
		t.Errorf("workers = %d, want 1", w.workers)
	}
}

func TestClose(t *testing.T) {
	w := New(2)
	counters := populate(w, 4)
	if _, err := w.Tick(context.Background(), time.Millisecond); err != nil {
		t.Fatal(err)
	}

	w.Close()
	w.Close()

	for i, p := range counters {
		if p.closed.Load() != 1 {
			t.Errorf("counter %d closed %d times", i, p.closed.Load())
		}
	}
	if len(w.Entities()) != 0 || w.DrawList().Len() != 0 {
		t.Error("world should be empty after Close")
	}
}

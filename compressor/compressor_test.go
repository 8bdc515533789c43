// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package compressor

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/gogpu/imagegraph/internal/clock"
)

// =============================================================================
// SignalCompressor Tests
// =============================================================================

func TestSignalCompressor_Debounces(t *testing.T) {
	c := clock.NewManual()
	var fired int
	s := NewSignalCompressor(100*time.Millisecond, func() { fired++ }, WithClock(c))

	for range 5 {
		s.Start()
		c.Advance(60 * time.Millisecond)
	}
	if fired != 0 {
		t.Fatalf("fired %d times during the burst, want 0", fired)
	}
	if !s.IsActive() {
		t.Fatal("IsActive() = false during the burst")
	}

	c.Advance(40 * time.Millisecond)
	if fired != 1 {
		t.Errorf("fired %d times after quiescence, want 1", fired)
	}
	if s.IsActive() {
		t.Error("IsActive() = true after delivery")
	}

	c.Advance(time.Second)
	if fired != 1 {
		t.Errorf("fired %d times, want no repeat", fired)
	}
}

func TestSignalCompressor_Stop(t *testing.T) {
	c := clock.NewManual()
	var fired int
	s := NewSignalCompressor(10*time.Millisecond, func() { fired++ }, WithClock(c))

	s.Start()
	s.Stop()
	c.Advance(time.Second)

	if fired != 0 {
		t.Errorf("fired %d times after Stop, want 0", fired)
	}
	if s.IsActive() {
		t.Error("IsActive() = true after Stop")
	}
}

func TestSignalCompressor_RestartFromCallback(t *testing.T) {
	c := clock.NewManual()
	var fired int
	var s *SignalCompressor
	s = NewSignalCompressor(10*time.Millisecond, func() {
		fired++
		if fired == 1 {
			s.Start()
		}
	}, WithClock(c))

	s.Start()
	c.Advance(25 * time.Millisecond)

	if fired != 2 {
		t.Errorf("fired %d times, want 2", fired)
	}
}

func TestSignalCompressor_SetDelay(t *testing.T) {
	c := clock.NewManual()
	var fired atomic.Int32
	s := NewSignalCompressor(10*time.Millisecond, func() { fired.Add(1) }, WithClock(c))
	s.SetDelay(50 * time.Millisecond)
	if s.Delay() != 50*time.Millisecond {
		t.Fatalf("Delay() = %v, want 50ms", s.Delay())
	}

	s.Start()
	c.Advance(20 * time.Millisecond)
	if fired.Load() != 0 {
		t.Fatal("fired before the new delay")
	}
	c.Advance(30 * time.Millisecond)
	if fired.Load() != 1 {
		t.Errorf("fired %d times, want 1", fired.Load())
	}
}

// =============================================================================
// UpdateCompressor Tests
// =============================================================================

type eventCounts struct {
	early, uncompressed, compressed, uniform int
}

func newCounted(c *clock.Manual) (*UpdateCompressor, *eventCounts) {
	ev := &eventCounts{}
	u := NewUpdateCompressor(Handlers{
		EarlyWarning:      func() { ev.early++ },
		Uncompressed:      func() { ev.uncompressed++ },
		Compressed:        func() { ev.compressed++ },
		UniformProperties: func() { ev.uniform++ },
	}, WithClock(c))
	return u, ev
}

func TestUpdateCompressor_BurstWithinWindow(t *testing.T) {
	for _, n := range []int{1, 5} {
		c := clock.NewManual()
		u, ev := newCounted(c)

		for range n {
			u.Notify()
			c.Advance(10 * time.Millisecond)
		}
		if ev.compressed != 0 {
			t.Fatalf("n=%d: compressed fired during the burst", n)
		}
		if ev.early != n || ev.uncompressed != n {
			t.Errorf("n=%d: early=%d uncompressed=%d, want %d each", n, ev.early, ev.uncompressed, n)
		}

		c.Advance(DefaultUpdateWindow)
		if ev.compressed != 1 {
			t.Errorf("n=%d: compressed = %d, want 1", n, ev.compressed)
		}
	}
}

func TestUpdateCompressor_PostponedBurst(t *testing.T) {
	tests := []struct {
		n    int
		want int
	}{
		{0, 0},
		{1, 1},
		{5, 1},
	}
	for _, tt := range tests {
		c := clock.NewManual()
		u, ev := newCounted(c)

		u.Postpone()
		for range tt.n {
			u.Notify()
		}
		if ev.early+ev.uncompressed+ev.compressed != 0 {
			t.Fatalf("n=%d: events delivered while postponed: %+v", tt.n, *ev)
		}
		if u.Suppressed() != tt.n {
			t.Errorf("n=%d: Suppressed() = %d", tt.n, u.Suppressed())
		}

		u.Unpostpone()
		if ev.early != tt.want || ev.uncompressed != tt.want || ev.compressed != tt.want {
			t.Errorf("n=%d: events = %+v, want %d of each", tt.n, *ev, tt.want)
		}

		c.Advance(time.Second)
		if ev.compressed != tt.want {
			t.Errorf("n=%d: timer delivered again: compressed = %d", tt.n, ev.compressed)
		}
	}
}

func TestUpdateCompressor_NestedPostpone(t *testing.T) {
	c := clock.NewManual()
	u, ev := newCounted(c)

	u.Postpone()
	u.Postpone()
	u.Notify()
	u.Unpostpone()
	if ev.compressed != 0 || !u.IsPostponed() {
		t.Fatal("inner Unpostpone delivered events")
	}
	u.Unpostpone()
	if ev.early != 1 || ev.uncompressed != 1 || ev.compressed != 1 {
		t.Errorf("events = %+v, want one of each", *ev)
	}
}

func TestUpdateCompressor_TimerFiresWhilePostponed(t *testing.T) {
	c := clock.NewManual()
	u, ev := newCounted(c)

	u.Notify()
	u.Postpone()
	c.Advance(DefaultUpdateWindow)
	if ev.compressed != 0 {
		t.Fatal("compressed fired while postponed")
	}
	if u.Suppressed() != 1 {
		t.Errorf("Suppressed() = %d, want 1", u.Suppressed())
	}

	u.Unpostpone()
	if ev.compressed != 1 {
		t.Errorf("compressed = %d, want 1 after Unpostpone", ev.compressed)
	}
}

func TestUpdateCompressor_UnbalancedUnpostpone(t *testing.T) {
	c := clock.NewManual()
	u, ev := newCounted(c)

	u.Unpostpone()
	if u.IsPostponed() {
		t.Error("unbalanced Unpostpone left the compressor postponed")
	}
	u.Notify()
	if ev.uncompressed != 1 {
		t.Errorf("uncompressed = %d, want 1", ev.uncompressed)
	}
}

func TestUpdateCompressor_UniformProperties(t *testing.T) {
	c := clock.NewManual()
	u, ev := newCounted(c)

	u.Postpone()
	u.NotifyUniformProperties()
	if ev.uniform != 1 {
		t.Errorf("uniform = %d, want 1 even while postponed", ev.uniform)
	}
	if u.Pending() {
		t.Error("uniform notification scheduled a coalesced event")
	}
}

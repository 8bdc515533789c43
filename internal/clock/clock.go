// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package clock abstracts timers so that delayed notifications can be
// driven by real time in production and by a manual clock in tests.
package clock

import (
	"sort"
	"sync"
	"time"
)

// Timer is a cancellable one-shot timer created by Clock.AfterFunc.
type Timer interface {
	// Stop prevents the timer from firing. It returns false if the timer
	// already fired or was stopped.
	Stop() bool
}

// Clock creates timers.
type Clock interface {
	// AfterFunc calls f in its own goroutine (or, for manual clocks, in
	// the goroutine advancing the clock) after d has elapsed.
	AfterFunc(d time.Duration, f func()) Timer
}

// Real returns a Clock backed by the time package.
func Real() Clock {
	return realClock{}
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Manual is a Clock whose time only moves when Advance is called.
// Timer callbacks run synchronously inside Advance, in deadline order.
//
// Manual is safe for concurrent use.
type Manual struct {
	mu      sync.Mutex
	now     time.Duration
	seq     uint64
	pending []*manualTimer
}

// NewManual returns a manual clock at time zero.
func NewManual() *Manual {
	return &Manual{}
}

type manualTimer struct {
	clock    *Manual
	deadline time.Duration
	seq      uint64
	f        func()
	active   bool
}

// AfterFunc schedules f to run when the clock has advanced by d.
func (m *Manual) AfterFunc(d time.Duration, f func()) Timer {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	t := &manualTimer{clock: m, deadline: m.now + d, seq: m.seq, f: f, active: true}
	m.pending = append(m.pending, t)
	return t
}

func (t *manualTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()

	was := t.active
	t.active = false
	return was
}

// Advance moves the clock forward by d, firing every timer whose deadline
// is reached. Timers created by callbacks fire too if they fall within
// the advanced window.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now + d
	m.mu.Unlock()

	for {
		t := m.popDue(target)
		if t == nil {
			break
		}
		t.f()
	}

	m.mu.Lock()
	m.now = target
	m.mu.Unlock()
}

// popDue removes and returns the earliest active timer with a deadline at
// or before target, moving the clock to its deadline.
func (m *Manual) popDue(target time.Duration) *manualTimer {
	m.mu.Lock()
	defer m.mu.Unlock()

	live := m.pending[:0]
	for _, t := range m.pending {
		if t.active {
			live = append(live, t)
		}
	}
	m.pending = live

	sort.SliceStable(m.pending, func(i, j int) bool {
		if m.pending[i].deadline != m.pending[j].deadline {
			return m.pending[i].deadline < m.pending[j].deadline
		}
		return m.pending[i].seq < m.pending[j].seq
	})

	if len(m.pending) == 0 || m.pending[0].deadline > target {
		return nil
	}
	t := m.pending[0]
	m.pending = m.pending[1:]
	t.active = false
	if t.deadline > m.now {
		m.now = t.deadline
	}
	return t
}

// Pending returns the number of timers that have not fired or been stopped.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, t := range m.pending {
		if t.active {
			n++
		}
	}
	return n
}

// Now returns the time elapsed since the clock was created.
func (m *Manual) Now() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

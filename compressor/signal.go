// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package compressor coalesces bursts of notifications into single
// delayed deliveries.
//
// SignalCompressor is a debouncer: every Start restarts the countdown and
// the callback runs once the calls have stopped for the configured delay.
// UpdateCompressor builds on it and adds nested postponement, delivering a
// single coalesced notification when the last postponement is lifted.
package compressor

import (
	"sync"
	"time"

	"github.com/gogpu/imagegraph/internal/clock"
)

// Option configures a compressor.
type Option func(*options)

type options struct {
	clock clock.Clock
}

// WithClock sets the clock driving the timers. The default is the real
// clock.
func WithClock(c clock.Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{clock: clock.Real()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// SignalCompressor calls a function once a burst of Start calls has been
// quiet for the delay.
//
// Thread safety: SignalCompressor is safe for concurrent use. The callback
// runs without any compressor lock held and may call Start again.
type SignalCompressor struct {
	mu    sync.Mutex
	clock clock.Clock
	delay time.Duration
	fn    func()
	timer clock.Timer
	gen   uint64
}

// NewSignalCompressor creates a compressor calling fn after delay of
// quiescence.
func NewSignalCompressor(delay time.Duration, fn func(), opts ...Option) *SignalCompressor {
	o := buildOptions(opts)
	return &SignalCompressor{
		clock: o.clock,
		delay: delay,
		fn:    fn,
	}
}

// Start (re)starts the countdown.
func (s *SignalCompressor) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timer != nil {
		s.timer.Stop()
	}
	s.gen++
	gen := s.gen
	s.timer = s.clock.AfterFunc(s.delay, func() { s.fire(gen) })
}

func (s *SignalCompressor) fire(gen uint64) {
	s.mu.Lock()
	if gen != s.gen || s.timer == nil {
		// Superseded by a later Start or cancelled by Stop.
		s.mu.Unlock()
		return
	}
	s.timer = nil
	s.mu.Unlock()

	s.fn()
}

// Stop cancels a pending delivery.
func (s *SignalCompressor) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.gen++
}

// IsActive reports whether a delivery is pending.
func (s *SignalCompressor) IsActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timer != nil
}

// SetDelay changes the delay used by subsequent Start calls.
func (s *SignalCompressor) SetDelay(d time.Duration) {
	s.mu.Lock()
	s.delay = d
	s.mu.Unlock()
}

// Delay returns the current delay.
func (s *SignalCompressor) Delay() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.delay
}

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package compressor

import (
	"sync"
	"time"
)

// DefaultUpdateWindow is the quiescence window of an UpdateCompressor.
const DefaultUpdateWindow = 100 * time.Millisecond

// Handlers receives the events of an UpdateCompressor. Nil handlers are
// skipped.
type Handlers struct {
	// EarlyWarning runs synchronously before any other reaction to a
	// change, for consumers that must prepare before coalescing.
	EarlyWarning func()

	// Uncompressed runs synchronously for every delivered change.
	Uncompressed func()

	// Compressed runs once per quiescence window.
	Compressed func()

	// UniformProperties runs synchronously on NotifyUniformProperties.
	UniformProperties func()
}

// UpdateCompressor turns high-frequency change notifications into early,
// uncompressed and coalesced events, with nested postponement.
//
// While postponed, notifications are only counted. When the last
// postponement is lifted and at least one notification was suppressed,
// the early-warning, uncompressed and compressed events fire exactly once
// each, synchronously, regardless of how many were suppressed.
//
// Thread safety: UpdateCompressor is safe for concurrent use. Handlers run
// without any compressor lock held.
type UpdateCompressor struct {
	mu         sync.Mutex
	blocked    int
	suppressed int
	handlers   Handlers
	timer      *SignalCompressor
}

// NewUpdateCompressor creates a compressor with the default window.
func NewUpdateCompressor(h Handlers, opts ...Option) *UpdateCompressor {
	return NewUpdateCompressorWindow(DefaultUpdateWindow, h, opts...)
}

// NewUpdateCompressorWindow creates a compressor with the given window.
func NewUpdateCompressorWindow(window time.Duration, h Handlers, opts ...Option) *UpdateCompressor {
	c := &UpdateCompressor{handlers: h}
	c.timer = NewSignalCompressor(window, c.deliver, opts...)
	return c
}

// Notify reports a change.
func (c *UpdateCompressor) Notify() {
	c.mu.Lock()
	if c.blocked > 0 {
		c.suppressed++
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	call(c.handlers.EarlyWarning)
	call(c.handlers.Uncompressed)
	c.timer.Start()
}

// NotifyUniformProperties reports a change of properties that bypass
// compression.
func (c *UpdateCompressor) NotifyUniformProperties() {
	call(c.handlers.UniformProperties)
}

// Postpone suspends delivery. Calls nest.
func (c *UpdateCompressor) Postpone() {
	c.mu.Lock()
	c.blocked++
	c.mu.Unlock()
}

// Unpostpone lifts one level of postponement.
func (c *UpdateCompressor) Unpostpone() {
	c.mu.Lock()
	if c.blocked == 0 {
		c.mu.Unlock()
		slogger().Error("compressor: unpostpone without matching postpone")
		return
	}
	c.blocked--
	if c.blocked > 0 || c.suppressed == 0 {
		c.mu.Unlock()
		return
	}
	c.suppressed = 0
	c.mu.Unlock()

	// The coalesced event below covers any window still pending.
	c.timer.Stop()

	call(c.handlers.EarlyWarning)
	call(c.handlers.Uncompressed)
	call(c.handlers.Compressed)
}

func (c *UpdateCompressor) deliver() {
	c.mu.Lock()
	if c.blocked > 0 {
		c.suppressed++
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	call(c.handlers.Compressed)
}

// IsPostponed reports whether delivery is suspended.
func (c *UpdateCompressor) IsPostponed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.blocked > 0
}

// Suppressed returns the number of notifications counted while postponed.
func (c *UpdateCompressor) Suppressed() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.suppressed
}

// Pending reports whether a coalesced event is scheduled.
func (c *UpdateCompressor) Pending() bool {
	return c.timer.IsActive()
}

func call(fn func()) {
	if fn != nil {
		fn()
	}
}

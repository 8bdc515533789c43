// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package imagegraph

import (
	"context"
	"sync"
	"weak"

	"github.com/gogpu/imagegraph/paint"
)

// Handlers receive image notifications. Nil fields are skipped.
type Handlers struct {
	ImageModified            func()
	ImageModifiedWithoutUndo func()
	SizeChanged              func(oldStill, newStill StillPoint)
	ResolutionChanged        func(xRes, yRes float64)
	ProfileChanged           func(profile string)
	ColorSpaceChanged        func(cs paint.ColorSpace)
	NodeReselectionRequest   func(active *Node, selected []*Node)
	NodeChanged              func(n *Node)
	NodeAdded                func(n *Node)
	NodeRemoved              func(n *Node)
	LayersChanged            func()
	LodPlanesSyncBlocked     func(blocked bool)
	BatchUpdateStarted       func()
	BatchUpdateEnded         func()
}

type subscription struct {
	id uint64
	h  Handlers
}

// SignalRouter fans image notifications out to subscribers.
//
// LayersChanged and NodeReselectionRequest are delivered synchronously,
// in call order, because selection handling must follow structural edits
// exactly. The other ImageSignal kinds are queued and delivered in FIFO
// order when the owning loop calls Drain or runs Run; their producers may
// hold image locks that a synchronous receiver could try to take again.
// Node, modification, LOD and batch notifications are always synchronous.
//
// The router refers to its image weakly and delivers nothing once the
// image is gone. Handlers run without any router lock held.
type SignalRouter struct {
	image     weak.Pointer[Image]
	warnLimit int

	mu     sync.Mutex
	subs   []subscription
	nextID uint64
	queue  []ImageSignal
	wake   chan struct{}
}

func newSignalRouter(img *Image, warnLimit int) *SignalRouter {
	return &SignalRouter{
		image:     weak.Make(img),
		warnLimit: warnLimit,
		wake:      make(chan struct{}, 1),
	}
}

// Subscribe registers h and returns a function removing it.
func (r *SignalRouter) Subscribe(h Handlers) (unsubscribe func()) {
	r.mu.Lock()
	r.nextID++
	id := r.nextID
	r.subs = append(r.subs, subscription{id: id, h: h})
	r.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			for i, s := range r.subs {
				if s.id == id {
					r.subs = append(r.subs[:i:i], r.subs[i+1:]...)
					return
				}
			}
		})
	}
}

func (r *SignalRouter) handlers() []Handlers {
	r.mu.Lock()
	defer r.mu.Unlock()
	hs := make([]Handlers, len(r.subs))
	for i, s := range r.subs {
		hs[i] = s.h
	}
	return hs
}

func (r *SignalRouter) each(fn func(h *Handlers)) {
	for _, h := range r.handlers() {
		fn(&h)
	}
}

// Notify routes sig: synchronously for LayersChanged and
// NodeReselectionRequest, through the queue otherwise.
func (r *SignalRouter) Notify(sig ImageSignal) {
	if sig.ID == LayersChanged || sig.ID == NodeReselectionRequest {
		r.deliver(sig)
		return
	}

	r.mu.Lock()
	r.queue = append(r.queue, sig)
	n := len(r.queue)
	r.mu.Unlock()

	if n == r.warnLimit+1 {
		Logger().Warn("imagegraph: signal queue is not drained", "pending", n, "signal", sig.ID)
	}
	select {
	case r.wake <- struct{}{}:
	default:
	}
}

// NotifyAll routes every signal in order.
func (r *SignalRouter) NotifyAll(sigs []ImageSignal) {
	for _, sig := range sigs {
		r.Notify(sig)
	}
}

func (r *SignalRouter) deliver(sig ImageSignal) {
	img := r.image.Value()
	if img == nil {
		return
	}

	switch sig.ID {
	case LayersChanged:
		img.InvalidateAllFrames()
		r.each(func(h *Handlers) { call0(h.LayersChanged) })
	case ModifiedWithoutUndo:
		r.each(func(h *Handlers) { call0(h.ImageModifiedWithoutUndo) })
	case SizeChanged:
		img.InvalidateAllFrames()
		r.each(func(h *Handlers) {
			if h.SizeChanged != nil {
				h.SizeChanged(sig.Size.OldStillPoint, sig.Size.NewStillPoint)
			}
		})
	case ProfileChanged:
		img.InvalidateAllFrames()
		profile := img.Profile()
		r.each(func(h *Handlers) {
			if h.ProfileChanged != nil {
				h.ProfileChanged(profile)
			}
		})
	case ColorSpaceChanged:
		img.InvalidateAllFrames()
		cs := img.ColorSpace()
		r.each(func(h *Handlers) {
			if h.ColorSpaceChanged != nil {
				h.ColorSpaceChanged(cs)
			}
		})
	case ResolutionChanged:
		img.InvalidateAllFrames()
		x, y := img.Resolution()
		r.each(func(h *Handlers) {
			if h.ResolutionChanged != nil {
				h.ResolutionChanged(x, y)
			}
		})
	case NodeReselectionRequest:
		rs := sig.Reselection
		if rs.ActiveNode == nil && len(rs.SelectedNodes) == 0 {
			return
		}
		r.each(func(h *Handlers) {
			if h.NodeReselectionRequest != nil {
				h.NodeReselectionRequest(rs.ActiveNode, rs.SelectedNodes)
			}
		})
	default:
		Logger().Warn("imagegraph: unknown signal", "signal", sig.ID)
	}
}

// Drain delivers the queued signals, including those queued by handlers
// while draining, and returns how many were delivered. Call it from the
// loop owning the image.
func (r *SignalRouter) Drain() int {
	n := 0
	for {
		r.mu.Lock()
		batch := r.queue
		r.queue = nil
		r.mu.Unlock()

		if len(batch) == 0 {
			return n
		}
		for _, sig := range batch {
			r.deliver(sig)
		}
		n += len(batch)
	}
}

// Run drains the queue whenever signals arrive until ctx is done.
func (r *SignalRouter) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-r.wake:
			r.Drain()
		}
	}
}

// Pending returns the number of queued signals.
func (r *SignalRouter) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.queue)
}

// NotifyImageModified reports a change recorded in the undo history.
func (r *SignalRouter) NotifyImageModified() {
	if r.image.Value() == nil {
		return
	}
	r.each(func(h *Handlers) { call0(h.ImageModified) })
}

// NotifyNodeChanged reports changed node attributes.
func (r *SignalRouter) NotifyNodeChanged(n *Node) {
	if r.image.Value() == nil {
		return
	}
	r.each(func(h *Handlers) { callNode(h.NodeChanged, n) })
}

// NotifyNodeAdded reports a node attached to the graph. Rendered frames
// are dropped unless the node is a selection mask.
func (r *SignalRouter) NotifyNodeAdded(n *Node) {
	img := r.image.Value()
	if img == nil {
		return
	}
	if n.Kind() != KindSelectionMask {
		img.InvalidateAllFrames()
	}
	r.each(func(h *Handlers) { callNode(h.NodeAdded, n) })
}

// NotifyNodeRemoved reports a node about to be detached from the graph.
// Rendered frames are dropped unless the node is a selection mask.
func (r *SignalRouter) NotifyNodeRemoved(n *Node) {
	img := r.image.Value()
	if img == nil {
		return
	}
	if n.Kind() != KindSelectionMask {
		img.InvalidateAllFrames()
	}
	r.each(func(h *Handlers) { callNode(h.NodeRemoved, n) })
}

// NotifyLodPlanesSyncBlocked reports whether LOD planes may be synced.
func (r *SignalRouter) NotifyLodPlanesSyncBlocked(blocked bool) {
	if r.image.Value() == nil {
		return
	}
	r.each(func(h *Handlers) {
		if h.LodPlanesSyncBlocked != nil {
			h.LodPlanesSyncBlocked(blocked)
		}
	})
}

// NotifyBatchUpdateStarted reports the start of a batch of edits.
func (r *SignalRouter) NotifyBatchUpdateStarted() {
	if r.image.Value() == nil {
		return
	}
	r.each(func(h *Handlers) { call0(h.BatchUpdateStarted) })
}

// NotifyBatchUpdateEnded reports the end of a batch of edits.
func (r *SignalRouter) NotifyBatchUpdateEnded() {
	if r.image.Value() == nil {
		return
	}
	r.each(func(h *Handlers) { call0(h.BatchUpdateEnded) })
}

func call0(fn func()) {
	if fn != nil {
		fn()
	}
}

func callNode(fn func(*Node), n *Node) {
	if fn != nil {
		fn(n)
	}
}

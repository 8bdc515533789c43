// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package imagegraph

import (
	"fmt"
	"image"
	"sync"
	"sync/atomic"
	"weak"

	"golang.org/x/text/unicode/norm"

	"github.com/gogpu/imagegraph/compressor"
	"github.com/gogpu/imagegraph/internal/framecache"
	"github.com/gogpu/imagegraph/internal/parallel"
	"github.com/gogpu/imagegraph/paint"
	"github.com/gogpu/imagegraph/region"
)

// Image owns a node graph and the machinery that keeps its projections up
// to date: a job scheduler, a compositing worker pool, the signal router
// and a cache of rendered frames.
//
// Thread safety: Image is safe for concurrent use. Projection updates run
// on the scheduler; call WaitForDone to wait for them.
type Image struct {
	opts imageOptions

	mu         sync.RWMutex
	bounds     image.Rectangle
	colorSpace paint.ColorSpace
	profile    string
	xRes, yRes float64
	lod        int

	root          *Layer
	defaultBounds imageBounds

	scheduler *parallel.Scheduler
	pool      *parallel.WorkerPool
	dirty     atomic.Pointer[parallel.DirtyRegion]
	frames    *framecache.Cache[*image.RGBA]
	router    *SignalRouter
	modified  *compressor.UpdateCompressor

	// updateMu serializes projection update passes.
	updateMu sync.Mutex

	lockMu      sync.Mutex
	lockDepth   atomic.Int32
	lockRelease func()

	lodSyncBlocked atomic.Bool
	closed         atomic.Bool
}

// NewImage creates an empty image of the given size with a root group.
func NewImage(width, height int, opts ...ImageOption) (*Image, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("new image %dx%d: %w", width, height, ErrInvalidSize)
	}
	o := defaultImageOptions()
	for _, opt := range opts {
		opt(&o)
	}

	img := &Image{
		opts:       o,
		bounds:     image.Rect(0, 0, width, height),
		colorSpace: o.colorSpace,
		xRes:       o.xRes,
		yRes:       o.yRes,
		scheduler:  parallel.NewScheduler(o.workers),
		pool:       parallel.NewWorkerPool(o.workers),
		frames:     framecache.New[*image.RGBA](o.frameCacheCapacity),
	}
	img.defaultBounds = imageBounds{image: weak.Make(img)}
	img.dirty.Store(parallel.NewDirtyRegion(img.bounds))
	img.router = newSignalRouter(img, o.signalQueueWarnLimit)
	img.modified = compressor.NewUpdateCompressor(compressor.Handlers{
		Compressed: img.router.NotifyImageModified,
	}, compressor.WithClock(o.clock))
	img.root = NewGroupLayer(img, "root")

	Logger().Debug("imagegraph: image created",
		"width", width, "height", height, "workers", img.scheduler.Capacity())
	return img, nil
}

// Root returns the root group layer.
func (img *Image) Root() *Layer { return img.root }

// Router returns the signal router.
func (img *Image) Router() *SignalRouter { return img.router }

// Subscribe registers handlers on the router.
func (img *Image) Subscribe(h Handlers) (unsubscribe func()) {
	return img.router.Subscribe(h)
}

// Bounds returns the image rect.
func (img *Image) Bounds() image.Rectangle {
	img.mu.RLock()
	defer img.mu.RUnlock()
	return img.bounds
}

// Resize changes the image size, keeping the center in place on screen.
// Layer content is kept; pixels outside the new bounds are not shown.
func (img *Image) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("resize to %dx%d: %w", width, height, ErrInvalidSize)
	}
	img.mu.Lock()
	old := img.bounds
	img.bounds = image.Rect(0, 0, width, height)
	img.mu.Unlock()

	d := parallel.NewDirtyRegion(image.Rect(0, 0, width, height))
	d.MarkAll()
	img.dirty.Store(d)

	img.router.Notify(SizeChangedSignal(center(old), center(image.Rect(0, 0, width, height))))
	img.RequestProjectionUpdate(img.root, region.Union(old, img.Bounds()))
	return nil
}

func center(r image.Rectangle) StillPoint {
	return StillPoint{X: float64(r.Min.X+r.Max.X) / 2, Y: float64(r.Min.Y+r.Max.Y) / 2}
}

// ColorSpace returns the image color space.
func (img *Image) ColorSpace() paint.ColorSpace {
	img.mu.RLock()
	defer img.mu.RUnlock()
	return img.colorSpace
}

// SetColorSpace records a converted color space. Pixel conversion is the
// caller's business.
func (img *Image) SetColorSpace(cs paint.ColorSpace) {
	img.mu.Lock()
	img.colorSpace = cs
	img.mu.Unlock()
	img.router.Notify(Signal(ColorSpaceChanged))
}

// Profile returns the name of the color profile.
func (img *Image) Profile() string {
	img.mu.RLock()
	defer img.mu.RUnlock()
	return img.profile
}

// SetProfile assigns a color profile.
func (img *Image) SetProfile(profile string) {
	img.mu.Lock()
	img.profile = profile
	img.mu.Unlock()
	img.router.Notify(Signal(ProfileChanged))
}

// Resolution returns the resolution in pixels per inch.
func (img *Image) Resolution() (xRes, yRes float64) {
	img.mu.RLock()
	defer img.mu.RUnlock()
	return img.xRes, img.yRes
}

// SetResolution changes the resolution. Non-positive values are ignored.
func (img *Image) SetResolution(xRes, yRes float64) {
	if xRes <= 0 || yRes <= 0 {
		return
	}
	img.mu.Lock()
	img.xRes, img.yRes = xRes, yRes
	img.mu.Unlock()
	img.router.Notify(Signal(ResolutionChanged))
}

// LevelOfDetail returns the current preview level, 0 being full size.
func (img *Image) LevelOfDetail() int {
	img.mu.RLock()
	defer img.mu.RUnlock()
	return img.lod
}

// SetLevelOfDetail switches the preview level and syncs the level-of-detail
// state of every transform mask unless syncing is blocked.
func (img *Image) SetLevelOfDetail(lod int) {
	lod = max(0, min(lod, maxLod))
	img.mu.Lock()
	img.lod = lod
	img.mu.Unlock()

	if !img.lodSyncBlocked.Load() {
		img.SyncLodCache()
	}
}

// SyncLodCache syncs the level-of-detail state of every transform mask.
func (img *Image) SyncLodCache() {
	Walk(img.root, transformMaskVisitor{fn: func(m *TransformMask) bool {
		m.SyncLodCache()
		return true
	}})
}

// SetLodSyncBlocked blocks or unblocks level-of-detail syncing.
func (img *Image) SetLodSyncBlocked(blocked bool) {
	img.lodSyncBlocked.Store(blocked)
	img.router.NotifyLodPlanesSyncBlocked(blocked)
}

// Lock waits for running jobs and keeps new ones from starting until the
// matching Unlock. Locks nest. Do not call Lock from a job.
func (img *Image) Lock() {
	img.lockMu.Lock()
	defer img.lockMu.Unlock()
	if img.lockDepth.Load() == 0 {
		img.lockRelease = img.scheduler.Barrier()
	}
	img.lockDepth.Add(1)
}

// Unlock releases a Lock.
func (img *Image) Unlock() {
	img.lockMu.Lock()
	defer img.lockMu.Unlock()
	if !safeAssert(img.lockDepth.Load() > 0, "unbalanced image unlock") {
		return
	}
	if img.lockDepth.Add(-1) == 0 {
		img.lockRelease()
		img.lockRelease = nil
	}
}

// Locked reports whether the image is locked.
func (img *Image) Locked() bool {
	return img.lockDepth.Load() > 0
}

func (img *Image) submit(job parallel.Job) error {
	if img.closed.Load() {
		return ErrImageClosed
	}
	return img.scheduler.Submit(job)
}

// WaitForDone blocks until every scheduled job has finished. It must not
// be called while the image is locked.
func (img *Image) WaitForDone() {
	img.scheduler.WaitForDone()
}

// Close stops delayed updates, waits for the scheduled jobs and releases
// the workers.
func (img *Image) Close() error {
	if img.closed.Swap(true) {
		return ErrImageClosed
	}
	// Running update jobs may re-arm delayed regenerations, so the timers
	// are stopped after the scheduler drained.
	img.scheduler.Close()
	Walk(img.root, transformMaskVisitor{fn: func(m *TransformMask) bool {
		m.delayed.Stop()
		return true
	}})
	img.pool.Close()
	return nil
}

// InvalidateAllFrames drops every rendered frame.
func (img *Image) InvalidateAllFrames() {
	img.frames.InvalidateAll()
}

// Frame returns the image rendered for frame time t. The rendering
// bypasses projections and static caches and is kept until the frames are
// invalidated.
func (img *Image) Frame(t int) *image.RGBA {
	return img.frames.GetOrRender(t, func() *image.RGBA {
		bounds := img.Bounds()
		return img.renderLayer(img.root, bounds).ReadRGBA(bounds)
	})
}

// renderLayer renders l from scratch.
func (img *Image) renderLayer(l *Layer, rect image.Rectangle) *paint.Device {
	src := l.original
	if l.group {
		cs, bounds := deviceDefaults(img)
		src = paint.NewDevice(cs, bounds)
		for _, c := range l.Children() {
			if cl := c.Layer(); cl != nil && cl.Visible() {
				src.CompositeOver(img.renderLayer(cl, rect), rect, cl.Opacity())
			}
		}
	}
	masks := l.effectMasks(nil)
	if len(masks) == 0 {
		return src
	}
	out := paint.NewDevice(src.ColorSpace(), src.DefaultBounds())
	l.applyMasks(src, out, rect, nil, masks, ExternalFrame)
	return out
}

// Projection returns the composited image.
func (img *Image) Projection() *image.RGBA {
	return img.root.Projection().ReadRGBA(img.Bounds())
}

// ProjectionTextureData packs rect of the composited image for a texture
// write in the format of the root projection.
func (img *Image) ProjectionTextureData(rect image.Rectangle) paint.TextureData {
	return img.root.Projection().TextureData(rect.Intersect(img.Bounds()))
}

// NotifyLayersChanged reports a structural change of the layer stack.
func (img *Image) NotifyLayersChanged() {
	img.router.Notify(Signal(LayersChanged))
}

// NotifyModified records an undoable modification. Bursts are coalesced
// into one ImageModified notification; inside a batch update the
// notification is held back until the batch ends.
func (img *Image) NotifyModified() {
	img.modified.Notify()
}

// NotifyModifiedWithoutUndo reports a change that bypassed the undo
// history.
func (img *Image) NotifyModifiedWithoutUndo() {
	img.router.Notify(Signal(ModifiedWithoutUndo))
}

// RequestNodeReselection asks the UI to select other nodes. A request
// with neither an active nor a selected node is dropped.
func (img *Image) RequestNodeReselection(active *Node, selected []*Node) {
	img.router.Notify(ReselectionSignal(active, selected))
}

// BeginBatchUpdate starts a batch of edits. Batches nest.
func (img *Image) BeginBatchUpdate() {
	img.router.NotifyBatchUpdateStarted()
	img.modified.Postpone()
}

// EndBatchUpdate ends a batch started by BeginBatchUpdate.
func (img *Image) EndBatchUpdate() {
	img.modified.Unpostpone()
	img.router.NotifyBatchUpdateEnded()
}

// FindNode returns the first node named name in depth-first order, or
// nil. Names are compared in NFC form.
func (img *Image) FindNode(name string) *Node {
	f := &nameFinder{name: norm.NFC.String(name)}
	Walk(img.root, f)
	return f.found
}

// ForceAllDelayedNodesUpdate regenerates every transform mask that has a
// pending or stale static cache.
func (img *Image) ForceAllDelayedNodesUpdate() {
	Walk(img.root, transformMaskVisitor{fn: func(m *TransformMask) bool {
		m.ForceUpdateTimedNode()
		return true
	}})
}

// HasDelayedNodeWithUpdates reports whether any transform mask waits for a
// delayed regeneration.
func (img *Image) HasDelayedNodeWithUpdates() bool {
	pending := false
	Walk(img.root, transformMaskVisitor{fn: func(m *TransformMask) bool {
		pending = m.HasPendingTimedUpdates()
		return !pending
	}})
	return pending
}

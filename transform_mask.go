// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package imagegraph

import (
	"image"
	"sync"
	"sync/atomic"

	"github.com/gogpu/imagegraph/compressor"
	"github.com/gogpu/imagegraph/internal/clock"
	"github.com/gogpu/imagegraph/paint"
	"github.com/gogpu/imagegraph/region"
	"github.com/gogpu/imagegraph/transform"
	"github.com/gogpu/imagegraph/undo"
)

// Stand-in bounds for a mask that lost its parent between scheduling and
// rect computation.
var (
	orphanBounds   = image.Rect(0, 0, 777, 777)
	orphanInterest = image.Rect(0, 0, 888, 888)
)

// TransformMaskHooks observe the internal steps of a TransformMask. Nil
// fields are skipped. Hooks run on the goroutine performing the step.
type TransformMaskHooks struct {
	DelayedStaticUpdate                    func()
	RecalculateStaticImage                 func()
	DecorateRectTriggeredStaticImageUpdate func()
	ForceUpdateTimedNode                   func()
	ThreadSafeForceStaticImageUpdate       func()
}

// TransformMask transforms the pixels of its layer.
//
// Rendering a transform over a large layer is expensive, so the mask keeps
// the transformed layer in a static cache. While the cache is stale, affine
// transforms are rendered partially for the rects being updated; once the
// params have not changed for the static update delay, an exclusive
// regeneration job re-renders the whole layer into the cache and later
// updates copy from it.
type TransformMask struct {
	*Node

	holder     *paramsHolder
	cache      StaticCacheStorage
	extraRects AccumulatedRectStorage
	delayed    *compressor.SignalCompressor
	offset     *LodOffset

	offBoundsReadArea float64

	recalculating atomic.Bool
	recalcMu      sync.Mutex
	recalcParams  TransformParams

	hooks atomic.Pointer[TransformMaskHooks]
}

// NewTransformMask creates a detached transform mask with identity params.
func NewTransformMask(img *Image, name string) *TransformMask {
	m := &TransformMask{Node: newNode(img, name)}
	m.behavior = m

	var bounds paint.DefaultBounds = paint.FixedBounds{}
	delay := DefaultStaticUpdateDelay
	clk := clock.Real()
	m.offBoundsReadArea = DefaultOffBoundsReadArea
	if img != nil {
		bounds = img.defaultBounds
		delay = img.opts.staticUpdateDelay
		clk = img.opts.clock
		m.offBoundsReadArea = img.opts.offBoundsReadArea
	}

	m.holder = newParamsHolder(bounds, IdentityParams())
	m.offset = NewLodOffset(bounds)
	m.delayed = compressor.NewSignalCompressor(delay, m.delayedStaticUpdate, compressor.WithClock(clk))
	return m
}

// Kind returns KindTransformMask.
func (m *TransformMask) Kind() NodeKind { return KindTransformMask }

// Accept calls v.VisitTransformMask.
func (m *TransformMask) Accept(v Visitor) bool { return v.VisitTransformMask(m) }

// SetTestingHooks installs h. Pass nil to remove the hooks.
func (m *TransformMask) SetTestingHooks(h *TransformMaskHooks) {
	m.hooks.Store(h)
}

func (m *TransformMask) hook(pick func(h *TransformMaskHooks) func()) {
	if h := m.hooks.Load(); h != nil {
		if fn := pick(h); fn != nil {
			fn()
		}
	}
}

// TransformParams returns the params for the current level of detail.
func (m *TransformMask) TransformParams() TransformParams {
	return m.holder.bake()
}

// SetTransformParamsWithUndo adds the change to params to parent. Nothing
// changes until parent is redone.
func (m *TransformMask) SetTransformParamsWithUndo(params TransformParams, parent *undo.Group) error {
	if params == nil {
		return ErrNilParams
	}
	if parent == nil {
		return m.SetTransformParams(params)
	}
	parent.Add(m.paramsCommand(params.Clone()))
	return nil
}

// SetTransformParams replaces the params outside of any undo history.
func (m *TransformMask) SetTransformParams(params TransformParams) error {
	if params == nil {
		return ErrNilParams
	}
	m.paramsCommand(params.Clone()).Redo()
	return nil
}

func (m *TransformMask) paramsCommand(params TransformParams) undo.Command {
	old := m.holder.bake()
	return undo.Func{
		RedoFunc: func() { m.applyParams(params) },
		UndoFunc: func() { m.applyParams(old) },
	}
}

// applyParams switches to p, refreshes the layer with a partial transform
// and schedules a delayed regeneration. The area the mask covered so far
// is refreshed by that regeneration as well.
func (m *TransformMask) applyParams(p TransformParams) {
	old := m.footprint()
	m.extraRects.AddRect(m.ExactBounds())
	m.holder.setAtCurrentLod(p)
	m.cache.InvalidateDeviceCache()
	m.delayed.Start()
	m.notifyChanged()

	if img := m.Image(); img != nil {
		img.RequestProjectionUpdate(m, region.Union(old, m.footprint()))
	}
}

// StaticImageCacheIsValid reports whether the static cache matches the
// current params.
func (m *TransformMask) StaticImageCacheIsValid() bool {
	return m.cache.IsCacheValid(m.holder.bake())
}

// OverrideStaticCacheDevice installs a copy of dev as the static cache,
// e.g. a live preview of an interactive tool. A nil dev drops the override.
func (m *TransformMask) OverrideStaticCacheDevice(dev *paint.Device) {
	m.cache.OverrideStaticCacheDevice(dev)
}

// StaticCache returns the static cache storage of the mask.
func (m *TransformMask) StaticCache() *StaticCacheStorage {
	return &m.cache
}

func (m *TransformMask) delayedStaticUpdate() {
	m.hook(func(h *TransformMaskHooks) func() { return h.DelayedStaticUpdate })
	m.startAsyncRegenerationJob()
}

func (m *TransformMask) forceStartAsyncRegenerationJob() {
	m.cache.InvalidateDeviceCache()
	m.delayed.Stop()
	m.startAsyncRegenerationJob()
}

func (m *TransformMask) startAsyncRegenerationJob() {
	// The mask may have been removed from its layer in the meantime.
	if m.ParentLayer() == nil {
		return
	}
	img := m.Image()
	if img == nil {
		return
	}
	// Retry later while the image is locked, e.g. during loading.
	if img.Locked() {
		m.delayed.Start()
		return
	}

	if err := img.submit(&regenerationJob{mask: m}); err != nil {
		Logger().Debug("imagegraph: regeneration not scheduled", "mask", m.Name(), "err", err)
	}
}

// limits returns the rect transforms are clamped to and the rect holding
// the source data.
func (m *TransformMask) limits(op string) (limit, interest image.Rectangle) {
	bounds := orphanBounds
	interest = orphanInterest
	if l := m.ParentLayer(); l != nil {
		bounds = l.Original().DefaultBounds().Bounds()
		interest = l.Original().Extent()
	} else {
		Logger().Warn("imagegraph: transform mask has no parent, cannot run safe transformations",
			"op", op, "mask", m.Name(), "bounds", bounds)
	}
	return region.Blow(bounds, m.offBoundsReadArea), interest
}

// ChangeRect maps rect forward through the transform. Affine transforms
// are clamped to the parent bounds blown by the off-bounds read area.
func (m *TransformMask) ChangeRect(rect image.Rectangle, _ Position) image.Rectangle {
	if rect.Empty() {
		return rect
	}
	params := m.holder.bake()
	limit, interest := m.limits("change rect")
	if params.IsAffine() {
		return transform.NewSafeTransform(params.FinalAffine(), limit, interest).MapRectForward(rect)
	}
	return params.NonAffineChangeRect(rect, limit)
}

// NeedRect maps rect backward through the transform. Affine results grow
// by one pixel for the bilinear sampling support.
func (m *TransformMask) NeedRect(rect image.Rectangle, _ Position) image.Rectangle {
	if rect.Empty() {
		return rect
	}
	params := m.holder.bake()
	limit, interest := m.limits("need rect")
	if params.IsAffine() {
		st := transform.NewSafeTransform(params.FinalAffine(), limit, interest)
		return region.Grow(st.MapRectBackward(rect), 1)
	}
	return params.NonAffineNeedRect(rect, interest)
}

func (m *TransformMask) currentRecalcParams() TransformParams {
	m.recalcMu.Lock()
	defer m.recalcMu.Unlock()
	return m.recalcParams
}

// DecorateRect writes rc of the transformed src into dst.
//
// During regeneration the whole src is transformed into the static cache.
// Otherwise a valid cache is copied from, and a stale one is bypassed by a
// partial transform of rc (affine params only) while a delayed
// regeneration is scheduled.
func (m *TransformMask) DecorateRect(src, dst *paint.Device, rc image.Rectangle, pos Position, flags RenderFlags) image.Rectangle {
	safeAssert(src != dst, "transform mask decorating in place", "mask", m.Name())

	recalculating := m.recalculating.Load()
	params := m.holder.bake()
	if recalculating {
		params = m.currentRecalcParams()
	}
	if params.IsHidden() {
		return rc
	}

	// Rendered frames neither use nor reset the static cache.
	if flags&ExternalFrame != 0 {
		if params.IsAffine() {
			paint.TransformAffine(dst, src, params.FinalAffine(), rc)
		}
		return rc
	}

	if !m.cache.IsCacheOverridden() && !recalculating &&
		(pos == NFilthy || pos == NAboveFilthy || !m.cache.IsCacheValid(params)) &&
		flags&NoTransformMaskUpdates == 0 {

		m.hook(func(h *TransformMaskHooks) func() { return h.DecorateRectTriggeredStaticImageUpdate })
		m.cache.InvalidateDeviceCache()
		m.delayed.Start()
	}

	switch {
	case recalculating:
		safeAssert(!m.cache.IsCacheValid(params), "regenerating a valid static cache", "mask", m.Name())
		cache := m.cache.Device()
		if !safeAssert(cache != nil, "static cache not allocated", "mask", m.Name()) {
			return rc
		}
		limit, _ := m.limits("decorate")
		cache.ClearAll()
		params.TransformDevice(src, cache, limit)
		cache.CopyArea(dst, cache.Extent())
		m.cache.SetDeviceCacheValid(params)

	case params.IsAffine() && !m.cache.IsCacheValid(params):
		paint.TransformAffine(dst, src, params.FinalAffine(), rc)

	case m.cache.IsCacheValid(params):
		m.cache.Device().CopyArea(dst, rc)
	}
	return rc
}

// RecalculateStaticImage re-renders the whole parent layer through the
// masks into the parent projection, filling the static cache on the way.
// It must run inside an exclusive job, because it rewrites the parent
// projection that ordinary update jobs read.
func (m *TransformMask) RecalculateStaticImage() {
	m.hook(func(h *TransformMaskHooks) func() { return h.RecalculateStaticImage })

	l := m.ParentLayer()
	if !safeAssert(l != nil, "recalculating the static image of an orphaned transform mask", "mask", m.Name()) {
		return
	}
	// The projection is disabled only when no effect mask is visible,
	// which contradicts this mask being rendered.
	if !safeAssert(l.Projection() != l.Original(), "parent projection disabled during recalculation", "mask", m.Name()) {
		return
	}

	m.cache.LazyAllocateStaticCache(l.Original().ColorSpace(), l.Original().DefaultBounds())

	m.recalcMu.Lock()
	m.recalcParams = m.holder.bake()
	m.recalcMu.Unlock()
	m.recalculating.Store(true)
	defer m.recalculating.Store(false)

	limit := region.Blow(l.Original().DefaultBounds().Bounds(), m.offBoundsReadArea)
	requested := region.Intersect(l.ChangeRect(l.ExactBounds(), NFilthy), limit)

	// The new params may write elsewhere than the old ones.
	l.Projection().ClearAll()
	l.UpdateProjection(requested, m.Node, NoTransformMaskUpdates)
}

// BuildPreviewDevice renders the parent layer up to, but excluding, this
// mask. It must run inside an exclusive job.
func (m *TransformMask) BuildPreviewDevice() *paint.Device {
	l := m.ParentLayer()
	if !safeAssert(l != nil, "building a preview of an orphaned transform mask", "mask", m.Name()) {
		cs, _ := deviceDefaults(m.Image())
		return paint.NewDevice(cs, nil)
	}
	orig := l.Original()
	dev := paint.NewDevice(orig.ColorSpace(), orig.DefaultBounds())
	l.BuildProjectionUpToNode(dev, m, orig.ExactBounds())
	return dev
}

// BuildSourcePreviewDevice renders the parent layer up to the mask below
// this one. It must run inside an exclusive job.
func (m *TransformMask) BuildSourcePreviewDevice() *paint.Device {
	l := m.ParentLayer()
	if !safeAssert(l != nil, "building a preview of an orphaned transform mask", "mask", m.Name()) {
		cs, _ := deviceDefaults(m.Image())
		return paint.NewDevice(cs, nil)
	}
	orig := l.Original()
	dev := paint.NewDevice(orig.ColorSpace(), orig.DefaultBounds())
	rect := orig.ExactBounds()
	if prev := m.PrevSibling(); prev != nil {
		l.BuildProjectionUpToNode(dev, prev, rect)
	} else {
		l.CopyOriginalToProjection(orig, dev, l.OutgoingChangeRect(rect))
	}
	return dev
}

// Extent returns the tile-aligned bounds of what the mask may show.
func (m *TransformMask) Extent() image.Rectangle {
	l := m.ParentLayer()
	if l == nil {
		return image.Rectangle{}
	}
	partial := l.PartialChangeRect(m, l.Original().Extent())
	return region.Union(m.ChangeRect(partial, NFilthy), l.Projection().Extent())
}

// ExactBounds returns the bounds of what the mask shows or showed.
func (m *TransformMask) ExactBounds() image.Rectangle {
	var existing image.Rectangle
	if l := m.ParentLayer(); l != nil {
		existing = l.Projection().ExactBounds()
	}
	return region.Union(m.ChangeRect(m.SourceDataBounds(), NFilthy), existing)
}

// SourceDataBounds returns the bounds of the pixels the mask receives.
func (m *TransformMask) SourceDataBounds() image.Rectangle {
	l := m.ParentLayer()
	if l == nil {
		return image.Rectangle{}
	}
	return l.PartialChangeRect(m, l.Original().ExactBounds())
}

// X returns the mask offset at the current level of detail.
func (m *TransformMask) X() int { return m.offset.X() }

// Y returns the mask offset at the current level of detail.
func (m *TransformMask) Y() int { return m.offset.Y() }

// SetX moves the mask horizontally, translating its params along.
func (m *TransformMask) SetX(x int) {
	m.applyParams(m.holder.bake().TranslateSrcAndDst(float64(x-m.X()), 0))
	m.offset.SetX(x)
}

// SetY moves the mask vertically, translating its params along.
func (m *TransformMask) SetY(y int) {
	m.applyParams(m.holder.bake().TranslateSrcAndDst(0, float64(y-m.Y())))
	m.offset.SetY(y)
}

// ForceUpdateTimedNode regenerates the static cache now if an update is
// pending or the cache is stale, e.g. before flattening the layer.
func (m *TransformMask) ForceUpdateTimedNode() {
	m.hook(func(h *TransformMaskHooks) func() { return h.ForceUpdateTimedNode })
	if m.HasPendingTimedUpdates() || !m.StaticImageCacheIsValid() {
		m.forceStartAsyncRegenerationJob()
	}
}

// HasPendingTimedUpdates reports whether a delayed regeneration is armed.
func (m *TransformMask) HasPendingTimedUpdates() bool {
	return m.delayed.IsActive()
}

// ThreadSafeForceStaticImageUpdate regenerates the static cache now and
// refreshes extra along with the layer. It may be called from any
// goroutine.
func (m *TransformMask) ThreadSafeForceStaticImageUpdate(extra image.Rectangle) {
	m.hook(func(h *TransformMaskHooks) func() { return h.ThreadSafeForceStaticImageUpdate })
	m.extraRects.AddRect(extra)
	m.forceStartAsyncRegenerationJob()
}

// SyncLodCache derives the level-of-detail offset and params from the full
// resolution ones.
func (m *TransformMask) SyncLodCache() {
	m.offset.SyncLodOffset()
	m.holder.syncLodCache()
}

// LodCapableDevices returns the devices that keep level-of-detail planes.
func (m *TransformMask) LodCapableDevices() []*paint.Device {
	if dev := m.cache.Device(); dev != nil {
		return []*paint.Device{dev}
	}
	return nil
}

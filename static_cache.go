// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package imagegraph

import (
	"image"
	"sync"

	"github.com/gogpu/imagegraph/paint"
	"github.com/gogpu/imagegraph/region"
)

// StaticCacheStorage holds the transformed bitmap of a transform mask.
//
// The cache is either derived, valid for the params it was rendered with,
// or overridden by an externally supplied bitmap. An overridden cache is
// always valid. The lock guards the flags and the device pointer only;
// pixel writes are serialized by the scheduler, which runs at most one
// regeneration job at a time.
type StaticCacheStorage struct {
	mu         sync.RWMutex
	device     *paint.Device
	validFor   TransformParams
	valid      bool
	overridden bool
}

// IsCacheValid reports whether the cache content may be used for params.
func (s *StaticCacheStorage) IsCacheValid(params TransformParams) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.valid && (s.validFor == nil || s.validFor.Equal(params))
}

// IsCacheOverridden reports whether the content was supplied externally.
func (s *StaticCacheStorage) IsCacheOverridden() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.overridden
}

// LazyAllocateStaticCache allocates the device unless one with the same
// color space exists.
func (s *StaticCacheStorage) LazyAllocateStaticCache(cs paint.ColorSpace, bounds paint.DefaultBounds) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.device == nil || s.device.ColorSpace() != cs {
		s.device = paint.NewDevice(cs, bounds)
	}
}

// Device returns the cache device, or nil before allocation.
func (s *StaticCacheStorage) Device() *paint.Device {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.device
}

// SetDeviceCacheValid marks the content as rendered for params.
func (s *StaticCacheStorage) SetDeviceCacheValid(params TransformParams) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !safeAssert(!s.overridden, "static cache validated while overridden") {
		return
	}
	s.valid = true
	s.validFor = params.Clone()
}

// InvalidateDeviceCache drops the validity of derived content. An
// overridden cache stays as it is; clear the override first with
// OverrideStaticCacheDevice(nil).
func (s *StaticCacheStorage) InvalidateDeviceCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.overridden {
		Logger().Warn("imagegraph: invalidating an overridden static cache is a no-op")
		return
	}
	s.valid = false
	s.validFor = nil
}

// OverrideStaticCacheDevice replaces the content with a copy of dev and
// marks it valid for any params. A nil dev clears the content and the
// override, leaving the cache invalid.
func (s *StaticCacheStorage) OverrideStaticCacheDevice(dev *paint.Device) {
	if dev != nil {
		s.LazyAllocateStaticCache(dev.ColorSpace(), dev.DefaultBounds())
	}

	if cache := s.Device(); cache != nil {
		cache.ClearAll()
		if dev != nil {
			dev.CopyArea(cache, dev.ExactBounds())
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.overridden = dev != nil
	s.valid = dev != nil
	s.validFor = nil
}

// AccumulatedRectStorage collects rects until they are taken.
type AccumulatedRectStorage struct {
	mu   sync.Mutex
	rect image.Rectangle
}

// AddRect adds r to the accumulated rect.
func (s *AccumulatedRectStorage) AddRect(r image.Rectangle) {
	if r.Empty() {
		return
	}
	s.mu.Lock()
	s.rect = region.Union(s.rect, r)
	s.mu.Unlock()
}

// TakeRect returns the accumulated rect and resets it.
func (s *AccumulatedRectStorage) TakeRect() image.Rectangle {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.rect
	s.rect = image.Rectangle{}
	return r
}

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package imagegraph

import (
	"image"
	"math"
	"sync"
	"weak"

	"github.com/gogpu/imagegraph/paint"
)

// maxLod bounds the level of detail so that 1<<lod stays meaningful.
const maxLod = 16

// imageBounds resolves device bounds and level of detail from an image
// that may already be gone.
type imageBounds struct {
	image weak.Pointer[Image]
}

func (b imageBounds) Bounds() image.Rectangle {
	if img := b.image.Value(); img != nil {
		return img.Bounds()
	}
	return image.Rectangle{}
}

func (b imageBounds) CurrentLevelOfDetail() int {
	if img := b.image.Value(); img != nil {
		return img.LevelOfDetail()
	}
	return 0
}

// lodValue scales v to level of detail lod.
func lodValue(v, lod int) int {
	if lod <= 0 {
		return v
	}
	return int(math.Round(math.Ldexp(float64(v), -min(lod, maxLod))))
}

// LodOffset is a node position that keeps a separate value for the
// level-of-detail preview. Reads and writes use the value matching the
// current level of detail of the bounds provider; SyncLodOffset derives
// the preview value from the full resolution one.
//
// LodOffset is safe for concurrent use.
type LodOffset struct {
	mu         sync.Mutex
	bounds     paint.DefaultBounds
	x, y       int
	lodX, lodY int
}

// NewLodOffset returns a zero offset resolving its level of detail from
// bounds.
func NewLodOffset(bounds paint.DefaultBounds) *LodOffset {
	if bounds == nil {
		bounds = paint.FixedBounds{}
	}
	return &LodOffset{bounds: bounds}
}

func (o *LodOffset) lodActive() bool {
	return o.bounds.CurrentLevelOfDetail() > 0
}

// X returns the horizontal offset at the current level of detail.
func (o *LodOffset) X() int {
	lod := o.lodActive()
	o.mu.Lock()
	defer o.mu.Unlock()
	if lod {
		return o.lodX
	}
	return o.x
}

// Y returns the vertical offset at the current level of detail.
func (o *LodOffset) Y() int {
	lod := o.lodActive()
	o.mu.Lock()
	defer o.mu.Unlock()
	if lod {
		return o.lodY
	}
	return o.y
}

// SetX sets the horizontal offset at the current level of detail.
func (o *LodOffset) SetX(x int) {
	lod := o.lodActive()
	o.mu.Lock()
	defer o.mu.Unlock()
	if lod {
		o.lodX = x
	} else {
		o.x = x
	}
}

// SetY sets the vertical offset at the current level of detail.
func (o *LodOffset) SetY(y int) {
	lod := o.lodActive()
	o.mu.Lock()
	defer o.mu.Unlock()
	if lod {
		o.lodY = y
	} else {
		o.y = y
	}
}

// SyncLodOffset recomputes the preview offset from the full resolution one.
func (o *LodOffset) SyncLodOffset() {
	lod := o.bounds.CurrentLevelOfDetail()
	o.mu.Lock()
	defer o.mu.Unlock()
	o.lodX = lodValue(o.x, lod)
	o.lodY = lodValue(o.y, lod)
}

// SetDefaultBounds replaces the bounds provider.
func (o *LodOffset) SetDefaultBounds(bounds paint.DefaultBounds) {
	if bounds == nil {
		bounds = paint.FixedBounds{}
	}
	o.mu.Lock()
	o.bounds = bounds
	o.mu.Unlock()
}

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package imagegraph

import (
	"image"
	"image/color"
	"testing"

	"github.com/gogpu/imagegraph/internal/clock"
)

func newLargeTestImage(t *testing.T) *Image {
	t.Helper()
	img, err := NewImage(256, 256, WithClock(clock.NewManual()), WithWorkers(2))
	if err != nil {
		t.Fatalf("NewImage() error = %v", err)
	}
	t.Cleanup(func() { _ = img.Close() })
	return img
}

func containsPoint(rects []image.Rectangle, p image.Point) bool {
	for _, r := range rects {
		if p.In(r) {
			return true
		}
	}
	return false
}

// =============================================================================
// Dirty rects
// =============================================================================

func TestUpdateReportsTileDirtyRects(t *testing.T) {
	img := newLargeTestImage(t)
	img.TakeDirtyRects()

	addFilledLayer(t, img, "paint", image.Rect(10, 10, 20, 20))
	rects := img.TakeDirtyRects()
	if !containsPoint(rects, image.Pt(15, 15)) {
		t.Errorf("dirty rects %v miss the painted area", rects)
	}
	if containsPoint(rects, image.Pt(200, 200)) {
		t.Errorf("dirty rects %v include an untouched tile", rects)
	}
	if again := img.TakeDirtyRects(); len(again) != 0 {
		t.Errorf("second TakeDirtyRects() = %v, want none", again)
	}
}

func TestUpdateGrowsThroughFilterMask(t *testing.T) {
	img := newLargeTestImage(t)
	layer := addFilledLayer(t, img, "paint", image.Rect(0, 0, 0, 0))
	if err := layer.AddChild(NewFilterMask(img, "blur", BoxBlur{Radius: 8})); err != nil {
		t.Fatalf("AddChild() error = %v", err)
	}
	img.WaitForDone()
	img.TakeDirtyRects()

	// The painted rect sits in the first tile; the blur reaches the next.
	rect := image.Rect(56, 56, 62, 62)
	layer.PaintDevice().Fill(rect, opaqueRed)
	layer.SetDirty(rect)
	img.WaitForDone()

	rects := img.TakeDirtyRects()
	if !containsPoint(rects, image.Pt(66, 66)) {
		t.Errorf("dirty rects %v miss the blurred spill", rects)
	}
	if c := img.Projection().RGBAAt(65, 59); c.A == 0 {
		t.Errorf("projection at blurred spill = %v, want partly opaque", c)
	}
	if c := img.Projection().RGBAAt(80, 59); !isClear(c) {
		t.Errorf("projection beyond the blur = %v, want transparent", c)
	}
}

// =============================================================================
// Groups
// =============================================================================

func TestNestedGroupComposite(t *testing.T) {
	img, _ := newTestImage(t)
	outer := NewGroupLayer(img, "outer")
	inner := NewGroupLayer(img, "inner")
	leaf := NewPaintLayer(img, "leaf")
	if err := img.Root().AddChild(outer); err != nil {
		t.Fatalf("AddChild(outer) error = %v", err)
	}
	if err := outer.AddChild(inner); err != nil {
		t.Fatalf("AddChild(inner) error = %v", err)
	}
	if err := inner.AddChild(leaf); err != nil {
		t.Fatalf("AddChild(leaf) error = %v", err)
	}

	rect := image.Rect(4, 4, 12, 12)
	leaf.PaintDevice().Fill(rect, opaqueRed)
	leaf.SetDirty(rect)
	img.WaitForDone()

	if c := img.Projection().RGBAAt(8, 8); !isRed(c) {
		t.Fatalf("nested leaf pixel = %v, want red", c)
	}
	if got := outer.ExactBounds(); got != rect {
		t.Errorf("outer ExactBounds() = %v, want %v", got, rect)
	}

	inner.SetOpacity(128)
	img.WaitForDone()
	c := img.Projection().RGBAAt(8, 8)
	if c.A < 120 || c.A > 136 {
		t.Errorf("pixel under half-opaque group = %v, want alpha near 128", c)
	}
}

func TestTransformMaskInsideGroup(t *testing.T) {
	img, _ := newTestImage(t)
	group := NewGroupLayer(img, "group")
	if err := img.Root().AddChild(group); err != nil {
		t.Fatalf("AddChild() error = %v", err)
	}
	leaf := NewPaintLayer(img, "leaf")
	if err := group.AddChild(leaf); err != nil {
		t.Fatalf("AddChild() error = %v", err)
	}
	leaf.PaintDevice().Fill(image.Rect(0, 0, 8, 8), opaqueRed)
	leaf.SetDirty(image.Rect(0, 0, 8, 8))

	tm := NewTransformMask(img, "move")
	if err := group.AddChild(tm); err != nil {
		t.Fatalf("AddChild() error = %v", err)
	}
	tm.SetX(20)
	img.WaitForDone()

	p := img.Projection()
	if c := p.RGBAAt(24, 4); !isRed(c) {
		t.Errorf("moved pixel = %v, want red", c)
	}
	if c := p.RGBAAt(4, 4); !isClear(c) {
		t.Errorf("vacated pixel = %v, want transparent", c)
	}
}

func TestGroupMaskBelowEditedChild(t *testing.T) {
	img, _ := newTestImage(t)
	group := NewGroupLayer(img, "group")
	if err := img.Root().AddChild(group); err != nil {
		t.Fatalf("AddChild(group) error = %v", err)
	}
	// The mask is added first, so the child layer sits above it.
	tm := NewTransformMask(img, "identity")
	if err := group.AddChild(tm); err != nil {
		t.Fatalf("AddChild(mask) error = %v", err)
	}
	leaf := NewPaintLayer(img, "leaf")
	if err := group.AddChild(leaf); err != nil {
		t.Fatalf("AddChild(leaf) error = %v", err)
	}

	first := image.Rect(10, 10, 20, 20)
	leaf.PaintDevice().Fill(first, opaqueRed)
	leaf.SetDirty(first)
	img.WaitForDone()
	img.ForceAllDelayedNodesUpdate()
	img.WaitForDone()
	if !tm.StaticImageCacheIsValid() {
		t.Fatal("static cache not regenerated")
	}

	blue := color.RGBA{B: 255, A: 255}
	second := image.Rect(40, 40, 50, 50)
	leaf.PaintDevice().Fill(second, blue)
	leaf.SetDirty(second)
	img.WaitForDone()

	p := img.Projection()
	if c := p.RGBAAt(45, 45); c.B < 200 || c.A < 200 || c.R > 50 {
		t.Errorf("edited pixel = %v, want blue", c)
	}
	if c := p.RGBAAt(15, 15); !isRed(c) {
		t.Errorf("earlier pixel = %v, want red", c)
	}
	if tm.StaticImageCacheIsValid() {
		t.Error("static cache still valid after the child changed")
	}
}

// =============================================================================
// No-filthy updates
// =============================================================================

func TestRequestProjectionUpdateNoFilthy(t *testing.T) {
	img, _ := newTestImage(t)
	layer := addFilledLayer(t, img, "paint", image.Rect(0, 0, 0, 0))
	// A pass-through mask gives the layer a projection of its own.
	if err := layer.AddChild(NewFilterMask(img, "pass", nil)); err != nil {
		t.Fatalf("AddChild() error = %v", err)
	}
	img.WaitForDone()
	img.TakeDirtyRects()

	// Writing the projection directly is what an external renderer does
	// before asking the parents to pick the change up.
	rect := image.Rect(2, 2, 6, 6)
	layer.Projection().Fill(rect, opaqueRed)
	img.RequestProjectionUpdateNoFilthy(layer, rect)
	img.WaitForDone()

	if c := img.Projection().RGBAAt(3, 3); !isRed(c) {
		t.Errorf("root pixel = %v, want the projection content", c)
	}
	if c := layer.Original().Pixel(3, 3); !isClear(c) {
		t.Errorf("original pixel = %v, want untouched", c)
	}
	if rects := img.TakeDirtyRects(); !containsPoint(rects, image.Pt(3, 3)) {
		t.Errorf("dirty rects %v miss the update", rects)
	}
}

func TestEmptyUpdateIsDropped(t *testing.T) {
	img, _ := newTestImage(t)
	layer := addFilledLayer(t, img, "paint", image.Rectangle{})
	img.TakeDirtyRects()

	img.RequestProjectionUpdate(layer, image.Rectangle{})
	if n := img.scheduler.Pending(); n != 0 {
		t.Errorf("Pending() = %d, want 0", n)
	}
	if rects := img.TakeDirtyRects(); len(rects) != 0 {
		t.Errorf("dirty rects = %v, want none", rects)
	}
}

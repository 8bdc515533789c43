// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package imagegraph

import (
	"image"
	"runtime"
	"testing"
	"weak"

	"github.com/gogpu/imagegraph/paint"
)

// lodBounds is a DefaultBounds with a settable level of detail.
type lodBounds struct {
	lod int
}

func (b *lodBounds) Bounds() image.Rectangle   { return image.Rect(0, 0, 100, 100) }
func (b *lodBounds) CurrentLevelOfDetail() int { return b.lod }

func TestLodValue(t *testing.T) {
	tests := []struct {
		v, lod, want int
	}{
		{10, 0, 10},
		{10, -1, 10},
		{10, 1, 5},
		{11, 1, 6},
		{-11, 1, -6},
		{100, 3, 13},
		{1 << 20, 40, 16},
	}
	for _, tt := range tests {
		if got := lodValue(tt.v, tt.lod); got != tt.want {
			t.Errorf("lodValue(%d, %d) = %d, want %d", tt.v, tt.lod, got, tt.want)
		}
	}
}

func TestLodOffset(t *testing.T) {
	b := &lodBounds{}
	o := NewLodOffset(b)
	o.SetX(20)
	o.SetY(-9)

	b.lod = 2
	if o.X() != 0 || o.Y() != 0 {
		t.Errorf("unsynced lod offset = (%d, %d), want (0, 0)", o.X(), o.Y())
	}
	o.SyncLodOffset()
	if o.X() != 5 || o.Y() != -2 {
		t.Errorf("synced lod offset = (%d, %d), want (5, -2)", o.X(), o.Y())
	}

	o.SetX(7)
	b.lod = 0
	if o.X() != 20 {
		t.Errorf("full resolution X() = %d, want 20 after a lod write", o.X())
	}
}

func TestLodOffsetNilBounds(t *testing.T) {
	o := NewLodOffset(nil)
	o.SetX(3)
	o.SyncLodOffset()
	if o.X() != 3 {
		t.Errorf("X() = %d, want 3", o.X())
	}

	b := &lodBounds{lod: 1}
	o.SetDefaultBounds(b)
	o.SyncLodOffset()
	if o.X() != 2 {
		t.Errorf("X() after SetDefaultBounds = %d, want 2", o.X())
	}
	o.SetDefaultBounds(nil)
	if o.X() != 3 {
		t.Errorf("X() after SetDefaultBounds(nil) = %d, want 3", o.X())
	}
}

func TestImageBoundsFollowImage(t *testing.T) {
	img, _ := newTestImage(t)
	var b paint.DefaultBounds = img.defaultBounds
	if got := b.Bounds(); got != image.Rect(0, 0, 64, 64) {
		t.Errorf("Bounds() = %v", got)
	}
	img.SetLevelOfDetail(3)
	if got := b.CurrentLevelOfDetail(); got != 3 {
		t.Errorf("CurrentLevelOfDetail() = %d, want 3", got)
	}
}

func TestImageBoundsOutliveImage(t *testing.T) {
	b := func() imageBounds {
		img, err := NewImage(16, 16)
		if err != nil {
			t.Fatalf("NewImage() error = %v", err)
		}
		_ = img.Close()
		return imageBounds{image: weak.Make(img)}
	}()

	// Collection is not guaranteed; only check the fallback once it happened.
	for range 5 {
		runtime.GC()
		if b.image.Value() == nil {
			break
		}
	}
	if b.image.Value() != nil {
		t.Skip("image not collected")
	}
	if got := b.Bounds(); !got.Empty() {
		t.Errorf("Bounds() of a collected image = %v, want empty", got)
	}
	if got := b.CurrentLevelOfDetail(); got != 0 {
		t.Errorf("CurrentLevelOfDetail() = %d, want 0", got)
	}
}

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package imagegraph

import (
	"image"
	"image/color"
	"testing"

	"github.com/gogpu/imagegraph/internal/clock"
)

var opaqueRed = color.RGBA{R: 255, A: 255}

// newTestImage returns a 64x64 image driven by a manual clock.
func newTestImage(t *testing.T, opts ...ImageOption) (*Image, *clock.Manual) {
	t.Helper()
	clk := clock.NewManual()
	opts = append([]ImageOption{WithClock(clk), WithWorkers(2)}, opts...)
	img, err := NewImage(64, 64, opts...)
	if err != nil {
		t.Fatalf("NewImage() error = %v", err)
	}
	t.Cleanup(func() { _ = img.Close() })
	return img, clk
}

// addFilledLayer adds a paint layer on top of the root, fills rect with
// opaque red and waits for the projection.
func addFilledLayer(t *testing.T, img *Image, name string, rect image.Rectangle) *Layer {
	t.Helper()
	l := NewPaintLayer(img, name)
	if err := img.Root().AddChild(l); err != nil {
		t.Fatalf("AddChild(%q) error = %v", name, err)
	}
	if !rect.Empty() {
		l.PaintDevice().Fill(rect, opaqueRed)
		l.SetDirty(rect)
	}
	img.WaitForDone()
	return l
}

// isRed reports whether c is a mostly opaque red pixel.
func isRed(c color.RGBA) bool {
	return c.R > 200 && c.G < 50 && c.B < 50 && c.A > 200
}

// isClear reports whether c is fully transparent.
func isClear(c color.RGBA) bool {
	return c.A == 0
}

func unionAll(rects []image.Rectangle) image.Rectangle {
	var u image.Rectangle
	for _, r := range rects {
		u = u.Union(r)
	}
	return u
}

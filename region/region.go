// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package region provides the rectangle algebra used by every change and
// need rect computation of the node graph.
//
// All rectangles are image.Rectangle values in image (pixel) coordinates.
// An empty rectangle is the identity of Union and the zero of Intersect,
// and every operation returns an empty rectangle unchanged.
package region

import (
	"image"
	"math"
)

// Grow expands r by n pixels on every side.
// An empty rectangle is returned unchanged.
func Grow(r image.Rectangle, n int) image.Rectangle {
	if r.Empty() {
		return r
	}
	return r.Inset(-n)
}

// GrowXY expands r by dx pixels horizontally and dy pixels vertically.
// An empty rectangle is returned unchanged.
func GrowXY(r image.Rectangle, dx, dy int) image.Rectangle {
	if r.Empty() {
		return r
	}
	return image.Rect(r.Min.X-dx, r.Min.Y-dy, r.Max.X+dx, r.Max.Y+dy)
}

// Blow expands r on every side by ratio times its size: the left and right
// edges move by ratio*width, the top and bottom edges by ratio*height.
// It is used to derive the off-bounds read margin around the image bounds.
func Blow(r image.Rectangle, ratio float64) image.Rectangle {
	if r.Empty() {
		return r
	}
	dx := int(math.Ceil(float64(r.Dx()) * ratio))
	dy := int(math.Ceil(float64(r.Dy()) * ratio))
	return image.Rect(r.Min.X-dx, r.Min.Y-dy, r.Max.X+dx, r.Max.Y+dy)
}

// Union returns the smallest rectangle containing both a and b.
// Empty operands are ignored.
func Union(a, b image.Rectangle) image.Rectangle {
	return a.Union(b)
}

// Intersect returns the largest rectangle contained in both a and b.
// The result is the canonical empty rectangle when they do not overlap.
func Intersect(a, b image.Rectangle) image.Rectangle {
	r := a.Intersect(b)
	if r.Empty() {
		return image.Rectangle{}
	}
	return r
}

// Aligned returns the smallest integer rectangle that contains the
// floating point box [x0,x1)x[y0,y1). Coordinates are clamped to the int32
// range so that near-singular transforms cannot produce overflowing rects.
func Aligned(x0, y0, x1, y1 float64) image.Rectangle {
	if x0 > x1 {
		x0, x1 = x1, x0
	}
	if y0 > y1 {
		y0, y1 = y1, y0
	}
	return image.Rect(
		clampCoord(math.Floor(x0)),
		clampCoord(math.Floor(y0)),
		clampCoord(math.Ceil(x1)),
		clampCoord(math.Ceil(y1)),
	)
}

const coordLimit = math.MaxInt32 / 4

func clampCoord(v float64) int {
	switch {
	case math.IsNaN(v):
		return 0
	case v > coordLimit:
		return coordLimit
	case v < -coordLimit:
		return -coordLimit
	}
	return int(v)
}

// Subtract returns the parts of a that are not covered by b as a list of
// disjoint rectangles. At most four rectangles are returned.
func Subtract(a, b image.Rectangle) []image.Rectangle {
	if a.Empty() {
		return nil
	}
	in := a.Intersect(b)
	if in.Empty() {
		return []image.Rectangle{a}
	}

	out := make([]image.Rectangle, 0, 4)
	// Top and bottom bands span the full width of a.
	if in.Min.Y > a.Min.Y {
		out = append(out, image.Rect(a.Min.X, a.Min.Y, a.Max.X, in.Min.Y))
	}
	if in.Max.Y < a.Max.Y {
		out = append(out, image.Rect(a.Min.X, in.Max.Y, a.Max.X, a.Max.Y))
	}
	// Left and right bands are limited to the intersection rows.
	if in.Min.X > a.Min.X {
		out = append(out, image.Rect(a.Min.X, in.Min.Y, in.Min.X, in.Max.Y))
	}
	if in.Max.X < a.Max.X {
		out = append(out, image.Rect(in.Max.X, in.Min.Y, a.Max.X, in.Max.Y))
	}
	return out
}

// Region is a set of pixels stored as a list of disjoint rectangles.
// The zero value is an empty region ready to use.
//
// Region is not safe for concurrent use.
type Region struct {
	rects []image.Rectangle
}

// New returns a region covering the given rectangles.
func New(rects ...image.Rectangle) Region {
	var r Region
	for _, rc := range rects {
		r.Add(rc)
	}
	return r
}

// Add unites rc into the region. Only the parts of rc that are not
// already covered are stored, so no pixel is ever counted twice.
func (r *Region) Add(rc image.Rectangle) {
	if rc.Empty() {
		return
	}
	pending := []image.Rectangle{rc}
	for _, existing := range r.rects {
		next := pending[:0:0]
		for _, p := range pending {
			next = append(next, Subtract(p, existing)...)
		}
		pending = next
		if len(pending) == 0 {
			return
		}
	}
	r.rects = append(r.rects, pending...)
}

// AddRegion unites other into the region.
func (r *Region) AddRegion(other Region) {
	for _, rc := range other.rects {
		r.Add(rc)
	}
}

// Intersect returns the part of the region that lies inside rc.
func (r Region) Intersect(rc image.Rectangle) Region {
	var out Region
	for _, existing := range r.rects {
		if in := existing.Intersect(rc); !in.Empty() {
			// Pieces of a disjoint set stay disjoint after clipping.
			out.rects = append(out.rects, in)
		}
	}
	return out
}

// Grow returns a region where every rectangle is expanded by n pixels.
func (r Region) Grow(n int) Region {
	var out Region
	for _, rc := range r.rects {
		out.Add(Grow(rc, n))
	}
	return out
}

// Contains reports whether every pixel of rc is inside the region.
func (r Region) Contains(rc image.Rectangle) bool {
	if rc.Empty() {
		return true
	}
	pending := []image.Rectangle{rc}
	for _, existing := range r.rects {
		next := pending[:0:0]
		for _, p := range pending {
			next = append(next, Subtract(p, existing)...)
		}
		pending = next
		if len(pending) == 0 {
			return true
		}
	}
	return false
}

// Bounds returns the bounding rectangle of the region.
func (r Region) Bounds() image.Rectangle {
	var b image.Rectangle
	for _, rc := range r.rects {
		b = b.Union(rc)
	}
	return b
}

// Rects returns a copy of the disjoint rectangles forming the region.
func (r Region) Rects() []image.Rectangle {
	out := make([]image.Rectangle, len(r.rects))
	copy(out, r.rects)
	return out
}

// Area returns the number of pixels in the region.
func (r Region) Area() int {
	area := 0
	for _, rc := range r.rects {
		area += rc.Dx() * rc.Dy()
	}
	return area
}

// IsEmpty reports whether the region covers no pixels.
func (r Region) IsEmpty() bool {
	return len(r.rects) == 0
}

// Clear empties the region, keeping its storage.
func (r *Region) Clear() {
	r.rects = r.rects[:0]
}

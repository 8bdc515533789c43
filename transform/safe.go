// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package transform

import (
	"image"

	"github.com/gogpu/imagegraph/region"
)

// SafeTransform maps rectangles through an affine matrix while keeping the
// results inside a limiting rectangle. Transforms that are close to
// singular would otherwise produce enormous or degenerate rects.
//
// The limiting rect is usually the parent's nominal bounds blown by the
// off-bounds read margin; the interest rect is the area that actually
// holds data and is the fallback answer when the matrix cannot be inverted.
//
// MapRectBackward covers the input of MapRectForward only for invertible
// matrices and rects inside the limit. Source pixels outside the limit
// are dropped, and a matrix that collapses an axis maps every rect to an
// empty one.
type SafeTransform struct {
	forward    Affine
	backward   Affine
	invertible bool
	limit      image.Rectangle
	interest   image.Rectangle
}

// NewSafeTransform creates a mapper for m clamped to limit.
func NewSafeTransform(m Affine, limit, interest image.Rectangle) SafeTransform {
	inv, ok := m.Invert()
	return SafeTransform{
		forward:    m,
		backward:   inv,
		invertible: ok,
		limit:      limit,
		interest:   interest,
	}
}

// MapRectForward returns the rect of destination pixels that source rect r
// may affect.
func (s SafeTransform) MapRectForward(r image.Rectangle) image.Rectangle {
	if r.Empty() {
		return r
	}
	src := region.Intersect(r, s.limit)
	return region.Intersect(s.forward.MapRect(src), s.limit)
}

// MapRectBackward returns the rect of source pixels needed to compute
// destination rect r.
func (s SafeTransform) MapRectBackward(r image.Rectangle) image.Rectangle {
	if r.Empty() {
		return r
	}
	if !s.invertible {
		// Everything may collapse onto r; request all the data there is.
		if s.interest.Empty() {
			return s.limit
		}
		return region.Intersect(s.interest, s.limit)
	}
	dst := region.Intersect(r, s.limit)
	return region.Intersect(s.backward.MapRect(dst), s.limit)
}

// Limit returns the limiting rectangle.
func (s SafeTransform) Limit() image.Rectangle {
	return s.limit
}

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package imagegraph

import (
	"image"
	"math"

	"github.com/gogpu/imagegraph/paint"
	"github.com/gogpu/imagegraph/region"
	"github.com/gogpu/imagegraph/transform"
)

// TransformParams describes the transform of a TransformMask. Values are
// immutable: changing a mask replaces its params wholesale.
type TransformParams interface {
	Clone() TransformParams
	Equal(other TransformParams) bool

	// IsAffine reports whether FinalAffine describes the whole transform.
	IsAffine() bool

	// IsHidden reports whether the mask output is suppressed, e.g. while an
	// interactive tool draws its own preview.
	IsHidden() bool

	FinalAffine() transform.Affine

	// NonAffineChangeRect maps rect forward. limit bounds the answer for
	// transforms that cannot map every point.
	NonAffineChangeRect(rect, limit image.Rectangle) image.Rectangle

	// NonAffineNeedRect maps rect backward. interest is the answer for
	// transforms that cannot be inverted.
	NonAffineNeedRect(rect, interest image.Rectangle) image.Rectangle

	// TransformDevice renders src transformed into dst, writing no pixel
	// outside limit.
	TransformDevice(src, dst *paint.Device, limit image.Rectangle)

	// TranslateSrcAndDst returns the params for content moved by (dx, dy)
	// together with the transform.
	TranslateSrcAndDst(dx, dy float64) TransformParams

	// ScaledForLod returns the params for a preview at level of detail lod.
	ScaledForLod(lod int) TransformParams
}

// lodScale returns the preview scale of level of detail lod.
func lodScale(lod int) float64 {
	return math.Ldexp(1, -lod)
}

// conjugate returns outer * m * inner, inner being the inverse of outer.
func conjugate(m, outer, inner transform.Affine) transform.Affine {
	return outer.Multiply(m).Multiply(inner)
}

// AffineParams is an affine transform.
type AffineParams struct {
	Matrix transform.Affine
	Hidden bool
}

// IdentityParams returns params that leave pixels in place.
func IdentityParams() AffineParams {
	return AffineParams{Matrix: transform.Identity()}
}

// NewAffineParams returns visible params for m.
func NewAffineParams(m transform.Affine) AffineParams {
	return AffineParams{Matrix: m}
}

func (p AffineParams) Clone() TransformParams { return p }

func (p AffineParams) Equal(other TransformParams) bool {
	o, ok := other.(AffineParams)
	return ok && o == p
}

func (p AffineParams) IsAffine() bool                { return true }
func (p AffineParams) IsHidden() bool                { return p.Hidden }
func (p AffineParams) FinalAffine() transform.Affine { return p.Matrix }

func (p AffineParams) NonAffineChangeRect(rect, limit image.Rectangle) image.Rectangle {
	return region.Intersect(p.Matrix.MapRect(rect), limit)
}

func (p AffineParams) NonAffineNeedRect(rect, interest image.Rectangle) image.Rectangle {
	inv, ok := p.Matrix.Invert()
	if !ok {
		return interest
	}
	return region.Grow(inv.MapRect(rect), 1)
}

func (p AffineParams) TransformDevice(src, dst *paint.Device, limit image.Rectangle) {
	rect := region.Intersect(p.Matrix.MapRect(src.ExactBounds()), limit)
	paint.TransformAffine(dst, src, p.Matrix, rect)
}

func (p AffineParams) TranslateSrcAndDst(dx, dy float64) TransformParams {
	p.Matrix = conjugate(p.Matrix, transform.Translate(dx, dy), transform.Translate(-dx, -dy))
	return p
}

func (p AffineParams) ScaledForLod(lod int) TransformParams {
	s := lodScale(lod)
	p.Matrix = conjugate(p.Matrix, transform.Scale(s, s), transform.Scale(1/s, 1/s))
	return p
}

// PerspectiveParams is a projective transform.
type PerspectiveParams struct {
	Matrix transform.Perspective
	Hidden bool
}

// NewPerspectiveParams returns visible params for m.
func NewPerspectiveParams(m transform.Perspective) PerspectiveParams {
	return PerspectiveParams{Matrix: m}
}

func (p PerspectiveParams) Clone() TransformParams { return p }

func (p PerspectiveParams) Equal(other TransformParams) bool {
	o, ok := other.(PerspectiveParams)
	return ok && o == p
}

func (p PerspectiveParams) IsAffine() bool { return p.Matrix.IsAffine() }
func (p PerspectiveParams) IsHidden() bool { return p.Hidden }

// FinalAffine returns the affine part of the matrix. It is exact only when
// IsAffine reports true.
func (p PerspectiveParams) FinalAffine() transform.Affine {
	m := p.Matrix.Elements()
	return transform.NewAffine(m[0], m[1], m[2], m[3], m[4], m[5])
}

func (p PerspectiveParams) NonAffineChangeRect(rect, limit image.Rectangle) image.Rectangle {
	if rect.Empty() {
		return rect
	}
	mapped, ok := p.Matrix.MapRect(rect)
	if !ok {
		// Part of rect crosses the horizon and maps to infinity.
		return limit
	}
	return region.Intersect(mapped, limit)
}

func (p PerspectiveParams) NonAffineNeedRect(rect, interest image.Rectangle) image.Rectangle {
	if rect.Empty() {
		return rect
	}
	inv, ok := p.Matrix.Invert()
	if !ok {
		return interest
	}
	mapped, ok := inv.MapRect(rect)
	if !ok {
		return interest
	}
	return region.Grow(mapped, 1)
}

func (p PerspectiveParams) TransformDevice(src, dst *paint.Device, limit image.Rectangle) {
	rect, ok := p.Matrix.MapRect(src.ExactBounds())
	if !ok {
		rect = limit
	}
	paint.TransformPerspective(dst, src, p.Matrix, region.Intersect(rect, limit))
}

func (p PerspectiveParams) TranslateSrcAndDst(dx, dy float64) TransformParams {
	t := transform.PerspectiveFromAffine(transform.Translate(dx, dy))
	tinv := transform.PerspectiveFromAffine(transform.Translate(-dx, -dy))
	p.Matrix = t.Multiply(p.Matrix).Multiply(tinv)
	return p
}

func (p PerspectiveParams) ScaledForLod(lod int) TransformParams {
	s := lodScale(lod)
	sc := transform.PerspectiveFromAffine(transform.Scale(s, s))
	scinv := transform.PerspectiveFromAffine(transform.Scale(1/s, 1/s))
	p.Matrix = sc.Multiply(p.Matrix).Multiply(scinv)
	return p
}

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package transform provides the geometric transforms used by transform
// masks: affine matrices, projective (perspective) matrices and a safe
// rect mapper that keeps near-singular transforms from producing unbounded
// rectangles.
package transform

import (
	"image"
	"math"

	"golang.org/x/image/math/f64"

	"github.com/gogpu/imagegraph/region"
)

// singularEpsilon is the determinant magnitude below which a matrix is
// treated as non-invertible.
const singularEpsilon = 1e-10

// Affine represents a 2D affine transformation matrix.
//
// The transformation is represented as a 3x3 matrix:
//
//	| a  b  c |
//	| d  e  f |
//	| 0  0  1 |
//
// The zero value is not the identity; use Identity.
type Affine struct {
	a, b, c float64 // x' = ax + by + c
	d, e, f float64 // y' = dx + ey + f
}

// NewAffine returns the matrix with the given coefficients.
func NewAffine(a, b, c, d, e, f float64) Affine {
	return Affine{a: a, b: b, c: c, d: d, e: e, f: f}
}

// Identity returns the identity transformation.
func Identity() Affine {
	return Affine{a: 1, e: 1}
}

// Translate returns a translation by (tx, ty).
func Translate(tx, ty float64) Affine {
	return Affine{a: 1, c: tx, e: 1, f: ty}
}

// Scale returns a scaling by (sx, sy) around the origin.
func Scale(sx, sy float64) Affine {
	return Affine{a: sx, e: sy}
}

// Rotate returns a rotation by angle radians around the origin.
// In image coordinates (y down) positive angles rotate clockwise.
func Rotate(angle float64) Affine {
	sin, cos := math.Sincos(angle)
	// Snap the quarter turns so that 90 degree rotations map pixel grids
	// onto pixel grids exactly.
	cos, sin = snap(cos), snap(sin)
	return Affine{a: cos, b: -sin, d: sin, e: cos}
}

// Shear returns a shearing by (sx, sy).
func Shear(sx, sy float64) Affine {
	return Affine{a: 1, b: sx, d: sy, e: 1}
}

// RotateAt returns a rotation by angle radians around (cx, cy).
func RotateAt(angle, cx, cy float64) Affine {
	return Translate(cx, cy).Multiply(Rotate(angle)).Multiply(Translate(-cx, -cy))
}

// ScaleAt returns a scaling by (sx, sy) around (cx, cy).
func ScaleAt(sx, sy, cx, cy float64) Affine {
	return Translate(cx, cy).Multiply(Scale(sx, sy)).Multiply(Translate(-cx, -cy))
}

// Multiply returns m * other: the result applies other first, then m.
func (m Affine) Multiply(other Affine) Affine {
	return Affine{
		a: m.a*other.a + m.b*other.d,
		b: m.a*other.b + m.b*other.e,
		c: m.a*other.c + m.b*other.f + m.c,
		d: m.d*other.a + m.e*other.d,
		e: m.d*other.b + m.e*other.e,
		f: m.d*other.c + m.e*other.f + m.f,
	}
}

// Determinant returns the determinant of the linear part.
func (m Affine) Determinant() float64 {
	return m.a*m.e - m.b*m.d
}

// Invert returns the inverse transformation.
// Returns false if the matrix is singular.
func (m Affine) Invert() (Affine, bool) {
	det := m.Determinant()
	if math.Abs(det) < singularEpsilon {
		return Affine{}, false
	}
	inv := 1.0 / det
	return Affine{
		a: m.e * inv,
		b: -m.b * inv,
		c: (m.b*m.f - m.c*m.e) * inv,
		d: -m.d * inv,
		e: m.a * inv,
		f: (m.c*m.d - m.a*m.f) * inv,
	}, true
}

// TransformPoint applies the transformation to (x, y).
func (m Affine) TransformPoint(x, y float64) (float64, float64) {
	return m.a*x + m.b*y + m.c, m.d*x + m.e*y + m.f
}

// MapRect returns the integer bounding rectangle of r mapped through m.
// An empty rectangle is returned unchanged.
func (m Affine) MapRect(r image.Rectangle) image.Rectangle {
	if r.Empty() {
		return r
	}
	corners := [4][2]float64{
		{float64(r.Min.X), float64(r.Min.Y)},
		{float64(r.Max.X), float64(r.Min.Y)},
		{float64(r.Max.X), float64(r.Max.Y)},
		{float64(r.Min.X), float64(r.Max.Y)},
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range corners {
		x, y := m.TransformPoint(p[0], p[1])
		minX, maxX = math.Min(minX, x), math.Max(maxX, x)
		minY, maxY = math.Min(minY, y), math.Max(maxY, y)
	}
	return region.Aligned(minX, minY, maxX, maxY)
}

// Translation returns the translation component.
func (m Affine) Translation() (tx, ty float64) {
	return m.c, m.f
}

// IsIdentity reports whether m is the identity transformation.
func (m Affine) IsIdentity() bool {
	return m == Identity()
}

// IsTranslation reports whether m only translates.
func (m Affine) IsTranslation() bool {
	return m.a == 1 && m.b == 0 && m.d == 0 && m.e == 1
}

// Elements returns the six coefficients in row-major order.
func (m Affine) Elements() [6]float64 {
	return [6]float64{m.a, m.b, m.c, m.d, m.e, m.f}
}

// Aff3 returns the matrix in the layout used by golang.org/x/image/draw.
func (m Affine) Aff3() f64.Aff3 {
	return f64.Aff3{m.a, m.b, m.c, m.d, m.e, m.f}
}

func snap(v float64) float64 {
	const eps = 1e-12
	switch {
	case math.Abs(v) < eps:
		return 0
	case math.Abs(v-1) < eps:
		return 1
	case math.Abs(v+1) < eps:
		return -1
	}
	return v
}

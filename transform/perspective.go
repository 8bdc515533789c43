// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package transform

import (
	"image"
	"math"

	"github.com/gogpu/imagegraph/region"
)

// horizonEpsilon is the minimal homogeneous w a mapped point must have to
// be considered in front of the projection horizon.
const horizonEpsilon = 1e-6

// Perspective is a projective 3x3 matrix in row-major order:
//
//	x' = (m0 x + m1 y + m2) / w
//	y' = (m3 x + m4 y + m5) / w
//	w  =  m6 x + m7 y + m8
type Perspective struct {
	m [9]float64
}

// NewPerspective returns the projective matrix with the given coefficients.
func NewPerspective(m [9]float64) Perspective {
	return Perspective{m: m}
}

// PerspectiveFromAffine lifts an affine matrix to a projective one.
func PerspectiveFromAffine(a Affine) Perspective {
	return Perspective{m: [9]float64{a.a, a.b, a.c, a.d, a.e, a.f, 0, 0, 1}}
}

// Elements returns the nine coefficients in row-major order.
func (p Perspective) Elements() [9]float64 {
	return p.m
}

// IsAffine reports whether the projective row is trivial.
func (p Perspective) IsAffine() bool {
	return p.m[6] == 0 && p.m[7] == 0 && p.m[8] == 1
}

// Map applies the matrix to (x, y). ok is false for points on or behind
// the horizon.
func (p Perspective) Map(x, y float64) (mx, my float64, ok bool) {
	w := p.m[6]*x + p.m[7]*y + p.m[8]
	if w < horizonEpsilon {
		return 0, 0, false
	}
	return (p.m[0]*x + p.m[1]*y + p.m[2]) / w, (p.m[3]*x + p.m[4]*y + p.m[5]) / w, true
}

// Multiply returns p * other: the result applies other first, then p.
func (p Perspective) Multiply(other Perspective) Perspective {
	var out Perspective
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			out.m[r*3+c] = p.m[r*3]*other.m[c] + p.m[r*3+1]*other.m[3+c] + p.m[r*3+2]*other.m[6+c]
		}
	}
	return out
}

// Invert returns the inverse matrix. Returns false if p is singular.
func (p Perspective) Invert() (Perspective, bool) {
	m := p.m
	c0 := m[4]*m[8] - m[5]*m[7]
	c1 := m[5]*m[6] - m[3]*m[8]
	c2 := m[3]*m[7] - m[4]*m[6]
	det := m[0]*c0 + m[1]*c1 + m[2]*c2
	if math.Abs(det) < singularEpsilon {
		return Perspective{}, false
	}
	inv := 1 / det
	return Perspective{m: [9]float64{
		c0 * inv,
		(m[2]*m[7] - m[1]*m[8]) * inv,
		(m[1]*m[5] - m[2]*m[4]) * inv,
		c1 * inv,
		(m[0]*m[8] - m[2]*m[6]) * inv,
		(m[2]*m[3] - m[0]*m[5]) * inv,
		c2 * inv,
		(m[1]*m[6] - m[0]*m[7]) * inv,
		(m[0]*m[4] - m[1]*m[3]) * inv,
	}}, true
}

// MapRect returns the bounding rectangle of r mapped through p.
// ok is false when any corner of r falls behind the horizon; the
// caller has to fall back to a conservative rect in that case.
func (p Perspective) MapRect(r image.Rectangle) (image.Rectangle, bool) {
	if r.Empty() {
		return r, true
	}
	corners := [4][2]float64{
		{float64(r.Min.X), float64(r.Min.Y)},
		{float64(r.Max.X), float64(r.Min.Y)},
		{float64(r.Max.X), float64(r.Max.Y)},
		{float64(r.Min.X), float64(r.Max.Y)},
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, c := range corners {
		x, y, ok := p.Map(c[0], c[1])
		if !ok {
			return image.Rectangle{}, false
		}
		minX, maxX = math.Min(minX, x), math.Max(maxX, x)
		minY, maxY = math.Min(minY, y), math.Max(maxY, y)
	}
	return region.Aligned(minX, minY, maxX, maxY), true
}

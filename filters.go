// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package imagegraph

import (
	"image"
	"math"
	"sync"

	"github.com/gogpu/imagegraph/paint"
	"github.com/gogpu/imagegraph/region"
)

// GaussianBlur applies a separable Gaussian blur. The radius is the
// standard deviation in pixels; the kernel reaches three of them.
type GaussianBlur struct {
	RadiusX float64
	RadiusY float64
}

// NewGaussianBlur returns a blur with equal radius in both directions.
func NewGaussianBlur(radius float64) GaussianBlur {
	return GaussianBlur{RadiusX: radius, RadiusY: radius}
}

func (g GaussianBlur) reach() (rx, ry int) {
	return kernelHalfSize(g.RadiusX), kernelHalfSize(g.RadiusY)
}

// ChangeRect grows rect by the kernel reach.
func (g GaussianBlur) ChangeRect(rect image.Rectangle) image.Rectangle {
	rx, ry := g.reach()
	return region.GrowXY(rect, rx, ry)
}

// NeedRect grows rect by the kernel reach.
func (g GaussianBlur) NeedRect(rect image.Rectangle) image.Rectangle {
	rx, ry := g.reach()
	return region.GrowXY(rect, rx, ry)
}

// Apply blurs rc of src into dst.
func (g GaussianBlur) Apply(src, dst *paint.Device, rc image.Rectangle) {
	if rc.Empty() {
		return
	}
	rx, ry := g.reach()
	if rx == 0 && ry == 0 {
		src.CopyArea(dst, rc)
		return
	}
	kx := cachedGaussianKernel(g.RadiusX)
	ky := cachedGaussianKernel(g.RadiusY)

	in := src.ReadRGBA(region.GrowXY(rc, rx, ry))
	rows := image.Rect(rc.Min.X, rc.Min.Y-ry, rc.Max.X, rc.Max.Y+ry)
	tmp := make([]float32, rows.Dx()*rows.Dy()*4)
	for y := rows.Min.Y; y < rows.Max.Y; y++ {
		for x := rows.Min.X; x < rows.Max.X; x++ {
			var sum [4]float32
			for i, w := range kx {
				o := in.PixOffset(x+i-rx, y)
				for c := range 4 {
					sum[c] += w * float32(in.Pix[o+c])
				}
			}
			o := ((y-rows.Min.Y)*rows.Dx() + x - rows.Min.X) * 4
			copy(tmp[o:o+4], sum[:])
		}
	}

	out := image.NewRGBA(rc)
	for y := rc.Min.Y; y < rc.Max.Y; y++ {
		for x := rc.Min.X; x < rc.Max.X; x++ {
			var sum [4]float32
			for i, w := range ky {
				o := ((y+i-ry-rows.Min.Y)*rows.Dx() + x - rows.Min.X) * 4
				for c := range 4 {
					sum[c] += w * tmp[o+c]
				}
			}
			o := out.PixOffset(x, y)
			for c := range 4 {
				out.Pix[o+c] = clampByte(sum[c])
			}
		}
	}
	dst.Write(out, rc)
}

func kernelHalfSize(radius float64) int {
	if radius <= 0 {
		return 0
	}
	return int(math.Ceil(radius * 3))
}

// gaussianKernel returns a normalized 1D kernel of 2*ceil(3*radius)+1
// taps, or the identity for radius <= 0.
func gaussianKernel(radius float64) []float32 {
	half := kernelHalfSize(radius)
	if half == 0 {
		return []float32{1}
	}
	kernel := make([]float32, half*2+1)
	twoSigmaSq := 2 * radius * radius
	sum := 0.0
	for i := range kernel {
		x := float64(i - half)
		v := math.Exp(-(x * x) / twoSigmaSq)
		kernel[i] = float32(v)
		sum += v
	}
	inv := float32(1 / sum)
	for i := range kernel {
		kernel[i] *= inv
	}
	return kernel
}

// kernelCache keeps kernels keyed by the radius in hundredths of a pixel.
type kernelCache struct {
	mu      sync.RWMutex
	kernels map[int][]float32
	maxLen  int
}

var defaultKernelCache = &kernelCache{kernels: make(map[int][]float32), maxLen: 64}

func (c *kernelCache) get(radius float64) []float32 {
	key := int(radius * 100)

	c.mu.RLock()
	k, ok := c.kernels[key]
	c.mu.RUnlock()
	if ok {
		return k
	}

	k = gaussianKernel(radius)
	c.mu.Lock()
	if len(c.kernels) >= c.maxLen {
		clear(c.kernels)
	}
	c.kernels[key] = k
	c.mu.Unlock()
	return k
}

func cachedGaussianKernel(radius float64) []float32 {
	return defaultKernelCache.get(radius)
}

// ColorMatrix applies a 4x5 matrix to every pixel:
//
//	[R']   [a00 a01 a02 a03 a04]   [R]
//	[G'] = [a10 a11 a12 a13 a14] * [G]
//	[B']   [a20 a21 a22 a23 a24]   [B]
//	[A']   [a30 a31 a32 a33 a34]   [A]
//	                               [1]
//
// Channels are straight alpha in 0..255 while the matrix applies.
type ColorMatrix struct {
	Matrix [20]float32
}

// Rec. 709 luminance weights.
const (
	lumR = 0.2126
	lumG = 0.7152
	lumB = 0.0722
)

// NewBrightness scales the color channels; 1 keeps them.
func NewBrightness(factor float32) ColorMatrix {
	return ColorMatrix{Matrix: [20]float32{
		factor, 0, 0, 0, 0,
		0, factor, 0, 0, 0,
		0, 0, factor, 0, 0,
		0, 0, 0, 1, 0,
	}}
}

// NewSaturation blends between grayscale at 0 and the input at 1.
func NewSaturation(factor float32) ColorMatrix {
	inv := 1 - factor
	return ColorMatrix{Matrix: [20]float32{
		lumR*inv + factor, lumG * inv, lumB * inv, 0, 0,
		lumR * inv, lumG*inv + factor, lumB * inv, 0, 0,
		lumR * inv, lumG * inv, lumB*inv + factor, 0, 0,
		0, 0, 0, 1, 0,
	}}
}

// NewGrayscale returns the Rec. 709 luminance.
func NewGrayscale() ColorMatrix {
	return NewSaturation(0)
}

// NewSepia applies a sepia tone.
func NewSepia() ColorMatrix {
	return ColorMatrix{Matrix: [20]float32{
		0.393, 0.769, 0.189, 0, 0,
		0.349, 0.686, 0.168, 0, 0,
		0.272, 0.534, 0.131, 0, 0,
		0, 0, 0, 1, 0,
	}}
}

// ChangeRect returns rect.
func (ColorMatrix) ChangeRect(rect image.Rectangle) image.Rectangle { return rect }

// NeedRect returns rect.
func (ColorMatrix) NeedRect(rect image.Rectangle) image.Rectangle { return rect }

// Apply transforms rc of src into dst.
func (m ColorMatrix) Apply(src, dst *paint.Device, rc image.Rectangle) {
	if rc.Empty() {
		return
	}
	px := src.ReadRGBA(rc)
	a := &m.Matrix
	for i := 0; i+3 < len(px.Pix); i += 4 {
		alpha := float32(px.Pix[i+3])
		if alpha == 0 && a[19] == 0 {
			continue
		}
		var r, g, b float32
		if alpha > 0 {
			s := 255 / alpha
			r, g, b = float32(px.Pix[i])*s, float32(px.Pix[i+1])*s, float32(px.Pix[i+2])*s
		}
		nr := a[0]*r + a[1]*g + a[2]*b + a[3]*alpha + a[4]
		ng := a[5]*r + a[6]*g + a[7]*b + a[8]*alpha + a[9]
		nb := a[10]*r + a[11]*g + a[12]*b + a[13]*alpha + a[14]
		na := clampByte(a[15]*r + a[16]*g + a[17]*b + a[18]*alpha + a[19])

		p := float32(na) / 255
		px.Pix[i] = clampByte(min(max(nr, 0), 255) * p)
		px.Pix[i+1] = clampByte(min(max(ng, 0), 255) * p)
		px.Pix[i+2] = clampByte(min(max(nb, 0), 255) * p)
		px.Pix[i+3] = na
	}
	dst.Write(px, rc)
}

func clampByte(v float32) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	}
	return uint8(v + 0.5)
}

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package imagegraph

import (
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/gogpu/imagegraph/paint"
)

// =============================================================================
// Gaussian blur
// =============================================================================

func TestGaussianKernel(t *testing.T) {
	tests := []struct {
		radius float64
		size   int
	}{
		{0, 1},
		{-2, 1},
		{0.5, 5},
		{1, 7},
		{2.5, 17},
	}
	for _, tt := range tests {
		k := gaussianKernel(tt.radius)
		if len(k) != tt.size {
			t.Errorf("gaussianKernel(%v) has %d taps, want %d", tt.radius, len(k), tt.size)
			continue
		}
		var sum float64
		for _, w := range k {
			sum += float64(w)
		}
		if math.Abs(sum-1) > 1e-5 {
			t.Errorf("gaussianKernel(%v) sums to %v, want 1", tt.radius, sum)
		}
		for i := range len(k) / 2 {
			if k[i] != k[len(k)-1-i] || k[i] > k[i+1] {
				t.Errorf("gaussianKernel(%v) is not a symmetric bell: %v", tt.radius, k)
				break
			}
		}
	}
	if a, b := cachedGaussianKernel(1.5), cachedGaussianKernel(1.5); &a[0] != &b[0] {
		t.Error("cachedGaussianKernel() recomputed a cached kernel")
	}
}

func TestGaussianBlurRects(t *testing.T) {
	g := GaussianBlur{RadiusX: 1, RadiusY: 2}
	r := image.Rect(10, 10, 20, 20)
	want := image.Rect(7, 4, 23, 26)
	if got := g.ChangeRect(r); got != want {
		t.Errorf("ChangeRect() = %v, want %v", got, want)
	}
	if got := g.NeedRect(r); got != want {
		t.Errorf("NeedRect() = %v, want %v", got, want)
	}
	if got := NewGaussianBlur(0).ChangeRect(r); got != r {
		t.Errorf("zero radius ChangeRect() = %v, want %v", got, r)
	}
}

func TestGaussianBlurApply(t *testing.T) {
	src := paint.NewDevice(paint.RGBA8, nil)
	src.Fill(image.Rect(0, 0, 32, 32), opaqueRed)
	dst := paint.NewDevice(paint.RGBA8, nil)

	rc := image.Rect(0, 0, 40, 40)
	NewGaussianBlur(1).Apply(src, dst, rc)

	if c := dst.Pixel(10, 10); !isRed(c) || c.A != 255 {
		t.Errorf("interior pixel = %v, want opaque red", c)
	}
	edge := dst.Pixel(32, 10)
	if edge.A == 0 || edge.A == 255 {
		t.Errorf("edge pixel = %v, want partly opaque", edge)
	}
	if c := dst.Pixel(38, 10); !isClear(c) {
		t.Errorf("pixel beyond the kernel = %v, want transparent", c)
	}
}

// =============================================================================
// Color matrix
// =============================================================================

func TestColorMatrixApply(t *testing.T) {
	half := color.RGBA{R: 100, G: 50, A: 128}
	tests := []struct {
		name string
		m    ColorMatrix
		in   color.RGBA
		want color.RGBA
	}{
		{"brightness keeps", NewBrightness(1), opaqueRed, opaqueRed},
		{"brightness zero", NewBrightness(0), opaqueRed, color.RGBA{A: 255}},
		{"grayscale", NewGrayscale(), opaqueRed, color.RGBA{R: 54, G: 54, B: 54, A: 255}},
		{"saturation keeps premultiplied", NewSaturation(1), half, half},
		{"transparent stays", NewSepia(), color.RGBA{}, color.RGBA{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := paint.NewDevice(paint.RGBA8, nil)
			src.SetPixel(0, 0, tt.in)
			dst := paint.NewDevice(paint.RGBA8, nil)
			tt.m.Apply(src, dst, image.Rect(0, 0, 1, 1))
			got := dst.Pixel(0, 0)
			if diff(got.R, tt.want.R) > 1 || diff(got.G, tt.want.G) > 1 ||
				diff(got.B, tt.want.B) > 1 || got.A != tt.want.A {
				t.Errorf("Apply(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestColorMatrixInFilterMask(t *testing.T) {
	img, _ := newTestImage(t)
	layer := addFilledLayer(t, img, "paint", image.Rect(0, 0, 8, 8))
	if err := layer.AddChild(NewFilterMask(img, "gray", NewGrayscale())); err != nil {
		t.Fatalf("AddChild() error = %v", err)
	}
	img.WaitForDone()

	c := img.Projection().RGBAAt(4, 4)
	if c.R != c.G || c.G != c.B || c.A != 255 {
		t.Errorf("projection pixel = %v, want opaque gray", c)
	}
}

func diff(a, b uint8) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}

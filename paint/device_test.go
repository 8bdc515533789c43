// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package paint

import (
	"bytes"
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/gogpu/imagegraph/transform"
)

var (
	red   = color.RGBA{R: 255, A: 255}
	green = color.RGBA{G: 255, A: 255}
)

// =============================================================================
// Device Tests
// =============================================================================

func TestDevice_FillAndBounds(t *testing.T) {
	d := NewDevice(RGBA8, FixedBounds(image.Rect(0, 0, 200, 200)))
	d.Fill(image.Rect(10, 20, 30, 40), red)

	if got, want := d.ExactBounds(), image.Rect(10, 20, 30, 40); got != want {
		t.Errorf("ExactBounds() = %v, want %v", got, want)
	}
	if got, want := d.Extent(), image.Rect(0, 0, 64, 64); got != want {
		t.Errorf("Extent() = %v, want %v", got, want)
	}
	if got := d.Pixel(15, 25); got != red {
		t.Errorf("Pixel(15,25) = %v, want red", got)
	}
	if got := d.Pixel(5, 5); got != (color.RGBA{}) {
		t.Errorf("Pixel(5,5) = %v, want transparent", got)
	}
}

func TestDevice_NegativeCoordinates(t *testing.T) {
	d := NewDevice(RGBA8, nil)
	d.Fill(image.Rect(-10, -10, 10, 10), green)

	if d.TileCount() != 4 {
		t.Errorf("TileCount() = %d, want 4", d.TileCount())
	}
	if got, want := d.ExactBounds(), image.Rect(-10, -10, 10, 10); got != want {
		t.Errorf("ExactBounds() = %v, want %v", got, want)
	}
	if got := d.Pixel(-1, -1); got != green {
		t.Errorf("Pixel(-1,-1) = %v, want green", got)
	}
}

func TestDevice_Clear(t *testing.T) {
	tests := []struct {
		name  string
		clear image.Rectangle
		want  image.Rectangle
		tiles int
	}{
		{"all", image.Rect(0, 0, 128, 128), image.Rectangle{}, 0},
		{"left half", image.Rect(0, 0, 64, 128), image.Rect(64, 0, 100, 100), 2},
		{"partial", image.Rect(0, 0, 50, 100), image.Rect(50, 0, 100, 100), 4},
		{"outside", image.Rect(500, 500, 600, 600), image.Rect(0, 0, 100, 100), 4},
		{"empty", image.Rectangle{}, image.Rect(0, 0, 100, 100), 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDevice(RGBA8, nil)
			d.Fill(image.Rect(0, 0, 100, 100), red)
			d.Clear(tt.clear)

			if got := d.ExactBounds(); got != tt.want {
				t.Errorf("ExactBounds() = %v, want %v", got, tt.want)
			}
			if d.TileCount() != tt.tiles {
				t.Errorf("TileCount() = %d, want %d", d.TileCount(), tt.tiles)
			}
		})
	}
}

func TestDevice_ClearAll(t *testing.T) {
	d := NewDevice(RGBA8, nil)
	d.Fill(image.Rect(0, 0, 300, 300), red)
	d.ClearAll()

	if !d.Extent().Empty() {
		t.Errorf("Extent() after ClearAll = %v, want empty", d.Extent())
	}
}

func TestDevice_WriteTransparentDoesNotAllocate(t *testing.T) {
	d := NewDevice(RGBA8, nil)
	d.Write(image.NewRGBA(image.Rect(0, 0, 256, 256)), image.Rect(0, 0, 256, 256))

	if d.TileCount() != 0 {
		t.Errorf("TileCount() = %d, want 0", d.TileCount())
	}
}

func TestDevice_CopyArea(t *testing.T) {
	src := NewDevice(RGBA8, nil)
	src.Fill(image.Rect(0, 0, 40, 40), red)

	dst := NewDevice(RGBA8, nil)
	dst.Fill(image.Rect(0, 0, 100, 100), green)

	src.CopyArea(dst, image.Rect(20, 20, 60, 60))

	checks := []struct {
		x, y int
		want color.RGBA
	}{
		{10, 10, green},
		{30, 30, red},
		{50, 50, color.RGBA{}},
		{70, 70, green},
	}
	for _, c := range checks {
		if got := dst.Pixel(c.x, c.y); got != c.want {
			t.Errorf("Pixel(%d,%d) = %v, want %v", c.x, c.y, got, c.want)
		}
	}
}

func TestDevice_CopyAreaToSelf(t *testing.T) {
	d := NewDevice(RGBA8, nil)
	d.Fill(image.Rect(0, 0, 10, 10), red)
	d.CopyArea(d, image.Rect(0, 0, 10, 10))

	if got := d.Pixel(5, 5); got != red {
		t.Errorf("Pixel(5,5) = %v, want red", got)
	}
}

func TestDevice_CompositeOver(t *testing.T) {
	dst := NewDevice(RGBA8, nil)
	dst.Fill(image.Rect(0, 0, 10, 10), green)

	src := NewDevice(RGBA8, nil)
	src.Fill(image.Rect(0, 0, 5, 10), red)

	dst.CompositeOver(src, image.Rect(0, 0, 10, 10), 0xff)

	if got := dst.Pixel(2, 2); got != red {
		t.Errorf("Pixel(2,2) = %v, want red", got)
	}
	if got := dst.Pixel(7, 2); got != green {
		t.Errorf("Pixel(7,2) = %v, want green (transparent source)", got)
	}
}

func TestDevice_CompositeOverOpacity(t *testing.T) {
	dst := NewDevice(RGBA8, nil)
	src := NewDevice(RGBA8, nil)
	src.Fill(image.Rect(0, 0, 4, 4), red)

	dst.CompositeOver(src, image.Rect(0, 0, 4, 4), 128)

	got := dst.Pixel(1, 1)
	if got.A < 126 || got.A > 130 {
		t.Errorf("alpha = %d, want about 128", got.A)
	}
}

func TestDevice_CloneIsIndependent(t *testing.T) {
	d := NewDevice(RGBA8, nil)
	d.Fill(image.Rect(0, 0, 10, 10), red)

	c := d.Clone()
	d.Clear(image.Rect(0, 0, 10, 10))

	if got := c.Pixel(5, 5); got != red {
		t.Errorf("clone Pixel(5,5) = %v, want red", got)
	}
	if c.ColorSpace() != RGBA8 {
		t.Errorf("clone ColorSpace() = %v, want %v", c.ColorSpace(), RGBA8)
	}
}

// =============================================================================
// Transform Tests
// =============================================================================

func TestTransformAffine_IntegerTranslation(t *testing.T) {
	src := NewDevice(RGBA8, nil)
	src.Fill(image.Rect(0, 0, 10, 10), red)

	dst := NewDevice(RGBA8, nil)
	TransformAffine(dst, src, transform.Translate(20, 5), image.Rect(0, 0, 64, 64))

	if got, want := dst.ExactBounds(), image.Rect(20, 5, 30, 15); got != want {
		t.Errorf("ExactBounds() = %v, want %v", got, want)
	}
}

func TestTransformAffine_QuarterTurn(t *testing.T) {
	src := NewDevice(RGBA8, nil)
	src.Fill(image.Rect(0, 0, 40, 10), red)

	m := transform.RotateAt(math.Pi/2, 50, 50)
	rect := m.MapRect(src.ExactBounds())

	dst := NewDevice(RGBA8, nil)
	TransformAffine(dst, src, m, rect)

	if got := dst.ExactBounds(); got != rect {
		t.Errorf("ExactBounds() = %v, want %v", got, rect)
	}
	if got := dst.Pixel(rect.Min.X+2, rect.Min.Y+2); got != red {
		t.Errorf("interior pixel = %v, want red", got)
	}
}

func TestTransformAffine_Singular(t *testing.T) {
	src := NewDevice(RGBA8, nil)
	src.Fill(image.Rect(0, 0, 10, 10), red)

	dst := NewDevice(RGBA8, nil)
	dst.Fill(image.Rect(0, 0, 10, 10), green)
	TransformAffine(dst, src, transform.Scale(0, 1), image.Rect(0, 0, 10, 10))

	if !dst.ExactBounds().Empty() {
		t.Errorf("singular transform left %v", dst.ExactBounds())
	}
}

func TestTransformPerspective_MatchesAffine(t *testing.T) {
	src := NewDevice(RGBA8, nil)
	src.Fill(image.Rect(0, 0, 16, 16), red)

	p := transform.PerspectiveFromAffine(transform.Translate(8, 8))
	dst := NewDevice(RGBA8, nil)
	TransformPerspective(dst, src, p, image.Rect(0, 0, 64, 64))

	if got, want := dst.ExactBounds(), image.Rect(8, 8, 24, 24); got != want {
		t.Errorf("ExactBounds() = %v, want %v", got, want)
	}
	if got := dst.Pixel(12, 12); got != red {
		t.Errorf("Pixel(12,12) = %v, want red", got)
	}
}

func TestColorSpace(t *testing.T) {
	if !(ColorSpace{}).IsZero() {
		t.Error("zero ColorSpace should report IsZero")
	}
	if RGBA8.IsZero() {
		t.Error("RGBA8 should not be zero")
	}
	if Alpha8.BytesPerPixel() != 1 || RGBA8.BytesPerPixel() != 4 || BGRA8.BytesPerPixel() != 4 {
		t.Errorf("BytesPerPixel() = %d/%d/%d, want 1/4/4",
			Alpha8.BytesPerPixel(), RGBA8.BytesPerPixel(), BGRA8.BytesPerPixel())
	}
	if RGBA8 == BGRA8 {
		t.Error("distinct color spaces compare equal")
	}
}

// =============================================================================
// Texture data
// =============================================================================

func TestDeviceTextureData(t *testing.T) {
	px := color.RGBA{R: 10, G: 20, B: 30, A: 200}
	tests := []struct {
		cs    ColorSpace
		want  []byte
		pitch uint32
	}{
		{RGBA8, []byte{10, 20, 30, 200}, 512},
		{BGRA8, []byte{30, 20, 10, 200}, 512},
		{Alpha8, []byte{200}, 256},
	}
	for _, tt := range tests {
		t.Run(tt.cs.String(), func(t *testing.T) {
			d := NewDevice(tt.cs, nil)
			d.Fill(image.Rect(0, 0, 100, 3), px)

			r := image.Rect(2, 1, 72, 3)
			td := d.TextureData(r)
			if td.Format != tt.cs.Format {
				t.Errorf("Format = %v, want %v", td.Format, tt.cs.Format)
			}
			if td.Layout.BytesPerRow != tt.pitch || td.Layout.RowsPerImage != 2 {
				t.Errorf("Layout = %+v, want %d bytes per row and 2 rows", td.Layout, tt.pitch)
			}
			if td.Size.Width != 70 || td.Size.Height != 2 || td.Size.DepthOrArrayLayers != 1 {
				t.Errorf("Size = %+v, want 70x2x1", td.Size)
			}
			if len(td.Pix) != int(tt.pitch)*2 {
				t.Fatalf("len(Pix) = %d, want %d", len(td.Pix), tt.pitch*2)
			}

			bpp := tt.cs.BytesPerPixel()
			for _, off := range []int{0, 69 * bpp, int(tt.pitch) + 35*bpp} {
				if got := td.Pix[off : off+bpp]; !bytes.Equal(got, tt.want) {
					t.Errorf("pixel at byte %d = %v, want %v", off, got, tt.want)
				}
			}
			// Row padding stays zero.
			if pad := td.Pix[70*bpp]; pad != 0 {
				t.Errorf("padding byte = %d, want 0", pad)
			}
		})
	}
}

func TestDeviceTextureDataEmpty(t *testing.T) {
	d := NewDevice(BGRA8, nil)
	td := d.TextureData(image.Rectangle{})
	if td.Pix != nil || td.Size.Width != 0 {
		t.Errorf("TextureData(empty) = %+v, want no pixels", td)
	}
	if td.Format != BGRA8.Format {
		t.Errorf("Format = %v, want %v", td.Format, BGRA8.Format)
	}
}

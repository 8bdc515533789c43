// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package paint provides the tiled pixel storage behind layers, masks and
// caches of the node graph.
//
// A Device stores premultiplied RGBA pixels in 64x64 tiles that are
// allocated on first write and released when cleared, so a device covering
// a large canvas only costs memory where it has content. The graph treats
// devices as opaque bitmaps and uses four operations on them: Clear,
// Extent, ExactBounds and CopyArea.
package paint

import (
	"image"
	"image/color"
	"sync"

	"golang.org/x/image/draw"
)

// DefaultBounds supplies the nominal bounds of a device: the image rect a
// device without content is assumed to span, and the level of detail it
// is currently rendered at.
type DefaultBounds interface {
	Bounds() image.Rectangle
	CurrentLevelOfDetail() int
}

// FixedBounds is a DefaultBounds with constant bounds at full resolution.
type FixedBounds image.Rectangle

// Bounds returns the rectangle.
func (b FixedBounds) Bounds() image.Rectangle { return image.Rectangle(b) }

// CurrentLevelOfDetail always returns 0.
func (FixedBounds) CurrentLevelOfDetail() int { return 0 }

// Device is a sparse tiled bitmap.
//
// Thread safety: all methods are safe for concurrent use. Operations
// involving two devices never hold both locks at once.
type Device struct {
	mu     sync.RWMutex
	tiles  map[image.Point]*image.RGBA
	cs     ColorSpace
	bounds DefaultBounds
}

// NewDevice creates an empty device. A nil bounds provider is replaced by
// empty FixedBounds.
func NewDevice(cs ColorSpace, bounds DefaultBounds) *Device {
	if bounds == nil {
		bounds = FixedBounds{}
	}
	return &Device{
		tiles:  make(map[image.Point]*image.RGBA),
		cs:     cs,
		bounds: bounds,
	}
}

// ColorSpace returns the color space of the device.
func (d *Device) ColorSpace() ColorSpace {
	return d.cs
}

// DefaultBounds returns the bounds provider.
func (d *Device) DefaultBounds() DefaultBounds {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.bounds
}

// SetDefaultBounds replaces the bounds provider.
func (d *Device) SetDefaultBounds(b DefaultBounds) {
	if b == nil {
		b = FixedBounds{}
	}
	d.mu.Lock()
	d.bounds = b
	d.mu.Unlock()
}

// forTiles calls fn for every tile index overlapping r, with the part of
// r inside that tile.
func forTiles(r image.Rectangle, fn func(key image.Point, piece image.Rectangle)) {
	if r.Empty() {
		return
	}
	k0 := tileKey(r.Min.X, r.Min.Y)
	k1 := tileKey(r.Max.X-1, r.Max.Y-1)
	for ty := k0.Y; ty <= k1.Y; ty++ {
		for tx := k0.X; tx <= k1.X; tx++ {
			key := image.Pt(tx, ty)
			fn(key, tileRect(key).Intersect(r))
		}
	}
}

// Extent returns the union of the allocated tiles. It is a cheap upper
// bound of ExactBounds.
func (d *Device) Extent() image.Rectangle {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var r image.Rectangle
	for key := range d.tiles {
		r = r.Union(tileRect(key))
	}
	return r
}

// ExactBounds returns the smallest rectangle containing every pixel with
// non-zero alpha.
func (d *Device) ExactBounds() image.Rectangle {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var r image.Rectangle
	for _, t := range d.tiles {
		r = r.Union(opaqueBounds(t, t.Rect))
	}
	return r
}

// opaqueBounds returns the bounds of the non-transparent pixels of img
// within r.
func opaqueBounds(img *image.RGBA, r image.Rectangle) image.Rectangle {
	minX, minY := r.Max.X, r.Max.Y
	maxX, maxY := r.Min.X-1, r.Min.Y-1
	for y := r.Min.Y; y < r.Max.Y; y++ {
		off := img.PixOffset(r.Min.X, y)
		for x := r.Min.X; x < r.Max.X; x++ {
			if img.Pix[off+3] != 0 {
				minX, maxX = min(minX, x), max(maxX, x)
				minY, maxY = min(minY, y), max(maxY, y)
			}
			off += 4
		}
	}
	if maxX < minX {
		return image.Rectangle{}
	}
	return image.Rect(minX, minY, maxX+1, maxY+1)
}

func transparent(img image.Image, r image.Rectangle) bool {
	if rgba, ok := img.(*image.RGBA); ok {
		return opaqueBounds(rgba, r.Intersect(rgba.Rect)).Empty()
	}
	if u, ok := img.(*image.Uniform); ok {
		_, _, _, a := u.C.RGBA()
		return a == 0
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if _, _, _, a := img.At(x, y).RGBA(); a != 0 {
				return false
			}
		}
	}
	return true
}

// TileCount returns the number of allocated tiles.
func (d *Device) TileCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.tiles)
}

// Pixel returns the pixel at (x, y).
func (d *Device) Pixel(x, y int) color.RGBA {
	d.mu.RLock()
	defer d.mu.RUnlock()

	t := d.tiles[tileKey(x, y)]
	if t == nil {
		return color.RGBA{}
	}
	return t.RGBAAt(x, y)
}

// SetPixel replaces the pixel at (x, y).
func (d *Device) SetPixel(x, y int, c color.Color) {
	d.Fill(image.Rect(x, y, x+1, y+1), c)
}

// Fill replaces the pixels of r with c.
func (d *Device) Fill(r image.Rectangle, c color.Color) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.writeLocked(image.NewUniform(c), r, draw.Src, nil)
}

// Write replaces the pixels of r with the pixels of src at the same
// coordinates.
func (d *Device) Write(src image.Image, r image.Rectangle) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.writeLocked(src, r, draw.Src, nil)
}

func (d *Device) writeLocked(src image.Image, r image.Rectangle, op draw.Op, mask image.Image) {
	forTiles(r, func(key image.Point, piece image.Rectangle) {
		t := d.tiles[key]
		if t == nil {
			if transparent(src, piece) {
				return
			}
			t = getTile(key)
			d.tiles[key] = t
		}
		if mask != nil {
			draw.DrawMask(t, piece, src, piece.Min, mask, image.Point{}, op)
		} else {
			draw.Draw(t, piece, src, piece.Min, op)
		}
		if op == draw.Src && opaqueBounds(t, t.Rect).Empty() {
			delete(d.tiles, key)
			putTile(t)
		}
	})
}

// Clear makes the pixels of r transparent. Tiles that become empty are
// released.
func (d *Device) Clear(r image.Rectangle) {
	d.mu.Lock()
	defer d.mu.Unlock()

	forTiles(r, func(key image.Point, piece image.Rectangle) {
		t := d.tiles[key]
		if t == nil {
			return
		}
		if piece != t.Rect {
			for y := piece.Min.Y; y < piece.Max.Y; y++ {
				off := t.PixOffset(piece.Min.X, y)
				clear(t.Pix[off : off+piece.Dx()*4])
			}
			if !opaqueBounds(t, t.Rect).Empty() {
				return
			}
		}
		delete(d.tiles, key)
		putTile(t)
	})
}

// ClearAll releases every tile.
func (d *Device) ClearAll() {
	d.mu.Lock()
	defer d.mu.Unlock()

	for key, t := range d.tiles {
		delete(d.tiles, key)
		putTile(t)
	}
}

// ReadRGBA returns a copy of the pixels of r. The returned image has
// bounds r.
func (d *Device) ReadRGBA(r image.Rectangle) *image.RGBA {
	out := image.NewRGBA(r)

	d.mu.RLock()
	defer d.mu.RUnlock()

	forTiles(r, func(key image.Point, piece image.Rectangle) {
		if t := d.tiles[key]; t != nil {
			draw.Draw(out, piece, t, piece.Min, draw.Src)
		}
	})
	return out
}

// CopyArea replaces the pixels of r in dst with the pixels of d.
func (d *Device) CopyArea(dst *Device, r image.Rectangle) {
	if r.Empty() {
		return
	}
	snapshot := d.ReadRGBA(r)
	dst.Write(snapshot, r)
}

// CompositeOver blends the pixels of r from src over d using the Porter-Duff
// over operator, scaled by opacity.
func (d *Device) CompositeOver(src *Device, r image.Rectangle, opacity uint8) {
	if r.Empty() || opacity == 0 {
		return
	}
	snapshot := src.ReadRGBA(r)

	var mask image.Image
	if opacity != 0xff {
		mask = image.NewUniform(color.Alpha{A: opacity})
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.writeLocked(snapshot, r, draw.Over, mask)
}

// Clone returns a deep copy of d sharing the color space and bounds
// provider.
func (d *Device) Clone() *Device {
	d.mu.RLock()
	defer d.mu.RUnlock()

	c := NewDevice(d.cs, d.bounds)
	for key, t := range d.tiles {
		nt := getTile(key)
		copy(nt.Pix, t.Pix)
		c.tiles[key] = nt
	}
	return c
}

// Image returns a copy of the device content within its extent.
func (d *Device) Image() *image.RGBA {
	return d.ReadRGBA(d.Extent())
}

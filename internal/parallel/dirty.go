// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package parallel

import (
	"image"
	"math/bits"
	"sync/atomic"
)

// TileSize is the edge length of a square tile in pixels.
// 64 pixels keeps an RGBA tile at 16KB, which fits L1 cache.
const TileSize = 64

// DirtyRegion tracks which tiles of the image projection changed since the
// last time the consumer collected them. It is an atomic bitmap with one
// bit per tile, so producers (update jobs) and the consumer (the canvas)
// never contend on a lock.
//
// All methods are safe for concurrent use without external synchronization.
type DirtyRegion struct {
	words  []atomic.Uint64
	bounds image.Rectangle
	tilesX int
	tilesY int
}

// NewDirtyRegion creates a tracker for the given image bounds.
// All tiles start clean. Returns nil if bounds is empty.
func NewDirtyRegion(bounds image.Rectangle) *DirtyRegion {
	if bounds.Empty() {
		return nil
	}
	tilesX := (bounds.Dx() + TileSize - 1) / TileSize
	tilesY := (bounds.Dy() + TileSize - 1) / TileSize
	return &DirtyRegion{
		words:  make([]atomic.Uint64, (tilesX*tilesY+63)/64),
		bounds: bounds,
		tilesX: tilesX,
		tilesY: tilesY,
	}
}

func (d *DirtyRegion) mark(tx, ty int) {
	idx := ty*d.tilesX + tx
	d.words[idx/64].Or(1 << (idx & 63))
}

// MarkRect marks every tile intersecting r. Parts of r outside the image
// bounds are ignored.
func (d *DirtyRegion) MarkRect(r image.Rectangle) {
	r = r.Intersect(d.bounds)
	if r.Empty() {
		return
	}
	tx0 := (r.Min.X - d.bounds.Min.X) / TileSize
	ty0 := (r.Min.Y - d.bounds.Min.Y) / TileSize
	tx1 := (r.Max.X - 1 - d.bounds.Min.X) / TileSize
	ty1 := (r.Max.Y - 1 - d.bounds.Min.Y) / TileSize
	for ty := ty0; ty <= ty1; ty++ {
		for tx := tx0; tx <= tx1; tx++ {
			d.mark(tx, ty)
		}
	}
}

// MarkAll marks every tile.
func (d *DirtyRegion) MarkAll() {
	total := d.tilesX * d.tilesY
	full := total / 64
	for i := 0; i < full; i++ {
		d.words[i].Store(^uint64(0))
	}
	if rem := total % 64; rem > 0 {
		d.words[full].Store((uint64(1) << rem) - 1)
	}
}

// Clear marks every tile clean.
func (d *DirtyRegion) Clear() {
	for i := range d.words {
		d.words[i].Store(0)
	}
}

// IsEmpty reports whether no tile is dirty.
func (d *DirtyRegion) IsEmpty() bool {
	for i := range d.words {
		if d.words[i].Load() != 0 {
			return false
		}
	}
	return true
}

// Count returns the number of dirty tiles.
func (d *DirtyRegion) Count() int {
	n := 0
	for i := range d.words {
		n += bits.OnesCount64(d.words[i].Load())
	}
	return n
}

// TakeRects atomically collects and clears the dirty tiles and returns
// them as pixel rectangles clipped to the image bounds. Horizontally
// adjacent dirty tiles of a row are merged into one rectangle.
func (d *DirtyRegion) TakeRects() []image.Rectangle {
	total := d.tilesX * d.tilesY
	dirty := make([]bool, total)
	found := false
	for w := range d.words {
		word := d.words[w].Swap(0)
		for word != 0 {
			bit := bits.TrailingZeros64(word)
			if idx := w*64 + bit; idx < total {
				dirty[idx] = true
				found = true
			}
			word &^= 1 << bit
		}
	}
	if !found {
		return nil
	}

	var rects []image.Rectangle
	for ty := 0; ty < d.tilesY; ty++ {
		for tx := 0; tx < d.tilesX; tx++ {
			if !dirty[ty*d.tilesX+tx] {
				continue
			}
			start := tx
			for tx+1 < d.tilesX && dirty[ty*d.tilesX+tx+1] {
				tx++
			}
			r := image.Rect(
				d.bounds.Min.X+start*TileSize,
				d.bounds.Min.Y+ty*TileSize,
				d.bounds.Min.X+(tx+1)*TileSize,
				d.bounds.Min.Y+(ty+1)*TileSize,
			)
			rects = append(rects, r.Intersect(d.bounds))
		}
	}
	return rects
}

// Bounds returns the tracked image bounds.
func (d *DirtyRegion) Bounds() image.Rectangle {
	return d.bounds
}

// TotalTiles returns the number of tiles covering the bounds.
func (d *DirtyRegion) TotalTiles() int {
	return d.tilesX * d.tilesY
}

// SplitTiles cuts r along the tile grid anchored at the origin. The
// pieces are disjoint and can be processed by independent workers.
func SplitTiles(r image.Rectangle) []image.Rectangle {
	if r.Empty() {
		return nil
	}
	var out []image.Rectangle
	for y := floorTile(r.Min.Y); y < r.Max.Y; y += TileSize {
		for x := floorTile(r.Min.X); x < r.Max.X; x += TileSize {
			piece := image.Rect(x, y, x+TileSize, y+TileSize).Intersect(r)
			if !piece.Empty() {
				out = append(out, piece)
			}
		}
	}
	return out
}

func floorTile(v int) int {
	if v >= 0 {
		return v / TileSize * TileSize
	}
	return -((-v + TileSize - 1) / TileSize * TileSize)
}

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package paint

import (
	"image"
	"sync"
)

// TileSize is the edge length of a device tile in pixels.
const TileSize = 64

// tilePool recycles tile buffers so that clearing and reallocating large
// areas (projection rebuilds, cache regeneration) does not churn the GC.
var tilePool = sync.Pool{
	New: func() any {
		return image.NewRGBA(image.Rect(0, 0, TileSize, TileSize))
	},
}

// getTile returns a transparent tile positioned at tile index key.
func getTile(key image.Point) *image.RGBA {
	t := tilePool.Get().(*image.RGBA)
	clear(t.Pix)
	t.Rect = tileRect(key)
	return t
}

func putTile(t *image.RGBA) {
	if t == nil || len(t.Pix) != TileSize*TileSize*4 {
		return
	}
	tilePool.Put(t)
}

// tileRect returns the pixel rectangle of tile key.
func tileRect(key image.Point) image.Rectangle {
	x, y := key.X*TileSize, key.Y*TileSize
	return image.Rect(x, y, x+TileSize, y+TileSize)
}

// tileKey returns the index of the tile containing pixel (x, y).
func tileKey(x, y int) image.Point {
	return image.Pt(floorDiv(x, TileSize), floorDiv(y, TileSize))
}

func floorDiv(v, d int) int {
	q := v / d
	if v%d != 0 && v < 0 {
		q--
	}
	return q
}

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package parallel

import (
	"image"
	"sync"
	"testing"
)

// =============================================================================
// DirtyRegion Creation Tests
// =============================================================================

func TestDirtyRegion_Create(t *testing.T) {
	tests := []struct {
		name   string
		bounds image.Rectangle
		tiles  int
	}{
		{"exact", image.Rect(0, 0, 128, 128), 4},
		{"partial", image.Rect(0, 0, 100, 65), 4},
		{"single", image.Rect(0, 0, 10, 10), 1},
		{"offset", image.Rect(-64, -64, 64, 64), 4},
		{"wide", image.Rect(0, 0, 640, 64), 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDirtyRegion(tt.bounds)
			if d.TotalTiles() != tt.tiles {
				t.Errorf("TotalTiles() = %d, want %d", d.TotalTiles(), tt.tiles)
			}
			if !d.IsEmpty() {
				t.Error("new region should be clean")
			}
			if d.Bounds() != tt.bounds {
				t.Errorf("Bounds() = %v, want %v", d.Bounds(), tt.bounds)
			}
		})
	}
}

func TestDirtyRegion_CreateEmpty(t *testing.T) {
	if d := NewDirtyRegion(image.Rectangle{}); d != nil {
		t.Error("NewDirtyRegion(empty) should return nil")
	}
}

// =============================================================================
// Mark Tests
// =============================================================================

func TestDirtyRegion_MarkRect(t *testing.T) {
	tests := []struct {
		name  string
		rect  image.Rectangle
		count int
	}{
		{"inside one tile", image.Rect(1, 1, 10, 10), 1},
		{"tile edge", image.Rect(0, 0, 64, 64), 1},
		{"crosses edge", image.Rect(60, 0, 70, 10), 2},
		{"four tiles", image.Rect(60, 60, 70, 70), 4},
		{"outside", image.Rect(500, 500, 600, 600), 0},
		{"clipped", image.Rect(-100, -100, 10, 10), 1},
		{"empty", image.Rect(10, 10, 10, 20), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDirtyRegion(image.Rect(0, 0, 256, 256))
			d.MarkRect(tt.rect)
			if d.Count() != tt.count {
				t.Errorf("Count() = %d, want %d", d.Count(), tt.count)
			}
		})
	}
}

func TestDirtyRegion_MarkAllAndClear(t *testing.T) {
	d := NewDirtyRegion(image.Rect(0, 0, 1000, 700))
	d.MarkAll()
	if d.Count() != d.TotalTiles() {
		t.Errorf("after MarkAll Count() = %d, want %d", d.Count(), d.TotalTiles())
	}
	d.Clear()
	if !d.IsEmpty() {
		t.Error("after Clear region should be empty")
	}
}

// =============================================================================
// TakeRects Tests
// =============================================================================

func TestDirtyRegion_TakeRects(t *testing.T) {
	d := NewDirtyRegion(image.Rect(0, 0, 200, 100))
	d.MarkRect(image.Rect(10, 10, 130, 20))

	rects := d.TakeRects()
	if len(rects) != 1 {
		t.Fatalf("TakeRects() returned %d rects, want 1 merged row: %v", len(rects), rects)
	}
	if want := image.Rect(0, 0, 192, 64); rects[0] != want {
		t.Errorf("rect = %v, want %v", rects[0], want)
	}
	if !d.IsEmpty() {
		t.Error("TakeRects should clear the region")
	}
	if again := d.TakeRects(); again != nil {
		t.Errorf("second TakeRects() = %v, want nil", again)
	}
}

func TestDirtyRegion_TakeRectsClipped(t *testing.T) {
	d := NewDirtyRegion(image.Rect(0, 0, 100, 100))
	d.MarkAll()

	var area int
	for _, r := range d.TakeRects() {
		if !r.In(d.Bounds()) {
			t.Errorf("rect %v outside bounds", r)
		}
		area += r.Dx() * r.Dy()
	}
	if area != 100*100 {
		t.Errorf("covered area = %d, want 10000", area)
	}
}

func TestDirtyRegion_ConcurrentMarkAndTake(t *testing.T) {
	d := NewDirtyRegion(image.Rect(0, 0, 512, 512))

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range 100 {
				x := (i*64 + j) % 512
				d.MarkRect(image.Rect(x, x, x+1, x+1))
			}
		}()
	}

	taken := make(map[image.Rectangle]bool)
	var mu sync.Mutex
	wg.Add(1)
	go func() {
		defer wg.Done()
		for range 50 {
			for _, r := range d.TakeRects() {
				mu.Lock()
				taken[r] = true
				mu.Unlock()
			}
		}
	}()
	wg.Wait()

	for _, r := range d.TakeRects() {
		taken[r] = true
	}
	if len(taken) == 0 {
		t.Error("no dirty rects were collected")
	}
}

// =============================================================================
// SplitTiles Tests
// =============================================================================

func TestSplitTiles(t *testing.T) {
	tests := []struct {
		name   string
		rect   image.Rectangle
		pieces int
	}{
		{"empty", image.Rectangle{}, 0},
		{"inside", image.Rect(1, 1, 5, 5), 1},
		{"aligned", image.Rect(0, 0, 128, 64), 2},
		{"straddle", image.Rect(60, 60, 70, 70), 4},
		{"negative", image.Rect(-10, -10, 10, 10), 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pieces := SplitTiles(tt.rect)
			if len(pieces) != tt.pieces {
				t.Fatalf("SplitTiles(%v) = %d pieces, want %d", tt.rect, len(pieces), tt.pieces)
			}
			area := 0
			for _, p := range pieces {
				if !p.In(tt.rect) {
					t.Errorf("piece %v outside %v", p, tt.rect)
				}
				area += p.Dx() * p.Dy()
			}
			if area != tt.rect.Dx()*tt.rect.Dy() {
				t.Errorf("pieces cover %d pixels, want %d", area, tt.rect.Dx()*tt.rect.Dy())
			}
		})
	}
}

// =============================================================================
// Benchmarks
// =============================================================================

func BenchmarkDirtyRegion_MarkRect(b *testing.B) {
	d := NewDirtyRegion(image.Rect(0, 0, 4096, 4096))
	r := image.Rect(100, 100, 900, 900)
	for b.Loop() {
		d.MarkRect(r)
	}
}

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package imagegraph

import (
	"image"
	"sync"

	"github.com/gogpu/imagegraph/paint"
	"github.com/gogpu/imagegraph/region"
)

// Filter is a pixel filter applied by a FilterMask.
type Filter interface {
	// ChangeRect returns the output pixels affected by input rect.
	ChangeRect(rect image.Rectangle) image.Rectangle
	// NeedRect returns the input pixels needed for output rect.
	NeedRect(rect image.Rectangle) image.Rectangle
	// Apply writes rc of the filtered src into dst.
	Apply(src, dst *paint.Device, rc image.Rectangle)
}

// FilterMask applies a Filter to the pixels of its layer.
type FilterMask struct {
	*Node

	mu     sync.RWMutex
	filter Filter
}

// NewFilterMask creates a detached filter mask. A nil filter passes
// pixels through.
func NewFilterMask(img *Image, name string, f Filter) *FilterMask {
	m := &FilterMask{Node: newNode(img, name), filter: f}
	m.behavior = m
	return m
}

// Kind returns KindFilterMask.
func (m *FilterMask) Kind() NodeKind { return KindFilterMask }

// Accept calls v.VisitFilterMask.
func (m *FilterMask) Accept(v Visitor) bool { return v.VisitFilterMask(m) }

// Filter returns the current filter.
func (m *FilterMask) Filter() Filter {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.filter
}

// SetFilter replaces the filter and refreshes the layer.
func (m *FilterMask) SetFilter(f Filter) {
	old := m.footprint()
	m.mu.Lock()
	m.filter = f
	m.mu.Unlock()

	m.notifyChanged()
	if img := m.Image(); img != nil {
		img.RequestProjectionUpdate(m, region.Union(old, m.footprint()))
	}
}

// ChangeRect grows rect by the filter reach.
func (m *FilterMask) ChangeRect(rect image.Rectangle, _ Position) image.Rectangle {
	f := m.Filter()
	if rect.Empty() || f == nil {
		return rect
	}
	return f.ChangeRect(rect)
}

// NeedRect grows rect by the filter reach.
func (m *FilterMask) NeedRect(rect image.Rectangle, _ Position) image.Rectangle {
	f := m.Filter()
	if rect.Empty() || f == nil {
		return rect
	}
	return f.NeedRect(rect)
}

// DecorateRect filters rc of src into dst.
func (m *FilterMask) DecorateRect(src, dst *paint.Device, rc image.Rectangle, _ Position, _ RenderFlags) image.Rectangle {
	f := m.Filter()
	if f == nil {
		src.CopyArea(dst, rc)
		return rc
	}
	f.Apply(src, dst, rc)
	return rc
}

// BoxBlur averages every pixel with its neighbours within Radius.
type BoxBlur struct {
	Radius int
}

// ChangeRect grows rect by the radius.
func (b BoxBlur) ChangeRect(rect image.Rectangle) image.Rectangle {
	return region.Grow(rect, max(b.Radius, 0))
}

// NeedRect grows rect by the radius.
func (b BoxBlur) NeedRect(rect image.Rectangle) image.Rectangle {
	return region.Grow(rect, max(b.Radius, 0))
}

// Apply blurs rc of src into dst with a separable box kernel.
func (b BoxBlur) Apply(src, dst *paint.Device, rc image.Rectangle) {
	if rc.Empty() {
		return
	}
	r := max(b.Radius, 0)
	if r == 0 {
		src.CopyArea(dst, rc)
		return
	}

	in := src.ReadRGBA(region.Grow(rc, r))
	// Horizontal pass over the rows needed by the vertical pass.
	rows := image.Rect(rc.Min.X, rc.Min.Y-r, rc.Max.X, rc.Max.Y+r)
	tmp := image.NewRGBA(rows)
	n := uint32(2*r + 1)
	for y := rows.Min.Y; y < rows.Max.Y; y++ {
		for x := rows.Min.X; x < rows.Max.X; x++ {
			var sum [4]uint32
			for k := x - r; k <= x+r; k++ {
				o := in.PixOffset(k, y)
				for c := range 4 {
					sum[c] += uint32(in.Pix[o+c])
				}
			}
			o := tmp.PixOffset(x, y)
			for c := range 4 {
				tmp.Pix[o+c] = uint8(sum[c] / n)
			}
		}
	}

	out := image.NewRGBA(rc)
	for y := rc.Min.Y; y < rc.Max.Y; y++ {
		for x := rc.Min.X; x < rc.Max.X; x++ {
			var sum [4]uint32
			for k := y - r; k <= y+r; k++ {
				o := tmp.PixOffset(x, k)
				for c := range 4 {
					sum[c] += uint32(tmp.Pix[o+c])
				}
			}
			o := out.PixOffset(x, y)
			for c := range 4 {
				out.Pix[o+c] = uint8(sum[c] / n)
			}
		}
	}
	dst.Write(out, rc)
}

// Invert inverts the color channels and keeps alpha.
type Invert struct{}

// ChangeRect returns rect.
func (Invert) ChangeRect(rect image.Rectangle) image.Rectangle { return rect }

// NeedRect returns rect.
func (Invert) NeedRect(rect image.Rectangle) image.Rectangle { return rect }

// Apply inverts rc of src into dst. Channels are premultiplied, so the
// inverse of c is alpha-c.
func (Invert) Apply(src, dst *paint.Device, rc image.Rectangle) {
	if rc.Empty() {
		return
	}
	px := src.ReadRGBA(rc)
	for i := 0; i+3 < len(px.Pix); i += 4 {
		a := px.Pix[i+3]
		px.Pix[i] = a - px.Pix[i]
		px.Pix[i+1] = a - px.Pix[i+1]
		px.Pix[i+2] = a - px.Pix[i+2]
	}
	dst.Write(px, rc)
}

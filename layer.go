// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package imagegraph

import (
	"image"

	"github.com/gogpu/imagegraph/internal/parallel"
	"github.com/gogpu/imagegraph/paint"
	"github.com/gogpu/imagegraph/region"
)

// Layer is a paint or group layer.
//
// The original device holds the layer content: painted pixels for a paint
// layer, the composite of the child layers for a group. Visible effect
// masks are applied on top of the original into the projection, which is
// what the parent composites.
type Layer struct {
	*Node

	group      bool
	original   *paint.Device
	projection *paint.Device
}

// NewPaintLayer creates a detached paint layer of img.
func NewPaintLayer(img *Image, name string) *Layer {
	return newLayer(img, name, false)
}

// NewGroupLayer creates a detached group layer of img.
func NewGroupLayer(img *Image, name string) *Layer {
	return newLayer(img, name, true)
}

func newLayer(img *Image, name string, group bool) *Layer {
	l := &Layer{Node: newNode(img, name), group: group}
	l.behavior = l

	cs, bounds := deviceDefaults(img)
	l.original = paint.NewDevice(cs, bounds)
	l.projection = paint.NewDevice(cs, bounds)
	return l
}

// deviceDefaults returns the color space and bounds provider for devices
// created on behalf of img.
func deviceDefaults(img *Image) (paint.ColorSpace, paint.DefaultBounds) {
	if img == nil {
		return paint.RGBA8, paint.FixedBounds{}
	}
	return img.ColorSpace(), img.defaultBounds
}

// Kind returns KindGroupLayer or KindPaintLayer.
func (l *Layer) Kind() NodeKind {
	if l.group {
		return KindGroupLayer
	}
	return KindPaintLayer
}

// Accept calls v.VisitLayer.
func (l *Layer) Accept(v Visitor) bool {
	return v.VisitLayer(l)
}

// IsGroup reports whether l is a group layer.
func (l *Layer) IsGroup() bool { return l.group }

// Original returns the layer content before masks.
func (l *Layer) Original() *paint.Device { return l.original }

// PaintDevice returns the device painted on, or nil for groups.
func (l *Layer) PaintDevice() *paint.Device {
	if l.group {
		return nil
	}
	return l.original
}

// Projection returns the layer content after masks. Without visible effect
// masks it is the original itself.
func (l *Layer) Projection() *paint.Device {
	if len(l.effectMasks(nil)) == 0 {
		return l.original
	}
	return l.projection
}

type maskEntry struct {
	node *Node
	mask effectMask
}

// effectMasks returns the visible effect masks below last, bottom first.
// A nil last returns all of them.
func (l *Layer) effectMasks(last *Node) []maskEntry {
	var masks []maskEntry
	for _, c := range l.Children() {
		if c == last {
			break
		}
		if !c.Visible() {
			continue
		}
		if m, ok := c.behavior.(effectMask); ok {
			masks = append(masks, maskEntry{node: c, mask: m})
		}
	}
	return masks
}

// EffectMasks returns the visible masks that alter the layer pixels.
func (l *Layer) EffectMasks() []*Node {
	masks := l.effectMasks(nil)
	nodes := make([]*Node, len(masks))
	for i, m := range masks {
		nodes[i] = m.node
	}
	return nodes
}

func masksChangeRect(masks []maskEntry, rect image.Rectangle) image.Rectangle {
	for _, m := range masks {
		rect = m.mask.ChangeRect(rect, NFilthy)
	}
	return rect
}

// masksNeedRect walks the masks top down. applyRects[i] receives the
// output rect of mask i and needRects[i] its input rect.
func masksNeedRect(masks []maskEntry, rect image.Rectangle) (applyRects, needRects []image.Rectangle) {
	applyRects = make([]image.Rectangle, len(masks))
	needRects = make([]image.Rectangle, len(masks))
	for i := len(masks) - 1; i >= 0; i-- {
		applyRects[i] = rect
		rect = masks[i].mask.NeedRect(rect, NFilthy)
		needRects[i] = rect
	}
	return applyRects, needRects
}

// ChangeRect returns the rect of projection pixels affected by a change of
// rect in the original. Only the edited layer maps the rect through its
// masks; for its neighbours the rect passes unchanged.
func (l *Layer) ChangeRect(rect image.Rectangle, pos Position) image.Rectangle {
	if rect.Empty() || pos != NFilthy {
		return rect
	}
	changed := masksChangeRect(l.effectMasks(nil), rect)
	if changed != rect {
		// Pixels the masks moved away from must be cleared too.
		changed = region.Union(changed, region.Intersect(l.Projection().ExactBounds(), rect))
	}
	return changed
}

// NeedRect returns the rect of original pixels needed to compute rect of
// the projection.
func (l *Layer) NeedRect(rect image.Rectangle, pos Position) image.Rectangle {
	if rect.Empty() || pos != NFilthy {
		return rect
	}
	masks := l.effectMasks(nil)
	if len(masks) == 0 {
		return rect
	}
	_, needs := masksNeedRect(masks, rect)
	return needs[0]
}

// PartialChangeRect maps rect through the visible masks below last.
func (l *Layer) PartialChangeRect(last NodeRef, rect image.Rectangle) image.Rectangle {
	return masksChangeRect(l.effectMasks(last.Base()), rect)
}

// OutgoingChangeRect maps rect through every visible effect mask.
func (l *Layer) OutgoingChangeRect(rect image.Rectangle) image.Rectangle {
	return masksChangeRect(l.effectMasks(nil), rect)
}

// changeRectFrom maps rect through the visible masks starting at from.
func (l *Layer) changeRectFrom(from *Node, rect image.Rectangle) image.Rectangle {
	started := false
	for _, m := range l.effectMasks(nil) {
		if m.node == from {
			started = true
		}
		if started {
			rect = m.mask.ChangeRect(rect, NFilthy)
		}
	}
	return rect
}

// ExactBounds returns the exact bounds of the layer content before masks.
func (l *Layer) ExactBounds() image.Rectangle {
	return l.original.ExactBounds()
}

// Extent returns the tile-aligned bounds of the layer content.
func (l *Layer) Extent() image.Rectangle {
	return l.original.Extent()
}

// OutputBounds returns the bounds of everything the layer shows or showed
// in its projection.
func (l *Layer) OutputBounds() image.Rectangle {
	return region.Union(l.ChangeRect(l.ExactBounds(), NFilthy), l.Projection().ExactBounds())
}

// positionToFilthy locates mask relative to filthy inside l. The masks of
// a group apply to the composite of all its child layers, so sibling
// order only matters when filthy is one of the masks.
func (l *Layer) positionToFilthy(mask, filthy *Node) Position {
	if filthy == nil || filthy == l.Node || filthy.Parent() != l.Node || !filthy.Kind().IsMask() {
		return NAboveFilthy
	}
	if mask == filthy {
		return NFilthy
	}
	for s := mask.PrevSibling(); s != nil; s = s.PrevSibling() {
		if s == filthy {
			return NAboveFilthy
		}
	}
	return NBelowFilthy
}

// UpdateProjection recomputes rect of the projection from the original.
// rect must already include the change rects of the masks. It returns
// the updated rect, which is empty for hidden layers.
func (l *Layer) UpdateProjection(rect image.Rectangle, filthy *Node, flags RenderFlags) image.Rectangle {
	if rect.Empty() || !l.Visible() {
		return image.Rectangle{}
	}
	masks := l.effectMasks(nil)
	if len(masks) == 0 {
		return rect
	}
	l.applyMasks(l.original, l.projection, rect, filthy, masks, flags)
	return rect
}

// applyMasks renders rect of src through masks into dst. Every mask reads
// a copy of its input and writes into a scratch device, so src and dst are
// never the same device while decorating.
func (l *Layer) applyMasks(src, dst *paint.Device, rect image.Rectangle, filthy *Node, masks []maskEntry, flags RenderFlags) {
	applyRects, needRects := masksNeedRect(masks, rect)

	scratch := paint.NewDevice(src.ColorSpace(), src.DefaultBounds())
	src.CopyArea(scratch, needRects[0])

	for i, m := range masks {
		input := paint.NewDevice(src.ColorSpace(), src.DefaultBounds())
		scratch.CopyArea(input, needRects[i])
		scratch.Clear(needRects[i])
		m.mask.DecorateRect(input, scratch, applyRects[i], l.positionToFilthy(m.node, filthy), flags)
	}

	scratch.CopyArea(dst, rect)
}

// BuildProjectionUpToNode renders rect of the original through the visible
// masks below last into dst.
func (l *Layer) BuildProjectionUpToNode(dst *paint.Device, last NodeRef, rect image.Rectangle) {
	if rect.Empty() {
		return
	}
	masks := l.effectMasks(last.Base())
	if len(masks) == 0 {
		l.CopyOriginalToProjection(l.original, dst, rect)
		return
	}
	l.applyMasks(l.original, dst, rect, last.Base(), masks, 0)
}

// CopyOriginalToProjection copies rect of original into dst.
func (l *Layer) CopyOriginalToProjection(original, dst *paint.Device, rect image.Rectangle) {
	original.CopyArea(dst, rect)
}

// composite rebuilds rect of a group original from the projections of its
// visible child layers. Tiles are composited in parallel.
func (l *Layer) composite(rect image.Rectangle, pool *parallel.WorkerPool) {
	if !l.group || rect.Empty() {
		return
	}
	var layers []*Layer
	for _, c := range l.Children() {
		if cl := c.Layer(); cl != nil && cl.Visible() {
			layers = append(layers, cl)
		}
	}

	pieces := parallel.SplitTiles(rect)
	tasks := make([]func(), 0, len(pieces))
	for _, piece := range pieces {
		tasks = append(tasks, func() {
			l.original.Clear(piece)
			for _, cl := range layers {
				l.original.CompositeOver(cl.Projection(), piece, cl.Opacity())
			}
		})
	}
	pool.Run(tasks)
}

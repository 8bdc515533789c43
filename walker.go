// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package imagegraph

import (
	"context"
	"image"

	"github.com/gogpu/imagegraph/region"
)

// updateJob recomputes projections from a changed node up to the root.
type updateJob struct {
	img      *Image
	node     *Node
	rect     image.Rectangle
	noFilthy bool
}

func (j *updateJob) Run(context.Context) {
	j.img.updateMu.Lock()
	defer j.img.updateMu.Unlock()
	j.img.propagateLocked(j.node, j.rect, j.noFilthy)
}

func (j *updateJob) Exclusive() bool { return false }

func (j *updateJob) Name() string { return "update " + j.node.Name() }

// RequestProjectionUpdate schedules a recomputation of rect starting at
// node: its layer projection is rebuilt through the masks and the change
// climbs through every ancestor group to the root. The final rect is
// reported by TakeDirtyRects.
func (img *Image) RequestProjectionUpdate(node NodeRef, rect image.Rectangle) {
	img.requestUpdate(node.Base(), rect, false)
}

// RequestProjectionUpdateNoFilthy schedules a refresh of the ancestors of
// layer over rect without touching the layer projection, which the caller
// already brought up to date.
func (img *Image) RequestProjectionUpdateNoFilthy(layer *Layer, rect image.Rectangle) {
	img.requestUpdate(layer.Node, rect, true)
}

func (img *Image) requestUpdate(n *Node, rect image.Rectangle, noFilthy bool) {
	if rect.Empty() {
		return
	}
	err := img.submit(&updateJob{img: img, node: n, rect: rect, noFilthy: noFilthy})
	if err != nil {
		Logger().Debug("imagegraph: projection update dropped", "node", n.Name(), "err", err)
	}
}

// propagateLocked performs an update pass. img.updateMu must be held.
func (img *Image) propagateLocked(filthy *Node, rect image.Rectangle, noFilthy bool) {
	layer := filthy.Layer()
	if layer == nil {
		layer = filthy.ParentLayer()
		if layer == nil {
			// Detached mask; nothing depends on it.
			return
		}
	}

	r := rect
	if !noFilthy {
		if filthy == layer.Node {
			layer.composite(r, img.pool)
			r = region.Union(r, layer.ChangeRect(r, NFilthy))
		} else {
			r = region.Union(r, layer.changeRectFrom(filthy, r))
		}
		layer.UpdateProjection(r, filthy, 0)
	}

	visited := map[*Node]bool{layer.Node: true}
	child := layer
	for {
		p := child.Parent()
		if p == nil || visited[p] {
			break
		}
		visited[p] = true

		pl := p.Layer()
		if pl == nil {
			break
		}
		pl.composite(r, img.pool)
		r = region.Union(r, pl.OutgoingChangeRect(r))
		pl.UpdateProjection(r, child.Node, 0)
		child = pl
	}

	if child != img.root {
		return
	}
	img.markDirty(r)
}

// markDirty records r as changed for the UI and drops rendered frames.
func (img *Image) markDirty(r image.Rectangle) {
	if d := img.dirty.Load(); d != nil {
		d.MarkRect(r)
	}
	img.frames.InvalidateAll()
}

// TakeDirtyRects returns the tile-aligned rects of the image changed since
// the previous call and marks them clean.
func (img *Image) TakeDirtyRects() []image.Rectangle {
	if d := img.dirty.Load(); d != nil {
		return d.TakeRects()
	}
	return nil
}

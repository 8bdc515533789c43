// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package imagegraph maintains a layered image as a graph of nodes whose
// projections are recomputed incrementally and asynchronously.
//
// # Overview
//
// An Image owns a tree of nodes. Layers hold pixels in a tiled
// [paint.Device]; masks attached to a layer rewrite those pixels on their
// way into the layer projection. Group layers composite the projections of
// their child layers, and the projection of the root group is the image.
//
//	img, err := imagegraph.NewImage(1024, 768)
//	if err != nil {
//		return err
//	}
//	defer img.Close()
//
//	layer := imagegraph.NewPaintLayer(img, "background")
//	_ = img.Root().AddChild(layer)
//	layer.PaintDevice().Fill(image.Rect(0, 0, 200, 100), color.White)
//	layer.SetDirty(image.Rect(0, 0, 200, 100))
//
//	mask := imagegraph.NewTransformMask(img, "rotate")
//	_ = layer.AddChild(mask)
//	_ = mask.SetTransformParams(imagegraph.NewAffineParams(
//		transform.RotateAt(math.Pi/6, 100, 50)))
//
//	img.WaitForDone()
//
// # Change and need rects
//
// Every node kind maps rects in two directions. ChangeRect answers which
// output pixels may differ when a rect of input pixels changed; NeedRect
// answers which input pixels are read to produce a rect of output. An
// update pass climbs from the edited node to the root, widening the rect
// through the change rects of the masks it passes and recompositing each
// ancestor group over the widened rect. The final rect is reported by
// [Image.TakeDirtyRects].
//
// # Transform masks
//
// A [TransformMask] keeps a static cache of the transformed layer. While
// its params change, affine transforms are rendered partially for the
// updated rects only. When the params stay put for the static update delay
// (3s by default), an exclusive regeneration job renders the whole layer
// into the cache and later passes copy from it.
//
// # Filter masks
//
// A [FilterMask] runs a [Filter] over the layer pixels. [BoxBlur] and
// [GaussianBlur] grow the change and need rects by their reach;
// [ColorMatrix] maps every pixel in place and leaves the rects unchanged.
// A nil filter passes the pixels through.
//
// # Signals
//
// Image notifications go through a [SignalRouter]. Structural changes and
// reselection requests are delivered synchronously; the other image signals
// are queued and delivered by [SignalRouter.Drain] or [SignalRouter.Run]
// on the goroutine owning the UI.
//
// # Concurrency
//
// Projection updates run as jobs on a bounded scheduler. Ordinary jobs may
// run side by side; regeneration jobs are exclusive. [Image.Lock] keeps
// new jobs from starting, and [Image.WaitForDone] waits for the scheduled
// ones.
//
// # Logging
//
// The package is silent by default. Call [SetLogger] to receive debug,
// warning and assertion records.
package imagegraph
